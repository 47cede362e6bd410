package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/craft-server/internal/anvil"
	"github.com/annel0/craft-server/internal/config"
	"github.com/annel0/craft-server/internal/logging"
	"github.com/annel0/craft-server/internal/metrics"
	"github.com/annel0/craft-server/internal/network"
	"github.com/annel0/craft-server/internal/protocol/packets"
	"github.com/annel0/craft-server/internal/world"
)

// viewRadius — радиус отправляемых при входе чанков вокруг точки спавна.
const viewRadius = 2

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitLogger(); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseLogger()

	logging.LogInfo("🎮 Запуск Craft Server...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.LogError("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	logging.LogInfo("📡 Конфигурация: bind=%s, metrics=%d, сжатие от %d байт, online=%v",
		cfg.Server.GetBind(), cfg.Server.GetMetricsPort(),
		cfg.Server.GetCompressionThreshold(), cfg.Server.GetOnlineMode())

	// === ИНИЦИАЛИЗАЦИЯ КОМПОНЕНТОВ ===

	// Метрики Prometheus
	collector := metrics.NewCollector()
	go func() {
		if err := metrics.Serve(cfg.Server.GetMetricsPort()); err != nil {
			logging.LogError("Ошибка HTTP сервера метрик: %v", err)
		}
	}()

	// Системные показатели процесса
	statsCtx, stopStats := context.WithCancel(context.Background())
	defer stopStats()
	if stats, err := metrics.NewSystemStats(); err != nil {
		logging.LogWarn("Системные метрики недоступны: %v", err)
	} else {
		go stats.Run(statsCtx, 10*time.Second)
	}

	// Хранилище мира
	logging.LogDebug("Открытие хранилища мира: %s", cfg.World.GetDir())
	storage, err := world.NewWorldStorage(cfg.World.GetDir(), collector)
	if err != nil {
		logging.LogError("❌ Ошибка открытия хранилища мира: %v", err)
		log.Fatalf("❌ Ошибка открытия хранилища мира: %v", err)
	}

	// Реестры пакетов по диапазонам версий
	registries, err := network.BuildRegistries(network.DefaultRows())
	if err != nil {
		logging.LogError("❌ Ошибка сборки реестров пакетов: %v", err)
		log.Fatalf("❌ Ошибка сборки реестров пакетов: %v", err)
	}

	// Генератор мира
	var generator world.Generator
	switch cfg.World.GetGenerator() {
	case "noise":
		generator = world.NewNoiseGenerator(cfg.World.GetSeed())
	case "flat":
		generator = world.NewFlatGenerator()
	default:
		log.Fatalf("❌ Неизвестный генератор мира: %s", cfg.World.GetGenerator())
	}

	// Игровой обработчик
	handler := &gameHandler{
		storage:   storage,
		generator: generator,
	}

	// Сетевой сервер
	logging.LogDebug("Создание игрового сервера...")
	server, err := network.NewServer(network.Options{
		BindAddr:             cfg.Server.GetBind(),
		CompressionThreshold: cfg.Server.GetCompressionThreshold(),
		OnlineMode:           cfg.Server.GetOnlineMode(),
		MOTD:                 cfg.Server.GetMOTD(),
		MaxPlayers:           cfg.Server.GetMaxPlayers(),
	}, registries, handler, collector)
	if err != nil {
		logging.LogError("❌ Ошибка создания сервера: %v", err)
		log.Fatalf("❌ Ошибка создания сервера: %v", err)
	}

	server.Start()
	logging.LogInfo("✅ Сервер запущен и принимает соединения: %s", server.Addr())
	logging.LogInfo("   📊 Метрики: http://localhost:%d/metrics", cfg.Server.GetMetricsPort())

	// Ждем сигнала для завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.LogInfo("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	server.Stop()
	if err := storage.Close(); err != nil {
		logging.LogError("Ошибка закрытия хранилища мира: %v", err)
	}
	logging.LogInfo("✅ Сервер остановлен")
}

// gameHandler — минимальная игровая логика: отправка чанков вокруг
// спавна при входе.
type gameHandler struct {
	storage   *world.WorldStorage
	generator world.Generator
}

func (h *gameHandler) HandleJoin(s *network.Session) {
	logging.LogInfo("🧍 %s вошёл в игру", s.Name)

	for z := int32(-viewRadius); z <= viewRadius; z++ {
		for x := int32(-viewRadius); x <= viewRadius; x++ {
			if err := h.sendChunk(s, anvil.ChunkPos{X: x, Z: z}); err != nil {
				logging.LogError("Ошибка отправки чанка (%d,%d) игроку %s: %v", x, z, s.Name, err)
				return
			}
		}
	}
}

func (h *gameHandler) sendChunk(s *network.Session, pos anvil.ChunkPos) error {
	col, err := h.storage.LoadOrGenerate(pos, h.generator)
	if err != nil {
		return err
	}
	data, err := world.MarshalColumn(col)
	if err != nil {
		return err
	}
	return s.Conn.WritePacket(&packets.ChunkData{
		ChunkX: pos.X,
		ChunkZ: pos.Z,
		Data:   data,
	})
}

func (h *gameHandler) HandlePacket(s *network.Session, pkt packets.Packet) error {
	logging.LogDebug("Пакет %s от %s", pkt.Kind(), s.Name)
	return nil
}

func (h *gameHandler) HandleQuit(s *network.Session, err error) {
	if err != nil {
		logging.LogWarn("🚪 %s покинул игру: %v", s.Name, err)
		return
	}
	logging.LogInfo("🚪 %s покинул игру", s.Name)
}
