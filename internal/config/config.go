package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Server Server `yaml:"server"`
	World  World  `yaml:"world"`
}

// Server настройки сетевой подсистемы.
type Server struct {
	Bind                 string `yaml:"bind"`
	MetricsPort          int    `yaml:"metrics_port"`
	CompressionThreshold int    `yaml:"compression_threshold"`
	OnlineMode           *bool  `yaml:"online_mode"`
	MaxPlayers           int    `yaml:"max_players"`
	MOTD                 string `yaml:"motd"`
}

// World настройки хранилища мира.
type World struct {
	Dir       string `yaml:"dir"`
	Generator string `yaml:"generator"`
	Seed      int64  `yaml:"seed"`
}

// GetBind возвращает адрес прослушивания: config -> env -> default.
func (s *Server) GetBind() string {
	if s.Bind != "" {
		return s.Bind
	}
	if v := os.Getenv("CRAFT_BIND"); v != "" {
		return v
	}
	return ":25565"
}

// GetMetricsPort возвращает порт Prometheus метрик.
func (s *Server) GetMetricsPort() int {
	return getIntWithEnvFallback(s.MetricsPort, "CRAFT_METRICS_PORT", 2112)
}

// GetCompressionThreshold возвращает порог сжатия пакетов в байтах.
// 0 сжимает всё, отрицательное значение отключает сжатие.
func (s *Server) GetCompressionThreshold() int {
	if s.CompressionThreshold != 0 {
		return s.CompressionThreshold
	}
	if v := os.Getenv("CRAFT_COMPRESSION_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 256
}

// GetOnlineMode сообщает, требуется ли шифрование сессии при входе.
func (s *Server) GetOnlineMode() bool {
	if s.OnlineMode != nil {
		return *s.OnlineMode
	}
	if v := os.Getenv("CRAFT_ONLINE_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return false
}

// GetMaxPlayers возвращает лимит игроков.
func (s *Server) GetMaxPlayers() int {
	return getIntWithEnvFallback(s.MaxPlayers, "CRAFT_MAX_PLAYERS", 20)
}

// GetMOTD возвращает строку описания сервера для списка серверов.
func (s *Server) GetMOTD() string {
	if s.MOTD != "" {
		return s.MOTD
	}
	if v := os.Getenv("CRAFT_MOTD"); v != "" {
		return v
	}
	return "A Craft Server"
}

// GetDir возвращает каталог файлов регионов.
func (w *World) GetDir() string {
	if w.Dir != "" {
		return w.Dir
	}
	if v := os.Getenv("CRAFT_WORLD_DIR"); v != "" {
		return v
	}
	return "world/region"
}

// GetGenerator возвращает имя генератора мира: flat или noise.
func (w *World) GetGenerator() string {
	if w.Generator != "" {
		return w.Generator
	}
	if v := os.Getenv("CRAFT_WORLD_GENERATOR"); v != "" {
		return v
	}
	return "flat"
}

// GetSeed возвращает сид генератора мира.
func (w *World) GetSeed() int64 {
	if w.Seed != 0 {
		return w.Seed
	}
	if v := os.Getenv("CRAFT_WORLD_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default.
func getIntWithEnvFallback(configVal int, envVar string, defaultVal int) int {
	if configVal > 0 {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if n, err := strconv.Atoi(envVal); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV CRAFT_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CRAFT_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
