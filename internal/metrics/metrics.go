// Package metrics экспортирует Prometheus-метрики сетевой подсистемы
// и хранилища регионов. Эндпоинт /metrics поднимается отдельным HTTP-сервером.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector инкапсулирует метрики сервера. Методы безопасны для nil-приёмника:
// компоненты работают и без включённого экспорта.
type Collector struct {
	connectionsTotal  prometheus.Counter
	connectionsActive prometheus.Gauge
	packetsIn         prometheus.Counter
	packetsOut        prometheus.Counter
	bytesIn           prometheus.Counter
	bytesOut          prometheus.Counter
	protocolErrors    *prometheus.CounterVec

	regionReads  prometheus.Counter
	regionWrites prometheus.Counter
	regionsOpen  prometheus.Gauge
}

// NewCollector создаёт коллектор и регистрирует метрики в дефолтном регистре.
func NewCollector() *Collector {
	c := &Collector{
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "craft",
			Name:      "connections_total",
			Help:      "Общее число принятых соединений.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "craft",
			Name:      "connections_active",
			Help:      "Текущее число активных соединений.",
		}),
		packetsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "craft",
			Name:      "packets_in_total",
			Help:      "Общее число декодированных входящих пакетов.",
		}),
		packetsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "craft",
			Name:      "packets_out_total",
			Help:      "Общее число отправленных исходящих пакетов.",
		}),
		bytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "craft",
			Name:      "bytes_in_total",
			Help:      "Байты, прочитанные из сокетов.",
		}),
		bytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "craft",
			Name:      "bytes_out_total",
			Help:      "Байты, записанные в сокеты.",
		}),
		protocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "craft",
			Name:      "protocol_errors_total",
			Help:      "Фатальные ошибки протокола по видам.",
		}, []string{"kind"}),
		regionReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "craft",
			Name:      "region_reads_total",
			Help:      "Чтения чанков из файлов регионов.",
		}),
		regionWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "craft",
			Name:      "region_writes_total",
			Help:      "Записи чанков в файлы регионов.",
		}),
		regionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "craft",
			Name:      "regions_open",
			Help:      "Открытые файлы регионов.",
		}),
	}
	prometheus.MustRegister(
		c.connectionsTotal, c.connectionsActive,
		c.packetsIn, c.packetsOut, c.bytesIn, c.bytesOut,
		c.protocolErrors,
		c.regionReads, c.regionWrites, c.regionsOpen,
	)
	return c
}

func (c *Collector) ConnOpened() {
	if c == nil {
		return
	}
	c.connectionsTotal.Inc()
	c.connectionsActive.Inc()
}

func (c *Collector) ConnClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Dec()
}

func (c *Collector) PacketIn(bytes int) {
	if c == nil {
		return
	}
	c.packetsIn.Inc()
	c.bytesIn.Add(float64(bytes))
}

func (c *Collector) PacketOut(bytes int) {
	if c == nil {
		return
	}
	c.packetsOut.Inc()
	c.bytesOut.Add(float64(bytes))
}

func (c *Collector) ProtocolError(kind string) {
	if c == nil {
		return
	}
	c.protocolErrors.WithLabelValues(kind).Inc()
}

func (c *Collector) RegionRead() {
	if c == nil {
		return
	}
	c.regionReads.Inc()
}

func (c *Collector) RegionWrite() {
	if c == nil {
		return
	}
	c.regionWrites.Inc()
}

func (c *Collector) RegionOpened() {
	if c == nil {
		return
	}
	c.regionsOpen.Inc()
}

func (c *Collector) RegionClosed() {
	if c == nil {
		return
	}
	c.regionsOpen.Dec()
}

// Serve поднимает HTTP-эндпоинт /metrics на указанном порту.
// Блокирует до остановки сервера.
func Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
