package metrics

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemStats периодически снимает показатели процесса и системы
// и публикует их как Prometheus-метрики.
type SystemStats struct {
	proc *process.Process

	cpuProcess prometheus.Gauge
	cpuSystem  prometheus.Gauge
	memoryMB   prometheus.Gauge
	goroutines prometheus.Gauge
	uptime     prometheus.Gauge

	startTime time.Time
}

// NewSystemStats создаёт сборщик системных показателей.
func NewSystemStats() (*SystemStats, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	s := &SystemStats{
		proc: proc,
		cpuProcess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "craft",
			Name:      "process_cpu_percent",
			Help:      "Использование CPU процессом сервера, проценты.",
		}),
		cpuSystem: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "craft",
			Name:      "system_cpu_percent",
			Help:      "Общее использование CPU системы, проценты.",
		}),
		memoryMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "craft",
			Name:      "heap_alloc_mb",
			Help:      "Занятая куча Go, мегабайты.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "craft",
			Name:      "goroutines",
			Help:      "Число горутин процесса.",
		}),
		uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "craft",
			Name:      "uptime_seconds",
			Help:      "Время работы сервера, секунды.",
		}),
		startTime: time.Now(),
	}
	prometheus.MustRegister(s.cpuProcess, s.cpuSystem, s.memoryMB, s.goroutines, s.uptime)
	return s, nil
}

// Run снимает показатели с заданным интервалом до отмены контекста.
func (s *SystemStats) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *SystemStats) sample() {
	if pct, err := s.proc.CPUPercent(); err == nil {
		s.cpuProcess.Set(pct)
	}
	// Без ожидания: процент с момента прошлого вызова.
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.cpuSystem.Set(pcts[0])
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s.memoryMB.Set(float64(m.Alloc) / 1024 / 1024)
	s.goroutines.Set(float64(runtime.NumGoroutine()))
	s.uptime.Set(time.Since(s.startTime).Seconds())
}
