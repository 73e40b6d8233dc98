package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/shirou/gopsutil"
	"github.com/shirou/gopsutil/process"
)

// HealthMonitoringWorker samples the server's own process and feeds the
// readings into the admin alert stream so online admins see resource
// pressure alongside behavior notices.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	alerts         chan string
	metricInterval time.Duration
	cpuThreshold   float64
}

func NewHealthMonitoringWorker(log *slog.Logger, alerts chan string,
	metricInterval time.Duration, cpuThreshold float64) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{
		log:            log,
		alerts:         alerts,
		metricInterval: metricInterval,
		cpuThreshold:   cpuThreshold,
	}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			cpu, err := proc.CPUPercent()
			if err != nil {
				w.log.Error("Error while finding process cpu usage", "err", err)
				continue
			}
			ram, err := proc.MemoryPercent()
			if err != nil {
				w.log.Error("Error while finding process ram usage", "err", err)
				continue
			}
			w.log.Debug("Process health", "cpu", cpu, "ram", ram)

			if cpu < w.cpuThreshold {
				continue
			}
			select {
			case w.alerts <- fmt.Sprintf("server under load: cpu %.1f%% ram %.1f%%", cpu, ram):
			default:
				w.log.Debug("Alert channel full, health notice lost")
			}
		}
	}
}
