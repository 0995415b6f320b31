package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"trollbox/domain"

	"github.com/shirou/gopsutil/process"
)

type HubStatsReader interface {
	Stats() domain.HubStats
}

// StatsWorker periodically logs hub counters, queue fill levels and process usage.
// It's okay if a sample is skipped because metrics are sampled periodically.
type StatsWorker struct {
	log      *slog.Logger
	hub      HubStatsReader
	channels []NamedChannel
	interval time.Duration
}

func NewStatsWorker(log *slog.Logger, hub HubStatsReader, channels []NamedChannel, interval time.Duration) *StatsWorker {
	return &StatsWorker{log: log, hub: hub, channels: channels, interval: interval}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		w.log.Warn("Process stats unavailable", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping stats reporting")
			return nil
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *StatsWorker) report(p *process.Process) {
	stats := w.hub.Stats()
	attrs := []any{
		"subscribers", stats.Subscribers,
		"accepted", stats.Accepted,
		"delivered", stats.Delivered,
		"dropped", stats.Dropped,
	}
	for _, fill := range MeasureChannels(w.channels) {
		attrs = append(attrs, slog.Group(fill.Name, "len", fill.Length, "cap", fill.Capacity))
	}
	if p != nil {
		if mem, err := p.MemoryInfo(); err == nil {
			attrs = append(attrs, "rss_bytes", mem.RSS)
		}
		if cpu, err := p.CPUPercent(); err == nil {
			attrs = append(attrs, "cpu_percent", cpu)
		}
	}
	w.log.Info("Hub stats", attrs...)
}
