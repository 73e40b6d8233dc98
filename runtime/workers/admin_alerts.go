package workers

import (
	"context"
	"log/slog"
	"time"

	"chatnet/domain/event"
)

// AdminAlertBatcher coalesces high-frequency behavior notices and
// flushes them to online admins on a ticker, instead of firing one
// admin broadcast per micro-event.
type AdminAlertBatcher struct {
	log      *slog.Logger
	alerts   chan string
	events   chan event.DomainEvent
	interval time.Duration
	pending  []string
}

func NewAdminAlertBatcher(log *slog.Logger, alerts chan string,
	events chan event.DomainEvent, interval time.Duration) *AdminAlertBatcher {
	return &AdminAlertBatcher{
		log:      log,
		alerts:   alerts,
		events:   events,
		interval: interval,
	}
}

func (w *AdminAlertBatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush()
			w.log.Debug("Context done, stopping alert batcher")
			return nil
		case notice := <-w.alerts:
			w.pending = append(w.pending, notice)
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *AdminAlertBatcher) flush() {
	if len(w.pending) == 0 {
		return
	}
	batch := event.AdminAlerts{Notices: w.pending}
	w.pending = nil

	select {
	case w.events <- batch:
	default:
		w.log.Debug("Event channel full, admin alert batch lost")
	}
}
