package workers

import (
	"context"
	"log/slog"
	"time"

	"chatnet/contract"
	"chatnet/domain/event"
)

// EventFanout broadcasts domain events to the sinks the resolver picks
// for each event, plus a fixed set of permanent sinks (archive,
// telemetry).
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. EventFanout is not a message broker.
type EventFanout struct {
	log         *slog.Logger
	events      chan event.DomainEvent
	resolver    contract.Resolver
	permanent   []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, events chan event.DomainEvent,
	resolver contract.Resolver, sinkTimeout time.Duration,
	permanent ...contract.EventSink) *EventFanout {
	return &EventFanout{
		log:         log,
		events:      events,
		resolver:    resolver,
		permanent:   permanent,
		sinkTimeout: sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout delivers one event to every addressed sink. A slow or broken
// sink only loses its own copy.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := append(w.resolver.Resolve(evt), w.permanent...)
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Debug("Sink delivery failed", "event", evt.Name(), "error", err)
		}
		cancel()
	}
}
