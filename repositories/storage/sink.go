package storage

import (
	"context"
	"log/slog"

	"chatnet/domain/event"
	"chatnet/repositories"
)

// ArchiveSink is a permanent fanout sink that mirrors posted messages
// into the durable message archive. Other event kinds pass through.
type ArchiveSink struct {
	messages repositories.IMessageRepository
	log      *slog.Logger
}

func NewArchiveSink(messages repositories.IMessageRepository, log *slog.Logger) *ArchiveSink {
	return &ArchiveSink{messages: messages, log: log}
}

func (s *ArchiveSink) Consume(_ context.Context, e event.DomainEvent) error {
	posted, ok := e.(event.MessagePosted)
	if !ok {
		return nil
	}
	return s.messages.StoreMessage(posted.Message)
}
