package workers

import (
	"context"
	"log/slog"

	"chatnet/ai"
	"chatnet/contract"
	"chatnet/domain"
	"chatnet/errors"
)

// Prompt is one detached text-generation job.
type Prompt struct {
	Room string
	Text string
}

// MessagePoster is the slice of the runtime State the bot needs.
type MessagePoster interface {
	AppendMessage(msg domain.Message) error
}

// BotResponder consumes prompts, asks the text-response collaborator
// for a reply, and posts it back as a bot message. There is no ordering
// guarantee relative to other room activity; if the target room is gone
// by completion, the reply is silently dropped.
type BotResponder struct {
	log       *slog.Logger
	prompts   chan Prompt
	responder contract.Responder
	poster    MessagePoster
	botName   string
}

func NewBotResponder(log *slog.Logger, prompts chan Prompt,
	responder contract.Responder, poster MessagePoster, botName string) *BotResponder {
	return &BotResponder{
		log:       log,
		prompts:   prompts,
		responder: responder,
		poster:    poster,
		botName:   botName,
	}
}

func (w *BotResponder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping bot responder")
			return nil
		case prompt := <-w.prompts:
			w.handle(ctx, prompt)
		}
	}
}

func (w *BotResponder) handle(ctx context.Context, prompt Prompt) {
	reply, err := w.responder.Respond(ctx, prompt.Text, prompt.Room)
	if err != nil {
		// Collaborator failures never surface as protocol errors.
		w.log.Debug("Responder failed, using fallback", "error", err)
		reply = ai.FallbackReply
	}

	msg := domain.NewBotMessage(prompt.Room, w.botName, reply)
	if err := w.poster.AppendMessage(msg); err != nil {
		if err == errors.ErrRoomNotFound {
			w.log.Debug("Room gone before bot reply, dropping", "room", prompt.Room)
			return
		}
		w.log.Warn("Bot reply not posted", "room", prompt.Room, "error", err)
	}
}
