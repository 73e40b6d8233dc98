// Package ws is the websocket transport: one connection maps to one
// session and one event sink.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"chatnet/domain/event"

	"github.com/gofiber/websocket/v2"
)

// Frame is the wire envelope in both directions. Server pushes carry an
// event name; client requests carry an op and an optional seq echoed
// back in the matching ack.
type Frame struct {
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Seq   uint64 `json:"seq,omitempty"`
}

// Sink serializes one connection's outbound frames. Fanout workers and
// the read loop both write here, so every write takes the mutex.
type Sink struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  *slog.Logger
}

func NewSink(conn *websocket.Conn, log *slog.Logger) *Sink {
	return &Sink{conn: conn, log: log}
}

// Consume pushes a fanned-out domain event to the client. A session-end
// order additionally closes the connection, which unblocks the read
// loop and triggers the disconnect cascade.
func (s *Sink) Consume(_ context.Context, e event.DomainEvent) error {
	if err := s.Send(Frame{Event: e.Name(), Data: e}); err != nil {
		return err
	}
	if _, ended := e.(event.SessionEnded); ended {
		s.Close()
	}
	return nil
}

func (s *Sink) Send(frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Close(); err != nil {
		s.log.Debug("Connection close failed", "error", err)
	}
}
