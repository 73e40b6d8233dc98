package runtime

import (
	"chatnet/contract"
	"chatnet/domain"
)

// Registry maps live connections to their sessions and sinks, with a
// reverse index by account id. It does not lock itself: every access
// happens inside the State critical section so that registry and room
// directory always mutate together, never halfway.
type Registry struct {
	sessions  map[string]*domain.Session    // conn id -> session
	sinks     map[string]contract.EventSink // conn id -> sink
	byAccount map[string]string             // account id -> conn id
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[string]*domain.Session),
		sinks:     make(map[string]contract.EventSink),
		byAccount: make(map[string]string),
	}
}

// Register binds a session and its sink to a connection id.
// At most one session exists per connection id.
func (r *Registry) Register(session *domain.Session, sink contract.EventSink) {
	r.sessions[session.ConnID] = session
	r.sinks[session.ConnID] = sink
	r.byAccount[session.AccountID] = session.ConnID
}

func (r *Registry) Get(connID string) *domain.Session {
	return r.sessions[connID]
}

// GetByAccount returns nil when the account is currently offline.
func (r *Registry) GetByAccount(accountID string) *domain.Session {
	connID, ok := r.byAccount[accountID]
	if !ok {
		return nil
	}
	return r.sessions[connID]
}

func (r *Registry) Sink(connID string) contract.EventSink {
	return r.sinks[connID]
}

func (r *Registry) SinkByAccount(accountID string) contract.EventSink {
	connID, ok := r.byAccount[accountID]
	if !ok {
		return nil
	}
	return r.sinks[connID]
}

// Remove is idempotent: removing an absent connection is a no-op.
func (r *Registry) Remove(connID string) {
	session, ok := r.sessions[connID]
	if !ok {
		return
	}
	delete(r.sessions, connID)
	delete(r.sinks, connID)

	// Only drop the reverse index if it still points at this connection.
	if r.byAccount[session.AccountID] == connID {
		delete(r.byAccount, session.AccountID)
	}
}

// Sessions returns all live sessions, in no particular order.
func (r *Registry) Sessions() []*domain.Session {
	out := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Sinks returns every live sink, in no particular order.
func (r *Registry) Sinks() []contract.EventSink {
	out := make([]contract.EventSink, 0, len(r.sinks))
	for _, sink := range r.sinks {
		out = append(out, sink)
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.sessions)
}
