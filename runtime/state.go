// Package runtime owns the live chat state: connection registry, room
// directory, per-room logs, and the moderation pipeline acting on them.
// All mutations run as single critical sections on one mutex so partial
// updates are never observable.
package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"chatnet/contract"
	"chatnet/domain"
	"chatnet/domain/event"
	"chatnet/projection"
)

type State struct {
	mu       sync.Mutex
	log      *slog.Logger
	registry *Registry
	rooms    map[string]*domain.Room
	logs     map[string]*domain.RoomLog
	muted    map[string]struct{} // account ids globally muted, live view
	denylist contract.Denylist

	events        chan event.DomainEvent
	alerts        chan string
	moderatorName string
}

func NewState(log *slog.Logger, registry *Registry, denylist contract.Denylist,
	moderatorName string, bufferSize int) *State {
	return &State{
		log:           log,
		registry:      registry,
		rooms:         make(map[string]*domain.Room),
		logs:          make(map[string]*domain.RoomLog),
		muted:         make(map[string]struct{}),
		denylist:      denylist,
		events:        make(chan event.DomainEvent, bufferSize),
		alerts:        make(chan string, bufferSize),
		moderatorName: moderatorName,
	}
}

// Events exposes the outbound event stream consumed by the fanout worker.
func (s *State) Events() chan event.DomainEvent {
	return s.events
}

// Alerts exposes the behavior notice stream consumed by the admin alert
// batcher.
func (s *State) Alerts() chan string {
	return s.alerts
}

// emit queues an event for fan-out without blocking the critical section.
func (s *State) emit(e event.DomainEvent) {
	select {
	case s.events <- e:
	default:
		s.log.Warn(fmt.Sprintf("Event channel full, dropping %s", e.Name()))
	}
}

// RaiseAlert queues a behavior notice for the admin alert batcher.
func (s *State) RaiseAlert(text string) {
	select {
	case s.alerts <- text:
	default:
		s.log.Debug("Alert channel full, notice lost")
	}
}

// Resolve implements contract.Resolver for the fanout worker. Events
// addressed to a room that no longer exists resolve to nothing and are
// silently dropped.
func (s *State) Resolve(e event.DomainEvent) []contract.EventSink {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Audience() {
	case event.AudienceAll:
		return s.registry.Sinks()

	case event.AudienceAdmins:
		var sinks []contract.EventSink
		for _, sess := range s.registry.Sessions() {
			if sess.IsAdmin() {
				if sink := s.registry.Sink(sess.ConnID); sink != nil {
					sinks = append(sinks, sink)
				}
			}
		}
		return sinks

	case event.AudienceAccount:
		direct, ok := e.(event.DirectEvent)
		if !ok {
			return nil
		}
		if sink := s.registry.SinkByAccount(direct.Target()); sink != nil {
			return []contract.EventSink{sink}
		}
		return nil

	case event.AudienceRoom:
		scoped, ok := e.(event.RoomEvent)
		if !ok {
			return nil
		}
		return s.roomSinksLocked(scoped.Room())
	}
	return nil
}

func (s *State) roomSinksLocked(roomName string) []contract.EventSink {
	room, ok := s.rooms[roomName]
	if !ok {
		return nil
	}

	var sinks []contract.EventSink
	if room.Kind == domain.RoomDm {
		for _, accountID := range room.DmPair {
			if sink := s.registry.SinkByAccount(accountID); sink != nil {
				sinks = append(sinks, sink)
			}
		}
		return sinks
	}

	for _, sess := range s.registry.Sessions() {
		if sess.MainRoom == roomName {
			if sink := s.registry.Sink(sess.ConnID); sink != nil {
				sinks = append(sinks, sink)
			}
		}
	}
	return sinks
}

// membersLocked recomputes the membership view of a main room.
func (s *State) membersLocked(roomName string) []projection.MemberView {
	room, ok := s.rooms[roomName]
	if !ok {
		return nil
	}
	return projection.ComputeMembership(room, s.registry.Sessions(), s.moderatorName)
}

func (s *State) directoryLocked() []projection.RoomSummary {
	return projection.ComputePublicDirectory(s.rooms, s.registry.Sessions())
}

// Directory returns the current lobby listing.
func (s *State) Directory() []projection.RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directoryLocked()
}

// Members returns the current membership view of a main room.
func (s *State) Members(roomName string) []projection.MemberView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.membersLocked(roomName)
}

// Room returns a copy of the room metadata, if the room exists.
func (s *State) Room(name string) (domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[name]
	if !ok {
		return domain.Room{}, false
	}
	return *room, true
}

// Session returns a snapshot of the session bound to a connection id.
// Mutations only happen through State methods, never on the snapshot.
func (s *State) Session(connID string) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.registry.Get(connID)
	if sess == nil {
		return domain.Session{}, false
	}
	return *sess, true
}

// SessionByAccount returns a snapshot of the live session of an account.
func (s *State) SessionByAccount(accountID string) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.registry.GetByAccount(accountID)
	if sess == nil {
		return domain.Session{}, false
	}
	return *sess, true
}

// IsMuted reports whether the account is globally muted.
func (s *State) IsMuted(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.muted[accountID]
	return ok
}

// Online reports the number of live sessions.
func (s *State) Online() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Len()
}
