package runtime

import (
	"context"
	"fmt"
	"time"

	"chatnet/domain"
	"chatnet/domain/event"
	"chatnet/errors"
)

// Moderation action pipeline. Every operation is one critical section
// against the same State mutex as presence transitions, so admin
// actions and membership changes never interleave halfway.
//
// Authorization is decided by the services layer before these are
// invoked; the pipeline enforces target-side invariants only.

// Kick disconnects the current live connection of an account and evicts
// its room membership. The account stays authenticatable.
func (s *State) Kick(targetAccountID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(targetAccountID, "kick", reason)
}

// Ban adds the account to the durable denylist, then force-disconnects
// any live session. The denylist entry blocks all future authentication.
func (s *State) Ban(targetAccountID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.denylist.Add(targetAccountID, reason); err != nil {
		return fmt.Errorf("denylist add: %w", err)
	}
	// Offline targets are banned without a live session to evict.
	if err := s.evictLocked(targetAccountID, "ban", reason); err != nil && err != errors.ErrSessionNotFound {
		return err
	}
	return nil
}

func (s *State) evictLocked(targetAccountID, action, reason string) error {
	sess := s.registry.GetByAccount(targetAccountID)
	if sess == nil {
		return errors.ErrSessionNotFound
	}

	s.departMainLocked(sess)

	// The registry entry is gone before the fanout worker resolves, so
	// the eviction notices go straight to the captured sink.
	sink := s.registry.Sink(sess.ConnID)
	s.registry.Remove(sess.ConnID)
	if sink != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = sink.Consume(ctx, event.ModerationNotice{TargetID: targetAccountID, Action: action, Reason: reason})
			_ = sink.Consume(ctx, event.SessionEnded{TargetID: targetAccountID, Reason: action})
		}()
	}

	s.emit(event.DirectoryChanged{Rooms: s.directoryLocked()})
	s.log.Info(fmt.Sprintf("Session evicted (%s)", action), "account", sess.Username)
	return nil
}

// SetMuted flips the global mute for an account, independent of room or
// summon state. The durable flag is persisted by the caller.
func (s *State) SetMuted(targetAccountID string, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := "unmute"
	if muted {
		s.muted[targetAccountID] = struct{}{}
		action = "mute"
	} else {
		delete(s.muted, targetAccountID)
	}
	s.emit(event.ModerationNotice{TargetID: targetAccountID, Action: action})
}

// ToggleSpectate flips mute-in-place for a live session without any
// room change. Returns the new spectating state.
func (s *State) ToggleSpectate(targetAccountID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.GetByAccount(targetAccountID)
	if sess == nil {
		return false, errors.ErrSessionNotFound
	}
	sess.Spectating = !sess.Spectating

	action := "spectate-off"
	if sess.Spectating {
		action = "spectate-on"
	}
	s.emit(event.ModerationNotice{TargetID: targetAccountID, Action: action})
	return sess.Spectating, nil
}

// Summon creates (or reuses) the judgement room for the target and
// forces both the admin and the target into it. Exactly one judgement
// room exists per summoned account.
func (s *State) Summon(adminAccountID, targetAccountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin := s.registry.GetByAccount(adminAccountID)
	target := s.registry.GetByAccount(targetAccountID)
	if admin == nil || target == nil {
		return errors.ErrSessionNotFound
	}
	if target.IsAdmin() {
		return errors.ErrNotAuthorized
	}
	if target.Summoned {
		return errors.ErrSummoned
	}

	name := domain.JudgementRoomName(targetAccountID)
	room, ok := s.rooms[name]
	if !ok {
		room = domain.NewJudgementRoom(adminAccountID, targetAccountID)
		s.rooms[name] = room
		s.logs[name] = domain.NewRoomLog()
	}

	// Forced transfers bypass the self-transfer custody check.
	s.attachLocked(target, room)
	s.attachLocked(admin, room)
	target.Summoned = true

	s.emit(event.ModerationNotice{TargetID: targetAccountID, Action: "summon"})
	return nil
}

// Release ends a summons: both parties leave the judgement room and the
// room is destroyed once empty.
func (s *State) Release(adminAccountID, targetAccountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.registry.GetByAccount(targetAccountID)
	if target == nil {
		return errors.ErrSessionNotFound
	}
	if !target.Summoned {
		return nil
	}

	name := domain.JudgementRoomName(targetAccountID)
	target.Summoned = false
	if target.MainRoom == name {
		s.departMainLocked(target)
	}
	if admin := s.registry.GetByAccount(adminAccountID); admin != nil && admin.MainRoom == name {
		s.departMainLocked(admin)
	}

	// departMainLocked reaps empty judgement rooms; force the issue if
	// someone else is still lingering inside.
	if _, ok := s.rooms[name]; ok && s.roomEmptyLocked(name) {
		delete(s.rooms, name)
		delete(s.logs, name)
	}

	s.emit(event.ModerationNotice{TargetID: targetAccountID, Action: "release"})
	return nil
}

// PromoteHost adds the account to a room's host set. The displayed role
// is derived, so the membership list is re-broadcast.
func (s *State) PromoteHost(roomName, targetAccountID string) error {
	return s.setHost(roomName, targetAccountID, true)
}

// DemoteHost removes the account from a room's host set.
func (s *State) DemoteHost(roomName, targetAccountID string) error {
	return s.setHost(roomName, targetAccountID, false)
}

func (s *State) setHost(roomName, targetAccountID string, host bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomName]
	if !ok || !room.IsMain() {
		return errors.ErrRoomNotFound
	}
	if host {
		room.AddHost(targetAccountID)
	} else {
		room.RemoveHost(targetAccountID)
	}
	s.emit(event.MembersChanged{RoomName: roomName, Members: s.membersLocked(roomName)})
	return nil
}

// SetOwner transfers room ownership. The displayed role is derived, so
// the membership list is re-broadcast.
func (s *State) SetOwner(roomName, targetAccountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomName]
	if !ok || !room.IsMain() {
		return errors.ErrRoomNotFound
	}
	room.OwnerID = targetAccountID
	// An owner outranks a host; drop the redundant host entry.
	room.RemoveHost(targetAccountID)
	s.emit(event.MembersChanged{RoomName: roomName, Members: s.membersLocked(roomName)})
	return nil
}

// SetTopic rewrites the room topic shown in the public directory.
func (s *State) SetTopic(roomName, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomName]
	if !ok || !room.IsMain() {
		return errors.ErrRoomNotFound
	}
	room.Topic = topic
	s.emit(event.DirectoryChanged{Rooms: s.directoryLocked()})
	return nil
}

// SetLocked flips the room lock. A locked room only admits admins, the
// owner and hosts; current residents are not evicted.
func (s *State) SetLocked(roomName string, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomName]
	if !ok || !room.IsMain() {
		return errors.ErrRoomNotFound
	}
	room.Locked = locked
	s.emit(event.DirectoryChanged{Rooms: s.directoryLocked()})
	return nil
}

// SetRole changes the live role snapshot of an account and re-broadcasts
// the membership of its room. The durable account record is updated by
// the caller.
func (s *State) SetRole(targetAccountID string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.GetByAccount(targetAccountID)
	if sess == nil {
		return errors.ErrSessionNotFound
	}
	sess.Role = role
	if sess.MainRoom != "" {
		s.emit(event.MembersChanged{RoomName: sess.MainRoom, Members: s.membersLocked(sess.MainRoom)})
	}
	return nil
}

// Warn delivers a moderation notice to the target without any state
// change.
func (s *State) Warn(targetAccountID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.GetByAccount(targetAccountID) == nil {
		return errors.ErrSessionNotFound
	}
	s.emit(event.ModerationNotice{TargetID: targetAccountID, Action: "warn", Reason: reason})
	return nil
}
