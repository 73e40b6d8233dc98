package runtime

import (
	"fmt"

	"chatnet/contract"
	"chatnet/domain"
	"chatnet/domain/event"
	"chatnet/errors"

	"github.com/google/uuid"
)

// Connect registers a new session for an authenticated account. Exactly
// one live session may exist per account; a second connect for the same
// identity is rejected.
func (s *State) Connect(account domain.Account, connID string, sink contract.EventSink) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.registry.GetByAccount(account.ID); existing != nil {
		return domain.Session{}, errors.ErrDuplicateIdentity
	}

	session := domain.NewSession(connID, account)
	if account.Muted {
		s.muted[account.ID] = struct{}{}
	}
	s.registry.Register(session, sink)
	s.log.Debug("Session opened", "account", account.Username, "conn", connID)
	return *session, nil
}

// Disconnect tears a session down. It is unconditionally idempotent:
// invoking it on an already-absent session is a no-op. The cascade
// leaves the main room (with departure broadcast) before removing the
// registry entry.
func (s *State) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Get(connID)
	if sess == nil {
		return
	}
	if sess.MainRoom != "" {
		s.departMainLocked(sess)
	}
	s.registry.Remove(connID)
	s.log.Debug("Session closed", "account", sess.Username, "conn", connID)
	s.emit(event.DirectoryChanged{Rooms: s.directoryLocked()})
}

// CreatePublicRoom creates a public room, or returns the existing one
// with the same name. Public rooms live for the process lifetime.
func (s *State) CreatePublicRoom(name, ownerID string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, ok := s.rooms[name]; ok {
		if room.Kind != domain.RoomPublic {
			return domain.Room{}, fmt.Errorf("%w: %q is reserved", errors.ErrRoomNotFound, name)
		}
		return *room, nil
	}

	room := domain.NewPublicRoom(name, ownerID)
	s.rooms[name] = room
	s.logs[name] = domain.NewRoomLog()
	s.emit(event.DirectoryChanged{Rooms: s.directoryLocked()})
	return *room, nil
}

// CreateOrGetDmRoom lazily creates the DM room for a participant pair.
// DM rooms never show up in the public directory.
func (s *State) CreateOrGetDmRoom(a, b string) domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.dmRoomLocked(a, b)
}

func (s *State) dmRoomLocked(a, b string) *domain.Room {
	name := domain.DmRoomName(a, b)
	if room, ok := s.rooms[name]; ok {
		return room
	}
	room := domain.NewDmRoom(a, b)
	s.rooms[name] = room
	s.logs[name] = domain.NewRoomLog()
	return room
}

// JoinMainRoom moves a session into a public or judgement room:
// reject while summoned, atomically leave the previous main room first,
// then attach and broadcast arrival, membership, and directory.
func (s *State) JoinMainRoom(connID, roomName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Get(connID)
	if sess == nil {
		return errors.ErrSessionNotFound
	}
	room, ok := s.rooms[roomName]
	if !ok || !room.IsMain() {
		return errors.ErrRoomNotFound
	}
	// Custody invariant: a summoned session cannot self-transfer.
	if sess.Summoned {
		return errors.ErrSummoned
	}
	if room.Locked && !s.mayEnterLockedLocked(room, sess) {
		return errors.ErrRoomLocked
	}
	if sess.MainRoom == roomName {
		sess.ActiveRoom = roomName
		return nil
	}

	s.attachLocked(sess, room)
	return nil
}

// attachLocked performs the two-phase main-room transfer inside one
// critical section so the intermediate state is never observable.
func (s *State) attachLocked(sess *domain.Session, room *domain.Room) {
	if sess.MainRoom != "" {
		s.departMainLocked(sess)
	}

	sess.MainRoom = room.Name
	sess.ActiveRoom = room.Name
	sess.Typing = false

	s.emit(event.SystemNotice{RoomName: room.Name, Text: fmt.Sprintf("%s joined the room", sess.Username)})
	s.emit(event.MembersChanged{RoomName: room.Name, Members: s.membersLocked(room.Name)})
	s.emit(event.DirectoryChanged{Rooms: s.directoryLocked()})
}

// departMainLocked clears main-room membership and broadcasts the
// departure. Empty judgement rooms are reaped on the way out.
func (s *State) departMainLocked(sess *domain.Session) {
	old := sess.MainRoom
	if old == "" {
		return
	}
	sess.MainRoom = ""
	sess.ActiveRoom = ""
	sess.Typing = false

	s.emit(event.SystemNotice{RoomName: old, Text: fmt.Sprintf("%s left the room", sess.Username)})
	s.emit(event.MembersChanged{RoomName: old, Members: s.membersLocked(old)})
	s.emit(event.DirectoryChanged{Rooms: s.directoryLocked()})

	if room, ok := s.rooms[old]; ok && room.Kind == domain.RoomJudgement && s.roomEmptyLocked(old) {
		delete(s.rooms, old)
		delete(s.logs, old)
	}
}

func (s *State) roomEmptyLocked(roomName string) bool {
	for _, sess := range s.registry.Sessions() {
		if sess.MainRoom == roomName {
			return false
		}
	}
	return true
}

func (s *State) mayEnterLockedLocked(room *domain.Room, sess *domain.Session) bool {
	return sess.IsAdmin() || room.OwnerID == sess.AccountID || room.HasHost(sess.AccountID)
}

// JoinDm points the session's active room at the DM with the given
// peer. Main-room membership is untouched and nothing is broadcast:
// DM rooms have no visible member list.
func (s *State) JoinDm(connID, peerAccountID string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Get(connID)
	if sess == nil {
		return domain.Room{}, errors.ErrSessionNotFound
	}

	room := s.dmRoomLocked(sess.AccountID, peerAccountID)
	sess.ActiveRoom = room.Name
	sess.UnhideDm(room.Name)
	return *room, nil
}

// LeaveActiveRoom closes the current input target. Closing a DM overlay
// reverts the active room to the main room without side effects;
// leaving a main room performs the full departure broadcast.
func (s *State) LeaveActiveRoom(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Get(connID)
	if sess == nil {
		return
	}

	if room, ok := s.rooms[sess.ActiveRoom]; ok && room.Kind == domain.RoomDm {
		sess.HideDm(room.Name)
		sess.ActiveRoom = sess.MainRoom
		return
	}
	// Custody invariant: only an admin release or a disconnect removes a
	// summoned session from its judgement room.
	if sess.Summoned {
		return
	}
	s.departMainLocked(sess)
}

// DestroyRoom removes a room, evicting any residents first.
func (s *State) DestroyRoom(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[name]; !ok {
		return
	}
	for _, sess := range s.registry.Sessions() {
		if sess.MainRoom == name {
			sess.MainRoom = ""
			sess.ActiveRoom = ""
		}
		if sess.ActiveRoom == name {
			sess.ActiveRoom = sess.MainRoom
		}
	}
	delete(s.rooms, name)
	delete(s.logs, name)
	s.emit(event.DirectoryChanged{Rooms: s.directoryLocked()})
}

// AppendMessage appends to the room log and broadcasts. If the room is
// gone by the time a detached producer (the bot) delivers, the message
// is silently dropped.
func (s *State) AppendMessage(msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(msg)
}

// PostUserMessage appends on behalf of a live session. The guest budget
// is checked and charged in the same critical section as the append, so
// a rejected post never burns a guest message.
func (s *State) PostUserMessage(connID string, msg domain.Message, guestLimit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Get(connID)
	if sess == nil {
		return errors.ErrSessionNotFound
	}
	if sess.Guest && guestLimit > 0 && sess.MessagesSent >= guestLimit {
		return errors.ErrGuestLimit
	}
	if err := s.appendLocked(msg); err != nil {
		return err
	}
	sess.MessagesSent++
	return nil
}

func (s *State) appendLocked(msg domain.Message) error {
	roomLog, ok := s.logs[msg.Room]
	if !ok {
		return errors.ErrRoomNotFound
	}
	roomLog.Append(msg)

	// A DM only becomes visible to the peer once something is said.
	if room := s.rooms[msg.Room]; room != nil && room.Kind == domain.RoomDm {
		for _, accountID := range room.DmPair {
			if peer := s.registry.GetByAccount(accountID); peer != nil {
				peer.UnhideDm(room.Name)
			}
		}
	}

	s.emit(event.MessagePosted{Message: msg})
	return nil
}

// EditMessage rewrites a message in place and marks it edited.
// Position and count in the log never change.
func (s *State) EditMessage(roomName string, id uuid.UUID, content string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomLog, ok := s.logs[roomName]
	if !ok {
		return domain.Message{}, errors.ErrRoomNotFound
	}
	msg, ok := roomLog.Edit(id, content)
	if !ok {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	s.emit(event.MessageEdited{Message: msg})
	return msg, nil
}

// DeleteMessage tombstones a message; the record stays in the log.
func (s *State) DeleteMessage(roomName string, id uuid.UUID) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomLog, ok := s.logs[roomName]
	if !ok {
		return domain.Message{}, errors.ErrRoomNotFound
	}
	msg, ok := roomLog.Tombstone(id)
	if !ok {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	s.emit(event.MessageDeleted{RoomName: roomName, MessageID: id})
	return msg, nil
}

// GetMessage fetches one message, tombstoned or not.
func (s *State) GetMessage(roomName string, id uuid.UUID) (domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomLog, ok := s.logs[roomName]
	if !ok {
		return domain.Message{}, false
	}
	return roomLog.Get(id)
}

// History returns up to n most recent messages of a room.
func (s *State) History(roomName string, n int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomLog, ok := s.logs[roomName]
	if !ok {
		return nil, errors.ErrRoomNotFound
	}
	return roomLog.Recent(n), nil
}

// SnapshotByAuthor freezes the most recent non-deleted messages of one
// author in a room, for report context.
func (s *State) SnapshotByAuthor(roomName, accountID string, n int) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomLog, ok := s.logs[roomName]
	if !ok {
		return nil
	}
	return roomLog.RecentByAuthor(accountID, n)
}

// SetTyping flips the typing flag and notifies the active room.
func (s *State) SetTyping(connID string, typing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Get(connID)
	if sess == nil || sess.ActiveRoom == "" || sess.Typing == typing {
		return
	}
	sess.Typing = typing
	s.emit(event.TypingChanged{
		RoomName:  sess.ActiveRoom,
		AccountID: sess.AccountID,
		Username:  sess.Username,
		Typing:    typing,
	})
}

