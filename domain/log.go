package domain

import "github.com/google/uuid"

// RoomLog is a per-room append-only message history. Position and count
// never change after append: edits rewrite content in place and set the
// Edited flag, deletions keep a tombstone with the Deleted flag set.
//
// RoomLog is not safe for concurrent use; it is guarded by the runtime
// State lock.
type RoomLog struct {
	messages []Message
}

func NewRoomLog() *RoomLog {
	return &RoomLog{messages: nil}
}

func (l *RoomLog) Append(m Message) {
	l.messages = append(l.messages, m)
}

// Edit rewrites the content of a message and marks it edited.
// Tombstoned messages cannot be edited.
func (l *RoomLog) Edit(id uuid.UUID, content string) (Message, bool) {
	for i := range l.messages {
		if l.messages[i].ID == id && !l.messages[i].Deleted {
			l.messages[i].Content = content
			l.messages[i].Edited = true
			return l.messages[i], true
		}
	}
	return Message{}, false
}

// Tombstone marks a message deleted. The record stays retrievable.
func (l *RoomLog) Tombstone(id uuid.UUID) (Message, bool) {
	for i := range l.messages {
		if l.messages[i].ID == id && !l.messages[i].Deleted {
			l.messages[i].Deleted = true
			return l.messages[i], true
		}
	}
	return Message{}, false
}

func (l *RoomLog) Get(id uuid.UUID) (Message, bool) {
	for i := range l.messages {
		if l.messages[i].ID == id {
			return l.messages[i], true
		}
	}
	return Message{}, false
}

// Recent returns up to n most recent messages in chronological order.
func (l *RoomLog) Recent(n int) []Message {
	start := len(l.messages) - n
	if n <= 0 || start < 0 {
		start = 0
	}
	out := make([]Message, len(l.messages)-start)
	copy(out, l.messages[start:])
	return out
}

// RecentByAuthor returns up to n most recent non-deleted messages written
// by the given account, in chronological order. Used for frozen report
// context snapshots.
func (l *RoomLog) RecentByAuthor(accountID string, n int) []Message {
	var picked []Message
	for i := len(l.messages) - 1; i >= 0 && len(picked) < n; i-- {
		m := l.messages[i]
		if m.AuthorID == accountID && !m.Deleted {
			picked = append(picked, m)
		}
	}
	// picked is newest-first, flip to chronological
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked
}

func (l *RoomLog) Len() int {
	return len(l.messages)
}
