package domain

import "time"

// Session is the ephemeral per-connection state bound to an Account.
// Created on connect, destroyed on disconnect. MainRoom is the room the
// session resides in ("" when none) and must reference a public or
// judgement room; ActiveRoom is the room currently receiving input and
// may point at a DM overlay without evicting MainRoom membership.
//
// Sessions are owned by the runtime State and must only be mutated
// while holding its lock.
type Session struct {
	ConnID    string
	AccountID string
	Username  string
	Role      Role // snapshot taken at connect, used for authorization checks
	Guest     bool

	MainRoom   string
	ActiveRoom string
	Summoned   bool
	Spectating bool
	Typing     bool

	HiddenDms    map[string]struct{}
	MessagesSent int
	ConnectedAt  time.Time
}

func NewSession(connID string, account Account) *Session {
	return &Session{
		ConnID:      connID,
		AccountID:   account.ID,
		Username:    account.Username,
		Role:        account.Role,
		Guest:       account.Guest,
		HiddenDms:   make(map[string]struct{}),
		ConnectedAt: time.Now().UTC(),
	}
}

func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// HideDm marks a DM room as dismissed so it is not re-surfaced until
// the peer writes again.
func (s *Session) HideDm(room string) {
	s.HiddenDms[room] = struct{}{}
}

func (s *Session) UnhideDm(room string) {
	delete(s.HiddenDms, room)
}

func (s *Session) DmHidden(room string) bool {
	_, ok := s.HiddenDms[room]
	return ok
}
