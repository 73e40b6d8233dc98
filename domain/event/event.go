// Package event defines the domain events fanned out to connected sinks.
package event

import (
	"chatnet/domain"
	"chatnet/projection"

	"github.com/google/uuid"
)

// Audience selects which sinks receive an event.
type Audience int

const (
	// AudienceRoom targets the live members of one room (the DM pair
	// for DM rooms, main-room residents otherwise).
	AudienceRoom Audience = iota
	// AudienceAll targets every online session.
	AudienceAll
	// AudienceAdmins targets every online session with the admin role.
	AudienceAdmins
	// AudienceAccount targets the live session of one account.
	AudienceAccount
)

type DomainEvent interface {
	Name() string
	Audience() Audience
}

// RoomEvent is implemented by events scoped to one room.
type RoomEvent interface {
	DomainEvent
	Room() string
}

// DirectEvent is implemented by events addressed to one account.
type DirectEvent interface {
	DomainEvent
	Target() string
}

type MessagePosted struct {
	Message domain.Message
}

func (e MessagePosted) Name() string       { return "message" }
func (e MessagePosted) Audience() Audience { return AudienceRoom }
func (e MessagePosted) Room() string       { return e.Message.Room }

type MessageEdited struct {
	Message domain.Message
}

func (e MessageEdited) Name() string       { return "message-edited" }
func (e MessageEdited) Audience() Audience { return AudienceRoom }
func (e MessageEdited) Room() string       { return e.Message.Room }

type MessageDeleted struct {
	RoomName  string
	MessageID uuid.UUID
}

func (e MessageDeleted) Name() string       { return "message-deleted" }
func (e MessageDeleted) Audience() Audience { return AudienceRoom }
func (e MessageDeleted) Room() string       { return e.RoomName }

// SystemNotice carries arrival/departure and moderation notices shown in
// a room without entering its message log.
type SystemNotice struct {
	RoomName string
	Text     string
}

func (e SystemNotice) Name() string       { return "notice" }
func (e SystemNotice) Audience() Audience { return AudienceRoom }
func (e SystemNotice) Room() string       { return e.RoomName }

type MembersChanged struct {
	RoomName string
	Members  []projection.MemberView
}

func (e MembersChanged) Name() string       { return "members" }
func (e MembersChanged) Audience() Audience { return AudienceRoom }
func (e MembersChanged) Room() string       { return e.RoomName }

type DirectoryChanged struct {
	Rooms []projection.RoomSummary
}

func (e DirectoryChanged) Name() string       { return "directory" }
func (e DirectoryChanged) Audience() Audience { return AudienceAll }

type TypingChanged struct {
	RoomName  string
	AccountID string
	Username  string
	Typing    bool
}

func (e TypingChanged) Name() string       { return "typing" }
func (e TypingChanged) Audience() Audience { return AudienceRoom }
func (e TypingChanged) Room() string       { return e.RoomName }

// ModerationNotice informs one account about an action taken against it.
type ModerationNotice struct {
	TargetID string
	Action   string
	Reason   string
}

func (e ModerationNotice) Name() string       { return "moderation" }
func (e ModerationNotice) Audience() Audience { return AudienceAccount }
func (e ModerationNotice) Target() string     { return e.TargetID }

// SessionEnded orders the transport to close the target's connection
// after a kick or ban.
type SessionEnded struct {
	TargetID string
	Reason   string
}

func (e SessionEnded) Name() string       { return "session-ended" }
func (e SessionEnded) Audience() Audience { return AudienceAccount }
func (e SessionEnded) Target() string     { return e.TargetID }

// AdminAlerts is a batched bundle of behavior notices for online admins.
type AdminAlerts struct {
	Notices []string
}

func (e AdminAlerts) Name() string       { return "admin-alerts" }
func (e AdminAlerts) Audience() Audience { return AudienceAdmins }
