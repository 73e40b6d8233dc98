package domain

import (
	"sort"
	"strings"
	"time"
)

type RoomKind string

const (
	RoomPublic    RoomKind = "public"
	RoomDm        RoomKind = "dm"
	RoomJudgement RoomKind = "judgement"
)

// Room is a tagged variant: each kind only carries its own fields.
// Public and judgement rooms have an owner, hosts, a lock flag and a
// topic; DM rooms carry the participant pair; judgement rooms reference
// the summoned account.
type Room struct {
	Name string
	Kind RoomKind

	// Public and judgement rooms only.
	OwnerID string
	Hosts   map[string]struct{}
	Locked  bool
	Topic   string

	// DM rooms only: the two participating account IDs.
	DmPair [2]string

	// Judgement rooms only.
	SummonedID string

	CreatedAt time.Time
}

func NewPublicRoom(name, ownerID string) *Room {
	return &Room{
		Name:      name,
		Kind:      RoomPublic,
		OwnerID:   ownerID,
		Hosts:     make(map[string]struct{}),
		CreatedAt: time.Now().UTC(),
	}
}

// NewDmRoom builds the lazily-created room for a participant pair.
// The name is order-independent so both sides resolve the same room.
func NewDmRoom(a, b string) *Room {
	first, second := a, b
	if first > second {
		first, second = second, first
	}
	return &Room{
		Name:      DmRoomName(a, b),
		Kind:      RoomDm,
		DmPair:    [2]string{first, second},
		CreatedAt: time.Now().UTC(),
	}
}

// NewJudgementRoom pairs an admin with a summoned account for forced review.
// The admin owns the room for the duration of the summons.
func NewJudgementRoom(adminID, targetID string) *Room {
	return &Room{
		Name:       JudgementRoomName(targetID),
		Kind:       RoomJudgement,
		OwnerID:    adminID,
		Hosts:      make(map[string]struct{}),
		SummonedID: targetID,
		CreatedAt:  time.Now().UTC(),
	}
}

func DmRoomName(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return "dm:" + strings.Join(pair, ":")
}

func JudgementRoomName(targetID string) string {
	return "judgement:" + targetID
}

// IsMain reports whether the room can hold main-room membership.
// DM rooms are overlays and never appear in membership lists.
func (r *Room) IsMain() bool {
	return r.Kind == RoomPublic || r.Kind == RoomJudgement
}

func (r *Room) HasHost(accountID string) bool {
	_, ok := r.Hosts[accountID]
	return ok
}

func (r *Room) AddHost(accountID string) {
	r.Hosts[accountID] = struct{}{}
}

func (r *Room) RemoveHost(accountID string) {
	delete(r.Hosts, accountID)
}

// HasDmParticipant reports whether the account belongs to this DM pair.
func (r *Room) HasDmParticipant(accountID string) bool {
	return r.Kind == RoomDm && (r.DmPair[0] == accountID || r.DmPair[1] == accountID)
}

// DmPeer returns the other side of a DM pair, or "" if the account is
// not a participant.
func (r *Room) DmPeer(accountID string) string {
	if r.Kind != RoomDm {
		return ""
	}
	switch accountID {
	case r.DmPair[0]:
		return r.DmPair[1]
	case r.DmPair[1]:
		return r.DmPair[0]
	}
	return ""
}
