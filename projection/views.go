// Package projection builds derived views from live runtime state.
// Views are recomputed on demand and never stored back on sessions.
package projection

import (
	"sort"

	"chatnet/domain"

	"github.com/samber/lo"
)

type DisplayRole string

const (
	DisplayAdmin     DisplayRole = "admin"
	DisplayModerator DisplayRole = "moderator"
	DisplayOwner     DisplayRole = "owner"
	DisplayHost      DisplayRole = "host"
	DisplayUser      DisplayRole = "user"
)

// ModeratorAccountID identifies the synthesized always-present moderator
// member. It never corresponds to a stored session.
const ModeratorAccountID = "moderator"

// MemberView is the typed projection of a session for membership lists.
// The display role is derived fresh on every computation; only the raw
// role snapshot lives on the session.
type MemberView struct {
	AccountID string      `json:"accountId"`
	Username  string      `json:"username"`
	Role      DisplayRole `json:"role"`
	Typing    bool        `json:"typing"`
}

// RoomSummary is one lobby directory entry.
type RoomSummary struct {
	Name    string `json:"name"`
	Topic   string `json:"topic"`
	Locked  bool   `json:"locked"`
	Members int    `json:"members"`
}

// ComputeMembership merges all live sessions residing in the room with
// one synthesized moderator entry. Display role precedence:
// account-role-admin > room-owner > room-host > user.
func ComputeMembership(room *domain.Room, sessions []*domain.Session, moderatorName string) []MemberView {
	if room == nil || !room.IsMain() {
		return nil
	}

	members := lo.FilterMap(sessions, func(s *domain.Session, _ int) (MemberView, bool) {
		if s.MainRoom != room.Name {
			return MemberView{}, false
		}
		return MemberView{
			AccountID: s.AccountID,
			Username:  s.Username,
			Role:      displayRole(room, s),
			Typing:    s.Typing,
		}, true
	})

	sort.Slice(members, func(i, j int) bool { return members[i].Username < members[j].Username })

	moderator := MemberView{
		AccountID: ModeratorAccountID,
		Username:  moderatorName,
		Role:      DisplayModerator,
	}
	return append([]MemberView{moderator}, members...)
}

// ComputePublicDirectory lists every public room with its live member
// count plus a constant +1 for the moderator.
func ComputePublicDirectory(rooms map[string]*domain.Room, sessions []*domain.Session) []RoomSummary {
	counts := make(map[string]int)
	for _, s := range sessions {
		if s.MainRoom != "" {
			counts[s.MainRoom]++
		}
	}

	var out []RoomSummary
	for _, room := range rooms {
		if room.Kind != domain.RoomPublic {
			continue
		}
		out = append(out, RoomSummary{
			Name:    room.Name,
			Topic:   room.Topic,
			Locked:  room.Locked,
			Members: counts[room.Name] + 1,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func displayRole(room *domain.Room, s *domain.Session) DisplayRole {
	switch {
	case s.Role == domain.RoleAdmin:
		return DisplayAdmin
	case room.OwnerID == s.AccountID:
		return DisplayOwner
	case room.HasHost(s.AccountID):
		return DisplayHost
	default:
		return DisplayUser
	}
}
