package runtime

import (
	"testing"

	"chatnet/domain"
	"chatnet/errors"

	"github.com/stretchr/testify/require"
)

func Test_Kick_Disconnects_Without_Denylisting(t *testing.T) {
	req := require.New(t)
	state, denylist := newTestState(t)
	connect(t, state, "conn-t", "acc-t", "troll", domain.RoleUser)

	_, err := state.CreatePublicRoom("general", "acc-t")
	req.NoError(err)
	req.NoError(state.JoinMainRoom("conn-t", "general"))

	req.NoError(state.Kick("acc-t", "spamming"))

	req.Equal(0, state.Online())
	banned, _ := denylist.Contains("acc-t")
	req.False(banned)

	// Kicking an offline account reports the missing session
	req.ErrorIs(state.Kick("acc-t", "again"), errors.ErrSessionNotFound)
}

func Test_Ban_Denylists_And_Disconnects(t *testing.T) {
	req := require.New(t)
	state, denylist := newTestState(t)
	connect(t, state, "conn-t", "acc-t", "troll", domain.RoleUser)

	req.NoError(state.Ban("acc-t", "harassment"))

	req.Equal(0, state.Online())
	banned, _ := denylist.Contains("acc-t")
	req.True(banned)
}

func Test_Ban_Works_For_Offline_Accounts(t *testing.T) {
	req := require.New(t)
	state, denylist := newTestState(t)

	// No live session exists for this account
	req.NoError(state.Ban("acc-ghost", "evading"))

	banned, _ := denylist.Contains("acc-ghost")
	req.True(banned)
}

func Test_Summon_Custody(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)
	connect(t, state, "conn-a", "acc-a", "ada", domain.RoleAdmin)
	connect(t, state, "conn-t", "acc-t", "troll", domain.RoleUser)

	_, err := state.CreatePublicRoom("general", "acc-t")
	req.NoError(err)
	req.NoError(state.JoinMainRoom("conn-t", "general"))

	// When the admin summons the target
	req.NoError(state.Summon("acc-a", "acc-t"))

	// Then both reside in the judgement room
	name := domain.JudgementRoomName("acc-t")
	target, _ := state.Session("conn-t")
	admin, _ := state.Session("conn-a")
	req.Equal(name, target.MainRoom)
	req.Equal(name, admin.MainRoom)
	req.True(target.Summoned)

	// And the summoned target cannot self-transfer out
	req.ErrorIs(state.JoinMainRoom("conn-t", "general"), errors.ErrSummoned)

	// A second summons of the same target is rejected
	req.ErrorIs(state.Summon("acc-a", "acc-t"), errors.ErrSummoned)
}

func Test_Summoned_Target_Cannot_Leave_The_Judgement_Room(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)
	connect(t, state, "conn-a", "acc-a", "ada", domain.RoleAdmin)
	connect(t, state, "conn-t", "acc-t", "troll", domain.RoleUser)

	req.NoError(state.Summon("acc-a", "acc-t"))
	name := domain.JudgementRoomName("acc-t")

	// A plain leave is dropped while the summons is active
	state.LeaveActiveRoom("conn-t")
	target, _ := state.Session("conn-t")
	req.True(target.Summoned)
	req.Equal(name, target.MainRoom)

	// The admin is free to walk out
	state.LeaveActiveRoom("conn-a")
	admin, _ := state.Session("conn-a")
	req.Equal("", admin.MainRoom)

	// Release lifts the restriction
	req.NoError(state.Release("acc-a", "acc-t"))
	target, _ = state.Session("conn-t")
	req.False(target.Summoned)
	req.Equal("", target.MainRoom)
}

func Test_Summon_Never_Targets_Admins(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)
	connect(t, state, "conn-a", "acc-a", "ada", domain.RoleAdmin)
	connect(t, state, "conn-b", "acc-b", "bea", domain.RoleAdmin)

	req.ErrorIs(state.Summon("acc-a", "acc-b"), errors.ErrNotAuthorized)
}

func Test_Release_Is_Idempotent_And_Reaps_The_Room(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)
	connect(t, state, "conn-a", "acc-a", "ada", domain.RoleAdmin)
	connect(t, state, "conn-t", "acc-t", "troll", domain.RoleUser)

	req.NoError(state.Summon("acc-a", "acc-t"))
	req.NoError(state.Release("acc-a", "acc-t"))

	// The judgement room is gone and the target is free again
	_, ok := state.Room(domain.JudgementRoomName("acc-t"))
	req.False(ok)
	target, _ := state.Session("conn-t")
	req.False(target.Summoned)
	req.Equal("", target.MainRoom)

	// Releasing an unsummoned target is a no-op
	req.NoError(state.Release("acc-a", "acc-t"))
}

func Test_Spectate_Toggle(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)
	connect(t, state, "conn-t", "acc-t", "troll", domain.RoleUser)

	on, err := state.ToggleSpectate("acc-t")
	req.NoError(err)
	req.True(on)

	off, err := state.ToggleSpectate("acc-t")
	req.NoError(err)
	req.False(off)

	_, err = state.ToggleSpectate("acc-ghost")
	req.ErrorIs(err, errors.ErrSessionNotFound)
}

func Test_Mute_Is_Independent_Of_Rooms(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)
	connect(t, state, "conn-t", "acc-t", "troll", domain.RoleUser)

	state.SetMuted("acc-t", true)
	req.True(state.IsMuted("acc-t"))

	// Mute survives room transfers
	_, err := state.CreatePublicRoom("general", "acc-t")
	req.NoError(err)
	req.NoError(state.JoinMainRoom("conn-t", "general"))
	req.True(state.IsMuted("acc-t"))

	state.SetMuted("acc-t", false)
	req.False(state.IsMuted("acc-t"))
}

func Test_Muted_Flag_Seeds_From_Account(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)

	_, err := state.Connect(domain.Account{ID: "acc-m", Username: "mia", Muted: true}, "conn-m", nullSink{})
	req.NoError(err)
	req.True(state.IsMuted("acc-m"))
}

func Test_Host_Promotion_And_Demotion(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)
	connect(t, state, "conn-1", "acc-1", "alice", domain.RoleUser)

	_, err := state.CreatePublicRoom("general", "acc-owner")
	req.NoError(err)

	req.NoError(state.PromoteHost("general", "acc-1"))
	room, _ := state.Room("general")
	req.True(room.HasHost("acc-1"))

	req.NoError(state.DemoteHost("general", "acc-1"))
	room, _ = state.Room("general")
	req.False(room.HasHost("acc-1"))

	req.ErrorIs(state.PromoteHost("nowhere", "acc-1"), errors.ErrRoomNotFound)
}

func Test_Owner_Assignment(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)
	connect(t, state, "conn-1", "acc-1", "alice", domain.RoleUser)

	_, err := state.CreatePublicRoom("general", "acc-old")
	req.NoError(err)
	req.NoError(state.PromoteHost("general", "acc-1"))

	req.NoError(state.SetOwner("general", "acc-1"))
	room, _ := state.Room("general")
	req.Equal("acc-1", room.OwnerID)
	// The owner slot absorbs the redundant host entry
	req.False(room.HasHost("acc-1"))

	req.ErrorIs(state.SetOwner("nowhere", "acc-1"), errors.ErrRoomNotFound)
}

func Test_Topic_And_Lock_Flow_Into_The_Directory(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)
	connect(t, state, "conn-u", "acc-u", "uma", domain.RoleUser)

	_, err := state.CreatePublicRoom("vip", "acc-owner")
	req.NoError(err)

	req.NoError(state.SetTopic("vip", "members only"))
	req.NoError(state.SetLocked("vip", true))

	var found bool
	for _, summary := range state.Directory() {
		if summary.Name == "vip" {
			found = true
			req.Equal("members only", summary.Topic)
			req.True(summary.Locked)
		}
	}
	req.True(found)

	// The lock actually bars entry until it is lifted
	req.ErrorIs(state.JoinMainRoom("conn-u", "vip"), errors.ErrRoomLocked)
	req.NoError(state.SetLocked("vip", false))
	req.NoError(state.JoinMainRoom("conn-u", "vip"))

	req.ErrorIs(state.SetTopic("nowhere", "x"), errors.ErrRoomNotFound)
	req.ErrorIs(state.SetLocked("nowhere", true), errors.ErrRoomNotFound)
}

func Test_Warn_Requires_A_Live_Session(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)
	connect(t, state, "conn-t", "acc-t", "troll", domain.RoleUser)

	req.NoError(state.Warn("acc-t", "tone it down"))
	req.ErrorIs(state.Warn("acc-ghost", "nobody home"), errors.ErrSessionNotFound)
}

func Test_SetRole_Updates_Live_Snapshot(t *testing.T) {
	req := require.New(t)
	state, _ := newTestState(t)
	connect(t, state, "conn-1", "acc-1", "alice", domain.RoleUser)

	req.NoError(state.SetRole("acc-1", domain.RoleAdmin))
	sess, _ := state.Session("conn-1")
	req.True(sess.IsAdmin())
}
