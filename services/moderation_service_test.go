package services

import (
	"log/slog"
	"testing"

	"chatnet/domain"
	"chatnet/errors"
	"chatnet/repositories"
	"chatnet/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type moderationFixture struct {
	state    *runtime.State
	service  *ModerationService
	accounts *repositories.AccountRepository
	denylist *memDenylist
}

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	denylist := newMemDenylist()
	accounts := repositories.NewAccountRepository(db)
	state := runtime.NewState(log, runtime.NewRegistry(), denylist, "Watcher", 256)
	service := NewModerationService(log, state, accounts, denylist)
	return &moderationFixture{state: state, service: service, accounts: accounts, denylist: denylist}
}

func (f *moderationFixture) connect(t *testing.T, connID string, account domain.Account) {
	t.Helper()
	_, err := f.state.Connect(account, connID, nullSink{})
	require.New(t).NoError(err)
}

func Test_Moderation_Admin_Acts_Everywhere(t *testing.T) {
	req := require.New(t)
	f := newModerationFixture(t)
	f.connect(t, "conn-a", domain.Account{ID: "acc-a", Username: "ada", Role: domain.RoleAdmin})
	f.connect(t, "conn-t", domain.Account{ID: "acc-t", Username: "troll"})

	req.NoError(f.service.Kick("conn-a", "acc-t", "spamming"))
	req.Equal(1, f.state.Online())
}

func Test_Moderation_Regular_Users_Are_Denied(t *testing.T) {
	req := require.New(t)
	f := newModerationFixture(t)
	f.connect(t, "conn-u", domain.Account{ID: "acc-u", Username: "uma"})
	f.connect(t, "conn-t", domain.Account{ID: "acc-t", Username: "troll"})

	req.ErrorIs(f.service.Kick("conn-u", "acc-t", "I dislike him"), errors.ErrNotAuthorized)
	req.ErrorIs(f.service.Ban("conn-u", "acc-t", "really"), errors.ErrNotAuthorized)
	req.ErrorIs(f.service.Summon("conn-u", "acc-t"), errors.ErrNotAuthorized)
	req.Equal(2, f.state.Online())
}

func Test_Moderation_Owner_Scope_Is_Their_Room(t *testing.T) {
	req := require.New(t)
	f := newModerationFixture(t)
	f.connect(t, "conn-o", domain.Account{ID: "acc-o", Username: "olivia"})
	f.connect(t, "conn-t", domain.Account{ID: "acc-t", Username: "troll"})
	f.connect(t, "conn-x", domain.Account{ID: "acc-x", Username: "xavier"})

	_, err := f.state.CreatePublicRoom("her-room", "acc-o")
	req.NoError(err)
	_, err = f.state.CreatePublicRoom("elsewhere", "acc-z")
	req.NoError(err)
	req.NoError(f.state.JoinMainRoom("conn-o", "her-room"))
	req.NoError(f.state.JoinMainRoom("conn-t", "her-room"))
	req.NoError(f.state.JoinMainRoom("conn-x", "elsewhere"))

	// The owner may kick inside her room
	req.NoError(f.service.Kick("conn-o", "acc-t", "breaking room rules"))

	// But not someone in another room
	req.ErrorIs(f.service.Kick("conn-o", "acc-x", "reaching"), errors.ErrNotAuthorized)

	// And never an admin who happens to visit
	f.connect(t, "conn-a", domain.Account{ID: "acc-a", Username: "ada", Role: domain.RoleAdmin})
	req.NoError(f.state.JoinMainRoom("conn-a", "her-room"))
	req.ErrorIs(f.service.Kick("conn-o", "acc-a", "power grab"), errors.ErrNotAuthorized)
}

func Test_Moderation_Room_Management_Ops(t *testing.T) {
	req := require.New(t)
	f := newModerationFixture(t)
	f.connect(t, "conn-o", domain.Account{ID: "acc-o", Username: "olivia"})
	f.connect(t, "conn-u", domain.Account{ID: "acc-u", Username: "uma"})

	_, err := f.state.CreatePublicRoom("her-room", "acc-o")
	req.NoError(err)

	// The owner manages topic and lock; a bystander may not
	req.NoError(f.service.SetTopic("conn-o", "her-room", "welcome"))
	req.NoError(f.service.SetLocked("conn-o", "her-room", true))
	req.ErrorIs(f.service.SetTopic("conn-u", "her-room", "mine now"), errors.ErrNotAuthorized)
	req.ErrorIs(f.service.SetLocked("conn-u", "her-room", false), errors.ErrNotAuthorized)

	room, _ := f.state.Room("her-room")
	req.Equal("welcome", room.Topic)
	req.True(room.Locked)

	// Ownership transfer is owner-only, then follows the new owner
	req.ErrorIs(f.service.AssignOwner("conn-u", "her-room", "acc-u"), errors.ErrNotAuthorized)
	req.NoError(f.service.AssignOwner("conn-o", "her-room", "acc-u"))
	room, _ = f.state.Room("her-room")
	req.Equal("acc-u", room.OwnerID)

	req.NoError(f.service.SetLocked("conn-u", "her-room", false))
	req.ErrorIs(f.service.SetTopic("conn-o", "her-room", "still mine"), errors.ErrNotAuthorized)
}

func Test_Moderation_Ban_Persists_Durable_State(t *testing.T) {
	req := require.New(t)
	f := newModerationFixture(t)

	account, err := f.accounts.Create("troll", "hash")
	req.NoError(err)
	f.connect(t, "conn-a", domain.Account{ID: "acc-a", Username: "ada", Role: domain.RoleAdmin})
	f.connect(t, "conn-t", account)

	req.NoError(f.service.Ban("conn-a", account.ID, "harassment"))

	// Live session gone, denylist entry added, durable flag set
	req.Equal(1, f.state.Online())
	banned, _ := f.denylist.Contains(account.ID)
	req.True(banned)
	stored, err := f.accounts.GetByID(account.ID)
	req.NoError(err)
	req.True(stored.Banned)

	// Unban reverses both
	req.NoError(f.service.Unban("conn-a", account.ID))
	banned, _ = f.denylist.Contains(account.ID)
	req.False(banned)
	stored, _ = f.accounts.GetByID(account.ID)
	req.False(stored.Banned)
}

func Test_Moderation_Mute_Persists_Durable_State(t *testing.T) {
	req := require.New(t)
	f := newModerationFixture(t)

	account, err := f.accounts.Create("chatty", "hash")
	req.NoError(err)
	f.connect(t, "conn-a", domain.Account{ID: "acc-a", Username: "ada", Role: domain.RoleAdmin})
	f.connect(t, "conn-c", account)

	req.NoError(f.service.Mute("conn-a", account.ID, true))
	req.True(f.state.IsMuted(account.ID))
	stored, _ := f.accounts.GetByID(account.ID)
	req.True(stored.Muted)

	req.NoError(f.service.Mute("conn-a", account.ID, false))
	req.False(f.state.IsMuted(account.ID))
	stored, _ = f.accounts.GetByID(account.ID)
	req.False(stored.Muted)
}

func Test_Moderation_SetRole_Promotes_Live_And_Durable(t *testing.T) {
	req := require.New(t)
	f := newModerationFixture(t)

	account, err := f.accounts.Create("rising", "hash")
	req.NoError(err)
	f.connect(t, "conn-a", domain.Account{ID: "acc-a", Username: "ada", Role: domain.RoleAdmin})
	f.connect(t, "conn-r", account)

	req.NoError(f.service.SetRole("conn-a", account.ID, domain.RoleAdmin))

	sess, ok := f.state.SessionByAccount(account.ID)
	req.True(ok)
	req.True(sess.IsAdmin())
	stored, _ := f.accounts.GetByID(account.ID)
	req.Equal(domain.RoleAdmin, stored.Role)

	// Promoting an offline account only touches the durable record
	offline, err := f.accounts.Create("away", "hash")
	req.NoError(err)
	req.NoError(f.service.SetRole("conn-a", offline.ID, domain.RoleAdmin))
	stored, _ = f.accounts.GetByID(offline.ID)
	req.Equal(domain.RoleAdmin, stored.Role)
}

func Test_Moderation_Summon_And_Release_Flow(t *testing.T) {
	req := require.New(t)
	f := newModerationFixture(t)
	f.connect(t, "conn-a", domain.Account{ID: "acc-a", Username: "ada", Role: domain.RoleAdmin})
	f.connect(t, "conn-t", domain.Account{ID: "acc-t", Username: "troll"})

	req.NoError(f.service.Summon("conn-a", "acc-t"))
	target, ok := f.state.SessionByAccount("acc-t")
	req.True(ok)
	req.True(target.Summoned)

	req.NoError(f.service.Release("conn-a", "acc-t"))
	target, _ = f.state.SessionByAccount("acc-t")
	req.False(target.Summoned)
}
