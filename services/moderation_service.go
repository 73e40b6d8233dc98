package services

import (
	"log/slog"

	"chatnet/domain"
	"chatnet/errors"
	"chatnet/repositories"
	"chatnet/runtime"
)

type IModerationService interface {
	Kick(actorConnID, targetAccountID, reason string) error
	Ban(actorConnID, targetAccountID, reason string) error
	Unban(actorConnID, targetAccountID string) error
	Mute(actorConnID, targetAccountID string, muted bool) error
	Warn(actorConnID, targetAccountID, reason string) error
	Summon(actorConnID, targetAccountID string) error
	Release(actorConnID, targetAccountID string) error
	ToggleSpectate(actorConnID, targetAccountID string) (bool, error)
	PromoteHost(actorConnID, roomName, targetAccountID string) error
	DemoteHost(actorConnID, roomName, targetAccountID string) error
	AssignOwner(actorConnID, roomName, targetAccountID string) error
	SetTopic(actorConnID, roomName, topic string) error
	SetLocked(actorConnID, roomName string, locked bool) error
	SetRole(actorConnID, targetAccountID string, role domain.Role) error
}

// unbanList is the slice of the denylist repository the service needs
// beyond the runtime's add/check contract.
type unbanList interface {
	Remove(accountID string) error
}

// ModerationService authorizes actors before handing actions to the
// runtime pipeline. Admins act everywhere; a room's owner and hosts may
// kick, warn and manage hosts inside their own room only.
type ModerationService struct {
	log      *slog.Logger
	state    *runtime.State
	accounts repositories.IAccountRepository
	denylist unbanList
}

func NewModerationService(log *slog.Logger, state *runtime.State,
	accounts repositories.IAccountRepository, denylist unbanList) *ModerationService {
	return &ModerationService{
		log:      log,
		state:    state,
		accounts: accounts,
		denylist: denylist,
	}
}

func (s *ModerationService) Kick(actorConnID, targetAccountID, reason string) error {
	if err := s.authorizeRoomScoped(actorConnID, targetAccountID); err != nil {
		return err
	}
	return s.state.Kick(targetAccountID, reason)
}

// Ban is admin-only: the denylist entry and the durable flag outlive the
// session.
func (s *ModerationService) Ban(actorConnID, targetAccountID, reason string) error {
	if err := s.authorizeAdmin(actorConnID); err != nil {
		return err
	}
	if err := s.state.Ban(targetAccountID, reason); err != nil {
		return err
	}
	return s.setAccountFlag(targetAccountID, func(a *domain.Account) { a.Banned = true })
}

func (s *ModerationService) Unban(actorConnID, targetAccountID string) error {
	if err := s.authorizeAdmin(actorConnID); err != nil {
		return err
	}
	if err := s.denylist.Remove(targetAccountID); err != nil {
		return err
	}
	return s.setAccountFlag(targetAccountID, func(a *domain.Account) { a.Banned = false })
}

// Mute flips the global mute: the live map changes immediately and the
// durable flag follows so the mute survives reconnects.
func (s *ModerationService) Mute(actorConnID, targetAccountID string, muted bool) error {
	if err := s.authorizeAdmin(actorConnID); err != nil {
		return err
	}
	s.state.SetMuted(targetAccountID, muted)
	return s.setAccountFlag(targetAccountID, func(a *domain.Account) { a.Muted = muted })
}

func (s *ModerationService) Warn(actorConnID, targetAccountID, reason string) error {
	if err := s.authorizeRoomScoped(actorConnID, targetAccountID); err != nil {
		return err
	}
	return s.state.Warn(targetAccountID, reason)
}

func (s *ModerationService) Summon(actorConnID, targetAccountID string) error {
	actor, ok := s.state.Session(actorConnID)
	if !ok {
		return errors.ErrSessionNotFound
	}
	if !actor.IsAdmin() {
		return errors.ErrNotAuthorized
	}
	return s.state.Summon(actor.AccountID, targetAccountID)
}

func (s *ModerationService) Release(actorConnID, targetAccountID string) error {
	actor, ok := s.state.Session(actorConnID)
	if !ok {
		return errors.ErrSessionNotFound
	}
	if !actor.IsAdmin() {
		return errors.ErrNotAuthorized
	}
	return s.state.Release(actor.AccountID, targetAccountID)
}

func (s *ModerationService) ToggleSpectate(actorConnID, targetAccountID string) (bool, error) {
	if err := s.authorizeAdmin(actorConnID); err != nil {
		return false, err
	}
	return s.state.ToggleSpectate(targetAccountID)
}

func (s *ModerationService) PromoteHost(actorConnID, roomName, targetAccountID string) error {
	if err := s.authorizeRoomManager(actorConnID, roomName); err != nil {
		return err
	}
	return s.state.PromoteHost(roomName, targetAccountID)
}

func (s *ModerationService) DemoteHost(actorConnID, roomName, targetAccountID string) error {
	if err := s.authorizeRoomManager(actorConnID, roomName); err != nil {
		return err
	}
	return s.state.DemoteHost(roomName, targetAccountID)
}

// AssignOwner hands a room over. Only the current owner or an admin may
// transfer ownership; hosts cannot.
func (s *ModerationService) AssignOwner(actorConnID, roomName, targetAccountID string) error {
	actor, ok := s.state.Session(actorConnID)
	if !ok {
		return errors.ErrSessionNotFound
	}
	if !actor.IsAdmin() {
		room, ok := s.state.Room(roomName)
		if !ok {
			return errors.ErrRoomNotFound
		}
		if room.OwnerID != actor.AccountID {
			return errors.ErrNotAuthorized
		}
	}
	return s.state.SetOwner(roomName, targetAccountID)
}

// SetTopic rewrites the directory topic of a room.
func (s *ModerationService) SetTopic(actorConnID, roomName, topic string) error {
	if err := s.authorizeRoomManager(actorConnID, roomName); err != nil {
		return err
	}
	return s.state.SetTopic(roomName, topic)
}

// SetLocked flips the entry lock of a room.
func (s *ModerationService) SetLocked(actorConnID, roomName string, locked bool) error {
	if err := s.authorizeRoomManager(actorConnID, roomName); err != nil {
		return err
	}
	return s.state.SetLocked(roomName, locked)
}

// SetRole changes the durable role of an account and its live snapshot
// when online. Admin-only.
func (s *ModerationService) SetRole(actorConnID, targetAccountID string, role domain.Role) error {
	if err := s.authorizeAdmin(actorConnID); err != nil {
		return err
	}
	if err := s.setAccountFlag(targetAccountID, func(a *domain.Account) { a.Role = role }); err != nil {
		return err
	}
	if err := s.state.SetRole(targetAccountID, role); err != nil && err != errors.ErrSessionNotFound {
		return err
	}
	return nil
}

func (s *ModerationService) authorizeAdmin(actorConnID string) error {
	actor, ok := s.state.Session(actorConnID)
	if !ok {
		return errors.ErrSessionNotFound
	}
	if !actor.IsAdmin() {
		return errors.ErrNotAuthorized
	}
	return nil
}

// authorizeRoomScoped allows admins everywhere, and the owner or hosts
// of a room against targets currently inside that room.
func (s *ModerationService) authorizeRoomScoped(actorConnID, targetAccountID string) error {
	actor, ok := s.state.Session(actorConnID)
	if !ok {
		return errors.ErrSessionNotFound
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.MainRoom == "" {
		return errors.ErrNotAuthorized
	}
	room, ok := s.state.Room(actor.MainRoom)
	if !ok || (room.OwnerID != actor.AccountID && !room.HasHost(actor.AccountID)) {
		return errors.ErrNotAuthorized
	}
	target, ok := s.state.SessionByAccount(targetAccountID)
	if !ok || target.MainRoom != room.Name {
		return errors.ErrNotAuthorized
	}
	// Room managers never outrank admins.
	if target.IsAdmin() {
		return errors.ErrNotAuthorized
	}
	return nil
}

func (s *ModerationService) authorizeRoomManager(actorConnID, roomName string) error {
	actor, ok := s.state.Session(actorConnID)
	if !ok {
		return errors.ErrSessionNotFound
	}
	if actor.IsAdmin() {
		return nil
	}
	room, ok := s.state.Room(roomName)
	if !ok {
		return errors.ErrRoomNotFound
	}
	if room.OwnerID != actor.AccountID && !room.HasHost(actor.AccountID) {
		return errors.ErrNotAuthorized
	}
	return nil
}

// setAccountFlag mutates the durable record, skipping guests and
// unknown accounts whose record never existed.
func (s *ModerationService) setAccountFlag(accountID string, mutate func(*domain.Account)) error {
	account, err := s.accounts.GetByID(accountID)
	if err == errors.ErrUserNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	mutate(&account)
	return s.accounts.Put(account)
}
