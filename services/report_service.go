package services

import (
	"log/slog"
	"time"

	"chatnet/contract"
	"chatnet/domain"
	"chatnet/domain/search"
	"chatnet/errors"
	"chatnet/repositories"
	"chatnet/runtime"

	"github.com/google/uuid"
)

type IReportService interface {
	CreateReport(reporterConnID, targetAccountID, reason string) (domain.Report, error)
	Resolve(actorConnID string, reportID uuid.UUID) (domain.Report, error)
	Search(actorConnID, rawQuery string) ([]domain.Report, error)
	SubmitTicket(username, message string) (domain.Ticket, error)
	ResolveTicket(actorConnID string, ticketID uuid.UUID) error
}

// ReportService files incident reports with frozen message context and
// handles the ban appeal tickets of locked-out accounts.
type ReportService struct {
	log          *slog.Logger
	state        *runtime.State
	reports      repositories.IReportRepository
	accounts     repositories.IAccountRepository
	denylist     contract.Denylist
	snapshotSize int
}

func NewReportService(log *slog.Logger, state *runtime.State,
	reports repositories.IReportRepository, accounts repositories.IAccountRepository,
	denylist contract.Denylist, snapshotSize int) *ReportService {
	return &ReportService{
		log:          log,
		state:        state,
		reports:      reports,
		accounts:     accounts,
		denylist:     denylist,
		snapshotSize: snapshotSize,
	}
}

// CreateReport snapshots the target's recent messages in the reporter's
// room at filing time. The context never changes afterwards, even if
// the live messages are later edited or deleted.
func (s *ReportService) CreateReport(reporterConnID, targetAccountID, reason string) (domain.Report, error) {
	reporter, ok := s.state.Session(reporterConnID)
	if !ok {
		return domain.Report{}, errors.ErrSessionNotFound
	}
	if reporter.ActiveRoom == "" {
		return domain.Report{}, errors.ErrRoomNotFound
	}

	target, ok := s.state.SessionByAccount(targetAccountID)
	targetName := targetAccountID
	if ok {
		targetName = target.Username
	} else if account, err := s.accounts.GetByID(targetAccountID); err == nil {
		targetName = account.Username
	}

	report := domain.Report{
		ID:           uuid.New(),
		ReporterID:   reporter.AccountID,
		ReporterName: reporter.Username,
		ReportedID:   targetAccountID,
		ReportedName: targetName,
		Room:         reporter.ActiveRoom,
		Reason:       reason,
		Context:      s.state.SnapshotByAuthor(reporter.ActiveRoom, targetAccountID, s.snapshotSize),
		Status:       domain.StatusOpen,
		At:           time.Now().UTC(),
	}

	if err := s.reports.StoreReport(report); err != nil {
		return domain.Report{}, err
	}
	s.state.RaiseAlert("report filed against " + targetName + " in " + report.Room)
	return report, nil
}

// Resolve closes a report. Admin-only and idempotent.
func (s *ReportService) Resolve(actorConnID string, reportID uuid.UUID) (domain.Report, error) {
	if err := s.authorizeAdmin(actorConnID); err != nil {
		return domain.Report{}, err
	}
	return s.reports.ResolveReport(reportID)
}

// Search runs an admin /find query over stored reports.
func (s *ReportService) Search(actorConnID, rawQuery string) ([]domain.Report, error) {
	if err := s.authorizeAdmin(actorConnID); err != nil {
		return nil, err
	}
	return s.reports.SearchReports(search.NewQuery(rawQuery))
}

// SubmitTicket files a ban appeal. Only accounts actually on the
// denylist may appeal, and only one open ticket is allowed per account.
func (s *ReportService) SubmitTicket(username, message string) (domain.Ticket, error) {
	account, err := s.accounts.GetByUsername(username)
	if err != nil {
		return domain.Ticket{}, err
	}

	banned, err := s.denylist.Contains(account.ID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !banned {
		return domain.Ticket{}, errors.ErrNotBanned
	}

	ticket, err := s.reports.CreateTicket(account, message)
	if err != nil {
		return domain.Ticket{}, err
	}
	s.state.RaiseAlert("ban appeal filed by " + account.Username)
	return ticket, nil
}

// ResolveTicket closes an appeal, freeing the account's open slot.
func (s *ReportService) ResolveTicket(actorConnID string, ticketID uuid.UUID) error {
	if err := s.authorizeAdmin(actorConnID); err != nil {
		return err
	}
	return s.reports.ResolveTicket(ticketID)
}

func (s *ReportService) authorizeAdmin(actorConnID string) error {
	actor, ok := s.state.Session(actorConnID)
	if !ok {
		return errors.ErrSessionNotFound
	}
	if !actor.IsAdmin() {
		return errors.ErrNotAuthorized
	}
	return nil
}
