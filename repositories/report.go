//go:generate go run go.uber.org/mock/mockgen -source=report.go -destination=../mocks/mock_report_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chatnet/domain"
	"chatnet/domain/search"
	"chatnet/errors"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IReportRepository interface {
	StoreReport(report domain.Report) error
	GetReport(id uuid.UUID) (domain.Report, error)
	ResolveReport(id uuid.UUID) (domain.Report, error)
	SearchReports(query *search.Query) ([]domain.Report, error)
	CreateTicket(account domain.Account, message string) (domain.Ticket, error)
	ResolveTicket(id uuid.UUID) error
}

// ReportRepository persists incident records in BadgerDB and mirrors
// their searchable text into a bluge index for the admin /find command.
type ReportRepository struct {
	db    *badger.DB
	index *bluge.Writer
	log   *slog.Logger
}

func NewReportRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) *ReportRepository {
	return &ReportRepository{db: db, index: index, log: log}
}

type diskReport struct {
	ID           string              `json:"id"`
	ReporterID   string              `json:"reporter_id"`
	ReporterName string              `json:"reporter_name"`
	ReportedID   string              `json:"reported_id"`
	ReportedName string              `json:"reported_name"`
	Room         string              `json:"room"`
	Reason       string              `json:"reason"`
	Context      []diskMessage       `json:"context"`
	Status       domain.ReportStatus `json:"status"`
	At           int64               `json:"at"`
}

func reportKey(id uuid.UUID) []byte { return []byte("report:" + id.String()) }

func ticketOpenKey(accountID string) []byte { return []byte("ticket-open:" + accountID) }
func ticketKey(id uuid.UUID) []byte         { return []byte("ticket:" + id.String()) }

// StoreReport writes the record and indexes its searchable text. The
// context snapshot is stored as-is and never recomputed.
func (r *ReportRepository) StoreReport(report domain.Report) error {
	data, err := json.Marshal(fromReport(report))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(reportKey(report.ID), data)
	})
	if err != nil {
		return err
	}
	return r.indexReport(report)
}

func (r *ReportRepository) indexReport(report domain.Report) error {
	var contextText strings.Builder
	for _, m := range report.Context {
		contextText.WriteString(m.Content)
		contextText.WriteString(" ")
	}

	doc := bluge.NewDocument(report.ID.String()).
		AddField(bluge.NewTextField("reason", report.Reason)).
		AddField(bluge.NewTextField("context", contextText.String())).
		AddField(bluge.NewKeywordField("room", report.Room)).
		AddField(bluge.NewKeywordField("reporter", report.ReporterName))

	return r.index.Update(doc.ID(), doc)
}

func (r *ReportRepository) GetReport(id uuid.UUID) (domain.Report, error) {
	var disk diskReport
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(reportKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Report{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Report{}, err
	}
	return toReport(disk)
}

// ResolveReport flips status open -> closed. Resolving an already
// closed report is a no-op, not an error.
func (r *ReportRepository) ResolveReport(id uuid.UUID) (domain.Report, error) {
	report, err := r.GetReport(id)
	if err != nil {
		return domain.Report{}, err
	}
	if report.Status == domain.StatusClosed {
		return report, nil
	}
	report.Status = domain.StatusClosed

	data, err := json.Marshal(fromReport(report))
	if err != nil {
		return domain.Report{}, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(reportKey(id), data)
	})
	return report, err
}

// SearchReports runs an admin /find query against the bluge index and
// loads the matching records from badger.
func (r *ReportRepository) SearchReports(query *search.Query) ([]domain.Report, error) {
	reader, err := r.index.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	q := bluge.NewBooleanQuery()
	if query.Terms != "" {
		q.AddMust(bluge.NewBooleanQuery().
			AddShould(bluge.NewMatchQuery(query.Terms).SetField("reason")).
			AddShould(bluge.NewMatchQuery(query.Terms).SetField("context")))
	} else {
		q.AddMust(bluge.NewMatchAllQuery())
	}
	if query.Room != "" {
		q.AddMust(bluge.NewTermQuery(query.Room).SetField("room"))
	}
	if query.Reporter != "" {
		q.AddMust(bluge.NewTermQuery(query.Reporter).SetField("reporter"))
	}

	dmi, err := reader.Search(context.Background(), bluge.NewTopNSearch(query.Limit, q))
	if err != nil {
		return nil, err
	}

	var reports []domain.Report
	for {
		match, err := dmi.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		var docID string
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				docID = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		id, err := uuid.Parse(docID)
		if err != nil {
			continue
		}
		report, err := r.GetReport(id)
		if err != nil {
			r.log.Debug("Indexed report missing from store", "id", docID)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// CreateTicket files an appeal for a banned account. At most one open
// ticket may exist per account; a second submission is rejected, not
// queued.
func (r *ReportRepository) CreateTicket(account domain.Account, message string) (domain.Ticket, error) {
	ticket := domain.Ticket{
		ID:        uuid.New(),
		AccountID: account.ID,
		Username:  account.Username,
		Message:   message,
		Status:    domain.StatusOpen,
		At:        time.Now().UTC(),
	}
	data, err := json.Marshal(ticket)
	if err != nil {
		return domain.Ticket{}, err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(ticketOpenKey(account.ID)); err == nil {
			return errors.ErrTicketAlreadyOpen
		}
		if err := txn.Set(ticketOpenKey(account.ID), []byte(ticket.ID.String())); err != nil {
			return err
		}
		return txn.Set(ticketKey(ticket.ID), data)
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return ticket, nil
}

// ResolveTicket closes a ticket and frees the account's open slot.
// Resolving an already-closed ticket is a no-op.
func (r *ReportRepository) ResolveTicket(id uuid.UUID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(ticketKey(id))
		if err == badger.ErrKeyNotFound {
			return errors.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		var ticket domain.Ticket
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ticket)
		}); err != nil {
			return err
		}
		if ticket.Status == domain.StatusClosed {
			return nil
		}
		ticket.Status = domain.StatusClosed
		data, err := json.Marshal(ticket)
		if err != nil {
			return err
		}
		if err := txn.Set(ticketKey(id), data); err != nil {
			return err
		}
		return txn.Delete(ticketOpenKey(ticket.AccountID))
	})
}

func fromReport(report domain.Report) diskReport {
	context := make([]diskMessage, 0, len(report.Context))
	for _, m := range report.Context {
		context = append(context, fromMessage(m))
	}
	return diskReport{
		ID:           report.ID.String(),
		ReporterID:   report.ReporterID,
		ReporterName: report.ReporterName,
		ReportedID:   report.ReportedID,
		ReportedName: report.ReportedName,
		Room:         report.Room,
		Reason:       report.Reason,
		Context:      context,
		Status:       report.Status,
		At:           report.At.UnixNano(),
	}
}

func toReport(disk diskReport) (domain.Report, error) {
	id, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Report{}, err
	}
	context := make([]domain.Message, 0, len(disk.Context))
	for _, m := range disk.Context {
		msg, err := toMessage(m)
		if err != nil {
			return domain.Report{}, err
		}
		context = append(context, msg)
	}
	return domain.Report{
		ID:           id,
		ReporterID:   disk.ReporterID,
		ReporterName: disk.ReporterName,
		ReportedID:   disk.ReportedID,
		ReportedName: disk.ReportedName,
		Room:         disk.Room,
		Reason:       disk.Reason,
		Context:      context,
		Status:       disk.Status,
		At:           time.Unix(0, disk.At).UTC(),
	}, nil
}
