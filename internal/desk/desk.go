// Package desk is the submission service both front ends call.
//
// Submit flow:
//  1. Validate the form (nothing is generated or written on failure)
//  2. Reject a duplicate open complaint of the same type by the same user
//  3. Generate the next ticket ID
//  4. Categorise (department, urgency)
//  5. Assemble the record and append it to the ledger (a failed write
//     releases the ID)
//  6. Notify (optional, failures only logged)
package desk

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"complaintdesk/internal/auth"
	"complaintdesk/internal/complaint"
	cderrors "complaintdesk/internal/errors"
	"complaintdesk/internal/storage"
	"complaintdesk/internal/ticket"
)

// Notifier is told about every ticket after it is persisted.
type Notifier interface {
	NotifyTicket(ctx context.Context, rec complaint.Record) (int, error)
}

// Receipt is what the presentation layer shows after a successful save.
type Receipt struct {
	Record complaint.Record
}

// TicketID is a shortcut for Record.TicketID.
func (r Receipt) TicketID() string {
	return r.Record.TicketID
}

// Service ties the ledger, generator and categoriser together.
type Service struct {
	ledger      *storage.Ledger
	generator   *ticket.Generator
	categorizer *complaint.Categorizer
	notifier    Notifier
	now         func() time.Time
	log         *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithNotifier installs a new-ticket notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a service over ledger. The generator scans the same ledger.
func New(ledger *storage.Ledger, prefix string, start int, categorizer *complaint.Categorizer, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		ledger:      ledger,
		generator:   ticket.NewGenerator(ledger, prefix, start, log),
		categorizer: categorizer,
		now:         time.Now,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates form and records a new ticket for session.
//
// Returns:
//   - Receipt: the persisted record
//   - error: MissingFieldError / InvalidFieldError (before any ID is
//     generated), DuplicateComplaintError, or FileIOError
func (s *Service) Submit(ctx context.Context, session auth.Session, form complaint.Form) (Receipt, error) {
	if err := complaint.Validate(form); err != nil {
		return Receipt{}, err
	}
	form = form.Normalized()

	if !session.Anonymous() {
		existing, err := s.findDuplicate(ctx, session.Username, form.Type)
		if err != nil {
			return Receipt{}, err
		}
		if existing != "" {
			return Receipt{}, cderrors.NewDuplicateComplaintError(existing, form.Type)
		}
	}

	id := s.generator.NextID(ctx)
	cat := s.categorizer.Categorize(form.Type, form.Description)
	rec := complaint.NewRecord(form, session.Username, session.PasswordHash, id, cat, s.now())

	if err := s.ledger.Append(ctx, rec.Row()); err != nil {
		s.generator.Release(id)
		s.log.Error("❌ Failed to save complaint", "ticket_id", id, "error", err)
		return Receipt{}, err
	}
	s.log.Info("✅ Ticket created", "ticket_id", id, "department", cat.Department, "urgency", cat.Urgency)

	if s.notifier != nil {
		if _, err := s.notifier.NotifyTicket(ctx, rec); err != nil {
			s.log.Warn("⚠️  Failed to send ticket notification", "ticket_id", id, "error", err)
		}
	}

	return Receipt{Record: rec}, nil
}

// PeekNextID returns the identifier the next Submit would use.
func (s *Service) PeekNextID(ctx context.Context) string {
	return s.generator.Peek(ctx)
}

// Records returns every ledger row as a record.
func (s *Service) Records(ctx context.Context) ([]complaint.Record, error) {
	rows, err := s.ledger.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]complaint.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, complaint.RecordFromRow(row))
	}
	return records, nil
}

// Lookup finds a ticket by ID. ok is false when it does not exist.
func (s *Service) Lookup(ctx context.Context, ticketID string) (rec complaint.Record, ok bool, err error) {
	records, err := s.Records(ctx)
	if err != nil {
		return complaint.Record{}, false, err
	}
	ticketID = strings.TrimSpace(ticketID)
	for _, r := range records {
		if strings.EqualFold(r.TicketID, ticketID) {
			return r, true, nil
		}
	}
	return complaint.Record{}, false, nil
}

// Query selects ledger records. The zero value matches everything.
type Query struct {
	Department string // case-insensitive; "" for any
	OpenOnly   bool
}

func (q Query) matches(r complaint.Record) bool {
	if q.OpenOnly && !r.IsOpen() {
		return false
	}
	return q.Department == "" || strings.EqualFold(r.Department, q.Department)
}

// Find returns the records matching q, in ledger order.
func (s *Service) Find(ctx context.Context, q Query) ([]complaint.Record, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	var out []complaint.Record
	for _, r := range records {
		if q.matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Department returns the tickets routed to the named department.
func (s *Service) Department(ctx context.Context, name string) ([]complaint.Record, error) {
	return s.Find(ctx, Query{Department: name})
}

// Open returns the tickets whose status is Open.
func (s *Service) Open(ctx context.Context) ([]complaint.Record, error) {
	return s.Find(ctx, Query{OpenOnly: true})
}

// ExportRows returns the matching records as ledger rows with the
// Password column blanked, ready for a spreadsheet.
func (s *Service) ExportRows(ctx context.Context, q Query) ([][]string, error) {
	records, err := s.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Redacted().Row())
	}
	return rows, nil
}

// Departments lists department names known to the categoriser.
func (s *Service) Departments() []string {
	return s.categorizer.Departments()
}

// Header returns the ledger column names.
func (s *Service) Header() []string {
	return s.ledger.Header()
}

// findDuplicate returns the ticket ID of an open complaint with the same
// user and complaint type, or "".
func (s *Service) findDuplicate(ctx context.Context, username, complaintType string) (string, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return "", err
	}
	for _, r := range records {
		if r.IsOpen() &&
			strings.TrimSpace(r.Username) == username &&
			strings.EqualFold(strings.TrimSpace(r.Type), complaintType) {
			return r.TicketID, nil
		}
	}
	return "", nil
}
