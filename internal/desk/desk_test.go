package desk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"complaintdesk/internal/auth"
	"complaintdesk/internal/complaint"
	cderrors "complaintdesk/internal/errors"
	"complaintdesk/internal/logger"
	"complaintdesk/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	got []complaint.Record
	err error
}

func (n *recordingNotifier) NotifyTicket(_ context.Context, rec complaint.Record) (int, error) {
	n.got = append(n.got, rec)
	return len(n.got), n.err
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users_data.csv")
	ledger := storage.New(path, complaint.Header, logger.Discard())
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	svc := New(ledger, "TCKT", 1001, complaint.NewCategorizer(complaint.DefaultRules()), logger.Discard(), opts...)
	return svc, path
}

func form(kind string) complaint.Form {
	return complaint.Form{
		Name:        "O'Brien, J.",
		Mobile:      "9876543210",
		Location:    "Ward 4, Main Road",
		Type:        kind,
		Description: `Pipe burst, "urgent" repair needed`,
	}
}

func TestSubmitEmptyStoreIssuesFirstTicket(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	receipt, err := svc.Submit(ctx, auth.Session{}, form("Water"))
	require.NoError(t, err)
	assert.Equal(t, "TCKT1001", receipt.TicketID())

	rec := receipt.Record
	assert.Equal(t, complaint.StatusOpen, rec.Status)
	assert.Equal(t, "Yes", rec.TicketAlive)
	assert.Equal(t, "Water Department", rec.Department)
	assert.Equal(t, "High", rec.UrgencyLevel)
	assert.Equal(t, "2026-03-14 09:30:00", rec.Timestamp)

	found, ok, err := svc.Lookup(ctx, "tckt1001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "O'Brien, J.", found.Name)
	assert.Equal(t, `Pipe burst, "urgent" repair needed`, found.Description)
	assert.Equal(t, rec, found)
}

func TestSubmitRejectsMissingFieldBeforeWriting(t *testing.T) {
	ctx := context.Background()
	svc, path := newTestService(t)

	f := form("Water")
	f.Location = ""
	_, err := svc.Submit(ctx, auth.Session{}, f)
	require.Error(t, err)
	assert.True(t, cderrors.IsMissingField(err))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no row may be written")

	// The rejected attempt must not consume an ID.
	assert.Equal(t, "TCKT1001", svc.PeekNextID(ctx))
}

func TestSubmitSequence(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for i := 0; i < 5; i++ {
		receipt, err := svc.Submit(ctx, auth.Session{}, form(fmt.Sprintf("Type %d", i)))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("TCKT%d", 1001+i), receipt.TicketID())
	}

	records, err := svc.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestSubmitContinuesAfterExistingLedger(t *testing.T) {
	ctx := context.Background()
	svc, path := newTestService(t)

	seed := complaint.Record{TicketID: "TCKT1050", Status: complaint.StatusClosed, TicketAlive: "No"}
	ledger := storage.New(path, complaint.Header, logger.Discard())
	require.NoError(t, ledger.Append(ctx, seed.Row()))

	receipt, err := svc.Submit(ctx, auth.Session{}, form("Road"))
	require.NoError(t, err)
	assert.Equal(t, "TCKT1051", receipt.TicketID())
}

func TestSubmitRejectsDuplicateOpenComplaint(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	session := auth.Session{Username: "ravi", PasswordHash: "hash"}

	first, err := svc.Submit(ctx, session, form("Water"))
	require.NoError(t, err)

	_, err = svc.Submit(ctx, session, form(" water "))
	var dup *cderrors.DuplicateComplaintError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.TicketID(), dup.TicketID)

	// Another type, or another user, is fine.
	_, err = svc.Submit(ctx, session, form("Electricity"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, auth.Session{Username: "sita"}, form("Water"))
	require.NoError(t, err)
}

func TestSubmitNotifies(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	svc, _ := newTestService(t, WithNotifier(notifier))

	receipt, err := svc.Submit(context.Background(), auth.Session{}, form("Water"))
	require.NoError(t, err, "notification failures are not fatal")
	require.Len(t, notifier.got, 1)
	assert.Equal(t, receipt.Record, notifier.got[0])
}

func TestSubmitSurfacesWriteFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing-dir")
	ledger := storage.New(filepath.Join(dir, "ledger.csv"), complaint.Header, logger.Discard())
	svc := New(ledger, "TCKT", 1001, complaint.NewCategorizer(complaint.DefaultRules()), logger.Discard())

	_, err := svc.Submit(context.Background(), auth.Session{}, form("Water"))
	require.Error(t, err)
	assert.True(t, cderrors.IsFileIO(err))
}

func TestDepartmentAndOpenViews(t *testing.T) {
	ctx := context.Background()
	svc, path := newTestService(t)

	_, err := svc.Submit(ctx, auth.Session{}, form("Water"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, auth.Session{}, complaint.Form{
		Name: "Sita", Mobile: "9123456780", Location: "Ward 2", Type: "Road", Description: "pothole",
	})
	require.NoError(t, err)

	closed := complaint.Record{TicketID: "TCKT0900", Status: complaint.StatusClosed, Department: "Water Department"}
	require.NoError(t, storage.New(path, complaint.Header, logger.Discard()).Append(ctx, closed.Row()))

	water, err := svc.Department(ctx, "water department")
	require.NoError(t, err)
	assert.Len(t, water, 2)

	open, err := svc.Open(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	_, ok, err := svc.Lookup(ctx, "TCKT9999")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Contains(t, svc.Departments(), "Public Works Department")
	assert.Equal(t, complaint.Header, svc.Header())
}

func TestFailedAppendDoesNotConsumeID(t *testing.T) {
	ctx := context.Background()
	svc, path := newTestService(t)

	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0644))
	_, err := svc.Submit(ctx, auth.Session{}, form("Water"))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrSchemaMismatch)

	require.NoError(t, os.Remove(path))
	receipt, err := svc.Submit(ctx, auth.Session{}, form("Water"))
	require.NoError(t, err)
	assert.Equal(t, "TCKT1001", receipt.TicketID())
}

func TestSubmitStoresWindowsLineBreaksAsNewlines(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	f := form("Water")
	f.Description = "Pipe burst\r\nnear the school"
	receipt, err := svc.Submit(ctx, auth.Session{}, f)
	require.NoError(t, err)

	found, ok, err := svc.Lookup(ctx, receipt.TicketID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Pipe burst\nnear the school", found.Description)
	assert.Equal(t, receipt.Record, found)
}

func TestFindAndExportRows(t *testing.T) {
	ctx := context.Background()
	svc, path := newTestService(t)
	session := auth.Session{Username: "ravi", PasswordHash: "secret-hash"}

	_, err := svc.Submit(ctx, session, form("Water"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, session, complaint.Form{
		Name: "Ravi", Mobile: "9123456780", Location: "Ward 2", Type: "Road", Description: "pothole",
	})
	require.NoError(t, err)
	closed := complaint.Record{TicketID: "TCKT0900", Status: complaint.StatusClosed, Department: "Water Department"}
	require.NoError(t, storage.New(path, complaint.Header, logger.Discard()).Append(ctx, closed.Row()))

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"everything", Query{}, []string{"TCKT1001", "TCKT1002", "TCKT0900"}},
		{"department", Query{Department: "WATER DEPARTMENT"}, []string{"TCKT1001", "TCKT0900"}},
		{"open in department", Query{Department: "Water Department", OpenOnly: true}, []string{"TCKT1001"}},
		{"open", Query{OpenOnly: true}, []string{"TCKT1001", "TCKT1002"}},
		{"unknown department", Query{Department: "Fisheries"}, nil},
	}

	idCol := slices.Index(complaint.Header, complaint.ColTicketID)
	pwCol := slices.Index(complaint.Header, complaint.ColPassword)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := svc.Find(ctx, tt.query)
			require.NoError(t, err)
			var ids []string
			for _, r := range records {
				ids = append(ids, r.TicketID)
			}
			assert.Equal(t, tt.want, ids)

			rows, err := svc.ExportRows(ctx, tt.query)
			require.NoError(t, err)
			require.Len(t, rows, len(tt.want))
			for i, row := range rows {
				require.Len(t, row, len(complaint.Header))
				assert.Equal(t, tt.want[i], row[idCol])
				assert.Empty(t, row[pwCol], "password hash must not be exported")
			}
		})
	}

	// The ledger itself still carries the hash.
	rec, ok, err := svc.Lookup(ctx, "TCKT1001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "secret-hash", rec.Password)
}
