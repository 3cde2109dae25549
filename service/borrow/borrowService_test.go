package borrow

import (
	"context"
	"testing"
	"time"

	"booklending/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeTx struct {
	commits   int
	rollbacks int
}

var _ pgx.Tx = (*fakeTx)(nil)

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Commit(ctx context.Context) error          { t.commits++; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error        { t.rollbacks++; return nil }
func (t *fakeTx) CopyFrom(ctx context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(ctx context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(ctx context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Exec(ctx context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(ctx context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *fakeTx) QueryRow(ctx context.Context, _ string, _ ...any) pgx.Row { return nil }
func (t *fakeTx) Conn() *pgx.Conn                                          { return nil }

type fakeDB struct{ tx *fakeTx }

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) { return d.tx, nil }

// memLedger keeps at most one loan per book, like the unique index does.
type memLedger struct {
	nextID int64
	byBook map[int64]model.Loan
}

func newMemLedger() *memLedger { return &memLedger{byBook: map[int64]model.Loan{}} }

func (m *memLedger) FindActiveByBook(ctx context.Context, bookID int64) (*model.Loan, error) {
	ln, ok := m.byBook[bookID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ln, nil
}

func (m *memLedger) FindActiveByUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	var out []model.Loan
	for _, ln := range m.byBook {
		if ln.UserID == userID {
			out = append(out, ln)
		}
	}
	return out, nil
}

func (m *memLedger) FindOverdueByUser(ctx context.Context, userID int64, asOf time.Time) ([]model.Loan, error) {
	var out []model.Loan
	for _, ln := range m.byBook {
		if ln.UserID == userID && ln.ReturnDate.Before(asOf) {
			out = append(out, ln)
		}
	}
	return out, nil
}

func (m *memLedger) ListAll(ctx context.Context) ([]model.Loan, error) {
	var out []model.Loan
	for _, ln := range m.byBook {
		out = append(out, ln)
	}
	return out, nil
}

func (m *memLedger) Create(ctx context.Context, tx pgx.Tx, bookID, userID int64, borrowDate, dueDate time.Time) (*model.Loan, error) {
	if _, ok := m.byBook[bookID]; ok {
		return nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "loans_book_id_key"}
	}
	m.nextID++
	ln := model.Loan{ID: m.nextID, BookID: bookID, UserID: userID, BorrowDate: borrowDate, ReturnDate: dueDate}
	m.byBook[bookID] = ln
	return &ln, nil
}

func (m *memLedger) UpdateDueDate(ctx context.Context, tx pgx.Tx, loanID int64, dueDate time.Time) (*model.Loan, error) {
	for bookID, ln := range m.byBook {
		if ln.ID == loanID {
			ln.ReturnDate = dueDate
			m.byBook[bookID] = ln
			return &ln, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memLedger) Delete(ctx context.Context, tx pgx.Tx, loanID int64) error {
	for bookID, ln := range m.byBook {
		if ln.ID == loanID {
			delete(m.byBook, bookID)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memHistory struct {
	entries []model.HistoryEntry
}

func (m *memHistory) Append(ctx context.Context, tx pgx.Tx, bookID, userID int64, date time.Time, action model.HistoryAction) (*model.HistoryEntry, error) {
	h := model.HistoryEntry{
		ID:     int64(len(m.entries) + 1),
		BookID: bookID,
		UserID: userID,
		Date:   date,
		Action: action,
	}
	m.entries = append(m.entries, h)
	return &h, nil
}

type memBooks map[int64]model.Book

func (m memBooks) ByID(ctx context.Context, id int64) (*model.Book, error) {
	b, ok := m[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &b, nil
}

type memUsers map[int64]model.User

func (m memUsers) ByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

type fixture struct {
	svc    Service
	ledger *memLedger
	hist   *memHistory
	tx     *fakeTx
	now    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	now := &day
	tx := &fakeTx{}
	ledger := newMemLedger()
	hist := &memHistory{}
	books := memBooks{42: {ID: 42, Title: "The Go Programming Language", Author: "Donovan"}}
	users := memUsers{
		3: {ID: 3, Name: "carol"},
		7: {ID: 7, Name: "alice"},
		9: {ID: 9, Name: "bob"},
	}

	svc := New(&fakeDB{tx: tx}, ledger, hist, books, users,
		WithNow(func() time.Time { return *now }))
	return &fixture{svc: svc, ledger: ledger, hist: hist, tx: tx, now: now}
}

// --- tests ---

func TestBorrow_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	day := *f.now

	ln, err := f.svc.Borrow(ctx, 42, 7)
	require.NoError(t, err)
	require.Equal(t, int64(42), ln.BookID)
	require.Equal(t, int64(7), ln.UserID)
	require.True(t, ln.BorrowDate.Equal(day))
	require.True(t, ln.ReturnDate.Equal(day.AddDate(0, 0, 90)))

	require.Len(t, f.hist.entries, 1)
	require.Equal(t, model.ActionBorrow, f.hist.entries[0].Action)
	require.Equal(t, int64(42), f.hist.entries[0].BookID)
	require.Equal(t, int64(7), f.hist.entries[0].UserID)
	require.Equal(t, 1, f.tx.commits)
}

func TestBorrow_UserNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Borrow(ctx, 42, 999)
	require.Error(t, err)
	require.Equal(t, ErrUserNotFound, Code(err))
	require.Empty(t, f.hist.entries)
	require.Zero(t, f.tx.commits)
}

func TestBorrow_BookNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Borrow(ctx, 999, 7)
	require.Error(t, err)
	require.Equal(t, ErrBookNotFound, Code(err))
	require.Empty(t, f.hist.entries)
}

func TestBorrow_AlreadyBorrowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Borrow(ctx, 42, 7)
	require.NoError(t, err)

	_, err = f.svc.Borrow(ctx, 42, 9)
	require.Error(t, err)
	require.Equal(t, ErrAlreadyBorrowed, Code(err))

	// the single-active-loan invariant held
	loans, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	require.Len(t, f.hist.entries, 1)
}

// raceLedger simulates two borrows passing the availability check before
// either commits: the check sees no loan, the insert hits the unique index.
type raceLedger struct{ *memLedger }

func (r raceLedger) FindActiveByBook(ctx context.Context, bookID int64) (*model.Loan, error) {
	return nil, pgx.ErrNoRows
}

func TestBorrow_RaceMapsUniqueViolationToConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ledger := raceLedger{f.ledger}
	svc := New(&fakeDB{tx: f.tx}, ledger, f.hist,
		memBooks{42: {ID: 42}}, memUsers{7: {ID: 7}, 9: {ID: 9}})

	_, err := svc.Borrow(ctx, 42, 7)
	require.NoError(t, err)

	_, err = svc.Borrow(ctx, 42, 9)
	require.Error(t, err)
	require.Equal(t, ErrAlreadyBorrowed, Code(err))
	require.Equal(t, 1, f.tx.rollbacks)
}

func TestRenew_ExtendsFromCurrentDueDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	day := *f.now

	_, err := f.svc.Borrow(ctx, 42, 7)
	require.NoError(t, err)

	ln, err := f.svc.Renew(ctx, 42, 7)
	require.NoError(t, err)
	require.True(t, ln.ReturnDate.Equal(day.AddDate(0, 0, 180)))

	// second renewal compounds: +180 days over the original due date
	ln, err = f.svc.Renew(ctx, 42, 7)
	require.NoError(t, err)
	require.True(t, ln.ReturnDate.Equal(day.AddDate(0, 0, 270)))

	require.Len(t, f.hist.entries, 3)
	require.Equal(t, model.ActionRenew, f.hist.entries[1].Action)
	require.Equal(t, model.ActionRenew, f.hist.entries[2].Action)
}

func TestRenew_WrongUserReportsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Borrow(ctx, 42, 7)
	require.NoError(t, err)
	before, err := f.ledger.FindActiveByBook(ctx, 42)
	require.NoError(t, err)

	_, err = f.svc.Renew(ctx, 42, 9)
	require.Error(t, err)
	require.Equal(t, ErrNotBorrower, Code(err))

	// state unchanged, nothing appended
	after, err := f.ledger.FindActiveByBook(ctx, 42)
	require.NoError(t, err)
	require.True(t, after.ReturnDate.Equal(before.ReturnDate))
	require.Len(t, f.hist.entries, 1)
}

func TestRenew_NoLoan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Renew(ctx, 42, 7)
	require.Error(t, err)
	require.Equal(t, ErrLoanNotFound, Code(err))
}

func TestReturn_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Borrow(ctx, 42, 7)
	require.NoError(t, err)

	require.NoError(t, f.svc.Return(ctx, 42))

	_, err = f.ledger.FindActiveByBook(ctx, 42)
	require.ErrorIs(t, err, pgx.ErrNoRows)

	loans, err := f.svc.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, loans)

	require.Len(t, f.hist.entries, 2)
	require.Equal(t, model.ActionReturn, f.hist.entries[1].Action)
	require.Equal(t, int64(7), f.hist.entries[1].UserID)

	// the book is available again, to anyone
	_, err = f.svc.Borrow(ctx, 42, 3)
	require.NoError(t, err)
}

func TestReturn_NoLoanNeverWritesHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.svc.Return(ctx, 42)
	require.Error(t, err)
	require.Equal(t, ErrLoanNotFound, Code(err))
	require.Empty(t, f.hist.entries)
	require.Zero(t, f.tx.commits)
}

func TestListOverdueByUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	day := *f.now

	_, err := f.svc.Borrow(ctx, 42, 7)
	require.NoError(t, err)

	// day D+89: not yet overdue
	*f.now = day.AddDate(0, 0, 89)
	overdue, err := f.svc.ListOverdueByUser(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, overdue)

	// day D+91: one day past due
	*f.now = day.AddDate(0, 0, 91)
	overdue, err = f.svc.ListOverdueByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, int64(42), overdue[0].BookID)
}

func TestListByUser_UserNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.ListByUser(ctx, 999)
	require.Equal(t, ErrUserNotFound, Code(err))

	_, err = f.svc.ListOverdueByUser(ctx, 999)
	require.Equal(t, ErrUserNotFound, Code(err))
}

func TestHasActiveLoans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	has, err := f.svc.HasActiveLoans(ctx, 7)
	require.NoError(t, err)
	require.False(t, has)

	_, err = f.svc.Borrow(ctx, 42, 7)
	require.NoError(t, err)

	has, err = f.svc.HasActiveLoans(ctx, 7)
	require.NoError(t, err)
	require.True(t, has)
}
