package borrow

import (
	"context"
	"errors"
	"time"

	"booklending/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound    ErrCode = "BOOK_NOT_FOUND"
	ErrUserNotFound    ErrCode = "USER_NOT_FOUND"
	ErrAlreadyBorrowed ErrCode = "ALREADY_BORROWED"
	ErrLoanNotFound    ErrCode = "LOAN_NOT_FOUND"
	ErrNotBorrower     ErrCode = "NOT_BORROWER"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type LoanRepo interface {
	FindActiveByBook(ctx context.Context, bookID int64) (*model.Loan, error)
	FindActiveByUser(ctx context.Context, userID int64) ([]model.Loan, error)
	FindOverdueByUser(ctx context.Context, userID int64, asOf time.Time) ([]model.Loan, error)
	ListAll(ctx context.Context) ([]model.Loan, error)

	Create(ctx context.Context, tx pgx.Tx, bookID, userID int64, borrowDate, dueDate time.Time) (*model.Loan, error)
	UpdateDueDate(ctx context.Context, tx pgx.Tx, loanID int64, dueDate time.Time) (*model.Loan, error)
	Delete(ctx context.Context, tx pgx.Tx, loanID int64) error
}

type HistoryRepo interface {
	Append(ctx context.Context, tx pgx.Tx, bookID, userID int64, date time.Time, action model.HistoryAction) (*model.HistoryEntry, error)
}

type BookGetter interface {
	ByID(ctx context.Context, id int64) (*model.Book, error)
}

type UserGetter interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
}

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service interface {
	// Borrow lends a book to a user for the fixed lending period.
	Borrow(ctx context.Context, bookID, userID int64) (*model.Loan, error)

	// Renew extends the active loan from its current due date. Only the
	// current borrower may renew.
	Renew(ctx context.Context, bookID, userID int64) (*model.Loan, error)

	// Return ends the active loan for a book.
	Return(ctx context.Context, bookID int64) error

	ListByUser(ctx context.Context, userID int64) ([]model.Loan, error)
	ListOverdueByUser(ctx context.Context, userID int64) ([]model.Loan, error)
	ListAll(ctx context.Context) ([]model.Loan, error)

	// HasActiveLoans is the delete guard consulted before removing a user.
	HasActiveLoans(ctx context.Context, userID int64) (bool, error)
}

// ----- Service implementation -----

type service struct {
	db    TxBeginner
	loans LoanRepo
	hist  HistoryRepo
	books BookGetter
	users UserGetter
	now   func() time.Time
}

type Option func(*service)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func New(db TxBeginner, loans LoanRepo, hist HistoryRepo, books BookGetter, users UserGetter, opts ...Option) Service {
	s := &service{db: db, loans: loans, hist: hist, books: books, users: users, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Borrow checks book and user existence plus the no-active-loan rule, then
// writes the loan row and one history entry in a single transaction. The
// unique index on loans.book_id closes the check-then-create race: a
// concurrent borrow of the same book fails the insert, never the invariant.
func (s *service) Borrow(ctx context.Context, bookID, userID int64) (ln *model.Loan, err error) {
	if _, err := s.users.ByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}
	if _, err := s.books.ByID(ctx, bookID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrBookNotFound)
		}
		return nil, err
	}

	if _, err := s.loans.FindActiveByBook(ctx, bookID); err == nil {
		return nil, makeErr(ErrAlreadyBorrowed)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	borrowDate := s.now().UTC()
	ln, err = s.loans.Create(ctx, tx, bookID, userID, borrowDate, DueDate(borrowDate))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, makeErr(ErrAlreadyBorrowed)
		}
		return nil, err
	}
	if _, err = s.hist.Append(ctx, tx, bookID, userID, borrowDate, model.ActionBorrow); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ln, nil
}

func (s *service) Renew(ctx context.Context, bookID, userID int64) (ln *model.Loan, err error) {
	cur, err := s.loans.FindActiveByBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrLoanNotFound)
		}
		return nil, err
	}
	if cur.UserID != userID {
		return nil, makeErr(ErrNotBorrower)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	ln, err = s.loans.UpdateDueDate(ctx, tx, cur.ID, Renewed(cur.ReturnDate))
	if err != nil {
		return nil, err
	}
	if _, err = s.hist.Append(ctx, tx, bookID, userID, s.now().UTC(), model.ActionRenew); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ln, nil
}

func (s *service) Return(ctx context.Context, bookID int64) (err error) {
	cur, err := s.loans.FindActiveByBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrLoanNotFound)
		}
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = s.loans.Delete(ctx, tx, cur.ID); err != nil {
		return err
	}
	if _, err = s.hist.Append(ctx, tx, bookID, cur.UserID, s.now().UTC(), model.ActionReturn); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *service) ListByUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	if _, err := s.users.ByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}
	return s.loans.FindActiveByUser(ctx, userID)
}

func (s *service) ListOverdueByUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	if _, err := s.users.ByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}
	return s.loans.FindOverdueByUser(ctx, userID, s.now().UTC())
}

func (s *service) ListAll(ctx context.Context) ([]model.Loan, error) {
	return s.loans.ListAll(ctx)
}

func (s *service) HasActiveLoans(ctx context.Context, userID int64) (bool, error) {
	loans, err := s.loans.FindActiveByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(loans) > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
