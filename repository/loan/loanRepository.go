// repository/loan/repo.go
package loanrepo

import (
	"context"
	"time"

	"booklending/model"
	"booklending/util/database"

	"github.com/jackc/pgx/v5"
)

// Repo persists at most one active loan per book. The loans table carries
// a unique index on book_id, so a concurrent double borrow surfaces as a
// unique violation from Create rather than a second row.
type Repo interface {
	FindActiveByBook(ctx context.Context, bookID int64) (*model.Loan, error)
	FindActiveByUser(ctx context.Context, userID int64) ([]model.Loan, error)
	FindOverdueByUser(ctx context.Context, userID int64, asOf time.Time) ([]model.Loan, error)
	ListAll(ctx context.Context) ([]model.Loan, error)

	Create(ctx context.Context, tx pgx.Tx, bookID, userID int64, borrowDate, dueDate time.Time) (*model.Loan, error)
	UpdateDueDate(ctx context.Context, tx pgx.Tx, loanID int64, dueDate time.Time) (*model.Loan, error)
	Delete(ctx context.Context, tx pgx.Tx, loanID int64) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

const loanCols = `id, book_id, user_id, borrow_date, return_date`

func (r *repo) FindActiveByBook(ctx context.Context, bookID int64) (*model.Loan, error) {
	ln := &model.Loan{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT `+loanCols+`
		FROM loans
		WHERE book_id = $1`,
		bookID,
	).Scan(&ln.ID, &ln.BookID, &ln.UserID, &ln.BorrowDate, &ln.ReturnDate)
	if err != nil {
		return nil, err
	}
	return ln, nil
}

func (r *repo) FindActiveByUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	return r.query(ctx, `
		SELECT `+loanCols+`
		FROM loans
		WHERE user_id = $1
		ORDER BY id`, userID)
}

func (r *repo) FindOverdueByUser(ctx context.Context, userID int64, asOf time.Time) ([]model.Loan, error) {
	return r.query(ctx, `
		SELECT `+loanCols+`
		FROM loans
		WHERE user_id = $1
		AND return_date < $2
		ORDER BY id`, userID, asOf)
}

func (r *repo) ListAll(ctx context.Context) ([]model.Loan, error) {
	return r.query(ctx, `
		SELECT `+loanCols+`
		FROM loans
		ORDER BY id`)
}

func (r *repo) query(ctx context.Context, q string, args ...any) ([]model.Loan, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Loan
	for rows.Next() {
		var ln model.Loan
		if err := rows.Scan(&ln.ID, &ln.BookID, &ln.UserID, &ln.BorrowDate, &ln.ReturnDate); err != nil {
			return nil, err
		}
		out = append(out, ln)
	}
	return out, rows.Err()
}

func (r *repo) Create(ctx context.Context, tx pgx.Tx, bookID, userID int64, borrowDate, dueDate time.Time) (*model.Loan, error) {
	ln := &model.Loan{BookID: bookID, UserID: userID, BorrowDate: borrowDate, ReturnDate: dueDate}
	err := tx.QueryRow(ctx, `
		INSERT INTO loans (book_id, user_id, borrow_date, return_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		bookID, userID, borrowDate, dueDate,
	).Scan(&ln.ID)
	if err != nil {
		return nil, err
	}
	return ln, nil
}

func (r *repo) UpdateDueDate(ctx context.Context, tx pgx.Tx, loanID int64, dueDate time.Time) (*model.Loan, error) {
	ln := &model.Loan{}
	err := tx.QueryRow(ctx, `
		UPDATE loans
		SET return_date = $2
		WHERE id = $1
		RETURNING `+loanCols,
		loanID, dueDate,
	).Scan(&ln.ID, &ln.BookID, &ln.UserID, &ln.BorrowDate, &ln.ReturnDate)
	if err != nil {
		return nil, err
	}
	return ln, nil
}

func (r *repo) Delete(ctx context.Context, tx pgx.Tx, loanID int64) error {
	tag, err := tx.Exec(ctx, `DELETE FROM loans WHERE id = $1`, loanID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
