// repository/history/repo.go
package historyrepo

import (
	"context"
	"time"

	"booklending/model"
	"booklending/util/database"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
)

var psql = goqu.Dialect("postgres")

// Repo is the append-only audit log of borrow-lifecycle transitions.
// There are deliberately no update or delete methods.
type Repo interface {
	Append(ctx context.Context, tx pgx.Tx, bookID, userID int64, date time.Time, action model.HistoryAction) (*model.HistoryEntry, error)
	ByBook(ctx context.Context, bookID int64) ([]model.HistoryEntry, error)
	ByUser(ctx context.Context, userID int64) ([]model.HistoryEntry, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Append(ctx context.Context, tx pgx.Tx, bookID, userID int64, date time.Time, action model.HistoryAction) (*model.HistoryEntry, error) {
	q, args, err := psql.Insert("borrow_history").
		Rows(goqu.Record{
			"book_id": bookID,
			"user_id": userID,
			"date":    date,
			"action":  string(action),
		}).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	h := &model.HistoryEntry{BookID: bookID, UserID: userID, Date: date, Action: action}
	if err := tx.QueryRow(ctx, q, args...).Scan(&h.ID); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *repo) ByBook(ctx context.Context, bookID int64) ([]model.HistoryEntry, error) {
	return r.list(ctx, goqu.C("book_id").Eq(bookID))
}

func (r *repo) ByUser(ctx context.Context, userID int64) ([]model.HistoryEntry, error) {
	return r.list(ctx, goqu.C("user_id").Eq(userID))
}

func (r *repo) list(ctx context.Context, where goqu.Expression) ([]model.HistoryEntry, error) {
	q, args, err := psql.From("borrow_history").
		Select("id", "book_id", "user_id", "date", "action").
		Where(where).
		Order(goqu.C("date").Asc(), goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HistoryEntry
	for rows.Next() {
		var h model.HistoryEntry
		var action string
		if err := rows.Scan(&h.ID, &h.BookID, &h.UserID, &h.Date, &action); err != nil {
			return nil, err
		}
		h.Action = model.HistoryAction(action)
		out = append(out, h)
	}
	return out, rows.Err()
}
