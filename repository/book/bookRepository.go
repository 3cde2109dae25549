package bookrepo

import (
	"context"

	"booklending/model"
	"booklending/util/database"

	"github.com/jackc/pgx/v5"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	ByTitle(ctx context.Context, title string) ([]model.Book, error)
	ByTitleLike(ctx context.Context, title string) ([]model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO books(title, author, description)
		VALUES ($1,$2,$3)
		RETURNING id`,
		b.Title, b.Author, b.Description,
	).Scan(&b.ID)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	b := &model.Book{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, title, author, description
		FROM books
		WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Title, &b.Author, &b.Description)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) ByTitle(ctx context.Context, title string) ([]model.Book, error) {
	return r.query(ctx, `
		SELECT id, title, author, description
		FROM books
		WHERE title = $1
		ORDER BY id`, title)
}

// ByTitleLike matches a case-sensitive substring of the title.
func (r *repo) ByTitleLike(ctx context.Context, title string) ([]model.Book, error) {
	return r.query(ctx, `
		SELECT id, title, author, description
		FROM books
		WHERE title LIKE '%' || $1 || '%'
		ORDER BY id`, title)
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, title, author, description
		FROM books
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

func (r *repo) query(ctx context.Context, q string, args ...any) ([]model.Book, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

func scanBooks(rows pgx.Rows) ([]model.Book, error) {
	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Description); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) Update(ctx context.Context, b *model.Book) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE books
		SET title = $2, author = $3, description = $4
		WHERE id = $1`,
		b.ID, b.Title, b.Author, b.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
