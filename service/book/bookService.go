package booksvc

import (
	"context"
	"errors"

	"booklending/model"

	"github.com/jackc/pgx/v5"
)

type ErrCode string

const (
	ErrNotFound ErrCode = "BOOK_NOT_FOUND"
	ErrOnLoan   ErrCode = "BOOK_ON_LOAN"
	ErrBadInput ErrCode = "BAD_INPUT"
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

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	ByTitle(ctx context.Context, title string) ([]model.Book, error)
	ByTitleLike(ctx context.Context, title string) ([]model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
}

// LoanChecker is the delete guard: a book with an active loan must not be
// removed from the catalog.
type LoanChecker interface {
	FindActiveByBook(ctx context.Context, bookID int64) (*model.Loan, error)
}

type Service interface {
	Create(ctx context.Context, title, author, description string) (*model.Book, error)
	ByID(ctx context.Context, id int64) (*model.Book, error)
	ByTitle(ctx context.Context, title string) ([]model.Book, error)
	ByTitleLike(ctx context.Context, title string) ([]model.Book, error)
	Update(ctx context.Context, id int64, title, author, description string) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Book, error)
}

type service struct {
	r     Repo
	loans LoanChecker
}

func New(r Repo, loans LoanChecker) Service { return &service{r: r, loans: loans} }

func (s *service) Create(ctx context.Context, title, author, description string) (*model.Book, error) {
	if title == "" || author == "" {
		return nil, makeErr(ErrBadInput)
	}
	b := &model.Book{Title: title, Author: author, Description: description}
	if err := s.r.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) ByID(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return b, nil
}

func (s *service) ByTitle(ctx context.Context, title string) ([]model.Book, error) {
	if title == "" {
		return nil, makeErr(ErrBadInput)
	}
	books, err := s.r.ByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, makeErr(ErrNotFound)
	}
	return books, nil
}

func (s *service) ByTitleLike(ctx context.Context, title string) ([]model.Book, error) {
	if title == "" {
		return nil, makeErr(ErrBadInput)
	}
	books, err := s.r.ByTitleLike(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, makeErr(ErrNotFound)
	}
	return books, nil
}

func (s *service) Update(ctx context.Context, id int64, title, author, description string) (*model.Book, error) {
	if title == "" || author == "" {
		return nil, makeErr(ErrBadInput)
	}
	b := &model.Book{ID: id, Title: title, Author: author, Description: description}
	if err := s.r.Update(ctx, b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return b, nil
}

// Delete refuses to remove a book while it is on loan.
func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.loans.FindActiveByBook(ctx, id); err == nil {
		return makeErr(ErrOnLoan)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }
