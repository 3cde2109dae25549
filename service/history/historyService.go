package historysvc

import (
	"context"
	"errors"

	"booklending/model"
)

type ErrCode string

const (
	ErrNotFound ErrCode = "HISTORY_NOT_FOUND"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo interface {
	ByBook(ctx context.Context, bookID int64) ([]model.HistoryEntry, error)
	ByUser(ctx context.Context, userID int64) ([]model.HistoryEntry, error)
}

type Service interface {
	// ByBook lists audit entries for a book, oldest first. Empty history
	// reports not found.
	ByBook(ctx context.Context, bookID int64) ([]model.HistoryEntry, error)
	ByUser(ctx context.Context, userID int64) ([]model.HistoryEntry, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) ByBook(ctx context.Context, bookID int64) ([]model.HistoryEntry, error) {
	entries, err := s.r.ByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, makeErr(ErrNotFound)
	}
	return entries, nil
}

func (s *service) ByUser(ctx context.Context, userID int64) ([]model.HistoryEntry, error) {
	entries, err := s.r.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, makeErr(ErrNotFound)
	}
	return entries, nil
}
