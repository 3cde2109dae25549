package usersvc

import (
	"context"
	"errors"

	"booklending/model"
	"booklending/util/hash"

	"github.com/jackc/pgx/v5"
)

type ErrCode string

const (
	ErrNotFound ErrCode = "USER_NOT_FOUND"
	ErrHasLoans ErrCode = "USER_HAS_LOANS"
	ErrBadInput ErrCode = "BAD_INPUT"
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
	ByID(ctx context.Context, id int64) (*model.User, error)
	ByName(ctx context.Context, name string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id int64) error
}

// LoanChecker is the delete guard: a user holding an active loan must not
// be removed.
type LoanChecker interface {
	FindActiveByUser(ctx context.Context, userID int64) ([]model.Loan, error)
}

type Service interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
	ByName(ctx context.Context, name string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id int64, name, password string) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	r     Repo
	loans LoanChecker
}

func New(r Repo, loans LoanChecker) Service { return &service{r: r, loans: loans} }

func (s *service) ByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.r.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

func (s *service) ByName(ctx context.Context, name string) (*model.User, error) {
	if name == "" {
		return nil, makeErr(ErrBadInput)
	}
	u, err := s.r.ByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

func (s *service) List(ctx context.Context) ([]model.User, error) { return s.r.List(ctx) }

func (s *service) Update(ctx context.Context, id int64, name, password string) (*model.User, error) {
	if name == "" || password == "" {
		return nil, makeErr(ErrBadInput)
	}
	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{ID: id, Name: name, PasswordHash: hashed}
	if err := s.r.Update(ctx, u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

// Delete refuses to remove a user while they hold any active loan.
func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.r.ByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	loans, err := s.loans.FindActiveByUser(ctx, id)
	if err != nil {
		return err
	}
	if len(loans) > 0 {
		return makeErr(ErrHasLoans)
	}
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	return nil
}
