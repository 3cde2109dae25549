package usersvc_test

import (
	"context"
	"testing"

	"booklending/model"
	usersvc "booklending/service/user"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type repoMock struct {
	byIDFn   func(ctx context.Context, id int64) (*model.User, error)
	byNameFn func(ctx context.Context, name string) (*model.User, error)
	listFn   func(ctx context.Context) ([]model.User, error)
	updateFn func(ctx context.Context, u *model.User) error
	deleteFn func(ctx context.Context, id int64) error
}

func (m *repoMock) ByID(ctx context.Context, id int64) (*model.User, error) {
	return m.byIDFn(ctx, id)
}
func (m *repoMock) ByName(ctx context.Context, name string) (*model.User, error) {
	return m.byNameFn(ctx, name)
}
func (m *repoMock) List(ctx context.Context) ([]model.User, error)  { return m.listFn(ctx) }
func (m *repoMock) Update(ctx context.Context, u *model.User) error { return m.updateFn(ctx, u) }
func (m *repoMock) Delete(ctx context.Context, id int64) error      { return m.deleteFn(ctx, id) }

type loanMock struct {
	byUserFn func(ctx context.Context, userID int64) ([]model.Loan, error)
}

func (m *loanMock) FindActiveByUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	return m.byUserFn(ctx, userID)
}

func existing(id int64) func(ctx context.Context, id int64) (*model.User, error) {
	return func(ctx context.Context, got int64) (*model.User, error) {
		return &model.User{ID: got, Name: "alice"}, nil
	}
}

func TestByID_NotFound(t *testing.T) {
	m := &repoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) { return nil, pgx.ErrNoRows },
	}
	s := usersvc.New(m, &loanMock{})

	_, err := s.ByID(context.Background(), 7)
	require.Equal(t, usersvc.ErrNotFound, usersvc.Code(err))
}

func TestByName_Empty(t *testing.T) {
	s := usersvc.New(&repoMock{}, &loanMock{})
	_, err := s.ByName(context.Background(), "")
	require.Equal(t, usersvc.ErrBadInput, usersvc.Code(err))
}

func TestDelete_RefusedWhileHoldingLoans(t *testing.T) {
	deleted := false
	m := &repoMock{
		byIDFn:   existing(7),
		deleteFn: func(ctx context.Context, id int64) error { deleted = true; return nil },
	}
	lm := &loanMock{byUserFn: func(ctx context.Context, userID int64) ([]model.Loan, error) {
		return []model.Loan{{ID: 1, BookID: 42, UserID: userID}}, nil
	}}
	s := usersvc.New(m, lm)

	err := s.Delete(context.Background(), 7)
	require.Equal(t, usersvc.ErrHasLoans, usersvc.Code(err))
	require.False(t, deleted)
}

func TestDelete_Success(t *testing.T) {
	m := &repoMock{
		byIDFn:   existing(7),
		deleteFn: func(ctx context.Context, id int64) error { return nil },
	}
	lm := &loanMock{byUserFn: func(ctx context.Context, userID int64) ([]model.Loan, error) {
		return nil, nil
	}}
	s := usersvc.New(m, lm)

	require.NoError(t, s.Delete(context.Background(), 7))
}

func TestDelete_NotFound(t *testing.T) {
	m := &repoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) { return nil, pgx.ErrNoRows },
	}
	s := usersvc.New(m, &loanMock{})

	err := s.Delete(context.Background(), 7)
	require.Equal(t, usersvc.ErrNotFound, usersvc.Code(err))
}

func TestUpdate_HashesPassword(t *testing.T) {
	var stored *model.User
	m := &repoMock{
		updateFn: func(ctx context.Context, u *model.User) error { stored = u; return nil },
	}
	s := usersvc.New(m, &loanMock{})

	u, err := s.Update(context.Background(), 7, "alice", "supersecret")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotEmpty(t, u.PasswordHash)
	require.NotEqual(t, "supersecret", u.PasswordHash)
}
