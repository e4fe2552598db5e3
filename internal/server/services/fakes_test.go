package services

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/dao"
)

type fakeUsers struct {
	byID       map[string]*models.User
	getErr     error
	createErr  error
	listLimit  int
	listOffset int
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) List(_ context.Context, offset, limit int) ([]models.User, error) {
	f.listOffset, f.listLimit = offset, limit
	return []models.User{}, nil
}

func (f *fakeUsers) Update(context.Context, string, dao.Values) (*models.User, error) {
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) Delete(context.Context, string) (int64, error) { return 0, nil }

type fakeSessions struct {
	session   *models.RefreshSession
	getErr    error
	rotateErr error
	deleteErr error
	deleted   []int64
}

func (f *fakeSessions) Create(context.Context, *models.RefreshSession) error { return nil }

func (f *fakeSessions) GetByToken(_ context.Context, token string) (*models.RefreshSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.session != nil && f.session.RefreshToken == token {
		s := *f.session
		return &s, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeSessions) ListByUser(context.Context, string) ([]models.RefreshSession, error) {
	return nil, nil
}

func (f *fakeSessions) Rotate(context.Context, string, *models.RefreshSession) (*models.RefreshSession, error) {
	if f.rotateErr != nil {
		return nil, f.rotateErr
	}
	return f.session, nil
}

func (f *fakeSessions) DeleteByID(_ context.Context, id int64) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return 1, nil
}

func (f *fakeSessions) DeleteByToken(context.Context, string) (int64, error) {
	return 0, f.deleteErr
}

func (f *fakeSessions) DeleteByUser(context.Context, string) (int64, error) {
	return 0, f.deleteErr
}
