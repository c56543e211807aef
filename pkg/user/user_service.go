package user

import (
	"context"
	"errors"
	"fmt"
)

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateSettings(ctx context.Context, settings Settings) (User, error)
	StoreUser(ctx context.Context, user User) error
}

type ServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetUser(ctx, userId)
}

func (s *ServiceImpl) GetUser(ctx context.Context, id string) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// UpdateSettings replaces the current user's sync configuration. The user
// record is created on first write so settings can be stored before the
// OAuth flow completed.
func (s *ServiceImpl) UpdateSettings(ctx context.Context, settings Settings) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	u, err := s.repo.GetUser(ctx, userId)
	if err != nil {
		if !errors.Is(err, ErrNoUser) {
			return User{}, err
		}
		u = User{Id: userId}
	}
	u.Settings = settings
	if err := s.repo.StoreUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("failed to store settings for user %s: %w", userId, err)
	}
	return u, nil
}

func (s *ServiceImpl) StoreUser(ctx context.Context, user User) error {
	return s.repo.StoreUser(ctx, user)
}
