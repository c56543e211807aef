package user

import (
	"context"
	"fmt"

	"github.com/calsweep/calsweep/internal/storage"
)

const profileKind = "profile"

type Repo interface {
	GetUser(ctx context.Context, id string) (User, error)
	StoreUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
}

type RepoImpl struct {
	store storage.Store
}

func NewUserRepo(store storage.Store) *RepoImpl {
	return &RepoImpl{store: store}
}

func (r *RepoImpl) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	found, err := r.store.Get(id, profileKind, &u)
	if err != nil {
		return User{}, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	if !found {
		return User{}, ErrNoUser
	}
	u.Id = id
	return u, nil
}

func (r *RepoImpl) StoreUser(ctx context.Context, user User) error {
	if user.Id == "" {
		return fmt.Errorf("cannot store user without id")
	}
	return r.store.Put(user.Id, profileKind, user)
}

func (r *RepoImpl) DeleteUser(ctx context.Context, id string) error {
	return r.store.Delete(id, profileKind)
}
