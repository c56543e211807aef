package user

import (
	"context"
)

type StubUserRepo struct {
	Users map[string]User
}

func NewStubUserRepo() *StubUserRepo {
	return &StubUserRepo{Users: map[string]User{}}
}

func (s *StubUserRepo) GetUser(ctx context.Context, id string) (User, error) {
	u, ok := s.Users[id]
	if !ok {
		return User{}, ErrNoUser
	}
	return u, nil
}

func (s *StubUserRepo) StoreUser(ctx context.Context, user User) error {
	s.Users[user.Id] = user
	return nil
}

func (s *StubUserRepo) DeleteUser(ctx context.Context, id string) error {
	delete(s.Users, id)
	return nil
}
