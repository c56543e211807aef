package user

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const UserIDKey contextKey = "userId"

var ErrNoUser = errors.New("user not found")

// CurrentId retrieves the current user's id from the context. Returns ErrNoUser if not present.
func CurrentId(ctx context.Context) (string, error) {
	userId, ok := ctx.Value(UserIDKey).(string)
	if !ok || userId == "" {
		log.Trace("user not found in context")
		return "", ErrNoUser
	}
	return userId, nil
}

func WithId(ctx context.Context, userId string) context.Context {
	return context.WithValue(ctx, UserIDKey, userId)
}
