package handler

import "context"

// IdentityResolver decides which user an event acts as.
type IdentityResolver interface {
	CurrentUser(ctx context.Context, ev Event) (int64, error)
}

// StaticIdentity treats every caller as the same configured user.
type StaticIdentity int64

func (s StaticIdentity) CurrentUser(context.Context, Event) (int64, error) {
	return int64(s), nil
}
