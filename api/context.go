package api

import (
	"context"
	"errors"
)

type keyType string

const (
	identityKey  keyType = "identity"
	requestIDKey keyType = "requestID"
)

// Identity is what a verified access token says about the caller
type Identity struct {
	UserID string
	Name   string
	Email  string
}

func ctxWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func ctxGetIdentity(ctx context.Context) (Identity, error) {
	identity, ok := ctx.Value(identityKey).(Identity)
	if !ok || identity.UserID == "" {
		return Identity{}, errors.New("identity not found in context")
	}
	return identity, nil
}

func ctxWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func ctxGetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}
