package utils

import (
	"context"
)

type contextKey string

const (
	UserIDKey  contextKey = "user_id"
	RoleKey    contextKey = "role"
	SubjectKey contextKey = "subject"
	EmailKey   contextKey = "email"
)

// Identity is what the identity provider tells us about the caller.
type Identity struct {
	Subject string
	Email   string
}

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

func SetUserContext(ctx context.Context, userID int64, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, RoleKey, role)
	return ctx
}

func SetIdentityContext(ctx context.Context, identity Identity) context.Context {
	ctx = context.WithValue(ctx, SubjectKey, identity.Subject)
	ctx = context.WithValue(ctx, EmailKey, identity.Email)
	return ctx
}

func GetIdentityFromContext(ctx context.Context) (Identity, bool) {
	subject, ok := ctx.Value(SubjectKey).(string)
	if !ok || subject == "" {
		return Identity{}, false
	}
	email, _ := ctx.Value(EmailKey).(string)
	return Identity{Subject: subject, Email: email}, true
}
