package middleware

import (
	"context"

	"github.com/ithalat-ops/backoffice-api/internal/auth"
)

type contextKey string

const callerHolderKey contextKey = "callerHolder"

type callerHolder struct {
	user *auth.UserContext
}

func withCallerHolder(ctx context.Context, h *callerHolder) context.Context {
	return context.WithValue(ctx, callerHolderKey, h)
}
