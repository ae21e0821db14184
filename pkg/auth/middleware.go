package auth

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"
)

type contextKey string

const (
	tokenHeader               = "Authorization"
	tokenPrefix               = "Bearer "
	UserIDKey      contextKey = "user_id"
	DisplayNameKey contextKey = "display_name"
)

// NewAuthInterceptor creates a ConnectRPC interceptor that rejects requests
// without a valid bearer token and puts the caller's identity in the context.
func NewAuthInterceptor(verifier *Verifier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get(tokenHeader)
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("missing authorization header"))
			}

			if !strings.HasPrefix(authHeader, tokenPrefix) {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("invalid authorization header format"))
			}

			claims, err := verifier.ValidateToken(strings.TrimPrefix(authHeader, tokenPrefix))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("invalid or expired token"))
			}

			userID, err := claims.UserID()
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("token subject is not a user id"))
			}

			return next(WithIdentity(ctx, userID, claims.Name), req)
		}
	}
}

// WithIdentity stores the caller identity in ctx.
func WithIdentity(ctx context.Context, userID uuid.UUID, displayName string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, DisplayNameKey, displayName)
}

// GetUserID retrieves the user ID from the context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return id, ok
}

// GetDisplayName returns the caller's display name, or "" when unknown.
func GetDisplayName(ctx context.Context) string {
	name, _ := ctx.Value(DisplayNameKey).(string)
	return name
}
