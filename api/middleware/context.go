package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/mallrent-backend/internal/authz"
	"github.com/angelmondragon/mallrent-backend/internal/profiles"
)

type contextKey string

const (
	ctxPrincipalID contextKey = "principal_id"
	ctxAccessID    contextKey = "access_id"
	ctxEmail       contextKey = "email"
	ctxProfile     contextKey = "profile"
	ctxView        contextKey = "view"
)

func PrincipalIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxPrincipalID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// AccessIDFromContext returns the jti of the bearer token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmail).(string); ok {
		return v
	}
	return ""
}

func ProfileFromContext(ctx context.Context) *profiles.Profile {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxProfile).(*profiles.Profile); ok {
		return v
	}
	return nil
}

// ViewFromContext returns the resolved view, or the permission-error view when none was set.
func ViewFromContext(ctx context.Context) authz.View {
	if ctx == nil {
		return authz.ViewPermissionError
	}
	if v, ok := ctx.Value(ctxView).(authz.View); ok {
		return v
	}
	return authz.ViewPermissionError
}

// WithPrincipal injects the authenticated principal and its access id.
func WithPrincipal(ctx context.Context, principalID uuid.UUID, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxPrincipalID, principalID)
	return context.WithValue(ctx, ctxAccessID, accessID)
}

// WithProfile injects the loaded profile together with the view its role resolves to.
func WithProfile(ctx context.Context, profile *profiles.Profile) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxProfile, profile)
	view := authz.ViewPermissionError
	if profile != nil {
		view = authz.Resolve(profile.RoleName)
	}
	return context.WithValue(ctx, ctxView, view)
}
