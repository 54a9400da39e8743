package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/mallrent-backend/api/middleware"
	"github.com/angelmondragon/mallrent-backend/api/responses"
	"github.com/angelmondragon/mallrent-backend/api/validators"
	"github.com/angelmondragon/mallrent-backend/internal/auth"
	"github.com/angelmondragon/mallrent-backend/internal/identity"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

// tokenHeader mirrors the access token so clients can read it without parsing the body.
const tokenHeader = "X-MR-Token"

type identityProvider interface {
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context, accessID string) error
	Refresh(ctx context.Context, accessToken, refreshToken string) (*identity.Session, error)
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthSignIn exchanges email and password for a session.
func AuthSignIn(provider identityProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity provider unavailable"))
			return
		}
		var body signInRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := provider.SignIn(r.Context(), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set(tokenHeader, sess.AccessToken)
		responses.WriteSuccess(w, sess)
	}
}

// AuthSignUp creates the identity and profile and returns the opened session.
func AuthSignUp(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registration unavailable"))
			return
		}
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set(tokenHeader, sess.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, sess)
	}
}

// AuthSignOut closes the session behind the bearer token. Repeating it is harmless.
func AuthSignOut(provider identityProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity provider unavailable"))
			return
		}
		if err := provider.SignOut(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "signed_out"})
	}
}

// AuthRefresh rotates the refresh token. The access token may already be expired.
func AuthRefresh(provider identityProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity provider unavailable"))
			return
		}
		token, err := middleware.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body refreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := provider.Refresh(r.Context(), token, body.RefreshToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set(tokenHeader, sess.AccessToken)
		responses.WriteSuccess(w, sess)
	}
}
