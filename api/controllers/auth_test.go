package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mallrent-backend/api/middleware"
	"github.com/angelmondragon/mallrent-backend/internal/auth"
	"github.com/angelmondragon/mallrent-backend/internal/identity"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
)

type stubProvider struct {
	sess       *identity.Session
	err        error
	signedOut  []string
	refreshArg [2]string
}

func (s *stubProvider) SignIn(context.Context, string, string) (*identity.Session, error) {
	return s.sess, s.err
}

func (s *stubProvider) SignOut(_ context.Context, accessID string) error {
	s.signedOut = append(s.signedOut, accessID)
	return s.err
}

func (s *stubProvider) Refresh(_ context.Context, access, refresh string) (*identity.Session, error) {
	s.refreshArg = [2]string{access, refresh}
	return s.sess, s.err
}

type stubRegister struct {
	sess *identity.Session
	err  error
	got  auth.RegisterRequest
}

func (s *stubRegister) Register(_ context.Context, req auth.RegisterRequest) (*identity.Session, error) {
	s.got = req
	return s.sess, s.err
}

func testSession() *identity.Session {
	return &identity.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Principal:    identity.Principal{ID: uuid.New(), Email: "ana@mall.test"},
	}
}

func TestAuthSignInSuccess(t *testing.T) {
	provider := &stubProvider{sess: testSession()}
	rec := httptest.NewRecorder()
	AuthSignIn(provider, nil).ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/auth/sign-in", `{"email":"ana@mall.test","password":"secret1"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "access-token", rec.Header().Get(tokenHeader))
	require.Contains(t, string(decodeEnvelope(t, rec).Data), `"refresh_token":"refresh-token"`)
}

func TestAuthSignInBadCredentials(t *testing.T) {
	provider := &stubProvider{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	rec := httptest.NewRecorder()
	AuthSignIn(provider, nil).ServeHTTP(rec, jsonRequest(http.MethodPost, "/", `{"email":"ana@mall.test","password":"wrong"}`))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, string(pkgerrors.CodeUnauthorized), env.Error.Code)
	require.Equal(t, "invalid credentials", env.Error.Message)
}

func TestAuthSignInValidatesBody(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthSignIn(&stubProvider{}, nil).ServeHTTP(rec, jsonRequest(http.MethodPost, "/", `{"email":"not-an-email"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthSignUpCreated(t *testing.T) {
	register := &stubRegister{sess: testSession()}
	body := `{"email":"ana@mall.test","password":"secret12","nombre_rol":"LocalOwner","datos_personales":{"nombre":"Ana","apellido":"Ruiz"}}`
	rec := httptest.NewRecorder()
	AuthSignUp(register, nil).ServeHTTP(rec, jsonRequest(http.MethodPost, "/", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "LocalOwner", register.got.Role)
	require.Equal(t, "Ana", register.got.PersonalData.FirstName)
}

func TestAuthSignUpRoleNotFound(t *testing.T) {
	register := &stubRegister{err: pkgerrors.New(pkgerrors.CodeRoleNotFound, "role not found; contact an administrator")}
	body := `{"email":"ana@mall.test","password":"secret12","nombre_rol":"Auditor","datos_personales":{"nombre":"Ana","apellido":"Ruiz"}}`
	rec := httptest.NewRecorder()
	AuthSignUp(register, nil).ServeHTTP(rec, jsonRequest(http.MethodPost, "/", body))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, string(pkgerrors.CodeRoleNotFound), env.Error.Code)
	require.Contains(t, env.Error.Message, "contact an administrator")
}

func TestAuthSignOutUsesAccessID(t *testing.T) {
	provider := &stubProvider{}
	req := jsonRequest(http.MethodPost, "/", "")
	req = req.WithContext(middleware.WithPrincipal(req.Context(), uuid.New(), "acc-9"))
	rec := httptest.NewRecorder()
	AuthSignOut(provider, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"acc-9"}, provider.signedOut)
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthRefresh(&stubProvider{}, nil).ServeHTTP(rec, jsonRequest(http.MethodPost, "/", `{"refresh_token":"r"}`))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRefreshPassesTokens(t *testing.T) {
	provider := &stubProvider{sess: testSession()}
	req := jsonRequest(http.MethodPost, "/", `{"refresh_token":"old-refresh"}`)
	req.Header.Set("Authorization", "Bearer old-access")
	rec := httptest.NewRecorder()
	AuthRefresh(provider, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, [2]string{"old-access", "old-refresh"}, provider.refreshArg)
}
