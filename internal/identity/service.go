package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/mallrent-backend/pkg/auth"
	"github.com/angelmondragon/mallrent-backend/pkg/auth/session"
	"github.com/angelmondragon/mallrent-backend/pkg/config"
	"github.com/angelmondragon/mallrent-backend/pkg/db"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

type identityRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*models.Identity, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	UpdateLastSignIn(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type sessionManager interface {
	Generate(ctx context.Context, principalID uuid.UUID, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (uuid.UUID, string, string, error)
	Revoke(ctx context.Context, accessID string) error
	HasSession(ctx context.Context, accessID string) (bool, error)
	Principal(ctx context.Context, accessID string) (uuid.UUID, error)
}

// ServiceParams bundles the dependencies required to build the provider.
type ServiceParams struct {
	Repo           identityRepository
	SessionManager sessionManager
	Events         Publisher
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

// Service is the identity provider: it owns credentials and sessions and
// announces every session change on the event bus.
type Service struct {
	repo     identityRepository
	sessions sessionManager
	events   Publisher
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("identity repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event publisher is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     params.Repo,
		sessions: params.SessionManager,
		events:   params.Events,
		jwtCfg:   params.JWTConfig,
		pwCfg:    params.PasswordConfig,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// SignIn authenticates email/password and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	identity, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	sess, err := s.open(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, enums.SessionEventSignedIn, sess, sess.Principal.ID, sess.AccessID)
	return sess, nil
}

// SignUp creates an identity and signs it in. An email that is already
// registered yields CodeConflict.
func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := security.CheckStrength(password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := security.HashPassword(password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	identity, err := s.repo.Create(ctx, email, hash)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create identity")
	}
	sess, err := s.open(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, enums.SessionEventSignedIn, sess, identity.ID, sess.AccessID)
	return sess, nil
}

// SignOut revokes the session keyed by accessID. Unknown sessions are a no-op.
func (s *Service) SignOut(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return nil
	}
	principalID, err := s.sessions.Principal(ctx, accessID)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup session")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	s.publish(ctx, enums.SessionEventSignedOut, nil, principalID, accessID)
	return nil
}

// Refresh rotates the refresh token and mints a new access token.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	principalID, newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.AccessID(), refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	if principalID != claims.PrincipalID {
		_ = s.sessions.Revoke(ctx, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	now := s.now().UTC()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		PrincipalID: principalID,
		Email:       claims.Email,
		JTI:         newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	sess := &Session{
		AccessToken:  token,
		RefreshToken: newRefresh,
		AccessID:     newAccessID,
		ExpiresAt:    now.Add(s.accessTTL()),
		Principal:    Principal{ID: principalID, Email: claims.Email},
	}
	s.publish(ctx, enums.SessionEventTokenRefreshed, sess, principalID, claims.AccessID())
	return sess, nil
}

// Verify validates an access token and checks that its session is still open.
func (s *Service) Verify(ctx context.Context, accessToken string) (*pkgAuth.AccessTokenClaims, error) {
	claims, err := pkgAuth.ParseAccessTokenAt(s.jwtCfg, accessToken, s.now())
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	ok, err := s.sessions.HasSession(ctx, claims.AccessID())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check session")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked")
	}
	return claims, nil
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup identity")
	}
	valid, err := security.VerifyPassword(password, identity.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if security.NeedsRehash(identity.PasswordHash, s.pwCfg) {
		s.rehash(ctx, identity.ID, password)
	}
	return identity, nil
}

func (s *Service) rehash(ctx context.Context, id uuid.UUID, password string) {
	hash, err := security.HashPassword(password, s.pwCfg)
	if err == nil {
		err = s.repo.UpdatePasswordHash(ctx, id, hash)
	}
	if err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "identity.rehash_failed")
	}
}

func (s *Service) open(ctx context.Context, identity *models.Identity) (*Session, error) {
	now := s.now().UTC()
	if err := s.repo.UpdateLastSignIn(ctx, identity.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last sign-in")
	}

	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		PrincipalID: identity.ID,
		Email:       identity.Email,
		JTI:         accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refresh, err := s.sessions.Generate(ctx, identity.ID, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &Session{
		AccessToken:  token,
		RefreshToken: refresh,
		AccessID:     accessID,
		ExpiresAt:    now.Add(s.accessTTL()),
		Principal:    Principal{ID: identity.ID, Email: identity.Email},
	}, nil
}

func (s *Service) accessTTL() time.Duration {
	return time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute
}

func (s *Service) publish(ctx context.Context, typ enums.SessionEventType, sess *Session, principalID uuid.UUID, accessID string) {
	s.events.Publish(ctx, Event{
		Type:        typ,
		Session:     sess,
		PrincipalID: principalID,
		AccessID:    accessID,
		At:          s.now().UTC(),
	})
}
