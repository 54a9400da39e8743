package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/mallrent-backend/internal/identity"
	"github.com/angelmondragon/mallrent-backend/pkg/config"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/types"
)

// RegisterService handles the sign-up flow: identity first, profile second.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*identity.Session, error)
}

type accountProvider interface {
	SignUp(ctx context.Context, email, password string) (*identity.Session, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context, accessID string) error
}

type profileRepository interface {
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	CreateIfMissing(ctx context.Context, user *models.User) (bool, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	Accounts accountProvider
	Profiles profileRepository
	Signup   config.SignupConfig
	Logger   *logger.Logger
}

type registerService struct {
	accounts accountProvider
	profiles profileRepository
	signup   config.SignupConfig
	logg     *logger.Logger
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("account provider is required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profiles repository is required")
	}
	return &registerService{
		accounts: params.Accounts,
		profiles: params.Profiles,
		signup:   params.Signup,
		logg:     params.Logger,
	}, nil
}

// Register creates the identity and its profile and returns a signed-in
// session. The role is checked before anything is written. Retrying after a
// failed profile insert reuses the existing identity.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*identity.Session, error) {
	roleName := strings.TrimSpace(req.Role)
	role, err := s.profiles.FindRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeRoleNotFound, "role not found; contact an administrator").
				WithDetails(map[string]string{"nombre_rol": roleName})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup role")
	}
	if !s.signup.AllowsRole(roleName) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role is not available for self sign-up")
	}

	sess, err := s.openAccount(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           sess.Principal.ID,
		RoleID:       role.ID,
		PersonalData: datatypes.NewJSONType(trimPersonalData(req.PersonalData)),
		Status:       enums.UserStatusActive,
	}
	if _, err := s.profiles.CreateIfMissing(ctx, user); err != nil {
		s.signOut(ctx, sess)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err,
			"account created but profile could not be saved; repeat the sign-up to finish")
	}
	return sess, nil
}

// openAccount signs up, falling back to sign-in when the email is taken by an
// identity that never got a profile.
func (s *registerService) openAccount(ctx context.Context, email, password string) (*identity.Session, error) {
	sess, err := s.accounts.SignUp(ctx, email, password)
	if err == nil {
		return sess, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		return nil, err
	}

	sess, signInErr := s.accounts.SignIn(ctx, email, password)
	if signInErr != nil {
		return nil, err
	}
	exists, lookupErr := s.profiles.Exists(ctx, sess.Principal.ID)
	if lookupErr != nil {
		s.signOut(ctx, sess)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, lookupErr, "check profile")
	}
	if exists {
		s.signOut(ctx, sess)
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, sess.Principal.ID.String()), "register.profile_recovery")
	}
	return sess, nil
}

func (s *registerService) signOut(ctx context.Context, sess *identity.Session) {
	if err := s.accounts.SignOut(ctx, sess.AccessID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "register.sign_out_failed", err)
	}
}

func trimPersonalData(pd types.PersonalData) types.PersonalData {
	pd.FirstName = strings.TrimSpace(pd.FirstName)
	pd.LastName = strings.TrimSpace(pd.LastName)
	pd.Phone = strings.TrimSpace(pd.Phone)
	pd.Document = strings.TrimSpace(pd.Document)
	return pd
}
