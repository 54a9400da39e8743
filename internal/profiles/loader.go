package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/types"
)

// Profile is the application-level record of a signed-in principal.
type Profile struct {
	ID           uuid.UUID          `json:"id"`
	RoleID       uuid.UUID          `json:"rol_id"`
	RoleName     string             `json:"nombre_rol"`
	PersonalData types.PersonalData `json:"datos_personales"`
	Status       enums.UserStatus   `json:"estado"`
}

// SignOuter ends the session a profile was requested for.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// SignOutFunc adapts a func to SignOuter.
type SignOutFunc func(ctx context.Context) error

func (f SignOutFunc) SignOut(ctx context.Context) error { return f(ctx) }

type profileReader interface {
	FindWithRole(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Loader resolves a principal into its profile. A principal without a usable
// profile is signed out.
type Loader struct {
	repo      profileReader
	signOuter SignOuter
	logg      *logger.Logger
}

func NewLoader(repo profileReader, signOuter SignOuter, logg *logger.Logger) *Loader {
	return &Loader{repo: repo, signOuter: signOuter, logg: logg}
}

// WithSignOuter returns a copy of the loader that signs out through s.
func (l *Loader) WithSignOuter(s SignOuter) *Loader {
	cp := *l
	cp.signOuter = s
	return &cp
}

// Load returns the profile of principalID or a PROFILE_MISSING error after
// forcing a sign-out. A cancelled ctx is returned untouched.
func (l *Loader) Load(ctx context.Context, principalID uuid.UUID) (*Profile, error) {
	user, err := l.repo.FindWithRole(ctx, principalID)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil || user == nil || user.Role == nil || user.Role.Name == "" {
		cause := err
		if cause == nil {
			cause = errors.New("profile has no role")
		}
		return nil, l.missing(ctx, principalID, cause)
	}

	return &Profile{
		ID:           user.ID,
		RoleID:       user.RoleID,
		RoleName:     string(user.Role.Name),
		PersonalData: user.PersonalData.Data(),
		Status:       user.Status,
	}, nil
}

func (l *Loader) missing(ctx context.Context, principalID uuid.UUID, cause error) error {
	if l.logg != nil {
		logCtx := l.logg.WithUserID(ctx, principalID.String())
		l.logg.Error(logCtx, "profile.missing", cause)
	}
	if l.signOuter != nil {
		if err := l.signOuter.SignOut(ctx); err != nil && l.logg != nil {
			l.logg.Error(ctx, "profile.forced_sign_out_failed", err)
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeProfileMissing, cause, "profile not found for signed-in user")
}
