package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mallrent-backend/internal/repo"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
)

// Repository persists identities.
type Repository struct {
	repo.Base
}

// NewRepository constructs an identities repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new identity with an already hashed password.
func (r *Repository) Create(ctx context.Context, email, passwordHash string) (*models.Identity, error) {
	identity := &models.Identity{
		ID:           uuid.New(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
	}
	if err := r.DB(ctx).Create(identity).Error; err != nil {
		return nil, err
	}
	return identity, nil
}

// FindByEmail retrieves the identity matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	if err := r.DB(ctx).Where("email = ?", normalizeEmail(email)).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// UpdateLastSignIn refreshes last_sign_in_at.
func (r *Repository) UpdateLastSignIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		UpdateColumn("last_sign_in_at", at).Error
}

// UpdatePasswordHash swaps the stored hash, used when argon parameters grow.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.DB(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
