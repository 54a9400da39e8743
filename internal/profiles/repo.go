package profiles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/mallrent-backend/internal/repo"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
)

// Repository reads and writes usuarios rows.
type Repository struct {
	repo.Base
}

// NewRepository constructs a profiles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// FindWithRole loads the profile and its role in a single query.
func (r *Repository) FindWithRole(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).
		Joins("Role").
		Where("usuarios.id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindRoleByName returns the role row with the exact stored name.
func (r *Repository) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.DB(ctx).Where("nombre_rol = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// CreateIfMissing inserts user unless a profile with the same id exists.
// It reports whether a row was written.
func (r *Repository) CreateIfMissing(ctx context.Context, user *models.User) (bool, error) {
	n, err := repo.Affected(r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user))
	return n > 0, err
}

// Exists reports whether a profile row exists for id.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
