// Package units reads and updates locales_comerciales.
package units

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mallrent-backend/internal/repo"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

type Repository struct {
	repo.Base
}

// NewRepository constructs a units repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) FindUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	if err := r.DB(ctx).Preload("Mall").Where("id = ?", id).First(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

// ListAll returns every unit ordered by code.
func (r *Repository) ListAll(ctx context.Context) ([]models.Unit, error) {
	var rows []models.Unit
	err := r.DB(ctx).Order("codigo_local ASC").Find(&rows).Error
	return rows, err
}

// ListByStatus returns units in status with their mall, ordered by code.
func (r *Repository) ListByStatus(ctx context.Context, status enums.UnitStatus) ([]models.Unit, error) {
	var rows []models.Unit
	err := r.DB(ctx).
		Preload("Mall").
		Where("estado = ?", status).
		Order("codigo_local ASC").
		Find(&rows).Error
	return rows, err
}

// SetStatus moves a unit from -> to only if it is still in from.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, from, to enums.UnitStatus) (int64, error) {
	return repo.Affected(r.DB(ctx).
		Model(&models.Unit{}).
		Where("id = ? AND estado = ?", id, from).
		UpdateColumn("estado", to))
}
