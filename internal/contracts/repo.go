package contracts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mallrent-backend/internal/repo"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

// Repository persists contratos_alquiler rows.
type Repository struct {
	repo.Base
}

// NewRepository constructs a contracts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, contract *models.Contract) error {
	return r.DB(ctx).Create(contract).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	err := r.DB(ctx).
		Preload("Unit").
		Where("id = ?", id).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// SetStatus moves a contract from -> to only if it is still in from.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, from, to enums.ContractStatus) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Contract{}).
		Where("id = ? AND estado_contrato = ?", id, from).
		UpdateColumn("estado_contrato", to)
	return repo.Affected(res)
}

// ListActiveWithOwner returns every active contract with the owner profile.
func (r *Repository) ListActiveWithOwner(ctx context.Context) ([]models.Contract, error) {
	var rows []models.Contract
	err := r.DB(ctx).
		Preload("Owner").
		Where("estado_contrato = ?", enums.ContractStatusActive).
		Find(&rows).Error
	return rows, err
}

// FirstActiveForOwner returns the owner's active contract with its unit and
// mall. Several active contracts are a data problem; the oldest wins.
func (r *Repository) FirstActiveForOwner(ctx context.Context, ownerID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	err := r.DB(ctx).
		Preload("Unit.Mall").
		Where("local_owner_id = ? AND estado_contrato = ?", ownerID, enums.ContractStatusActive).
		Order("fecha_inicio ASC").
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// ListEndedBefore returns active contracts whose end date is before day.
func (r *Repository) ListEndedBefore(ctx context.Context, day time.Time, limit int) ([]models.Contract, error) {
	var rows []models.Contract
	err := r.DB(ctx).
		Where("estado_contrato = ? AND fecha_fin < ?", enums.ContractStatusActive, day).
		Order("fecha_fin ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
