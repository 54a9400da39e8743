package inquiries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mallrent-backend/internal/repo"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	"github.com/angelmondragon/mallrent-backend/pkg/pagination"
)

// Repository persists solicitudes_informacion rows.
type Repository struct {
	repo.Base
}

// NewRepository constructs an inquiries repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	return r.DB(ctx).Create(inquiry).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	if err := r.DB(ctx).Preload("Unit").Where("id = ?", id).First(&inquiry).Error; err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// UpdateStatus moves the row from -> to only if it is still in from and
// reports how many rows changed.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.InquiryStatus, contactedAt *time.Time) (int64, error) {
	updates := map[string]any{"estado_solicitud": to}
	if contactedAt != nil {
		updates["fecha_contacto"] = *contactedAt
	}
	res := r.DB(ctx).
		Model(&models.Inquiry{}).
		Where("id = ? AND estado_solicitud = ?", id, from).
		UpdateColumns(updates)
	return repo.Affected(res)
}

// List returns inquiries newest first with their unit, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *enums.InquiryStatus, params pagination.Params) ([]models.Inquiry, error) {
	q := r.DB(ctx).Model(&models.Inquiry{}).Preload("Unit")
	if status != nil {
		q = q.Where("estado_solicitud = ?", *status)
	}
	page, err := pagination.Keyset(params)
	if err != nil {
		return nil, err
	}

	var rows []models.Inquiry
	err = q.Scopes(page).Find(&rows).Error
	return rows, err
}

// CountByStatus counts inquiries in status.
func (r *Repository) CountByStatus(ctx context.Context, status enums.InquiryStatus) (int64, error) {
	var n int64
	err := r.DB(ctx).
		Model(&models.Inquiry{}).
		Where("estado_solicitud = ?", status).
		Count(&n).Error
	return n, err
}
