package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/mallrent-backend/internal/repo"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

// AmountRow is the slice of a payment the admin dashboard needs.
type AmountRow struct {
	ContractID uuid.UUID           `gorm:"column:contrato_id"`
	Amount     decimal.Decimal     `gorm:"column:monto"`
	Status     enums.PaymentStatus `gorm:"column:estado_pago"`
}

// Repository persists pagos_alquiler rows.
type Repository struct {
	repo.Base
}

// NewRepository constructs a payments repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.DB(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByContract returns the contract's payments, latest period first.
func (r *Repository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.DB(ctx).
		Where("contrato_id = ?", contractID).
		Order("mes_anio DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListAmounts(ctx context.Context) ([]AmountRow, error) {
	var rows []AmountRow
	err := r.DB(ctx).
		Model(&models.Payment{}).
		Select("contrato_id, monto, estado_pago").
		Scan(&rows).Error
	return rows, err
}

// MarkPaid records a payment if it is still pending or overdue.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, paidOn time.Time, method string, receiptURL *string) (int64, error) {
	updates := map[string]any{
		"estado_pago": enums.PaymentStatusPaid,
		"fecha_pago":  datatypes.Date(paidOn),
		"metodo_pago": method,
	}
	if receiptURL != nil {
		updates["comprobante_url"] = *receiptURL
	}
	res := r.DB(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND estado_pago IN ?", id, enums.OutstandingPaymentStatuses).
		UpdateColumns(updates)
	return repo.Affected(res)
}

// MarkOverdue flips pending payments due before day to vencido.
func (r *Repository) MarkOverdue(ctx context.Context, day time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Payment{}).
		Where("estado_pago = ? AND fecha_vencimiento < ?", enums.PaymentStatusPending, day).
		UpdateColumn("estado_pago", enums.PaymentStatusOverdue)
	return repo.Affected(res)
}
