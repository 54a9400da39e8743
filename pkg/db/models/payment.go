package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

// Payment is one monthly rent obligation of a contract. Period is "YYYY-MM".
type Payment struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ContractID uuid.UUID           `gorm:"column:contrato_id;type:uuid;not null"`
	Contract   *Contract           `gorm:"foreignKey:ContractID"`
	Period     string              `gorm:"column:mes_anio;not null"`
	Amount     decimal.Decimal     `gorm:"column:monto;type:numeric(12,2);not null"`
	DueDate    datatypes.Date      `gorm:"column:fecha_vencimiento;not null"`
	PaidDate   *datatypes.Date     `gorm:"column:fecha_pago"`
	Status     enums.PaymentStatus `gorm:"column:estado_pago;not null;default:pendiente"`
	Method     *string             `gorm:"column:metodo_pago"`
	ReceiptURL *string             `gorm:"column:comprobante_url"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (Payment) TableName() string { return "pagos_alquiler" }
