package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

// Contract is a lease of one unit to one owner for a date range.
type Contract struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UnitID       uuid.UUID            `gorm:"column:local_id;type:uuid;not null"`
	Unit         *Unit                `gorm:"foreignKey:UnitID"`
	OwnerID      uuid.UUID            `gorm:"column:local_owner_id;type:uuid;not null"`
	Owner        *User                `gorm:"foreignKey:OwnerID"`
	StartDate    datatypes.Date       `gorm:"column:fecha_inicio;not null"`
	EndDate      datatypes.Date       `gorm:"column:fecha_fin;not null"`
	MonthlyRent  decimal.Decimal      `gorm:"column:renta_mensual;type:numeric(12,2);not null"`
	Deposit      decimal.NullDecimal  `gorm:"column:deposito_garantia;type:numeric(12,2)"`
	Status       enums.ContractStatus `gorm:"column:estado_contrato;not null;default:activo"`
	SpecialTerms datatypes.JSON       `gorm:"column:terminos_especiales;type:jsonb"`
	DocumentURL  *string              `gorm:"column:documento_contrato_url"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (Contract) TableName() string { return "contratos_alquiler" }
