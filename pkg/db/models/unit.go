package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

// Unit is a rentable commercial space inside a mall.
type Unit struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MallID    uuid.UUID        `gorm:"column:centro_comercial_id;type:uuid;not null"`
	Mall      *Mall            `gorm:"foreignKey:MallID"`
	Code      string           `gorm:"column:codigo_local;not null"`
	AreaM2    decimal.Decimal  `gorm:"column:area_m2;type:numeric(10,2);not null"`
	Type      enums.UnitType   `gorm:"column:tipo_local;not null"`
	Floor     *int             `gorm:"column:piso"`
	Status    enums.UnitStatus `gorm:"column:estado;not null;default:disponible"`
	Features  datatypes.JSON   `gorm:"column:caracteristicas;type:jsonb"`
	PhotoURLs pq.StringArray   `gorm:"column:fotos_urls;type:text[]"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (Unit) TableName() string { return "locales_comerciales" }
