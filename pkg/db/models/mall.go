package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Mall struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string         `gorm:"column:nombre;not null"`
	Address      string         `gorm:"column:direccion;not null"`
	Phone        *string        `gorm:"column:telefono"`
	ContactEmail *string        `gorm:"column:email_contacto"`
	Settings     datatypes.JSON `gorm:"column:configuraciones;type:jsonb"`
	LogoURL      *string        `gorm:"column:logo_url"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Mall) TableName() string { return "centros_comerciales" }
