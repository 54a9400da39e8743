package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

// Inquiry is a visitor's request for information about a unit.
type Inquiry struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VisitorID    *uuid.UUID          `gorm:"column:visitante_id;type:uuid"`
	UnitID       uuid.UUID           `gorm:"column:local_id;type:uuid;not null"`
	Unit         *Unit               `gorm:"foreignKey:UnitID"`
	ContactName  string              `gorm:"column:nombre_contacto;not null"`
	ContactEmail string              `gorm:"column:email_contacto;not null"`
	ContactPhone *string             `gorm:"column:telefono_contacto"`
	Message      string              `gorm:"column:mensaje;not null"`
	Status       enums.InquiryStatus `gorm:"column:estado_solicitud;not null;default:nueva"`
	ContactedAt  *time.Time          `gorm:"column:fecha_contacto"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (Inquiry) TableName() string { return "solicitudes_informacion" }
