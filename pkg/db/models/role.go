package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

// Role is a named permission bundle. Only Name drives access decisions.
type Role struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        enums.RoleName `gorm:"column:nombre_rol;not null;uniqueIndex"`
	Permissions datatypes.JSON `gorm:"column:permisos;type:jsonb"`
	Description *string        `gorm:"column:descripcion"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Role) TableName() string { return "roles" }
