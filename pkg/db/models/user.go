package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	"github.com/angelmondragon/mallrent-backend/pkg/types"
)

// User is the application profile of an identity. ID equals the identity id.
type User struct {
	ID           uuid.UUID                              `gorm:"column:id;type:uuid;primaryKey"`
	RoleID       uuid.UUID                              `gorm:"column:rol_id;type:uuid;not null"`
	Role         *Role                                  `gorm:"foreignKey:RoleID"`
	PersonalData datatypes.JSONType[types.PersonalData] `gorm:"column:datos_personales;type:jsonb"`
	Status       enums.UserStatus                       `gorm:"column:estado;not null;default:activo"`
	CreatedAt    time.Time                              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                              `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "usuarios" }
