package auth

import "github.com/angelmondragon/mallrent-backend/pkg/types"

// RegisterRequest is the self-service sign-up payload.
type RegisterRequest struct {
	Email        string             `json:"email" validate:"required,email"`
	Password     string             `json:"password" validate:"required,min=6"`
	Role         string             `json:"nombre_rol" validate:"required"`
	PersonalData types.PersonalData `json:"datos_personales" validate:"required"`
}
