package types

import "strings"

// PersonalData is the typed shape of usuarios.datos_personales.
type PersonalData struct {
	FirstName string `json:"nombre" validate:"required,max=100"`
	LastName  string `json:"apellido" validate:"required,max=100"`
	Phone     string `json:"telefono,omitempty" validate:"omitempty,max=30"`
	Document  string `json:"documento,omitempty" validate:"omitempty,max=40"`
}

// FullName joins first and last name, skipping blanks.
func (p PersonalData) FullName() string {
	parts := make([]string, 0, 2)
	for _, v := range []string{p.FirstName, p.LastName} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
