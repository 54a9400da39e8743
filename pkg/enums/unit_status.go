package enums

import "fmt"

// UnitStatus is the occupancy state of a rentable unit.
type UnitStatus string

const (
	UnitStatusAvailable   UnitStatus = "disponible"
	UnitStatusOccupied    UnitStatus = "ocupado"
	UnitStatusMaintenance UnitStatus = "en_mantenimiento"
)

var validUnitStatuses = []UnitStatus{
	UnitStatusAvailable,
	UnitStatusOccupied,
	UnitStatusMaintenance,
}

// String implements fmt.Stringer.
func (u UnitStatus) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UnitStatus.
func (u UnitStatus) IsValid() bool {
	for _, candidate := range validUnitStatuses {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnitStatus converts raw input into a UnitStatus.
func ParseUnitStatus(value string) (UnitStatus, error) {
	for _, candidate := range validUnitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit status %q", value)
}
