package enums

import "fmt"

// PaymentStatus tracks a monthly rent payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pendiente"
	PaymentStatusPaid    PaymentStatus = "pagado"
	PaymentStatusOverdue PaymentStatus = "vencido"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusOverdue,
}

// OutstandingPaymentStatuses are the states a payment can still be recorded from.
var OutstandingPaymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusOverdue}

func (p PaymentStatus) String() string {
	return string(p)
}

// Outstanding is true while rent is still owed.
func (p PaymentStatus) Outstanding() bool {
	return p == PaymentStatusPending || p == PaymentStatusOverdue
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
