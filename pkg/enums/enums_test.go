package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrips(t *testing.T) {
	status, err := ParsePaymentStatus("vencido")
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusOverdue, status)

	unit, err := ParseUnitType("restaurante")
	require.NoError(t, err)
	assert.Equal(t, UnitTypeRestaurant, unit)

	role, err := ParseRoleName("LocalOwner")
	require.NoError(t, err)
	assert.Equal(t, RoleNameOwner, role)

	inquiry, err := ParseInquiryStatus("contactada")
	require.NoError(t, err)
	assert.Equal(t, InquiryStatusContacted, inquiry)
}

func TestParseRejectsUnknownValues(t *testing.T) {
	_, err := ParsePaymentStatus("PAGADO")
	assert.Error(t, err)
	_, err = ParseContractStatus("")
	assert.Error(t, err)
	_, err = ParseUnitStatus("demolido")
	assert.Error(t, err)
	assert.False(t, RoleName("Admin").IsValid())
}

func TestPaymentOutstanding(t *testing.T) {
	assert.True(t, PaymentStatusPending.Outstanding())
	assert.True(t, PaymentStatusOverdue.Outstanding())
	assert.False(t, PaymentStatusPaid.Outstanding())
	for _, s := range OutstandingPaymentStatuses {
		assert.True(t, s.Outstanding(), s)
	}
}
