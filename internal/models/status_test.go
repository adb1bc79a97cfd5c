package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidOrderStatus(t *testing.T) {
	for _, s := range []string{
		OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled,
	} {
		assert.True(t, IsValidOrderStatus(s), s)
	}

	assert.False(t, IsValidOrderStatus("paid"))
	assert.False(t, IsValidOrderStatus("PENDING"))
	assert.False(t, IsValidOrderStatus(""))
	assert.False(t, IsValidOrderStatus("returned"))
}

func TestCanTransitionPayment(t *testing.T) {
	assert.True(t, CanTransitionPayment(PaymentStatusPending, PaymentStatusPaid))
	assert.True(t, CanTransitionPayment(PaymentStatusPending, PaymentStatusFailed))
	assert.True(t, CanTransitionPayment(PaymentStatusFailed, PaymentStatusPaid))
	assert.True(t, CanTransitionPayment(PaymentStatusFailed, PaymentStatusFailed))
}

func TestPaidHasNoOutgoingTransitions(t *testing.T) {
	for _, to := range []string{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed} {
		assert.False(t, CanTransitionPayment(PaymentStatusPaid, to), to)
	}
}

func TestTransitionsToPendingRejected(t *testing.T) {
	assert.False(t, CanTransitionPayment(PaymentStatusPending, PaymentStatusPending))
	assert.False(t, CanTransitionPayment(PaymentStatusFailed, PaymentStatusPending))
}
