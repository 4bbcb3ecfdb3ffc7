package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPaymentStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		current    string
		target     string
		transition bool
		noop       bool
	}{
		{name: "pending to paid", current: PaymentStatusPending, target: PaymentStatusPaid, transition: true},
		{name: "pending to failed", current: PaymentStatusPending, target: PaymentStatusFailed, transition: true},
		{name: "paid replay is noop", current: PaymentStatusPaid, target: PaymentStatusPaid, noop: true},
		{name: "failed replay is noop", current: PaymentStatusFailed, target: PaymentStatusFailed, noop: true},
		{name: "paid to failed rejected", current: PaymentStatusPaid, target: PaymentStatusFailed},
		{name: "failed to paid rejected", current: PaymentStatusFailed, target: PaymentStatusPaid},
		{name: "pending replay is not terminal noop", current: PaymentStatusPending, target: PaymentStatusPending},
		{name: "unknown target rejected", current: PaymentStatusPending, target: "refunded"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transition, noop := NextPaymentStatus(tt.current, tt.target)
			assert.Equal(t, tt.transition, transition)
			assert.Equal(t, tt.noop, noop)
		})
	}
}

func TestValidOrderStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []string{OrderStatusPending, OrderStatusPreparing, OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled} {
		assert.True(t, ValidOrderStatus(s), s)
	}
	assert.False(t, ValidOrderStatus("shipped"))
	assert.False(t, ValidOrderStatus(""))
}
