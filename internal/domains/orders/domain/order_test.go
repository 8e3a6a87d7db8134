package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, method Method) *Order {
	t.Helper()
	order, err := NewOrder("ord-1", 7, []LineItem{
		{BookID: 1, Title: "A", Quantity: 2, UnitPrice: 100},
		{BookID: 2, Title: "B", Quantity: 1, UnitPrice: 250},
	}, "Thamel, Kathmandu", method)
	require.NoError(t, err)
	return order
}

func TestNewOrder_TotalIsSumOfSubtotals(t *testing.T) {
	order := newTestOrder(t, MethodCashOnDelivery)
	require.Equal(t, int64(450), order.TotalAmount)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, PaymentUnpaid, order.PaymentStatus)
}

func TestNewOrder_Validation(t *testing.T) {
	_, err := NewOrder("ord-1", 7, nil, "addr", MethodCashOnDelivery)
	require.ErrorIs(t, err, ErrEmptyItems)

	_, err = NewOrder("ord-1", 7, []LineItem{{BookID: 1, Quantity: 1, UnitPrice: 10}}, "  ", MethodCashOnDelivery)
	require.ErrorIs(t, err, ErrEmptyAddress)

	_, err = NewOrder("ord-1", 7, []LineItem{{BookID: 1, Quantity: 0, UnitPrice: 10}}, "addr", MethodCashOnDelivery)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewOrder("ord-1", 7, []LineItem{{BookID: 1, Quantity: 1, UnitPrice: -5}}, "addr", MethodCashOnDelivery)
	require.ErrorIs(t, err, ErrInvalidUnitPrice)

	_, err = NewOrder("ord-1", 7, []LineItem{{BookID: 1, Quantity: 1, UnitPrice: 10}}, "addr", Method("paypal"))
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusShipped, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionTo_RejectsIllegalMove(t *testing.T) {
	order := newTestOrder(t, MethodCashOnDelivery)
	err := order.TransitionTo(StatusDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, StatusPending, order.Status)

	require.NoError(t, order.TransitionTo(StatusConfirmed))
	require.NoError(t, order.TransitionTo(StatusShipped))
	require.NoError(t, order.TransitionTo(StatusDelivered))
}

func TestTransitionTo_UnknownStatus(t *testing.T) {
	order := newTestOrder(t, MethodCashOnDelivery)
	err := order.TransitionTo(Status("misplaced"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestMarkPaid_IsTerminal(t *testing.T) {
	order := newTestOrder(t, MethodKhalti)
	require.NoError(t, order.MarkPaid())
	require.Equal(t, PaymentPaid, order.PaymentStatus)

	require.ErrorIs(t, order.MarkPaid(), ErrAlreadyPaid)
	require.ErrorIs(t, order.MarkPaymentFailed(), ErrAlreadyPaid)
	require.Equal(t, PaymentPaid, order.PaymentStatus)
}

func TestMarkPaymentFailed_ThenSettles(t *testing.T) {
	order := newTestOrder(t, MethodKhalti)
	require.NoError(t, order.MarkPaymentFailed())
	require.Equal(t, PaymentFailed, order.PaymentStatus)

	// A later verification may still settle a previously failed session.
	require.NoError(t, order.MarkPaid())
	require.Equal(t, PaymentPaid, order.PaymentStatus)
}

func TestAttachTransactionRef(t *testing.T) {
	cash := newTestOrder(t, MethodCashOnDelivery)
	require.ErrorIs(t, cash.AttachTransactionRef("pidx-1"), ErrNotWalletOrder)
	_, ok := cash.TransactionRef()
	require.False(t, ok)

	wallet := newTestOrder(t, MethodKhalti)
	_, ok = wallet.TransactionRef()
	require.False(t, ok)

	require.NoError(t, wallet.AttachTransactionRef("pidx-1"))
	ref, ok := wallet.TransactionRef()
	require.True(t, ok)
	require.Equal(t, "pidx-1", ref)

	require.ErrorIs(t, wallet.AttachTransactionRef("pidx-2"), ErrRefAlreadySet)
}

func TestClone_IsolatesItems(t *testing.T) {
	order := newTestOrder(t, MethodCashOnDelivery)
	clone := order.Clone()
	clone.Items[0].Quantity = 99
	clone.UpdatedAt = time.Now().Add(time.Hour)
	require.Equal(t, 2, order.Items[0].Quantity)
}
