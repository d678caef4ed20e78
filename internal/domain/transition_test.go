package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/backoffice/pkg/errors"
)

var allStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusSalesOrder,
	OrderStatusNoReply,
	OrderStatusCanceled,
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     OrderStatus
		to       OrderStatus
		canTrans bool
	}{
		{OrderStatusPending, OrderStatusSalesOrder, true},
		{OrderStatusPending, OrderStatusNoReply, true},
		{OrderStatusPending, OrderStatusCanceled, true},
		{OrderStatusNoReply, OrderStatusSalesOrder, true},
		{OrderStatusNoReply, OrderStatusCanceled, true},
		{OrderStatusSalesOrder, OrderStatusCanceled, true},
		{OrderStatusCanceled, OrderStatusSalesOrder, true},
		{OrderStatusNoReply, OrderStatusPending, false},
		{OrderStatusSalesOrder, OrderStatusPending, false},
		{OrderStatusCanceled, OrderStatusPending, false},
		{OrderStatusPending, OrderStatus("shipped"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrder_ApplyTransition(t *testing.T) {
	now := time.Date(2024, 5, 2, 14, 0, 0, 0, time.UTC)

	t.Run("same status is a no-op", func(t *testing.T) {
		o := newTestOrder(now)
		logs := len(o.Logs)

		changed, err := o.ApplyTransition(OrderStatusPending, TransitionContext{}, "agent", now)

		require.NoError(t, err)
		assert.False(t, changed)
		assert.Len(t, o.Logs, logs)
	})

	t.Run("pending is never re-entered", func(t *testing.T) {
		for _, status := range allStatuses {
			o := newTestOrder(now)
			o.Status = status

			changed, err := o.ApplyTransition(OrderStatusPending, TransitionContext{}, "agent", now)

			if status == OrderStatusPending {
				assert.NoError(t, err)
				assert.False(t, changed)
				continue
			}
			var target *errors.ErrInvalidStateTransition
			assert.ErrorAs(t, err, &target, "from %s", status)
			assert.Equal(t, status, o.Status)
		}
	})

	t.Run("no reply requires a call result", func(t *testing.T) {
		o := newTestOrder(now)
		logs := len(o.Logs)

		_, err := o.ApplyTransition(OrderStatusNoReply, TransitionContext{}, "agent", now)

		var target *errors.ErrValidation
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "call_result", target.Field)
		assert.Equal(t, OrderStatusPending, o.Status)
		assert.Empty(t, o.CallHistory)
		assert.Len(t, o.Logs, logs)
	})

	t.Run("no reply logs the first attempt", func(t *testing.T) {
		o := newTestOrder(now)

		changed, err := o.ApplyTransition(OrderStatusNoReply, TransitionContext{CallResult: CallResultBusy}, "agent", now)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, OrderStatusNoReply, o.Status)
		assert.Equal(t, CallResultBusy, o.CallResult)
		assert.Equal(t, map[int]int{1: 1}, o.CallHistory)
		last := o.Logs[len(o.Logs)-1]
		assert.Equal(t, LogTypeStatusUpdate, last.Type)
		assert.Contains(t, last.Message, "pending → no_reply")
		assert.Contains(t, last.Message, "busy")
	})

	t.Run("no reply keeps a higher attempt count", func(t *testing.T) {
		o := newTestOrder(now)
		o.Status = OrderStatusSalesOrder
		o.CallHistory = map[int]int{1: 4}

		_, err := o.ApplyTransition(OrderStatusNoReply, TransitionContext{CallResult: CallResultNoAnswer}, "agent", now)

		require.NoError(t, err)
		assert.Equal(t, 4, o.CallHistory[1])
	})

	t.Run("rejects sentinel call results", func(t *testing.T) {
		o := newTestOrder(now)

		_, err := o.ApplyTransition(OrderStatusNoReply, TransitionContext{CallResult: CallResultConfirmed}, "agent", now)

		var target *errors.ErrValidation
		assert.ErrorAs(t, err, &target)
	})

	t.Run("cancel requires a motif", func(t *testing.T) {
		o := newTestOrder(now)

		_, err := o.ApplyTransition(OrderStatusCanceled, TransitionContext{CallResult: CallResultBusy}, "agent", now)

		var target *errors.ErrValidation
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "cancellation_motif", target.Field)
	})

	t.Run("cancel overrides the call result", func(t *testing.T) {
		o := newTestOrder(now)
		o.CallResult = CallResultBusy

		_, err := o.ApplyTransition(OrderStatusCanceled, TransitionContext{CancellationMotif: MotifDuplicate}, "agent", now)

		require.NoError(t, err)
		assert.Equal(t, OrderStatusCanceled, o.Status)
		assert.Equal(t, CallResultCanceled, o.CallResult)
		assert.Equal(t, MotifDuplicate, o.CancellationMotif)
	})

	t.Run("confirm sets the confirmed marker", func(t *testing.T) {
		o := newTestOrder(now)
		logs := len(o.Logs)

		_, err := o.ApplyTransition(OrderStatusSalesOrder, TransitionContext{}, "agent", now)

		require.NoError(t, err)
		assert.Equal(t, CallResultConfirmed, o.CallResult)
		assert.Equal(t, FulfillmentToPick, o.FulfillmentStatus)
		assert.Len(t, o.Logs, logs+1)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		o := newTestOrder(now)

		_, err := o.ApplyTransition(OrderStatus("archived"), TransitionContext{}, "agent", now)

		var target *errors.ErrValidation
		assert.ErrorAs(t, err, &target)
	})
}

func TestOrder_ApplyFulfillment(t *testing.T) {
	now := time.Date(2024, 5, 2, 14, 0, 0, 0, time.UTC)

	confirmed := func() *Order {
		o := newTestOrder(now)
		_, err := o.ApplyTransition(OrderStatusSalesOrder, TransitionContext{}, "agent", now)
		require.NoError(t, err)
		return o
	}

	t.Run("picks a sales order", func(t *testing.T) {
		o := confirmed()

		changed, err := o.ApplyFulfillment(FulfillmentPicked, "picker", now)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, FulfillmentPicked, o.FulfillmentStatus)
		assert.Equal(t, LogTypeFulfillmentUpdate, o.Logs[len(o.Logs)-1].Type)
	})

	t.Run("cannot pick a pending order", func(t *testing.T) {
		o := newTestOrder(now)

		_, err := o.ApplyFulfillment(FulfillmentPicked, "picker", now)

		var target *errors.ErrInvalidStateTransition
		assert.ErrorAs(t, err, &target)
	})

	t.Run("cannot return an unpicked order", func(t *testing.T) {
		o := confirmed()

		_, err := o.ApplyFulfillment(FulfillmentReturned, "picker", now)

		var target *errors.ErrInvalidStateTransition
		assert.ErrorAs(t, err, &target)
	})

	t.Run("returning cancels the order in one entry", func(t *testing.T) {
		o := confirmed()
		_, err := o.ApplyFulfillment(FulfillmentPicked, "picker", now)
		require.NoError(t, err)
		logs := len(o.Logs)

		_, err = o.ApplyFulfillment(FulfillmentReturned, "picker", now)

		require.NoError(t, err)
		assert.Equal(t, FulfillmentReturned, o.FulfillmentStatus)
		assert.Equal(t, OrderStatusCanceled, o.Status)
		assert.Equal(t, CallResultCanceled, o.CallResult)
		assert.Equal(t, MotifReturned, o.CancellationMotif)
		require.Len(t, o.Logs, logs+1)
		assert.Contains(t, o.Logs[logs].Message, "sales_order → canceled")
	})

	t.Run("restoring a return re-confirms the order", func(t *testing.T) {
		o := confirmed()
		_, err := o.ApplyFulfillment(FulfillmentPicked, "picker", now)
		require.NoError(t, err)
		_, err = o.ApplyFulfillment(FulfillmentReturned, "picker", now)
		require.NoError(t, err)

		_, err = o.ApplyFulfillment(FulfillmentPicked, "picker", now)

		require.NoError(t, err)
		assert.Equal(t, FulfillmentPicked, o.FulfillmentStatus)
		assert.Equal(t, OrderStatusSalesOrder, o.Status)
		assert.Equal(t, CallResultConfirmed, o.CallResult)
		assert.Empty(t, o.CancellationMotif)
	})
}

func TestPurchaseOrder_Receive(t *testing.T) {
	now := time.Date(2024, 5, 2, 14, 0, 0, 0, time.UTC)

	t.Run("receives an in-progress order", func(t *testing.T) {
		po := &PurchaseOrder{Status: PurchaseOrderInProgress}

		require.NoError(t, po.Receive("clerk", now))
		assert.Equal(t, PurchaseOrderReceived, po.Status)
		require.NotNil(t, po.ReceivedAt)
		assert.Len(t, po.Logs, 1)
	})

	t.Run("rejects a draft", func(t *testing.T) {
		po := &PurchaseOrder{Status: PurchaseOrderDraft}

		err := po.Receive("clerk", now)

		var target *errors.ErrInvalidStateTransition
		assert.ErrorAs(t, err, &target)
		assert.Nil(t, po.ReceivedAt)
	})
}
