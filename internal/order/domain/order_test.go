package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct {
		from, to Status
	}{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusProcessing},
		{StatusProcessing, StatusShipped},
		{StatusShipped, StatusDelivered},
	}
	for _, tt := range allowed {
		assert.True(t, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}

	denied := []struct {
		from, to Status
	}{
		{StatusPending, StatusProcessing},
		{StatusPending, StatusShipped},
		{StatusConfirmed, StatusCancelled},
		{StatusProcessing, StatusCancelled},
		{StatusShipped, StatusCancelled},
		{StatusDelivered, StatusCancelled},
		{StatusShipped, StatusConfirmed},
		{StatusDelivered, StatusPending},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusConfirmed},
	}
	for _, tt := range denied {
		assert.False(t, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTimelineIndex(t *testing.T) {
	assert.Equal(t, 0, StatusPending.TimelineIndex())
	assert.Equal(t, 1, StatusConfirmed.TimelineIndex())
	assert.Equal(t, 2, StatusProcessing.TimelineIndex())
	assert.Equal(t, 3, StatusShipped.TimelineIndex())
	assert.Equal(t, 4, StatusDelivered.TimelineIndex())
	assert.Equal(t, -1, StatusCancelled.TimelineIndex())
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus(Status("refunded")))
	assert.False(t, ValidStatus(Status("")))
}

func TestCanBeCancelledByCustomer(t *testing.T) {
	o := &Order{Status: StatusPending}
	assert.True(t, o.CanBeCancelledByCustomer())

	for _, s := range []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		o.Status = s
		assert.False(t, o.CanBeCancelledByCustomer(), "status=%s", s)
	}
}

func TestTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	o := &Order{Status: StatusPending}
	require.NoError(t, o.Transition(StatusConfirmed, now))
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Nil(t, o.CancelledAt)

	err := o.Transition(StatusDelivered, now)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, StatusConfirmed, o.Status)

	o = &Order{Status: StatusPending}
	require.NoError(t, o.Transition(StatusCancelled, now))
	assert.Equal(t, StatusCancelled, o.Status)
	require.NotNil(t, o.CancelledAt)
	assert.Equal(t, now, *o.CancelledAt)
}
