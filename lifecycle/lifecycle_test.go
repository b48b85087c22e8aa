package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRentalTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    RentalStatus
		action  Action
		want    RentalStatus
		wantErr string
	}{
		{"deliver", RentalPendingDelivery, RentalDeliver, RentalActive, ""},
		{"pause active", RentalActive, RentalPause, RentalPaused, ""},
		{"pause paused", RentalPaused, RentalPause, RentalPaused, "Can only pause active rentals"},
		{"pause pending delivery", RentalPendingDelivery, RentalPause, RentalPendingDelivery, "Can only pause active rentals"},
		{"resume paused", RentalPaused, RentalResume, RentalActive, ""},
		{"resume active", RentalActive, RentalResume, RentalActive, "Can only resume paused rentals"},
		{"extend paused", RentalPaused, RentalExtend, RentalExtended, ""},
		{"extend extended", RentalExtended, RentalExtend, RentalExtended, ""},
		{"extend closed", RentalClosed, RentalExtend, RentalClosed, `cannot extend rental in status "closed"`},
		{"early closure active", RentalActive, RentalEarlyClosure, RentalPendingPickup, ""},
		{"early closure paused", RentalPaused, RentalEarlyClosure, RentalPaused, `cannot request early closure of rental in status "paused"`},
		{"pickup extended", RentalExtended, RentalSchedulePick, RentalPendingPickup, ""},
		{"pickup closed", RentalClosed, RentalSchedulePick, RentalClosed, `cannot schedule pickup for rental in status "closed"`},
		{"return", RentalPendingPickup, RentalReturn, RentalReturned, ""},
		{"close returned", RentalReturned, RentalClose, RentalClosed, ""},
		{"close active", RentalActive, RentalClose, RentalActive, `cannot close rental in status "active"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Transition(tt.action)
			assert.Equal(t, tt.want, got)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)

			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, string(tt.from), te.From)
			assert.Equal(t, tt.action, te.Action)
		})
	}
}

func TestRentalStatusHelpers(t *testing.T) {
	assert.True(t, RentalActive.Valid())
	assert.False(t, RentalStatus("lost").Valid())

	assert.True(t, RentalActive.AllowsServiceRequests())
	assert.True(t, RentalPaused.AllowsServiceRequests())
	assert.True(t, RentalExtended.AllowsServiceRequests())
	assert.False(t, RentalPendingDelivery.AllowsServiceRequests())
	assert.False(t, RentalClosed.AllowsServiceRequests())

	assert.True(t, RentalActive.Can(RentalPause))
	assert.False(t, RentalPaused.Can(RentalPause))
}

func TestDeliveryTransitions(t *testing.T) {
	next, err := DeliveryPending.Transition(DeliverySchedule)
	require.NoError(t, err)
	assert.Equal(t, DeliveryScheduled, next)

	next, err = next.Transition(DeliverySchedule)
	require.NoError(t, err, "rescheduling is allowed")
	assert.Equal(t, DeliveryScheduled, next)

	next, err = next.Transition(DeliveryDispatch)
	require.NoError(t, err)
	assert.Equal(t, DeliveryOutForDelivery, next)

	failed, err := next.Transition(DeliveryFail)
	require.NoError(t, err)
	assert.Equal(t, DeliveryFailed, failed)

	again, err := failed.Transition(DeliverySchedule)
	require.NoError(t, err)
	assert.Equal(t, DeliveryScheduled, again)

	_, err = DeliveryDelivered.Transition(DeliverySchedule)
	assert.EqualError(t, err, `cannot schedule delivery in status "delivered"`)

	assert.True(t, DeliveryFailed.Valid())
	assert.False(t, DeliveryStatus("lost").Valid())
}

func TestServiceRequestTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    ServiceRequestStatus
		action  Action
		want    ServiceRequestStatus
		wantErr string
	}{
		{"assign open", RequestOpen, RequestAssign, RequestAssigned, ""},
		{"reassign", RequestAssigned, RequestAssign, RequestAssigned, ""},
		{"assign closed", RequestClosed, RequestAssign, RequestClosed, `cannot assign service request in status "closed"`},
		{"visit open", RequestOpen, RequestScheduleVisit, RequestInProgress, ""},
		{"start open", RequestOpen, RequestStart, RequestOpen, "Please assign the request first"},
		{"start assigned", RequestAssigned, RequestStart, RequestInProgress, ""},
		{"start cancelled", RequestCancelled, RequestStart, RequestCancelled, `cannot start service request in status "cancelled"`},
		{"resolve in progress", RequestInProgress, RequestResolve, RequestResolved, ""},
		{"close resolved", RequestResolved, RequestClose, RequestClosed, ""},
		{"close open", RequestOpen, RequestClose, RequestOpen, "Can only close resolved service requests"},
		{"cancel open", RequestOpen, RequestCancel, RequestCancelled, ""},
		{"cancel assigned", RequestAssigned, RequestCancel, RequestCancelled, ""},
		{"cancel in progress", RequestInProgress, RequestCancel, RequestInProgress, "Can only cancel open or assigned service requests"},
		{"rate resolved", RequestResolved, RequestRate, RequestResolved, ""},
		{"rate closed", RequestClosed, RequestRate, RequestClosed, "Can only rate resolved service requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Transition(tt.action)
			assert.Equal(t, tt.want, got)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}

	assert.True(t, RequestClosed.Terminal())
	assert.True(t, RequestCancelled.Terminal())
	assert.False(t, RequestResolved.Terminal())
}
