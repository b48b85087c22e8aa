package lifecycle

// RentalStatus is the lifecycle state of a rental booking.
type RentalStatus string

const (
	RentalPendingDelivery RentalStatus = "pending_delivery"
	RentalActive          RentalStatus = "active"
	RentalPaused          RentalStatus = "paused"
	RentalExtended        RentalStatus = "extended"
	RentalPendingPickup   RentalStatus = "pending_pickup"
	RentalReturned        RentalStatus = "returned"
	RentalClosed          RentalStatus = "closed"
)

var rentalStatuses = []RentalStatus{
	RentalPendingDelivery, RentalActive, RentalPaused, RentalExtended,
	RentalPendingPickup, RentalReturned, RentalClosed,
}

// Rental actions
const (
	RentalDeliver      Action = "deliver"
	RentalPause        Action = "pause"
	RentalResume       Action = "resume"
	RentalExtend       Action = "extend"
	RentalEarlyClosure Action = "request early closure of"
	RentalSchedulePick Action = "schedule pickup for"
	RentalReturn       Action = "return"
	RentalClose        Action = "close"
)

var rentalMachine = func() machine[RentalStatus] {
	open := []RentalStatus{
		RentalPendingDelivery, RentalActive, RentalPaused, RentalExtended, RentalPendingPickup, RentalReturned,
	}
	m := build[RentalStatus]("rental", map[Action]struct {
		from []RentalStatus
		to   RentalStatus
	}{
		RentalDeliver:      {[]RentalStatus{RentalPendingDelivery}, RentalActive},
		RentalPause:        {[]RentalStatus{RentalActive}, RentalPaused},
		RentalResume:       {[]RentalStatus{RentalPaused}, RentalActive},
		RentalExtend:       {open, RentalExtended},
		RentalEarlyClosure: {[]RentalStatus{RentalActive}, RentalPendingPickup},
		RentalSchedulePick: {open, RentalPendingPickup},
		RentalReturn:       {[]RentalStatus{RentalPendingPickup}, RentalReturned},
		RentalClose:        {[]RentalStatus{RentalReturned}, RentalClosed},
	})
	for _, s := range rentalStatuses {
		if s != RentalActive {
			m.reasons[edge[RentalStatus]{s, RentalPause}] = "Can only pause active rentals"
		}
		if s != RentalPaused {
			m.reasons[edge[RentalStatus]{s, RentalResume}] = "Can only resume paused rentals"
		}
	}
	return m
}()

// Transition applies action to s.
func (s RentalStatus) Transition(action Action) (RentalStatus, error) {
	return rentalMachine.transition(s, action)
}

// Can reports whether action is allowed from s.
func (s RentalStatus) Can(action Action) bool {
	return rentalMachine.allows(s, action)
}

// Valid reports whether s is a known rental status.
func (s RentalStatus) Valid() bool {
	for _, v := range rentalStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// AllowsServiceRequests reports whether a service request may be raised
// against a rental in this status.
func (s RentalStatus) AllowsServiceRequests() bool {
	return s == RentalActive || s == RentalPaused || s == RentalExtended
}
