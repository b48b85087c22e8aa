package lifecycle

// DeliveryStatus tracks getting a rented product to the customer.
type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "pending"
	DeliveryScheduled      DeliveryStatus = "scheduled"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
	DeliveryFailed         DeliveryStatus = "failed"
)

var deliveryStatuses = []DeliveryStatus{
	DeliveryPending, DeliveryScheduled, DeliveryOutForDelivery, DeliveryDelivered, DeliveryFailed,
}

// Delivery actions
const (
	DeliverySchedule Action = "schedule"
	DeliveryDispatch Action = "dispatch"
	DeliveryComplete Action = "deliver"
	DeliveryFail     Action = "fail"
)

var deliveryMachine = build[DeliveryStatus]("delivery", map[Action]struct {
	from []DeliveryStatus
	to   DeliveryStatus
}{
	DeliverySchedule: {[]DeliveryStatus{DeliveryPending, DeliveryScheduled, DeliveryFailed}, DeliveryScheduled},
	DeliveryDispatch: {[]DeliveryStatus{DeliveryScheduled}, DeliveryOutForDelivery},
	DeliveryComplete: {[]DeliveryStatus{DeliveryScheduled, DeliveryOutForDelivery}, DeliveryDelivered},
	DeliveryFail:     {[]DeliveryStatus{DeliveryScheduled, DeliveryOutForDelivery}, DeliveryFailed},
})

// Transition applies action to s.
func (s DeliveryStatus) Transition(action Action) (DeliveryStatus, error) {
	return deliveryMachine.transition(s, action)
}

// Valid reports whether s is a known delivery status.
func (s DeliveryStatus) Valid() bool {
	for _, v := range deliveryStatuses {
		if v == s {
			return true
		}
	}
	return false
}
