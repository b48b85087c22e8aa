package rdx

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Event kinds published on RentalEventsChannel.
const (
	KindRental         = "rental"
	KindDelivery       = "delivery"
	KindServiceRequest = "service_request"
	KindPayment        = "payment"
)

// Event is a status change on a booking or one of its service requests.
type Event struct {
	Booking string    `json:"booking"`
	Kind    string    `json:"kind"`
	Action  string    `json:"action"`
	Status  string    `json:"status"`
	Request string    `json:"request,omitempty"`
	At      time.Time `json:"at"`
}

// PublishEvent sends ev on the rental events channel. Failures are logged
// and never reach the caller.
func (c *Client) PublishEvent(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if err := c.Publish(ctx, RentalEventsChannel, ev); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"booking": ev.Booking,
			"kind":    ev.Kind,
			"action":  ev.Action,
		}).Warn("publish rental event failed")
	}
}
