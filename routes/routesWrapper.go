package routes

import (
	"makeeasy/auth"
	"makeeasy/billing"
	"makeeasy/bookings"
	"makeeasy/cart"
	"makeeasy/catalog"
	"makeeasy/kyc"
	"makeeasy/orders"
	"makeeasy/pay"
	"makeeasy/ratelim"
	"makeeasy/rentals"
	"makeeasy/servicerequests"

	"github.com/julienschmidt/httprouter"
)

// Handlers bundles every HTTP handler set the API mounts.
type Handlers struct {
	Auth            *auth.Handlers
	Catalog         *catalog.Handlers
	Cart            *cart.Handlers
	Orders          *orders.Handlers
	Bookings        *bookings.Handlers
	Rentals         *rentals.Handlers
	Live            *bookings.Hub
	KYC             *kyc.Handlers
	ServiceRequests *servicerequests.Handlers
	Billing         *billing.Handlers

	// Idempotency backs the Idempotency-Key header on order creation.
	Idempotency pay.IdempotencyStore
	UploadRoot  string
}

func RoutesWrapper(router *httprouter.Router, h Handlers, rateLimiter *ratelim.RateLimiter) {
	AddStaticRoutes(router, h.UploadRoot)
	AddAuthRoutes(router, h.Auth, rateLimiter)
	AddCatalogRoutes(router, h.Catalog, rateLimiter)
	AddContentRoutes(router, h.Catalog)
	AddCartRoutes(router, h.Cart)
	AddOrderRoutes(router, h.Orders, h.Idempotency, rateLimiter)
	AddBookingRoutes(router, h.Bookings)
	AddRentalRoutes(router, h.Rentals, h.Live, rateLimiter)
	AddKYCRoutes(router, h.KYC, rateLimiter)
	AddServiceRequestRoutes(router, h.ServiceRequests, rateLimiter)
	AddBillingRoutes(router, h.Billing)
}
