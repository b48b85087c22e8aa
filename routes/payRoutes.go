package routes

import (
	"makeeasy/billing"
	"makeeasy/middleware"
	"makeeasy/orders"
	"makeeasy/pay"
	"makeeasy/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddOrderRoutes(router *httprouter.Router, h *orders.Handlers, idem pay.IdempotencyStore, rateLimiter *ratelim.RateLimiter) {
	create := middleware.Chain(rateLimiter.Limit, middleware.Authenticate, pay.Idempotent(idem))
	router.POST("/api/orders", create(h.CreateOrder))
	router.POST("/api/orders/verify-payment", rateLimiter.Limit(middleware.Authenticate(h.VerifyPayment)))
	router.GET("/api/orders", middleware.Authenticate(h.GetOrders))
	router.GET("/api/orders/:id", middleware.Authenticate(h.GetOrder))
	router.PUT("/api/orders/:id", middleware.Authenticate(h.UpdateOrder))
}

func AddBillingRoutes(router *httprouter.Router, h *billing.Handlers) {
	router.GET("/api/billing", middleware.Authenticate(h.GetMyBills))
	router.GET("/api/billing/:id", middleware.Authenticate(h.GetBill))
	router.GET("/api/billing/:id/invoice", middleware.Authenticate(h.DownloadInvoice))

	router.POST("/api/admin/billing", adminOnly(h.GenerateBill))
	router.GET("/api/admin/billing", adminOnly(h.GetAllBills))
	router.PUT("/api/admin/billing/:id/pay", adminOnly(h.MarkPaid))
	router.PUT("/api/admin/billing/:id/waive", adminOnly(h.WaiveBill))
}
