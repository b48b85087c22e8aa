package routes

import (
	"net/http"

	"makeeasy/auth"
	"makeeasy/bookings"
	"makeeasy/cart"
	"makeeasy/catalog"
	"makeeasy/filemgr"
	"makeeasy/kyc"
	"makeeasy/middleware"
	"makeeasy/ratelim"
	"makeeasy/rentals"
	"makeeasy/servicerequests"

	"github.com/julienschmidt/httprouter"
)

var adminOnly = middleware.Chain(middleware.Authenticate, middleware.RequireRoles("admin"))

func AddStaticRoutes(router *httprouter.Router, root string) {
	router.ServeFiles(filemgr.URLPrefix+"/*filepath", http.Dir(root))
}

func AddAuthRoutes(router *httprouter.Router, h *auth.Handlers, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rateLimiter.Limit(h.Register))
	router.POST("/api/auth/login", rateLimiter.Limit(h.Login))
	router.POST("/api/auth/admin/login", rateLimiter.Limit(h.AdminLogin))
	router.POST("/api/auth/forgotpassword", rateLimiter.Limit(h.ForgotPassword))
	router.POST("/api/auth/logout", middleware.Authenticate(h.Logout))
	router.GET("/api/auth/me", middleware.Authenticate(h.Me))
	router.PUT("/api/auth/updatedetails", middleware.Authenticate(h.UpdateDetails))
	router.PUT("/api/auth/updatepassword", rateLimiter.Limit(middleware.Authenticate(h.UpdatePassword)))
	router.POST("/api/auth/upload-profile-image", rateLimiter.Limit(middleware.Authenticate(h.UploadProfileImage)))
}

// AddCatalogRoutes mounts categories, products, services and add-ons.
// Reads are public; writes are admin only.
func AddCatalogRoutes(router *httprouter.Router, h *catalog.Handlers, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/categories", h.GetCategories)
	router.GET("/api/categories/:id", h.GetCategory)
	router.POST("/api/categories", adminOnly(h.CreateCategory))
	router.PUT("/api/categories/:id", adminOnly(h.UpdateCategory))
	router.DELETE("/api/categories/:id", adminOnly(h.DeleteCategory))

	// GET /api/products/featured is served by GetProduct
	router.GET("/api/products", h.GetProducts)
	router.GET("/api/products/:id", h.GetProduct)
	router.POST("/api/products", adminOnly(h.CreateProduct))
	router.PUT("/api/products/:id", adminOnly(h.UpdateProduct))
	router.DELETE("/api/products/:id", adminOnly(h.DeleteProduct))
	router.POST("/api/products/:id/images", rateLimiter.Limit(adminOnly(h.UploadProductImages)))

	router.GET("/api/services", h.GetServices)
	router.GET("/api/services/:id", h.GetService)
	router.POST("/api/services", adminOnly(h.CreateService))
	router.PUT("/api/services/:id", adminOnly(h.UpdateService))
	router.DELETE("/api/services/:id", adminOnly(h.DeleteService))
	router.POST("/api/services/:id/image", rateLimiter.Limit(adminOnly(h.UploadServiceImage)))

	router.GET("/api/addons", middleware.OptionalAuth(h.GetAddOns))
	router.GET("/api/addons/:id", h.GetAddOn)
	router.POST("/api/addons", adminOnly(h.CreateAddOn))
	router.PUT("/api/addons/:id", adminOnly(h.UpdateAddOn))
	router.DELETE("/api/addons/:id", adminOnly(h.DeleteAddOn))
}

func AddContentRoutes(router *httprouter.Router, h *catalog.Handlers) {
	router.GET("/api/about", h.GetAbouts)
	router.GET("/api/about/:id", h.GetAbout)
	router.POST("/api/about", adminOnly(h.CreateAbout))
	router.PUT("/api/about/:id", adminOnly(h.UpdateAbout))
	router.DELETE("/api/about/:id", adminOnly(h.DeleteAbout))

	router.GET("/api/banners", h.GetActiveBanners)
	router.GET("/api/admin/banners", adminOnly(h.GetAllBanners))
	router.GET("/api/admin/banners/:id", adminOnly(h.GetBanner))
	router.POST("/api/admin/banners", adminOnly(h.CreateBanner))
	router.PUT("/api/admin/banners/:id", adminOnly(h.UpdateBanner))
	router.DELETE("/api/admin/banners/:id", adminOnly(h.DeleteBanner))
	router.PATCH("/api/admin/banners/:id/toggle", adminOnly(h.ToggleBanner))
	router.PUT("/api/admin/banners-order", adminOnly(h.ReorderBanners))

	router.GET("/api/locations", h.GetActiveLocations)
	router.GET("/api/location-states", h.GetStates)
	router.GET("/api/location-states/:state", h.GetLocationsByState)
	router.GET("/api/admin/locations", adminOnly(h.GetAllLocations))
	router.GET("/api/admin/locations/:id", adminOnly(h.GetLocation))
	router.POST("/api/admin/locations", adminOnly(h.CreateLocation))
	router.PUT("/api/admin/locations/:id", adminOnly(h.UpdateLocation))
	router.DELETE("/api/admin/locations/:id", adminOnly(h.DeleteLocation))
	router.PATCH("/api/admin/locations/:id/toggle", adminOnly(h.ToggleLocation))
}

func AddCartRoutes(router *httprouter.Router, h *cart.Handlers) {
	router.GET("/api/cart", middleware.Authenticate(h.GetCart))
	router.POST("/api/cart", middleware.Authenticate(h.AddToCart))
	router.PUT("/api/cart/:itemId", middleware.Authenticate(h.UpdateCartItem))
	router.DELETE("/api/cart/:itemId", middleware.Authenticate(h.RemoveFromCart))
	router.DELETE("/api/cart", middleware.Authenticate(h.ClearCart))
}

func AddBookingRoutes(router *httprouter.Router, h *bookings.Handlers) {
	router.GET("/api/bookings", middleware.Authenticate(h.GetBookings))
	router.GET("/api/bookings/:id", middleware.Authenticate(h.GetBooking))
	router.POST("/api/bookings", middleware.Authenticate(h.CreateBooking))
	router.PUT("/api/bookings/:id", middleware.Authenticate(h.UpdateBooking))
	router.DELETE("/api/bookings/:id", middleware.Authenticate(h.DeleteBooking))
	router.PUT("/api/bookings/:id/payment", adminOnly(h.UpdatePaymentStatus))
	router.PUT("/api/bookings/:id/status", adminOnly(h.UpdateBookingStatus))
}

func AddRentalRoutes(router *httprouter.Router, h *rentals.Handlers, hub *bookings.Hub, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/rentals", rateLimiter.Limit(middleware.Authenticate(h.CreateRental)))
	router.GET("/api/rentals", middleware.Authenticate(h.GetRentals))
	router.GET("/api/rentals/:id", middleware.Authenticate(h.GetRental))
	router.GET("/api/rentals/:id/live", middleware.Authenticate(hub.HandleWS))
	router.POST("/api/rentals/:id/extend", middleware.Authenticate(h.RequestExtension))
	router.POST("/api/rentals/:id/early-closure", middleware.Authenticate(h.RequestEarlyClosure))
	router.PUT("/api/rentals/:id/pause", middleware.Authenticate(h.PauseRental))
	router.PUT("/api/rentals/:id/resume", middleware.Authenticate(h.ResumeRental))

	router.GET("/api/admin/rentals", adminOnly(h.GetAllRentals))
	router.PUT("/api/admin/rentals/:id/status", adminOnly(h.UpdateRentalStatus))
	router.PUT("/api/admin/rentals/:id/schedule-delivery", adminOnly(h.ScheduleDelivery))
	router.PUT("/api/admin/rentals/:id/schedule-pickup", adminOnly(h.SchedulePickup))
	router.PUT("/api/admin/rentals/:id/approve-extension/:requestIndex", adminOnly(h.ApproveExtension))
}

func AddKYCRoutes(router *httprouter.Router, h *kyc.Handlers, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/kyc", rateLimiter.Limit(middleware.Authenticate(h.SubmitKYC)))
	router.GET("/api/kyc", middleware.Authenticate(h.GetKYCStatus))
	router.PUT("/api/kyc", rateLimiter.Limit(middleware.Authenticate(h.UpdateKYC)))

	// GET /api/admin/kyc/stats is served by GetKYCDetails
	router.GET("/api/admin/kyc", adminOnly(h.GetAllKYC))
	router.GET("/api/admin/kyc/:id", adminOnly(h.GetKYCDetails))
	router.POST("/api/admin/kyc/:id/verify", adminOnly(h.VerifyKYC))
	router.POST("/api/admin/kyc/:id/reject", adminOnly(h.RejectKYC))
	router.PUT("/api/admin/kyc/:id/review", adminOnly(h.MarkUnderReview))
}

func AddServiceRequestRoutes(router *httprouter.Router, h *servicerequests.Handlers, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/service-requests", rateLimiter.Limit(middleware.Authenticate(h.CreateServiceRequest)))
	router.GET("/api/service-requests", middleware.Authenticate(h.GetServiceRequests))
	router.GET("/api/service-requests/:id", middleware.Authenticate(h.GetServiceRequest))
	router.PUT("/api/service-requests/:id", middleware.Authenticate(h.UpdateServiceRequest))
	router.DELETE("/api/service-requests/:id", middleware.Authenticate(h.CancelServiceRequest))
	router.POST("/api/service-requests/:id/rate", middleware.Authenticate(h.RateServiceRequest))

	router.GET("/api/admin/service-requests", adminOnly(h.GetAllServiceRequests))
	router.GET("/api/admin/service-requests/stats", adminOnly(h.GetServiceRequestStats))
	router.POST("/api/admin/service-requests/:id/assign", adminOnly(h.AssignServiceRequest))
	router.PUT("/api/admin/service-requests/:id/schedule", adminOnly(h.ScheduleVisit))
	router.PUT("/api/admin/service-requests/:id/in-progress", adminOnly(h.MarkInProgress))
	router.PUT("/api/admin/service-requests/:id/resolve", adminOnly(h.ResolveServiceRequest))
	router.PUT("/api/admin/service-requests/:id/close", adminOnly(h.CloseServiceRequest))
}
