package bookings

import (
	"context"
	"net/http"
	"time"

	"makeeasy/models"
	"makeeasy/utils"

	"github.com/julienschmidt/httprouter"
)

type Handlers struct {
	svc *Service
}

func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// GET /api/bookings
func (h *Handlers) GetBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.List(ctx, caller)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// GET /api/bookings/:id
func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, err := h.svc.Get(ctx, caller, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": b})
}

// POST /api/bookings
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	var in CreateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, err := h.svc.Create(ctx, caller, in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "data": b})
}

// PUT /api/bookings/:id
func (h *Handlers) UpdateBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	var in UpdateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, err := h.svc.Update(ctx, caller, ps.ByName("id"), in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": b})
}

// DELETE /api/bookings/:id
func (h *Handlers) DeleteBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.svc.Delete(ctx, caller, ps.ByName("id")); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": utils.M{}})
}

// PUT /api/bookings/:id/payment
func (h *Handlers) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, err := h.svc.UpdatePaymentStatus(ctx, ps.ByName("id"), body.PaymentStatus)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": b})
}

// PUT /api/bookings/:id/status
func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		BookingStatus models.BookingStatus `json:"bookingStatus"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, err := h.svc.UpdateBookingStatus(ctx, ps.ByName("id"), body.BookingStatus)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": b})
}
