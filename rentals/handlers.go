package rentals

import (
	"context"
	"net/http"
	"strconv"
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

// POST /api/rentals
func (h *Handlers) CreateRental(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

	rental, summary, err := h.svc.Create(ctx, caller, in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "data": rental, "summary": summary})
}

// GET /api/rentals
func (h *Handlers) GetRentals(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rentals, err := h.svc.ListMine(ctx, caller, r.URL.Query().Get("status"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(rentals), "data": rentals})
}

// GET /api/rentals/:id
func (h *Handlers) GetRental(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rental, remaining, err := h.svc.Get(ctx, caller, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": rental, "remainingMonths": remaining})
}

// POST /api/rentals/:id/extend
func (h *Handlers) RequestExtension(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	var body struct {
		AdditionalMonths int `json:"additionalMonths"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rental, err := h.svc.RequestExtension(ctx, caller, ps.ByName("id"), body.AdditionalMonths)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Extension request submitted successfully", "data": rental})
}

// POST /api/rentals/:id/early-closure
func (h *Handlers) RequestEarlyClosure(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rental, charges, err := h.svc.RequestEarlyClosure(ctx, caller, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Early closure request submitted",
		"data":    rental,
		"charges": charges,
	})
}

// PUT /api/rentals/:id/pause
func (h *Handlers) PauseRental(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.userAction(w, r, ps, h.svc.Pause, "Rental paused successfully")
}

// PUT /api/rentals/:id/resume
func (h *Handlers) ResumeRental(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.userAction(w, r, ps, h.svc.Resume, "Rental resumed successfully")
}

type userActionFn func(context.Context, utils.Caller, string) (*models.Booking, error)

func (h *Handlers) userAction(w http.ResponseWriter, r *http.Request, ps httprouter.Params, fn userActionFn, msg string) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rental, err := fn(ctx, caller, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": msg, "data": rental})
}

// GET /api/admin/rentals
func (h *Handlers) GetAllRentals(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	opts := utils.ParseQueryOptions(r, 20)
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rentals, total, err := h.svc.ListAll(ctx, AdminFilter{
		Status: opts.Status,
		City:   r.URL.Query().Get("city"),
		Page:   opts.Page,
		Limit:  opts.Limit,
	})
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"count":   len(rentals),
		"total":   total,
		"page":    opts.Page,
		"pages":   utils.Pages(total, opts.Limit),
		"data":    rentals,
	})
}

// PUT /api/admin/rentals/:id/status
func (h *Handlers) UpdateRentalStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in StatusUpdate
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rental, err := h.svc.UpdateStatus(ctx, ps.ByName("id"), in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Rental status updated", "data": rental})
}

// PUT /api/admin/rentals/:id/schedule-delivery
func (h *Handlers) ScheduleDelivery(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		DeliveryDate     string `json:"deliveryDate"`
		DeliveryTimeSlot string `json:"deliveryTimeSlot"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rental, err := h.svc.ScheduleDelivery(ctx, ps.ByName("id"), Schedule{Date: body.DeliveryDate, TimeSlot: body.DeliveryTimeSlot})
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Delivery scheduled successfully", "data": rental})
}

// PUT /api/admin/rentals/:id/schedule-pickup
func (h *Handlers) SchedulePickup(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		PickupDate     string `json:"pickupDate"`
		PickupTimeSlot string `json:"pickupTimeSlot"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rental, err := h.svc.SchedulePickup(ctx, ps.ByName("id"), Schedule{Date: body.PickupDate, TimeSlot: body.PickupTimeSlot})
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Pickup scheduled successfully", "data": rental})
}

// PUT /api/admin/rentals/:id/approve-extension/:requestIndex
func (h *Handlers) ApproveExtension(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	index, err := strconv.Atoi(ps.ByName("requestIndex"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Extension request not found")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rental, err := h.svc.ApproveExtension(ctx, ps.ByName("id"), index)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Extension request approved", "data": rental})
}
