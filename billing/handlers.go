package billing

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

func listFilter(r *http.Request) Filter {
	opts := utils.ParseQueryOptions(r, 20)
	q := r.URL.Query()
	return Filter{
		Status:  opts.Status,
		User:    q.Get("user"),
		Booking: q.Get("booking"),
		Page:    opts.Page,
		Limit:   opts.Limit,
	}
}

// POST /api/admin/billing
func (h *Handlers) GenerateBill(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in GenerateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	bill, err := h.svc.Generate(ctx, in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "data": bill})
}

// GET /api/billing
func (h *Handlers) GetMyBills(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	f := listFilter(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, total, err := h.svc.ListMine(ctx, caller, f)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	respondList(w, list, total, f)
}

// GET /api/admin/billing
func (h *Handlers) GetAllBills(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	f := listFilter(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, total, err := h.svc.ListAll(ctx, f)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	respondList(w, list, total, f)
}

func respondList(w http.ResponseWriter, list []models.MonthlyBilling, total int64, f Filter) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"count":   len(list),
		"total":   total,
		"page":    f.Page,
		"pages":   utils.Pages(total, f.Limit),
		"data":    list,
	})
}

// GET /api/billing/:id
func (h *Handlers) GetBill(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	bill, err := h.svc.Get(ctx, caller, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": bill})
}

// PUT /api/admin/billing/:id/pay
func (h *Handlers) MarkPaid(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in Payment
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	bill, err := h.svc.MarkPaid(ctx, ps.ByName("id"), in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Bill marked as paid", "data": bill})
}

// PUT /api/admin/billing/:id/waive
func (h *Handlers) WaiveBill(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in struct {
		Notes string `json:"notes"`
	}
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	bill, err := h.svc.Waive(ctx, ps.ByName("id"), in.Notes)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Bill waived", "data": bill})
}

// GET /api/billing/:id/invoice
func (h *Handlers) DownloadInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	bill, pdf, err := h.svc.Invoice(ctx, caller, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=invoice-"+bill.ID.Hex()+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
