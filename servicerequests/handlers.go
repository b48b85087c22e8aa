package servicerequests

import (
	"context"
	"net/http"
	"time"

	"makeeasy/filemgr"
	"makeeasy/utils"

	"github.com/julienschmidt/httprouter"
)

const maxImages = 5

type Handlers struct {
	svc   *Service
	files *filemgr.Manager
}

func NewHandlers(svc *Service, files *filemgr.Manager) *Handlers {
	return &Handlers{svc: svc, files: files}
}

// readRequest fills fields from a multipart form or a JSON body. Images are
// only accepted on multipart requests.
func (h *Handlers) readRequest(r *http.Request, dst interface{}, fields func(get func(string) string)) ([]string, error) {
	form, err := h.files.Form(r)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, utils.DecodeJSON(r, dst)
	}
	fields(r.FormValue)
	images, err := h.files.SaveFormFiles(form, "images", filemgr.EntityServiceRequest, filemgr.PicPhoto, maxImages)
	if err != nil {
		return nil, filemgr.UploadError(err)
	}
	return images, nil
}

// POST /api/service-requests
func (h *Handlers) CreateServiceRequest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	var in CreateInput
	images, err := h.readRequest(r, &in, func(get func(string) string) {
		in.BookingID = get("bookingId")
		in.Type = get("type")
		in.Title = get("title")
		in.Description = get("description")
		in.Priority = get("priority")
	})
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	in.Images = images

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sr, err := h.svc.Create(ctx, caller, in)
	if err != nil {
		h.files.Remove(images...)
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success": true,
		"message": "Service request created successfully",
		"data":    sr,
	})
}

// GET /api/service-requests
func (h *Handlers) GetServiceRequests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	list, err := h.svc.ListMine(ctx, caller, Filter{Status: q.Get("status"), Type: q.Get("type")})
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// GET /api/service-requests/:id
func (h *Handlers) GetServiceRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sr, err := h.svc.Get(ctx, caller, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": sr})
}

// PUT /api/service-requests/:id
func (h *Handlers) UpdateServiceRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	var in UpdateInput
	images, err := h.readRequest(r, &in, func(get func(string) string) {
		in.Title = get("title")
		in.Description = get("description")
		in.Priority = get("priority")
	})
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	in.Images = images

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sr, err := h.svc.Update(ctx, caller, ps.ByName("id"), in)
	if err != nil {
		h.files.Remove(images...)
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Service request updated", "data": sr})
}

// DELETE /api/service-requests/:id
func (h *Handlers) CancelServiceRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sr, err := h.svc.Cancel(ctx, caller, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Service request cancelled", "data": sr})
}

// POST /api/service-requests/:id/rate
func (h *Handlers) RateServiceRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	var in Rating
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sr, err := h.svc.Rate(ctx, caller, ps.ByName("id"), in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Thank you for your feedback", "data": sr})
}

// GET /api/admin/service-requests
func (h *Handlers) GetAllServiceRequests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	opts := utils.ParseQueryOptions(r, 20)
	q := r.URL.Query()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, total, err := h.svc.ListAll(ctx, Filter{
		Status:   opts.Status,
		Type:     q.Get("type"),
		Priority: q.Get("priority"),
		Page:     opts.Page,
		Limit:    opts.Limit,
	})
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"count":   len(list),
		"total":   total,
		"page":    opts.Page,
		"pages":   utils.Pages(total, opts.Limit),
		"data":    list,
	})
}

// GET /api/admin/service-requests/stats
func (h *Handlers) GetServiceRequestStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": stats})
}

// POST /api/admin/service-requests/:id/assign
func (h *Handlers) AssignServiceRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		AssignedTo string `json:"assignedTo"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sr, err := h.svc.Assign(ctx, ps.ByName("id"), body.AssignedTo)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Service request assigned successfully", "data": sr})
}

// PUT /api/admin/service-requests/:id/schedule
func (h *Handlers) ScheduleVisit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in Visit
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sr, err := h.svc.ScheduleVisit(ctx, ps.ByName("id"), in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Visit scheduled successfully", "data": sr})
}

// PUT /api/admin/service-requests/:id/in-progress
func (h *Handlers) MarkInProgress(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sr, err := h.svc.MarkInProgress(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Service request marked as in progress", "data": sr})
}

// PUT /api/admin/service-requests/:id/resolve
func (h *Handlers) ResolveServiceRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Resolution string `json:"resolution"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sr, err := h.svc.Resolve(ctx, ps.ByName("id"), body.Resolution)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Service request resolved", "data": sr})
}

// PUT /api/admin/service-requests/:id/close
func (h *Handlers) CloseServiceRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sr, err := h.svc.Close(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Service request closed", "data": sr})
}
