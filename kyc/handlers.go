package kyc

import (
	"context"
	"net/http"
	"time"

	"makeeasy/filemgr"
	"makeeasy/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	svc   *Service
	files *filemgr.Manager
}

func NewHandlers(svc *Service, files *filemgr.Manager) *Handlers {
	return &Handlers{svc: svc, files: files}
}

// readSubmission decodes the form fields and stores any uploaded documents.
// On error nothing is left on disk.
func (h *Handlers) readSubmission(r *http.Request) (Submission, []string, error) {
	var in Submission
	form, err := h.files.Form(r)
	if err != nil {
		return in, nil, err
	}
	if form == nil {
		return in, nil, utils.DecodeJSON(r, &in)
	}

	in = Submission{
		IDProofType:      r.FormValue("idProofType"),
		IDProofNumber:    r.FormValue("idProofNumber"),
		AddressProofType: r.FormValue("addressProofType"),
		AddressLine1:     r.FormValue("addressLine1"),
		AddressLine2:     r.FormValue("addressLine2"),
		City:             r.FormValue("city"),
		State:            r.FormValue("state"),
		Pincode:          r.FormValue("pincode"),
		Landmark:         r.FormValue("landmark"),
	}
	if in.IDProofDocument, err = h.files.SaveFormFile(form, "idProofDocument", filemgr.EntityKYC, filemgr.PicDocument, false); err != nil {
		return in, nil, filemgr.UploadError(err)
	}
	if in.AddressProofDocument, err = h.files.SaveFormFile(form, "addressProofDocument", filemgr.EntityKYC, filemgr.PicDocument, false); err != nil {
		h.files.Remove(in.IDProofDocument)
		return in, nil, filemgr.UploadError(err)
	}
	return in, []string{in.IDProofDocument, in.AddressProofDocument}, nil
}

// POST /api/kyc
func (h *Handlers) SubmitKYC(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	in, stored, err := h.readSubmission(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	k, err := h.svc.Submit(ctx, caller, in)
	if err != nil {
		h.files.Remove(stored...)
		logrus.WithError(err).WithField("user", caller.ID.Hex()).Info("kyc submission rejected")
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success": true,
		"message": "KYC documents submitted successfully. Verification usually takes 24-48 hours.",
		"data":    k,
	})
}

// GET /api/kyc
func (h *Handlers) GetKYCStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	k, err := h.svc.GetMine(ctx, caller)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": k})
}

// PUT /api/kyc
func (h *Handlers) UpdateKYC(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	in, stored, err := h.readSubmission(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	k, superseded, err := h.svc.Update(ctx, caller, in)
	if err != nil {
		h.files.Remove(stored...)
		utils.RespondWithAppError(w, err)
		return
	}
	h.files.Remove(superseded...)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "KYC documents updated successfully", "data": k})
}

// GET /api/admin/kyc
func (h *Handlers) GetAllKYC(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	opts := utils.ParseQueryOptions(r, 20)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, total, err := h.svc.ListAll(ctx, opts.Status, opts.Page, opts.Limit)
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

// GET /api/admin/kyc/stats
func (h *Handlers) GetKYCStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": stats})
}

// GET /api/admin/kyc/:id, where the id "stats" returns the status counts.
func (h *Handlers) GetKYCDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") == "stats" {
		h.GetKYCStats(w, r, ps)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	k, err := h.svc.Get(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": k})
}

// POST /api/admin/kyc/:id/verify
func (h *Handlers) VerifyKYC(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	k, err := h.svc.Verify(ctx, caller, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "KYC verified successfully", "data": k})
}

// POST /api/admin/kyc/:id/reject
func (h *Handlers) RejectKYC(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	k, err := h.svc.Reject(ctx, caller, ps.ByName("id"), body.Reason)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "KYC rejected", "data": k})
}

// PUT /api/admin/kyc/:id/review
func (h *Handlers) MarkUnderReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	k, err := h.svc.MarkUnderReview(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "KYC marked as under review", "data": k})
}
