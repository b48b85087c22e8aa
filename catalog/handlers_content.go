package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"makeeasy/models"
	"makeeasy/utils"

	"github.com/julienschmidt/httprouter"
)

// Banners

// GET /api/banners
func (h *Handlers) GetActiveBanners(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.ActiveBanners(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// GET /api/admin/banners
func (h *Handlers) GetAllBanners(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.AllBanners(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// GET /api/admin/banners/:id
func (h *Handlers) GetBanner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	getOne(w, r, ps, h.svc.Banners)
}

// POST /api/admin/banners
func (h *Handlers) CreateBanner(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	patch, stored, err := h.bannerPatch(w, r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	b := &models.Banner{IsActive: true}
	if err := json.Unmarshal(patch, b); err != nil {
		h.files.Remove(stored)
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.svc.Banners.Create(ctx, b); err != nil {
		h.files.Remove(stored)
		utils.RespondWithAppError(w, err)
		return
	}
	respond(w, http.StatusCreated, "Banner created successfully", b)
}

// PUT /api/admin/banners/:id
func (h *Handlers) UpdateBanner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	patch, stored, err := h.bannerPatch(w, r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	old, err := h.svc.Banners.Get(ctx, ps.ByName("id"))
	if err != nil {
		h.files.Remove(stored)
		utils.RespondWithAppError(w, err)
		return
	}
	b, err := h.svc.Banners.Update(ctx, ps.ByName("id"), patch)
	if err != nil {
		h.files.Remove(stored)
		utils.RespondWithAppError(w, err)
		return
	}
	if stored != "" && old.Image != b.Image {
		h.files.Remove(old.Image)
	}
	respond(w, http.StatusOK, "Banner updated successfully", b)
}

// DELETE /api/admin/banners/:id
func (h *Handlers) DeleteBanner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if b, ok := deleteOne(w, r, ps, h.svc.Banners, "Banner deleted successfully"); ok {
		h.files.Remove(b.Image)
	}
}

// PATCH /api/admin/banners/:id/toggle
func (h *Handlers) ToggleBanner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, err := h.svc.ToggleBanner(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	respond(w, http.StatusOK, "Banner status updated successfully", b)
}

// PUT /api/admin/banners-order
func (h *Handlers) ReorderBanners(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in struct {
		Banners []BannerPosition `json:"banners"`
	}
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.svc.ReorderBanners(ctx, in.Banners); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Banner order updated successfully"})
}

// Locations

// GET /api/locations
func (h *Handlers) GetActiveLocations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.ActiveLocations(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// GET /api/location-states
func (h *Handlers) GetStates(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	states, err := h.svc.States(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(states), "data": states})
}

// GET /api/location-states/:state
func (h *Handlers) GetLocationsByState(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.LocationsByState(ctx, ps.ByName("state"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// GET /api/admin/locations
func (h *Handlers) GetAllLocations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.AllLocations(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// GET /api/admin/locations/:id
func (h *Handlers) GetLocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	getOne(w, r, ps, h.svc.Locations)
}

// POST /api/admin/locations
func (h *Handlers) CreateLocation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	createOne(w, r, h.svc.Locations, &models.Location{IsActive: true}, "Location created successfully")
}

// PUT /api/admin/locations/:id
func (h *Handlers) UpdateLocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	updateOne(w, r, ps, h.svc.Locations, "Location updated successfully")
}

// DELETE /api/admin/locations/:id
func (h *Handlers) DeleteLocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	deleteOne(w, r, ps, h.svc.Locations, "Location deleted successfully")
}

// PATCH /api/admin/locations/:id/toggle
func (h *Handlers) ToggleLocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	l, err := h.svc.ToggleLocation(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	respond(w, http.StatusOK, "Location status updated successfully", l)
}
