package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"makeeasy/apperr"
	"makeeasy/filemgr"
	"makeeasy/models"
	"makeeasy/utils"

	"github.com/julienschmidt/httprouter"
)

const maxBody = 1 << 20

type Handlers struct {
	svc   *Service
	files *filemgr.Manager
}

func NewHandlers(svc *Service, files *filemgr.Manager) *Handlers {
	return &Handlers{svc: svc, files: files}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		return nil, apperr.BadRequest("Invalid JSON payload")
	}
	return raw, nil
}

func respond(w http.ResponseWriter, status int, msg string, data interface{}) {
	body := utils.M{"success": true, "data": data}
	if msg != "" {
		body["message"] = msg
	}
	utils.RespondWithJSON(w, status, body)
}

func getOne[T any, P Document[T]](w http.ResponseWriter, r *http.Request, ps httprouter.Params, res *Resource[T, P]) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	doc, err := res.Get(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	respond(w, http.StatusOK, "", doc)
}

// createOne decodes the body over doc, so doc carries the defaults.
func createOne[T any, P Document[T]](w http.ResponseWriter, r *http.Request, res *Resource[T, P], doc *T, msg string) {
	if err := utils.DecodeJSON(r, doc); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := res.Create(ctx, doc); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	respond(w, http.StatusCreated, msg, doc)
}

func updateOne[T any, P Document[T]](w http.ResponseWriter, r *http.Request, ps httprouter.Params, res *Resource[T, P], msg string) {
	patch, err := readBody(w, r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	doc, err := res.Update(ctx, ps.ByName("id"), patch)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	respond(w, http.StatusOK, msg, doc)
}

func deleteOne[T any, P Document[T]](w http.ResponseWriter, r *http.Request, ps httprouter.Params, res *Resource[T, P], msg string) (*T, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	doc, err := res.Delete(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return nil, false
	}
	respond(w, http.StatusOK, msg, struct{}{})
	return doc, true
}

// Categories

// GET /api/categories
func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.ListCategories(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// GET /api/categories/:id
func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	getOne(w, r, ps, h.svc.Categories)
}

// POST /api/categories
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	createOne(w, r, h.svc.Categories, &models.Category{}, "")
}

// PUT /api/categories/:id
func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	updateOne(w, r, ps, h.svc.Categories, "")
}

// DELETE /api/categories/:id
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	deleteOne(w, r, ps, h.svc.Categories, "")
}

// Products

// GET /api/products
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := ParseListQuery(r.URL.Query(), productFilters)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, total, err := h.svc.ListProducts(ctx, q)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":    true,
		"count":      len(list),
		"total":      total,
		"pagination": q.Pagination(total),
		"data":       list,
	})
}

// GET /api/products/:id, where the id "featured" lists featured products.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") == "featured" {
		h.GetFeaturedProducts(w, r, ps)
		return
	}
	getOne(w, r, ps, h.svc.Products)
}

// GET /api/products/featured
func (h *Handlers) GetFeaturedProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.FeaturedProducts(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// POST /api/products
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	createOne(w, r, h.svc.Products, &models.Product{Available: true}, "")
}

// PUT /api/products/:id
func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	updateOne(w, r, ps, h.svc.Products, "")
}

// DELETE /api/products/:id
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if p, ok := deleteOne(w, r, ps, h.svc.Products, ""); ok {
		h.files.Remove(p.Images...)
		h.files.Remove(p.ImageURL)
	}
}

// POST /api/products/:id/images
func (h *Handlers) UploadProductImages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	form, err := h.files.Form(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	urls, err := h.files.SaveFormFiles(form, "images", filemgr.EntityProduct, filemgr.PicPhoto, 5)
	if err != nil {
		utils.RespondWithAppError(w, filemgr.UploadError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := h.svc.AddProductImages(ctx, ps.ByName("id"), urls)
	if err != nil {
		h.files.Remove(urls...)
		utils.RespondWithAppError(w, err)
		return
	}
	respond(w, http.StatusOK, "Images uploaded successfully", p)
}

// Services

// GET /api/services
func (h *Handlers) GetServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := ParseListQuery(r.URL.Query(), serviceFilters)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, total, err := h.svc.ListServices(ctx, q)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":    true,
		"count":      len(list),
		"total":      total,
		"pagination": q.Pagination(total),
		"data":       list,
	})
}

// GET /api/services/:id, where the id "featured" lists featured services.
func (h *Handlers) GetService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") == "featured" {
		h.GetFeaturedServices(w, r, ps)
		return
	}
	getOne(w, r, ps, h.svc.Services)
}

// GET /api/services/featured
func (h *Handlers) GetFeaturedServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.FeaturedServices(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// POST /api/services
func (h *Handlers) CreateService(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	createOne(w, r, h.svc.Services, &models.Service{Available: true}, "")
}

// PUT /api/services/:id
func (h *Handlers) UpdateService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	updateOne(w, r, ps, h.svc.Services, "")
}

// DELETE /api/services/:id
func (h *Handlers) DeleteService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if sv, ok := deleteOne(w, r, ps, h.svc.Services, ""); ok {
		h.files.Remove(sv.Image)
	}
}

// POST /api/services/:id/image
func (h *Handlers) UploadServiceImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	form, err := h.files.Form(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	url, err := h.files.SaveFormFile(form, "image", filemgr.EntityService, filemgr.PicPhoto, true)
	if err != nil {
		utils.RespondWithAppError(w, filemgr.UploadError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sv, old, err := h.svc.SetServiceImage(ctx, ps.ByName("id"), url)
	if err != nil {
		h.files.Remove(url)
		utils.RespondWithAppError(w, err)
		return
	}
	h.files.Remove(old)
	respond(w, http.StatusOK, "Image uploaded successfully", sv)
}

// Add-ons

// GET /api/addons, where admins also see inactive add-ons.
func (h *Handlers) GetAddOns(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	load := h.svc.ActiveAddOns
	if utils.IsAdmin(r) {
		load = h.svc.AllAddOns
	}
	list, err := load(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// GET /api/addons/:id
func (h *Handlers) GetAddOn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	getOne(w, r, ps, h.svc.AddOns)
}

// POST /api/addons
func (h *Handlers) CreateAddOn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	createOne(w, r, h.svc.AddOns, &models.AddOn{Active: true}, "")
}

// PUT /api/addons/:id
func (h *Handlers) UpdateAddOn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	updateOne(w, r, ps, h.svc.AddOns, "")
}

// DELETE /api/addons/:id
func (h *Handlers) DeleteAddOn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	deleteOne(w, r, ps, h.svc.AddOns, "")
}

// About

// GET /api/about
func (h *Handlers) GetAbouts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.ListAbout(ctx)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "count": len(list), "data": list})
}

// GET /api/about/:id
func (h *Handlers) GetAbout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	getOne(w, r, ps, h.svc.About)
}

// POST /api/about
func (h *Handlers) CreateAbout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	createOne(w, r, h.svc.About, &models.About{}, "")
}

// PUT /api/about/:id
func (h *Handlers) UpdateAbout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	updateOne(w, r, ps, h.svc.About, "")
}

// DELETE /api/about/:id
func (h *Handlers) DeleteAbout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	deleteOne(w, r, ps, h.svc.About, "")
}

// bannerPatch reads a banner body. Multipart requests may carry the image
// as a file, which is stored and referenced from the patch.
func (h *Handlers) bannerPatch(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	form, err := h.files.Form(r)
	if err != nil {
		return nil, "", err
	}
	if form == nil {
		raw, err := readBody(w, r)
		return raw, "", err
	}

	fields := map[string]interface{}{}
	for _, key := range []string{"title", "subtitle", "description", "link", "buttonText", "image"} {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			fields[key] = v[0]
		}
	}
	if v, ok := form.Value["isActive"]; ok && len(v) > 0 {
		fields["isActive"] = utils.ParseBool(v[0])
	}
	if v, ok := form.Value["displayOrder"]; ok && len(v) > 0 {
		n, _ := strconv.Atoi(v[0])
		fields["displayOrder"] = n
	}

	stored, err := h.files.SaveFormFile(form, "image", filemgr.EntityBanner, filemgr.PicPhoto, false)
	if err != nil {
		return nil, "", filemgr.UploadError(err)
	}
	if stored != "" {
		fields["image"] = stored
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		h.files.Remove(stored)
		return nil, "", err
	}
	return raw, stored, nil
}
