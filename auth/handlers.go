package auth

import (
	"context"
	"net/http"
	"time"

	"makeeasy/filemgr"
	"makeeasy/middleware"
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

func sendSession(w http.ResponseWriter, status int, s *Session) {
	utils.RespondWithJSON(w, status, utils.M{"success": true, "token": s.Token, "data": s.User})
}

// POST /api/auth/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in RegisterInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	s, err := h.svc.Register(ctx, in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	logrus.WithField("user", s.User.ID.Hex()).Info("user registered")
	sendSession(w, http.StatusCreated, s)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request, adminOnly bool) {
	var in credentials
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	s, err := h.svc.Login(ctx, in.Email, in.Password, adminOnly)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	sendSession(w, http.StatusOK, s)
}

// POST /api/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.login(w, r, false)
}

// POST /api/auth/admin/login
func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.login(w, r, true)
}

// POST /api/auth/logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if token, err := middleware.BearerToken(r); err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.svc.Logout(ctx, token); err != nil {
			logrus.WithError(err).Warn("token revocation failed")
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "none",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": struct{}{}})
}

// GET /api/auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	u, err := h.svc.Me(ctx, caller)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": u})
}

// PUT /api/auth/updatedetails
func (h *Handlers) UpdateDetails(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	var in DetailsInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	u, err := h.svc.UpdateDetails(ctx, caller, in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": u})
}

// PUT /api/auth/updatepassword
func (h *Handlers) UpdatePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	var in struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	s, err := h.svc.UpdatePassword(ctx, caller, in.CurrentPassword, in.NewPassword)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	sendSession(w, http.StatusOK, s)
}

// POST /api/auth/upload-profile-image
func (h *Handlers) UploadProfileImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	form, err := h.files.Form(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if form == nil || len(form.File["profileImage"]) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Please upload an image file")
		return
	}
	url, err := h.files.SaveFormFile(form, "profileImage", filemgr.EntityUser, filemgr.PicPhoto, true)
	if err != nil {
		utils.RespondWithAppError(w, filemgr.UploadError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	u, old, err := h.svc.SetProfileImage(ctx, caller, url)
	if err != nil {
		h.files.Remove(url)
		utils.RespondWithAppError(w, err)
		return
	}
	h.files.Remove(old)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"data":    utils.M{"profileImage": url, "user": u},
	})
}

// POST /api/auth/forgotpassword
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in struct {
		Email string `json:"email"`
	}
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.svc.ForgotPassword(ctx, in.Email); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": "Password reset request received"})
}
