package handler

import (
	"net/http"

	"rentals/internal/users/service"
	httputil "rentals/pkg/http"
	"rentals/pkg/logger"
	"rentals/pkg/middleware"
	"rentals/pkg/model"
	"rentals/pkg/sms"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service  service.UserService
	verifier middleware.TokenVerifier
	log      *logger.Logger
}

func NewUserHandler(service service.UserService, verifier middleware.TokenVerifier, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service:  service,
		verifier: verifier,
		log:      log,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.Registration
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Register(r.Context(), &input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, result)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var credentials model.Credentials
	if err := httputil.DecodeJSON(r, &credentials); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), &credentials)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, result)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	user, err := h.service.Me(r.Context(), identity.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, user)
}

func (h *UserHandler) SendPhoneCode(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	if err := h.service.SendPhoneCode(r.Context(), identity.UserID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, httputil.SuccessResponse{
		Data: &model.PhoneVerification{Status: string(sms.Pending)},
	})
}

func (h *UserHandler) VerifyPhone(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var input model.PhoneCode
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}

	verdict, err := h.service.CheckPhoneCode(r.Context(), identity.UserID, &input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, &model.PhoneVerification{
		Status:        string(verdict),
		PhoneVerified: verdict == sms.Approved,
	})
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	anyUser := middleware.Protect(h.verifier, h.log)

	router.POST("/api/v1/users/register", h.Register)
	router.POST("/api/v1/users/login", h.Login)
	router.GET("/api/v1/users/me", anyUser(h.Me))
	router.POST("/api/v1/users/me/phone/send-code", anyUser(h.SendPhoneCode))
	router.POST("/api/v1/users/me/phone/verify", anyUser(h.VerifyPhone))
}
