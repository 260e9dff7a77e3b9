package handler

import (
	"net/http"

	"rentals/internal/bookings/service"
	apperrors "rentals/pkg/errors"
	httputil "rentals/pkg/http"
	"rentals/pkg/logger"
	"rentals/pkg/middleware"
	"rentals/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service  service.BookingService
	verifier middleware.TokenVerifier
	log      *logger.Logger
}

func NewBookingHandler(service service.BookingService, verifier middleware.TokenVerifier, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service:  service,
		verifier: verifier,
		log:      log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := h.service.TryAdmitBooking(r.Context(), identity.UserID, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, booking)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	booking, err := h.service.GetBooking(r.Context(), ps.ByName("id"), identity.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bookings, total, err := h.service.ListMyBookings(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, bookings, total, limit, offset)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	if err := h.service.TryCancelBooking(r.Context(), ps.ByName("id"), identity.UserID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) ProductAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	productID := ps.ByName("productId")
	if productID == "" {
		httputil.WriteError(w, apperrors.InvalidInput("Product ID cannot be empty"))
		return
	}

	intervals, err := h.service.ListProductAvailability(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, intervals)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	anyUser := middleware.Protect(h.verifier, h.log)
	borrower := middleware.Protect(h.verifier, h.log, model.RoleBorrower)

	router.POST("/api/v1/bookings", borrower(h.Create))
	router.GET("/api/v1/bookings/mine", anyUser(h.ListMine))
	router.GET("/api/v1/bookings/id/:id", anyUser(h.GetByID))
	router.DELETE("/api/v1/bookings/id/:id", borrower(h.Cancel))
	router.GET("/api/v1/bookings/product/:productId", anyUser(h.ProductAvailability))
}
