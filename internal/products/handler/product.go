package handler

import (
	"net/http"

	"rentals/internal/products/service"
	httputil "rentals/pkg/http"
	"rentals/pkg/logger"
	"rentals/pkg/middleware"
	"rentals/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ProductHandler struct {
	service  service.ProductService
	verifier middleware.TokenVerifier
	log      *logger.Logger
}

func NewProductHandler(service service.ProductService, verifier middleware.TokenVerifier, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		verifier: verifier,
		log:      log,
	}
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var input model.ProductInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}

	product, err := h.service.Create(r.Context(), identity.UserID, &input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, product)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	product, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, product)
}

func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	products, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, products, total, limit, offset)
}

func (h *ProductHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	h.listByOwner(w, r, identity.UserID)
}

func (h *ProductHandler) ListByUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.listByOwner(w, r, ps.ByName("userId"))
}

func (h *ProductHandler) listByOwner(w http.ResponseWriter, r *http.Request, ownerID string) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	products, total, err := h.service.ListByOwner(r.Context(), ownerID, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, products, total, limit, offset)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var update model.ProductUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	product, err := h.service.Update(r.Context(), ps.ByName("id"), identity.UserID, &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	if err := h.service.Delete(r.Context(), ps.ByName("id"), identity.UserID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ProductHandler) RegisterRoutes(router *httprouter.Router) {
	anyUser := middleware.Protect(h.verifier, h.log)
	lender := middleware.Protect(h.verifier, h.log, model.RoleLender)

	router.POST("/api/v1/products", lender(h.Create))
	router.GET("/api/v1/products", anyUser(h.GetAll))
	router.GET("/api/v1/products/mine", anyUser(h.ListMine))
	router.GET("/api/v1/products/user/:userId", anyUser(h.ListByUser))
	router.GET("/api/v1/products/id/:id", anyUser(h.GetByID))
	router.PATCH("/api/v1/products/id/:id", lender(h.Update))
	router.DELETE("/api/v1/products/id/:id", lender(h.Delete))
}
