package masterdata

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-commerce/meridian/internal/platform/httpx"
	"github.com/meridian-commerce/meridian/internal/shared"
)

// Handler manages masterdata endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers masterdata routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/warehouses", h.listWarehouses)
	r.Post("/warehouses", h.createWarehouse)
	r.Get("/warehouses/{id}", h.getWarehouse)

	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{id}", h.getProduct)

	r.Get("/suppliers", h.listSuppliers)
	r.Post("/suppliers", h.createSupplier)
	r.Get("/suppliers/{id}", h.getSupplier)
}

type createWarehouseRequest struct {
	Code    string `json:"code" validate:"required,max=50"`
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address"`
}

type variantRequest struct {
	Code      string `json:"code" validate:"required,max=50"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

type createProductRequest struct {
	SKU      string           `json:"sku" validate:"required,max=50"`
	Name     string           `json:"name" validate:"required,max=200"`
	Category string           `json:"category"`
	Variants []variantRequest `json:"variants" validate:"dive"`
}

type createSupplierRequest struct {
	Code  string `json:"code" validate:"required,max=50"`
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=50"`
}

func (h *Handler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var req createWarehouseRequest
	if !h.decode(w, r, &req) {
		return
	}
	wh, err := h.service.CreateWarehouse(r.Context(), Warehouse{
		CompanyID: shared.CompanyFromContext(r.Context()),
		Code:      req.Code,
		Name:      req.Name,
		Address:   req.Address,
	})
	if err != nil {
		h.logger.Error("create warehouse", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": wh.ID, "code": wh.Code})
}

func (h *Handler) getWarehouse(w http.ResponseWriter, r *http.Request) {
	wh, err := h.service.GetWarehouse(r.Context(), shared.CompanyFromContext(r.Context()), pathID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id": wh.ID, "code": wh.Code, "name": wh.Name, "address": wh.Address, "is_active": wh.IsActive,
	})
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.service.ListWarehouses(r.Context(), shared.CompanyFromContext(r.Context()))
	if err != nil {
		h.logger.Error("list warehouses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(warehouses))
	for _, wh := range warehouses {
		out = append(out, map[string]any{"id": wh.ID, "code": wh.Code, "name": wh.Name})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	variants := make([]Variant, 0, len(req.Variants))
	for _, v := range req.Variants {
		variants = append(variants, Variant{Code: v.Code, Name: v.Name, IsDefault: v.IsDefault})
	}
	product, err := h.service.CreateProduct(r.Context(), Product{
		CompanyID: shared.CompanyFromContext(r.Context()),
		SKU:       req.SKU,
		Name:      req.Name,
		Category:  req.Category,
	}, variants)
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": product.ID, "sku": product.SKU})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, variants, err := h.service.GetProduct(r.Context(), shared.CompanyFromContext(r.Context()), pathID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	outVariants := make([]map[string]any, 0, len(variants))
	for _, v := range variants {
		outVariants = append(outVariants, map[string]any{
			"id": v.ID, "code": v.Code, "name": v.Name, "is_default": v.IsDefault,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id": product.ID, "sku": product.SKU, "name": product.Name, "category": product.Category, "variants": outVariants,
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	products, err := h.service.ListProducts(r.Context(), shared.CompanyFromContext(r.Context()), page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(products))
	for _, product := range products {
		out = append(out, map[string]any{"id": product.ID, "sku": product.SKU, "name": product.Name})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req createSupplierRequest
	if !h.decode(w, r, &req) {
		return
	}
	supplier, err := h.service.CreateSupplier(r.Context(), Supplier{
		CompanyID: shared.CompanyFromContext(r.Context()),
		Code:      req.Code,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		h.logger.Error("create supplier", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": supplier.ID, "code": supplier.Code})
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	supplier, err := h.service.GetSupplier(r.Context(), shared.CompanyFromContext(r.Context()), pathID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id": supplier.ID, "code": supplier.Code, "name": supplier.Name, "email": supplier.Email, "phone": supplier.Phone,
	})
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context(), shared.CompanyFromContext(r.Context()))
	if err != nil {
		h.logger.Error("list suppliers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(suppliers))
	for _, supplier := range suppliers {
		out = append(out, map[string]any{"id": supplier.ID, "code": supplier.Code, "name": supplier.Name})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return false
	}
	return true
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}
