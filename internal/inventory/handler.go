package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-commerce/meridian/internal/platform/httpx"
	"github.com/meridian-commerce/meridian/internal/shared"
	"github.com/meridian-commerce/meridian/internal/warehouse"
)

// Handler serves the unified stock mutation surface.
type Handler struct {
	logger   *slog.Logger
	facade   *Facade
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, facade *Facade) *Handler {
	return &Handler{logger: logger, facade: facade, validate: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/stock/adjust", h.adjust)
	r.Post("/stock/reserve", h.reserve)
	r.Post("/stock/release", h.release)
	r.Post("/stock/restore", h.restore)
}

type stockRefRequest struct {
	WarehouseID int64 `json:"warehouse_id" validate:"required,gt=0"`
	ProductID   int64 `json:"product_id" validate:"required,gt=0"`
	VariantID   int64 `json:"variant_id" validate:"gte=0"`
}

type adjustRequest struct {
	stockRefRequest
	Delta         int64  `json:"delta" validate:"required"`
	AllowNegative bool   `json:"allow_negative"`
	Reason        string `json:"reason"`
}

type reservationRequest struct {
	stockRefRequest
	Quantity              int64 `json:"quantity" validate:"required,gt=0"`
	AllowNegativeReserved bool  `json:"allow_negative_reserved"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if !h.decode(w, r, &req) {
		return
	}
	available, err := h.facade.AdjustStock(r.Context(), h.ref(r, req.stockRefRequest), req.Delta, req.AllowNegative, req.Reason)
	if err != nil {
		h.logger.Error("adjust stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"available_quantity": available})
}

func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := h.facade.Reserve(r.Context(), h.ref(r, req.stockRefRequest), req.Quantity)
	if err != nil {
		h.logger.Error("reserve stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.respondRecord(w, record)
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := h.facade.Release(r.Context(), h.ref(r, req.stockRefRequest), req.Quantity, req.AllowNegativeReserved)
	if err != nil {
		h.logger.Error("release stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.respondRecord(w, record)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := h.facade.Restore(r.Context(), h.ref(r, req.stockRefRequest), req.Quantity)
	if err != nil {
		h.logger.Error("restore stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.respondRecord(w, record)
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

func (h *Handler) ref(r *http.Request, req stockRefRequest) StockRef {
	return StockRef{
		CompanyID:   shared.CompanyFromContext(r.Context()),
		WarehouseID: req.WarehouseID,
		ProductID:   req.ProductID,
		VariantID:   req.VariantID,
	}
}

func (h *Handler) respondRecord(w http.ResponseWriter, record warehouse.StockRecord) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"warehouse_id":       record.Key.WarehouseID,
		"product_id":         record.Key.ProductID,
		"variant_id":         record.Key.VariantID,
		"available_quantity": record.Available,
		"reserved_quantity":  record.Reserved,
	})
}
