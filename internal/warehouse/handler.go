package warehouse

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-commerce/meridian/internal/platform/httpx"
	"github.com/meridian-commerce/meridian/internal/shared"
)

// Handler serves the read-only stock surface. Mutations go through the
// inventory facade.
type Handler struct {
	logger *slog.Logger
	ledger *Ledger
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, ledger *Ledger) *Handler {
	return &Handler{logger: logger, ledger: ledger}
}

// MountRoutes registers warehouse stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock", h.getStock)
	r.Get("/{warehouseID}/stock", h.listStock)
}

type stockResponse struct {
	WarehouseID int64  `json:"warehouse_id"`
	ProductID   int64  `json:"product_id"`
	VariantID   int64  `json:"variant_id"`
	Available   int64  `json:"available_quantity"`
	Reserved    int64  `json:"reserved_quantity"`
	Location    string `json:"location,omitempty"`
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	key := StockKey{
		CompanyID:   shared.CompanyFromContext(r.Context()),
		WarehouseID: queryInt64(r, "warehouse_id"),
		ProductID:   queryInt64(r, "product_id"),
		VariantID:   queryInt64(r, "variant_id"),
	}
	record, err := h.ledger.GetStock(r.Context(), key)
	if err != nil {
		h.logger.Error("get stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toStockResponse(record))
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	warehouseID, _ := strconv.ParseInt(chi.URLParam(r, "warehouseID"), 10, 64)
	page := shared.ParsePageRequest(r)
	records, err := h.ledger.ListStock(r.Context(), shared.CompanyFromContext(r.Context()), warehouseID, page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("list stock", slog.Any("error", err), slog.Int64("warehouse_id", warehouseID))
		httpx.RespondError(w, err)
		return
	}
	out := make([]stockResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toStockResponse(record))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func toStockResponse(record StockRecord) stockResponse {
	return stockResponse{
		WarehouseID: record.Key.WarehouseID,
		ProductID:   record.Key.ProductID,
		VariantID:   record.Key.VariantID,
		Available:   record.Available,
		Reserved:    record.Reserved,
		Location:    record.Location,
	}
}

func queryInt64(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return v
}
