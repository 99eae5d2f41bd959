package sales

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-commerce/meridian/internal/platform/httpx"
	"github.com/meridian-commerce/meridian/internal/shared"
)

// Handler manages sales order endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/fulfill", h.fulfillOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
}

type orderLineRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	VariantID int64   `json:"variant_id" validate:"gte=0"`
	Qty       int64   `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

type placeOrderRequest struct {
	Number      string             `json:"number"`
	CustomerID  int64              `json:"customer_id" validate:"required,gt=0"`
	WarehouseID int64              `json:"warehouse_id" validate:"required,gt=0"`
	Channel     string             `json:"channel" validate:"omitempty,oneof=RETAIL ADVANCE"`
	Note        string             `json:"note"`
	Lines       []orderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	input := PlaceOrderInput{
		CompanyID:   shared.CompanyFromContext(r.Context()),
		Number:      req.Number,
		CustomerID:  req.CustomerID,
		WarehouseID: req.WarehouseID,
		Channel:     Channel(req.Channel),
		Note:        req.Note,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, OrderLineInput(line))
	}
	order, err := h.service.PlaceOrder(r.Context(), input)
	if err != nil {
		h.logger.Error("place order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": order.ID, "number": order.Number, "status": order.Status, "total": order.Total})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, lines, err := h.service.GetOrder(r.Context(), shared.CompanyFromContext(r.Context()), pathID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	outLines := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		outLines = append(outLines, map[string]any{
			"id":         line.ID,
			"product_id": line.ProductID,
			"variant_id": line.VariantID,
			"quantity":   line.Qty,
			"unit_price": line.UnitPrice,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":           order.ID,
		"number":       order.Number,
		"customer_id":  order.CustomerID,
		"warehouse_id": order.WarehouseID,
		"channel":      order.Channel,
		"status":       order.Status,
		"total":        order.Total,
		"lines":        outLines,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	orders, err := h.service.ListOrders(r.Context(), shared.CompanyFromContext(r.Context()), page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(orders))
	for _, order := range orders {
		out = append(out, map[string]any{
			"id":     order.ID,
			"number": order.Number,
			"status": order.Status,
			"total":  order.Total,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) fulfillOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.FulfillOrder(ctx, shared.CompanyFromContext(ctx), pathID(r), shared.ActorFromContext(ctx)); err != nil {
		h.logger.Error("fulfill order", slog.Any("error", err), slog.Int64("order_id", pathID(r)))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": OrderStatusFulfilled})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.CancelOrder(ctx, shared.CompanyFromContext(ctx), pathID(r), shared.ActorFromContext(ctx)); err != nil {
		h.logger.Error("cancel order", slog.Any("error", err), slog.Int64("order_id", pathID(r)))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": OrderStatusCancelled})
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}
