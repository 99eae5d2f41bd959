package procurement

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-commerce/meridian/internal/platform/httpx"
	"github.com/meridian-commerce/meridian/internal/shared"
)

// Handler manages procurement endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/pos", h.createPO)
	r.Get("/pos/{id}", h.getPO)
	r.Post("/pos/{id}/approve", h.approvePO)
	r.Post("/pos/{id}/order", h.orderPO)
	r.Post("/pos/{id}/cancel", h.cancelPO)

	r.Post("/grns", h.createGRN)
	r.Get("/grns/{id}", h.getGRN)
	r.Post("/grns/{id}/inspect", h.inspectGRN)
	r.Post("/grns/{id}/complete", h.completeGRN)
	r.Delete("/grns/{id}", h.deleteGRN)

	r.Post("/invoices", h.createInvoice)
}

type poLineRequest struct {
	ProductID  int64   `json:"product_id" validate:"required,gt=0"`
	VariantID  int64   `json:"variant_id" validate:"required,gt=0"`
	OrderedQty int64   `json:"ordered_quantity" validate:"required,gt=0"`
	UnitPrice  float64 `json:"unit_price" validate:"gte=0"`
}

type createPORequest struct {
	Number       string          `json:"number"`
	SupplierID   int64           `json:"supplier_id" validate:"required,gt=0"`
	WarehouseID  int64           `json:"warehouse_id" validate:"required,gt=0"`
	Currency     string          `json:"currency"`
	ExpectedDate string          `json:"expected_date"`
	Note         string          `json:"note"`
	Lines        []poLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type receiptItemRequest struct {
	POLineID    int64   `json:"po_line_id" validate:"required,gt=0"`
	QtyReceived int64   `json:"quantity_received" validate:"required,gt=0"`
	QtyAccepted *int64  `json:"quantity_accepted"`
	QtyRejected *int64  `json:"quantity_rejected"`
	UnitCost    float64 `json:"unit_cost" validate:"gte=0"`
}

type createGRNRequest struct {
	POID       int64                `json:"po_id" validate:"required,gt=0"`
	Number     string               `json:"number"`
	ReceivedAt string               `json:"received_at"`
	Note       string               `json:"note"`
	Items      []receiptItemRequest `json:"items" validate:"required,min=1,dive"`
}

type inspectGRNRequest struct {
	Splits []struct {
		ItemID      int64 `json:"item_id" validate:"required,gt=0"`
		QtyAccepted int64 `json:"quantity_accepted" validate:"gte=0"`
	} `json:"splits" validate:"required,min=1,dive"`
}

type createInvoiceRequest struct {
	ReceiptID int64  `json:"receipt_id" validate:"required,gt=0"`
	Number    string `json:"number"`
	DueDate   string `json:"due_date"`
}

func (h *Handler) createPO(w http.ResponseWriter, r *http.Request) {
	var req createPORequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	input := CreatePOInput{
		CompanyID:    shared.CompanyFromContext(r.Context()),
		Number:       req.Number,
		SupplierID:   req.SupplierID,
		WarehouseID:  req.WarehouseID,
		Currency:     req.Currency,
		ExpectedDate: parseDate(req.ExpectedDate),
		Note:         req.Note,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, POLineInput(line))
	}
	po, err := h.service.CreatePurchaseOrder(r.Context(), input)
	if err != nil {
		h.logger.Error("create PO", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": po.ID, "number": po.Number, "status": po.Status})
}

func (h *Handler) getPO(w http.ResponseWriter, r *http.Request) {
	po, lines, err := h.service.GetPurchaseOrder(r.Context(), shared.CompanyFromContext(r.Context()), pathID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPOResponse(po, lines))
}

func (h *Handler) approvePO(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ApprovePurchaseOrder)
}

func (h *Handler) orderPO(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkPurchaseOrderOrdered)
}

func (h *Handler) cancelPO(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelPurchaseOrder)
}

func (h *Handler) createGRN(w http.ResponseWriter, r *http.Request) {
	var req createGRNRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	input := CreateReceiptInput{
		CompanyID:  shared.CompanyFromContext(r.Context()),
		POID:       req.POID,
		Number:     req.Number,
		ReceivedAt: parseDate(req.ReceivedAt),
		Note:       req.Note,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ReceiptItemInput(item))
	}
	receipt, err := h.service.CreateReceipt(r.Context(), input)
	if err != nil {
		h.logger.Error("create GRN", slog.Any("error", err), slog.Int64("po_id", req.POID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": receipt.ID, "number": receipt.Number, "status": receipt.Status})
}

func (h *Handler) getGRN(w http.ResponseWriter, r *http.Request) {
	receipt, items, err := h.service.GetGoodsReceipt(r.Context(), shared.CompanyFromContext(r.Context()), pathID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGRNResponse(receipt, items))
}

func (h *Handler) inspectGRN(w http.ResponseWriter, r *http.Request) {
	var req inspectGRNRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	splits := make([]InspectionSplit, 0, len(req.Splits))
	for _, split := range req.Splits {
		splits = append(splits, InspectionSplit{ItemID: split.ItemID, QtyAccepted: split.QtyAccepted})
	}
	ctx := r.Context()
	if err := h.service.InspectReceipt(ctx, shared.CompanyFromContext(ctx), pathID(r), splits, shared.ActorFromContext(ctx)); err != nil {
		h.logger.Error("inspect GRN", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": ReceiptStatusInspected})
}

func (h *Handler) completeGRN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.CompleteReceipt(ctx, shared.CompanyFromContext(ctx), pathID(r), shared.ActorFromContext(ctx)); err != nil {
		h.logger.Error("complete GRN", slog.Any("error", err), slog.Int64("receipt_id", pathID(r)))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": ReceiptStatusCompleted})
}

func (h *Handler) deleteGRN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.DeleteReceipt(ctx, shared.CompanyFromContext(ctx), pathID(r), shared.ActorFromContext(ctx)); err != nil {
		h.logger.Error("delete GRN", slog.Any("error", err), slog.Int64("receipt_id", pathID(r)))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": ReceiptStatusDeleted})
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	inv, err := h.service.CreateInvoiceFromReceipt(r.Context(), InvoiceInput{
		CompanyID: shared.CompanyFromContext(r.Context()),
		ReceiptID: req.ReceiptID,
		Number:    req.Number,
		DueDate:   parseDate(req.DueDate),
	})
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": inv.ID, "number": inv.Number, "total": inv.Total})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, companyID, poID, actorID int64) error) {
	ctx := r.Context()
	if err := fn(ctx, shared.CompanyFromContext(ctx), pathID(r), shared.ActorFromContext(ctx)); err != nil {
		h.logger.Error("PO transition", slog.Any("error", err), slog.Int64("po_id", pathID(r)))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

type poLineResponse struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	VariantID   int64   `json:"variant_id"`
	OrderedQty  int64   `json:"ordered_quantity"`
	ReceivedQty int64   `json:"received_quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

func toPOResponse(po PurchaseOrder, lines []POLine) map[string]any {
	out := make([]poLineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, poLineResponse{
			ID:          line.ID,
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			OrderedQty:  line.OrderedQty,
			ReceivedQty: line.ReceivedQty,
			UnitPrice:   line.UnitPrice,
		})
	}
	return map[string]any{
		"id":          po.ID,
		"number":      po.Number,
		"supplier_id": po.SupplierID,
		"warehouse_id": po.WarehouseID,
		"status":      po.Status,
		"currency":    po.Currency,
		"lines":       out,
	}
}

type receiptItemResponse struct {
	ID          int64   `json:"id"`
	POLineID    int64   `json:"po_line_id"`
	ProductID   int64   `json:"product_id"`
	VariantID   int64   `json:"variant_id"`
	QtyReceived int64   `json:"quantity_received"`
	QtyAccepted int64   `json:"quantity_accepted"`
	QtyRejected int64   `json:"quantity_rejected"`
	UnitCost    float64 `json:"unit_cost"`
}

func toGRNResponse(receipt GoodsReceipt, items []ReceiptItem) map[string]any {
	out := make([]receiptItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, receiptItemResponse{
			ID:          item.ID,
			POLineID:    item.POLineID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			QtyReceived: item.QtyReceived,
			QtyAccepted: item.QtyAccepted,
			QtyRejected: item.QtyRejected,
			UnitCost:    item.UnitCost,
		})
	}
	return map[string]any{
		"id":           receipt.ID,
		"number":       receipt.Number,
		"po_id":        receipt.POID,
		"warehouse_id": receipt.WarehouseID,
		"status":       receipt.Status,
		"items":        out,
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02", value)
	return t
}
