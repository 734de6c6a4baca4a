package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rl1809/giftpay/internal/core/domain"
	"github.com/rl1809/giftpay/internal/core/service"
)

type HTTPHandler struct {
	checkout *service.CheckoutService
	catalog  *service.CatalogService
	reports  *service.ReportService
	log      *slog.Logger
}

type PurchaseHTTPRequest struct {
	BuyerID int64 `json:"buyer_id"`
	GiftID  int64 `json:"gift_id"`
}

type PurchaseHTTPResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	OrderRef string `json:"order_ref,omitempty"`
	PayURL   string `json:"pay_url,omitempty"`
	Amount   string `json:"amount,omitempty"`
}

type TransactionView struct {
	ID        string    `json:"id"`
	OrderRef  string    `json:"order_ref"`
	BuyerID   int64     `json:"buyer_id"`
	ItemName  string    `json:"item_name"`
	Gross     string    `json:"gross"`
	Fee       string    `json:"fee"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewHTTPHandler(
	checkout *service.CheckoutService,
	catalog *service.CatalogService,
	reports *service.ReportService,
	log *slog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		checkout: checkout,
		catalog:  catalog,
		reports:  reports,
		log:      log.With(slog.String("component", "http")),
	}
}

func (h *HTTPHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, PurchaseHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	if req.BuyerID <= 0 || req.GiftID <= 0 {
		writeJSON(w, http.StatusBadRequest, PurchaseHTTPResponse{
			Success: false,
			Message: "missing required fields",
		})
		return
	}

	invoice, err := h.checkout.Purchase(r.Context(), req.BuyerID, req.GiftID)
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"

		switch {
		case errors.Is(err, service.ErrGiftNotFound):
			status = http.StatusNotFound
			message = "gift not found"
		case errors.Is(err, service.ErrAlreadyPaid):
			status = http.StatusConflict
			message = "order already paid"
		case errors.Is(err, service.ErrOrderSettled):
			status = http.StatusConflict
			message = "order already settled"
		case errors.Is(err, domain.ErrGateway):
			status = http.StatusBadGateway
			message = "payment provider unavailable, try again later"
		case errors.Is(err, domain.ErrMalformedReference), errors.Is(err, domain.ErrInvalidAmount):
			status = http.StatusBadRequest
			message = "invalid purchase"
		default:
			h.log.Error("purchase failed", slog.Any("error", err))
		}

		writeJSON(w, status, PurchaseHTTPResponse{
			Success: false,
			Message: message,
		})
		return
	}

	writeJSON(w, http.StatusOK, PurchaseHTTPResponse{
		Success:  true,
		Message:  "invoice created",
		OrderRef: invoice.OrderRef,
		PayURL:   invoice.PayURL,
		Amount:   invoice.Gross.StringFixed(2),
	})
}

func (h *HTTPHandler) Gifts(w http.ResponseWriter, r *http.Request) {
	gifts, err := h.catalog.ActiveGifts(r.Context())
	if err != nil {
		h.log.Error("list gifts failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if gifts == nil {
		gifts = []domain.Gift{}
	}
	writeJSON(w, http.StatusOK, gifts)
}

func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.Summary(r.Context())
	if err != nil {
		h.log.Error("stats failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":      summary.Total,
		"pending":    summary.Pending,
		"paid":       summary.Paid,
		"failed":     summary.Failed,
		"gross":      summary.Gross.StringFixed(2),
		"fee":        summary.Fee.StringFixed(2),
		"paid_gross": summary.PaidGross.StringFixed(2),
		"paid_fee":   summary.PaidFee.StringFixed(2),
	})
}

// Transactions lists every transaction, or one buyer's when user_id is set.
func (h *HTTPHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	var (
		txs []domain.Transaction
		err error
	)

	if raw := r.URL.Query().Get("user_id"); raw != "" {
		buyerID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || buyerID <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
			return
		}
		txs, err = h.reports.UserTransactions(r.Context(), buyerID)
	} else {
		txs, err = h.reports.Transactions(r.Context())
	}
	if err != nil {
		h.log.Error("list transactions failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	views := make([]TransactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, TransactionView{
			ID:        tx.ID,
			OrderRef:  tx.OrderRef,
			BuyerID:   tx.BuyerID,
			ItemName:  tx.ItemName,
			Gross:     tx.Gross.StringFixed(2),
			Fee:       tx.Fee.StringFixed(2),
			Status:    string(tx.Status),
			CreatedAt: tx.CreatedAt,
			UpdatedAt: tx.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
