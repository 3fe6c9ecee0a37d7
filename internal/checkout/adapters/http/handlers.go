package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mercato/storefront/internal/checkout/app"
	"github.com/mercato/storefront/internal/checkout/app/commands"
	"github.com/mercato/storefront/internal/checkout/domain"
	"github.com/mercato/storefront/internal/checkout/ports"
)

// Handler exposes HTTP endpoints for checkout and order operations.
type Handler struct {
	service *app.Service
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// Register binds the checkout handlers to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/checkout", h.handleCheckout)
	mux.HandleFunc("/v1/orders", h.handleOrders)
	mux.HandleFunc("/v1/orders/", h.handleOrderByID)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey == "" {
		writeError(w, http.StatusBadRequest, "Idempotency-Key header required")
		return
	}

	if stored, err := h.service.GetIdempotentResponse(ctx, idemKey); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	} else if stored != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(stored.StatusCode)
		_, _ = w.Write(stored.Body)
		return
	}

	var payload app.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	result, err := h.service.CompleteCheckout(ctx, payload)
	if result == nil {
		status := http.StatusBadRequest
		if errors.Is(err, ports.ErrEmptyCart) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}

	status, body := checkoutResponse(result)

	// Replays of the same key must not capture a second payment, so the
	// stored response covers partial failures as well as successes.
	if result.State != commands.StateFailed {
		stored := ports.StoredResponse{
			StatusCode:       status,
			Body:             body,
			PaymentReference: result.PaymentReference,
		}
		if result.Order != nil {
			stored.OrderID = result.Order.ID
		}
		if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func checkoutResponse(result *commands.CheckoutResult) (int, []byte) {
	switch result.State {
	case commands.StateSucceeded:
		body, _ := json.Marshal(map[string]any{"order": result.Order})
		return http.StatusCreated, body

	case commands.StatePartialFailure:
		body, _ := json.Marshal(map[string]any{
			"error": map[string]any{
				"state":             string(result.State),
				"message":           "Your payment was received but we could not record your order. Please contact support with the payment reference. Do not pay again.",
				"payment_reference": result.PaymentReference,
			},
		})
		return http.StatusBadGateway, body

	default:
		body, _ := json.Marshal(map[string]any{
			"error": map[string]any{
				"state":                       string(result.State),
				"kind":                        string(result.Err.Kind),
				"code":                        result.Err.Code,
				"message":                     result.Err.UserMessage,
				"suggestion":                  result.Err.Suggestion,
				"retryable":                   result.Err.Retryable(),
				"requires_new_payment_method": result.Err.RequiresNewPaymentMethod(),
				"attempts":                    result.Attempts,
			},
		})
		return http.StatusPaymentRequired, body
	}
}

func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.listOrders(w, r)
}

func (h *Handler) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/v1/orders/")
	if trimmed == "" {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	switch {
	case strings.HasSuffix(trimmed, "/cancel"):
		id := strings.TrimSuffix(strings.TrimSuffix(trimmed, "/cancel"), "/")
		id = strings.TrimSuffix(id, "/")
		if id == "" {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.cancelOrder(w, r, id)

	case strings.HasSuffix(trimmed, "/status"):
		id := strings.TrimSuffix(strings.TrimSuffix(trimmed, "/status"), "/")
		id = strings.TrimSuffix(id, "/")
		if id == "" {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.advanceStatus(w, r, id)

	case strings.HasSuffix(trimmed, "/timeline"):
		id := strings.TrimSuffix(strings.TrimSuffix(trimmed, "/timeline"), "/")
		id = strings.TrimSuffix(id, "/")
		if id == "" {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.orderTimeline(w, r, id)

	default:
		id := strings.TrimSuffix(trimmed, "/")
		if id == "" {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.getOrder(w, r, id)
	}
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, id string) {
	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter := ports.ListFilter{}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status := domain.OrderStatus(statusParam)
		if !status.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
		filter.Status = &status
	}

	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		if page, err := strconv.Atoi(pageParam); err == nil {
			filter.Page = page
		}
	}

	if pageSizeParam := r.URL.Query().Get("page_size"); pageSizeParam != "" {
		if pageSize, err := strconv.Atoi(pageSizeParam); err == nil {
			filter.PageSize = pageSize
		}
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) orderTimeline(w http.ResponseWriter, r *http.Request, id string) {
	steps, err := h.service.GetOrderTimeline(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeline": steps})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request, id string) {
	order, err := h.service.CancelOrder(r.Context(), id)
	if err != nil {
		writeStatusChangeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

type advanceStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

func (h *Handler) advanceStatus(w http.ResponseWriter, r *http.Request, id string) {
	var payload advanceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	status := domain.OrderStatus(payload.Status)
	if !status.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	order, err := h.service.AdvanceOrderStatus(r.Context(), id, status, payload.Note)
	if err != nil {
		writeStatusChangeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func writeStatusChangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
