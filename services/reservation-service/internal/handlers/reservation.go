package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/availability"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/ledger"
)

type ReservationHandler struct {
	resolver    *availability.Resolver
	coordinator *ledger.Coordinator
	logger      *slog.Logger
}

func NewReservationHandler(resolver *availability.Resolver, coordinator *ledger.Coordinator, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{
		resolver:    resolver,
		coordinator: coordinator,
		logger:      logger,
	}
}

type slotsResponse struct {
	Taken []string `json:"taken"`
	Mine  []string `json:"mine"`
}

type reserveRequest struct {
	Date        string               `json:"date"`
	Slots       []ledger.SlotRequest `json:"slots"`
	Name        string               `json:"name"`
	Phone       string               `json:"phone"`
	RequesterID string               `json:"requester_id"`
}

type reserveResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Details []ledger.SlotResult `json:"details,omitempty"`
}

type cancelRequest struct {
	Date        string `json:"date"`
	Start       string `json:"start"`
	RequesterID string `json:"requester_id"`
}

type cancelResponse struct {
	Success bool `json:"success"`
}

// Slots serves GET /api/v1/slots?date=YYYY-MM-DD&requester_id=...
// It always answers 200 with the taken/mine start lists; bad dates and
// ledger failures both come back as empty lists.
func (h *ReservationHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	requesterID := strings.TrimSpace(r.URL.Query().Get("requester_id"))

	view := h.resolver.GetAvailability(r.Context(), date, requesterID)
	writeJSON(w, http.StatusOK, slotsResponse{Taken: view.Taken, Mine: view.Mine})
}

// Reserve serves POST /api/v1/reserve.
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, reserveResponse{Success: false, Error: "invalid json body"})
		return
	}

	result, err := h.coordinator.Book(r.Context(), ledger.BookRequest{
		Date:        req.Date,
		Slots:       req.Slots,
		HolderName:  req.Name,
		HolderPhone: req.Phone,
		RequesterID: req.RequesterID,
	})
	if err != nil {
		h.logger.Error("booking failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, reserveResponse{Success: false, Error: "internal error"})
		return
	}

	switch result.Status {
	case ledger.StatusSuccess:
		writeJSON(w, http.StatusCreated, reserveResponse{Success: true})
	case ledger.StatusPartialFailure:
		writeJSON(w, http.StatusConflict, reserveResponse{
			Success: false,
			Error:   result.Message,
			Details: result.Slots,
		})
	case ledger.StatusQuotaExceeded:
		writeJSON(w, http.StatusUnprocessableEntity, reserveResponse{Success: false, Error: result.Message})
	default:
		writeJSON(w, http.StatusBadRequest, reserveResponse{Success: false, Error: result.Message})
	}
}

// Cancel serves POST /api/v1/cancel. The response does not say why a
// cancel matched nothing.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, cancelResponse{Success: false})
		return
	}

	result, err := h.coordinator.Cancel(r.Context(), req.Date, req.Start, req.RequesterID)
	if err != nil {
		h.logger.Error("cancel failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, cancelResponse{Success: false})
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{Success: result.Success})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
