package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/availability"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/ledger"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/model"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/slotgrid"
)

type memLedger struct {
	records map[string]model.Reservation
}

func newMemLedger() *memLedger {
	return &memLedger{records: map[string]model.Reservation{}}
}

func (m *memLedger) ListByDate(_ context.Context, date string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, rec := range m.records {
		if rec.SlotDate == date {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memLedger) Claim(_ context.Context, rec model.Reservation) (bool, error) {
	k := rec.SlotDate + "|" + rec.Start
	if existing, ok := m.records[k]; ok && existing.RequesterID != rec.RequesterID {
		return false, nil
	}
	m.records[k] = rec
	return true, nil
}

func (m *memLedger) Release(_ context.Context, date, start, requesterID string) (bool, error) {
	k := date + "|" + start
	rec, ok := m.records[k]
	if !ok || rec.RequesterID != requesterID {
		return false, nil
	}
	delete(m.records, k)
	return true, nil
}

var handlerNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func testHandler(led ledger.Ledger) *ReservationHandler {
	grid := slotgrid.Default()
	grid.Location = time.UTC
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return handlerNow }
	resolver := availability.NewResolver(led, grid, logger).WithClock(clock)
	coordinator := ledger.NewCoordinator(led, grid, 2, logger, ledger.WithClock(clock))
	return NewReservationHandler(resolver, coordinator, logger)
}

func reserveBody(date, requesterID string, starts ...string) string {
	slots := make([]map[string]string, 0, len(starts))
	for _, s := range starts {
		slots = append(slots, map[string]string{"start": s, "end": "any"})
	}
	body, _ := json.Marshal(map[string]any{
		"date":         date,
		"slots":        slots,
		"name":         "Ani",
		"phone":        "+37491000000",
		"requester_id": requesterID,
	})
	return string(body)
}

func TestSlots_ResponseShape(t *testing.T) {
	led := newMemLedger()
	led.records["2025-03-02|10:00"] = model.Reservation{SlotDate: "2025-03-02", Start: "10:00", End: "10:30", RequesterID: "A"}
	led.records["2025-03-02|11:00"] = model.Reservation{SlotDate: "2025-03-02", Start: "11:00", End: "11:30", RequesterID: "B"}
	h := testHandler(led)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date=2025-03-02&requester_id=A", nil)
	h.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var resp slotsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Taken) != 2 {
		t.Fatalf("expected 2 taken, got %v", resp.Taken)
	}
	if len(resp.Mine) != 1 || resp.Mine[0] != "10:00" {
		t.Fatalf("expected mine=[10:00], got %v", resp.Mine)
	}
}

func TestSlots_BadDateStill200(t *testing.T) {
	h := testHandler(newMemLedger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date=garbage", nil)
	h.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp slotsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Empty lists must serialize as [], not null.
	if resp.Taken == nil || resp.Mine == nil {
		t.Fatalf("expected empty arrays, got %s", rec.Body.String())
	}
}

func TestReserve_Created(t *testing.T) {
	led := newMemLedger()
	h := testHandler(led)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reserve", strings.NewReader(reserveBody("2025-03-02", "A", "10:00")))
	h.Reserve(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp reserveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success true")
	}
	if len(led.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(led.records))
	}
}

func TestReserve_ConflictDetails(t *testing.T) {
	led := newMemLedger()
	led.records["2025-03-02|10:00"] = model.Reservation{SlotDate: "2025-03-02", Start: "10:00", End: "10:30", RequesterID: "A"}
	h := testHandler(led)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reserve", strings.NewReader(reserveBody("2025-03-02", "B", "10:00", "11:00")))
	h.Reserve(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp reserveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Fatal("expected success false")
	}
	if len(resp.Details) != 2 {
		t.Fatalf("expected per-slot details, got %+v", resp.Details)
	}
}

func TestReserve_QuotaExceeded(t *testing.T) {
	led := newMemLedger()
	led.records["2025-03-02|10:00"] = model.Reservation{SlotDate: "2025-03-02", Start: "10:00", End: "10:30", RequesterID: "A"}
	h := testHandler(led)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reserve", strings.NewReader(reserveBody("2025-03-02", "A", "11:00", "12:00")))
	h.Reserve(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReserve_InvalidRequest(t *testing.T) {
	h := testHandler(newMemLedger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reserve", strings.NewReader(`{"date":"2025-03-02"}`))
	h.Reserve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReserve_InvalidJSON(t *testing.T) {
	h := testHandler(newMemLedger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reserve", strings.NewReader("{not json"))
	h.Reserve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCancel_Responses(t *testing.T) {
	led := newMemLedger()
	led.records["2025-03-02|10:00"] = model.Reservation{SlotDate: "2025-03-02", Start: "10:00", End: "10:30", RequesterID: "A"}
	h := testHandler(led)

	do := func(requesterID string) (int, cancelResponse) {
		body, _ := json.Marshal(cancelRequest{Date: "2025-03-02", Start: "10:00", RequesterID: requesterID})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cancel", strings.NewReader(string(body)))
		h.Cancel(rec, req)
		var resp cancelResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return rec.Code, resp
	}

	// A non-owner gets the same 200 as a miss.
	if code, resp := do("B"); code != http.StatusOK || resp.Success {
		t.Fatalf("expected 200/false for non-owner, got %d/%v", code, resp.Success)
	}
	if code, resp := do("A"); code != http.StatusOK || !resp.Success {
		t.Fatalf("expected 200/true for owner, got %d/%v", code, resp.Success)
	}
	if code, resp := do("A"); code != http.StatusOK || resp.Success {
		t.Fatalf("expected 200/false for repeat cancel, got %d/%v", code, resp.Success)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := testHandler(newMemLedger())

	cases := []struct {
		method  string
		target  string
		handler http.HandlerFunc
	}{
		{http.MethodPost, "/api/v1/slots", h.Slots},
		{http.MethodGet, "/api/v1/reserve", h.Reserve},
		{http.MethodGet, "/api/v1/cancel", h.Cancel},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		tc.handler(rec, httptest.NewRequest(tc.method, tc.target, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.target, rec.Code)
		}
	}
}
