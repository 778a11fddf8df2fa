package availability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/model"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/slotgrid"
)

type fakeReader struct {
	records []model.Reservation
	err     error
}

func (f *fakeReader) ListByDate(_ context.Context, _ string) ([]model.Reservation, error) {
	return f.records, f.err
}

func testResolver(reader Reader, now time.Time) *Resolver {
	grid := slotgrid.Default()
	grid.Location = time.UTC
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResolver(reader, grid, logger).WithClock(func() time.Time { return now })
}

func TestGetAvailability_Tagging(t *testing.T) {
	reader := &fakeReader{records: []model.Reservation{
		{SlotDate: "2025-03-02", Start: "10:00", End: "10:30", RequesterID: "A"},
		{SlotDate: "2025-03-02", Start: "10:30", End: "11:00", RequesterID: "B"},
	}}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	r := testResolver(reader, now)

	view := r.GetAvailability(context.Background(), "2025-03-02", "A")

	if len(view.Taken) != 2 {
		t.Fatalf("expected 2 taken starts, got %v", view.Taken)
	}
	if len(view.Mine) != 1 || view.Mine[0] != "10:00" {
		t.Fatalf("expected mine=[10:00], got %v", view.Mine)
	}
	if len(view.Slots) != 24 {
		t.Fatalf("expected full grid, got %d slots", len(view.Slots))
	}
	if view.Slots[0].Status != StatusMine {
		t.Fatalf("expected 10:00 tagged mine, got %s", view.Slots[0].Status)
	}
	if view.Slots[1].Status != StatusTaken {
		t.Fatalf("expected 10:30 tagged taken, got %s", view.Slots[1].Status)
	}
	if view.Slots[2].Status != StatusFree {
		t.Fatalf("expected 11:00 tagged free, got %s", view.Slots[2].Status)
	}
}

func TestGetAvailability_AnonymousNeverMine(t *testing.T) {
	reader := &fakeReader{records: []model.Reservation{
		{SlotDate: "2025-03-02", Start: "10:00", End: "10:30", RequesterID: ""},
	}}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	r := testResolver(reader, now)

	view := r.GetAvailability(context.Background(), "2025-03-02", "")
	if len(view.Mine) != 0 {
		t.Fatalf("anonymous viewer must never see mine, got %v", view.Mine)
	}
	if view.Slots[0].Status != StatusTaken {
		t.Fatalf("expected taken, got %s", view.Slots[0].Status)
	}
}

func TestGetAvailability_PastSlotsExcluded(t *testing.T) {
	reader := &fakeReader{records: []model.Reservation{
		{SlotDate: "2025-03-01", Start: "10:00", End: "10:30", RequesterID: "A"},
		{SlotDate: "2025-03-01", Start: "15:00", End: "15:30", RequesterID: "A"},
	}}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := testResolver(reader, now)

	view := r.GetAvailability(context.Background(), "2025-03-01", "A")

	for _, s := range view.Slots {
		if s.Start <= "12:00" {
			t.Fatalf("past slot %s leaked into the view", s.Start)
		}
	}
	// The 10:00 booking is in the past and must not appear anywhere.
	if len(view.Taken) != 1 || view.Taken[0] != "15:00" {
		t.Fatalf("expected taken=[15:00], got %v", view.Taken)
	}
}

func TestGetAvailability_OutOfHorizon(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	r := testResolver(&fakeReader{}, now)

	for _, date := range []string{"2025-02-28", "2025-04-01", "garbage", ""} {
		view := r.GetAvailability(context.Background(), date, "A")
		if len(view.Slots) != 0 || len(view.Taken) != 0 || len(view.Mine) != 0 {
			t.Fatalf("expected empty view for %q, got %+v", date, view)
		}
	}
}

func TestGetAvailability_ReadFailureDegrades(t *testing.T) {
	reader := &fakeReader{err: errors.New("connection refused")}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	r := testResolver(reader, now)

	view := r.GetAvailability(context.Background(), "2025-03-02", "A")

	if len(view.Slots) != 24 {
		t.Fatalf("expected the grid to survive a read failure, got %d slots", len(view.Slots))
	}
	if len(view.Taken) != 0 || len(view.Mine) != 0 {
		t.Fatalf("expected no taken/mine on read failure, got %v / %v", view.Taken, view.Mine)
	}
	for _, s := range view.Slots {
		if s.Status != StatusFree {
			t.Fatalf("expected all free on read failure, got %s at %s", s.Status, s.Start)
		}
	}
}
