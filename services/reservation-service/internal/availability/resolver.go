// Package availability derives the per-date, per-viewer view of the
// booking grid from the reservation ledger. It is strictly read-only.
package availability

import (
	"context"
	"log/slog"
	"time"

	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/model"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/slotgrid"
)

// Reader is the ledger read path. In production it is the Postgres
// repository, usually behind the redis read-through cache.
type Reader interface {
	ListByDate(ctx context.Context, date string) ([]model.Reservation, error)
}

type SlotStatus string

const (
	StatusFree  SlotStatus = "free"
	StatusMine  SlotStatus = "mine"
	StatusTaken SlotStatus = "taken"
)

type Slot struct {
	Start  string     `json:"start"`
	End    string     `json:"end"`
	Status SlotStatus `json:"status"`
}

// View is the availability of one date for one viewer. Taken and Mine
// are the derived start lists clients block and highlight with; Taken
// includes the viewer's own starts.
type View struct {
	Date  string   `json:"date"`
	Slots []Slot   `json:"slots"`
	Taken []string `json:"taken"`
	Mine  []string `json:"mine"`
}

type Resolver struct {
	reader Reader
	grid   slotgrid.Grid
	logger *slog.Logger
	now    func() time.Time
}

func NewResolver(reader Reader, grid slotgrid.Grid, logger *slog.Logger) *Resolver {
	return &Resolver{reader: reader, grid: grid, logger: logger, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// GetAvailability returns the tagged slot sequence for date as seen by
// requesterID (empty means anonymous, never "mine"). It never fails the
// caller: an invalid or out-of-horizon date yields an empty view, and a
// ledger read failure degrades to an all-free grid.
func (r *Resolver) GetAvailability(ctx context.Context, date, requesterID string) View {
	view := View{
		Date:  date,
		Slots: []Slot{},
		Taken: []string{},
		Mine:  []string{},
	}

	now := r.now()
	if !r.grid.WithinHorizon(date, now) {
		return view
	}
	open, err := r.grid.OpenSlots(date, now)
	if err != nil {
		return view
	}

	byStart := make(map[string]model.Reservation)
	records, err := r.reader.ListByDate(ctx, date)
	if err != nil {
		// Read path prioritizes availability: show the grid rather
		// than fail the picker.
		r.logger.Error("availability read failed", "date", date, "err", err)
	} else {
		for _, rec := range records {
			byStart[rec.Start] = rec
		}
	}

	for _, s := range open {
		slot := Slot{Start: s.Start, End: s.End, Status: StatusFree}
		if rec, ok := byStart[s.Start]; ok {
			view.Taken = append(view.Taken, s.Start)
			if requesterID != "" && rec.RequesterID == requesterID {
				slot.Status = StatusMine
				view.Mine = append(view.Mine, s.Start)
			} else {
				slot.Status = StatusTaken
			}
		}
		view.Slots = append(view.Slots, slot)
	}
	return view
}
