// Package ledger is the authoritative write surface over the reservation
// ledger: it validates booking and cancellation requests, enforces the
// per-day quota, and turns per-slot claim outcomes into one aggregate
// result.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/model"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/slotgrid"
)

// Ledger is the storage contract the coordinator writes through. Claim
// must be atomic with respect to all other writers: insert when the slot
// is free, update in place when the caller already owns it, and report
// false when another requester holds it. Check-then-insert across two
// round trips is not an acceptable implementation.
type Ledger interface {
	ListByDate(ctx context.Context, date string) ([]model.Reservation, error)
	Claim(ctx context.Context, rec model.Reservation) (bool, error)
	Release(ctx context.Context, date, start, requesterID string) (bool, error)
}

// Events receives the structured notices emitted after successful writes.
// Delivery is decoupled from the commit outcome: a failing emitter is
// logged, never surfaced to the booking caller.
type Events interface {
	SlotsBooked(ctx context.Context, evt BookedEvent) error
	SlotCancelled(ctx context.Context, evt CancelledEvent) error
}

// Invalidator drops derived read-path state for a date after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, date string)
}

type BookedEvent struct {
	Date        string          `json:"date"`
	Slots       []slotgrid.Slot `json:"slots"`
	HolderName  string          `json:"holder_name"`
	HolderPhone string          `json:"holder_phone"`
	RequesterID string          `json:"requester_id"`
}

type CancelledEvent struct {
	Date        string `json:"date"`
	Start       string `json:"start"`
	RequesterID string `json:"requester_id"`
}

type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusInvalidRequest Status = "invalid_request"
	StatusQuotaExceeded  Status = "quota_exceeded"
)

type SlotOutcome string

const (
	SlotBooked   SlotOutcome = "booked"
	SlotUpdated  SlotOutcome = "updated"
	SlotConflict SlotOutcome = "conflict"
)

type SlotRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type BookRequest struct {
	Date        string
	Slots       []SlotRequest
	HolderName  string
	HolderPhone string
	RequesterID string
}

type SlotResult struct {
	Start   string      `json:"start"`
	Outcome SlotOutcome `json:"outcome"`
	Reason  string      `json:"reason,omitempty"`
}

// BookResult is the single aggregate outcome of a booking request. Slots
// carries every per-slot decision; nothing is dropped silently.
type BookResult struct {
	Status  Status
	Message string
	Slots   []SlotResult
}

type CancelResult struct {
	// Success is deliberately ambiguous between "never existed" and
	// "owned by someone else" so ownership is not leaked to the caller.
	Success bool
}

// Coordinator is the sole writer of reservation records.
//
// Trust boundary: RequesterID is an opaque client-supplied identifier.
// It selects which records count as "mine" and which may be cancelled,
// but nothing verifies that the client is who it claims to be.
type Coordinator struct {
	ledger    Ledger
	grid      slotgrid.Grid
	maxPerDay int
	events    Events
	cache     Invalidator
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Coordinator)

func WithEvents(events Events) Option {
	return func(c *Coordinator) { c.events = events }
}

func WithInvalidator(cache Invalidator) Option {
	return func(c *Coordinator) { c.cache = cache }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(ledger Ledger, grid slotgrid.Grid, maxPerDay int, logger *slog.Logger, opts ...Option) *Coordinator {
	if maxPerDay <= 0 {
		maxPerDay = 2
	}
	c := &Coordinator{
		ledger:    ledger,
		grid:      grid,
		maxPerDay: maxPerDay,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Book validates the request, claims each slot atomically, and reports
// one aggregate outcome. A non-nil error means ledger I/O failed; every
// other condition is expressed through BookResult.Status.
func (c *Coordinator) Book(ctx context.Context, req BookRequest) (BookResult, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.HolderName = strings.TrimSpace(req.HolderName)
	req.HolderPhone = strings.TrimSpace(req.HolderPhone)
	req.RequesterID = strings.TrimSpace(req.RequesterID)

	if req.Date == "" || len(req.Slots) == 0 {
		return invalid("date and at least one slot are required"), nil
	}
	if req.HolderName == "" || req.HolderPhone == "" || req.RequesterID == "" {
		return invalid("name, phone and requester id are required"), nil
	}
	if _, err := time.Parse(slotgrid.DateLayout, req.Date); err != nil {
		return invalid("date must be YYYY-MM-DD"), nil
	}

	// Malformed entries fail the whole request; no partial silent drop.
	// Duplicate starts collapse to one claim.
	canonical := make([]slotgrid.Slot, 0, len(req.Slots))
	seen := make(map[string]bool, len(req.Slots))
	for _, s := range req.Slots {
		if strings.TrimSpace(s.Start) == "" || strings.TrimSpace(s.End) == "" {
			return invalid(fmt.Sprintf("slot entry %q is missing start or end", s.Start)), nil
		}
		slot, ok := c.grid.Canonical(strings.TrimSpace(s.Start))
		if !ok {
			return invalid(fmt.Sprintf("start %q is not on the booking grid", s.Start)), nil
		}
		if seen[slot.Start] {
			continue
		}
		seen[slot.Start] = true
		canonical = append(canonical, slot)
	}

	if c.grid.NextDayClosed(req.Date, c.now()) {
		return invalid("bookings for tomorrow are closed for today"), nil
	}

	existing, err := c.ledger.ListByDate(ctx, req.Date)
	if err != nil {
		return BookResult{}, fmt.Errorf("read ledger for %s: %w", req.Date, err)
	}
	owned := make(map[string]bool)
	ownedCount := 0
	for _, rec := range existing {
		if rec.RequesterID == req.RequesterID {
			owned[rec.Start] = true
			ownedCount++
		}
	}

	newSlots := 0
	for _, slot := range canonical {
		if !owned[slot.Start] {
			newSlots++
		}
	}
	if ownedCount+newSlots > c.maxPerDay {
		return BookResult{
			Status:  StatusQuotaExceeded,
			Message: fmt.Sprintf("at most %d slots per day", c.maxPerDay),
		}, nil
	}

	results := make([]SlotResult, 0, len(canonical))
	var booked []slotgrid.Slot
	for _, slot := range canonical {
		claimed, err := c.ledger.Claim(ctx, model.Reservation{
			SlotDate:    req.Date,
			Start:       slot.Start,
			End:         slot.End,
			HolderName:  req.HolderName,
			HolderPhone: req.HolderPhone,
			RequesterID: req.RequesterID,
		})
		if err != nil {
			return BookResult{Slots: results}, fmt.Errorf("claim %s %s: %w", req.Date, slot.Start, err)
		}
		if !claimed {
			results = append(results, SlotResult{
				Start:   slot.Start,
				Outcome: SlotConflict,
				Reason:  "slot is already reserved",
			})
			continue
		}
		outcome := SlotBooked
		if owned[slot.Start] {
			outcome = SlotUpdated
		}
		results = append(results, SlotResult{Start: slot.Start, Outcome: outcome})
		booked = append(booked, slot)
	}

	status := StatusSuccess
	for _, r := range results {
		if r.Outcome == SlotConflict {
			status = StatusPartialFailure
			break
		}
	}

	if len(booked) > 0 {
		c.invalidate(ctx, req.Date)
		c.emitBooked(ctx, req, booked)
	}

	res := BookResult{Status: status, Slots: results}
	if status == StatusPartialFailure {
		res.Message = "some slots are already reserved"
	}
	return res, nil
}

// Cancel deletes the record matching (date, start, requesterID) exactly.
// The requester id is part of the delete predicate, so a non-owner
// matches zero rows instead of touching another holder's record. Past
// slot keys are honoured like any other: they are merely absent from
// availability views, not protected from their owner.
func (c *Coordinator) Cancel(ctx context.Context, date, start, requesterID string) (CancelResult, error) {
	date = strings.TrimSpace(date)
	start = strings.TrimSpace(start)
	requesterID = strings.TrimSpace(requesterID)
	if date == "" || start == "" || requesterID == "" {
		return CancelResult{}, nil
	}

	deleted, err := c.ledger.Release(ctx, date, start, requesterID)
	if err != nil {
		return CancelResult{}, fmt.Errorf("release %s %s: %w", date, start, err)
	}
	if !deleted {
		return CancelResult{}, nil
	}

	c.invalidate(ctx, date)
	if c.events != nil {
		evt := CancelledEvent{Date: date, Start: start, RequesterID: requesterID}
		if err := c.events.SlotCancelled(ctx, evt); err != nil {
			c.logger.Error("cancel event emit failed", "date", date, "start", start, "err", err)
		}
	}
	return CancelResult{Success: true}, nil
}

func (c *Coordinator) emitBooked(ctx context.Context, req BookRequest, slots []slotgrid.Slot) {
	if c.events == nil {
		return
	}
	evt := BookedEvent{
		Date:        req.Date,
		Slots:       slots,
		HolderName:  req.HolderName,
		HolderPhone: req.HolderPhone,
		RequesterID: req.RequesterID,
	}
	if err := c.events.SlotsBooked(ctx, evt); err != nil {
		c.logger.Error("booking event emit failed", "date", req.Date, "err", err)
	}
}

func (c *Coordinator) invalidate(ctx context.Context, date string) {
	if c.cache != nil {
		c.cache.Invalidate(ctx, date)
	}
}

func invalid(msg string) BookResult {
	return BookResult{Status: StatusInvalidRequest, Message: msg}
}
