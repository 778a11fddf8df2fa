// Package slotgrid holds the calendar rules of the booking grid: which
// slots exist on a date, which are already in the past, and when bookings
// for the next day close.
package slotgrid

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Grid describes the fixed slot grid. Slots start every SlotMinutes
// between OpenHour and CloseHour; the last slot ends exactly at CloseHour.
type Grid struct {
	OpenHour    int
	CloseHour   int
	SlotMinutes int
	HorizonDays int
	Location    *time.Location
}

// Slot is a start/end pair on the grid, both in "15:04" form.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func Default() Grid {
	return Grid{
		OpenHour:    10,
		CloseHour:   22,
		SlotMinutes: 30,
		HorizonDays: 14,
		Location:    time.Local,
	}
}

func (g Grid) location() *time.Location {
	if g.Location != nil {
		return g.Location
	}
	return time.Local
}

// Slots returns every slot of a day in chronological order.
func (g Grid) Slots() []Slot {
	if g.SlotMinutes <= 0 || g.CloseHour <= g.OpenHour {
		return nil
	}
	var slots []Slot
	openM := g.OpenHour * 60
	closeM := g.CloseHour * 60
	for m := openM; m+g.SlotMinutes <= closeM; m += g.SlotMinutes {
		slots = append(slots, Slot{
			Start: minutesToClock(m),
			End:   minutesToClock(m + g.SlotMinutes),
		})
	}
	return slots
}

// OpenSlots returns the slots of date that are still bookable at now:
// on the current date, every slot whose start is at or before now is
// removed entirely (not flagged), so no caller can distinguish a past
// free slot from a past booked one.
func (g Grid) OpenSlots(date string, now time.Time) ([]Slot, error) {
	day, err := time.ParseInLocation(DateLayout, date, g.location())
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	all := g.Slots()
	out := make([]Slot, 0, len(all))
	for _, s := range all {
		start, err := time.Parse(TimeLayout, s.Start)
		if err != nil {
			return nil, err
		}
		at := time.Date(day.Year(), day.Month(), day.Day(), start.Hour(), start.Minute(), 0, 0, g.location())
		if !at.After(now) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// WithinHorizon reports whether date falls inside the booking horizon
// [today, today+HorizonDays).
func (g Grid) WithinHorizon(date string, now time.Time) bool {
	day, err := time.ParseInLocation(DateLayout, date, g.location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.location())
	if day.Before(today) {
		return false
	}
	return day.Before(today.AddDate(0, 0, g.HorizonDays))
}

// NextDayClosed reports whether date is tomorrow and the clock has already
// passed the close hour. Booking writes for tomorrow are rejected under
// this condition; reads and cancellations are not.
func (g Grid) NextDayClosed(date string, now time.Time) bool {
	day, err := time.ParseInLocation(DateLayout, date, g.location())
	if err != nil {
		return false
	}
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.location()).AddDate(0, 0, 1)
	return day.Equal(tomorrow) && now.In(g.location()).Hour() >= g.CloseHour
}

// Canonical maps a requested start to its grid slot. The returned end is
// always computed from the grid, whatever the client sent.
func (g Grid) Canonical(start string) (Slot, bool) {
	t, err := time.Parse(TimeLayout, start)
	if err != nil {
		return Slot{}, false
	}
	m := t.Hour()*60 + t.Minute()
	openM := g.OpenHour * 60
	closeM := g.CloseHour * 60
	if m < openM || m+g.SlotMinutes > closeM || (m-openM)%g.SlotMinutes != 0 {
		return Slot{}, false
	}
	return Slot{Start: minutesToClock(m), End: minutesToClock(m + g.SlotMinutes)}, true
}

func minutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
