package slotgrid

import (
	"testing"
	"time"
)

func testGrid() Grid {
	g := Default()
	g.Location = time.UTC
	return g
}

func TestSlots_CoversOpenHours(t *testing.T) {
	g := testGrid()
	slots := g.Slots()
	if len(slots) != 24 {
		t.Fatalf("expected 24 slots for 10:00-22:00 at 30m, got %d", len(slots))
	}
	if slots[0].Start != "10:00" || slots[0].End != "10:30" {
		t.Fatalf("unexpected first slot: %+v", slots[0])
	}
	last := slots[len(slots)-1]
	if last.Start != "21:30" || last.End != "22:00" {
		t.Fatalf("unexpected last slot: %+v", last)
	}
}

func TestOpenSlots_DropsPastForToday(t *testing.T) {
	g := testGrid()
	now := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

	slots, err := g.OpenSlots("2025-03-01", now)
	if err != nil {
		t.Fatalf("OpenSlots: %v", err)
	}
	// 12:30 starts exactly now and must be gone too.
	if len(slots) != 18 {
		t.Fatalf("expected 18 remaining slots, got %d", len(slots))
	}
	if slots[0].Start != "13:00" {
		t.Fatalf("expected first remaining slot 13:00, got %s", slots[0].Start)
	}
}

func TestOpenSlots_FutureDateKeepsAll(t *testing.T) {
	g := testGrid()
	now := time.Date(2025, 3, 1, 21, 0, 0, 0, time.UTC)

	slots, err := g.OpenSlots("2025-03-02", now)
	if err != nil {
		t.Fatalf("OpenSlots: %v", err)
	}
	if len(slots) != 24 {
		t.Fatalf("expected full grid for a future date, got %d", len(slots))
	}
}

func TestOpenSlots_InvalidDate(t *testing.T) {
	g := testGrid()
	if _, err := g.OpenSlots("not-a-date", time.Now()); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestWithinHorizon(t *testing.T) {
	g := testGrid()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		date string
		want bool
	}{
		{"2025-03-01", true},
		{"2025-03-14", true},
		{"2025-03-15", false},
		{"2025-02-28", false},
		{"garbage", false},
	}
	for _, tc := range cases {
		if got := g.WithinHorizon(tc.date, now); got != tc.want {
			t.Fatalf("WithinHorizon(%q) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestNextDayClosed(t *testing.T) {
	g := testGrid()

	beforeClose := time.Date(2025, 3, 1, 21, 59, 0, 0, time.UTC)
	afterClose := time.Date(2025, 3, 1, 22, 5, 0, 0, time.UTC)

	if g.NextDayClosed("2025-03-02", beforeClose) {
		t.Fatal("tomorrow must stay open before the close hour")
	}
	if !g.NextDayClosed("2025-03-02", afterClose) {
		t.Fatal("tomorrow must close once the clock passes the close hour")
	}
	if g.NextDayClosed("2025-03-01", afterClose) {
		t.Fatal("the rule only applies to tomorrow")
	}
	if g.NextDayClosed("2025-03-03", afterClose) {
		t.Fatal("the rule only applies to tomorrow")
	}
}

func TestCanonical(t *testing.T) {
	g := testGrid()

	slot, ok := g.Canonical("10:00")
	if !ok || slot.End != "10:30" {
		t.Fatalf("expected 10:00 -> 10:30, got %+v ok=%v", slot, ok)
	}
	slot, ok = g.Canonical("21:30")
	if !ok || slot.End != "22:00" {
		t.Fatalf("expected 21:30 -> 22:00, got %+v ok=%v", slot, ok)
	}

	for _, start := range []string{"09:30", "22:00", "10:15", "25:00", ""} {
		if _, ok := g.Canonical(start); ok {
			t.Fatalf("expected %q to be off the grid", start)
		}
	}
}
