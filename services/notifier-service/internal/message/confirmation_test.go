package message

import (
	"strings"
	"testing"
)

func TestConfirmation(t *testing.T) {
	text := Confirmation(Booking{
		Date: "2025-03-02",
		Slots: []Slot{
			{Start: "10:00", End: "10:30"},
			{Start: "11:00", End: "11:30"},
		},
		HolderName:  "Ani",
		HolderPhone: "+37491000000",
	})

	for _, want := range []string{
		"2025-03-02",
		"10:00-10:30, 11:00-11:30",
		"Ani",
		"+37491000000",
		"Новое бронирование",
		"Նոր ամրագրումը",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("confirmation missing %q:\n%s", want, text)
		}
	}
}

func TestCancellation(t *testing.T) {
	text := Cancellation("2025-03-02", "10:00")
	if !strings.Contains(text, "2025-03-02 10:00") {
		t.Fatalf("cancellation missing slot key:\n%s", text)
	}
	if !strings.Contains(text, "отменено") || !strings.Contains(text, "չեղարկվեց") {
		t.Fatalf("cancellation must carry both languages:\n%s", text)
	}
}
