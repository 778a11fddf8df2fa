// Package message renders chat notifications. The audience is bilingual,
// so every text carries a Russian part followed by an Armenian part.
package message

import (
	"fmt"
	"strings"
)

type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Booking struct {
	Date        string `json:"date"`
	Slots       []Slot `json:"slots"`
	HolderName  string `json:"holder_name"`
	HolderPhone string `json:"holder_phone"`
}

// Confirmation renders the booking confirmation sent after a successful
// reservation.
func Confirmation(b Booking) string {
	times := make([]string, 0, len(b.Slots))
	for _, s := range b.Slots {
		times = append(times, s.Start+"-"+s.End)
	}
	joined := strings.Join(times, ", ")

	var sb strings.Builder
	sb.WriteString("✨ Новое бронирование сохранено!\n")
	fmt.Fprintf(&sb, "📅 Дата: %s\n", b.Date)
	fmt.Fprintf(&sb, "⏱ Время: %s\n", joined)
	fmt.Fprintf(&sb, "👤 Имя: %s\n", b.HolderName)
	fmt.Fprintf(&sb, "📞 Телефон: %s\n", b.HolderPhone)
	sb.WriteString("\n")
	sb.WriteString("✨ Նոր ամրագրումը պահպանված է!\n")
	fmt.Fprintf(&sb, "📅 Ամսաթիվ: %s\n", b.Date)
	fmt.Fprintf(&sb, "⏱ Ժամ: %s\n", joined)
	fmt.Fprintf(&sb, "👤 Անուն: %s\n", b.HolderName)
	fmt.Fprintf(&sb, "📞 Հեռախոսահամար: %s", b.HolderPhone)
	return sb.String()
}

// Cancellation renders the notice sent when a reservation is cancelled.
func Cancellation(date, start string) string {
	return fmt.Sprintf("Бронирование отменено: %s %s\nԱմրագրումը չեղարկվեց՝ %s %s", date, start, date, start)
}
