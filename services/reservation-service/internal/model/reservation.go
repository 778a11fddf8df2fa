package model

import "time"

// Reservation is one claimed slot on the booking grid. (SlotDate, Start)
// is the slot's identity and is unique in the ledger; End is derived from
// the grid granularity and stored for display only.
type Reservation struct {
	ID          int64
	SlotDate    string // "2006-01-02"
	Start       string // "15:04"
	End         string
	HolderName  string
	HolderPhone string
	RequesterID string
	CreatedAt   time.Time
}
