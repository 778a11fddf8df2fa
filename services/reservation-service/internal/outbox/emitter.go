package outbox

import (
	"context"
	"encoding/json"

	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/ledger"
)

// Emitter adapts the outbox repository to the coordinator's Events
// contract. Events are durable the moment they are inserted; the
// publisher delivers them without the booking caller waiting.
type Emitter struct {
	repo *Repository
}

func NewEmitter(repo *Repository) *Emitter {
	return &Emitter{repo: repo}
}

func (e *Emitter) SlotsBooked(ctx context.Context, evt ledger.BookedEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return e.repo.Insert(ctx, Event{
		AggregateType: "reservation",
		AggregateID:   evt.Date,
		EventType:     TopicSlotBooked,
		Payload:       payload,
	})
}

func (e *Emitter) SlotCancelled(ctx context.Context, evt ledger.CancelledEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return e.repo.Insert(ctx, Event{
		AggregateType: "reservation",
		AggregateID:   evt.Date,
		EventType:     TopicSlotCancelled,
		Payload:       payload,
	})
}

var _ ledger.Events = (*Emitter)(nil)
