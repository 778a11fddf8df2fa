package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	TopicSlotBooked    = "reservations.slot.booked.v1"
	TopicSlotCancelled = "reservations.slot.cancelled.v1"
)
