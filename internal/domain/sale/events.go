package sale

import "time"

// Event is a record of a significant state change on a Sale, queued on the
// aggregate during an operation and drained exactly once by the caller.
type Event interface {
	// EventName returns a stable identifier for the event type.
	EventName() string
	// OccurredAt returns when the state change happened.
	OccurredAt() time.Time
}

// CreatedEvent is emitted once when a sale is created.
type CreatedEvent struct {
	SaleID     string
	CustomerID string
	CreatedAt  time.Time
}

func (e CreatedEvent) EventName() string     { return "sale.created" }
func (e CreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// ModifiedEvent is emitted when an update meaningfully changes a sale.
// An update that changes nothing emits no event.
type ModifiedEvent struct {
	SaleID     string
	CustomerID string
	ModifiedAt time.Time
}

func (e ModifiedEvent) EventName() string     { return "sale.modified" }
func (e ModifiedEvent) OccurredAt() time.Time { return e.ModifiedAt }
