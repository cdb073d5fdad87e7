// Package sale implements the sales aggregate: quantity-tiered discounting,
// sale and item invariants, and change detection that decides when a mutation
// is meaningful enough to emit a domain event.
package sale

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates the lifecycle states of a sale (and of its items).
type Status string

const (
	// StatusActive marks a sale that can still be modified and settled.
	StatusActive Status = "active"
	// StatusCancelled marks a terminally cancelled sale.
	StatusCancelled Status = "cancelled"
)

// Sale is the aggregate root of a commercial transaction. It exclusively
// owns its Items: they are created, replaced and destroyed only through the
// sale's operations. Customer and branch names are denormalized snapshots
// taken when the sale happened.
//
// A Sale instance is not safe for concurrent mutation; each loaded instance
// is assumed to have a single writer.
type Sale struct {
	ID           string
	SaleNumber   string
	SaleDate     time.Time
	CustomerID   string
	CustomerName string
	BranchID     string
	BranchName   string
	TotalAmount  decimal.Decimal
	Status       Status
	Items        []Item

	events []Event
}

// NewSale constructs an active sale from pre-built items, recalculates all
// totals and records a CreatedEvent. The sale date is fixed to now and never
// changes afterwards. The new aggregate is not persisted here; that is the
// repository's job.
func NewSale(customerID, customerName, branchID, branchName, saleNumber string, items []Item, now time.Time) (*Sale, error) {
	s := &Sale{
		ID:           uuid.New().String(),
		SaleNumber:   saleNumber,
		SaleDate:     now,
		CustomerID:   customerID,
		CustomerName: customerName,
		BranchID:     branchID,
		BranchName:   branchName,
		Status:       StatusActive,
		Items:        items,
	}
	for i := range s.Items {
		s.Items[i].SaleID = s.ID
	}
	if err := s.RecalculateTotal(); err != nil {
		return nil, err
	}

	s.record(CreatedEvent{SaleID: s.ID, CustomerID: s.CustomerID, CreatedAt: s.SaleDate})
	return s, nil
}

// RecalculateTotal recomputes every item's discount and total, then sets
// TotalAmount to their sum. Must run after any item-list mutation before the
// aggregate is considered valid.
func (s *Sale) RecalculateTotal() error {
	total := decimal.Zero
	for i := range s.Items {
		if err := s.Items[i].CalculateTotal(); err != nil {
			return err
		}
		total = total.Add(s.Items[i].Total)
	}
	s.TotalAmount = total
	return nil
}

// IsActive reports whether the sale is currently active.
func (s *Sale) IsActive() bool {
	return s.Status == StatusActive
}

// Cancel marks the sale as cancelled. Cancelling an already-cancelled sale
// is a no-op. Cancellation is a terminal transition tracked by status alone
// and emits no event.
func (s *Sale) Cancel() {
	if s.Status == StatusCancelled {
		return
	}
	s.Status = StatusCancelled
}

// Update applies the incoming scalar fields and item list, tracking whether
// anything meaningfully changed. The item list is compared order-insensitively
// by matching item IDs; if it changed it is replaced wholesale and totals are
// recalculated. A ModifiedEvent is recorded only when at least one field or
// the item list actually changed, so an update carrying identical state emits
// nothing.
//
// Note that Update is also the only path from Cancelled back to Active:
// there is no dedicated reactivate operation.
func (s *Sale) Update(customerName, branchName string, status Status, items []Item, now time.Time) error {
	changed := false

	if s.CustomerName != customerName {
		s.CustomerName = customerName
		changed = true
	}
	if s.BranchName != branchName {
		s.BranchName = branchName
		changed = true
	}
	if s.Status != status {
		s.Status = status
		changed = true
	}

	if s.hasItemListChanged(items) {
		for i := range items {
			items[i].SaleID = s.ID
		}
		s.Items = items
		if err := s.RecalculateTotal(); err != nil {
			return err
		}
		changed = true
	}

	if changed {
		s.record(ModifiedEvent{SaleID: s.ID, CustomerID: s.CustomerID, ModifiedAt: now})
	}
	return nil
}

// hasItemListChanged reports whether updated differs from the current item
// list: different length, a current item without a counterpart of the same
// ID, or a matched pair with meaningful changes. Order is irrelevant.
func (s *Sale) hasItemListChanged(updated []Item) bool {
	if len(s.Items) != len(updated) {
		return true
	}

	byID := make(map[string]Item, len(updated))
	for _, it := range updated {
		byID[it.ID] = it
	}

	for _, current := range s.Items {
		match, ok := byID[current.ID]
		if !ok || current.HasMeaningfulChanges(match) {
			return true
		}
	}
	return false
}

// Events returns the domain events recorded since the last drain.
func (s *Sale) Events() []Event {
	return s.events
}

// ClearEvents drops all recorded events. Callers drain the queue exactly
// once per operation: read Events, dispatch, then clear.
func (s *Sale) ClearEvents() {
	s.events = nil
}

func (s *Sale) record(e Event) {
	s.events = append(s.events, e)
}
