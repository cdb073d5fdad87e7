package sale

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by repositories when no sale exists for an ID.
var ErrNotFound = errors.New("sale not found")

// ListQuery describes pagination, ordering and filtering for sale listings.
// Name filters support the `*` wildcard; ordering accepts comma-separated
// "field [desc]" pairs over a repository-defined column whitelist.
type ListQuery struct {
	Page         int
	Size         int
	Order        string
	CustomerName string
	BranchName   string
	Status       string
}

// Repository defines persistence operations for sales. The aggregate never
// queries storage itself; it is hydrated and stored through this port.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, id string) (*Sale, error)
	Update(ctx context.Context, s *Sale) error
	Delete(ctx context.Context, id string) error
	// List returns one page of sales plus the total count across all pages.
	List(ctx context.Context, q ListQuery) ([]Sale, int, error)
}

// Dispatcher receives domain events drained from an aggregate after a
// successful operation. Delivery guarantees belong to the implementation;
// the aggregate's only obligation is to produce correct, minimal events.
type Dispatcher interface {
	Dispatch(ctx context.Context, events []Event)
}
