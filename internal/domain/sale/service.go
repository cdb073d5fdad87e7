package sale

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ValidationError carries a structured validation result across the service
// boundary. It is data, not a panic: callers inspect Result to decide how to
// reject the input.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	fields := make([]string, len(e.Result.Errors))
	for i, fe := range e.Result.Errors {
		fields[i] = fe.Field
	}
	return fmt.Sprintf("sale validation failed: %s", strings.Join(fields, ", "))
}

// ItemInput is the caller-supplied description of one sale line. ID is set
// only on updates, to match the incoming line against an existing item;
// leaving it empty makes the line a new item.
type ItemInput struct {
	ID          string
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// CreateSaleRequest holds the input for creating a sale.
type CreateSaleRequest struct {
	SaleNumber   string
	CustomerID   string
	CustomerName string
	BranchID     string
	BranchName   string
	Items        []ItemInput
}

// UpdateSaleRequest holds the input for updating a sale. The item list
// replaces the current one wholesale when it meaningfully differs.
type UpdateSaleRequest struct {
	ID           string
	CustomerName string
	BranchName   string
	Status       Status
	Items        []ItemInput
}

// ListSalesRequest holds pagination, ordering and filter parameters.
type ListSalesRequest struct {
	Page         int
	Size         int
	Order        string
	CustomerName string
	BranchName   string
	Status       string
}

// SaleList is one page of sales with pagination metadata.
type SaleList struct {
	Items       []Sale
	CurrentPage int
	TotalPages  int
	TotalCount  int
}

// Service exposes the sale aggregate's operations to callers: it loads and
// stores aggregates through the Repository port and forwards drained domain
// events to the Dispatcher. All business decisions live on the aggregate.
type Service struct {
	sales     Repository
	events    Dispatcher
	validator *Validator
	now       func() time.Time
}

// NewService creates a sale Service with the given persistence and event
// collaborators.
func NewService(sales Repository, events Dispatcher) *Service {
	now := time.Now
	return &Service{
		sales:     sales,
		events:    events,
		validator: NewValidator(now),
		now:       now,
	}
}

// CreateSale builds the aggregate from the request, validates it, persists
// it and dispatches the recorded events. Validation failures come back as a
// *ValidationError; a quantity over the cap aborts with *QuantityLimitError
// before any aggregate exists.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest) (*Sale, error) {
	now := s.now().UTC()

	items := make([]Item, 0, len(req.Items))
	for _, in := range req.Items {
		it, err := NewItem(in.ProductID, in.ProductName, in.UnitPrice, in.Quantity, "")
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	agg, err := NewSale(req.CustomerID, req.CustomerName, req.BranchID, req.BranchName, req.SaleNumber, items, now)
	if err != nil {
		return nil, err
	}

	if res := s.validator.ValidateSale(agg); !res.Valid() {
		return nil, &ValidationError{Result: res}
	}

	if err := s.sales.Create(ctx, agg); err != nil {
		return nil, errors.Wrap(err, "create sale")
	}

	s.drain(ctx, agg)
	return agg, nil
}

// UpdateSale loads the aggregate, applies the diff-then-apply update,
// validates the result and persists it. Events are dispatched only when the
// update actually changed something; an identical submission stores nothing
// new and emits nothing.
func (s *Service) UpdateSale(ctx context.Context, req UpdateSaleRequest) (*Sale, error) {
	agg, err := s.sales.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(req.Items))
	for _, in := range req.Items {
		it, err := NewItem(in.ProductID, in.ProductName, in.UnitPrice, in.Quantity, agg.ID)
		if err != nil {
			return nil, err
		}
		if in.ID != "" {
			it.ID = in.ID
		}
		items = append(items, it)
	}

	if err := agg.Update(req.CustomerName, req.BranchName, req.Status, items, s.now().UTC()); err != nil {
		return nil, err
	}

	if res := s.validator.ValidateSale(agg); !res.Valid() {
		return nil, &ValidationError{Result: res}
	}

	if err := s.sales.Update(ctx, agg); err != nil {
		return nil, errors.Wrap(err, "update sale")
	}

	s.drain(ctx, agg)
	return agg, nil
}

// CancelSale marks the sale cancelled and persists it. Cancelling an
// already-cancelled sale succeeds without touching anything else.
func (s *Service) CancelSale(ctx context.Context, id string) (*Sale, error) {
	agg, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	agg.Cancel()

	if err := s.sales.Update(ctx, agg); err != nil {
		return nil, errors.Wrap(err, "cancel sale")
	}
	return agg, nil
}

// GetSale returns the sale with the given ID, or ErrNotFound.
func (s *Service) GetSale(ctx context.Context, id string) (*Sale, error) {
	return s.sales.GetByID(ctx, id)
}

// DeleteSale removes the sale with the given ID, or returns ErrNotFound.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	return s.sales.Delete(ctx, id)
}

// ListSales returns one page of sales matching the request filters.
// Page and size are clamped to sane defaults.
func (s *Service) ListSales(ctx context.Context, req ListSalesRequest) (*SaleList, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Size < 1 {
		req.Size = 10
	}
	if req.Size > 100 {
		req.Size = 100
	}

	items, total, err := s.sales.List(ctx, ListQuery{
		Page:         req.Page,
		Size:         req.Size,
		Order:        req.Order,
		CustomerName: req.CustomerName,
		BranchName:   req.BranchName,
		Status:       req.Status,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list sales")
	}

	return &SaleList{
		Items:       items,
		CurrentPage: req.Page,
		TotalPages:  int(math.Ceil(float64(total) / float64(req.Size))),
		TotalCount:  total,
	}, nil
}

// drain forwards recorded events to the dispatcher and clears the queue.
func (s *Service) drain(ctx context.Context, agg *Sale) {
	evs := agg.Events()
	if len(evs) == 0 {
		return
	}
	agg.ClearEvents()
	s.events.Dispatch(ctx, evs)
}
