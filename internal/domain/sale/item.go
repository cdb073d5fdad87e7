package sale

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityLimitError indicates a line item exceeds the per-product quantity
// cap. It is a hard failure: the caller bypassed pre-validation, so the
// operation aborts instead of producing a validation result.
type QuantityLimitError struct {
	ProductID string
	Quantity  int
}

func (e *QuantityLimitError) Error() string {
	return fmt.Sprintf("cannot sell more than %d units of product %s (got %d)", MaxItemQuantity, e.ProductID, e.Quantity)
}

// Item is a single product line inside a Sale. Product name and unit price
// are denormalized snapshots taken at sale time. Discount, Tier and Total are
// always derived from UnitPrice and Quantity; they are never set directly
// once CalculateTotal has run.
type Item struct {
	ID          string
	SaleID      string
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Tier        Tier
	Discount    decimal.Decimal
	Total       decimal.Decimal
	Status      Status
}

// NewItem constructs a fully-computed active item for the given sale.
// It fails with *QuantityLimitError when quantity exceeds MaxItemQuantity;
// no partially-built item is returned.
func NewItem(productID, productName string, unitPrice decimal.Decimal, quantity int, saleID string) (Item, error) {
	it := Item{
		ID:          uuid.New().String(),
		SaleID:      saleID,
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Status:      StatusActive,
	}
	if err := it.CalculateTotal(); err != nil {
		return Item{}, err
	}
	return it, nil
}

// CalculateTotal recomputes Discount, Tier and Total from the current
// UnitPrice and Quantity. It is idempotent: unchanged inputs yield identical
// results. Quantities over MaxItemQuantity fail with *QuantityLimitError.
func (i *Item) CalculateTotal() error {
	if i.Quantity > MaxItemQuantity {
		return &QuantityLimitError{ProductID: i.ProductID, Quantity: i.Quantity}
	}

	i.Discount, i.Tier = ComputeDiscount(i.UnitPrice, i.Quantity)
	i.Total = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Sub(i.Discount)
	return nil
}

// HasMeaningfulChanges reports whether other differs from i in any field
// that affects pricing: product, unit price or quantity. Derived fields are
// excluded since they are functions of the compared ones.
func (i Item) HasMeaningfulChanges(other Item) bool {
	return i.ProductID != other.ProductID ||
		!i.UnitPrice.Equal(other.UnitPrice) ||
		i.Quantity != other.Quantity
}
