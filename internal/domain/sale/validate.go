package sale

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const maxNameLength = 100

// FieldError is a single validation rule violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationResult collects every rule violation found on an entity.
// Validation never panics and never short-circuits: all violations are
// reported together so the caller can surface them at once.
type ValidationResult struct {
	Errors []FieldError
}

// Valid reports whether no rule was violated.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

func (r *ValidationResult) merge(other ValidationResult) {
	r.Errors = append(r.Errors, other.Errors...)
}

type saleRule func(*Sale, time.Time, *ValidationResult)

type itemRule func(*Item, *ValidationResult)

// Validator is a stateless, reusable rule set for sales and their items.
// Construct it once and invoke it many times; the clock is injected so
// time-dependent rules stay deterministic under test.
type Validator struct {
	now       func() time.Time
	saleRules []saleRule
	itemRules []itemRule
}

// NewValidator builds a Validator that evaluates "not in the future" rules
// against the given clock.
func NewValidator(now func() time.Time) *Validator {
	v := &Validator{now: now}
	v.saleRules = []saleRule{
		ruleSaleNumber,
		ruleCustomer,
		ruleBranch,
		ruleSaleActive,
		ruleSaleDate,
		ruleTotalAmount,
		ruleHasItems,
	}
	v.itemRules = []itemRule{
		ruleItemProduct,
		ruleItemQuantity,
		ruleItemUnitPrice,
		ruleItemDerived,
	}
	return v
}

// ValidateSale evaluates every aggregate-level rule and cascades into each
// item, merging the item violations into the result.
func (v *Validator) ValidateSale(s *Sale) ValidationResult {
	var res ValidationResult
	now := v.now()
	for _, rule := range v.saleRules {
		rule(s, now, &res)
	}
	for i := range s.Items {
		res.merge(v.ValidateItem(&s.Items[i]))
	}
	return res
}

// ValidateItem evaluates the field-level rules of a single item.
func (v *Validator) ValidateItem(it *Item) ValidationResult {
	var res ValidationResult
	for _, rule := range v.itemRules {
		rule(it, &res)
	}
	return res
}

var defaultValidator = NewValidator(time.Now)

// Validate checks the sale against the default wall-clock validator.
// Callers needing a deterministic clock should use a Validator directly.
func (s *Sale) Validate() ValidationResult {
	return defaultValidator.ValidateSale(s)
}

// Validate checks the item against the default rule set.
func (i *Item) Validate() ValidationResult {
	return defaultValidator.ValidateItem(i)
}

func ruleSaleNumber(s *Sale, _ time.Time, res *ValidationResult) {
	if s.SaleNumber == "" {
		res.add("saleNumber", "Sale number is required.")
	} else if len(s.SaleNumber) > 30 {
		res.add("saleNumber", "Sale number must be 30 characters or fewer.")
	}
}

func ruleCustomer(s *Sale, _ time.Time, res *ValidationResult) {
	if s.CustomerID == "" {
		res.add("customerId", "Customer ID is required.")
	}
	if s.CustomerName == "" {
		res.add("customerName", "Customer name is required.")
	} else if len(s.CustomerName) > maxNameLength {
		res.add("customerName", fmt.Sprintf("Customer name must be %d characters or fewer.", maxNameLength))
	}
}

func ruleBranch(s *Sale, _ time.Time, res *ValidationResult) {
	if s.BranchID == "" {
		res.add("branchId", "Branch ID is required.")
	}
	if s.BranchName == "" {
		res.add("branchName", "Branch name is required.")
	} else if len(s.BranchName) > maxNameLength {
		res.add("branchName", fmt.Sprintf("Branch name must be %d characters or fewer.", maxNameLength))
	}
}

// ruleSaleActive couples validity to activeness: a cancelled sale fails
// validation even when every other field is fine. This is a business rule,
// not a data-integrity check.
func ruleSaleActive(s *Sale, _ time.Time, res *ValidationResult) {
	if s.Status != StatusActive {
		res.add("status", "Sale must be active.")
	}
}

func ruleSaleDate(s *Sale, now time.Time, res *ValidationResult) {
	if s.SaleDate.IsZero() {
		res.add("saleDate", "Sale date is required.")
	} else if s.SaleDate.After(now) {
		res.add("saleDate", "Sale date cannot be in the future.")
	}
}

func ruleTotalAmount(s *Sale, _ time.Time, res *ValidationResult) {
	if s.TotalAmount.IsNegative() {
		res.add("totalAmount", "Total amount must be zero or positive.")
	}
}

func ruleHasItems(s *Sale, _ time.Time, res *ValidationResult) {
	if len(s.Items) == 0 {
		res.add("items", "At least one item is required in the sale.")
	}
}

func ruleItemProduct(it *Item, res *ValidationResult) {
	if it.ProductID == "" {
		res.add("productId", "Product ID is required.")
	}
	if it.ProductName == "" {
		res.add("productName", "Product name is required.")
	} else if len(it.ProductName) > maxNameLength {
		res.add("productName", fmt.Sprintf("Product name must be %d characters or fewer.", maxNameLength))
	}
}

// ruleItemQuantity enforces only the lower bound. The upper bound of
// MaxItemQuantity is a hard failure at construction (see NewItem), so a
// validated item can never carry it.
func ruleItemQuantity(it *Item, res *ValidationResult) {
	if it.Quantity <= 0 {
		res.add("quantity", "Quantity must be greater than 0.")
	}
}

func ruleItemUnitPrice(it *Item, res *ValidationResult) {
	if !it.UnitPrice.GreaterThan(decimal.Zero) {
		res.add("unitPrice", "Unit price must be greater than 0.")
	}
}

func ruleItemDerived(it *Item, res *ValidationResult) {
	if it.Discount.IsNegative() {
		res.add("discount", "Discount must be zero or positive.")
	}
	if it.Total.IsNegative() {
		res.add("total", "Total must be zero or positive.")
	}
}
