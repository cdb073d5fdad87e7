package sale

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
}

func fieldsOf(res ValidationResult) []string {
	fields := make([]string, len(res.Errors))
	for i, fe := range res.Errors {
		fields[i] = fe.Field
	}
	return fields
}

func TestValidateSale_Valid(t *testing.T) {
	v := NewValidator(fixedClock)
	s := newTestSale(t, mustItem(t, "p1", "10", 2))

	res := v.ValidateSale(s)
	assert.True(t, res.Valid(), "unexpected violations: %v", res.Errors)
}

func TestValidateSale_CancelledFails(t *testing.T) {
	v := NewValidator(fixedClock)
	s := newTestSale(t, mustItem(t, "p1", "10", 2))
	s.Cancel()

	res := v.ValidateSale(s)
	require.False(t, res.Valid())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "status", res.Errors[0].Field)
	assert.Equal(t, "Sale must be active.", res.Errors[0].Message)
}

func TestValidateSale_CollectsAllViolations(t *testing.T) {
	v := NewValidator(fixedClock)
	s := &Sale{Status: StatusActive}

	res := v.ValidateSale(s)
	require.False(t, res.Valid())

	fields := fieldsOf(res)
	assert.Contains(t, fields, "saleNumber")
	assert.Contains(t, fields, "customerId")
	assert.Contains(t, fields, "customerName")
	assert.Contains(t, fields, "branchId")
	assert.Contains(t, fields, "branchName")
	assert.Contains(t, fields, "saleDate")
	assert.Contains(t, fields, "items")
}

func TestValidateSale_FieldRules(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Sale)
		wantField string
	}{
		{
			name:      "empty sale number",
			mutate:    func(s *Sale) { s.SaleNumber = "" },
			wantField: "saleNumber",
		},
		{
			name:      "sale number too long",
			mutate:    func(s *Sale) { s.SaleNumber = strings.Repeat("X", 31) },
			wantField: "saleNumber",
		},
		{
			name:      "customer name too long",
			mutate:    func(s *Sale) { s.CustomerName = strings.Repeat("a", 101) },
			wantField: "customerName",
		},
		{
			name:      "branch name too long",
			mutate:    func(s *Sale) { s.BranchName = strings.Repeat("b", 101) },
			wantField: "branchName",
		},
		{
			name:      "future sale date",
			mutate:    func(s *Sale) { s.SaleDate = fixedClock().Add(time.Minute) },
			wantField: "saleDate",
		},
		{
			name:      "negative total",
			mutate:    func(s *Sale) { s.TotalAmount = decimal.NewFromInt(-1) },
			wantField: "totalAmount",
		},
		{
			name:      "no items",
			mutate:    func(s *Sale) { s.Items = nil },
			wantField: "items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(fixedClock)
			s := newTestSale(t, mustItem(t, "p1", "10", 2))
			tt.mutate(s)

			res := v.ValidateSale(s)
			require.False(t, res.Valid())
			assert.Contains(t, fieldsOf(res), tt.wantField)
		})
	}
}

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Item)
		wantField string
	}{
		{
			name:      "missing product ID",
			mutate:    func(it *Item) { it.ProductID = "" },
			wantField: "productId",
		},
		{
			name:      "missing product name",
			mutate:    func(it *Item) { it.ProductName = "" },
			wantField: "productName",
		},
		{
			name:      "product name too long",
			mutate:    func(it *Item) { it.ProductName = strings.Repeat("n", 101) },
			wantField: "productName",
		},
		{
			name:      "zero quantity",
			mutate:    func(it *Item) { it.Quantity = 0 },
			wantField: "quantity",
		},
		{
			name:      "zero unit price",
			mutate:    func(it *Item) { it.UnitPrice = decimal.Zero },
			wantField: "unitPrice",
		},
		{
			name:      "negative discount",
			mutate:    func(it *Item) { it.Discount = decimal.NewFromInt(-1) },
			wantField: "discount",
		},
		{
			name:      "negative total",
			mutate:    func(it *Item) { it.Total = decimal.NewFromInt(-5) },
			wantField: "total",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(fixedClock)
			it := mustItem(t, "p1", "10", 2)
			tt.mutate(&it)

			res := v.ValidateItem(&it)
			require.False(t, res.Valid())
			assert.Contains(t, fieldsOf(res), tt.wantField)
		})
	}
}

func TestValidateSale_CascadesIntoItems(t *testing.T) {
	v := NewValidator(fixedClock)
	s := newTestSale(t, mustItem(t, "p1", "10", 2))
	s.Items[0].ProductID = ""

	res := v.ValidateSale(s)
	require.False(t, res.Valid())
	assert.Contains(t, fieldsOf(res), "productId")
}
