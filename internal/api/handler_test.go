package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewline/sales-service/internal/domain/sale"
)

// --- Mock implementations ---

type mockSaleService struct {
	sale        *sale.Sale
	list        *sale.SaleList
	err         error
	lastCreate  sale.CreateSaleRequest
	lastUpdate  sale.UpdateSaleRequest
	lastList    sale.ListSalesRequest
	deletedID   string
	requestedID string
}

func (m *mockSaleService) CreateSale(_ context.Context, req sale.CreateSaleRequest) (*sale.Sale, error) {
	m.lastCreate = req
	return m.sale, m.err
}

func (m *mockSaleService) UpdateSale(_ context.Context, req sale.UpdateSaleRequest) (*sale.Sale, error) {
	m.lastUpdate = req
	return m.sale, m.err
}

func (m *mockSaleService) GetSale(_ context.Context, id string) (*sale.Sale, error) {
	m.requestedID = id
	return m.sale, m.err
}

func (m *mockSaleService) DeleteSale(_ context.Context, id string) error {
	m.deletedID = id
	return m.err
}

func (m *mockSaleService) ListSales(_ context.Context, req sale.ListSalesRequest) (*sale.SaleList, error) {
	m.lastList = req
	return m.list, m.err
}

// --- Helpers ---

func newTestSale(t *testing.T) *sale.Sale {
	t.Helper()
	it, err := sale.NewItem("p1", "Espresso Blend", decimal.RequireFromString("100"), 10, "")
	require.NoError(t, err)

	s, err := sale.NewSale("c1", "Acme Distribution", "b1", "Downtown", "SAL-2026-0001",
		[]sale.Item{it}, time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	s.ClearEvents()
	return s
}

func serve(svc SaleService, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	NewHandler(svc).Routes(mux)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// --- Tests ---

func TestCreateSale(t *testing.T) {
	s := newTestSale(t)
	svc := &mockSaleService{sale: s}

	rec := serve(svc, http.MethodPost, "/api/sales", `{
		"saleNumber": "SAL-2026-0001",
		"customerId": "c1",
		"customerName": "Acme Distribution",
		"branchId": "b1",
		"branchName": "Downtown",
		"items": [
			{"productId": "p1", "productName": "Espresso Blend", "unitPrice": 100, "quantity": 10}
		]
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, "SAL-2026-0001", svc.lastCreate.SaleNumber)
	require.Len(t, svc.lastCreate.Items, 1)
	assert.Equal(t, 10, svc.lastCreate.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(100).Equal(svc.lastCreate.Items[0].UnitPrice))

	body := decodeBody(t, rec)
	assert.Equal(t, s.ID, body["id"])
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, float64(800), body["totalAmount"])

	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "twenty_percent", item["tier"])
	assert.Equal(t, float64(200), item["discount"])
}

func TestCreateSale_QuotedUnitPrice(t *testing.T) {
	svc := &mockSaleService{sale: newTestSale(t)}

	rec := serve(svc, http.MethodPost, "/api/sales", `{
		"saleNumber": "SAL-1",
		"items": [{"productId": "p1", "productName": "X", "unitPrice": "8.50", "quantity": 2}]
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, decimal.RequireFromString("8.50").Equal(svc.lastCreate.Items[0].UnitPrice))
}

func TestCreateSale_MalformedBody(t *testing.T) {
	svc := &mockSaleService{}

	rec := serve(svc, http.MethodPost, "/api/sales", `{"saleNumber": `)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["message"], "invalid request body")
}

func TestCreateSale_ValidationError(t *testing.T) {
	svc := &mockSaleService{err: &sale.ValidationError{
		Result: sale.ValidationResult{Errors: []sale.FieldError{
			{Field: "saleNumber", Message: "Sale number is required."},
			{Field: "items", Message: "At least one item is required in the sale."},
		}},
	}}

	rec := serve(svc, http.MethodPost, "/api/sales", `{"customerId": "c1"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(http.StatusBadRequest), body["code"])

	details := body["details"].([]any)
	require.Len(t, details, 2)
	first := details[0].(map[string]any)
	assert.Equal(t, "saleNumber", first["field"])
	assert.Equal(t, "Sale number is required.", first["message"])
}

func TestCreateSale_QuantityLimit(t *testing.T) {
	svc := &mockSaleService{err: &sale.QuantityLimitError{ProductID: "p1", Quantity: 25}}

	rec := serve(svc, http.MethodPost, "/api/sales", `{"saleNumber": "SAL-1"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["message"], "cannot sell more than 20 units")
}

func TestGetSale(t *testing.T) {
	s := newTestSale(t)
	svc := &mockSaleService{sale: s}

	rec := serve(svc, http.MethodGet, "/api/sales/"+s.ID, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.ID, svc.requestedID)

	body := decodeBody(t, rec)
	assert.Equal(t, "SAL-2026-0001", body["saleNumber"])
	assert.Equal(t, "2026-03-10T14:30:00Z", body["saleDate"])
}

func TestGetSale_NotFound(t *testing.T) {
	svc := &mockSaleService{err: sale.ErrNotFound}

	rec := serve(svc, http.MethodGet, "/api/sales/missing", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(http.StatusNotFound), body["code"])
}

func TestUpdateSale(t *testing.T) {
	s := newTestSale(t)
	svc := &mockSaleService{sale: s}

	rec := serve(svc, http.MethodPut, "/api/sales/"+s.ID, `{
		"customerName": "Acme Wholesale",
		"branchName": "Downtown",
		"status": "active",
		"items": [
			{"id": "i1", "productId": "p1", "productName": "Espresso Blend", "unitPrice": 90, "quantity": 10}
		]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.ID, svc.lastUpdate.ID, "path ID wins over any body ID")
	assert.Equal(t, "Acme Wholesale", svc.lastUpdate.CustomerName)
	assert.Equal(t, sale.StatusActive, svc.lastUpdate.Status)
	require.Len(t, svc.lastUpdate.Items, 1)
	assert.Equal(t, "i1", svc.lastUpdate.Items[0].ID)
}

func TestUpdateSale_UnknownStatus(t *testing.T) {
	svc := &mockSaleService{}

	rec := serve(svc, http.MethodPut, "/api/sales/s1", `{"status": "archived"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["message"], "unknown status")
}

func TestDeleteSale(t *testing.T) {
	svc := &mockSaleService{}

	rec := serve(svc, http.MethodDelete, "/api/sales/s1", "")

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "s1", svc.deletedID)
	assert.Empty(t, rec.Body.Bytes())
}

func TestDeleteSale_NotFound(t *testing.T) {
	svc := &mockSaleService{err: sale.ErrNotFound}

	rec := serve(svc, http.MethodDelete, "/api/sales/missing", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSales(t *testing.T) {
	s := newTestSale(t)
	svc := &mockSaleService{list: &sale.SaleList{
		Items:       []sale.Sale{*s},
		CurrentPage: 2,
		TotalPages:  3,
		TotalCount:  25,
	}}

	rec := serve(svc, http.MethodGet,
		"/api/sales?_page=2&_size=10&_order=saleDate+desc&customerName=Acme*&status=active", "")

	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2, svc.lastList.Page)
	assert.Equal(t, 10, svc.lastList.Size)
	assert.Equal(t, "saleDate desc", svc.lastList.Order)
	assert.Equal(t, "Acme*", svc.lastList.CustomerName)
	assert.Equal(t, "active", svc.lastList.Status)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["currentPage"])
	assert.Equal(t, float64(3), body["totalPages"])
	assert.Equal(t, float64(25), body["totalCount"])
	require.Len(t, body["items"].([]any), 1)
}

func TestListSales_Defaults(t *testing.T) {
	svc := &mockSaleService{list: &sale.SaleList{CurrentPage: 1, TotalPages: 0, TotalCount: 0}}

	rec := serve(svc, http.MethodGet, "/api/sales", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.lastList.Page)
	assert.Equal(t, 10, svc.lastList.Size)
}

func TestListSales_BadPage(t *testing.T) {
	svc := &mockSaleService{}

	rec := serve(svc, http.MethodGet, "/api/sales?_page=abc", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["message"], "_page")
}

func TestWriteError_Internal(t *testing.T) {
	svc := &mockSaleService{err: errors.New("pool exhausted")}

	rec := serve(svc, http.MethodGet, "/api/sales/s1", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "internal server error", body["message"], "internal details must not leak")
}
