// Package api exposes the sales service over HTTP. Handlers are thin: they
// decode requests, delegate to the domain service and map results and errors
// back to JSON. All JSON goes through go-faster/jx.
package api

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/brewline/sales-service/internal/domain/sale"
)

// SaleService is the slice of the domain service the HTTP layer needs.
type SaleService interface {
	CreateSale(ctx context.Context, req sale.CreateSaleRequest) (*sale.Sale, error)
	UpdateSale(ctx context.Context, req sale.UpdateSaleRequest) (*sale.Sale, error)
	GetSale(ctx context.Context, id string) (*sale.Sale, error)
	DeleteSale(ctx context.Context, id string) error
	ListSales(ctx context.Context, req sale.ListSalesRequest) (*sale.SaleList, error)
}

// Handler serves the /api/sales endpoints.
type Handler struct {
	sales SaleService
}

// NewHandler constructs a Handler around the given service.
func NewHandler(sales SaleService) *Handler {
	return &Handler{sales: sales}
}

// Routes registers all sale endpoints on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sales", h.createSale)
	mux.HandleFunc("GET /api/sales", h.listSales)
	mux.HandleFunc("GET /api/sales/{id}", h.getSale)
	mux.HandleFunc("PUT /api/sales/{id}", h.updateSale)
	mux.HandleFunc("DELETE /api/sales/{id}", h.deleteSale)
}

// writeJSON sends the encoder's buffer with the given status.
func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError maps a domain error to an HTTP status and JSON body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status  int
		details []sale.FieldError
	)

	var vErr *sale.ValidationError
	var qErr *sale.QuantityLimitError

	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
		details = vErr.Result.Errors
	case errors.As(err, &qErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, sale.ErrNotFound):
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(msg)
	if len(details) > 0 {
		e.FieldStart("details")
		e.ArrStart()
		for _, d := range details {
			e.ObjStart()
			e.FieldStart("field")
			e.Str(d.Field)
			e.FieldStart("message")
			e.Str(d.Message)
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	e.ObjEnd()
	writeJSON(w, status, e)
}

// badRequest reports a malformed request body or parameter.
func badRequest(w http.ResponseWriter, msg string) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("code")
	e.Int(http.StatusBadRequest)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()
	writeJSON(w, http.StatusBadRequest, e)
}
