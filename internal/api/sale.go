package api

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/brewline/sales-service/internal/domain/sale"
)

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateSaleRequest(r)
	if err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	s, err := h.sales.CreateSale(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeSale(e, s)
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	s, err := h.sales.GetSale(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeSale(e, s)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	req, err := decodeUpdateSaleRequest(r)
	if err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	req.ID = r.PathValue("id")

	s, err := h.sales.UpdateSale(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeSale(e, s)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.sales.DeleteSale(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := sale.ListSalesRequest{
		Order:        q.Get("_order"),
		CustomerName: q.Get("customerName"),
		BranchName:   q.Get("branchName"),
		Status:       q.Get("status"),
	}
	var err error
	if req.Page, err = queryInt(q.Get("_page"), 1); err != nil {
		badRequest(w, "invalid _page parameter")
		return
	}
	if req.Size, err = queryInt(q.Get("_size"), 10); err != nil {
		badRequest(w, "invalid _size parameter")
		return
	}

	list, err := h.sales.ListSales(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for i := range list.Items {
		encodeSale(e, &list.Items[i])
	}
	e.ArrEnd()
	e.FieldStart("currentPage")
	e.Int(list.CurrentPage)
	e.FieldStart("totalPages")
	e.Int(list.TotalPages)
	e.FieldStart("totalCount")
	e.Int(list.TotalCount)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
