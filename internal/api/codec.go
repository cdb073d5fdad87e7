package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/brewline/sales-service/internal/domain/sale"
)

// decodeDecimal reads a JSON number (or a quoted number, which clients like
// to send for money) as a decimal without a float64 round-trip.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	raw, err := d.Raw()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(strings.Trim(string(raw), `"`))
}

func decodeItemInput(d *jx.Decoder) (sale.ItemInput, error) {
	var in sale.ItemInput
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			in.ID, err = d.Str()
		case "productId":
			in.ProductID, err = d.Str()
		case "productName":
			in.ProductName, err = d.Str()
		case "unitPrice":
			in.UnitPrice, err = decodeDecimal(d)
		case "quantity":
			in.Quantity, err = d.Int()
		default:
			return d.Skip()
		}
		return err
	})
	return in, err
}

func decodeItems(d *jx.Decoder) ([]sale.ItemInput, error) {
	var items []sale.ItemInput
	err := d.Arr(func(d *jx.Decoder) error {
		in, err := decodeItemInput(d)
		if err != nil {
			return err
		}
		items = append(items, in)
		return nil
	})
	return items, err
}

func decodeCreateSaleRequest(r *http.Request) (sale.CreateSaleRequest, error) {
	var req sale.CreateSaleRequest
	d := jx.Decode(r.Body, 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "saleNumber":
			req.SaleNumber, err = d.Str()
		case "customerId":
			req.CustomerID, err = d.Str()
		case "customerName":
			req.CustomerName, err = d.Str()
		case "branchId":
			req.BranchID, err = d.Str()
		case "branchName":
			req.BranchName, err = d.Str()
		case "items":
			req.Items, err = decodeItems(d)
		default:
			return d.Skip()
		}
		return err
	})
	return req, err
}

func decodeUpdateSaleRequest(r *http.Request) (sale.UpdateSaleRequest, error) {
	var req sale.UpdateSaleRequest
	d := jx.Decode(r.Body, 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "customerName":
			req.CustomerName, err = d.Str()
		case "branchName":
			req.BranchName, err = d.Str()
		case "status":
			var raw string
			if raw, err = d.Str(); err == nil {
				req.Status, err = parseStatus(raw)
			}
		case "items":
			req.Items, err = decodeItems(d)
		default:
			return d.Skip()
		}
		return err
	})
	return req, err
}

func parseStatus(raw string) (sale.Status, error) {
	switch strings.ToLower(raw) {
	case string(sale.StatusActive):
		return sale.StatusActive, nil
	case string(sale.StatusCancelled):
		return sale.StatusCancelled, nil
	default:
		return "", errors.Errorf("unknown status %q", raw)
	}
}

// encDecimal writes a decimal at currency scale as a JSON number.
func encDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.Round(2).String()))
}

func encodeItem(e *jx.Encoder, it *sale.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("productId")
	e.Str(it.ProductID)
	e.FieldStart("productName")
	e.Str(it.ProductName)
	e.FieldStart("unitPrice")
	encDecimal(e, it.UnitPrice)
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("tier")
	e.Str(string(it.Tier))
	e.FieldStart("discount")
	encDecimal(e, it.Discount)
	e.FieldStart("total")
	encDecimal(e, it.Total)
	e.FieldStart("status")
	e.Str(string(it.Status))
	e.ObjEnd()
}

func encodeSale(e *jx.Encoder, s *sale.Sale) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(s.ID)
	e.FieldStart("saleNumber")
	e.Str(s.SaleNumber)
	e.FieldStart("saleDate")
	e.Str(s.SaleDate.UTC().Format(time.RFC3339))
	e.FieldStart("customerId")
	e.Str(s.CustomerID)
	e.FieldStart("customerName")
	e.Str(s.CustomerName)
	e.FieldStart("branchId")
	e.Str(s.BranchID)
	e.FieldStart("branchName")
	e.Str(s.BranchName)
	e.FieldStart("totalAmount")
	encDecimal(e, s.TotalAmount)
	e.FieldStart("status")
	e.Str(string(s.Status))
	e.FieldStart("items")
	e.ArrStart()
	for i := range s.Items {
		encodeItem(e, &s.Items[i])
	}
	e.ArrEnd()
	e.ObjEnd()
}
