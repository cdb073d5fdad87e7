package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brewline/sales-service/internal/domain/sale"
)

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by PostgreSQL. Items are
// stored in their own table but have no lifecycle of their own: every write
// goes through the owning sale, and updates rewrite the item set wholesale,
// mirroring what the aggregate does in memory.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository using the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

const insertSaleSQL = `INSERT INTO sales
	(id, sale_number, sale_date, customer_id, customer_name, branch_id, branch_name, total_amount, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const insertItemSQL = `INSERT INTO sale_items
	(id, sale_id, product_id, product_name, unit_price, quantity, tier, discount, total, status, position)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Create persists a new sale and its items in a single transaction.
// Monetary values are rounded to currency scale here, at the boundary.
func (r *SaleRepository) Create(ctx context.Context, s *sale.Sale) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertSaleSQL,
			s.ID, s.SaleNumber, s.SaleDate, s.CustomerID, s.CustomerName,
			s.BranchID, s.BranchName, s.TotalAmount.Round(2), string(s.Status),
		)
		if err != nil {
			return errors.Wrapf(err, "insert sale %q", s.ID)
		}
		return insertItems(ctx, tx, s)
	})
}

// GetByID loads a sale and its items, or returns sale.ErrNotFound.
func (r *SaleRepository) GetByID(ctx context.Context, id string) (*sale.Sale, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, sale_number, sale_date, customer_id, customer_name,
		branch_id, branch_name, total_amount, status FROM sales WHERE id = $1`, id)

	s, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sale.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get sale %q", id)
	}

	items, err := r.loadItems(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	s.Items = items[id]
	return s, nil
}

// Update rewrites the sale row and replaces its item set in a transaction.
func (r *SaleRepository) Update(ctx context.Context, s *sale.Sale) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE sales SET customer_name = $2, branch_name = $3,
			total_amount = $4, status = $5, updated_at = now() WHERE id = $1`,
			s.ID, s.CustomerName, s.BranchName, s.TotalAmount.Round(2), string(s.Status),
		)
		if err != nil {
			return errors.Wrapf(err, "update sale %q", s.ID)
		}
		if tag.RowsAffected() == 0 {
			return sale.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, s.ID); err != nil {
			return errors.Wrapf(err, "clear items of sale %q", s.ID)
		}
		return insertItems(ctx, tx, s)
	})
}

// Delete removes a sale; its items go with it via ON DELETE CASCADE.
func (r *SaleRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete sale %q", id)
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrNotFound
	}
	return nil
}

// orderColumns whitelists the fields a caller may order listings by.
var orderColumns = map[string]string{
	"saledate":     "sale_date",
	"salenumber":   "sale_number",
	"customername": "customer_name",
	"branchname":   "branch_name",
	"totalamount":  "total_amount",
	"status":       "status",
}

// List returns one page of sales matching the query plus the total count.
func (r *SaleRepository) List(ctx context.Context, q sale.ListQuery) ([]sale.Sale, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.CustomerName != "" {
		where = append(where, "customer_name ILIKE "+arg(wildcardPattern(q.CustomerName)))
	}
	if q.BranchName != "" {
		where = append(where, "branch_name ILIKE "+arg(wildcardPattern(q.BranchName)))
	}
	if q.Status != "" {
		where = append(where, "lower(status) = lower("+arg(q.Status)+")")
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM sales"+cond, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count sales")
	}

	query := `SELECT id, sale_number, sale_date, customer_id, customer_name,
		branch_id, branch_name, total_amount, status FROM sales` + cond +
		" ORDER BY " + orderClause(q.Order) +
		" LIMIT " + arg(q.Size) + " OFFSET " + arg((q.Page-1)*q.Size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list sales")
	}
	defer rows.Close()

	var (
		sales []sale.Sale
		ids   []string
	)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan sale")
		}
		sales = append(sales, *s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate sales")
	}

	if len(ids) > 0 {
		items, err := r.loadItems(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range sales {
			sales[i].Items = items[sales[i].ID]
		}
	}

	return sales, total, nil
}

// orderClause translates a user-supplied ordering string such as
// "saleDate desc, customerName" into a safe ORDER BY expression. Unknown
// fields and malformed parts fall back to the default sale_date ordering.
func orderClause(order string) string {
	var parts []string
	for _, piece := range strings.Split(order, ",") {
		fields := strings.Fields(piece)
		if len(fields) == 0 || len(fields) > 2 {
			continue
		}
		col, ok := orderColumns[strings.ToLower(fields[0])]
		if !ok {
			continue
		}
		dir := "ASC"
		if len(fields) == 2 {
			switch strings.ToLower(fields[1]) {
			case "desc":
				dir = "DESC"
			case "asc":
			default:
				continue
			}
		}
		parts = append(parts, col+" "+dir)
	}
	if len(parts) == 0 {
		return "sale_date ASC"
	}
	return strings.Join(parts, ", ")
}

// wildcardPattern converts the public `*` wildcard into SQL's `%`.
func wildcardPattern(s string) string {
	return strings.ReplaceAll(s, "*", "%")
}

func insertItems(ctx context.Context, tx pgx.Tx, s *sale.Sale) error {
	for pos, it := range s.Items {
		_, err := tx.Exec(ctx, insertItemSQL,
			it.ID, s.ID, it.ProductID, it.ProductName, it.UnitPrice.Round(2),
			it.Quantity, string(it.Tier), it.Discount.Round(2), it.Total.Round(2),
			string(it.Status), pos,
		)
		if err != nil {
			return errors.Wrapf(err, "insert item %q of sale %q", it.ID, s.ID)
		}
	}
	return nil
}

// loadItems fetches the items of the given sales in one query, grouped by
// sale ID and ordered by their position within each sale.
func (r *SaleRepository) loadItems(ctx context.Context, saleIDs []string) (map[string][]sale.Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sale_id, product_id, product_name, unit_price,
		quantity, tier, discount, total, status FROM sale_items
		WHERE sale_id = ANY($1) ORDER BY sale_id, position`, saleIDs)
	if err != nil {
		return nil, errors.Wrap(err, "load sale items")
	}
	defer rows.Close()

	items := make(map[string][]sale.Item)
	for rows.Next() {
		var (
			it           sale.Item
			tier, status string
		)
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.UnitPrice,
			&it.Quantity, &tier, &it.Discount, &it.Total, &status); err != nil {
			return nil, errors.Wrap(err, "scan sale item")
		}
		it.Tier = sale.Tier(tier)
		it.Status = sale.Status(status)
		items[it.SaleID] = append(items[it.SaleID], it)
	}
	return items, rows.Err()
}

func scanSale(row pgx.Row) (*sale.Sale, error) {
	var (
		s      sale.Sale
		status string
	)
	err := row.Scan(&s.ID, &s.SaleNumber, &s.SaleDate, &s.CustomerID, &s.CustomerName,
		&s.BranchID, &s.BranchName, &s.TotalAmount, &status)
	if err != nil {
		return nil, err
	}
	s.Status = sale.Status(status)
	return &s, nil
}
