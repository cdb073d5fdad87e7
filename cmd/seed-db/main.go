// Command seed-db populates a development database with demo sales.
//
// Sales are built through the domain factories rather than raw inserts so
// the seeded data carries correct discount tiers and totals.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/brewline/sales-service/internal/domain/sale"
	"github.com/brewline/sales-service/internal/postgres"
)

type seedItem struct {
	productID   string
	productName string
	unitPrice   string
	quantity    int
}

type seedSale struct {
	saleNumber   string
	customerID   string
	customerName string
	branchID     string
	branchName   string
	daysAgo      int
	items        []seedItem
}

var demoSales = []seedSale{
	{
		saleNumber:   "SAL-2026-0001",
		customerID:   "11111111-1111-1111-1111-111111111111",
		customerName: "Acme Distribution",
		branchID:     "b1000000-0000-0000-0000-000000000001",
		branchName:   "Downtown",
		daysAgo:      14,
		items: []seedItem{
			{"p1000000-0000-0000-0000-000000000001", "Espresso Blend 1kg", "24.90", 2},
			{"p1000000-0000-0000-0000-000000000002", "Ceramic Mug", "8.50", 6},
		},
	},
	{
		saleNumber:   "SAL-2026-0002",
		customerID:   "22222222-2222-2222-2222-222222222222",
		customerName: "Bluewater Cafe",
		branchID:     "b1000000-0000-0000-0000-000000000001",
		branchName:   "Downtown",
		daysAgo:      7,
		items: []seedItem{
			{"p1000000-0000-0000-0000-000000000003", "Cold Brew Bottle", "5.20", 12},
		},
	},
	{
		saleNumber:   "SAL-2026-0003",
		customerID:   "33333333-3333-3333-3333-333333333333",
		customerName: "Harbor Roasters",
		branchID:     "b1000000-0000-0000-0000-000000000002",
		branchName:   "Harborside",
		daysAgo:      2,
		items: []seedItem{
			{"p1000000-0000-0000-0000-000000000001", "Espresso Blend 1kg", "24.90", 20},
			{"p1000000-0000-0000-0000-000000000004", "Filter Papers", "3.10", 1},
		},
	},
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewSaleRepository(pool)

	slog.Info("seeding demo sales", slog.Int("count", len(demoSales)))

	for _, s := range demoSales {
		if err := seedOne(ctx, repo, s); err != nil {
			return errors.Wrapf(err, "seed sale %s", s.saleNumber)
		}
	}

	return nil
}

func seedOne(ctx context.Context, repo *postgres.SaleRepository, s seedSale) error {
	if _, err := repo.GetByID(ctx, saleID(s.saleNumber)); err == nil {
		slog.Info("sale already seeded", slog.String("sale_number", s.saleNumber))
		return nil
	} else if !errors.Is(err, sale.ErrNotFound) {
		return err
	}

	items := make([]sale.Item, 0, len(s.items))
	for _, si := range s.items {
		price, err := decimal.NewFromString(si.unitPrice)
		if err != nil {
			return errors.Wrapf(err, "parse price for %s", si.productID)
		}
		it, err := sale.NewItem(si.productID, si.productName, price, si.quantity, "")
		if err != nil {
			return errors.Wrapf(err, "build item %s", si.productID)
		}
		items = append(items, it)
	}

	agg, err := sale.NewSale(s.customerID, s.customerName, s.branchID, s.branchName,
		s.saleNumber, items, time.Now().UTC().AddDate(0, 0, -s.daysAgo))
	if err != nil {
		return err
	}
	agg.ID = saleID(s.saleNumber)
	agg.ClearEvents()

	if err := repo.Create(ctx, agg); err != nil {
		return err
	}

	slog.Info("seeded sale",
		slog.String("sale_number", s.saleNumber),
		slog.String("total", agg.TotalAmount.Round(2).String()),
	)
	return nil
}

// saleID derives a stable seed ID so reruns are idempotent.
func saleID(saleNumber string) string {
	return "seed-" + saleNumber
}
