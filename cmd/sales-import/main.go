// Command sales-import bulk-loads legacy sale exports into the database.
//
// Exports are gzipped JSONL files, one sale per line, typically produced as
// overlapping dumps from the previous system; the same sale number can show
// up in several files and must be imported only once. Files are decompressed
// and parsed concurrently; a bloom filter over already-imported sale numbers
// screens out duplicates cheaply, with an exact database check confirming
// the rare positives before a record is skipped.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/brewline/sales-service/internal/domain/sale"
	"github.com/brewline/sales-service/internal/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
	maxLineBytes  = 1 << 20
)

// saleRecord is one line of an export file.
type saleRecord struct {
	SaleNumber   string       `json:"saleNumber"`
	SaleDate     time.Time    `json:"saleDate"`
	CustomerID   string       `json:"customerId"`
	CustomerName string       `json:"customerName"`
	BranchID     string       `json:"branchId"`
	BranchName   string       `json:"branchName"`
	Items        []itemRecord `json:"items"`
}

type itemRecord struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz export files")
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

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("sales import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("sales import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files found in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	imp := &importer{
		repo:      postgres.NewSaleRepository(pool),
		pool:      pool,
		seen:      bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		validator: sale.NewValidator(time.Now),
	}

	records := make(chan saleRecord, 1024)

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(readFile(ctx, f, records))
	}

	// Close the channel once every reader is done.
	readErr := make(chan error, 1)
	go func() {
		readErr <- g.Wait()
		close(records)
	}()

	if err := imp.consume(ctx, records); err != nil {
		return err
	}
	if err := <-readErr; err != nil {
		return errors.Wrap(err, "read export files")
	}

	slog.Info("import finished",
		slog.Int64("imported", imp.imported),
		slog.Int64("duplicates", imp.duplicates),
		slog.Int64("invalid", imp.invalid),
	)
	return nil
}

// readFile returns a worker that streams one gzipped JSONL file into out.
func readFile(ctx context.Context, path string, out chan<- saleRecord) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "gzip reader for %s", path)
		}
		defer gz.Close()

		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

		var lines int64
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var rec saleRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				slog.Warn("skipping malformed line",
					slog.String("file", filepath.Base(path)), slog.Int64("line", lines+1))
				lines++
				continue
			}

			select {
			case out <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}

			lines++
			if lines%progressEvery == 0 {
				slog.Info("reading", slog.String("file", filepath.Base(path)), slog.Int64("lines", lines))
			}
		}
		return errors.Wrapf(scanner.Err(), "scan %s", path)
	}
}

type importer struct {
	repo      *postgres.SaleRepository
	pool      *pgxpool.Pool
	seen      *bloom.BloomFilter
	validator *sale.Validator

	imported   int64
	duplicates int64
	invalid    int64
}

// consume imports records sequentially, deduplicating by sale number.
func (im *importer) consume(ctx context.Context, records <-chan saleRecord) error {
	for rec := range records {
		dup, err := im.isDuplicate(ctx, rec.SaleNumber)
		if err != nil {
			return err
		}
		if dup {
			im.duplicates++
			continue
		}

		if err := im.importRecord(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// isDuplicate screens the sale number against the bloom filter and confirms
// positives against the database, since bloom membership can be spurious.
func (im *importer) isDuplicate(ctx context.Context, saleNumber string) (bool, error) {
	if !im.seen.TestOrAddString(saleNumber) {
		return false, nil
	}

	var exists bool
	err := im.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sales WHERE sale_number = $1)`, saleNumber).Scan(&exists)
	if err != nil {
		return false, errors.Wrapf(err, "check sale number %q", saleNumber)
	}
	return exists, nil
}

// importRecord builds the aggregate through the domain factories so imported
// data obeys the same business rules as data entered through the API.
// Records that violate them are counted and skipped, not fatal.
func (im *importer) importRecord(ctx context.Context, rec saleRecord) error {
	items := make([]sale.Item, 0, len(rec.Items))
	for _, ir := range rec.Items {
		it, err := sale.NewItem(ir.ProductID, ir.ProductName, ir.UnitPrice, ir.Quantity, "")
		if err != nil {
			slog.Warn("skipping sale with invalid item",
				slog.String("sale_number", rec.SaleNumber), slog.String("reason", err.Error()))
			im.invalid++
			return nil
		}
		items = append(items, it)
	}

	agg, err := sale.NewSale(rec.CustomerID, rec.CustomerName, rec.BranchID, rec.BranchName,
		rec.SaleNumber, items, rec.SaleDate.UTC())
	if err != nil {
		im.invalid++
		return nil
	}
	// Historic imports do not notify anyone.
	agg.ClearEvents()

	if res := im.validator.ValidateSale(agg); !res.Valid() {
		slog.Warn("skipping invalid sale",
			slog.String("sale_number", rec.SaleNumber), slog.Int("violations", len(res.Errors)))
		im.invalid++
		return nil
	}

	if err := im.repo.Create(ctx, agg); err != nil {
		return errors.Wrapf(err, "insert sale %q", rec.SaleNumber)
	}

	im.imported++
	if im.imported%progressEvery == 0 {
		slog.Info("imported", slog.Int64("count", im.imported))
	}
	return nil
}
