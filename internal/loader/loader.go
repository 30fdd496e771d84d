// Package loader reads the Superstore CSV snapshot into a normalized,
// read-only dataset.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	"superstore-dashboard/internal/geo"
	"superstore-dashboard/internal/models"
)

const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf-8"

	dateLayout = "1/2/2006"

	defaultBatchSize = 2000
	defaultWorkers   = 8
)

// ErrSchema marks input that does not match the fixed CSV layout. It is
// fatal: no partial load is attempted.
var ErrSchema = errors.New("csv schema mismatch")

// RowError locates a malformed value. It matches ErrSchema under errors.Is.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() []error {
	return []error{ErrSchema, e.Err}
}

const (
	colRowID        = "Row_ID"
	colOrderID      = "Order_ID"
	colOrderDate    = "Order_Date"
	colShipDate     = "Ship_Date"
	colShipMode     = "Ship_Mode"
	colCustomerID   = "Customer_ID"
	colCustomerName = "Customer_Name"
	colSegment      = "Segment"
	colCountry      = "Country"
	colCity         = "City"
	colState        = "State"
	colPostalCode   = "Postal_Code"
	colRegion       = "Region"
	colProductID    = "Product_ID"
	colCategory     = "Category"
	colSubCategory  = "Sub_Category"
	colProductName  = "Product_Name"
	colSales        = "Sales"
	colQuantity     = "Quantity"
	colDiscount     = "Discount"
	colProfit       = "Profit"
)

// RequiredColumns is the fixed header of the snapshot. Order_ID is read
// when present but not required.
var RequiredColumns = []string{
	colRowID, colOrderDate, colShipDate, colShipMode, colCustomerID, colCustomerName,
	colSegment, colCountry, colCity, colState, colPostalCode, colRegion, colProductID,
	colCategory, colSubCategory, colProductName, colSales, colQuantity, colDiscount, colProfit,
}

type Options struct {
	Encoding  string
	Workers   int
	BatchSize int
	Logger    *slog.Logger
}

type Loader struct {
	encoding  string
	workers   int
	batchSize int
	logger    *slog.Logger
}

func New(opts Options) *Loader {
	l := &Loader{
		encoding:  strings.ToLower(opts.Encoding),
		workers:   opts.Workers,
		batchSize: opts.BatchSize,
		logger:    opts.Logger,
	}
	if l.encoding == "" {
		l.encoding = EncodingLatin1
	}
	if l.workers <= 0 {
		l.workers = defaultWorkers
	}
	if l.batchSize <= 0 {
		l.batchSize = defaultBatchSize
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load reads and normalizes the CSV at path.
func (l *Loader) Load(ctx context.Context, path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return l.Parse(ctx, f)
}

// Parse normalizes a CSV stream. Loading the same bytes twice yields
// deep-equal datasets.
func (l *Loader) Parse(ctx context.Context, r io.Reader) (*models.Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	text, err := l.decode(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrSchema)
	}

	index, err := indexHeader(rows[0])
	if err != nil {
		return nil, err
	}
	body := rows[1:]
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrSchema)
	}

	records, err := l.parseRows(ctx, body, index)
	if err != nil {
		return nil, err
	}

	return l.finish(records, xxhash.Sum64(text)), nil
}

// FromRecords builds a dataset from records that did not come from a CSV,
// deriving the time features and state codes the loader would have.
func (l *Loader) FromRecords(records []models.OrderRecord) *models.Dataset {
	out := make([]models.OrderRecord, len(records))
	copy(out, records)

	d := xxhash.New()
	for i := range out {
		t := out[i].OrderDate
		out[i].OrderDay = t.Weekday().String()
		out[i].OrderMonth = t.Month().String()
		out[i].OrderYear = t.Year()
		out[i].StateCode = ""
		fmt.Fprintf(d, "%v\n", out[i])
	}
	return l.finish(out, d.Sum64())
}

func (l *Loader) finish(records []models.OrderRecord, fingerprint uint64) *models.Dataset {
	slices.SortStableFunc(records, func(a, b models.OrderRecord) int {
		return a.OrderDate.Compare(b.OrderDate)
	})

	unmapped := deriveStateCodes(records)
	total := 0
	if len(unmapped) > 0 {
		names := make([]string, 0, len(unmapped))
		for name, n := range unmapped {
			total += n
			names = append(names, name)
		}
		sort.Strings(names)
		l.logger.Warn("rows with unmapped state excluded from map",
			"rows", total,
			"states", names,
		)
	}

	ds := &models.Dataset{
		Records:        records,
		Years:          models.YearsOf(records),
		Fingerprint:    fingerprint,
		UnmappedStates: total,
	}

	l.logger.Debug("dataset normalized",
		"records", len(records),
		"years", ds.Years,
		"fingerprint", strconv.FormatUint(ds.Fingerprint, 16),
	)
	return ds
}

func (l *Loader) decode(raw []byte) ([]byte, error) {
	switch l.encoding {
	case EncodingLatin1, "latin-1", "iso-8859-1":
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decode latin1: %w", err)
		}
		return out, nil
	case EncodingUTF8, "utf8":
		return bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", l.encoding)
	}
}

func (l *Loader) parseRows(ctx context.Context, rows [][]string, index map[string]int) ([]models.OrderRecord, error) {
	records := make([]models.OrderRecord, len(rows))
	batches := (len(rows) + l.batchSize - 1) / l.batchSize
	errs := make([]error, batches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for b := range batches {
		start := b * l.batchSize
		end := min(start+l.batchSize, len(rows))

		g.Go(func() error {
			for i := start; i < end; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				// +2: one for the header, one for 1-based lines.
				rec, err := parseRecord(rows[i], index, i+2)
				if err != nil {
					errs[b] = err
					return nil
				}
				records[i] = rec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Report the earliest bad line regardless of scheduling.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

func normalizeHeader(name string) string {
	name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

func indexHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[normalizeHeader(h)] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrSchema, strings.Join(missing, ", "))
	}
	return index, nil
}

func parseRecord(row []string, index map[string]int, line int) (models.OrderRecord, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	orderDate, err := time.Parse(dateLayout, get(colOrderDate))
	if err != nil {
		return models.OrderRecord{}, &RowError{Line: line, Column: colOrderDate, Err: err}
	}
	shipDate, err := time.Parse(dateLayout, get(colShipDate))
	if err != nil {
		return models.OrderRecord{}, &RowError{Line: line, Column: colShipDate, Err: err}
	}

	sales, err := strconv.ParseFloat(get(colSales), 64)
	if err != nil {
		return models.OrderRecord{}, &RowError{Line: line, Column: colSales, Err: err}
	}
	quantity, err := strconv.Atoi(get(colQuantity))
	if err != nil {
		return models.OrderRecord{}, &RowError{Line: line, Column: colQuantity, Err: err}
	}
	discount, err := strconv.ParseFloat(get(colDiscount), 64)
	if err != nil {
		return models.OrderRecord{}, &RowError{Line: line, Column: colDiscount, Err: err}
	}
	profit, err := strconv.ParseFloat(get(colProfit), 64)
	if err != nil {
		return models.OrderRecord{}, &RowError{Line: line, Column: colProfit, Err: err}
	}

	return models.OrderRecord{
		OrderID:      get(colOrderID),
		OrderDate:    orderDate,
		ShipDate:     shipDate,
		ShipMode:     get(colShipMode),
		CustomerID:   get(colCustomerID),
		CustomerName: get(colCustomerName),
		Segment:      get(colSegment),
		Country:      get(colCountry),
		City:         get(colCity),
		State:        get(colState),
		PostalCode:   get(colPostalCode),
		Region:       get(colRegion),
		ProductID:    get(colProductID),
		Category:     get(colCategory),
		SubCategory:  get(colSubCategory),
		ProductName:  get(colProductName),
		Sales:        sales,
		Quantity:     quantity,
		Discount:     discount,
		Profit:       profit,
		OrderDay:     orderDate.Weekday().String(),
		OrderMonth:   orderDate.Month().String(),
		OrderYear:    orderDate.Year(),
	}, nil
}

// deriveStateCodes fills StateCode in place and returns unmapped state
// names with their row counts.
func deriveStateCodes(records []models.OrderRecord) map[string]int {
	unmapped := make(map[string]int)
	for i := range records {
		code, err := geo.Code(records[i].State)
		if err != nil {
			unmapped[records[i].State]++
			continue
		}
		records[i].StateCode = code
	}
	return unmapped
}
