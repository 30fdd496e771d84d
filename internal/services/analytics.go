package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/process"

	"superstore-dashboard/internal/forecast"
	"superstore-dashboard/internal/loader"
	"superstore-dashboard/internal/memo"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

// Analytics owns the loaded dataset and answers every dashboard query
// over it. The dataset is immutable once set; results are memoized per
// dataset fingerprint.
type Analytics struct {
	mu       sync.RWMutex
	dataset  *models.Dataset
	csvPath  string
	loadedAt time.Time

	cache      *memo.Cache
	loaderOpts loader.Options
	order      forecast.Order
	horizon    int
	logger     *slog.Logger
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) {
		a.logger = logger
	}
}

func WithLoaderOptions(opts loader.Options) Option {
	return func(a *Analytics) {
		a.loaderOpts = opts
	}
}

// WithForecastOrder overrides the default SARIMA order.
func WithForecastOrder(order forecast.Order) Option {
	return func(a *Analytics) {
		a.order = order
	}
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		dataset: &models.Dataset{},
		cache:   memo.New(memo.WithLookupHook(observability.RecordMemoLookup)),
		order:   forecast.DefaultOrder,
		horizon: forecast.Horizon,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.loaderOpts.Logger == nil {
		a.loaderOpts.Logger = a.logger
	}
	return a
}

// LoadFromCSV parses the orders file and replaces the current dataset.
func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	start := time.Now()
	a.logger.Info("loading orders", "filename", filename)

	ds, err := loader.New(a.loaderOpts).Load(ctx, filename)
	if err != nil {
		return fmt.Errorf("load csv: %w", err)
	}

	a.SetDataset(ds)
	a.mu.Lock()
	a.csvPath = filename
	a.mu.Unlock()

	duration := time.Since(start)
	observability.RecordRowsLoaded(len(ds.Records), ds.UnmappedStates)
	a.logger.Info("orders loaded",
		"records", len(ds.Records),
		"years", ds.Years,
		"unmapped_states", ds.UnmappedStates,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(ds.Records))/duration.Seconds()),
	)
	return nil
}

// SetDataset installs ds as the current snapshot and drops results
// memoized for the previous one.
func (a *Analytics) SetDataset(ds *models.Dataset) {
	if ds == nil {
		ds = &models.Dataset{}
	}

	a.mu.Lock()
	a.dataset = ds
	a.loadedAt = time.Now()
	a.mu.Unlock()

	a.cache.Reset()
}

// SetData builds a dataset from in-memory records.
func (a *Analytics) SetData(records []models.OrderRecord) {
	a.SetDataset(loader.New(a.loaderOpts).FromRecords(records))
}

func (a *Analytics) snapshot() *models.Dataset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset
}

// Years lists the order years present in the dataset.
func (a *Analytics) Years() []int {
	return append([]int(nil), a.snapshot().Years...)
}

// Stats reports dataset and process figures for monitoring.
func (a *Analytics) Stats() map[string]any {
	ds := a.snapshot()

	a.mu.RLock()
	csvPath, loadedAt := a.csvPath, a.loadedAt
	a.mu.RUnlock()

	stats := map[string]any{
		"record_count":    len(ds.Records),
		"years":           ds.Years,
		"unmapped_states": ds.UnmappedStates,
		"fingerprint":     fmt.Sprintf("%016x", ds.Fingerprint),
		"csv_file":        csvPath,
		"loaded_at":       loadedAt,
		"memo_entries":    a.cache.Len(),
		"goroutines":      runtime.NumGoroutine(),
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			stats["rss_bytes"] = mem.RSS
			stats["rss"] = humanize.Bytes(mem.RSS)
		}
	} else {
		a.logger.Debug("process stats unavailable", "error", err)
	}

	return stats
}
