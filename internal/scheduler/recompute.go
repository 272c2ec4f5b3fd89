// Package scheduler runs the periodic recomputation of depreciation and
// health snapshots across the asset population. Assets are processed
// independently: one bad asset is reported in the run summary, never fatal
// to the batch, and cancellation stops before the next asset without
// rolling back what already committed.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"asset-service/internal/depreciation"
	"asset-service/internal/health"
	"asset-service/internal/logging"
	"asset-service/internal/models"
)

// Store is the persistence surface the batch needs.
type Store interface {
	AllAssets(ctx context.Context) ([]models.Asset, error)
	RequestsByAsset(ctx context.Context, assetID int64) ([]models.MaintenanceRequest, error)
	HasOpenRequest(ctx context.Context, assetID int64) (bool, error)
	LatestHealth(ctx context.Context, assetID int64) (*models.HealthSnapshot, error)
	SaveHealth(ctx context.Context, snap models.HealthSnapshot) error
	SaveDepreciation(ctx context.Context, assetID int64, rate, accumulated, bookValue decimal.Decimal, asOf time.Time) error
}

// AssetError is one asset's failure inside a batch run.
type AssetError struct {
	AssetID int64  `json:"asset_id"`
	Message string `json:"message"`
}

// RunSummary reports the outcome of one batch run.
type RunSummary struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Processed  int          `json:"processed"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	Errors     []AssetError `json:"errors,omitempty"`
}

// Recomputer runs the batch.
type Recomputer struct {
	store      Store
	logger     *logging.Logger
	classifier health.Config
	workers    int
	cron       *cron.Cron
}

// New constructs a Recomputer with the given worker count.
func New(store Store, logger *logging.Logger, classifier health.Config, workers int) *Recomputer {
	if workers < 1 {
		workers = 1
	}
	return &Recomputer{
		store:      store,
		logger:     logger,
		classifier: classifier,
		workers:    workers,
	}
}

// Schedule registers the nightly run under the given cron expression and
// starts the scheduler.
func (r *Recomputer) Schedule(spec string) error {
	r.cron = cron.New()
	_, err := r.cron.AddFunc(spec, func() {
		summary := r.Run(context.Background(), time.Now())
		r.logger.Infof("Scheduled recompute finished: processed=%d skipped=%d failed=%d",
			summary.Processed, summary.Skipped, summary.Failed)
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the cron scheduler; an in-flight run finishes its current
// assets.
func (r *Recomputer) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// Run recomputes every asset's snapshots as of the given timestamp.
// Re-running with the same asOf and no new events writes the same values;
// the batch is idempotent.
func (r *Recomputer) Run(ctx context.Context, asOf time.Time) RunSummary {
	summary := RunSummary{StartedAt: time.Now()}

	assets, err := r.store.AllAssets(ctx)
	if err != nil {
		r.logger.Errorf("Recompute aborted, cannot list assets: %v", err)
		summary.Failed = 1
		summary.Errors = []AssetError{{Message: err.Error()}}
		summary.FinishedAt = time.Now()
		return summary
	}

	tasks := make(chan models.Asset)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for asset := range tasks {
				err := r.recomputeAsset(ctx, &asset, asOf)
				mu.Lock()
				if err != nil {
					summary.Failed++
					summary.Errors = append(summary.Errors, AssetError{AssetID: asset.ID, Message: err.Error()})
				} else {
					summary.Processed++
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, asset := range assets {
		if asset.Status == models.AssetDecommissioned {
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			continue
		}
		select {
		case <-ctx.Done():
			// Stop handing out work; committed assets stay committed.
			break dispatch
		case tasks <- asset:
		}
	}
	close(tasks)
	wg.Wait()

	summary.FinishedAt = time.Now()
	if summary.Failed > 0 {
		r.logger.Warnf("Recompute finished with %d failures out of %d assets", summary.Failed, len(assets))
	}
	return summary
}

func (r *Recomputer) recomputeAsset(ctx context.Context, asset *models.Asset, asOf time.Time) error {
	res, err := depreciation.Compute(asset, asOf)
	if err != nil {
		return err
	}
	if err := r.store.SaveDepreciation(ctx, asset.ID, res.MonthlyRate, res.Accumulated, res.BookValue, asOf); err != nil {
		return err
	}

	history, err := r.store.RequestsByAsset(ctx, asset.ID)
	if err != nil {
		return err
	}
	open, err := r.store.HasOpenRequest(ctx, asset.ID)
	if err != nil {
		return err
	}
	prior, err := r.store.LatestHealth(ctx, asset.ID)
	if err != nil {
		return err
	}

	snap := health.Classify(asset, history, prior, open, asOf, r.classifier)
	return r.store.SaveHealth(ctx, snap)
}
