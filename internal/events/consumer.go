package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"asset-service/internal/health"
	"asset-service/internal/logging"
	"asset-service/internal/models"
)

// Store is the persistence surface the consumer needs to refresh health
// snapshots.
type Store interface {
	GetAsset(ctx context.Context, id int64) (*models.Asset, error)
	RequestsByAsset(ctx context.Context, assetID int64) ([]models.MaintenanceRequest, error)
	HasOpenRequest(ctx context.Context, assetID int64) (bool, error)
	LatestHealth(ctx context.Context, assetID int64) (*models.HealthSnapshot, error)
	SaveHealth(ctx context.Context, snap models.HealthSnapshot) error
}

// Broadcaster pushes live updates to dashboard clients of a branch.
type Broadcaster interface {
	Broadcast(branchID int64, payload interface{})
}

// Alerter notifies operators when an asset turns critical.
type Alerter interface {
	AlertCritical(ctx context.Context, asset *models.Asset, snap models.HealthSnapshot)
}

// Consumer reads maintenance events and keeps health snapshots current.
type Consumer struct {
	reader      *kafka.Reader
	store       Store
	broadcaster Broadcaster
	alerter     Alerter
	classifier  health.Config
	logger      *logging.Logger
	cancel      context.CancelFunc
}

// NewConsumer constructs a Consumer in the given consumer group.
func NewConsumer(brokers []string, topic, groupID string, store Store, broadcaster Broadcaster, alerter Alerter, classifier health.Config, logger *logging.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		store:       store,
		broadcaster: broadcaster,
		alerter:     alerter,
		classifier:  classifier,
		logger:      logger,
	}
}

// Start consumes until Close is called.
func (c *Consumer) Start(wg *sync.WaitGroup) {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Maintenance event consumer started")
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
					c.logger.Infof("Maintenance event consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				continue
			}
			c.handle(ctx, msg.Value)
		}
	}()
}

// Close stops the consume loop and releases the reader.
func (c *Consumer) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	if err := c.reader.Close(); err != nil {
		c.logger.Errorf("Failed to close event reader: %v", err)
	}
}

func (c *Consumer) handle(ctx context.Context, payload []byte) {
	var evt models.MaintenanceEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		c.logger.Errorf("Invalid event payload: %v", err)
		return
	}

	if c.broadcaster != nil {
		c.broadcaster.Broadcast(evt.BranchID, evt)
	}

	// Only terminal transitions change the classification inputs; a
	// completion also thaws a frozen bucket.
	if evt.Event != models.EventMaintenanceCompleted && evt.Event != models.EventMaintenanceCancelled {
		return
	}
	if err := c.refreshHealth(ctx, evt); err != nil {
		c.logger.Errorf("Health refresh failed for asset %d: %v", evt.AssetID, err)
	}
}

func (c *Consumer) refreshHealth(ctx context.Context, evt models.MaintenanceEvent) error {
	asset, err := c.store.GetAsset(ctx, evt.AssetID)
	if err != nil {
		return err
	}
	history, err := c.store.RequestsByAsset(ctx, asset.ID)
	if err != nil {
		return err
	}
	open, err := c.store.HasOpenRequest(ctx, asset.ID)
	if err != nil {
		return err
	}
	prior, err := c.store.LatestHealth(ctx, asset.ID)
	if err != nil {
		return err
	}

	snap := health.Classify(asset, history, prior, open, time.Now(), c.classifier)
	if err := c.store.SaveHealth(ctx, snap); err != nil {
		return err
	}

	if c.broadcaster != nil {
		c.broadcaster.Broadcast(asset.BranchID, snap)
	}
	turnedCritical := snap.Bucket == models.HealthCritical &&
		(prior == nil || prior.Bucket != models.HealthCritical)
	if turnedCritical && c.alerter != nil {
		c.alerter.AlertCritical(ctx, asset, snap)
	}
	return nil
}
