package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-service/internal/models"
)

var acquired = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func classifierAsset() *models.Asset {
	return &models.Asset{
		ID:              42,
		Name:            "HVAC chiller unit",
		Status:          models.AssetActive,
		AcquisitionDate: acquired,
	}
}

func completedCorrective(daysAfterAcquisition int) models.MaintenanceRequest {
	at := acquired.AddDate(0, 0, daysAfterAcquisition)
	return models.MaintenanceRequest{
		AssetID:     42,
		Type:        models.MaintenanceCorrective,
		Status:      models.MaintenanceCompleted,
		CompletedAt: &at,
	}
}

func TestClassifyNoHistoryIsIndeterminate(t *testing.T) {
	snap := Classify(classifierAsset(), nil, nil, false, acquired.AddDate(0, 6, 0), DefaultConfig())

	assert.Equal(t, models.HealthIndeterminate, snap.Bucket)
	assert.Nil(t, snap.PredictedDaysToFail)
	assert.Zero(t, snap.CompletedCorrectives)
}

func TestClassifyIgnoresPreventiveAndOpenRequests(t *testing.T) {
	started := acquired.AddDate(0, 0, 30)
	history := []models.MaintenanceRequest{
		{AssetID: 42, Type: models.MaintenancePreventive, Status: models.MaintenanceCompleted, CompletedAt: &started},
		{AssetID: 42, Type: models.MaintenanceCorrective, Status: models.MaintenanceInProgress},
	}

	snap := Classify(classifierAsset(), history, nil, false, acquired.AddDate(0, 2, 0), DefaultConfig())
	assert.Equal(t, models.HealthIndeterminate, snap.Bucket)
	assert.Nil(t, snap.PredictedDaysToFail)
}

func TestClassifyBuckets(t *testing.T) {
	// Failures every 60 days: at day 120 and day 180.
	history := []models.MaintenanceRequest{
		completedCorrective(120),
		completedCorrective(180),
	}

	cases := []struct {
		name        string
		daysAfter   int // evaluated this many days after the last completion
		wantBucket  models.HealthBucket
		wantPredict float64
	}{
		{"well before predicted failure", 10, models.HealthSafe, 50},
		{"inside alert window", 40, models.HealthAlert, 20},
		{"inside critical window", 55, models.HealthCritical, 5},
		{"overdue floors at zero", 90, models.HealthCritical, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			asOf := acquired.AddDate(0, 0, 180+tc.daysAfter)
			snap := Classify(classifierAsset(), history, nil, false, asOf, DefaultConfig())
			assert.Equal(t, tc.wantBucket, snap.Bucket)
			require.NotNil(t, snap.PredictedDaysToFail)
			assert.InDelta(t, tc.wantPredict, *snap.PredictedDaysToFail, 0.01)
		})
	}
}

func TestClassifySingleCompletionUsesAcquisitionGap(t *testing.T) {
	history := []models.MaintenanceRequest{completedCorrective(90)}

	// Mean interval is the 90-day acquisition-to-failure gap; 80 days
	// after the completion leaves 10 predicted days.
	snap := Classify(classifierAsset(), history, nil, false, acquired.AddDate(0, 0, 170), DefaultConfig())
	assert.Equal(t, models.HealthAlert, snap.Bucket)
	require.NotNil(t, snap.PredictedDaysToFail)
	assert.InDelta(t, 10, *snap.PredictedDaysToFail, 0.01)
}

func TestClassifyMinimumHistoryThreshold(t *testing.T) {
	history := []models.MaintenanceRequest{completedCorrective(90)}
	cfg := Config{MinCompletedCorrectives: 2}

	snap := Classify(classifierAsset(), history, nil, false, acquired.AddDate(0, 4, 0), cfg)
	assert.Equal(t, models.HealthIndeterminate, snap.Bucket)
	assert.Equal(t, 1, snap.CompletedCorrectives)
}

func TestClassifyFreezesBucketDuringOpenRequest(t *testing.T) {
	history := []models.MaintenanceRequest{
		completedCorrective(120),
		completedCorrective(180),
	}
	asOf := acquired.AddDate(0, 0, 190)
	prior := Classify(classifierAsset(), history, nil, false, asOf, DefaultConfig())
	require.Equal(t, models.HealthSafe, prior.Bucket)

	// Much later the recompute would say CRITICAL, but a request is open.
	later := acquired.AddDate(0, 0, 260)
	frozen := Classify(classifierAsset(), history, &prior, true, later, DefaultConfig())
	assert.Equal(t, prior, frozen)

	// Once the request closes the bucket moves again.
	thawed := Classify(classifierAsset(), history, &prior, false, later, DefaultConfig())
	assert.Equal(t, models.HealthCritical, thawed.Bucket)
}

func TestClassifySimultaneousCompletionsDegrade(t *testing.T) {
	history := []models.MaintenanceRequest{
		completedCorrective(50),
		completedCorrective(50),
	}
	snap := Classify(classifierAsset(), history, nil, false, acquired.AddDate(0, 3, 0), DefaultConfig())
	assert.Equal(t, models.HealthIndeterminate, snap.Bucket)
}
