// ABOUTME: Tests for drift tracking and quality classification
// ABOUTME: Verifies smoothing behavior and tolerance thresholds

package sync

import (
	"testing"
)

func TestDriftStartsLost(t *testing.T) {
	dt := NewDriftTracker(1600)

	if q := dt.CheckQuality(); q != QualityLost {
		t.Errorf("expected QualityLost before any samples, got %d", q)
	}
}

func TestDriftZeroWhenPredictionHolds(t *testing.T) {
	dt := NewDriftTracker(1600)

	// delay 7200 at write, 1600 written, delay back to 7200 at flip:
	// exactly one interval played.
	for i := 0; i < 20; i++ {
		dt.Observe(7200, 1600, 7200)
	}

	if d := dt.Drift(); d != 0 {
		t.Errorf("expected zero drift, got %f", d)
	}
	if q := dt.CheckQuality(); q != QualityGood {
		t.Errorf("expected QualityGood, got %d", q)
	}
}

func TestDriftConvergesOnConsistentResidual(t *testing.T) {
	dt := NewDriftTracker(1600)

	// Hardware consistently plays 100 frames more than predicted.
	for i := 0; i < 200; i++ {
		dt.Observe(7200, 1700, 7200)
	}

	d := dt.Drift()
	if d < 95 || d > 105 {
		t.Errorf("expected drift near +100, got %f", d)
	}
}

func TestDriftBeyondToleranceDegrades(t *testing.T) {
	dt := NewDriftTracker(1600) // tolerance 533

	for i := 0; i < 200; i++ {
		dt.Observe(7200, 2400, 7200) // +800 frames per frame
	}

	if q := dt.CheckQuality(); q != QualityDegraded {
		t.Errorf("expected QualityDegraded, got %d", q)
	}
}

func TestDriftSmoothingDampensOutliers(t *testing.T) {
	dt := NewDriftTracker(1600)

	for i := 0; i < 50; i++ {
		dt.Observe(7200, 1600, 7200)
	}
	// One wild outlier should barely move the smoothed estimate.
	dt.Observe(7200, 6000, 7200)

	d := dt.Drift()
	if d > 500 {
		t.Errorf("outlier moved drift too far: %f", d)
	}

	_, residual, _ := dt.Stats()
	if residual != 4400 {
		t.Errorf("raw residual should be 4400, got %d", residual)
	}
}
