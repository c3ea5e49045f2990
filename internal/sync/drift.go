// ABOUTME: Playback drift tracking with fixed-gain smoothing
// ABOUTME: Compares predicted play-cursor advance against post-flip reality

package sync

import (
	"log"
	"sync"
)

// Quality represents drift quality
type Quality int

const (
	QualityGood Quality = iota
	QualityDegraded
	QualityLost
)

// DriftTracker estimates how far actual playback progress strays from the
// one-interval-per-frame prediction. Fed one observation per completed
// debug marker: the queued delay at write time, the frames written that
// frame, and the queued delay after the display flip.
type DriftTracker struct {
	mu sync.RWMutex

	interval      int     // predicted frames played per frame
	tolerance     int     // frames of residual considered benign
	drift         float64 // smoothed residual, frames per frame
	lastResidual  int
	sampleCount   int
	smoothingRate float64
}

// NewDriftTracker creates a tracker for the given scheduling interval.
func NewDriftTracker(samplesPerInterval int) *DriftTracker {
	return &DriftTracker{
		interval:      samplesPerInterval,
		tolerance:     samplesPerInterval / 3, // the scheduler's safety margin
		smoothingRate: 0.1,                    // 10% weight to new samples
	}
}

// Observe ingests one frame's readings. Frames actually played during the
// frame is writeDelay + framesWritten - flipDelay; the prediction is one
// scheduling interval.
func (dt *DriftTracker) Observe(writeDelay, framesWritten, flipDelay int) {
	played := writeDelay + framesWritten - flipDelay
	residual := played - dt.interval

	dt.mu.Lock()
	defer dt.mu.Unlock()

	dt.lastResidual = residual

	// First observation initializes the estimate outright.
	if dt.sampleCount == 0 {
		dt.drift = float64(residual)
		dt.sampleCount++
		return
	}

	dt.drift += dt.smoothingRate * (float64(residual) - dt.drift)
	dt.sampleCount++

	if dt.sampleCount < 5 {
		log.Printf("Drift sample #%d: played=%d predicted=%d residual=%d smoothed=%.1f",
			dt.sampleCount, played, dt.interval, residual, dt.drift)
	}
}

// Drift returns the smoothed residual in frames per frame. Positive means
// the hardware is playing faster than predicted.
func (dt *DriftTracker) Drift() float64 {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	return dt.drift
}

// Stats returns the smoothed drift, the most recent residual, and quality.
func (dt *DriftTracker) Stats() (drift float64, residual int, quality Quality) {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	return dt.drift, dt.lastResidual, dt.qualityLocked()
}

// CheckQuality returns the current quality classification.
func (dt *DriftTracker) CheckQuality() Quality {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	return dt.qualityLocked()
}

func (dt *DriftTracker) qualityLocked() Quality {
	if dt.sampleCount == 0 {
		return QualityLost
	}
	if dt.drift > float64(dt.tolerance) || dt.drift < -float64(dt.tolerance) {
		return QualityDegraded
	}
	return QualityGood
}
