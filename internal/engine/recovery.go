// ABOUTME: Underrun detection and write recovery state machine
// ABOUTME: One recovery and one retry per frame, then degrade to silence

package engine

import (
	"errors"
	"log"

	"github.com/ringfeed/ringfeed-go/internal/device"
)

// recoveryState tracks the per-frame write state machine:
// Healthy -> WriteFailed -> Recovering -> (Healthy | Degraded).
type recoveryState int

const (
	stateHealthy recoveryState = iota
	stateWriteFailed
	stateRecovering
	stateDegraded
)

func (r recoveryState) String() string {
	switch r {
	case stateHealthy:
		return "healthy"
	case stateWriteFailed:
		return "write-failed"
	case stateRecovering:
		return "recovering"
	case stateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// RecoveryState returns the state left behind by the most recent write.
func (s *Stream) RecoveryState() string {
	return s.recovery.String()
}

// writeWithRecovery performs one device write with the recovery policy: a
// failed write gets one device-level recovery and one identical retry. A
// failed retry degrades this frame to silence; the next frame starts fresh
// from Healthy. Repeated failure never blocks or panics, the stream just
// stays silent until the device comes back.
func (s *Stream) writeWithRecovery(buf []byte, frames int) int {
	// Each frame attempts a fresh cycle; Degraded never sticks.
	s.recovery = stateHealthy

	n, err := s.dev.WriteFrames(buf, frames)
	if err == nil {
		return n
	}

	s.recovery = stateWriteFailed
	underrun := errors.Is(err, device.ErrUnderrun)
	if underrun {
		s.stats.Underruns++
		if s.markers != nil {
			log.Printf("Stream %s: underrun after %d frames", s.id[:8], s.runningWriteIndex)
		}
	}

	s.recovery = stateRecovering
	if rerr := s.dev.Recover(err); rerr != nil && s.markers != nil {
		log.Printf("Stream %s: device recovery failed: %v", s.id[:8], rerr)
	}

	n, err = s.dev.WriteFrames(buf, frames)
	if err != nil || n == 0 {
		s.recovery = stateDegraded
		s.stats.DegradedFrames++
		return 0
	}

	s.recovery = stateHealthy
	s.stats.Recoveries++
	return n
}
