// ABOUTME: Playback stream lifecycle: open, prime, start, reconfigure, close
// ABOUTME: Owns the staging buffer and the running write index

package engine

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/ringfeed/ringfeed-go/internal/device"
)

const (
	// bytesPerFrame is one interleaved stereo S16LE sample pair.
	bytesPerFrame = 4

	// targetBufferSeconds sizes the requested device buffer. Two seconds
	// matches common native defaults and leaves the write-ahead scheduler
	// generous headroom.
	targetBufferSeconds = 2
)

// Config holds stream configuration.
type Config struct {
	SampleRate   int
	UpdateRateHz int
	Debug        bool // enables the marker ring
}

// Stream is one open playback stream. All methods must be called from the
// single goroutine running the frame loop; the engine has no internal
// locking and concurrent calls are undefined.
type Stream struct {
	id  string
	dev device.Device

	rate                  int
	requestedBufferFrames int
	bufferFrames          int // granted by the device, drives all math
	periodFrames          int

	samplesPerInterval int
	safetyMargin       int

	// runningWriteIndex counts every frame ever handed to the device. It is
	// never reset and never wraps; the virtual cursors derive from it.
	runningWriteIndex int64

	staging []byte

	markers  *MarkerRing
	recovery recoveryState
	stats    Stats

	initialized bool
}

// Stats counts scheduler and recovery events since open.
type Stats struct {
	FramesWritten  int64
	Underruns      int64
	Recoveries     int64
	DegradedFrames int64
	UnknownQueries int64
}

// Open opens and configures a playback stream through the given opener,
// primes it with silence and starts playback. The returned error is
// non-fatal to the host: a caller that gets one simply runs without audio.
func Open(cfg Config, open device.OpenFunc) (*Stream, error) {
	if cfg.UpdateRateHz <= 0 {
		return nil, fmt.Errorf("%w: update rate %d Hz", device.ErrConfigRejected, cfg.UpdateRateHz)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d Hz", device.ErrConfigRejected, cfg.SampleRate)
	}

	samplesPerInterval := cfg.SampleRate / cfg.UpdateRateHz
	requested := targetBufferSeconds * cfg.SampleRate

	dev, err := open(device.Request{
		SampleRate:   cfg.SampleRate,
		Channels:     2,
		BufferFrames: requested,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}

	granted := dev.BufferSize()
	if granted <= 0 {
		_ = dev.Close()
		return nil, fmt.Errorf("%w: device granted %d frames", device.ErrConfigRejected, granted)
	}

	s := &Stream{
		id:                    uuid.New().String(),
		dev:                   dev,
		rate:                  cfg.SampleRate,
		requestedBufferFrames: requested,
		bufferFrames:          granted,
		periodFrames:          dev.PeriodSize(),
		samplesPerInterval:    samplesPerInterval,
		safetyMargin:          samplesPerInterval / 3,
		staging:               make([]byte, granted*bytesPerFrame),
		initialized:           true,
	}

	if cfg.Debug {
		s.markers = NewMarkerRing(DefaultMarkerCapacity)
	}

	s.prime()

	log.Printf("Stream %s open: %dHz, buffer %d/%d frames, interval %d, margin %d",
		s.id[:8], s.rate, s.bufferFrames, s.requestedBufferFrames,
		s.samplesPerInterval, s.safetyMargin)

	return s, nil
}

// prime writes a short run of silence before starting playback so the first
// real frames do not race a cold device buffer. A failed first write gets
// one best-effort prepare; priming never fails the open.
func (s *Stream) prime() {
	silence := 2 * s.samplesPerInterval
	if silence > s.bufferFrames {
		silence = s.bufferFrames
	}

	n, err := s.dev.WriteFrames(s.staging[:silence*bytesPerFrame], silence)
	if err != nil {
		log.Printf("Stream %s: priming write failed: %v", s.id[:8], err)
		if perr := s.dev.Prepare(); perr != nil {
			log.Printf("Stream %s: prepare failed: %v", s.id[:8], perr)
		}
	} else {
		s.runningWriteIndex += int64(n)
	}

	if err := s.dev.Start(); err != nil {
		log.Printf("Stream %s: start failed: %v", s.id[:8], err)
	}
}

// SetUpdateRate recomputes the scheduling interval and safety margin after a
// frame-rate change. The running write index is deliberately untouched.
func (s *Stream) SetUpdateRate(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("%w: update rate %d Hz", device.ErrConfigRejected, hz)
	}
	s.samplesPerInterval = s.rate / hz
	s.safetyMargin = s.samplesPerInterval / 3
	return nil
}

// Staging returns the buffer the sample producer fills before Commit. Sized
// to the granted device buffer; never resized while the stream is open.
func (s *Stream) Staging() []byte {
	return s.staging
}

// SampleRate returns the configured rate in Hz.
func (s *Stream) SampleRate() int { return s.rate }

// BufferFrames returns the granted device buffer capacity in frames.
func (s *Stream) BufferFrames() int { return s.bufferFrames }

// SamplesPerInterval returns the steady-state frames per scheduling call.
func (s *Stream) SamplesPerInterval() int { return s.samplesPerInterval }

// SafetyMargin returns the jitter allowance in frames.
func (s *Stream) SafetyMargin() int { return s.safetyMargin }

// WriteIndex returns the total frames ever handed to the device.
func (s *Stream) WriteIndex() int64 { return s.runningWriteIndex }

// Stats returns event counters since open.
func (s *Stream) Stats() Stats { return s.stats }

// Markers returns the debug marker ring, or nil when debugging is off.
func (s *Stream) Markers() *MarkerRing { return s.markers }

// ID returns the stream identifier used in log lines.
func (s *Stream) ID() string { return s.id }

// Close drops pending audio and releases the device and staging buffer.
// Closing an already-closed stream is a no-op.
func (s *Stream) Close() {
	if !s.initialized {
		return
	}
	s.initialized = false

	if err := s.dev.Drop(); err != nil {
		log.Printf("Stream %s: drop failed: %v", s.id[:8], err)
	}
	if err := s.dev.Close(); err != nil {
		log.Printf("Stream %s: close failed: %v", s.id[:8], err)
	}
	s.staging = nil

	log.Printf("Stream %s closed after %d frames", s.id[:8], s.runningWriteIndex)
}
