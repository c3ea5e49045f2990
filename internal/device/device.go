// ABOUTME: Playback device abstraction over the native audio backends
// ABOUTME: Defines the device contract and the shared error taxonomy

package device

import "errors"

// Sentinel errors. Everything the engine needs to react to is one of these;
// backend-specific detail rides along in the wrapped chain.
var (
	// ErrUnavailable means the native library is missing or no device opened.
	ErrUnavailable = errors.New("audio device unavailable")
	// ErrConfigRejected means every candidate device refused the format.
	ErrConfigRejected = errors.New("audio configuration rejected")
	// ErrUnderrun means the device buffer drained before new data arrived.
	ErrUnderrun = errors.New("audio buffer underrun")
	// ErrBusy means a transient device condition; retry may succeed.
	ErrBusy = errors.New("audio device busy")
	// ErrNotSupported means the backend lacks the queried capability.
	ErrNotSupported = errors.New("operation not supported")
)

// Request describes the stream a caller wants opened. BufferFrames is a
// request only; the backend reports what it actually granted.
type Request struct {
	SampleRate   int
	Channels     int
	BufferFrames int
}

// Device is one open playback stream. All counts are in frames. Calls must
// come from a single goroutine; a Device has no internal ordering guarantees
// beyond that.
type Device interface {
	// WriteFrames hands interleaved S16LE frames to the device and returns
	// how many it accepted. Partial writes are normal, not errors.
	WriteFrames(buf []byte, frames int) (int, error)

	// Delay returns frames queued ahead of the playback position.
	Delay() (int, error)

	// Avail returns frames of free space in the device buffer.
	Avail() (int, error)

	// Recover attempts device-level recovery from a failed write.
	Recover(writeErr error) error

	// Prepare resets the device into a writable state.
	Prepare() error

	// Start begins playback of queued frames.
	Start() error

	// Drop discards queued frames without playing them.
	Drop() error

	// Close releases the device. Safe to call more than once.
	Close() error

	// BufferSize returns the granted device buffer size in frames.
	BufferSize() int

	// PeriodSize returns the granted period size in frames.
	PeriodSize() int
}

// OpenFunc opens and configures a playback device.
type OpenFunc func(req Request) (Device, error)

// OpenNone is an OpenFunc that never opens a device. It exists so the
// no-audio path exercises the same open failure handling as a missing
// library.
func OpenNone(req Request) (Device, error) {
	return nil, ErrUnavailable
}
