// ABOUTME: ALSA-backed playback device using the runtime libasound binding
// ABOUTME: Tries an ordered list of device names and maps errno codes to the shared taxonomy

//go:build linux

package device

import (
	"errors"
	"fmt"
	"log"

	"github.com/ringfeed/ringfeed-go/internal/alsa"
)

// Device names tried in order: the system default first, then increasingly
// raw hardware paths.
var alsaCandidates = []string{"default", "plughw:0,0", "hw:0,0"}

type alsaDevice struct {
	handle       alsa.Handle
	bufferFrames int
	periodFrames int
	bytesPerFrm  int
	closed       bool
}

// OpenALSA opens the first candidate PCM that accepts the requested format:
// interleaved S16LE at the requested rate with soft resampling enabled, so a
// rate mismatch resamples instead of failing the open.
func OpenALSA(req Request) (Device, error) {
	alsa.Load()

	var handle alsa.Handle
	var lastErr error
	opened := false
	for _, name := range alsaCandidates {
		h, err := alsa.Open(name)
		if err != nil {
			lastErr = err
			continue
		}

		latencyUs := uint32(int64(req.BufferFrames) * 1000000 / int64(req.SampleRate))
		err = alsa.SetParams(h, alsa.FormatS16LE, alsa.AccessRWInterleaved,
			uint32(req.Channels), uint32(req.SampleRate), true, latencyUs)
		if err != nil {
			lastErr = err
			_ = alsa.Close(h)
			continue
		}

		handle = h
		opened = true
		log.Printf("ALSA device %q opened at %dHz", name, req.SampleRate)
		break
	}
	if !opened {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}

	// The device may grant less than requested. The granted value, not the
	// requested one, drives all cursor math downstream.
	buffer, period, err := alsa.GetParams(handle)
	if err != nil {
		var errno alsa.Errno
		if errors.As(err, &errno) && errno == alsa.ENOSYS {
			buffer = req.BufferFrames
			period = req.BufferFrames / 4
		} else {
			_ = alsa.Close(handle)
			return nil, fmt.Errorf("%w: query granted params: %v", ErrConfigRejected, err)
		}
	}
	if buffer != req.BufferFrames {
		log.Printf("ALSA granted %d frames (requested %d), period %d", buffer, req.BufferFrames, period)
	}

	return &alsaDevice{
		handle:       handle,
		bufferFrames: buffer,
		periodFrames: period,
		bytesPerFrm:  req.Channels * 2,
	}, nil
}

func (d *alsaDevice) WriteFrames(buf []byte, frames int) (int, error) {
	n, err := alsa.WriteInterleaved(d.handle, buf, frames)
	if err != nil {
		return 0, mapErrno(err)
	}
	return n, nil
}

func (d *alsaDevice) Delay() (int, error) {
	frames, err := alsa.Delay(d.handle)
	if err != nil {
		return 0, mapErrno(err)
	}
	return frames, nil
}

func (d *alsaDevice) Avail() (int, error) {
	frames, err := alsa.AvailUpdate(d.handle)
	if err != nil {
		return 0, mapErrno(err)
	}
	return frames, nil
}

func (d *alsaDevice) Recover(writeErr error) error {
	var errno alsa.Errno
	if !errors.As(writeErr, &errno) {
		// Not an ALSA code; a prepare is the most generic reset available.
		return d.Prepare()
	}
	if err := alsa.Recover(d.handle, errno); err != nil {
		return mapErrno(err)
	}
	return nil
}

func (d *alsaDevice) Prepare() error {
	if err := alsa.Prepare(d.handle); err != nil {
		return mapErrno(err)
	}
	return nil
}

func (d *alsaDevice) Start() error {
	if err := alsa.Start(d.handle); err != nil {
		return mapErrno(err)
	}
	return nil
}

func (d *alsaDevice) Drop() error {
	if err := alsa.Drop(d.handle); err != nil {
		return mapErrno(err)
	}
	return nil
}

func (d *alsaDevice) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if err := alsa.Close(d.handle); err != nil {
		return mapErrno(err)
	}
	return nil
}

func (d *alsaDevice) BufferSize() int { return d.bufferFrames }
func (d *alsaDevice) PeriodSize() int { return d.periodFrames }

// mapErrno folds an ALSA errno into the shared taxonomy while keeping the
// errno in the chain for Recover.
func mapErrno(err error) error {
	var errno alsa.Errno
	if !errors.As(err, &errno) {
		return err
	}
	switch {
	case errno.IsUnderrun():
		return fmt.Errorf("%w: %w", ErrUnderrun, errno)
	case errno == alsa.EAGAIN, errno == alsa.ESTRPIPE, errno == alsa.EBADFD:
		return fmt.Errorf("%w: %w", ErrBusy, errno)
	case errno == alsa.ENODEV, errno == alsa.ENOENT:
		return fmt.Errorf("%w: %w", ErrUnavailable, errno)
	case errno == alsa.ENOSYS:
		return fmt.Errorf("%w: %w", ErrNotSupported, errno)
	default:
		return fmt.Errorf("%w: %w", ErrBusy, errno)
	}
}
