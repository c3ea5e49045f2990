// ABOUTME: Portable playback device over the oto library
// ABOUTME: Emulates delay/avail queries from a caller-side frame queue

package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// otoDevice adapts oto's pull-based player to the push-based Device
// contract. Written frames land in an internal queue; oto's playback
// goroutine drains it through Read. The queue plus oto's own unplayed
// buffer stand in for the hardware delay metric.
type otoDevice struct {
	mu           sync.Mutex
	queue        []byte
	closed       bool
	ctx          *oto.Context
	player       *oto.Player
	bufferFrames int
	periodFrames int
	bytesPerFrm  int
	started      bool
}

// OpenOto opens the portable oto backend with the requested buffer depth.
func OpenOto(req Request) (Device, error) {
	op := &oto.NewContextOptions{
		SampleRate:   req.SampleRate,
		ChannelCount: req.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(req.BufferFrames) * time.Second / time.Duration(req.SampleRate) / 4,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	<-readyChan

	d := &otoDevice{
		ctx:          ctx,
		bufferFrames: req.BufferFrames,
		periodFrames: req.BufferFrames / 4,
		bytesPerFrm:  req.Channels * 2,
	}
	d.player = ctx.NewPlayer(d)

	return d, nil
}

// Read feeds queued frames to oto. An empty queue yields silence so the
// player keeps running; the real engine treats that as drained, not failed.
func (d *otoDevice) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := copy(p, d.queue)
	d.queue = d.queue[n:]

	if n < len(p) {
		for i := n; i < len(p); i++ {
			p[i] = 0
		}
		n = len(p)
	}
	return n, nil
}

func (d *otoDevice) WriteFrames(buf []byte, frames int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrUnavailable
	}

	free := d.bufferFrames - len(d.queue)/d.bytesPerFrm
	if free <= 0 {
		return 0, nil
	}
	if frames > free {
		frames = free
	}

	d.queue = append(d.queue, buf[:frames*d.bytesPerFrm]...)
	return frames, nil
}

func (d *otoDevice) Delay() (int, error) {
	d.mu.Lock()
	queued := len(d.queue) / d.bytesPerFrm
	d.mu.Unlock()

	if d.player != nil {
		queued += d.player.BufferedSize() / d.bytesPerFrm
	}
	return queued, nil
}

func (d *otoDevice) Avail() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	free := d.bufferFrames - len(d.queue)/d.bytesPerFrm
	if free < 0 {
		free = 0
	}
	return free, nil
}

// Recover is a no-op: oto never underruns from the caller's point of view,
// it plays silence instead.
func (d *otoDevice) Recover(writeErr error) error { return nil }

func (d *otoDevice) Prepare() error { return nil }

func (d *otoDevice) Start() error {
	d.mu.Lock()
	started := d.started
	d.started = true
	d.mu.Unlock()

	if !started {
		d.player.Play()
	}
	return nil
}

func (d *otoDevice) Drop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.queue = nil
	return nil
}

func (d *otoDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.queue = nil
	d.mu.Unlock()

	if d.player != nil {
		_ = d.player.Close()
	}
	if d.ctx != nil {
		_ = d.ctx.Suspend()
	}
	return nil
}

func (d *otoDevice) BufferSize() int { return d.bufferFrames }
func (d *otoDevice) PeriodSize() int { return d.periodFrames }
