// ABOUTME: Scripted in-memory device for engine tests
// ABOUTME: Supports injected errors, partial writes, and simulated queue drain

package engine

import "github.com/ringfeed/ringfeed-go/internal/device"

// fakeDevice implements device.Device with fully deterministic behavior.
// When simulate is true, delay grows with every accepted write and the test
// drains it with consume, mimicking steady hardware playback.
type fakeDevice struct {
	bufferFrames int
	periodFrames int

	delay    int
	avail    int
	simulate bool

	// writeErrs is consumed one entry per WriteFrames call; nil entries
	// mean success.
	writeErrs  []error
	writeLimit int // max frames accepted per write; 0 means unlimited

	delayErr error
	availErr error

	writes       []int
	recoverCalls int
	prepareCalls int
	startCalls   int
	dropCalls    int
	closeCalls   int
}

func newFakeDevice(bufferFrames int) *fakeDevice {
	return &fakeDevice{
		bufferFrames: bufferFrames,
		periodFrames: bufferFrames / 4,
		avail:        bufferFrames,
	}
}

func (d *fakeDevice) openFunc() device.OpenFunc {
	return func(req device.Request) (device.Device, error) {
		return d, nil
	}
}

func (d *fakeDevice) nextWriteErr() error {
	if len(d.writeErrs) == 0 {
		return nil
	}
	err := d.writeErrs[0]
	d.writeErrs = d.writeErrs[1:]
	return err
}

func (d *fakeDevice) WriteFrames(buf []byte, frames int) (int, error) {
	if err := d.nextWriteErr(); err != nil {
		return 0, err
	}
	if d.writeLimit > 0 && frames > d.writeLimit {
		frames = d.writeLimit
	}
	d.writes = append(d.writes, frames)
	if d.simulate {
		d.delay += frames
		d.avail = d.bufferFrames - d.delay
		if d.avail < 0 {
			d.avail = 0
		}
	}
	return frames, nil
}

// consume drains frames from the simulated queue, as playback would.
func (d *fakeDevice) consume(frames int) {
	d.delay -= frames
	if d.delay < 0 {
		d.delay = 0
	}
	d.avail = d.bufferFrames - d.delay
}

func (d *fakeDevice) Delay() (int, error) {
	if d.delayErr != nil {
		return 0, d.delayErr
	}
	return d.delay, nil
}

func (d *fakeDevice) Avail() (int, error) {
	if d.availErr != nil {
		return 0, d.availErr
	}
	return d.avail, nil
}

func (d *fakeDevice) Recover(writeErr error) error {
	d.recoverCalls++
	return nil
}

func (d *fakeDevice) Prepare() error {
	d.prepareCalls++
	return nil
}

func (d *fakeDevice) Start() error {
	d.startCalls++
	return nil
}

func (d *fakeDevice) Drop() error {
	d.dropCalls++
	return nil
}

func (d *fakeDevice) Close() error {
	d.closeCalls++
	return nil
}

func (d *fakeDevice) BufferSize() int { return d.bufferFrames }
func (d *fakeDevice) PeriodSize() int { return d.periodFrames }

// totalWritten sums every accepted write, priming included.
func (d *fakeDevice) totalWritten() int {
	total := 0
	for _, n := range d.writes {
		total += n
	}
	return total
}
