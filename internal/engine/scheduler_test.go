// ABOUTME: Tests for the write-ahead scheduler watermark and cursor math
// ABOUTME: Includes the canonical catch-up, steady-state, and drain scenarios

package engine

import (
	"testing"

	"github.com/ringfeed/ringfeed-go/internal/device"
)

func openTestStream(t *testing.T, dev *fakeDevice) *Stream {
	t.Helper()
	s, err := Open(testConfig(), dev.openFunc())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestScenarioCatchUp(t *testing.T) {
	// delay=200 is far under the low watermark (4800): the scheduler wants
	// target(7200)-200=7000, then clamps to three intervals (4800).
	dev := newFakeDevice(96000)
	s := openTestStream(t, dev)
	dev.delay = 200
	dev.avail = 90000

	plan := s.Plan()
	if plan.Frames != 4800 {
		t.Errorf("expected 4800 frames, got %d", plan.Frames)
	}
}

func TestScenarioSteadyState(t *testing.T) {
	// delay=7500 sits inside [4800, 9600): exactly one interval.
	dev := newFakeDevice(96000)
	s := openTestStream(t, dev)
	dev.delay = 7500
	dev.avail = 90000

	plan := s.Plan()
	if plan.Frames != 1600 {
		t.Errorf("expected 1600 frames, got %d", plan.Frames)
	}
}

func TestScenarioDrain(t *testing.T) {
	// delay=12000 is above the high watermark (9600): write nothing and
	// let the queue drain. This is a healthy outcome, not an error.
	dev := newFakeDevice(96000)
	s := openTestStream(t, dev)
	dev.delay = 12000
	dev.avail = 90000

	plan := s.Plan()
	if plan.Frames != 0 {
		t.Errorf("expected 0 frames, got %d", plan.Frames)
	}
}

func TestClampToAvail(t *testing.T) {
	dev := newFakeDevice(96000)
	s := openTestStream(t, dev)
	dev.delay = 200
	dev.avail = 1000

	plan := s.Plan()
	if plan.Frames != 1000 {
		t.Errorf("expected clamp to avail=1000, got %d", plan.Frames)
	}
}

func TestAvailZeroMeansNoWrite(t *testing.T) {
	dev := newFakeDevice(96000)
	s := openTestStream(t, dev)
	dev.delay = 200
	dev.avail = 0

	plan := s.Plan()
	if plan.Frames != 0 {
		t.Errorf("avail=0 must plan zero frames, got %d", plan.Frames)
	}
}

func TestNeededNeverExceedsGrantedBuffer(t *testing.T) {
	// The device granted far less than requested; no plan may exceed the
	// granted capacity no matter what delay/avail claim.
	dev := newFakeDevice(3000)
	s := openTestStream(t, dev)
	dev.avail = 1 << 20

	for delay := 0; delay < 15000; delay += 250 {
		dev.delay = delay
		plan := s.Plan()
		if plan.Frames > 3000 {
			t.Fatalf("delay=%d: planned %d frames, exceeds granted 3000", delay, plan.Frames)
		}
	}
}

func TestVirtualCursors(t *testing.T) {
	dev := newFakeDevice(96000)
	s := openTestStream(t, dev)
	dev.delay = 200
	dev.avail = 90000

	plan := s.Plan()
	idx := s.WriteIndex()
	if plan.WriteCursor != idx {
		t.Errorf("write cursor: expected %d, got %d", idx, plan.WriteCursor)
	}
	if want := idx - 200; plan.PlayCursor != want {
		t.Errorf("play cursor: expected %d, got %d", want, plan.PlayCursor)
	}
	if want := idx + 533; plan.SafeWriteCursor != want {
		t.Errorf("safe write cursor: expected %d, got %d", want, plan.SafeWriteCursor)
	}
}

func TestPlayCursorNeverNegative(t *testing.T) {
	dev := newFakeDevice(96000)
	s := openTestStream(t, dev)
	dev.delay = int(s.WriteIndex()) + 5000 // device claims more queued than ever written
	dev.avail = 90000

	plan := s.Plan()
	if plan.PlayCursor != 0 {
		t.Errorf("play cursor must clamp at zero, got %d", plan.PlayCursor)
	}
}

func TestMonotonicityUnderPartialWrites(t *testing.T) {
	dev := newFakeDevice(96000)
	s := openTestStream(t, dev)
	dev.avail = 90000
	dev.writeLimit = 700 // the device accepts fewer frames than requested

	prev := s.WriteIndex()
	for i := 0; i < 20; i++ {
		dev.delay = 200
		plan := s.Plan()
		wrote := s.Commit(plan, plan.Frames)

		if wrote > 700 {
			t.Fatalf("frame %d: device accepted at most 700, engine reports %d", i, wrote)
		}
		idx := s.WriteIndex()
		if idx < prev {
			t.Fatalf("frame %d: write index regressed %d -> %d", i, prev, idx)
		}
		if idx != prev+int64(wrote) {
			t.Fatalf("frame %d: index advanced by %d, device wrote %d", i, idx-prev, wrote)
		}
		prev = idx
	}
}

func TestWatermarkContainment(t *testing.T) {
	// Steady frame timing against a simulated device: after warm-up the
	// queued delay must stay inside the watermark band.
	dev := newFakeDevice(96000)
	dev.simulate = true
	s := openTestStream(t, dev)

	low, high := s.lowWater(), s.highWater()
	interval := s.SamplesPerInterval()

	const warmup = 5
	for frame := 0; frame < 120; frame++ {
		plan := s.Plan()
		s.Commit(plan, plan.Frames)
		dev.consume(interval) // hardware plays one interval per frame

		if frame >= warmup {
			if dev.delay < low || dev.delay > high {
				t.Fatalf("frame %d: delay %d outside band [%d, %d]", frame, dev.delay, low, high)
			}
		}
	}
}

func TestUnknownDelayRecoversOnceThenZero(t *testing.T) {
	dev := newFakeDevice(96000)
	s := openTestStream(t, dev)
	dev.avail = 90000
	dev.delayErr = device.ErrBusy // persists across the re-query

	plan := s.Plan()

	// Unknown delay reads as zero queued: deep catch-up, clamped to three
	// intervals.
	if plan.Frames != 4800 {
		t.Errorf("expected conservative catch-up of 4800, got %d", plan.Frames)
	}
	if dev.recoverCalls != 1 {
		t.Errorf("expected exactly one recovery attempt, got %d", dev.recoverCalls)
	}
	if s.Stats().UnknownQueries != 1 {
		t.Errorf("expected one unknown-query count, got %d", s.Stats().UnknownQueries)
	}
}

func TestCommitClampsToPlan(t *testing.T) {
	dev := newFakeDevice(96000)
	s := openTestStream(t, dev)
	dev.delay = 7500
	dev.avail = 90000

	plan := s.Plan() // 1600
	wrote := s.Commit(plan, 5000)
	if wrote != 1600 {
		t.Errorf("commit must clamp to the planned count, got %d", wrote)
	}
}

func TestCommitZeroIsNoop(t *testing.T) {
	dev := newFakeDevice(96000)
	s := openTestStream(t, dev)
	dev.delay = 12000
	dev.avail = 90000

	writesBefore := len(dev.writes)
	plan := s.Plan()
	if got := s.Commit(plan, plan.Frames); got != 0 {
		t.Errorf("expected zero frames written, got %d", got)
	}
	if len(dev.writes) != writesBefore {
		t.Error("zero-frame commit must not touch the device")
	}
}
