// ABOUTME: Test app to verify scheduler behavior against a simulated device
// ABOUTME: Injects frame jitter and underruns, then reports watermark containment

package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/ringfeed/ringfeed-go/internal/device"
	"github.com/ringfeed/ringfeed-go/internal/engine"
	"github.com/ringfeed/ringfeed-go/internal/sync"
)

var (
	rate     = flag.Int("rate", 48000, "Sample rate in Hz")
	fps      = flag.Int("fps", 30, "Update rate in Hz")
	frames   = flag.Int("frames", 900, "Simulated frames to run (900 = 30s at 30fps)")
	jitter   = flag.Float64("jitter", 0.33, "Frame-time jitter fraction (0.33 = ±33%)")
	underrun = flag.Int("underrun-every", 0, "Inject an underrun every N frames (0 = never)")
	seed     = flag.Int64("seed", 1, "Random seed for reproducible runs")
)

// simDevice models hardware that drains its queue in real time and can be
// told to fail a write.
type simDevice struct {
	bufferFrames int
	delay        int
	failNext     bool
	underruns    int
}

func (d *simDevice) WriteFrames(buf []byte, frames int) (int, error) {
	if d.failNext {
		d.failNext = false
		d.underruns++
		return 0, device.ErrUnderrun
	}
	free := d.bufferFrames - d.delay
	if frames > free {
		frames = free
	}
	d.delay += frames
	return frames, nil
}

func (d *simDevice) Delay() (int, error)          { return d.delay, nil }
func (d *simDevice) Avail() (int, error)          { return d.bufferFrames - d.delay, nil }
func (d *simDevice) Recover(writeErr error) error { return nil }
func (d *simDevice) Prepare() error               { return nil }
func (d *simDevice) Start() error                 { return nil }
func (d *simDevice) Drop() error                  { d.delay = 0; return nil }
func (d *simDevice) Close() error                 { return nil }
func (d *simDevice) BufferSize() int              { return d.bufferFrames }
func (d *simDevice) PeriodSize() int              { return d.bufferFrames / 4 }

// consume drains played frames for one frame interval of wall time.
func (d *simDevice) consume(frames int) {
	d.delay -= frames
	if d.delay < 0 {
		d.delay = 0
	}
}

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)
	rng := rand.New(rand.NewSource(*seed))

	fmt.Println("=== Ringfeed Scheduler Simulation ===")
	fmt.Printf("%d frames at %dfps, %dHz, jitter ±%.0f%%\n\n", *frames, *fps, *rate, *jitter*100)

	sim := &simDevice{bufferFrames: 2 * *rate}
	open := func(req device.Request) (device.Device, error) { return sim, nil }

	stream, err := engine.Open(engine.Config{
		SampleRate:   *rate,
		UpdateRateHz: *fps,
		Debug:        true,
	}, open)
	if err != nil {
		log.Fatalf("open failed: %v", err)
	}
	defer stream.Close()

	drift := sync.NewDriftTracker(stream.SamplesPerInterval())
	interval := stream.SamplesPerInterval()
	low, high := *rate/10, *rate/5

	contained, dipped, peaked := 0, 0, 0
	const warmup = 10

	for frame := 0; frame < *frames; frame++ {
		if *underrun > 0 && frame > 0 && frame%*underrun == 0 {
			sim.failNext = true
		}

		plan := stream.Plan()
		// The producer would fill the staging buffer here; the simulation
		// only cares about frame counts.
		stream.Commit(plan, plan.Frames)

		// Hardware plays one jittered interval of audio.
		played := interval + int(float64(interval)**jitter*(2*rng.Float64()-1))
		sim.consume(played)
		stream.MarkFlip()

		if m, ok := stream.Markers().Latest(); ok {
			drift.Observe(m.WriteDelay, m.FramesWritten, m.FlipDelay)
		}

		if frame >= warmup {
			switch {
			case sim.delay < low:
				dipped++
			case sim.delay > high:
				peaked++
			default:
				contained++
			}
		}
	}

	stats := stream.Stats()
	d, residual, quality := drift.Stats()

	fmt.Printf("frames written:   %d\n", stats.FramesWritten)
	fmt.Printf("band containment: %d in / %d under / %d over\n", contained, dipped, peaked)
	fmt.Printf("underruns:        %d injected, %d recovered, %d degraded\n",
		sim.underruns, stats.Recoveries, stats.DegradedFrames)
	fmt.Printf("drift:            %+.1f frames/frame (last residual %+d, quality %d)\n", d, residual, quality)

	if dipped+peaked > (*frames-warmup)/10 {
		log.Fatalf("containment failure: delay left the watermark band too often")
	}
	log.Printf("Simulation complete")
}
