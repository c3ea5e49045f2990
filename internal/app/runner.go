// ABOUTME: Main player orchestration: device, engine, source, and monitor
// ABOUTME: Runs the single-threaded frame loop that feeds the device

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ringfeed/ringfeed-go/internal/audio"
	"github.com/ringfeed/ringfeed-go/internal/device"
	"github.com/ringfeed/ringfeed-go/internal/engine"
	"github.com/ringfeed/ringfeed-go/internal/sync"
	"github.com/ringfeed/ringfeed-go/internal/ui"
)

// Config holds player configuration
type Config struct {
	SampleRate   int
	UpdateRateHz int
	Backend      string // alsa, oto, none, or auto
	ToneHz       float64
	MP3Path      string
	Loop         bool
	Duration     time.Duration // 0 runs until stopped
	Debug        bool
	UseTUI       bool
}

// Runner drives the whole player. The frame loop, the engine, and the
// source all run on one goroutine; only the TUI program lives elsewhere.
type Runner struct {
	config  Config
	stream  *engine.Stream
	backend string
	source  audio.Source
	drift   *sync.DriftTracker
	tuiProg *tea.Program
	ctx     context.Context
	cancel  context.CancelFunc

	// flipPending marks a committed frame whose marker has not flipped yet.
	flipPending bool
}

// New creates a runner
func New(config Config) *Runner {
	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start opens the stream and runs the frame loop until Stop or the
// configured duration. A missing audio device is not an error: the loop
// still runs, there is just nothing to feed.
func (r *Runner) Start() error {
	source, err := buildSource(r.config)
	if err != nil {
		return err
	}
	r.source = source

	r.stream, r.backend = openStream(r.config)
	if r.stream != nil {
		r.drift = sync.NewDriftTracker(r.stream.SamplesPerInterval())
	}

	if r.config.UseTUI {
		prog, err := ui.Run()
		if err != nil {
			return fmt.Errorf("failed to start monitor: %w", err)
		}
		r.tuiProg = prog

		go func() {
			_, _ = r.tuiProg.Run()
			r.cancel() // quitting the TUI stops the player
		}()
	}

	if r.config.Duration > 0 {
		time.AfterFunc(r.config.Duration, r.cancel)
	}

	r.frameLoop()
	return nil
}

// frameLoop ticks at the update rate. Everything inside a tick happens on
// this goroutine; the engine requires that.
func (r *Runner) frameLoop() {
	interval := time.Second / time.Duration(r.config.UpdateRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.frame()
		}
	}
}

// frame is one scheduling cycle: flip the previous frame, then plan,
// produce, and commit the current one.
func (r *Runner) frame() {
	if r.stream == nil {
		return
	}

	// The previous frame's marker completes here, one tick after its write.
	// Flipping immediately after Commit would bracket a span with no
	// playback in it and the drift tracker would read every frame as a full
	// interval behind.
	if r.flipPending {
		r.stream.MarkFlip()
		if markers := r.stream.Markers(); markers != nil {
			if m, ok := markers.Latest(); ok {
				r.drift.Observe(m.WriteDelay, m.FramesWritten, m.FlipDelay)
			}
		}
	}

	plan := r.stream.Plan()
	filled := r.source.Fill(r.stream.Staging(), plan.Frames)
	r.stream.Commit(plan, filled)
	r.flipPending = true

	r.publishStatus(plan)
}

// publishStatus pushes one frame's stats to the monitor, or logs them
// periodically in headless mode.
func (r *Runner) publishStatus(plan engine.Plan) {
	stats := r.stream.Stats()

	msg := ui.StatusMsg{
		Backend:    r.backend,
		SampleRate: r.config.SampleRate,
		UpdateRate: r.config.UpdateRateHz,
		Granted:    r.stream.BufferFrames(),
		Requested:  2 * r.config.SampleRate,
		LowWater:   r.config.SampleRate / 10,
		HighWater:  r.config.SampleRate / 5,
		Delay:      plan.Delay,
		Avail:      plan.Avail,
		WriteIndex: r.stream.WriteIndex(),
		PlayCursor: plan.PlayCursor,
		State:      r.stream.RecoveryState(),
		Underruns:  stats.Underruns,
		Recoveries: stats.Recoveries,
		Degraded:   stats.DegradedFrames,
	}
	if r.drift != nil {
		msg.Drift, msg.Residual, msg.DriftQuality = r.drift.Stats()
	}

	if r.tuiProg != nil {
		r.tuiProg.Send(msg)
	} else if r.stream.WriteIndex()%int64(10*r.config.SampleRate) < int64(r.config.SampleRate/r.config.UpdateRateHz) {
		log.Printf("delay=%d avail=%d written=%d state=%s underruns=%d",
			plan.Delay, plan.Avail, r.stream.WriteIndex(), r.stream.RecoveryState(), stats.Underruns)
	}
}

// Stop stops the player
func (r *Runner) Stop() {
	r.cancel()

	if r.stream != nil {
		r.stream.Close()
	}
	if closer, ok := r.source.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if r.tuiProg != nil {
		r.tuiProg.Quit()
	}
}

// openStream tries the configured backend, or the alsa-then-oto chain for
// auto. Returns a nil stream when nothing opens; the caller runs silent.
func openStream(cfg Config) (*engine.Stream, string) {
	engineCfg := engine.Config{
		SampleRate:   cfg.SampleRate,
		UpdateRateHz: cfg.UpdateRateHz,
		Debug:        cfg.Debug,
	}

	for _, backend := range backendChain(cfg.Backend) {
		var open device.OpenFunc
		switch backend {
		case "alsa":
			open = device.OpenALSA
		case "oto":
			open = device.OpenOto
		default:
			open = device.OpenNone
		}

		stream, err := engine.Open(engineCfg, open)
		if err != nil {
			log.Printf("Backend %s unavailable: %v", backend, err)
			continue
		}
		return stream, backend
	}

	log.Printf("No audio backend available, running silent")
	return nil, ""
}

// backendChain expands the backend flag into an ordered candidate list.
func backendChain(backend string) []string {
	switch backend {
	case "auto", "":
		return []string{"alsa", "oto"}
	case "none":
		return nil
	default:
		return []string{backend}
	}
}

// buildSource picks the sample source: an MP3 file when given, a test tone
// otherwise.
func buildSource(cfg Config) (audio.Source, error) {
	if cfg.MP3Path != "" {
		src, err := audio.NewMP3Source(cfg.MP3Path, cfg.Loop)
		if err != nil {
			return nil, err
		}
		if src.SampleRate() != cfg.SampleRate {
			log.Printf("MP3 rate %dHz differs from stream rate %dHz; pitch will be off",
				src.SampleRate(), cfg.SampleRate)
		}
		return src, nil
	}

	tone := cfg.ToneHz
	if tone <= 0 {
		tone = 440
	}
	return audio.NewSineSource(tone, cfg.SampleRate, 0.25), nil
}
