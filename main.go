// ABOUTME: Entry point for the Ringfeed demo player
// ABOUTME: Parses CLI flags and starts the frame loop and monitor

package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ringfeed/ringfeed-go/internal/app"
	"github.com/ringfeed/ringfeed-go/internal/version"
)

var (
	rate       = flag.Int("rate", 48000, "Sample rate in Hz")
	fps        = flag.Int("fps", 30, "Scheduling/update rate in Hz")
	backend    = flag.String("backend", "auto", "Audio backend: auto, alsa, oto, none")
	tone       = flag.Float64("tone", 440, "Test tone frequency in Hz")
	mp3Path    = flag.String("mp3", "", "Play an MP3 file instead of the test tone")
	loop       = flag.Bool("loop", true, "Loop the MP3 file at EOF")
	duration   = flag.Duration("duration", 0, "Stop after this long (0 = run until interrupted)")
	debug      = flag.Bool("debug", false, "Enable the timing marker ring")
	logFile    = flag.String("log-file", "ringfeed.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs = flag.Bool("stream-logs", false, "Alias for -no-tui")
)

func main() {
	flag.Parse()

	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file, the terminal belongs to the monitor
		log.SetOutput(f)
	} else {
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	runner := app.New(app.Config{
		SampleRate:   *rate,
		UpdateRateHz: *fps,
		Backend:      *backend,
		ToneHz:       *tone,
		MP3Path:      *mp3Path,
		Loop:         *loop,
		Duration:     *duration,
		Debug:        *debug || useTUI, // the monitor feeds on markers
		UseTUI:       useTUI,
	})

	// Stop cleanly on interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("Interrupted, shutting down")
		runner.Stop()
		// A second signal forces exit
		<-sigCh
		os.Exit(1)
	}()

	start := time.Now()
	if err := runner.Start(); err != nil {
		log.Fatalf("player failed: %v", err)
	}
	runner.Stop()

	log.Printf("Stopped after %v", time.Since(start).Round(time.Second))
}
