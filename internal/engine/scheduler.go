// ABOUTME: Per-frame write-ahead scheduler with watermark-banded targeting
// ABOUTME: Derives virtual play/write cursors from the device delay and avail metrics

package engine

// Plan is one frame's scheduling decision. Frames is how many frames the
// sample producer must fill into Staging before Commit.
type Plan struct {
	Frames int

	Delay int
	Avail int

	PlayCursor      int64
	WriteCursor     int64
	SafeWriteCursor int64
}

// Watermarks on queued delay, as fractions of one second of audio. A band
// rather than a single target keeps steady-state writes from oscillating
// between zero and catch-up every other frame.
func (s *Stream) lowWater() int  { return s.rate / 10 }       // 100ms
func (s *Stream) highWater() int { return s.rate / 5 }        // 200ms
func (s *Stream) target() int    { return s.rate * 15 / 100 } // 150ms

// maxFramesPerCall bounds how far ahead a single frame may generate.
func (s *Stream) maxFramesPerCall() int { return 3 * s.samplesPerInterval }

// Plan queries the device and decides how many frames to request from the
// producer this frame. Zero is a frequent, healthy outcome.
func (s *Stream) Plan() Plan {
	if !s.initialized {
		return Plan{}
	}

	delay := s.queryDelay()
	avail := s.queryAvail()

	// The device exposes no play/write cursor, only delay/avail; the
	// cursors are virtual, derived from the running write index.
	playCursor := s.runningWriteIndex - int64(delay)
	if playCursor < 0 {
		playCursor = 0
	}
	writeCursor := s.runningWriteIndex

	needed := 0
	switch {
	case delay < s.lowWater():
		needed = s.target() - delay // catch up toward the band center
	case delay < s.highWater():
		needed = s.samplesPerInterval // steady state
	default:
		needed = 0 // over the band, let it drain
	}

	if needed < 0 {
		needed = 0
	}
	if needed > avail {
		needed = avail
	}
	if max := s.maxFramesPerCall(); needed > max {
		needed = max
	}
	if needed > s.bufferFrames {
		needed = s.bufferFrames
	}

	plan := Plan{
		Frames:          needed,
		Delay:           delay,
		Avail:           avail,
		PlayCursor:      playCursor,
		WriteCursor:     writeCursor,
		SafeWriteCursor: writeCursor + int64(s.safetyMargin),
	}

	if s.markers != nil {
		m := s.markers.Current()
		m.PlayCursor = plan.PlayCursor
		m.WriteCursor = plan.WriteCursor
		m.SafeWriteCursor = plan.SafeWriteCursor
		m.WriteDelay = plan.Delay
		m.WriteAvail = plan.Avail
		m.FramesWritten = 0
	}

	return plan
}

// Commit hands the first frames of the staging buffer to the device and
// advances the write index by what the device actually accepted. The
// producer must have filled exactly plan.Frames frames; committing more than
// planned is clamped.
func (s *Stream) Commit(plan Plan, frames int) int {
	if !s.initialized || frames <= 0 {
		return 0
	}
	if frames > plan.Frames {
		frames = plan.Frames
	}
	if frames > s.bufferFrames {
		frames = s.bufferFrames
	}
	if frames <= 0 {
		return 0
	}

	wrote := s.writeWithRecovery(s.staging[:frames*bytesPerFrame], frames)

	// Advance by the actual count, never the requested one. Partial writes
	// are common; advancing by the request desynchronizes the cursors.
	s.runningWriteIndex += int64(wrote)
	s.stats.FramesWritten += int64(wrote)

	if s.markers != nil {
		s.markers.Current().FramesWritten = wrote
	}

	return wrote
}

// MarkFlip records the post-display device state into the frame's marker
// slot and completes it. Call after the frame's visual output is presented;
// the pre-write and post-flip readings together are what make drift between
// predicted and actual playback position observable.
func (s *Stream) MarkFlip() {
	if !s.initialized || s.markers == nil {
		return
	}

	delay, err := s.dev.Delay()
	if err != nil {
		delay = 0
	}
	avail, err := s.dev.Avail()
	if err != nil {
		avail = 0
	}

	m := s.markers.Current()
	m.FlipDelay = delay
	m.FlipAvail = avail
	s.markers.Advance()
}

// queryDelay reads frames queued in the device. On error it attempts one
// device-level recovery and re-queries; an unknown reading becomes zero,
// preferring to write less over writing garbage.
func (s *Stream) queryDelay() int {
	delay, err := s.dev.Delay()
	if err == nil {
		return delay
	}
	_ = s.dev.Recover(err)
	delay, err = s.dev.Delay()
	if err != nil {
		s.stats.UnknownQueries++
		return 0
	}
	return delay
}

// queryAvail reads free space in the device buffer with the same
// recover-once policy as queryDelay.
func (s *Stream) queryAvail() int {
	avail, err := s.dev.Avail()
	if err == nil {
		return avail
	}
	_ = s.dev.Recover(err)
	avail, err = s.dev.Avail()
	if err != nil {
		s.stats.UnknownQueries++
		return 0
	}
	return avail
}
