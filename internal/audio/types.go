// ABOUTME: Audio type definitions
// ABOUTME: Defines the stream format and frame size helpers

package audio

// Format describes a PCM stream format.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// BytesPerFrame returns the size of one frame (one sample per channel).
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BitDepth / 8
}

// DefaultFormat is interleaved 16-bit stereo, the only layout the engine
// schedules.
var DefaultFormat = Format{SampleRate: 48000, Channels: 2, BitDepth: 16}
