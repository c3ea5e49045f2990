// ABOUTME: Sample sources feeding the write-ahead engine
// ABOUTME: Sine test tone and looping MP3 file playback via go-mp3

package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// Source supplies interleaved S16LE stereo frames on demand. Call sizes are
// irregular, zero included; implementations keep their own phase or read
// position across calls and never reset it.
type Source interface {
	// Fill writes exactly frames frames into dst and returns how many
	// carried real signal; the remainder, if any, is silence.
	Fill(dst []byte, frames int) int
}

// SineSource generates a continuous test tone. Phase carries across calls
// so irregular request sizes produce no discontinuities.
type SineSource struct {
	freq      float64
	rate      int
	amplitude float64
	phase     float64
}

// NewSineSource creates a tone generator. Amplitude is 0..1 of full scale.
func NewSineSource(freq float64, sampleRate int, amplitude float64) *SineSource {
	if amplitude < 0 {
		amplitude = 0
	}
	if amplitude > 1 {
		amplitude = 1
	}
	return &SineSource{
		freq:      freq,
		rate:      sampleRate,
		amplitude: amplitude,
	}
}

func (s *SineSource) Fill(dst []byte, frames int) int {
	step := 2 * math.Pi * s.freq / float64(s.rate)
	scale := s.amplitude * 32767

	for i := 0; i < frames; i++ {
		v := uint16(int16(scale * math.Sin(s.phase)))
		binary.LittleEndian.PutUint16(dst[i*4:], v)
		binary.LittleEndian.PutUint16(dst[i*4+2:], v)

		s.phase += step
		if s.phase > 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
	return frames
}

// MP3Source streams frames from an MP3 file. go-mp3 always decodes to
// 16-bit stereo, which matches the engine's only supported layout.
type MP3Source struct {
	file    *os.File
	decoder *mp3.Decoder
	loop    bool
	done    bool
}

// NewMP3Source opens path for streaming playback. With loop set the file
// restarts at EOF; otherwise the source pads silence forever.
func NewMP3Source(path string, loop bool) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mp3: %w", err)
	}

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	return &MP3Source{file: f, decoder: dec, loop: loop}, nil
}

// SampleRate returns the file's native rate. The engine does not resample;
// a mismatch with the stream rate plays at the wrong pitch, so callers
// should open the stream at this rate.
func (s *MP3Source) SampleRate() int {
	return s.decoder.SampleRate()
}

func (s *MP3Source) Fill(dst []byte, frames int) int {
	want := frames * 4
	got := 0

	for got < want && !s.done {
		n, err := s.decoder.Read(dst[got:want])
		got += n
		if err == io.EOF {
			if !s.loop {
				s.done = true
				break
			}
			if _, serr := s.decoder.Seek(0, io.SeekStart); serr != nil {
				s.done = true
				break
			}
		} else if err != nil {
			s.done = true
			break
		}
	}

	for i := got; i < want; i++ {
		dst[i] = 0
	}
	return got / 4
}

// Close releases the underlying file.
func (s *MP3Source) Close() error {
	return s.file.Close()
}
