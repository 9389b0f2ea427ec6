// Package audio holds the in-memory clip representation used by the mixer
// and the transforms that operate on it. Clips are immutable: every
// transform returns a new Clip.
package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
)

// MaxChannels is the widest layout a Clip can carry. Decoders downmix
// anything wider before building a Clip.
const MaxChannels = 2

var (
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidChannels   = errors.New("channel count must be 1 or 2")
	ErrMisalignedSamples = errors.New("sample count is not a multiple of the channel count")
	ErrFormatMismatch    = errors.New("clips differ in sample rate or channel count")
)

// Clip is a decoded audio buffer of interleaved signed 16-bit samples.
type Clip struct {
	sampleRate int
	channels   int
	samples    []int16
}

// NewClip validates the layout and copies samples into a new Clip.
func NewClip(sampleRate, channels int, samples []int16) (*Clip, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleRate, sampleRate)
	}
	if channels <= 0 || channels > MaxChannels {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChannels, channels)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples, %d channels", ErrMisalignedSamples, len(samples), channels)
	}

	owned := make([]int16, len(samples))
	copy(owned, samples)

	return &Clip{sampleRate: sampleRate, channels: channels, samples: owned}, nil
}

// Silence returns a zeroed clip of the given length.
func Silence(sampleRate, channels int, d time.Duration) (*Clip, error) {
	frames := framesFor(sampleRate, d)
	if frames < 0 {
		frames = 0
	}
	return NewClip(sampleRate, channels, make([]int16, frames*max(channels, 1)))
}

func (c *Clip) SampleRate() int { return c.sampleRate }

func (c *Clip) Channels() int { return c.channels }

// Frames is the number of sample frames (one sample per channel).
func (c *Clip) Frames() int { return len(c.samples) / c.channels }

// Samples returns a copy of the interleaved sample data.
func (c *Clip) Samples() []int16 {
	out := make([]int16, len(c.samples))
	copy(out, c.samples)
	return out
}

// Sample returns the sample at frame i on channel ch.
func (c *Clip) Sample(i, ch int) int16 {
	return c.samples[i*c.channels+ch]
}

// Duration is the exact play time of the clip.
func (c *Clip) Duration() time.Duration {
	return time.Duration(int64(c.Frames()) * int64(time.Second) / int64(c.sampleRate))
}

// DurationMs is the play time truncated to whole milliseconds.
func (c *Clip) DurationMs() int64 {
	return int64(c.Frames()) * 1000 / int64(c.sampleRate)
}

// Format reports the clip layout in beep terms.
func (c *Clip) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(c.sampleRate),
		NumChannels: c.channels,
		Precision:   2,
	}
}

// Peak returns the largest absolute sample value.
func (c *Clip) Peak() int {
	peak := 0
	for _, s := range c.samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// SameLayout reports whether both clips share rate and channel count.
func (c *Clip) SameLayout(other *Clip) bool {
	return c.sampleRate == other.sampleRate && c.channels == other.channels
}

func (c *Clip) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %d ms", c.sampleRate, c.channels, c.DurationMs())
}

func framesFor(sampleRate int, d time.Duration) int {
	return int(int64(d) * int64(sampleRate) / int64(time.Second))
}
