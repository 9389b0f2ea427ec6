package audio

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// ResampleQuality is passed to beep.Resample. 4 is beep's "good" setting.
const ResampleQuality = 4

// Resample converts the clip to a new sample rate.
func (c *Clip) Resample(sampleRate int) (*Clip, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleRate, sampleRate)
	}
	if sampleRate == c.sampleRate {
		return NewClip(c.sampleRate, c.channels, c.samples)
	}

	resampled := beep.Resample(ResampleQuality, beep.SampleRate(c.sampleRate), beep.SampleRate(sampleRate), c.Streamer())
	return collect(resampled, sampleRate, c.channels)
}

// Remix changes the channel layout: mono is duplicated to stereo, stereo is
// averaged down to mono.
func (c *Clip) Remix(channels int) (*Clip, error) {
	if channels <= 0 || channels > MaxChannels {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChannels, channels)
	}
	return collect(c.Streamer(), c.sampleRate, channels)
}

// ConformTo returns the clip with ref's sample rate and channel count.
func (c *Clip) ConformTo(ref *Clip) (*Clip, error) {
	remixed, err := c.Remix(ref.channels)
	if err != nil {
		return nil, err
	}
	return remixed.Resample(ref.sampleRate)
}

// TrimFrames keeps at most the first n frames. Shorter clips are returned
// unchanged; nothing is padded.
func (c *Clip) TrimFrames(n int) (*Clip, error) {
	if n < 0 {
		n = 0
	}
	if n >= c.Frames() {
		return NewClip(c.sampleRate, c.channels, c.samples)
	}
	return collect(beep.Take(n, c.Streamer()), c.sampleRate, c.channels)
}

// Trim keeps at most the leading d of the clip.
func (c *Clip) Trim(d time.Duration) (*Clip, error) {
	return c.TrimFrames(framesFor(c.sampleRate, d))
}

// FadeIn applies a linear ramp from silence over d. When d is longer than
// the clip the ramp keeps its slope and simply stops at the last frame.
func (c *Clip) FadeIn(d time.Duration) (*Clip, error) {
	if d <= 0 {
		return NewClip(c.sampleRate, c.channels, c.samples)
	}
	env := &envelope{
		Streamer: c.Streamer(),
		total:    c.Frames(),
		fadeIn:   framesFor(c.sampleRate, d),
	}
	return collect(env, c.sampleRate, c.channels)
}

// FadeOut applies a linear ramp to silence over the final d of the clip.
func (c *Clip) FadeOut(d time.Duration) (*Clip, error) {
	if d <= 0 {
		return NewClip(c.sampleRate, c.channels, c.samples)
	}
	env := &envelope{
		Streamer: c.Streamer(),
		total:    c.Frames(),
		fadeOut:  framesFor(c.sampleRate, d),
	}
	return collect(env, c.sampleRate, c.channels)
}

// Attenuate lowers the level by db decibels. Negative values amplify.
func (c *Clip) Attenuate(db float64) (*Clip, error) {
	if db == 0 {
		return NewClip(c.sampleRate, c.channels, c.samples)
	}
	vol := &effects.Volume{
		Streamer: c.Streamer(),
		Base:     10,
		Volume:   -db / 20,
	}
	return collect(vol, c.sampleRate, c.channels)
}

// Overlay sums other onto c starting at frame zero. The result always has
// c's length: frames of other past the end of c are dropped and frames of c
// past the end of other are passed through untouched.
func (c *Clip) Overlay(other *Clip) (*Clip, error) {
	if !c.SameLayout(other) {
		return nil, fmt.Errorf("%w: %s vs %s", ErrFormatMismatch, c, other)
	}
	mixed := beep.Mix(c.Streamer(), other.Streamer())
	return collect(beep.Take(c.Frames(), mixed), c.sampleRate, c.channels)
}

// envelope scales a stream by linear fade-in and fade-out ramps. Ramps that
// overlap multiply.
type envelope struct {
	beep.Streamer
	pos     int
	total   int
	fadeIn  int
	fadeOut int
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.Streamer.Stream(samples)
	for i := range samples[:n] {
		gain := e.gainAt(e.pos)
		samples[i][0] *= gain
		samples[i][1] *= gain
		e.pos++
	}
	return n, ok
}

func (e *envelope) gainAt(pos int) float64 {
	gain := 1.0
	if e.fadeIn > 0 && pos < e.fadeIn {
		gain *= float64(pos) / float64(e.fadeIn)
	}
	if e.fadeOut > 0 {
		remaining := e.total - 1 - pos
		if remaining < e.fadeOut {
			gain *= float64(remaining) / float64(e.fadeOut)
		}
	}
	return gain
}
