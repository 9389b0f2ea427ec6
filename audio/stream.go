package audio

import (
	"math"

	"github.com/gopxl/beep/v2"
)

const (
	sampleScale = 32768.0
	chunkFrames = 512
)

// clipStreamer plays a Clip as a beep stream. Mono clips are duplicated
// onto both beep channels.
type clipStreamer struct {
	clip *Clip
	pos  int
}

var _ beep.Streamer = (*clipStreamer)(nil)

// Streamer returns a fresh beep stream positioned at the first frame.
func (c *Clip) Streamer() beep.Streamer {
	return &clipStreamer{clip: c}
}

func (s *clipStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	frames := s.clip.Frames()
	if s.pos >= frames {
		return 0, false
	}

	ch := s.clip.channels
	for n < len(samples) && s.pos < frames {
		base := s.pos * ch
		left := float64(s.clip.samples[base]) / sampleScale
		right := left
		if ch == 2 {
			right = float64(s.clip.samples[base+1]) / sampleScale
		}
		samples[n][0] = left
		samples[n][1] = right
		n++
		s.pos++
	}

	return n, true
}

func (s *clipStreamer) Err() error {
	return nil
}

// collect drains a stream into a new clip with the given layout. Stereo
// frames are averaged when the target is mono; values outside the int16
// range are clipped.
func collect(s beep.Streamer, sampleRate, channels int) (*Clip, error) {
	var out []int16
	buf := make([][2]float64, chunkFrames)

	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			if channels == 1 {
				out = append(out, toInt16((frame[0]+frame[1])/2))
				continue
			}
			out = append(out, toInt16(frame[0]), toInt16(frame[1]))
		}
		if !ok || n == 0 {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	clip, err := NewClip(sampleRate, channels, nil)
	if err != nil {
		return nil, err
	}
	clip.samples = out

	return clip, nil
}

func toInt16(v float64) int16 {
	scaled := math.Round(v * sampleScale)
	if scaled > math.MaxInt16 {
		return math.MaxInt16
	}
	if scaled < math.MinInt16 {
		return math.MinInt16
	}
	return int16(scaled)
}
