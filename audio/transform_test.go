package audio

import (
	"errors"
	"math"
	"testing"
	"time"
)

// constant builds a clip whose every sample equals value.
func constant(t *testing.T, rate, channels, frames int, value int16) *Clip {
	t.Helper()
	samples := make([]int16, frames*channels)
	for i := range samples {
		samples[i] = value
	}
	clip, err := NewClip(rate, channels, samples)
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	return clip
}

func TestNewClipValidation(t *testing.T) {
	tests := []struct {
		name     string
		rate     int
		channels int
		samples  []int16
		wantErr  error
	}{
		{"mono", 44100, 1, []int16{1, 2, 3}, nil},
		{"stereo", 48000, 2, []int16{1, 2, 3, 4}, nil},
		{"zero rate", 0, 1, nil, ErrInvalidSampleRate},
		{"no channels", 44100, 0, nil, ErrInvalidChannels},
		{"surround", 44100, 6, nil, ErrInvalidChannels},
		{"misaligned", 44100, 2, []int16{1, 2, 3}, ErrMisalignedSamples},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClip(tt.rate, tt.channels, tt.samples)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewClipCopiesInput(t *testing.T) {
	in := []int16{5, 6}
	clip, err := NewClip(8000, 1, in)
	if err != nil {
		t.Fatal(err)
	}
	in[0] = 99
	if clip.Sample(0, 0) != 5 {
		t.Errorf("clip shares caller memory")
	}
}

func TestDuration(t *testing.T) {
	clip := constant(t, 44100, 1, 441000, 0)
	if got := clip.DurationMs(); got != 10000 {
		t.Errorf("expected 10000 ms, got %d", got)
	}
	if got := clip.Duration(); got != 10*time.Second {
		t.Errorf("expected 10s, got %s", got)
	}
}

func TestRemix(t *testing.T) {
	t.Run("mono to stereo duplicates", func(t *testing.T) {
		mono, _ := NewClip(8000, 1, []int16{100, -200, 300})
		stereo, err := mono.Remix(2)
		if err != nil {
			t.Fatal(err)
		}
		if stereo.Channels() != 2 || stereo.Frames() != 3 {
			t.Fatalf("unexpected layout %s", stereo)
		}
		for i := 0; i < 3; i++ {
			if stereo.Sample(i, 0) != mono.Sample(i, 0) || stereo.Sample(i, 1) != mono.Sample(i, 0) {
				t.Errorf("frame %d not duplicated", i)
			}
		}
	})

	t.Run("stereo to mono averages", func(t *testing.T) {
		stereo, _ := NewClip(8000, 2, []int16{100, 300, -1000, 0})
		mono, err := stereo.Remix(1)
		if err != nil {
			t.Fatal(err)
		}
		want := []int16{200, -500}
		for i, w := range want {
			if got := mono.Sample(i, 0); got != w {
				t.Errorf("frame %d: expected %d, got %d", i, w, got)
			}
		}
	})
}

func TestResample(t *testing.T) {
	src := constant(t, 48000, 2, 48000, 1000)

	out, err := src.Resample(44100)
	if err != nil {
		t.Fatal(err)
	}
	if out.SampleRate() != 44100 {
		t.Fatalf("expected 44100 Hz, got %d", out.SampleRate())
	}
	if diff := math.Abs(float64(out.Frames() - 44100)); diff > 441 {
		t.Errorf("expected about 44100 frames, got %d", out.Frames())
	}

	same, err := src.Resample(48000)
	if err != nil {
		t.Fatal(err)
	}
	if same.Frames() != src.Frames() {
		t.Errorf("same-rate resample changed length")
	}
}

func TestConformTo(t *testing.T) {
	voice := constant(t, 44100, 1, 4410, 0)
	music := constant(t, 48000, 2, 4800, 500)

	conformed, err := music.ConformTo(voice)
	if err != nil {
		t.Fatal(err)
	}
	if !conformed.SameLayout(voice) {
		t.Errorf("expected %d Hz mono, got %s", voice.SampleRate(), conformed)
	}
}

func TestTrimFrames(t *testing.T) {
	clip, _ := NewClip(1000, 1, []int16{1, 2, 3, 4, 5})

	short, err := clip.TrimFrames(3)
	if err != nil {
		t.Fatal(err)
	}
	if short.Frames() != 3 || short.Sample(2, 0) != 3 {
		t.Errorf("expected leading 3 frames, got %v", short.Samples())
	}

	long, err := clip.TrimFrames(10)
	if err != nil {
		t.Fatal(err)
	}
	if long.Frames() != 5 {
		t.Errorf("trim must not pad, got %d frames", long.Frames())
	}
}

func TestFadeIn(t *testing.T) {
	clip := constant(t, 1000, 1, 100, 1000)

	faded, err := clip.FadeIn(10 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	checks := map[int]int16{0: 0, 5: 500, 10: 1000, 99: 1000}
	for frame, want := range checks {
		if got := faded.Sample(frame, 0); got != want {
			t.Errorf("frame %d: expected %d, got %d", frame, want, got)
		}
	}
}

func TestFadeOut(t *testing.T) {
	clip := constant(t, 1000, 2, 100, 1000)

	faded, err := clip.FadeOut(10 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	if got := faded.Sample(99, 1); got != 0 {
		t.Errorf("last frame should be silent, got %d", got)
	}
	if got := faded.Sample(94, 0); got != 500 {
		t.Errorf("expected half level 5 frames before the end, got %d", got)
	}
	if got := faded.Sample(0, 0); got != 1000 {
		t.Errorf("start of clip should be untouched, got %d", got)
	}
}

func TestOverlappingFades(t *testing.T) {
	clip := constant(t, 1000, 1, 2000, 1000)

	in, err := clip.FadeIn(1500 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	both, err := in.FadeOut(1500 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	if both.Frames() != 2000 {
		t.Fatalf("fades changed length to %d", both.Frames())
	}
	mid := both.Sample(1000, 0)
	want := int16(math.Round(1000 * (1000.0 / 1500) * (999.0 / 1500)))
	if mid != want {
		t.Errorf("midpoint: expected %d, got %d", want, mid)
	}
	for i := 1; i < 2000; i++ {
		if both.Sample(i, 0) > 1000 {
			t.Fatalf("frame %d exceeds source level", i)
		}
	}
}

func TestAttenuate(t *testing.T) {
	clip := constant(t, 8000, 1, 10, 10000)

	quiet, err := clip.Attenuate(20)
	if err != nil {
		t.Fatal(err)
	}
	if got := quiet.Sample(0, 0); got != 1000 {
		t.Errorf("20 dB should divide by ten, got %d", got)
	}

	loud, err := clip.Attenuate(-6)
	if err != nil {
		t.Fatal(err)
	}
	if loud.Peak() <= clip.Peak() {
		t.Errorf("negative reduction should amplify")
	}

	prev := clip.Peak() + 1
	for _, db := range []float64{0, 1, 5, 10, 30} {
		c, err := clip.Attenuate(db)
		if err != nil {
			t.Fatal(err)
		}
		if c.Peak() >= prev {
			t.Errorf("peak at %.0f dB did not decrease", db)
		}
		prev = c.Peak()
	}
}

func TestOverlay(t *testing.T) {
	tests := []struct {
		name  string
		voice []int16
		music []int16
		want  []int16
	}{
		{
			name:  "sums and passes the tail through",
			voice: []int16{100, 200, 30000, 400, 500},
			music: []int16{10, 20, 30000},
			want:  []int16{110, 220, 32767, 400, 500},
		},
		{
			name:  "clips at the negative rail",
			voice: []int16{-30000, -20000, -32768, -100},
			music: []int16{-30000, -12768, -1, 50},
			want:  []int16{-32768, -32768, -32768, -50},
		},
		{
			name:  "opposite signs cancel",
			voice: []int16{32767, -32768},
			music: []int16{-32767, 32767},
			want:  []int16{0, -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voice, err := NewClip(1000, 1, tt.voice)
			if err != nil {
				t.Fatal(err)
			}
			music, err := NewClip(1000, 1, tt.music)
			if err != nil {
				t.Fatal(err)
			}

			mixed, err := voice.Overlay(music)
			if err != nil {
				t.Fatal(err)
			}
			if mixed.Frames() != voice.Frames() {
				t.Fatalf("expected %d frames, got %d", voice.Frames(), mixed.Frames())
			}
			for i, w := range tt.want {
				if got := mixed.Sample(i, 0); got != w {
					t.Errorf("frame %d: expected %d, got %d", i, w, got)
				}
			}
		})
	}
}

func TestOverlayDropsLongerMusic(t *testing.T) {
	voice := constant(t, 1000, 2, 10, 1)
	music := constant(t, 1000, 2, 50, 1)

	mixed, err := voice.Overlay(music)
	if err != nil {
		t.Fatal(err)
	}
	if mixed.Frames() != 10 {
		t.Errorf("expected voice length, got %d", mixed.Frames())
	}
}

func TestOverlayLayoutMismatch(t *testing.T) {
	voice := constant(t, 1000, 1, 10, 0)
	music := constant(t, 2000, 1, 10, 0)

	if _, err := voice.Overlay(music); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("expected ErrFormatMismatch, got %v", err)
	}
}
