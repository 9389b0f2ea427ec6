package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	ffmpegaudio "github.com/disgoorg/ffmpeg-audio"

	"voicemix/audio"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("Failed to write fake executable: %v", err)
	}
	return p
}

func TestLocateExplicitPath(t *testing.T) {
	dir := t.TempDir()
	ff := writeExecutable(t, dir, "my-ffmpeg")
	probe := writeExecutable(t, dir, "my-ffprobe")

	tools, err := Locate(ff, probe, nil)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if tools.FFmpeg != ff || tools.FFprobe != probe {
		t.Errorf("unexpected toolchain %+v", tools)
	}
	if tools.Dir() != dir {
		t.Errorf("expected dir %s, got %s", dir, tools.Dir())
	}
}

func TestLocateMissingExplicitPath(t *testing.T) {
	_, err := Locate(filepath.Join(t.TempDir(), "nope"), "", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocateSearchDirs(t *testing.T) {
	t.Setenv("PATH", "")
	dir := t.TempDir()
	ff := writeExecutable(t, dir, Exec)

	tools, err := Locate("", "", []string{filepath.Join(dir, "missing"), dir})
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if tools.FFmpeg != ff {
		t.Errorf("expected %s, got %s", ff, tools.FFmpeg)
	}
	if tools.CanProbe() {
		t.Errorf("ffprobe should be unavailable, got %s", tools.FFprobe)
	}
}

func TestLocateNonExecutable(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Locate(p, "", nil); err == nil {
		t.Error("expected error for non-executable file")
	}
}

func TestEncodeArgs(t *testing.T) {
	tests := []struct {
		name    string
		format  audio.Format
		codec   string
		muxer   string
		wantErr bool
	}{
		{"mp3", audio.FormatMP3, "libmp3lame", "mp3", false},
		{"ogg", audio.FormatOGG, "libvorbis", "ogg", false},
		{"wav", audio.FormatWAV, "pcm_s16le", "wav", false},
		{"flac", audio.Format("flac"), "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := encodeArgs(44100, 1, "/tmp/out", tt.format, "128k")
			if tt.wantErr {
				if !errors.Is(err, audio.ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if args[len(args)-1] != "/tmp/out" {
				t.Errorf("output path must come last: %v", args)
			}
			if !slices.Contains(args, tt.codec) || !slices.Contains(args, tt.muxer) {
				t.Errorf("missing codec or muxer in %v", args)
			}
			if !slices.Contains(args, "44100") || !slices.Contains(args, "pipe:0") {
				t.Errorf("missing input layout in %v", args)
			}
		})
	}
}

func TestDecodeArgs(t *testing.T) {
	args := decodeArgs("in.mp3", 48000, 2)
	for _, want := range []string{"in.mp3", "s16le", "48000", "2", "pipe:1"} {
		if !slices.Contains(args, want) {
			t.Errorf("expected %q in %v", want, args)
		}
	}
}

func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"format": {"duration": "10.500000"},
		"streams": [
			{"codec_type": "video", "codec_name": "mjpeg"},
			{"codec_type": "audio", "codec_name": "mp3", "sample_rate": "44100", "channels": 2}
		]
	}`)

	info, err := parseProbe(out)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if info.SampleRate != 44100 || info.Channels != 2 || info.Codec != "mp3" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.Duration != 10500*time.Millisecond {
		t.Errorf("expected 10.5s, got %s", info.Duration)
	}

	if _, err := parseProbe([]byte(`{"streams": []}`)); !errors.Is(err, ErrNoAudioStream) {
		t.Errorf("expected ErrNoAudioStream, got %v", err)
	}
}

func TestSampleByteConversion(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768}
	raw := samplesToBytes(in)
	if len(raw) != 10 {
		t.Fatalf("expected 10 bytes, got %d", len(raw))
	}

	out := bytesToSamples(append(raw, 0x7f), 1)
	if !slices.Equal(in, out) {
		t.Errorf("expected %v, got %v", in, out)
	}

	stereo := bytesToSamples(raw, 2)
	if len(stereo) != 4 {
		t.Errorf("partial frame should be dropped, got %d samples", len(stereo))
	}
}

func TestBackendRoundTrip(t *testing.T) {
	tools, err := Locate("", "", DefaultSearchDirs)
	if err != nil {
		t.Skipf("ffmpeg not installed: %v", err)
	}

	backend := NewBackend(tools, "", ffmpegaudio.WithSampleRate(22050), ffmpegaudio.WithChannels(1))
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tone.wav")

	src, err := audio.Silence(22050, 1, 500*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if err := backend.Encode(ctx, src, path, audio.FormatWAV); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := backend.Decode(ctx, path)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !got.SameLayout(src) || got.Frames() != src.Frames() {
		t.Errorf("expected %s, got %s", src, got)
	}
}
