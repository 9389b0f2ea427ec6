package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2/mp3"
)

const (
	wavBitDepth = 16
	wavPCM      = 1
)

var ErrInvalidWAV = errors.New("not a valid WAV file")

// Native is a pure-Go codec: WAV in and out through go-audio, MP3 in through
// beep. It cannot write lossy formats; use the ffmpeg backend for those.
type Native struct{}

var (
	_ Codec  = Native{}
	_ Prober = Native{}
)

func (Native) Decode(ctx context.Context, path string) (*Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrEmptyAudio, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(f)
	case ".mp3":
		return decodeMP3(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func decodeWAV(f *os.File) (*Clip, error) {
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading PCM data: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return nil, ErrEmptyAudio
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = toPCM16(v, int(d.BitDepth))
	}

	return NewClip(buf.Format.SampleRate, buf.Format.NumChannels, samples)
}

func toPCM16(v, bitDepth int) int16 {
	switch bitDepth {
	case 8:
		return int16((v - 128) << 8)
	case 24:
		return int16(v >> 8)
	case 32:
		return int16(v >> 16)
	default:
		return int16(v)
	}
}

func decodeMP3(f *os.File) (*Clip, error) {
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding mp3: %w", err)
	}
	defer streamer.Close()

	channels := min(format.NumChannels, MaxChannels)
	clip, err := collect(streamer, int(format.SampleRate), channels)
	if err != nil {
		return nil, err
	}
	if clip.Frames() == 0 {
		return nil, ErrEmptyAudio
	}
	return clip, nil
}

func (Native) Encode(ctx context.Context, clip *Clip, path string, format Format) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if format != FormatWAV {
		return fmt.Errorf("%w: native codec only writes wav, got %s", ErrUnsupportedFormat, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := writeWAV(f, clip); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeWAV(f *os.File, clip *Clip) error {
	enc := wav.NewEncoder(f, clip.sampleRate, wavBitDepth, clip.channels, wavPCM)

	data := make([]int, len(clip.samples))
	for i, s := range clip.samples {
		data[i] = int(s)
	}

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: clip.channels,
			SampleRate:  clip.sampleRate,
		},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	return enc.Close()
}

// Probe decodes the file and reports its layout and length.
func (n Native) Probe(ctx context.Context, path string) (Info, error) {
	clip, err := n.Decode(ctx, path)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Duration:   clip.Duration(),
		SampleRate: clip.sampleRate,
		Channels:   clip.channels,
		Codec:      strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}, nil
}
