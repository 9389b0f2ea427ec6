package audio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format identifies an export container/codec.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
	FormatOGG Format = "ogg"
)

// DefaultFormat is the lossy format merged files are exported in.
const DefaultFormat = FormatMP3

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmptyAudio        = errors.New("no audio data")
)

// Extensions recognised as audio by the file library.
var Extensions = []string{".mp3", ".wav", ".ogg"}

// ParseFormat maps a user supplied format name to a Format. An empty string
// yields DefaultFormat.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))) {
	case "":
		return DefaultFormat, nil
	case FormatMP3:
		return FormatMP3, nil
	case FormatWAV:
		return FormatWAV, nil
	case FormatOGG:
		return FormatOGG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatOf guesses the format from a file extension.
func FormatOf(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// IsAudioFile reports whether name carries one of Extensions.
func IsAudioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Decoder turns a file into a Clip.
type Decoder interface {
	Decode(ctx context.Context, path string) (*Clip, error)
}

// Encoder writes a Clip to path in the given format.
type Encoder interface {
	Encode(ctx context.Context, clip *Clip, path string, format Format) error
}

// Codec is the decode/encode capability the mixer is built on.
type Codec interface {
	Decoder
	Encoder
}

// Info describes a file without keeping its samples around.
type Info struct {
	Duration   time.Duration
	SampleRate int
	Channels   int
	Codec      string
}

// Prober reads Info for a file.
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}
