package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	ffmpegaudio "github.com/disgoorg/ffmpeg-audio"

	"voicemix/audio"
	"voicemix/logger"
)

// DefaultBitrate is used for lossy exports when none is configured.
const DefaultBitrate = "192k"

var ErrNoAudioStream = errors.New("no audio stream found")

// Backend decodes any container ffmpeg understands into a Clip and encodes
// clips to mp3, ogg or wav.
type Backend struct {
	tools      Toolchain
	exec       string
	sampleRate int
	channels   int
	bufferSize int
	bitrate    string
	logger     *slog.Logger
}

var (
	_ audio.Codec  = (*Backend)(nil)
	_ audio.Prober = (*Backend)(nil)
)

// NewBackend builds a backend on a resolved toolchain. The sample rate and
// channel options set the decode layout used when ffprobe is unavailable.
func NewBackend(tools Toolchain, bitrate string, opts ...ffmpegaudio.ConfigOpt) *Backend {
	cfg := ffmpegaudio.DefaultConfig()
	cfg.Apply(opts)

	if bitrate == "" {
		bitrate = DefaultBitrate
	}

	return &Backend{
		tools:      tools,
		exec:       tools.FFmpeg,
		sampleRate: cfg.SampleRate,
		channels:   min(cfg.Channels, audio.MaxChannels),
		bufferSize: cfg.BufferSize,
		bitrate:    bitrate,
		logger:     logger.WithComponent("ffmpeg"),
	}
}

// Decode converts path to interleaved s16le PCM at the file's own rate and
// channel count (capped at stereo).
func (b *Backend) Decode(ctx context.Context, path string) (*audio.Clip, error) {
	rate, channels := b.sampleRate, b.channels
	if b.tools.CanProbe() {
		info, err := b.Probe(ctx, path)
		if err != nil {
			return nil, err
		}
		rate, channels = info.SampleRate, min(info.Channels, audio.MaxChannels)
	} else {
		b.logger.Warn("ffprobe unavailable, decoding with fallback layout",
			slog.String("path", path),
			slog.Int("sample_rate", rate),
			slog.Int("channels", channels))
	}

	cmd := exec.CommandContext(ctx, b.exec, decodeArgs(path, rate, channels)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	raw, readErr := io.ReadAll(bufio.NewReaderSize(pipe, b.bufferSize))
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if waitErr != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %v (%s)", path, waitErr, bytes.TrimSpace(stderr.Bytes()))
	}
	if readErr != nil {
		return nil, fmt.Errorf("error reading PCM data: %w", readErr)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", audio.ErrEmptyAudio, path)
	}

	return audio.NewClip(rate, channels, bytesToSamples(raw, channels))
}

// Encode pipes the clip into ffmpeg and writes path in the given format.
func (b *Backend) Encode(ctx context.Context, clip *audio.Clip, path string, format audio.Format) error {
	args, err := encodeArgs(clip.SampleRate(), clip.Channels(), path, format, b.bitrate)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, b.exec, args...)
	cmd.Stdin = bytes.NewReader(samplesToBytes(clip.Samples()))

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg encode %s: %v (%s)", path, err, bytes.TrimSpace(out))
	}

	b.logger.Debug("Encoded clip",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.String("clip", clip.String()))

	return nil
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Probe asks ffprobe for the first audio stream of path.
func (b *Backend) Probe(ctx context.Context, path string) (audio.Info, error) {
	if !b.tools.CanProbe() {
		return audio.Info{}, fmt.Errorf("%w: %s", ErrNotFound, ProbeExec)
	}

	cmd := exec.CommandContext(ctx, b.tools.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return audio.Info{}, ctx.Err()
		}
		return audio.Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseProbe(out)
}

func parseProbe(out []byte) (audio.Info, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return audio.Info{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	for _, s := range probe.Streams {
		if s.CodecType != "audio" {
			continue
		}
		rate, _ := strconv.Atoi(s.SampleRate)
		if rate <= 0 || s.Channels <= 0 {
			break
		}
		seconds, _ := strconv.ParseFloat(probe.Format.Duration, 64)
		return audio.Info{
			Duration:   time.Duration(seconds * float64(time.Second)),
			SampleRate: rate,
			Channels:   s.Channels,
			Codec:      s.CodecName,
		}, nil
	}

	return audio.Info{}, ErrNoAudioStream
}

func decodeArgs(path string, rate, channels int) []string {
	return []string{
		"-v", "error",
		"-i", path,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", strconv.Itoa(channels),
		"pipe:1",
	}
}

func encodeArgs(rate, channels int, path string, format audio.Format, bitrate string) ([]string, error) {
	args := []string{
		"-y",
		"-v", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", strconv.Itoa(channels),
		"-i", "pipe:0",
	}

	switch format {
	case audio.FormatMP3:
		args = append(args, "-c:a", "libmp3lame", "-b:a", bitrate, "-f", "mp3")
	case audio.FormatOGG:
		args = append(args, "-c:a", "libvorbis", "-b:a", bitrate, "-f", "ogg")
	case audio.FormatWAV:
		args = append(args, "-c:a", "pcm_s16le", "-f", "wav")
	default:
		return nil, fmt.Errorf("%w: %s", audio.ErrUnsupportedFormat, format)
	}

	return append(args, path), nil
}

func bytesToSamples(raw []byte, channels int) []int16 {
	frameBytes := 2 * channels
	raw = raw[:len(raw)-len(raw)%frameBytes]

	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
	}
	return samples
}

func samplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
