// Package mixer lays a background-music track under a voice track and
// exports the result.
package mixer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"voicemix/audio"
	"voicemix/logger"
)

const dirPermissions = 0o755

// Request is one mix invocation.
type Request struct {
	VoicePath  string
	MusicPath  string
	OutputPath string

	FadeIn  time.Duration
	FadeOut time.Duration
	// GainReductionDB lowers the music level. Negative values amplify.
	GainReductionDB float64

	// Format defaults to the mixer's export format when empty.
	Format audio.Format
}

// Result is either a path to a non-empty exported file or an Error.
type Result struct {
	Path string
	Err  *Error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Unpack converts the result into the usual (value, error) pair.
func (r Result) Unpack() (string, error) {
	if r.Err != nil {
		return "", r.Err
	}
	return r.Path, nil
}

func failed(err *Error) Result {
	return Result{Err: err}
}

// Mixer holds the codec and defaults. It keeps no per-call state, so one
// Mixer can serve concurrent calls as long as their output paths differ.
type Mixer struct {
	codec  audio.Codec
	format audio.Format
	logger *slog.Logger
}

type Option func(*Mixer)

func WithFormat(f audio.Format) Option {
	return func(m *Mixer) { m.format = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Mixer) { m.logger = l }
}

// New builds a Mixer on the given decode/encode backend.
func New(codec audio.Codec, opts ...Option) *Mixer {
	m := &Mixer{
		codec:  codec,
		format: audio.DefaultFormat,
		logger: logger.WithComponent("mixer"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mix decodes both inputs, conforms the music to the voice, trims, fades and
// attenuates it, overlays it on the voice and exports the result. Failures
// never escape as panics.
func (m *Mixer) Mix(ctx context.Context, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Mix panicked", slog.Any("panic", r))
			res = failed(newErrorf(KindMixFailed, "", "unexpected failure: %v", r))
		}
	}()

	if err := m.validate(req); err != nil {
		m.logger.Error("Rejected mix request", slog.Any("error", err))
		return failed(err)
	}

	path, err := m.run(ctx, req)
	if err != nil {
		m.logger.Error("Mix failed",
			slog.String("voice", req.VoicePath),
			slog.String("music", req.MusicPath),
			slog.Any("error", err))
		return failed(err)
	}

	return Result{Path: path}
}

func (m *Mixer) validate(req Request) *Error {
	if req.FadeIn < 0 {
		return newErrorf(KindInvalidRequest, "", "fade-in must be non-negative, got %s", req.FadeIn)
	}
	if req.FadeOut < 0 {
		return newErrorf(KindInvalidRequest, "", "fade-out must be non-negative, got %s", req.FadeOut)
	}
	if req.OutputPath == "" {
		return newErrorf(KindInvalidRequest, "", "output path is empty")
	}
	if req.GainReductionDB < 0 {
		m.logger.Debug("Negative gain reduction amplifies music", slog.Float64("gain_db", req.GainReductionDB))
	}

	for _, p := range []string{req.VoicePath, req.MusicPath} {
		if err := checkReadable(p); err != nil {
			return newError(KindInputNotFound, p, err)
		}
	}

	return nil
}

func checkReadable(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func (m *Mixer) run(ctx context.Context, req Request) (string, *Error) {
	voice, err := m.codec.Decode(ctx, req.VoicePath)
	if err != nil {
		return "", newError(KindDecodeError, req.VoicePath, err)
	}
	music, err := m.codec.Decode(ctx, req.MusicPath)
	if err != nil {
		return "", newError(KindDecodeError, req.MusicPath, err)
	}

	m.logger.Debug("Decoded inputs",
		slog.String("voice", voice.String()),
		slog.String("music", music.String()))

	bed, err := m.prepareMusic(music, voice, req)
	if err != nil {
		return "", newError(KindMixFailed, "", err)
	}

	mixed, err := voice.Overlay(bed)
	if err != nil {
		return "", newError(KindMixFailed, "", err)
	}

	m.logger.Debug("Overlay complete", slog.String("mixed", mixed.String()))

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), dirPermissions); err != nil {
		return "", newError(KindMixFailed, req.OutputPath, fmt.Errorf("failed to create output directory: %w", err))
	}

	format := req.Format
	if format == "" {
		format = m.format
	}
	if err := m.codec.Encode(ctx, mixed, req.OutputPath, format); err != nil {
		return "", newError(KindEncodeError, req.OutputPath, err)
	}

	if err := verifyExport(req.OutputPath); err != nil {
		return "", newError(KindExportVerificationFailed, req.OutputPath, err)
	}

	m.logger.Info("Mixed audio exported",
		slog.String("output", req.OutputPath),
		slog.Int64("duration_ms", mixed.DurationMs()),
		slog.Float64("gain_db", req.GainReductionDB))

	return req.OutputPath, nil
}

// prepareMusic conforms music to voice, trims it to the voice length, then
// applies the fades and gain reduction.
func (m *Mixer) prepareMusic(music, voice *audio.Clip, req Request) (*audio.Clip, error) {
	conformed, err := music.ConformTo(voice)
	if err != nil {
		return nil, fmt.Errorf("conforming music: %w", err)
	}
	trimmed, err := conformed.TrimFrames(voice.Frames())
	if err != nil {
		return nil, fmt.Errorf("trimming music: %w", err)
	}
	faded, err := trimmed.FadeIn(req.FadeIn)
	if err != nil {
		return nil, fmt.Errorf("fading music in: %w", err)
	}
	faded, err = faded.FadeOut(req.FadeOut)
	if err != nil {
		return nil, fmt.Errorf("fading music out: %w", err)
	}
	bed, err := faded.Attenuate(req.GainReductionDB)
	if err != nil {
		return nil, fmt.Errorf("attenuating music: %w", err)
	}

	m.logger.Debug("Music adjusted",
		slog.String("music", bed.String()),
		slog.Float64("gain_db", req.GainReductionDB))

	return bed, nil
}

func verifyExport(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if st.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}
