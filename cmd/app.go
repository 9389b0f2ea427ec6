package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	ffmpegaudio "github.com/disgoorg/ffmpeg-audio"

	"voicemix/audio"
	"voicemix/config"
	"voicemix/ffmpeg"
	"voicemix/library"
	"voicemix/mixer"
	"voicemix/publish"
	"voicemix/records"
	"voicemix/speechify"
	"voicemix/studio"
	"voicemix/tts"
	"voicemix/youtube"
)

// app holds everything a command may need. Parts are built on demand.
type app struct {
	cfg       *config.Config
	codec     audio.Codec
	ffmpegDir string
	store     *records.Store
	publisher publish.Publisher
}

func newApp(cfg *config.Config) *app {
	return &app{cfg: cfg}
}

func (a *app) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

// Codec picks the native codec or an ffmpeg backend on the located toolchain.
func (a *app) Codec() (audio.Codec, error) {
	if a.codec != nil {
		return a.codec, nil
	}
	if a.cfg.FFmpeg.Native {
		a.codec = audio.Native{}
		return a.codec, nil
	}

	tools, err := ffmpeg.Locate(a.cfg.FFmpeg.Path, a.cfg.FFmpeg.ProbePath, a.cfg.FFmpeg.SearchDirs)
	if err != nil {
		return nil, fmt.Errorf("%w (install ffmpeg or pass --native)", err)
	}
	slog.Debug("Using ffmpeg", slog.String("ffmpeg", tools.FFmpeg), slog.String("ffprobe", tools.FFprobe))

	var opts []ffmpegaudio.ConfigOpt
	if a.cfg.FFmpeg.SampleRate > 0 {
		opts = append(opts, ffmpegaudio.WithSampleRate(a.cfg.FFmpeg.SampleRate))
	}
	if a.cfg.FFmpeg.Channels > 0 {
		opts = append(opts, ffmpegaudio.WithChannels(a.cfg.FFmpeg.Channels))
	}
	a.codec = ffmpeg.NewBackend(tools, a.cfg.FFmpeg.Bitrate, opts...)
	a.ffmpegDir = tools.Dir()
	return a.codec, nil
}

func (a *app) Store() (*records.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := records.Open(a.cfg.Data.DatabasePath())
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

func (a *app) Publisher() (publish.Publisher, error) {
	if a.publisher != nil {
		return a.publisher, nil
	}
	p, err := publish.New(a.cfg.Publish)
	if err != nil {
		return nil, err
	}
	a.publisher = p
	return p, nil
}

func (a *app) Mixer() (*mixer.Mixer, error) {
	codec, err := a.Codec()
	if err != nil {
		return nil, err
	}
	format, err := audio.ParseFormat(a.cfg.Mix.Format)
	if err != nil {
		return nil, err
	}
	return mixer.New(codec, mixer.WithFormat(format)), nil
}

func (a *app) Library() (*library.Library, error) {
	var prober audio.Prober
	if codec, err := a.Codec(); err == nil {
		prober, _ = codec.(audio.Prober)
	}
	return library.New(a.cfg.Data.Root, prober)
}

func (a *app) Speechify() *speechify.Client {
	sc := a.cfg.Speechify
	return speechify.NewClient(sc.BaseURL, sc.APIKey, sc.Timeout,
		speechify.WithModel(sc.Model),
		speechify.WithLanguage(sc.Language))
}

// Engine returns the cloned-voice engine, or the stock gTTS engine when
// stock is set.
func (a *app) Engine(stock bool, style *speechify.Style) tts.Engine {
	if stock {
		return tts.NewStockEngine("")
	}
	return tts.NewCloneEngine(a.Speechify(), style)
}

// Studio wires a studio for the given engine. engine may be nil.
func (a *app) Studio(engine tts.Engine) (*studio.Studio, error) {
	store, err := a.Store()
	if err != nil {
		return nil, err
	}
	pub, err := a.Publisher()
	if err != nil {
		return nil, err
	}

	deps := studio.Deps{
		Data:      a.cfg.Data,
		Cloner:    a.Speechify(),
		Engine:    engine,
		Publisher: pub,
		Records:   store,
	}

	// Mixing and downloads need ffmpeg; other operations do not.
	if m, err := a.Mixer(); err == nil {
		deps.Mixer = m
		deps.Music = youtube.NewDownloader(a.cfg.YouTube.Executable, a.ffmpegDir, a.cfg.YouTube.AudioQuality)
	} else {
		slog.Debug("Audio backend unavailable", slog.Any("error", err))
	}

	return studio.New(deps), nil
}
