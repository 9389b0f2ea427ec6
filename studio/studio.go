// Package studio ties the voice workflow together: registering a cloned
// voice, generating speech with it, mixing speech over music, and fetching
// background music.
package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"voicemix/config"
	"voicemix/logger"
	"voicemix/mixer"
	"voicemix/publish"
	"voicemix/records"
	"voicemix/speechify"
	"voicemix/tts"
)

var (
	ErrBadFileName = errors.New("invalid file name")
	ErrNotMP3      = errors.New("voice sample must be an mp3 file")
)

// VoiceCloner creates a cloned voice from a sample.
type VoiceCloner interface {
	CreateVoice(ctx context.Context, name, samplePath string, consent speechify.Consent) (string, error)
}

// MusicDownloader saves a track from a URL into dir.
type MusicDownloader interface {
	Download(ctx context.Context, rawURL, dir string) (string, error)
}

// Deps are the collaborators a Studio drives. Cloner, Engine and Music may
// be nil when the matching operation is not used.
type Deps struct {
	Data      config.DataConfig
	Mixer     *mixer.Mixer
	Cloner    VoiceCloner
	Engine    tts.Engine
	Publisher publish.Publisher
	Records   *records.Store
	Music     MusicDownloader
}

// Studio is the application core behind the CLI.
type Studio struct {
	data      config.DataConfig
	mixer     *mixer.Mixer
	cloner    VoiceCloner
	engine    tts.Engine
	publisher publish.Publisher
	records   *records.Store
	music     MusicDownloader
	logger    *slog.Logger
}

func New(d Deps) *Studio {
	pub := d.Publisher
	if pub == nil {
		pub = publish.Nop{}
	}
	return &Studio{
		data:      d.Data,
		mixer:     d.Mixer,
		cloner:    d.Cloner,
		engine:    d.Engine,
		publisher: pub,
		records:   d.Records,
		music:     d.Music,
		logger:    logger.WithComponent("studio"),
	}
}

// Dir returns the absolute-or-relative path of a data folder.
func (s *Studio) Dir(folder string) string {
	return s.data.Dir(folder)
}

// publish uploads a file and logs failures instead of returning them.
func (s *Studio) publish(ctx context.Context, path, folder, publicID string) (string, error) {
	url, err := s.publisher.Publish(ctx, path, folder, publicID)
	if err != nil {
		s.logger.Warn("Publish failed",
			slog.String("path", path),
			slog.String("folder", folder),
			slog.Any("error", err))
		return "", err
	}
	if url != "" {
		s.logger.Info("Published", slog.String("path", path), slog.String("url", url))
	}
	return url, nil
}

// safeName rejects names that would escape their folder.
func safeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrBadFileName, name)
	}
	return name, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
