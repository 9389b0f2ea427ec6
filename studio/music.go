package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Track is a downloaded background-music file.
type Track struct {
	Path string
	URL  string
}

// FetchMusic downloads rawURL into Background_Music and publishes it.
func (s *Studio) FetchMusic(ctx context.Context, rawURL string) (Track, error) {
	if s.music == nil {
		return Track{}, errors.New("music download is not configured")
	}

	path, err := s.music.Download(ctx, rawURL, s.Dir(s.data.BackgroundMusic))
	if err != nil {
		return Track{}, fmt.Errorf("failed to download music: %w", err)
	}

	s.logger.Info("Fetched music", slog.String("url", rawURL), slog.String("path", path))

	t := Track{Path: path}
	publicID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t.URL, _ = s.publish(ctx, path, s.data.BackgroundMusic, publicID)
	return t, nil
}
