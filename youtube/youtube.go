// Package youtube downloads audio tracks from YouTube as mp3 using yt-dlp.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"voicemix/logger"
)

const DefaultAudioQuality = "192K"

var (
	ErrNotYouTube   = errors.New("not a YouTube URL")
	ErrNoVideoID    = errors.New("no video ID found in URL")
	ErrMissingAudio = errors.New("mp3 not found after download")

	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
)

// IsYouTubeURL reports whether rawURL points at youtube.com or youtu.be.
func IsYouTubeURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}

// ExtractID pulls the video id out of the usual URL shapes.
func ExtractID(rawURL string) (string, error) {
	if !IsYouTubeURL(rawURL) {
		return "", fmt.Errorf("%w: %s", ErrNotYouTube, rawURL)
	}
	u, _ := url.Parse(rawURL)

	var id string
	switch {
	case strings.EqualFold(u.Hostname(), "youtu.be"):
		id = strings.Trim(u.Path, "/")
	case strings.HasPrefix(u.Path, "/watch"):
		id = u.Query().Get("v")
	case strings.HasPrefix(u.Path, "/embed/"):
		id = strings.TrimPrefix(u.Path, "/embed/")
	case strings.HasPrefix(u.Path, "/shorts/"):
		id = strings.TrimPrefix(u.Path, "/shorts/")
	case strings.HasPrefix(u.Path, "/v/"):
		id = strings.TrimPrefix(u.Path, "/v/")
	}
	id = strings.Trim(id, "/")

	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %s", ErrNoVideoID, rawURL)
	}
	return id, nil
}

// Downloader fetches audio with a yt-dlp executable.
type Downloader struct {
	executable string
	ffmpegDir  string
	quality    string
	logger     *slog.Logger
}

// NewDownloader builds a downloader. ffmpegDir is passed to yt-dlp so its
// audio extraction uses the same toolchain as the mixer.
func NewDownloader(executable, ffmpegDir, quality string) *Downloader {
	if quality == "" {
		quality = DefaultAudioQuality
	}
	return &Downloader{
		executable: executable,
		ffmpegDir:  ffmpegDir,
		quality:    quality,
		logger:     logger.WithComponent("youtube"),
	}
}

func (d *Downloader) command(outputDir, id string) *ytdlp.Command {
	cmd := ytdlp.New().
		Format("bestaudio/best").
		NoPlaylist().
		NoWarnings().
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality(d.quality).
		Output(filepath.Join(outputDir, id+".%(ext)s"))

	if d.executable != "" {
		cmd = cmd.SetExecutable(d.executable)
	}
	if d.ffmpegDir != "" {
		cmd = cmd.FFmpegLocation(d.ffmpegDir)
	}
	return cmd
}

// Download saves the audio of rawURL as <outputDir>/<video id>.mp3 and
// returns that path.
func (d *Downloader) Download(ctx context.Context, rawURL, outputDir string) (string, error) {
	id, err := ExtractID(rawURL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	d.logger.Info("Downloading audio", slog.String("url", rawURL), slog.String("id", id))

	res, err := d.command(outputDir, id).Run(ctx, rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		stderr := ""
		if res != nil {
			stderr = res.Stderr
		}
		return "", fmt.Errorf("yt-dlp download failed: %w\nstderr: %s", err, stderr)
	}

	mp3 := filepath.Join(outputDir, id+".mp3")
	st, err := os.Stat(mp3)
	if err != nil || st.Size() == 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingAudio, mp3)
	}

	d.logger.Info("Downloaded audio", slog.String("path", mp3), slog.Int64("bytes", st.Size()))
	return mp3, nil
}
