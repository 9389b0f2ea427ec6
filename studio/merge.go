package studio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voicemix/audio"
	"voicemix/mixer"
)

// MergeRequest mixes one generated file of a user with a music track.
type MergeRequest struct {
	UserID string
	// File is a name inside Generated_Audio/<user>.
	File string
	// Music is a path, or a bare name inside Background_Music.
	Music string

	FadeIn          time.Duration
	FadeOut         time.Duration
	GainReductionDB float64
	Format          audio.Format
}

// MergeResult is a successful mix. PublishErr is set when the mix was
// written but could not be published.
type MergeResult struct {
	Path       string
	URL        string
	PublishErr error
}

// MergeOutputPath is Merge_Audio/<user>/<stem>_merged.<ext>.
func (s *Studio) MergeOutputPath(userID, file string, format audio.Format) string {
	if format == "" {
		format = audio.DefaultFormat
	}
	stem := strings.TrimSuffix(file, filepath.Ext(file))
	return filepath.Join(s.Dir(s.data.MergeAudio), userID, stem+"_merged."+string(format))
}

// ResolveMusic treats a bare file name as a Background_Music track.
func (s *Studio) ResolveMusic(music string) string {
	if music == "" || music != filepath.Base(music) {
		return music
	}
	if _, err := os.Stat(music); err == nil {
		return music
	}
	return filepath.Join(s.Dir(s.data.BackgroundMusic), music)
}

// Merge runs the mixer for a generated file and publishes the result.
func (s *Studio) Merge(ctx context.Context, req MergeRequest) (MergeResult, error) {
	if s.mixer == nil {
		return MergeResult{}, errors.New("mixer is not configured")
	}
	userID, err := safeName(req.UserID)
	if err != nil {
		return MergeResult{}, err
	}
	file, err := safeName(req.File)
	if err != nil {
		return MergeResult{}, err
	}

	format := req.Format
	if format == "" {
		format = audio.DefaultFormat
	}
	out := s.MergeOutputPath(userID, file, format)

	res := s.mixer.Mix(ctx, mixer.Request{
		VoicePath:       filepath.Join(s.Dir(s.data.GeneratedAudio), userID, file),
		MusicPath:       s.ResolveMusic(req.Music),
		OutputPath:      out,
		FadeIn:          req.FadeIn,
		FadeOut:         req.FadeOut,
		GainReductionDB: req.GainReductionDB,
		Format:          format,
	})
	path, err := res.Unpack()
	if err != nil {
		return MergeResult{}, err
	}

	result := MergeResult{Path: path}
	publicID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	url, err := s.publish(ctx, path, s.data.MergeAudio, publicID)
	if err != nil {
		result.PublishErr = fmt.Errorf("mix saved but not published: %w", err)
	}
	result.URL = url
	return result, nil
}
