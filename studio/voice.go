package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"voicemix/records"
	"voicemix/speechify"
)

var ErrNoTexts = errors.New("no text to synthesise")

// Registration describes a newly cloned voice.
type Registration struct {
	UserID     string
	VoiceID    string
	SamplePath string
	SampleURL  string
}

// RegisterVoice stores the sample under User_Records, clones a voice from
// it and records the user. Nothing is recorded when cloning fails.
func (s *Studio) RegisterVoice(ctx context.Context, name, email, samplePath string) (Registration, error) {
	if s.cloner == nil {
		return Registration{}, errors.New("voice cloning is not configured")
	}
	if !strings.EqualFold(filepath.Ext(samplePath), ".mp3") {
		return Registration{}, fmt.Errorf("%w: %s", ErrNotMP3, samplePath)
	}
	if _, err := os.Stat(samplePath); err != nil {
		return Registration{}, fmt.Errorf("voice sample: %w", err)
	}

	userID, err := records.NewUserID(name)
	if err != nil {
		return Registration{}, err
	}

	stored := filepath.Join(s.Dir(s.data.UserRecords), userID+".mp3")
	if err := copyFile(samplePath, stored); err != nil {
		return Registration{}, fmt.Errorf("failed to store sample: %w", err)
	}

	reg := Registration{UserID: userID, SamplePath: stored}
	reg.SampleURL, _ = s.publish(ctx, stored, s.data.UserRecords, userID)

	voiceID, err := s.cloner.CreateVoice(ctx, name, stored, speechify.Consent{FullName: name, Email: email})
	if err != nil {
		os.Remove(stored)
		return Registration{}, fmt.Errorf("failed to create voice: %w", err)
	}
	reg.VoiceID = voiceID

	if err := s.records.SaveUser(records.User{ID: userID, VoiceID: voiceID, Name: name, Email: email}); err != nil {
		return Registration{}, fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Info("Registered voice",
		slog.String("user_id", userID),
		slog.String("voice_id", voiceID))

	return reg, nil
}

// GenerateRequest selects what to synthesise for a user.
type GenerateRequest struct {
	UserID     string
	CustomText string
	// Texts maps file name to text, usually from records.LoadTexts.
	Texts map[string]string
}

// Generated is one synthesised file.
type Generated struct {
	Name string
	Path string
	URL  string
}

// ItemError is a per-file failure inside a batch.
type ItemError struct {
	Name string
	Err  error
}

func (e ItemError) Error() string {
	return e.Name + ": " + e.Err.Error()
}

// GenerateReport lists what was produced and what failed.
type GenerateReport struct {
	Files    []Generated
	Failures []ItemError
}

// Err joins the per-item failures, or returns nil.
func (r GenerateReport) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// GenerateAudio synthesises every text into Generated_Audio/<user>/<name>.mp3.
// A failing item does not stop the batch.
func (s *Studio) GenerateAudio(ctx context.Context, req GenerateRequest) (GenerateReport, error) {
	if s.engine == nil {
		return GenerateReport{}, errors.New("speech engine is not configured")
	}
	user, err := s.records.User(req.UserID)
	if err != nil {
		return GenerateReport{}, err
	}

	texts := make(map[string]string, len(req.Texts)+1)
	for name, text := range req.Texts {
		texts[name] = text
	}
	if strings.TrimSpace(req.CustomText) != "" {
		texts[records.ShortID()] = req.CustomText
	}
	if len(texts) == 0 {
		return GenerateReport{}, ErrNoTexts
	}

	names := make([]string, 0, len(texts))
	for name := range texts {
		names = append(names, name)
	}
	slices.Sort(names)

	dir := filepath.Join(s.Dir(s.data.GeneratedAudio), user.ID)
	// Per-user folder: template names like greeting1 repeat across users.
	folder := s.data.GeneratedAudio + "/" + user.ID

	var report GenerateReport
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		safe, err := safeName(name)
		if err != nil {
			report.Failures = append(report.Failures, ItemError{Name: name, Err: err})
			continue
		}

		out := filepath.Join(dir, safe+".mp3")
		if err := s.engine.Synthesize(ctx, texts[name], user.VoiceID, out); err != nil {
			s.logger.Error("Speech generation failed", slog.String("name", name), slog.Any("error", err))
			report.Failures = append(report.Failures, ItemError{Name: name, Err: err})
			continue
		}

		g := Generated{Name: safe, Path: out}
		g.URL, _ = s.publish(ctx, out, folder, safe)
		report.Files = append(report.Files, g)
	}

	s.logger.Info("Generation finished",
		slog.String("user_id", user.ID),
		slog.Int("generated", len(report.Files)),
		slog.Int("failed", len(report.Failures)))

	return report, nil
}
