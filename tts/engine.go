// Package tts turns text into mp3 files, either with a cloned Speechify
// voice or with a stock Google voice.
package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Duckduckgot/gtts"
	"github.com/Duckduckgot/gtts/voices"

	"voicemix/speechify"
)

var (
	ErrNotMP3   = errors.New("output path must end in .mp3")
	ErrNotAudio = errors.New("speech service returned no audio")
)

// Engine writes speech for text into outPath, an .mp3 file.
type Engine interface {
	Synthesize(ctx context.Context, text, voiceID, outPath string) error
}

// Synthesizer is the part of the Speechify client the engine needs.
type Synthesizer interface {
	Synthesize(ctx context.Context, req speechify.SpeechRequest) ([]byte, error)
}

// CloneEngine speaks with a cloned Speechify voice.
type CloneEngine struct {
	client Synthesizer
	style  *speechify.Style
}

func NewCloneEngine(client Synthesizer, style *speechify.Style) *CloneEngine {
	return &CloneEngine{client: client, style: style}
}

func (e *CloneEngine) Synthesize(ctx context.Context, text, voiceID, outPath string) error {
	if err := checkOutput(outPath); err != nil {
		return err
	}

	data, err := e.client.Synthesize(ctx, speechify.SpeechRequest{
		Text:    text,
		VoiceID: voiceID,
		Style:   e.style,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(outPath, data, 0o644)
}

// StockEngine speaks with a stock gTTS voice and ignores the voice id.
type StockEngine struct {
	language string
	speak    func(text string) ([]byte, error)
}

func NewStockEngine(language string) *StockEngine {
	if language == "" {
		language = voices.English
	}
	speech := &gtts.Speech{Language: language}
	return &StockEngine{language: language, speak: speech.SpeakB}
}

func (e *StockEngine) Synthesize(ctx context.Context, text, _ string, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return speechify.ErrEmptyText
	}
	if err := checkOutput(outPath); err != nil {
		return err
	}

	// SpeakB always downloads; CreateSpeechFile would keep a stale file
	// with the same name.
	data, err := e.speak(text)
	if err != nil {
		return fmt.Errorf("gtts failed: %w", err)
	}
	if !looksLikeMP3(data) {
		return fmt.Errorf("gtts %s: %w", e.language, ErrNotAudio)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(outPath, data, 0o644)
}

// looksLikeMP3 accepts an ID3 tag or an MPEG frame sync. gtts does not
// check the HTTP status, so error pages arrive here as HTML.
func looksLikeMP3(data []byte) bool {
	if len(data) < 3 {
		return false
	}
	if string(data[:3]) == "ID3" {
		return true
	}
	return data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

func checkOutput(outPath string) error {
	if !strings.EqualFold(filepath.Ext(outPath), ".mp3") {
		return fmt.Errorf("%w: %s", ErrNotMP3, outPath)
	}
	return nil
}
