// Package speechify is a small client for the Speechify voice API: cloning a
// voice from a sample and synthesising speech with it.
package speechify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	apiVoices = "/v1/voices"
	apiSpeech = "/v1/audio/speech"

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	contentTypeJSON     = "application/json"

	DefaultBaseURL = "https://api.sws.speechify.com"
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 4096
)

var (
	ErrEmptyText      = errors.New("text cannot be empty")
	ErrEmptyVoiceID   = errors.New("voice id cannot be empty")
	ErrNoAudio        = errors.New("response carried no audio data")
	ErrMissingVoiceID = errors.New("response carried no voice id")
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("speechify returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to the Speechify HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	language   string
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a client. An empty baseURL means the public endpoint.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consent is the speaker consent record sent with a cloning request.
type Consent struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type voiceResponse struct {
	ID string `json:"id"`
}

// CreateVoice uploads samplePath and returns the id of the cloned voice.
func (c *Client) CreateVoice(ctx context.Context, name, samplePath string, consent Consent) (string, error) {
	f, err := os.Open(samplePath)
	if err != nil {
		return "", fmt.Errorf("failed to open sample: %w", err)
	}
	defer f.Close()

	consentJSON, err := json.Marshal(consent)
	if err != nil {
		return "", fmt.Errorf("failed to marshal consent: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("name", name); err != nil {
		return "", err
	}
	if err := mw.WriteField("consent", string(consentJSON)); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("sample", filepath.Base(samplePath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to read sample: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, apiVoices, mw.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}

	var out voiceResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", ErrMissingVoiceID
	}
	return out.ID, nil
}

// Style adds emotion and pacing to synthesised speech.
type Style struct {
	Emotion string
	Rate    string
}

// SpeechRequest is one synthesis call.
type SpeechRequest struct {
	Text    string
	VoiceID string
	Style   *Style
}

type speechPayload struct {
	Input       string `json:"input"`
	SSML        bool   `json:"ssml"`
	VoiceID     string `json:"voice_id"`
	AudioFormat string `json:"audio_format"`
	Model       string `json:"model,omitempty"`
	Language    string `json:"language,omitempty"`
}

type speechResponse struct {
	AudioData   string `json:"audio_data"`
	AudioFormat string `json:"audio_format"`
}

// Synthesize returns mp3 bytes for req.
func (c *Client) Synthesize(ctx context.Context, sr SpeechRequest) ([]byte, error) {
	if strings.TrimSpace(sr.Text) == "" {
		return nil, ErrEmptyText
	}
	if sr.VoiceID == "" {
		return nil, ErrEmptyVoiceID
	}

	ssml, err := BuildSSML(sr.Text, sr.Style)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(speechPayload{
		Input:       ssml,
		SSML:        true,
		VoiceID:     sr.VoiceID,
		AudioFormat: "mp3",
		Model:       c.model,
		Language:    c.language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, apiSpeech, contentTypeJSON, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var out speechResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.AudioData == "" {
		return nil, ErrNoAudio
	}

	data, err := base64.StdEncoding.DecodeString(out.AudioData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio data: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoAudio
	}
	return data, nil
}

func (c *Client) newRequest(ctx context.Context, path, contentType string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerContentType, contentType)
	req.Header.Set(headerAuthorization, "Bearer "+c.apiKey)
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
