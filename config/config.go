package config

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"voicemix/audio"
)

// Config holds all configuration for the application
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	FFmpeg    FFmpegConfig    `mapstructure:"ffmpeg"`
	Mix       MixConfig       `mapstructure:"mix"`
	Speechify SpeechifyConfig `mapstructure:"speechify"`
	Publish   PublishConfig   `mapstructure:"publish"`
	YouTube   YouTubeConfig   `mapstructure:"youtube"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DataConfig describes the on-disk layout
type DataConfig struct {
	Root            string `mapstructure:"root"`
	UserRecords     string `mapstructure:"user_records"`
	GeneratedAudio  string `mapstructure:"generated_audio"`
	MergeAudio      string `mapstructure:"merge_audio"`
	BackgroundMusic string `mapstructure:"background_music"`
	Database        string `mapstructure:"database"`
}

// Dir joins a folder name onto the data root.
func (d DataConfig) Dir(folder string) string {
	return filepath.Join(d.Root, folder)
}

// DatabasePath is relative to the data root unless absolute.
func (d DataConfig) DatabasePath() string {
	if filepath.IsAbs(d.Database) {
		return d.Database
	}
	return filepath.Join(d.Root, d.Database)
}

// FFmpegConfig locates the ffmpeg toolchain
type FFmpegConfig struct {
	Path       string   `mapstructure:"path"`
	ProbePath  string   `mapstructure:"probe_path"`
	SearchDirs []string `mapstructure:"search_dirs"`
	Bitrate    string   `mapstructure:"bitrate"`
	SampleRate int      `mapstructure:"sample_rate"`
	Channels   int      `mapstructure:"channels"`
	// Native skips ffmpeg entirely and only handles wav/mp3 in, wav out.
	Native bool `mapstructure:"native"`
}

// MixConfig holds default mix parameters
type MixConfig struct {
	FadeIn          time.Duration `mapstructure:"fade_in"`
	FadeOut         time.Duration `mapstructure:"fade_out"`
	GainReductionDB float64       `mapstructure:"gain_reduction_db"`
	Format          string        `mapstructure:"format"`
}

// SpeechifyConfig holds voice-cloning API settings
type SpeechifyConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Model    string        `mapstructure:"model"`
	Language string        `mapstructure:"language"`
}

// PublishConfig selects where produced files are published
type PublishConfig struct {
	Backend    string `mapstructure:"backend"` // none, nats or discord
	NATSURL    string `mapstructure:"nats_url"`
	Bucket     string `mapstructure:"bucket"`
	WebhookURL string `mapstructure:"webhook_url"`
	ThreadID   string `mapstructure:"thread_id"`
}

// YouTubeConfig holds yt-dlp settings
type YouTubeConfig struct {
	Executable   string `mapstructure:"executable"`
	AudioQuality string `mapstructure:"audio_quality"`
}

// GitHubConfig holds the records backup target
type GitHubConfig struct {
	Token  string `mapstructure:"token"`
	Repo   string `mapstructure:"repo"` // owner/name
	Branch string `mapstructure:"branch"`
	Path   string `mapstructure:"path"`
}

// AuthConfig maps operator names to bcrypt hashes
type AuthConfig struct {
	Users map[string]string `mapstructure:"users"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data.root", "data")
	v.SetDefault("data.user_records", "User_Records")
	v.SetDefault("data.generated_audio", "Generated_Audio")
	v.SetDefault("data.merge_audio", "Merge_Audio")
	v.SetDefault("data.background_music", "Background_Music")
	v.SetDefault("data.database", "users.db")

	v.SetDefault("ffmpeg.search_dirs", []string{"/usr/local/bin", "/usr/bin", "/opt/homebrew/bin"})
	v.SetDefault("ffmpeg.bitrate", "192k")
	v.SetDefault("ffmpeg.sample_rate", 44100)
	v.SetDefault("ffmpeg.channels", 2)
	v.SetDefault("ffmpeg.native", false)

	v.SetDefault("mix.fade_in", "1s")
	v.SetDefault("mix.fade_out", "1s")
	v.SetDefault("mix.gain_reduction_db", 5.0)
	v.SetDefault("mix.format", "mp3")

	v.SetDefault("speechify.base_url", "https://api.sws.speechify.com")
	v.SetDefault("speechify.timeout", "60s")
	v.SetDefault("speechify.model", "simba-english")
	v.SetDefault("speechify.language", "en-US")

	v.SetDefault("publish.backend", "none")
	v.SetDefault("publish.nats_url", "nats://127.0.0.1:4222")
	v.SetDefault("publish.bucket", "voicemix")

	v.SetDefault("youtube.executable", "yt-dlp")
	v.SetDefault("youtube.audio_quality", "192K")

	v.SetDefault("github.branch", "main")
	v.SetDefault("github.path", "User_Data.xlsx")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load reads configuration through v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.voicemix")
	v.AddConfigPath("/etc/voicemix")

	v.SetEnvPrefix("VOICEMIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		slog.Debug("No config file found, using defaults and environment variables")
	} else {
		slog.Info("Using config file", slog.String("file", v.ConfigFileUsed()))
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Data.Root == "" {
		return &ConfigError{Field: "data.root", Message: "data root is required"}
	}
	if c.Mix.FadeIn < 0 {
		return &ConfigError{Field: "mix.fade_in", Message: "fade-in must not be negative"}
	}
	if c.Mix.FadeOut < 0 {
		return &ConfigError{Field: "mix.fade_out", Message: "fade-out must not be negative"}
	}
	if _, err := audio.ParseFormat(c.Mix.Format); err != nil {
		return &ConfigError{Field: "mix.format", Message: err.Error()}
	}
	if c.FFmpeg.Channels < 0 || c.FFmpeg.Channels > audio.MaxChannels {
		return &ConfigError{Field: "ffmpeg.channels", Message: "channels must be 1 or 2"}
	}

	switch c.Publish.Backend {
	case "", "none":
	case "nats":
		if c.Publish.NATSURL == "" {
			return &ConfigError{Field: "publish.nats_url", Message: "NATS URL is required for the nats backend"}
		}
		if c.Publish.Bucket == "" {
			return &ConfigError{Field: "publish.bucket", Message: "bucket is required for the nats backend"}
		}
	case "discord":
		if c.Publish.WebhookURL == "" {
			return &ConfigError{Field: "publish.webhook_url", Message: "Discord webhook URL is required for the discord backend"}
		}
	default:
		return &ConfigError{Field: "publish.backend", Message: "unknown backend " + c.Publish.Backend}
	}

	if c.GitHub.Repo != "" && strings.Count(c.GitHub.Repo, "/") != 1 {
		return &ConfigError{Field: "github.repo", Message: "repo must be owner/name"}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "format must be text or json"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
