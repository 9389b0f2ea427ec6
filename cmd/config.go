package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"voicemix/auth"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Configuration management commands",
	Long:        "Commands for managing and validating voicemix configuration.",
	Annotations: map[string]string{skipAuth: "true"},
}

// configValidateCmd validates the current configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the current configuration file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			slog.Error("Configuration validation failed", slog.Any("error", err))
			return err
		}

		slog.Info("Configuration is valid")
		fmt.Println("✅ Configuration is valid")
		return nil
	},
}

// configShowCmd shows the current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current configuration values from file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Current Configuration:")
		fmt.Printf("  Data:\n")
		fmt.Printf("    Root: %s\n", cfg.Data.Root)
		fmt.Printf("    Database: %s\n", cfg.Data.DatabasePath())
		fmt.Printf("  FFmpeg:\n")
		fmt.Printf("    Path: %s\n", orDefault(cfg.FFmpeg.Path, "(search PATH)"))
		fmt.Printf("    Native: %t\n", cfg.FFmpeg.Native)
		fmt.Printf("    Bitrate: %s\n", cfg.FFmpeg.Bitrate)
		fmt.Printf("  Mix:\n")
		fmt.Printf("    Fade in: %s\n", cfg.Mix.FadeIn)
		fmt.Printf("    Fade out: %s\n", cfg.Mix.FadeOut)
		fmt.Printf("    Gain reduction: %.1f dB\n", cfg.Mix.GainReductionDB)
		fmt.Printf("    Format: %s\n", cfg.Mix.Format)
		fmt.Printf("  Speechify:\n")
		fmt.Printf("    Base URL: %s\n", cfg.Speechify.BaseURL)
		fmt.Printf("    API key: %s\n", maskToken(cfg.Speechify.APIKey))
		fmt.Printf("  Publish:\n")
		fmt.Printf("    Backend: %s\n", cfg.Publish.Backend)
		fmt.Printf("    NATS: %s (bucket %s)\n", cfg.Publish.NATSURL, cfg.Publish.Bucket)
		fmt.Printf("    Webhook URL: %s\n", maskURL(cfg.Publish.WebhookURL))
		fmt.Printf("  GitHub:\n")
		fmt.Printf("    Repo: %s\n", orDefault(cfg.GitHub.Repo, "(unset)"))
		fmt.Printf("    Token: %s\n", maskToken(cfg.GitHub.Token))
		fmt.Printf("  Logging:\n")
		fmt.Printf("    Level: %s\n", cfg.Logging.Level)
		fmt.Printf("    Format: %s\n", cfg.Logging.Format)

		return nil
	},
}

// configHashCmd prints a bcrypt hash for the auth.users section
var configHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Hash a password read from stdin for auth.users",
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		h, err := auth.Hash(strings.TrimRight(line, "\r\n"))
		if err != nil {
			return err
		}
		fmt.Println(h)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configHashCmd)
}

// maskToken masks a secret for display
func maskToken(token string) string {
	if token == "" {
		return "(unset)"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "***"
}

// maskURL masks a webhook URL for display
func maskURL(url string) string {
	if url == "" {
		return "(unset)"
	}
	if len(url) <= 20 {
		return "***"
	}
	return url[:20] + "***"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
