package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"voicemix/auth"
	"voicemix/config"
	"voicemix/logger"
)

var (
	cfgFile  string
	verbose  bool
	username string
	password string

	// cfg is loaded once per invocation by PersistentPreRunE.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voicemix",
	Short: "Clone voices, generate speech and mix it over background music",
	Long: `Voicemix registers cloned voices from a short sample, generates speech
with them, and lays background music under the result with fades and gain
reduction.

Operator commands require --user and --password (or VOICEMIX_USER and
VOICEMIX_PASSWORD).`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", os.Getenv("VOICEMIX_USER"), "operator name")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", os.Getenv("VOICEMIX_PASSWORD"), "operator password")
	rootCmd.PersistentFlags().String("data", "data", "data root directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("ffmpeg", "", "path to the ffmpeg executable")
	rootCmd.PersistentFlags().Bool("native", false, "use the built-in wav/mp3 codec instead of ffmpeg")
	rootCmd.PersistentFlags().String("publish", "none", "publish backend (none, nats, discord)")

	// Bind flags to viper
	viper.BindPFlag("data.root", rootCmd.PersistentFlags().Lookup("data"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("ffmpeg.path", rootCmd.PersistentFlags().Lookup("ffmpeg"))
	viper.BindPFlag("ffmpeg.native", rootCmd.PersistentFlags().Lookup("native"))
	viper.BindPFlag("publish.backend", rootCmd.PersistentFlags().Lookup("publish"))
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if verbose {
		viper.Set("logging.level", "debug")
	}
}

// setup loads configuration, installs logging and checks credentials for
// commands that need them.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = loaded

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if !requiresAuth(cmd) {
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	authenticator, err := newAuthenticator(cfg.Auth)
	if err != nil {
		return err
	}
	if err := authenticator.Check(username, password); err != nil {
		return err
	}
	return nil
}

// requiresAuth is false for commands annotated with skipAuth and their
// children.
func requiresAuth(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipAuth] == "true" || c.Name() == "help" || c.Name() == "completion" {
			return false
		}
	}
	return true
}

const skipAuth = "skip-auth"

func newAuthenticator(ac config.AuthConfig) (*auth.Authenticator, error) {
	if len(ac.Users) > 0 {
		return auth.New(ac.Users), nil
	}
	return auth.FromPlaintext(auth.DemoUsers, 0)
}
