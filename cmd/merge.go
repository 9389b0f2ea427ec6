package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"voicemix/assets"
	"voicemix/audio"
	"voicemix/config"
	"voicemix/studio"
)

// mergeCmd lays background music under a generated file
var mergeCmd = &cobra.Command{
	Use:   "merge USER_ID FILE MUSIC",
	Short: "Mix a generated file over background music",
	Long: `Mix Generated_Audio/<user>/FILE over MUSIC and write
Merge_Audio/<user>/<stem>_merged.<format>. MUSIC is a path or a file name
inside Background_Music.

Values come from the mix config section, then --preset, then explicit flags.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := mixParams(cmd, cfg.Mix)
		if err != nil {
			return err
		}
		params.UserID, params.File, params.Music = args[0], args[1], args[2]

		a := newApp(cfg)
		defer a.Close()

		if _, err := a.Codec(); err != nil {
			return err
		}
		s, err := a.Studio(nil)
		if err != nil {
			return err
		}

		res, err := s.Merge(cmd.Context(), params)
		if err != nil {
			return err
		}

		fmt.Printf("✅ Merged audio saved to %s\n", res.Path)
		if res.URL != "" {
			fmt.Printf("  Published: %s\n", res.URL)
		}
		if res.PublishErr != nil {
			fmt.Printf("⚠️  %v\n", res.PublishErr)
		}
		return nil
	},
}

// mixParams layers config defaults, a preset and explicit flags.
func mixParams(cmd *cobra.Command, mc config.MixConfig) (studio.MergeRequest, error) {
	req := studio.MergeRequest{
		FadeIn:          mc.FadeIn,
		FadeOut:         mc.FadeOut,
		GainReductionDB: mc.GainReductionDB,
	}
	formatName := mc.Format

	if name, _ := cmd.Flags().GetString("preset"); name != "" {
		p, err := assets.GetPresetCache().Get(name)
		if err != nil {
			return req, fmt.Errorf("%w (available: %v)", err, assets.GetPresetCache().Names())
		}
		slog.Debug("Applying preset", slog.String("preset", p.Name))
		req.FadeIn, req.FadeOut, req.GainReductionDB = p.FadeIn, p.FadeOut, p.GainReductionDB
		if p.Format != "" {
			formatName = p.Format
		}
	}

	flags := cmd.Flags()
	if flags.Changed("fade-in") {
		req.FadeIn, _ = flags.GetDuration("fade-in")
	}
	if flags.Changed("fade-out") {
		req.FadeOut, _ = flags.GetDuration("fade-out")
	}
	if flags.Changed("gain") {
		req.GainReductionDB, _ = flags.GetFloat64("gain")
	}
	if flags.Changed("format") {
		formatName, _ = flags.GetString("format")
	}

	format, err := audio.ParseFormat(formatName)
	if err != nil {
		return req, err
	}
	req.Format = format
	return req, nil
}

// presetsCmd lists the embedded presets
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List mix presets",
	Run: func(cmd *cobra.Command, args []string) {
		cache := assets.GetPresetCache()
		for _, name := range cache.Names() {
			p, _ := cache.Get(name)
			fmt.Printf("%-8s fade-in %-6s fade-out %-6s gain %5.1f dB  %s\n",
				p.Name, p.FadeIn, p.FadeOut, p.GainReductionDB, p.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.AddCommand(presetsCmd)
	presetsCmd.Annotations = map[string]string{skipAuth: "true"}

	mergeCmd.Flags().String("preset", "", "mix preset (see 'merge presets')")
	mergeCmd.Flags().Duration("fade-in", time.Second, "music fade-in")
	mergeCmd.Flags().Duration("fade-out", time.Second, "music fade-out")
	mergeCmd.Flags().Float64("gain", 5, "music gain reduction in dB; negative amplifies")
	mergeCmd.Flags().String("format", "mp3", "export format (mp3, wav, ogg)")
}
