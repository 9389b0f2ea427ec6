package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicemix/records"
	"voicemix/speechify"
	"voicemix/studio"
)

// registerCmd clones a voice from an mp3 sample
var registerCmd = &cobra.Command{
	Use:   "register NAME SAMPLE.mp3",
	Short: "Register a cloned voice",
	Long:  "Store a voice sample, clone a voice from it and record the new user.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")

		a := newApp(cfg)
		defer a.Close()

		s, err := a.Studio(nil)
		if err != nil {
			return err
		}

		reg, err := s.RegisterVoice(cmd.Context(), args[0], email, args[1])
		if err != nil {
			return err
		}

		fmt.Printf("✅ Registered %s\n", reg.UserID)
		fmt.Printf("  Voice ID: %s\n", reg.VoiceID)
		fmt.Printf("  Sample: %s\n", reg.SamplePath)
		if reg.SampleURL != "" {
			fmt.Printf("  Published: %s\n", reg.SampleURL)
		}
		return nil
	},
}

// generateCmd synthesises speech for a registered user
var generateCmd = &cobra.Command{
	Use:   "generate USER_ID",
	Short: "Generate speech with a cloned voice",
	Long: `Generate speech files for a user from custom text, a batch workbook
(.xlsx, or .csv) with a Text,File_name header, or both. Files land in
Generated_Audio/<user>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		batch, _ := cmd.Flags().GetString("batch")
		emotion, _ := cmd.Flags().GetString("emotion")
		rate, _ := cmd.Flags().GetString("rate")
		stock, _ := cmd.Flags().GetBool("stock")

		req := studio.GenerateRequest{UserID: args[0], CustomText: text}
		if batch != "" {
			texts, err := records.LoadTextsFile(batch)
			if err != nil {
				return fmt.Errorf("%s: %w", batch, err)
			}
			req.Texts = texts
		}

		var style *speechify.Style
		if emotion != "" {
			style = &speechify.Style{Emotion: emotion, Rate: rate}
		}

		a := newApp(cfg)
		defer a.Close()

		s, err := a.Studio(a.Engine(stock, style))
		if err != nil {
			return err
		}

		report, err := s.GenerateAudio(cmd.Context(), req)
		if err != nil {
			return err
		}

		for _, g := range report.Files {
			fmt.Printf("✅ %s -> %s\n", g.Name, g.Path)
			if g.URL != "" {
				fmt.Printf("   %s\n", g.URL)
			}
		}
		for _, f := range report.Failures {
			fmt.Printf("❌ %s: %v\n", f.Name, f.Err)
		}
		if len(report.Files) == 0 {
			return report.Err()
		}
		return nil
	},
}

// templateCmd writes an example batch file
var templateCmd = &cobra.Command{
	Use:   "template [FILE]",
	Short: "Write an example Text,File_name batch file (default Text_Template.xlsx)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "Text_Template.xlsx"
		if len(args) == 1 {
			path = args[0]
		}
		if path == "-" {
			return records.WriteTextTemplateCSV(cmd.OutOrStdout())
		}
		if err := records.WriteTextTemplateFile(path); err != nil {
			return err
		}
		fmt.Printf("✅ Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(generateCmd)
	generateCmd.AddCommand(templateCmd)

	registerCmd.Flags().String("email", "", "email recorded with the speaker consent")

	generateCmd.Flags().StringP("text", "t", "", "custom text to speak")
	generateCmd.Flags().StringP("batch", "b", "", "CSV file with Text,File_name columns")
	generateCmd.Flags().String("emotion", "", "speaking emotion, e.g. cheerful or calm")
	generateCmd.Flags().String("rate", "medium", "speaking rate used with --emotion")
	generateCmd.Flags().Bool("stock", false, "use a stock gTTS voice instead of the cloned voice")
}
