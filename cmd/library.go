package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voicemix/library"
)

// musicCmd groups background-music commands
var musicCmd = &cobra.Command{
	Use:   "music",
	Short: "Background music commands",
}

var musicFetchCmd = &cobra.Command{
	Use:   "fetch URL",
	Short: "Download a YouTube track as mp3 into Background_Music",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cfg)
		defer a.Close()

		if _, err := a.Codec(); err != nil {
			return err
		}
		s, err := a.Studio(nil)
		if err != nil {
			return err
		}

		track, err := s.FetchMusic(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✅ Downloaded %s\n", track.Path)
		if track.URL != "" {
			fmt.Printf("  Published: %s\n", track.URL)
		}
		return nil
	},
}

var musicListCmd = &cobra.Command{
	Use:   "list",
	Short: "List background music tracks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listFolder(cmd, cfg.Data.BackgroundMusic)
	},
}

// filesCmd groups file-management commands
var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage generated, merged and recorded audio",
}

var filesListCmd = &cobra.Command{
	Use:   "list [FOLDER]",
	Short: "List audio files (default Merge_Audio)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := cfg.Data.MergeAudio
		if len(args) == 1 {
			folder = args[0]
		}
		return listFolder(cmd, folder)
	},
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete PATH...",
	Short: "Delete audio files inside the data root",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := library.New(cfg.Data.Root, nil)
		if err != nil {
			return err
		}
		for _, p := range args {
			// Relative paths that do not exist here are taken from the data root.
			if !filepath.IsAbs(p) {
				if _, err := os.Stat(p); err != nil {
					p = filepath.Join(lib.Root(), p)
				}
			}
			if err := lib.Delete(p); err != nil {
				return err
			}
			fmt.Printf("🗑️  Deleted %s\n", p)
		}
		return nil
	},
}

var filesZipCmd = &cobra.Command{
	Use:   "zip FOLDER OUTPUT.zip [NAME...]",
	Short: "Zip selected files of a folder (all when no names are given)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := library.New(cfg.Data.Root, nil)
		if err != nil {
			return err
		}
		entries, err := lib.List(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		selected := library.Select(entries, args[2:])
		if err := library.ZipFile(args[1], selected); err != nil {
			return err
		}
		fmt.Printf("📦 Wrote %d files to %s\n", len(selected), args[1])
		return nil
	},
}

func listFolder(cmd *cobra.Command, folder string) error {
	a := newApp(cfg)
	defer a.Close()

	lib, err := a.Library()
	if err != nil {
		return err
	}
	entries, err := lib.List(cmd.Context(), folder)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No audio files in %s\n", folder)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSIZE\tDURATION\tMODIFIED")
	for _, e := range entries {
		dur := "-"
		if e.Duration > 0 {
			dur = e.Duration.Round(100 * time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ArchiveName(), humanize.Bytes(uint64(e.Size)), dur, humanize.Time(e.ModTime))
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(musicCmd)
	musicCmd.AddCommand(musicFetchCmd, musicListCmd)

	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesListCmd, filesDeleteCmd, filesZipCmd)
}
