package cmd

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"voicemix/backup"
)

// usersCmd groups user-record commands
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage registered users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cfg)
		defer a.Close()

		store, err := a.Store()
		if err != nil {
			return err
		}
		users, err := store.Users()
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No registered users")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USER ID\tVOICE ID\tNAME\tEMAIL\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.VoiceID, u.Name, u.Email, u.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var usersExportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Export users to FILE (.xlsx, or .csv); CSV on stdout when no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cfg)
		defer a.Close()

		store, err := a.Store()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return store.ExportCSV(cmd.OutOrStdout())
		}
		if err := store.ExportFile(args[0]); err != nil {
			return err
		}
		fmt.Printf("✅ Exported users to %s\n", args[0])
		return nil
	},
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update USER_ID",
	Short: "Change a user's name or email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		if name == "" && email == "" {
			return fmt.Errorf("nothing to update: pass --name or --email")
		}

		a := newApp(cfg)
		defer a.Close()

		store, err := a.Store()
		if err != nil {
			return err
		}
		if err := store.UpdateUser(args[0], name, email); err != nil {
			return err
		}
		fmt.Printf("✅ Updated %s\n", args[0])
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete USER_ID",
	Short: "Delete a user record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cfg)
		defer a.Close()

		store, err := a.Store()
		if err != nil {
			return err
		}
		if err := store.DeleteUser(args[0]); err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleted %s\n", args[0])
		return nil
	},
}

var usersPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the user export to the configured GitHub repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")

		token := cfg.GitHub.Token
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		pusher, err := backup.NewPusher(token, cfg.GitHub.Repo, cfg.GitHub.Branch)
		if err != nil {
			return err
		}

		a := newApp(cfg)
		defer a.Close()

		store, err := a.Store()
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := store.Export(&buf, cfg.GitHub.Path); err != nil {
			return err
		}

		url, err := pusher.Push(cmd.Context(), cfg.GitHub.Path, buf.Bytes(), message)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Pushed %s to %s\n", cfg.GitHub.Path, cfg.GitHub.Repo)
		if url != "" {
			fmt.Printf("  %s\n", url)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersExportCmd, usersUpdateCmd, usersDeleteCmd, usersPushCmd)

	usersUpdateCmd.Flags().String("name", "", "new display name")
	usersUpdateCmd.Flags().String("email", "", "new email")
	usersPushCmd.Flags().StringP("message", "m", "Update User Data", "commit message")
}
