package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/jayteealao/gitbean/internal/repository"
	"github.com/jayteealao/gitbean/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the author identity used for commits",
	Long: `Show the author name and email attached to writes and removals.

Values come from the environment (GITBEAN_GIT_USER_NAME, GITBEAN_GIT_USER_EMAIL),
the config file (git.user-name, git.user-email) or stored preferences
(gitUserName, gitUserEmail), in that order. Unset or empty values fall back to
"anonymous" and "anonymous@gmail.com".`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

var whoamiJSONFlag bool

func init() {
	rootCmd.AddCommand(whoamiCmd)

	whoamiCmd.Flags().BoolVar(&whoamiJSONFlag, "json", false, "output in JSON format")
}

type identityEntry struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Branch string `json:"branch"`
}

func runWhoami(cmd *cobra.Command, args []string) error {
	store, err := initStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	// Identity resolution needs no transport.
	client := repository.New("", nil, preferences(store), repository.WithBranch(viper.GetString("branch")))
	entry := identityEntry{
		Name:   client.UserName(),
		Email:  client.UserEmail(),
		Branch: client.Branch(),
	}

	out := cmd.OutOrStdout()
	if whoamiJSONFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}

	fmt.Fprintln(out, tui.Field("name", entry.Name))
	fmt.Fprintln(out, tui.Field("email", entry.Email))
	fmt.Fprintln(out, tui.Field("branch", entry.Branch))
	return nil
}
