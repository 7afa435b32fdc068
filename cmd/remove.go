package cmd

import (
	"fmt"

	"github.com/jayteealao/gitbean/internal/prompt"
	"github.com/jayteealao/gitbean/internal/repository"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <path>",
	Aliases: []string{"rm"},
	Short:   "Remove a file or directory and commit it",
	Long: `Remove the file or directory at path and commit the removal on the
selected branch, authored by your configured identity.

On a terminal you are asked to confirm unless --yes is given.

Examples:
  gitbean remove /old.txt -m "Drop old notes"
  gitbean rm /drafts --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var (
	removeMessageFlag string
	removeYesFlag     bool
)

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().StringVarP(&removeMessageFlag, "message", "m", "", "commit message")
	removeCmd.Flags().BoolVarP(&removeYesFlag, "yes", "y", false, "do not ask for confirmation")
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	message, err := commitMessage(cmd, "remove", path, removeMessageFlag)
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if !removeYesFlag && isTerminal(cmd.InOrStdin()) {
		ok, err := prompt.ConfirmAction(
			fmt.Sprintf("Remove %s?", path),
			fmt.Sprintf("The removal is committed on %s.", s.client.Branch()),
		)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	res := repository.Await(func(done repository.Completion) {
		s.client.Remove(ctx, path, message, done)
	})
	if res.Err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, res.Err)
	}

	outputCommit(cmd.OutOrStdout(), "Removed", path, s.client.Branch(), res.Value)
	return nil
}
