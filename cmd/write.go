package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jayteealao/gitbean/internal/gitfacade"
	"github.com/jayteealao/gitbean/internal/prompt"
	"github.com/jayteealao/gitbean/internal/repository"
	"github.com/jayteealao/gitbean/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var writeCmd = &cobra.Command{
	Use:   "write <path>",
	Short: "Replace a file and commit it",
	Long: `Write new contents to the file at path and commit the change on the
selected branch, authored by your configured identity.

Contents come from --file, --content, or standard input.
Without --message you are prompted for one on a terminal; otherwise a
default message is used.

Examples:
  gitbean write /README.md -f README.md -m "Update readme"
  echo "hello" | gitbean write /hello.txt -m "Say hello"
  gitbean write /VERSION --content 1.2.0`,
	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

var (
	writeMessageFlag string
	writeFileFlag    string
	writeContentFlag string
)

func init() {
	rootCmd.AddCommand(writeCmd)

	writeCmd.Flags().StringVarP(&writeMessageFlag, "message", "m", "", "commit message")
	writeCmd.Flags().StringVarP(&writeFileFlag, "file", "f", "", "read contents from a local file")
	writeCmd.Flags().StringVar(&writeContentFlag, "content", "", "contents to write")
	writeCmd.MarkFlagsMutuallyExclusive("file", "content")
}

func runWrite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	contents, err := writeContents(cmd)
	if err != nil {
		return err
	}

	message, err := commitMessage(cmd, "write", path, writeMessageFlag)
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	printVerbose("Writing %s on %s as %s <%s>", path, s.client.Branch(), s.client.UserName(), s.client.UserEmail())

	res := repository.Await(func(done repository.Completion) {
		s.client.Write(ctx, path, message, contents, done)
	})
	if res.Err != nil {
		return fmt.Errorf("failed to write %s: %w", path, res.Err)
	}

	outputCommit(cmd.OutOrStdout(), "Wrote", path, s.client.Branch(), res.Value)
	return nil
}

// writeContents resolves the file contents from flags or stdin.
func writeContents(cmd *cobra.Command) (string, error) {
	switch {
	case cmd.Flags().Changed("content"):
		return writeContentFlag, nil
	case writeFileFlag != "":
		data, err := os.ReadFile(writeFileFlag)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", writeFileFlag, err)
		}
		return string(data), nil
	}

	in := cmd.InOrStdin()
	if isTerminal(in) {
		return "", fmt.Errorf("no contents given: use --file, --content or pipe them on stdin")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// commitMessage returns flagValue, or asks for one on a terminal, or falls
// back to a generated message.
func commitMessage(cmd *cobra.Command, operation, path, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	suggestion := prompt.DefaultCommitMessage(operation, path)
	if !isTerminal(cmd.InOrStdin()) {
		return suggestion, nil
	}
	return prompt.CommitMessage(path, suggestion)
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func outputCommit(w io.Writer, verb, path, branch string, raw json.RawMessage) {
	var info gitfacade.CommitInfo
	if err := json.Unmarshal(raw, &info); err == nil && info.Commit != "" {
		fmt.Fprintf(w, "%s %s %s on %s (%s)\n",
			tui.SuccessStyle.Render("✓"), verb, path, branch, shortSHA(info.Commit))
		return
	}
	fmt.Fprintf(w, "%s %s %s on %s\n", tui.SuccessStyle.Render("✓"), verb, path, branch)
}

// shortSHA returns the first 7 characters of a SHA.
func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
