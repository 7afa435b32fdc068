package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jayteealao/gitbean/internal/gitfacade"
	"github.com/jayteealao/gitbean/internal/repository"
	"github.com/jayteealao/gitbean/internal/tui"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:     "read <path>",
	Aliases: []string{"cat", "ls"},
	Short:   "Show a file or list a directory",
	Long: `Read the file or directory at path on the selected branch.

Files are printed as-is. Directories are listed one entry per line.

Examples:
  gitbean read /README.md
  gitbean read / --branch develop
  gitbean read /docs --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

var readJSONFlag bool

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().BoolVar(&readJSONFlag, "json", false, "print the raw bean payload as JSON")
}

func runRead(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	res := repository.Await(func(done repository.Completion) {
		s.client.Read(ctx, path, done)
	})
	if res.Err != nil {
		return fmt.Errorf("failed to read %s: %w", path, res.Err)
	}

	out := cmd.OutOrStdout()
	if readJSONFlag {
		return outputJSON(out, res.Value)
	}

	return outputContents(out, path, res.Value)
}

// outputContents prints a file or a listing. Payloads that are not file
// contents are printed as JSON.
func outputContents(w io.Writer, path string, raw json.RawMessage) error {
	fc, ok := decodeFileContents(raw)
	if !ok {
		return outputJSON(w, raw)
	}

	if fc.Directory {
		return outputListing(w, path, fc.Children)
	}

	fmt.Fprint(w, fc.Text)
	return nil
}

// decodeFileContents reports whether raw is an object carrying any of the
// file-contents fields.
func decodeFileContents(raw json.RawMessage) (*gitfacade.FileContents, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	_, hasDir := fields["directory"]
	_, hasText := fields["text"]
	_, hasChildren := fields["children"]
	if !hasDir && !hasText && !hasChildren {
		return nil, false
	}

	var fc gitfacade.FileContents
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, false
	}
	return &fc, true
}

func outputJSON(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = w.Write(raw)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func outputListing(w io.Writer, path string, children []gitfacade.FileInfo) error {
	fmt.Fprintln(w, tui.TitleStyle.Render(path))

	if len(children) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range children {
		size := "-"
		if !c.Directory {
			size = tui.SizeStyle.Render(tui.HumanSize(c.Size))
		}
		fmt.Fprintf(tw, "  %s %s\t%s\n", tui.EntryIcon(c.Directory), tui.EntryName(c.Name, c.Directory), size)
	}
	return tw.Flush()
}
