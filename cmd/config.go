package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/jayteealao/gitbean/internal/prefs"
	"github.com/jayteealao/gitbean/internal/prompt"
	"github.com/jayteealao/gitbean/internal/repository"
	"github.com/jayteealao/gitbean/internal/tui"
	"github.com/jayteealao/gitbean/internal/validate"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored preferences",
	Long: `Manage the preferences stored in the data directory.

The author identity is kept under gitUserName and gitUserEmail.
The shorter names "name", "email", "user.name" and "user.email" are accepted.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a stored preference",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a preference",
	Example: `  gitbean config set name "Jane Doe"
  gitbean config set email jane@example.com`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored preference",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored preferences",
	Args:    cobra.NoArgs,
	RunE:    runConfigList,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Set your author identity interactively",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configListJSONFlag bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd, configSetCmd, configUnsetCmd, configListCmd, configInitCmd)

	configListCmd.Flags().BoolVar(&configListJSONFlag, "json", false, "output in JSON format")
}

// keyAliases maps accepted shorthands onto preference keys.
var keyAliases = map[string]string{
	"name":       prefs.KeyUserName,
	"user.name":  prefs.KeyUserName,
	"email":      prefs.KeyUserEmail,
	"user.email": prefs.KeyUserEmail,
}

// resolveKey returns the preference key for a name given on the command line.
func resolveKey(name string) string {
	if key, ok := keyAliases[name]; ok {
		return key
	}
	return name
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	store, err := initStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := store.Lookup(cmd.Context(), resolveKey(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), p.Value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := resolveKey(args[0]), args[1]
	if key == prefs.KeyUserEmail && value != "" {
		if err := validate.Email(value); err != nil {
			return err
		}
	}

	store, err := initStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Set(cmd.Context(), key, value); err != nil {
		return err
	}
	printVerbose("Stored %s in %s", key, store.DataDir())
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", tui.SuccessStyle.Render("✓"), key, value)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := resolveKey(args[0])

	store, err := initStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), key); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %s\n", tui.SuccessStyle.Render("✓"), key)
	return nil
}

type preferenceEntry struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at"`
}

func runConfigList(cmd *cobra.Command, args []string) error {
	store, err := initStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if configListJSONFlag {
		entries := make([]preferenceEntry, 0, len(list))
		for _, p := range list {
			entries = append(entries, preferenceEntry{
				Key:       p.Key,
				Value:     p.Value,
				UpdatedAt: p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No preferences stored.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE\tUPDATED")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Key, p.Value, p.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if !isTerminal(cmd.InOrStdin()) {
		return fmt.Errorf("config init needs a terminal; use \"gitbean config set\" instead")
	}

	store, err := initStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	current := prompt.Identity{}
	if v, ok := store.Get(prefs.KeyUserName); ok && v != repository.DefaultUserName {
		current.Name = v
	}
	if v, ok := store.Get(prefs.KeyUserEmail); ok && v != repository.DefaultUserEmail {
		current.Email = v
	}

	id, err := prompt.IdentityForm(current)
	if err != nil {
		return err
	}

	if err := store.Set(cmd.Context(), prefs.KeyUserName, id.Name); err != nil {
		return err
	}
	if err := store.Set(cmd.Context(), prefs.KeyUserEmail, id.Email); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.SuccessStyle.Render("✓ Identity saved"))
	fmt.Fprintln(out, tui.Field("name", id.Name))
	fmt.Fprintln(out, tui.Field("email", id.Email))
	return nil
}
