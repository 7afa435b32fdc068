// Package cmd provides CLI commands for gitbean.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jayteealao/gitbean/internal/jolokia"
	"github.com/jayteealao/gitbean/internal/repository"
	"github.com/jayteealao/gitbean/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the current version of gitbean.
// Can be overridden at build time: go build -ldflags "-X github.com/jayteealao/gitbean/cmd.Version=v1.0.0"
var Version = "v0.1.0"

// Defaults for the bean bridge.
const (
	defaultAgentURL = "http://localhost:8181/jolokia"
	defaultMBean    = "io.fabric8:type=GitFacade"
)

var (
	cfgFile string
	dataDir string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gitbean",
	Short: "Read and change files in a git repository behind a Jolokia bean",
	Long: `gitbean reads, writes and removes files in a versioned repository that is
exposed as a JMX management bean (a git facade) through a Jolokia agent.

Every change is committed on the selected branch with the author identity
stored in your local preferences (see "gitbean config").

Use --repo to work against a local git repository without an agent.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nReceived signal %v, shutting down...\n", sig)
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError reports a command failure.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, tui.ErrorStyle.Render("Error:"), err)
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gitbean/config.yaml)")
	flags.StringVar(&dataDir, "data-dir", "", "data directory for preferences (default is $HOME/.gitbean)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	flags.String("url", defaultAgentURL, "Jolokia agent URL")
	flags.String("mbean", defaultMBean, "git facade bean name")
	flags.StringP("branch", "b", repository.DefaultBranch, "branch to operate on")
	flags.String("repo", "", "use a local git repository instead of a Jolokia agent")
	flags.String("user", "", "Jolokia basic auth user")
	flags.String("password", "", "Jolokia basic auth password")
	flags.Duration("timeout", jolokia.DefaultTimeout, "timeout for a single bean invocation")

	viper.BindPFlag("data-dir", flags.Lookup("data-dir"))
	viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.BindPFlag("jolokia.url", flags.Lookup("url"))
	viper.BindPFlag("jolokia.mbean", flags.Lookup("mbean"))
	viper.BindPFlag("jolokia.user", flags.Lookup("user"))
	viper.BindPFlag("jolokia.password", flags.Lookup("password"))
	viper.BindPFlag("jolokia.timeout", flags.Lookup("timeout"))
	viper.BindPFlag("branch", flags.Lookup("branch"))
	viper.BindPFlag("repo", flags.Lookup("repo"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".gitbean"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// GITBEAN_JOLOKIA_URL, GITBEAN_GIT_USER_NAME, ...
	viper.SetEnvPrefix("GITBEAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// getDataDir returns the data directory, defaulting to $HOME/.gitbean
func getDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	if d := viper.GetString("data-dir"); d != "" {
		return d, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".gitbean"), nil
}

// isVerbose returns true if verbose output is enabled.
func isVerbose() bool {
	return verbose || viper.GetBool("verbose")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if isVerbose() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// timeout returns the configured per-invocation timeout.
func timeout() time.Duration {
	if d := viper.GetDuration("jolokia.timeout"); d > 0 {
		return d
	}
	return jolokia.DefaultTimeout
}
