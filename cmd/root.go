package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/langlog/internal"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	rootDir string
	logName string
	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "langlog",
	Short: "Drive multi-turn language-model conversations from the terminal",
	Long: `langlog keeps conversations with a text-generation backend as durable,
ordered logs and applies named plugins over them.

Each log owns a workspace directory where code blocks proposed by the
backend can be written (with numbered backups) and executed in a bounded
sandbox, with every side effect recorded back into the log.

Quick Start:
  langlog run                       # interactive session on the default log
  langlog run --log mylog           # pick a log by name
  langlog run -n -x "complete" -x "write"   # one-shot scripted session
  langlog list                      # list stored logs
  langlog export --format md        # render a log as Markdown

Layout under the root directory (default ~/.langlog):
  ll/<name>           log files
  exec/<name>/        per-log workspace
  exec/<name>/.backup numbered pre-overwrite snapshots
  journal.db          dispatch journal`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Root directory for logs and workspaces (default $LANGLOG_PATH or ~/.langlog)")
	rootCmd.PersistentFlags().StringVar(&logName, "log", "default", "Log name to operate on")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// resolveRoot picks the root directory from the flag, the environment or
// the home directory, in that order.
func resolveRoot() (string, error) {
	if rootDir != "" {
		return rootDir, nil
	}
	if env := os.Getenv("LANGLOG_PATH"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".langlog"), nil
}
