package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/langlog/internal"
	"github.com/iksnae/langlog/internal/export"
	"github.com/spf13/cobra"
)

var (
	nonInteractive bool
	directives     []string
	replies        []string
	noJournal      bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a session on a log",
	Long: `Run a session: read commands, dispatch plugins over the log, persist on
an explicit write.

Interactive mode reads commands from the terminal until quit. With
--non-interactive the session consumes only the -x directives and then
stops; any unrecovered error makes the process exit nonzero.

Command grammar: <plugin> [option=value ...] [@index]. A line that is not
a registered plugin is appended to the log as a user message.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		store := internal.NewStore(root)

		// One writer per log name; a second session on the same log is
		// refused, not merged.
		release, err := store.Acquire(logName)
		if err != nil {
			return err
		}
		defer release()

		log, err := store.Load(logName)
		if err != nil {
			var notFound *internal.NotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
			log = internal.NewLog(logName)
		}

		var journal *internal.Journal
		if !noJournal {
			journal, err = internal.OpenJournal(filepath.Join(root, "journal.db"))
			if err != nil {
				internal.LogWarn("journal unavailable: %v", err)
				journal = nil
			} else {
				defer journal.Close()
			}
		}

		env := &internal.Env{
			Store:       store,
			Provider:    &internal.ScriptedProvider{Replies: replies},
			In:          os.Stdin,
			Out:         cmd.OutOrStdout(),
			Interactive: !nonInteractive,
			ExportFunc: func(format string, log *internal.Log, w io.Writer) error {
				exporter, err := export.NewExporter(format)
				if err != nil {
					return err
				}
				return exporter.Export(log, w)
			},
		}

		registry, err := internal.NewRegistry(internal.Builtins(env)...)
		if err != nil {
			return err
		}

		orchestrator := internal.NewOrchestrator(env, registry, journal, log)

		var source internal.CommandSource = internal.NewScriptSource(directives)
		if !nonInteractive {
			fmt.Fprintf(cmd.OutOrStdout(), "Log %q is loaded with %d messages. Type 'help' for commands.\n",
				logName, len(log.Messages))
			source = internal.NewChainSource(source, internal.NewInteractiveSource(os.Stdin, cmd.OutOrStdout()))
		}

		return orchestrator.Run(cmd.Context(), source)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&nonInteractive, "non-interactive", "n", false, "Consume -x directives and stop")
	runCmd.Flags().StringArrayVarP(&directives, "cmd", "x", nil, "Command to run before reading input (repeatable)")
	runCmd.Flags().StringArrayVar(&replies, "reply", nil, "Scripted completion reply (repeatable, offline backend)")
	runCmd.Flags().BoolVar(&noJournal, "no-journal", false, "Skip the dispatch journal")
}
