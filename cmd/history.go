package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/iksnae/langlog/internal"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyAll   bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent dispatches from the journal",
	Long: `Show the most recent plugin dispatches recorded in the journal, newest
first. By default only the current log's entries are shown; --all lists
every log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}

		journal, err := internal.OpenJournal(filepath.Join(root, "journal.db"))
		if err != nil {
			return err
		}
		defer journal.Close()

		name := logName
		if historyAll {
			name = ""
		}

		entries, err := journal.Recent(name, historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No journal entries."))
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tLOG\tPLUGIN\tOPTIONS\tSTATUS")
		for _, e := range entries {
			status := e.Status
			if e.Detail != "" {
				status = fmt.Sprintf("%s (%s)", e.Status, e.Detail)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.CreatedAt, e.LogName, e.Plugin, e.Options, status)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries to show")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "Show entries for every log")
}
