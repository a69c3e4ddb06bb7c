package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/langlog/internal"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored logs",
	Long:  `List every log stored under the root directory with its message count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		store := internal.NewStore(root)

		names, err := store.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No logs found under "+store.LogDir()))
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(fmt.Sprintf("Logs (%d)", len(names))))

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, name := range names {
			log, err := store.Load(name)
			if err != nil {
				internal.LogWarn("skipping %s: %v", name, err)
				fmt.Fprintf(w, "%s\t%s\n", nameStyle.Render(name), dimStyle.Render("(unreadable)"))
				continue
			}

			last := dimStyle.Render("empty")
			if msg, ok := log.Last(); ok && msg.Meta != nil && msg.Meta.Timestamp != "" {
				last = dimStyle.Render(msg.Meta.Timestamp)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				nameStyle.Render(name),
				countStyle.Render(fmt.Sprintf("%d messages", len(log.Messages))),
				last)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
