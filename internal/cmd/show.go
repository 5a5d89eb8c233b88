package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newShowCommand(rc *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Describe a stored function",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := checkOutputFormat(rc.output); err != nil {
				return err
			}
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}
			s, err := rc.openStore(app)
			if err != nil {
				return err
			}
			entry, err := s.Describe(args[0])
			if err != nil {
				return err
			}

			summary := summarize(entry)
			out := c.OutOrStdout()
			return render(out, rc.output, summary, func() {
				fmt.Fprintf(out, "%s\n", styles.name.Render(summary.Name))
				if summary.ID != "" {
					fmt.Fprintf(out, "  id:       %s\n", summary.ID)
				}
				if !summary.CreatedAt.IsZero() {
					fmt.Fprintf(out, "  created:  %s\n", summary.CreatedAt.Format("2006-01-02 15:04:05 MST"))
				}
				if summary.Hostname != "" {
					fmt.Fprintf(out, "  host:     %s\n", summary.Hostname)
				}
				fmt.Fprintf(out, "  events:   %d over %.2fs\n", summary.Events, summary.DurationSeconds)
				fmt.Fprintf(out, "  inputs:   %s\n", formatNames(summary.Inputs))
				fmt.Fprintf(out, "  outputs:  %s\n", formatNames(summary.Outputs))

				kinds := make([]string, 0, len(summary.Kinds))
				for kind := range summary.Kinds {
					kinds = append(kinds, kind)
				}
				sort.Strings(kinds)
				for _, kind := range kinds {
					fmt.Fprintf(out, "    %-20s %d\n", kind, summary.Kinds[kind])
				}
			})
		},
	}
}
