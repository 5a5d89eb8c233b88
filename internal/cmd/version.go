package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/robodesk/internal/buildinfo"
)

func newVersionCommand(rc *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version information",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if err := checkOutputFormat(rc.output); err != nil {
				return err
			}
			info := readBuildInfo()
			return render(c.OutOrStdout(), rc.output, info, func() {
				fmt.Fprintln(c.OutOrStdout(), versionString(info))
			})
		},
	}
}

// readBuildInfo is extracted for testability.
var readBuildInfo = buildinfo.Read

func versionString(info buildinfo.Info) string {
	return fmt.Sprintf("robodesk %s (%s/%s)", info.Version, info.GoVersion, info.Platform)
}
