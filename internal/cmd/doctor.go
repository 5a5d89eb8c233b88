package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/robodesk/pkg/input"
	"github.com/offlinefirst/robodesk/pkg/permissions"
	"github.com/offlinefirst/robodesk/pkg/store"
)

type doctorReport struct {
	Version     string           `json:"version" yaml:"version"`
	ConfigFile  string           `json:"config_file" yaml:"config_file"`
	StorePath   string           `json:"store_path" yaml:"store_path"`
	StoreExists bool             `json:"store_exists" yaml:"store_exists"`
	Provider    string           `json:"provider" yaml:"provider"`
	Available   bool             `json:"available" yaml:"available"`
	Permissions []permissionLine `json:"permissions" yaml:"permissions"`
	Guidance    string           `json:"guidance,omitempty" yaml:"guidance,omitempty"`
}

type permissionLine struct {
	Surface string `json:"surface" yaml:"surface"`
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// detectEnvironment is swapped in tests.
var detectEnvironment = input.DetectEnvironment

func newDoctorCommand(rc *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report input backend support, permissions and configuration",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if err := checkOutputFormat(rc.output); err != nil {
				return err
			}
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}

			env := detectEnvironment()
			report := doctorReport{
				Version:    readBuildInfo().Version,
				ConfigFile: app.Config.Source,
				StorePath:  app.Config.Store.Path,
				Provider:   env.Provider,
				Available:  env.Available,
				Guidance:   env.Guidance,
			}
			if dir, err := store.ExpandHome(app.Config.Store.Path); err == nil {
				report.StorePath = dir
				if info, err := os.Stat(dir); err == nil && info.IsDir() {
					report.StoreExists = true
				}
			}
			checks := []struct {
				surface string
				result  permissions.CheckResult
			}{
				{"input monitoring", permissions.CheckInputMonitoring(nil)},
				{"input injection", permissions.CheckAccessibility(nil)},
				{"clipboard", permissions.CheckClipboard(nil)},
			}
			for _, p := range checks {
				report.Permissions = append(report.Permissions, permissionLine{
					Surface: p.surface,
					Status:  p.result.StatusString(),
					Message: p.result.Message,
				})
			}

			out := c.OutOrStdout()
			return render(out, rc.output, report, func() {
				fmt.Fprintf(out, "robodesk %s\n", report.Version)
				fmt.Fprintf(out, "  config:   %s\n", report.ConfigFile)
				fmt.Fprintf(out, "  store:    %s %s\n", report.StorePath, existsLabel(report.StoreExists))
				fmt.Fprintf(out, "  provider: %s %s\n", report.Provider, availableLabel(report.Available))
				for _, line := range report.Permissions {
					fmt.Fprintf(out, "  %-17s %s", line.Surface+":", line.Status)
					if line.Message != "" {
						fmt.Fprintf(out, " %s", styles.dim.Render("("+line.Message+")"))
					}
					fmt.Fprintln(out)
				}
				if report.Guidance != "" {
					fmt.Fprintf(out, "%s %s\n", styles.warn.Render("Hint:"), report.Guidance)
				}
			})
		},
	}
}

func existsLabel(ok bool) string {
	if ok {
		return styles.ok.Render("(exists)")
	}
	return styles.dim.Render("(will be created)")
}

func availableLabel(ok bool) string {
	if ok {
		return styles.ok.Render("available")
	}
	return styles.warn.Render("unavailable")
}
