package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version information",
	GroupID: groupConfig,
	Long:    `Show the cupcake version, the commit it was built from and the build date.`,
	Example: `  cupcake version
  cupcake version -o json`,
	RunE: runVersion,
}

// versionView is the JSON shape of the version command.
type versionView struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	if formatter != nil && formatter.IsJSON() {
		v := versionView{
			Version: buildInfo.Version,
			Commit:  buildInfo.Commit,
			Date:    buildInfo.Date,
			Go:      runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
		}
		if v.Version == "" {
			v.Version = "dev"
		}
		return writeJSON(w, v)
	}

	out(w, "cupcake %s\n", formatVersion(buildInfo))
	return nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}
