package commands

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JNZader/diffparse/internal/report"
)

// Overridden with -ldflags "-X .../commands.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionFlags struct {
	short bool
	json  bool
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version of diffparse together with the commit and Go
toolchain it was built from. Commit and build date fall back to the VCS
stamp embedded by "go build" when they were not set with -ldflags.

Examples:
  diffparse version
  diffparse version --short
  diffparse version --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := GetVersionInfo()
		out := cmd.OutOrStdout()

		switch {
		case versionFlags.short:
			_, err := fmt.Fprintln(out, info.Version)
			return err
		case versionFlags.json:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Fprintf(out, "diffparse version %s\n", info.Version)
		tw := tabwriter.NewWriter(out, 0, 4, 1, ' ', 0)
		for _, row := range [][2]string{
			{"Commit:", info.Commit},
			{"Built:", info.BuildDate},
			{"Go version:", info.GoVersion},
			{"OS/Arch:", info.OS + "/" + info.Arch},
		} {
			fmt.Fprintf(tw, "  %s\t%s\n", row[0], row[1])
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	report.ToolVersion = Version

	versionCmd.Flags().BoolVarP(&versionFlags.short, "short", "s", false, "print only the version number")
	versionCmd.Flags().BoolVar(&versionFlags.json, "json", false, "print as JSON")
}

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "unknown":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.BuildDate == "unknown":
			info.BuildDate = s.Value
		}
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	return info
}
