package commands

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/JNZader/codesentry/internal/security"
)

// Build metadata, injected with -ldflags "-X ...commands.Version=v1.2.0".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit and build date of the codesentry binary
along with the Go runtime it was built with.

Examples:
  codesentry version
  codesentry version --short
  codesentry version --json`,

	Args: cobra.NoArgs,
	RunE: runVersion,
}

var (
	versionShort bool
	versionJSON  bool
)

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "print only version number")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")
}

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version          string `json:"version"`
	Commit           string `json:"commit"`
	BuildDate        string `json:"build_date"`
	GoVersion        string `json:"go_version"`
	OS               string `json:"os"`
	Arch             string `json:"arch"`
	SecurityPatterns int    `json:"security_patterns"`
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := GetVersionInfo()
	out := cmd.OutOrStdout()

	switch {
	case versionShort:
		fmt.Fprintln(out, info.Version)
	case versionJSON:
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		fmt.Fprintln(out, string(data))
	default:
		fmt.Fprintf(out, "codesentry version %s\n", info.Version)
		fmt.Fprintf(out, "  Commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  Built:      %s\n", info.BuildDate)
		fmt.Fprintf(out, "  Go version: %s\n", info.GoVersion)
		fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", info.OS, info.Arch)
		fmt.Fprintf(out, "  Security:   %d patterns\n", info.SecurityPatterns)
	}
	return nil
}

// GetVersionInfo returns the version of the running binary. Without
// ldflags, the commit and date come from the VCS stamp of the build.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:          Version,
		Commit:           Commit,
		BuildDate:        BuildDate,
		GoVersion:        runtime.Version(),
		OS:               runtime.GOOS,
		Arch:             runtime.GOARCH,
		SecurityPatterns: len(security.Catalog()),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "unknown":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.BuildDate == "unknown":
			info.BuildDate = s.Value
		}
	}
	return info
}
