package commands

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the movierank version, the Go toolchain it was built with and the source revision when known.`,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "movierank v%s\n", version)
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, line := range buildDetails(info) {
					_, _ = fmt.Fprintln(w, line)
				}
			}
		},
	}
}

// buildDetails formats the Go version and the VCS stamp of a build.
func buildDetails(info *debug.BuildInfo) []string {
	lines := []string{"go:       " + info.GoVersion}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	if rev := settings["vcs.revision"]; rev != "" {
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if settings["vcs.modified"] == "true" {
			rev += " (modified)"
		}
		lines = append(lines, "revision: "+rev)
	}
	if t := settings["vcs.time"]; t != "" {
		lines = append(lines, "built:    "+t)
	}
	return lines
}
