package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/go-drift/videoview/cmd/videoview/internal/cli.Version=...".
var (
	Version  = "dev"
	Revision = ""
)

func newVersionCommand() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config resolution.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				cmd.Println(Version)
				return
			}
			rev := Revision
			if rev == "" {
				rev = vcsRevision()
			}
			cmd.Printf("videoview %s\n", Version)
			if rev != "" {
				cmd.Printf("  revision  %s\n", rev)
			}
			cmd.Printf("  go        %s\n", runtime.Version())
			cmd.Printf("  platform  %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version string")
	return cmd
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
