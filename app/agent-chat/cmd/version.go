package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cchalm/agent-chat/internal/release"
	"github.com/cchalm/agent-chat/internal/transport"
)

var versionInfo = struct {
	Version   string
	GitCommit string
	BuildTime string
}{Version: "dev", GitCommit: "unknown", BuildTime: "unknown"}

// SetVersionInfo records the build information printed by the version command
func SetVersionInfo(version string, gitCommit string, buildTime string) {
	versionInfo.Version = version
	versionInfo.GitCommit = gitCommit
	versionInfo.BuildTime = buildTime
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&opts.CheckUpdate, "check", false, "Check GitHub for a newer release")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "agent-chat %s (commit %s, built %s)\n", versionInfo.Version, versionInfo.GitCommit, versionInfo.BuildTime)
	if !opts.CheckUpdate {
		return nil
	}

	ctx := setupContext()
	checker := release.NewChecker(ctx, release.DefaultOwner, release.DefaultRepo, cfg.GitHubToken, transport.WithRateLimiting(nil))
	latest, err := checker.Latest(ctx)
	if err != nil {
		return err
	}
	if release.IsNewer(versionInfo.Version, latest) {
		fmt.Fprintf(out, "A newer release is available: %s\n%s/releases/latest\n", latest, checker.URL())
	} else {
		fmt.Fprintf(out, "Up to date (latest release: %s)\n", latest)
	}
	return nil
}
