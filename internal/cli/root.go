// Package cli implements the gitscout command-line interface.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gitscout/gitscout/pkg/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version information displayed by --version. It is
// called by the main package with values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the gitscout CLI and returns an error if any command fails.
//
// Configuration is resolved flag-first, then from GITSCOUT_* environment
// variables (e.g. GITSCOUT_TOKEN, GITSCOUT_LOCATION).
func Execute() error {
	var (
		verbose bool
		pretty  bool
	)

	root := &cobra.Command{
		Use:          "gitscout",
		Short:        "gitscout harvests GitHub user and repository data by location",
		Long:         `gitscout searches GitHub for users in a location with a minimum follower count, fetches their profiles and repositories through a rate-limit-aware client, and writes normalized CSV, JSON, and markdown artifacts.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logging.LevelInfo
			if verbose {
				level = logging.LevelDebug
			}
			cfg := logging.DefaultConfig()
			cfg.Level = level
			cfg.Pretty = pretty
			logging.Setup(cfg)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("gitscout %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&pretty, "pretty", false, "human-readable console logs instead of JSON")

	viper.SetEnvPrefix("GITSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.AddCommand(newRunCmd())

	return root.ExecuteContext(context.Background())
}
