package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Environment variables read by the CLI.
const (
	ServerEnv = "PUSH_RELEASE_SERVER"
	SecretEnv = "PUSH_RELEASE_SECRET"
)

const defaultServer = "http://localhost:1337"

var (
	cfgFile string
	server  string
	secret  string
)

// Execute runs the CLI
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "push-release",
		Short: "Announce releases and builds to the push-release relay",
		Long: `push-release is the CI side of the release relay. It tells the relay about a
tagged release or a freshly built binary so it can be registered on chain.`,
		Version:      version,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: push-release.toml)")
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "relay URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&secret, "secret", "", "shared secret (default: $"+SecretEnv+" or prompt)")

	rootCmd.AddCommand(createReleaseCmd())
	rootCmd.AddCommand(createBuildCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd
}

// getServer returns the relay URL from flag, env, config file, or the default
func getServer() string {
	// 1. Command line flag
	if server != "" {
		return server
	}

	// 2. Environment variable
	if env := os.Getenv(ServerEnv); env != "" {
		return env
	}

	// 3. Project config file (TOML)
	if config := loadProjectConfigSilent(); config != nil && config.Server != "" {
		return config.Server
	}

	// 4. Default
	return defaultServer
}
