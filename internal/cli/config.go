package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// projectConfigFile is the default project config file
const projectConfigFile = "push-release.toml"

// ProjectConfig is the project-level TOML configuration
type ProjectConfig struct {
	Server string `toml:"server"`
}

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigInitCmd())
	cmd.AddCommand(createConfigShowCmd())

	return cmd
}

func createConfigInitCmd() *cobra.Command {
	var serverURL string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create config file",
		Long: `Create a push-release.toml configuration file in the current directory.

The secret is never written to the file. Pass it with --secret or
PUSH_RELEASE_SECRET, or type it at the prompt.

EXAMPLES:
  push-release config init --server https://push-release.example.com

  # Overwrite existing config
  push-release config init --force
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), serverURL, force)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", defaultServer, "relay URL")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}
}

func runConfigInit(out io.Writer, serverURL string, force bool) error {
	configPath := projectConfigFile
	if cfgFile != "" {
		configPath = cfgFile
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	content := fmt.Sprintf(`# push-release configuration

server = %q
`, serverURL)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(out, "Created %s\n", configPath)
	fmt.Fprintf(out, "  Server: %s\n", serverURL)
	return nil
}

func runConfigShow(out io.Writer) error {
	fmt.Fprintln(out, "Configuration sources (in order of precedence):")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "   --server, --secret, --config")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "2. Environment variables")
	if env := os.Getenv(ServerEnv); env != "" {
		fmt.Fprintf(out, "   %s=%s\n", ServerEnv, env)
	} else {
		fmt.Fprintf(out, "   %s=(not set)\n", ServerEnv)
	}
	if env := os.Getenv(SecretEnv); env != "" {
		fmt.Fprintf(out, "   %s=%s\n", SecretEnv, maskSecret(env))
	} else {
		fmt.Fprintf(out, "   %s=(not set)\n", SecretEnv)
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "3. Project config (%s)\n", projectConfigFile)
	projectConfig, configPath, err := loadProjectConfig()
	switch {
	case os.IsNotExist(err):
		fmt.Fprintln(out, "   (not found)")
	case err != nil:
		fmt.Fprintf(out, "   Error: %v\n", err)
	default:
		fmt.Fprintf(out, "   Loaded from: %s\n", configPath)
		if projectConfig.Server != "" {
			fmt.Fprintf(out, "   server: %s\n", projectConfig.Server)
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Effective configuration:")
	fmt.Fprintf(out, "   Server: %s\n", getServer())
	switch {
	case secret != "":
		fmt.Fprintf(out, "   Secret: %s (flag)\n", maskSecret(secret))
	case os.Getenv(SecretEnv) != "":
		fmt.Fprintf(out, "   Secret: %s (env)\n", maskSecret(os.Getenv(SecretEnv)))
	default:
		fmt.Fprintln(out, "   Secret: (prompted)")
	}

	return nil
}

// loadProjectConfig loads the project config from --config or the default file.
// Returns the config, the path it was loaded from, and an error.
func loadProjectConfig() (*ProjectConfig, string, error) {
	path := projectConfigFile
	if cfgFile != "" {
		path = cfgFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, err
	}

	var config ProjectConfig
	if _, err := toml.Decode(string(data), &config); err != nil {
		return nil, path, fmt.Errorf("parsing TOML: %w", err)
	}

	return &config, path, nil
}

// loadProjectConfigSilent loads the project config without returning errors for missing files.
// Returns nil if the file doesn't exist, but reports parse failures.
func loadProjectConfigSilent() *ProjectConfig {
	config, _, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Warning: failed to load project config: %v\n", err)
		return nil
	}
	return config
}
