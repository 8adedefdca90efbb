package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JNZader/diffparse/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration",
	Long: `Print the configuration diffparse would run with. Values come from,
in increasing priority: built-in defaults, the config file, DIFFPARSE_*
environment variables and command-line flags.

Examples:
  diffparse config show
  DIFFPARSE_BATCH_WORKERS=8 diffparse config show --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		if showAsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(appCfg)
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(appCfg); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		return enc.Close()
	},
}

var errNoConfigFile = errors.New("no config file found")

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file that would be read",
	Long: `Print the path given with --config, or else the first .diffparse file
found in the working directory, the home directory or /etc/diffparse.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := cfgFile
		if path == "" {
			path = config.FindConfigFile()
		}
		if path == "" {
			return errNoConfigFile
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

var showAsJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&showAsJSON, "json", false, "print as JSON instead of YAML")
	configCmd.AddCommand(configShowCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
