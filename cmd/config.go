package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Yates-Labs/beacon/internal/config"
)

var writeConfig string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file and environment
variables have been applied. API keys are never printed.

With --write the configuration is saved as YAML, which is a convenient way
to start a beacon.yaml.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVar(&writeConfig, "write", "", "Save the effective configuration to this path")
}

func runConfig(cmd *cobra.Command, _ []string) error {
	if writeConfig != "" {
		if err := config.Save(writeConfig, cfg); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Wrote "+writeConfig))
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
