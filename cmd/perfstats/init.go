// SPDX-License-Identifier: MIT
package perfstats

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skaphos/perfstats/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default perfstats configuration",
	Long:  "Creates a .perfstats.yaml with the default inputs, grouping, metrics and artifacts in the current directory, or at --config.",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		input, _ := cmd.Flags().GetString("input")

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfgPath, err := config.InitConfigPath(configOverride(cmd), cwd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(cfgPath); err == nil {
			if !force {
				return fmt.Errorf("config already exists at %q (use --force to overwrite)", cfgPath)
			}
			if err := os.Remove(cfgPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove existing config %q: %w", cfgPath, err)
			}
		}

		cfg := config.DefaultConfig()
		cfg.Input.Path = input
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote config to %s\n", cfgPath); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite existing config without prompting")
	initCmd.Flags().String("input", "", "default input path stored in the config (relative to the config file)")

	rootCmd.AddCommand(initCmd)
}
