package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/panel/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage panel configuration",
	Long:  "Manage the panel config file. --config selects the file; the default lives in the user config directory.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, exists, err := config.LoadFile(flagConfig)
		if err != nil {
			return err
		}
		if exists {
			fmt.Fprintln(os.Stderr, "Config file already exists; leaving it unchanged.")
			return nil
		}
		path, err := config.Save(flagConfig, config.Default())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one value in the config file",
	Long:  "Set one value in the config file. Keys use the JSON names, e.g. failOn, cache.enabled, privacy.redactPaths. Lists are comma-separated.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		cfg, _, err := config.LoadFile(flagConfig)
		if err != nil {
			return err
		}
		if err := config.SetField(&cfg, key, value); err != nil {
			return err
		}
		if _, err := config.Save(flagConfig, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (file, env and defaults merged)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, nil)
		if err != nil {
			return err
		}
		return printJSON(cmd, cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			p, err := config.ConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	configCmd.AddCommand(configInitCmd, configSetCmd, configShowCmd, configPathCmd)
}
