package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/panel/internal/cache"
	"github.com/dshills/panel/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the completion cache",
}

// openCache opens the configured cache. force ignores cache.enabled so a
// disabled cache can still be cleared.
func openCache(force bool) (*cache.Cache, error) {
	cfg, err := config.Load(flagConfig, nil)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(force || cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return c, nil
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache location, size and expired entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(false)
		if err != nil {
			return err
		}
		if !c.Enabled() {
			fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled.")
			return nil
		}
		stats, err := c.GetStats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}
		return printJSON(cmd, stats)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached completion",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(true)
		if err != nil {
			return err
		}
		n, err := c.Clear()
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared (%d entries removed from %s).\n", n, c.Dir())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd, cacheClearCmd)
}
