package commands

import (
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manages the on-disk page cache.",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Removes expired and malformed cached pages.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cfg, logger)
		if err != nil {
			return err
		}
		n, err := c.Purge()
		if err != nil {
			return err
		}
		logger.Info("cache purged", "dir", c.Dir(), "removed", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
