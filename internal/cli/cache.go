package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialgen/pkg/cache"
	"github.com/matzehuels/spatialgen/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the batch completion cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand forgets every finished combination, so the next batch
// renders everything again. Images already on disk are kept.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget all finished combinations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Cache.Backend == config.CacheNone {
				printInfo("Cache is disabled")
				return nil
			}
			cc, err := c.newCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cc.Close()

			cl, ok := cc.(cache.Clearer)
			if !ok {
				printInfo("Cache backend cannot be cleared")
				return nil
			}
			if err := cl.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared the completion cache")
			printDetail("Location: %s", c.cacheLocation())
			return nil
		},
	}
}

// cachePathCommand prints where completions are stored.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(c.cacheLocation())
			return nil
		},
	}
}

func (c *CLI) cacheLocation() string {
	switch c.cfg.Cache.Backend {
	case config.CacheRedis:
		return "redis://" + c.cfg.Cache.RedisAddr
	case config.CacheNone:
		return "none"
	}
	dir, err := c.cacheDir()
	if err != nil {
		return "unavailable: " + err.Error()
	}
	return dir
}
