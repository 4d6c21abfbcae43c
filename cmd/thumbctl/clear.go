package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgalindo/thumbview/resolver"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached thumbnail",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := targetResolver(cmd)
		if err != nil {
			return err
		}

		removed, err := res.Clear()
		if err != nil {
			return fmt.Errorf("failed to clear thumbnail cache: %w", err)
		}

		cmd.Printf("Removed %d cached thumbnail(s)\n", removed)
		return nil
	},
}

var evictCmd = &cobra.Command{
	Use:   "evict <source>",
	Short: "Delete every cached variant of one source image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := targetResolver(cmd)
		if err != nil {
			return err
		}

		removed, err := res.EvictSource(args[0])
		if err != nil {
			return fmt.Errorf("failed to evict thumbnails: %w", err)
		}

		cmd.Printf("Removed %d cached thumbnail(s) for %s\n", removed, args[0])
		return nil
	},
}

// targetResolver builds a maintenance-only resolver (no transformer) on
// the cache directory from the --target flag.
func targetResolver(cmd *cobra.Command) (*resolver.Resolver, error) {
	target, err := cmd.Flags().GetString("target")
	if err != nil || target == "" {
		return nil, fmt.Errorf(
			"a cache directory is required: pass --target or set DIR_THUMBNAILS_ROOT",
		)
	}

	return resolver.New(resolver.Config{TargetDir: target}, nil)
}

func init() {
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(evictCmd)
}
