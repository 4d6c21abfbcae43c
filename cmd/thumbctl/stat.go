package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Report cached thumbnail count and total size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := cmd.Flags().GetString("target")
		if err != nil || target == "" {
			return fmt.Errorf(
				"a cache directory is required: pass --target or set DIR_THUMBNAILS_ROOT",
			)
		}

		entries, err := os.ReadDir(target)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", target, err)
		}

		var count int
		var totalBytes int64
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := os.Stat(filepath.Join(target, entry.Name()))
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
			}
			count++
			totalBytes += info.Size()
		}

		cmd.Printf("%d cached thumbnail(s), %d bytes total\n", count, totalBytes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}
