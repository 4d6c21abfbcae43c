package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "thumbctl",
	Short: "Maintenance tooling for the thumbnail cache",
	Long: "thumbctl operates on a thumbview cache directory: " +
		"clear every cached thumbnail, evict the variants of one source, " +
		"or report cache usage.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP(
		"target",
		"t",
		os.Getenv("DIR_THUMBNAILS_ROOT"),
		"Thumbnail cache directory (defaults to $DIR_THUMBNAILS_ROOT)",
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
