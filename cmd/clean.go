package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tanq16/partget/internal/output"
	"github.com/tanq16/partget/internal/utils"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [path]",
		Short: "Remove part files left behind by an interrupted download",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = cleanTarget(args[0])
			}
			if err := utils.Clean(dir); err != nil {
				return err
			}
			output.PrintSuccess("Temporary files cleaned up")
			return nil
		},
	}
}

// cleanTarget maps an output path onto the directory that holds its temp dir.
func cleanTarget(path string) string {
	if isDir(path) {
		return path
	}
	return filepath.Dir(path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
