package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/contenox/orchestrator/runearchive"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build <bundle-path>",
		Short: "Load a rune bundle directory and emit a ZIP archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundleDir := args[0]

			bundle, err := runearchive.LoadDir(bundleDir)
			if err != nil {
				return fmt.Errorf("loading bundle from %s: %w", bundleDir, err)
			}

			data, err := runearchive.Zip(bundle)
			if err != nil {
				return fmt.Errorf("packaging bundle: %w", err)
			}

			out := output
			if out == "" {
				out = filepath.Base(filepath.Clean(bundleDir)) + ".zip"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output archive path (default: <bundle-dir-name>.zip)")
	return cmd
}
