package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dualview/pkg/config"
	"github.com/joshuapare/dualview/pkg/layout"
)

var (
	snapshotDepth int
	snapshotSave  bool
)

func init() {
	cmd := newSnapshotCmd()
	cmd.Flags().IntVar(&snapshotDepth, "depth", 1, "Levels to expand below the root")
	cmd.Flags().BoolVar(&snapshotSave, "save", false, "Also save the layout to the state directory")
	rootCmd.AddCommand(cmd)
}

func newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <path>",
		Short: "Print the saved layout of an expanded tree",
		Long: `The snapshot command expands a tree rooted at <path> and prints the
layout the explorer would persist for it: roots, expanded rows and
visual overrides.

Example:
  dvctl snapshot /etc --depth 2
  dvctl snapshot ~/src --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(args)
		},
	}
}

func runSnapshot(args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	tv, err := s.newTree()
	if err != nil {
		return err
	}
	root := tv.AddRoot(n, -1)
	if err := s.expand(tv, root, snapshotDepth); err != nil {
		return err
	}

	l := tv.Snapshot()
	if snapshotSave {
		path := config.LayoutPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := layout.Save(path, l); err != nil {
			return err
		}
		printVerbose("Saved layout to %s\n", path)
	}
	return layout.Encode(os.Stdout, l)
}
