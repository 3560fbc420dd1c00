package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dualview/view/printer"
)

var (
	treeDepth   int
	treeHidden  bool
	treeCompact bool
	treeNoState bool
)

func init() {
	cmd := newTreeCmd()
	cmd.Flags().IntVar(&treeDepth, "depth", 2, "Levels to expand below the root")
	cmd.Flags().BoolVar(&treeHidden, "hidden", false, "Show hidden entries")
	cmd.Flags().BoolVar(&treeCompact, "compact", false, "Compact output")
	cmd.Flags().BoolVar(&treeNoState, "no-state", false, "Omit expand states")
	rootCmd.AddCommand(cmd)
}

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <path>",
		Short: "Expand a tree view and print its rows",
		Long: `The tree command adds <path> as the root of a tree view, expands it
level by level and prints the materialized rows.

Example:
  dvctl tree /etc --depth 1
  dvctl tree . --hidden --json
  dvctl tree /music --db catalog.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(args)
		},
	}
	return cmd
}

func runTree(args []string) error {
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
	tv.SetShowHidden(treeHidden)

	printVerbose("Expanding %s to depth %d\n", n.Key(), treeDepth)
	root := tv.AddRoot(n, -1)
	if err := s.expand(tv, root, treeDepth); err != nil {
		return err
	}

	opts := printer.DefaultOptions()
	opts.MaxDepth = treeDepth + 1
	opts.ShowState = !treeNoState
	if treeCompact {
		opts.IndentSize = 1
	}
	if jsonOut {
		opts.Format = printer.FormatJSON
	}
	if err := printer.New(tv, os.Stdout, opts).PrintAll(); err != nil {
		return fmt.Errorf("failed to display tree: %w", err)
	}
	return nil
}
