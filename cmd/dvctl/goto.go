package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view"
	"github.com/joshuapare/dualview/view/printer"
)

var (
	gotoPolicy   string
	gotoMinitree bool
)

func init() {
	cmd := newGotoCmd()
	cmd.Flags().StringVar(&gotoPolicy, "policy", "", "Sync policy (default from config)")
	cmd.Flags().BoolVar(&gotoMinitree, "minitree", true, "Materialize only visited branches")
	rootCmd.AddCommand(cmd)
}

func newGotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goto <root> <path>",
		Short: "Sync a tree to a list location",
		Long: `The goto command adds <root> to a tree view, points the companion
list view at <path> and lets the tree follow it with the chosen sync
policy. The tree rows and the selected row are printed afterwards.

Policies: none, existing-accessible, existing-expandable,
expandable-with-fetch, full.

Example:
  dvctl goto / /usr/share/doc
  dvctl goto /usr /etc --policy full`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGoto(args)
		},
	}
}

func runGoto(args []string) error {
	policy, err := cfg.Policy()
	if gotoPolicy != "" {
		policy, err = types.ParseSyncPolicy(gotoPolicy)
	}
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	root, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	target, err := s.resolve(args[1])
	if err != nil {
		return err
	}

	tv, err := s.newTree()
	if err != nil {
		return err
	}
	tv.SetSyncPolicy(policy)
	tv.SetMinitree(gotoMinitree)
	lv, err := s.newList()
	if err != nil {
		return err
	}
	tv.SetCompanion(lv)

	tv.AddRoot(root, -1)
	if err := s.settle(); err != nil {
		return err
	}
	printVerbose("Following %s with policy %s\n", target.Key(), policy)
	lv.SetLocation(target)
	if err := s.settle(); err != nil {
		return err
	}

	opts := printer.DefaultOptions()
	opts.CollapsedChildren = gotoMinitree
	if jsonOut {
		opts.Format = printer.FormatJSON
		return printer.New(tv, os.Stdout, opts).PrintAll()
	}
	if err := printer.New(tv, os.Stdout, opts).PrintAll(); err != nil {
		return fmt.Errorf("failed to display tree: %w", err)
	}
	printInfo("selected: %s\n", rowPath(tv, tv.Selection()))
	return nil
}

// rowPath joins the labels from the root down to h.
func rowPath(v *view.View, h view.Row) string {
	if !v.Valid(h) {
		return "(none)"
	}
	var parts []string
	for ; v.Valid(h); h = v.Parent(h) {
		parts = append(parts, v.Label(h))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}
