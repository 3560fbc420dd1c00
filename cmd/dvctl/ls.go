package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dualview/view/printer"
)

var lsHidden bool

func init() {
	cmd := newLsCmd()
	cmd.Flags().BoolVar(&lsHidden, "hidden", false, "Show hidden entries")
	rootCmd.AddCommand(cmd)
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <path>",
		Short: "List a location with a list view",
		Long: `The ls command points a list view at <path> and prints the rows it
materializes.

Example:
  dvctl ls /etc
  dvctl ls /music --db catalog.db --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(args)
		},
	}
}

func runLs(args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	lv, err := s.newList()
	if err != nil {
		return err
	}
	lv.SetShowHidden(lsHidden)
	lv.SetLocation(n)
	if err := s.settle(); err != nil {
		return err
	}
	if !lv.Resolved() {
		return fmt.Errorf("failed to list %s", args[0])
	}

	opts := printer.DefaultOptions()
	if jsonOut {
		opts.Format = printer.FormatJSON
	}
	return printer.New(lv, os.Stdout, opts).PrintAll()
}
