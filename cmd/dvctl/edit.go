package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dualview/pkg/types"
)

var putKind string

var errNeedDB = errors.New("this command needs --db")

func init() {
	put := &cobra.Command{
		Use:   "put <path>",
		Short: "Add a node to a SQLite node tree",
		Long: `The put command stores <path> in the database given with --db,
creating missing parents as containers.

Example:
  dvctl put /music/jazz --db catalog.db
  dvctl put /music/jazz/monk.flac --kind item --db catalog.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(args)
		},
	}
	put.Flags().StringVar(&putKind, "kind", "container", "Node kind: container, item, link or other")

	rm := &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a node and its descendants from a SQLite node tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(args)
		},
	}
	rootCmd.AddCommand(put, rm)
}

func parseKind(s string) (types.TypeMask, error) {
	switch s {
	case "container", "dir":
		return types.TypeContainer, nil
	case "item", "file":
		return types.TypeItem, nil
	case "link":
		return types.TypeLink, nil
	case "other":
		return types.TypeOther, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

func runPut(args []string) error {
	if dbPath == "" {
		return errNeedDB
	}
	kind, err := parseKind(putKind)
	if err != nil {
		return err
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.db.Put(context.Background(), args[0], kind)
	if err != nil {
		return err
	}
	printInfo("added %s (%s)\n", n.Key().Location, kind)
	return nil
}

func runRm(args []string) error {
	if dbPath == "" {
		return errNeedDB
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.db.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	printInfo("removed %s\n", args[0])
	return nil
}
