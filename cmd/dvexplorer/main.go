// Command dvexplorer is a two-pane terminal explorer: a lazily populated
// tree on the left follows the location of the list on the right.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/dualview/internal/logger"
	"github.com/joshuapare/dualview/internal/loop"
	"github.com/joshuapare/dualview/pkg/config"
	"github.com/joshuapare/dualview/pkg/layout"
	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/provider/fsprovider"
	"github.com/joshuapare/dualview/provider/sqlprovider"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cliArgs are the parsed command line flags.
type cliArgs struct {
	debug     bool
	noRestore bool
	db        string
	location  string
}

func parseArgs(args []string) (cliArgs, error) {
	var a cliArgs
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--debug", "-d":
			a.debug = true
		case "--no-restore":
			a.noRestore = true
		case "--db":
			if i+1 >= len(args) {
				return a, errors.New("--db needs a path")
			}
			i++
			a.db = args[i]
		default:
			if a.location != "" {
				return a, fmt.Errorf("unexpected argument %q", arg)
			}
			a.location = arg
		}
	}
	return a, nil
}

func main() {
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--help", "-h":
			printHelp()
			os.Exit(0)
		case "--version", "-v":
			fmt.Printf("dvexplorer %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built: %s\n", date)
			os.Exit(0)
		}
	}

	args, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printUsage()
		os.Exit(1)
	}
	if err := run(args); err != nil {
		logger.Error("dvexplorer failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("dvexplorer exited normally")
}

func run(args cliArgs) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logOpts := cfg.LoggerOptions()
	if args.debug {
		logOpts.Enabled = true
		logOpts.Level = slog.LevelDebug
	}
	if err := logger.Init(logOpts); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}

	fsp := fsprovider.New()
	reg := provider.NewRegistry(fsp)
	var resolver provider.Resolver = fsp
	if args.db != "" {
		db, err := sqlprovider.Open(args.db)
		if err != nil {
			return err
		}
		defer db.Close()
		reg.Register(db)
		resolver = db
	}

	start := args.location
	if start == "" {
		start = "."
		if args.db != "" {
			start = "/"
		}
	}
	location, err := resolver.Resolve(start)
	if err != nil {
		return err
	}
	logger.Info("starting dvexplorer", "location", location.Key(), "debug", args.debug)

	var roots []types.Node
	for _, r := range cfg.Tree.Roots {
		n, err := resolver.Resolve(r)
		if err != nil {
			logger.Warn("skipping root", "root", r, "err", err)
			continue
		}
		roots = append(roots, n)
	}

	layoutPath := config.LayoutPath()
	var saved *layout.Layout
	if !args.noRestore && args.db == "" && layoutPath != "" {
		saved, err = layout.Load(layoutPath)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("ignoring saved layout", "path", layoutPath, "err", err)
			}
			saved = nil
		}
	}
	if args.db != "" {
		layoutPath = ""
	}

	l := loop.New(0)
	runner := loop.NewAsync(l, cfg.Workers)
	defer func() {
		runner.Close()
		l.Stop()
		runner.Wait()
	}()

	m, err := NewModel(Options{
		Config:     cfg,
		Registry:   reg,
		Runner:     runner,
		Loop:       l,
		Roots:      roots,
		Location:   location,
		Layout:     saved,
		LayoutPath: layoutPath,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	if fm, ok := final.(Model); ok {
		if err := fm.Close(); err != nil {
			logger.Warn("error saving layout", "error", err)
		}
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: dvexplorer [options] [location]\n")
	fmt.Fprintf(os.Stderr, "Try 'dvexplorer --help' for more information.\n")
}

func printHelp() {
	fmt.Println("dvexplorer - Two-pane tree and list explorer")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  dvexplorer [options] [location]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  The list pane shows the children of one location. The tree pane")
	fmt.Println("  follows it according to the sync policy, fetching missing levels")
	fmt.Println("  on demand. Tree roots come from the config file or the saved layout.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -d, --debug      Enable debug logging")
	fmt.Println("      --db PATH    Browse a SQLite node tree instead of the filesystem")
	fmt.Println("      --no-restore Ignore the saved layout")
	fmt.Println("  -h, --help       Show this help message")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println()
	fmt.Println("Press ? inside the explorer for keyboard shortcuts.")
	fmt.Println()
	fmt.Println("For non-interactive use, see the 'dvctl' command.")
}
