package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joshuapare/dualview/internal/loop"
	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/provider/fsprovider"
	"github.com/joshuapare/dualview/provider/sqlprovider"
	"github.com/joshuapare/dualview/view"
)

// settleTimeout bounds how long a command waits for provider jobs.
var settleTimeout = 30 * time.Second

// session owns the loop, the runner and the providers of one command.
type session struct {
	loop     *loop.Loop
	run      *loop.Async
	reg      *provider.Registry
	resolver provider.Resolver
	db       *sqlprovider.Provider
	views    []*view.View
}

func openSession() (*session, error) {
	l := loop.New(0)
	s := &session{loop: l, run: loop.NewAsync(l, cfg.Workers)}

	fs := fsprovider.New()
	s.reg = provider.NewRegistry(fs)
	s.resolver = fs
	if dbPath != "" {
		printVerbose("Opening database: %s\n", dbPath)
		db, err := sqlprovider.Open(dbPath)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.db = db
		s.reg.Register(db)
		s.resolver = db
	}
	return s, nil
}

// Close stops the runner and releases the database.
func (s *session) Close() {
	for _, v := range s.views {
		v.Close()
	}
	s.run.Close()
	s.loop.Stop()
	s.run.Wait()
	if s.db != nil {
		s.db.Close()
	}
}

func (s *session) reporter() view.Reporter {
	return view.ReporterFunc(func(ctx string, err error) {
		printWarning("%s: %v\n", ctx, err)
	})
}

func (s *session) newView(opts view.Options) (*view.View, error) {
	opts.Reporter = s.reporter()
	v, err := view.New(opts)
	if err != nil {
		return nil, err
	}
	s.views = append(s.views, v)
	return v, nil
}

func (s *session) newTree() (*view.View, error) {
	return s.newView(cfg.TreeOptions(s.run, s.reg))
}

func (s *session) newList() (*view.View, error) {
	return s.newView(cfg.ListOptions(s.run, s.reg))
}

func (s *session) resolve(loc string) (types.Node, error) {
	n, err := s.resolver.Resolve(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", loc, err)
	}
	return n, nil
}

// settle runs continuations until no provider job is in flight.
func (s *session) settle() error {
	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()
	if err := s.loop.RunUntilIdle(ctx, s.run.Busy); err != nil {
		return fmt.Errorf("waiting for provider: %w", err)
	}
	return nil
}

// expand opens h and its container descendants, depth levels deep. Rows
// on the last level are probed so their expanders are accurate.
func (s *session) expand(v *view.View, h view.Row, depth int) error {
	level := []view.Row{h}
	for d := 0; d < depth && len(level) > 0; d++ {
		for _, r := range level {
			v.RequestExpand(r)
		}
		if err := s.settle(); err != nil {
			return err
		}
		var next []view.Row
		for _, r := range level {
			for _, c := range v.Children(r) {
				if n := v.Node(c); n != nil && n.Type().Has(types.TypeContainer) {
					v.ProbeHasChildren(c)
					next = append(next, c)
				}
			}
		}
		if err := s.settle(); err != nil {
			return err
		}
		level = next
	}
	return nil
}
