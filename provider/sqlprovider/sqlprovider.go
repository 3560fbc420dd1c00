// Package sqlprovider serves a node tree stored in a SQLite database. It
// backs catalogs and bookmark trees that have no filesystem of their own.
//
// Locations are slash-separated absolute paths; "/" is the implicit top.
package sqlprovider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/joshuapare/dualview/internal/logger"
	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
)

// Domain is the key domain of database nodes.
const Domain = "sql"

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	path   TEXT PRIMARY KEY,
	parent TEXT,
	name   TEXT NOT NULL,
	kind   INTEGER NOT NULL,
	hidden INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS nodes_parent ON nodes(parent);
INSERT OR IGNORE INTO nodes(path, parent, name, kind) VALUES ('/', NULL, '/', 1);
`

type watch struct {
	ctx  context.Context
	root string
	emit func(types.Event)
}

// Provider reads and edits the nodes table.
type Provider struct {
	db *sql.DB

	mu      sync.Mutex
	watches []*watch
}

var (
	_ provider.Provider = (*Provider)(nil)
	_ provider.Watcher  = (*Provider)(nil)
	_ provider.Resolver = (*Provider)(nil)
)

// Open opens the database at dsn and creates the schema if needed. Use
// ":memory:" for a throwaway tree.
func Open(dsn string) (*Provider, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// One connection keeps in-memory databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("sqlite pragma failed", "err", err)
	}
	p := &Provider{db: db}
	if err := p.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// Migrate creates the nodes table.
func (p *Provider) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the database.
func (p *Provider) Close() error { return p.db.Close() }

func clean(loc string) string {
	return path.Clean("/" + strings.TrimSpace(loc))
}

func parentOf(loc string) (string, bool) {
	if loc == "/" {
		return "", false
	}
	return path.Dir(loc), true
}

func node(loc string, kind types.TypeMask, hidden bool) *types.BasicNode {
	name := path.Base(loc)
	return &types.BasicNode{K: types.Key{Domain: Domain, Location: loc}, N: name, T: kind, Hide: hidden}
}

// Put stores loc with the given kind, creating missing ancestors as
// containers. Watchers see a NewChild event for every created row.
func (p *Provider) Put(ctx context.Context, loc string, kind types.TypeMask) (types.Node, error) {
	return p.put(ctx, loc, kind, false)
}

// PutHidden is Put for an entry hidden by attribute rather than by name.
func (p *Provider) PutHidden(ctx context.Context, loc string, kind types.TypeMask) (types.Node, error) {
	return p.put(ctx, loc, kind, true)
}

func (p *Provider) put(ctx context.Context, loc string, kind types.TypeMask, hidden bool) (types.Node, error) {
	loc = clean(loc)
	if loc == "/" {
		return node("/", types.TypeContainer, false), nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", loc, err)
	}
	defer tx.Rollback()

	var events []types.Event
	var chain []string
	for cur := loc; cur != "/"; cur = path.Dir(cur) {
		chain = append(chain, cur)
	}
	var n *types.BasicNode
	for i := len(chain) - 1; i >= 0; i-- {
		cur := chain[i]
		k, h := types.TypeContainer, false
		if i == 0 {
			k, h = kind, hidden
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO nodes(path, parent, name, kind, hidden) VALUES (?, ?, ?, ?, ?)`,
			cur, path.Dir(cur), path.Base(cur), int(k), h)
		if err != nil {
			return nil, fmt.Errorf("put %s: %w", cur, err)
		}
		n = node(cur, k, h)
		if added, _ := res.RowsAffected(); added > 0 {
			events = append(events, types.NewChild(p.lookupParent(cur), n))
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("put %s: %w", loc, err)
	}
	p.dispatch(events)
	return n, nil
}

func (p *Provider) lookupParent(loc string) types.Node {
	dir, _ := parentOf(loc)
	return node(dir, types.TypeContainer, false)
}

// Delete removes loc and everything below it. Watchers see one Deleted event
// for loc.
func (p *Provider) Delete(ctx context.Context, loc string) error {
	loc = clean(loc)
	if loc == "/" {
		return types.Wrap(types.ErrKindUnsupported, "delete /", nil)
	}
	n, err := p.get(ctx, loc)
	if err != nil {
		return err
	}
	prefix := escapeLike(loc) + "/%"
	if _, err := p.db.ExecContext(ctx,
		`DELETE FROM nodes WHERE path = ? OR path LIKE ? ESCAPE '\'`, loc, prefix); err != nil {
		return fmt.Errorf("delete %s: %w", loc, err)
	}
	p.dispatch([]types.Event{types.Deleted(n)})
	return nil
}

// Rename moves loc to a new name under the same parent. Watchers see the old
// node leave its parent and the new one arrive.
func (p *Provider) Rename(ctx context.Context, loc, name string) (types.Node, error) {
	loc = clean(loc)
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("rename %s: invalid name %q", loc, name)
	}
	old, err := p.get(ctx, loc)
	if err != nil {
		return nil, err
	}
	dst := path.Join(path.Dir(loc), name)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("rename %s: %w", loc, err)
	}
	defer tx.Rollback()
	prefix := escapeLike(loc) + "/%"
	stmts := []struct {
		q    string
		args []any
	}{
		{`UPDATE nodes SET path = ?, name = ? WHERE path = ?`, []any{dst, name, loc}},
		{`UPDATE nodes SET path = ? || substr(path, length(?) + 1), parent = ? || substr(parent, length(?) + 1)
		  WHERE path LIKE ? ESCAPE '\'`, []any{dst, loc, dst, loc, prefix}},
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.q, s.args...); err != nil {
			return nil, fmt.Errorf("rename %s: %w", loc, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("rename %s: %w", loc, err)
	}

	n := node(dst, old.Type(), old.Hidden())
	parent := p.lookupParent(loc)
	p.dispatch([]types.Event{types.RemovedFrom(old, parent), types.NewChild(parent, n)})
	return n, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (p *Provider) get(ctx context.Context, loc string) (*types.BasicNode, error) {
	var kind int
	var hidden bool
	err := p.db.QueryRowContext(ctx, `SELECT kind, hidden FROM nodes WHERE path = ?`, loc).Scan(&kind, &hidden)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.Wrap(types.ErrKindNotFound, Domain+":"+loc, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", loc, err)
	}
	return node(loc, types.TypeMask(kind), hidden), nil
}

// Resolve implements provider.Resolver.
func (p *Provider) Resolve(loc string) (types.Node, error) {
	return p.get(context.Background(), clean(loc))
}

// Domain implements provider.Provider.
func (p *Provider) Domain() string { return Domain }

// Capabilities implements provider.Provider.
func (p *Provider) Capabilities() provider.Capability {
	return provider.CapHierarchical | provider.CapWatch
}

// Parent implements provider.Provider.
func (p *Provider) Parent(n types.Node) (types.Node, bool) {
	if n == nil {
		return nil, false
	}
	dir, ok := parentOf(n.Key().Location)
	if !ok {
		return nil, false
	}
	return node(dir, types.TypeContainer, false), true
}

// FetchChildren implements provider.Provider. Containers come first, then
// case-insensitive name order.
func (p *Provider) FetchChildren(ctx context.Context, n types.Node, mask types.TypeMask) ([]types.Node, error) {
	loc := n.Key().Location
	if _, err := p.get(ctx, loc); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT path, kind, hidden FROM nodes
		WHERE parent = ? AND (kind & ?) != 0
		ORDER BY kind != 1, name COLLATE NOCASE, name`, loc, int(mask))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", loc, err)
	}
	defer rows.Close()

	var out []types.Node
	for rows.Next() {
		var child string
		var kind int
		var hidden bool
		if err := rows.Scan(&child, &kind, &hidden); err != nil {
			return nil, fmt.Errorf("list %s: %w", loc, err)
		}
		out = append(out, node(child, types.TypeMask(kind), hidden))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", loc, err)
	}
	return out, nil
}

// HasChildren implements provider.Provider.
func (p *Provider) HasChildren(ctx context.Context, n types.Node, mask types.TypeMask) (bool, error) {
	loc := n.Key().Location
	var has bool
	err := p.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM nodes WHERE parent = ? AND (kind & ?) != 0)`,
		loc, int(mask)).Scan(&has)
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", loc, err)
	}
	if !has {
		if _, err := p.get(ctx, loc); err != nil {
			return false, err
		}
	}
	return has, nil
}

// Watch implements provider.Watcher. Only changes made through this Provider
// are reported.
func (p *Provider) Watch(ctx context.Context, n types.Node, emit func(types.Event)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watches = append(p.watches, &watch{ctx: ctx, root: n.Key().Location, emit: emit})
	return nil
}

func (p *Provider) dispatch(events []types.Event) {
	if len(events) == 0 {
		return
	}
	p.mu.Lock()
	live := p.watches[:0]
	for _, w := range p.watches {
		if w.ctx.Err() == nil {
			live = append(live, w)
		}
	}
	p.watches = live
	watches := append([]*watch(nil), live...)
	p.mu.Unlock()

	for _, ev := range events {
		subject := ev.Node
		if ev.Parent != nil {
			subject = ev.Parent
		}
		for _, w := range watches {
			if within(subject.Key().Location, w.root) {
				w.emit(ev)
			}
		}
	}
}

func within(loc, root string) bool {
	return root == "/" || loc == root || strings.HasPrefix(loc, root+"/")
}
