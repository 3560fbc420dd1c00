package fsprovider

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joshuapare/dualview/internal/logger"
	"github.com/joshuapare/dualview/pkg/types"
)

// watchSet is one Watch call: an fsnotify watcher on the watched directory
// plus every directory below it that was listed since.
type watchSet struct {
	ctx  context.Context
	root string
	fsw  *fsnotify.Watcher
	emit func(types.Event)
}

// Watch implements provider.Watcher. Directories below n are added to the
// watch as they are listed. Bursts are coalesced per path over the debounce
// period. emit is called from the watcher goroutine.
func (p *Provider) Watch(ctx context.Context, n types.Node, emit func(types.Event)) error {
	root := n.Key().Location
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return wrap("watch", root, err)
	}

	ws := &watchSet{ctx: ctx, root: root, fsw: fsw, emit: emit}
	p.mu.Lock()
	p.watches = append(p.watches, ws)
	p.mu.Unlock()

	go p.pump(ws)
	return nil
}

func (p *Provider) pump(ws *watchSet) {
	defer func() {
		ws.fsw.Close()
		p.mu.Lock()
		p.watches = slices.DeleteFunc(p.watches, func(w *watchSet) bool { return w == ws })
		p.mu.Unlock()
	}()

	var (
		pending burst
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ws.ctx.Done():
			return
		case ev, ok := <-ws.fsw.Events:
			if !ok {
				return
			}
			out, ok := translate(ev)
			if !ok {
				continue
			}
			if p.debounce == 0 {
				ws.emit(out)
				continue
			}
			now := time.Now()
			pending.add(filepath.Clean(ev.Name), out, now)
			if pending.overdue(now, p.debounce) {
				pending.flush(ws.emit)
				fire = nil
				continue
			}
			if timer == nil {
				timer = time.NewTimer(p.debounce)
			} else {
				timer.Reset(p.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			pending.flush(ws.emit)
		case err, ok := <-ws.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("fs watch error", "root", ws.root, "err", err)
		}
	}
}

// track adds a freshly listed directory to every watch covering it.
func (p *Provider) track(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ws := range p.watches {
		if ws.ctx.Err() != nil || !within(dir, ws.root) {
			continue
		}
		if err := ws.fsw.Add(dir); err != nil {
			logger.Debug("fs watch add failed", "dir", dir, "err", err)
		}
	}
}

// translate turns an fsnotify event into a provider event. Renames are
// reported as deletions of the old path; the new path arrives as a create.
func translate(ev fsnotify.Event) (types.Event, bool) {
	path := filepath.Clean(ev.Name)
	switch {
	case ev.Has(fsnotify.Create):
		n, err := stat(path)
		if err != nil {
			return types.Event{}, false
		}
		return types.NewChild(dirNode(filepath.Dir(path)), n), true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return types.Deleted(&Node{path: path, name: filepath.Base(path), typ: types.TypeOther}), true
	case ev.Has(fsnotify.Write):
		if n, err := stat(path); err == nil {
			return types.Updated(n, "content"), true
		}
	case ev.Has(fsnotify.Chmod):
		if n, err := stat(path); err == nil {
			return types.Updated(n, "mode"), true
		}
	}
	return types.Event{}, false
}

func within(path, root string) bool {
	if path == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(path, root)
}
