// Package watch invalidates cached fluid tables when their files change.
package watch

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/j-emberton/HXforge/internal/engine"
	"github.com/labstack/gommon/log"
)

// Invalidator is satisfied by *engine.TableStore.
type Invalidator interface {
	Invalidate(fluid string)
}

// TableWatcher watches one table directory.
// Every create, write, remove or rename of "<fluid><ext>" invalidates that fluid.
type TableWatcher struct {
	dir     string
	ext     string
	target  Invalidator
	watcher *fsnotify.Watcher

	// Changed, if set, is called after each invalidation.
	Changed func(fluid string)

	stopOnce sync.Once
	done     chan struct{}
}

func New(dir, ext string, target Invalidator) (*TableWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create table watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch table dir %s: %w", dir, err)
	}
	return &TableWatcher{
		dir:     dir,
		ext:     ext,
		target:  target,
		watcher: w,
		done:    make(chan struct{}),
	}, nil
}

// Run processes events until ctx is done or Close is called.
func (tw *TableWatcher) Run(ctx context.Context) {
	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return
		case <-tw.done:
			return
		case ev, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&relevant == 0 {
				continue
			}
			fluid, ok := engine.FluidFromPath(ev.Name, tw.ext)
			if !ok {
				continue
			}
			log.Debugf("table watcher: %s %s", ev.Op, ev.Name)
			tw.target.Invalidate(fluid)
			if tw.Changed != nil {
				tw.Changed(fluid)
			}
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("table watcher on %s: %v", tw.dir, err)
		}
	}
}

func (tw *TableWatcher) Close() error {
	var err error
	tw.stopOnce.Do(func() {
		close(tw.done)
		err = tw.watcher.Close()
	})
	return err
}
