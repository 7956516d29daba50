package fonts

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events a single copy produces.
const watchDebounce = 250 * time.Millisecond

// Watch registers font files in dir as they are created or rewritten, until
// ctx is done. Removed files stay registered. report, when non-nil, is called
// after every load attempt.
func (r *Registry) Watch(ctx context.Context, dir string, report func(asset string, err error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create font watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch font directory %s: %w", dir, err)
	}
	if report == nil {
		report = func(string, error) {}
	}
	go r.watchLoop(ctx, w, report)
	return nil
}

func (r *Registry) watchLoop(ctx context.Context, w *fsnotify.Watcher, report func(string, error)) {
	defer w.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isFontFile(filepath.Base(event.Name)) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(watchDebounce)

		case <-timer.C:
			for path := range pending {
				asset, err := r.RegisterFile(path)
				report(asset, err)
			}
			clear(pending)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			report("", err)
		}
	}
}
