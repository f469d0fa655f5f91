package flash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// DefaultSettle is how long an artifact must stay quiet after a change
// before it is flashed again. Linkers write the ELF in several chunks.
const DefaultSettle = 500 * time.Millisecond

// WatchFunc receives the outcome of every invocation made by Watch.
type WatchFunc func(res *Result, err error)

// Watch dispatches op once, then again every time its artifact is rewritten,
// until ctx is done. Invocations never overlap.
func (d *Dispatcher) Watch(ctx context.Context, op Operation, settle time.Duration, fn WatchFunc) error {
	artifact, err := d.Resolve(op, op.Profile())
	if err != nil {
		return err
	}
	if _, err := d.BuildSequence(op, artifact); err != nil {
		return err
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	// The first build may be what creates the output directory.
	fn(d.Dispatch(ctx, op))

	dir := filepath.Dir(artifact.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	d.logger.Info("Watching artifact for changes", "path", artifact.Path)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return watcher.Close()
	})

	g.Go(func() error {
		timer := time.NewTimer(settle)
		if !timer.Stop() {
			<-timer.C
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(ev.Name) != artifact.Path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					timer.Reset(settle)
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				d.logger.Warn("Watcher error", "error", werr)
			case <-timer.C:
				d.logger.Info("Artifact changed, flashing again", "path", artifact.Path)
				fn(d.Dispatch(ctx, op))
			}
		}
	})

	return g.Wait()
}
