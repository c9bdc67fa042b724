package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	config "github.com/openvfx/gopublish/internal/config/server"
	"github.com/openvfx/gopublish/pkg/db/store"
	"github.com/openvfx/gopublish/pkg/log"
	"github.com/openvfx/gopublish/pkg/publish"
)

// Watcher monitors hot folders for publish manifests. A manifest is
// picked up once writes to it have settled, integrated, and renamed to
// mark the outcome.
type Watcher struct {
	log        log.LoggerService
	cfg        config.WatchServerConfig
	store      store.EntityStore
	integrator *publish.Integrator
	notify     *fsnotify.Watcher
	settle     time.Duration

	mutex   sync.Mutex
	pending map[string]*time.Timer
}

func NewWatcher(
	logger log.LoggerService,
	cfg config.WatchServerConfig,
	entityStore store.EntityStore,
	integrator *publish.Integrator,
) (*Watcher, error) {
	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	settle, err := time.ParseDuration(cfg.SettleDelay)
	if err != nil {
		settle = 2 * time.Second
	}

	for _, path := range cfg.Paths {
		if err := notify.Add(path); err != nil {
			notify.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	return &Watcher{
		log:        logger.Named("watcher"),
		cfg:        cfg,
		store:      entityStore,
		integrator: integrator,
		notify:     notify,
		settle:     settle,
		pending:    make(map[string]*time.Timer),
	}, nil
}

// Run processes filesystem events until the context is cancelled or
// the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("Watching %d hot folders for %s manifests",
		len(w.cfg.Paths), w.cfg.Pattern)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.notify.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.notify.Errors:
			if !ok {
				return nil
			}
			w.log.Error("Watch error: %v", err)
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() {
	w.notify.Close()

	w.mutex.Lock()
	defer w.mutex.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) matches(path string) bool {
	matched, err := filepath.Match(w.cfg.Pattern, filepath.Base(path))
	return err == nil && matched
}

// schedule delays processing until writes to the manifest settle.
// Repeated events reset the timer.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mutex.Lock()
		delete(w.pending, path)
		w.mutex.Unlock()

		w.process(ctx, path)
	})
}

func (w *Watcher) process(ctx context.Context, path string) {
	w.log.Info("Processing manifest %s", path)

	pctx, err := publish.LoadManifest(path)
	if err != nil {
		w.log.Error("Failed to load manifest %s: %v", path, err)
		w.markDone(path, false)
		return
	}

	if err := publish.EnsureFolders(ctx, w.store, pctx); err != nil {
		w.log.Error("Failed to prepare folders for %s: %v", path, err)
		w.markDone(path, false)
		return
	}

	if _, err := w.integrator.IntegrateContext(ctx, pctx); err != nil {
		w.log.Error("Failed to integrate manifest %s: %v", path, err)
		w.markDone(path, false)
		return
	}

	w.markDone(path, true)
}

func (w *Watcher) markDone(path string, success bool) {
	suffix := ".done"
	if !success {
		suffix = ".failed"
	}
	if err := os.Rename(path, path+suffix); err != nil {
		w.log.Warn("Failed to rename processed manifest %s: %v", path, err)
	}
}
