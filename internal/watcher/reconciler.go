package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pictor/internal/imagefile"
	"pictor/internal/library"
	"pictor/internal/logging"
	"pictor/internal/services"
)

// Handler receives the reconciler's output. OnDiff delivers one settled Diff
// per debounce window, in window order. OnWatchLost fires at most once, after
// which the reconciler is stopped and will not emit again.
type Handler interface {
	OnDiff(library.Diff)
	OnWatchLost(error)
}

// eventKind is the coalesced per-path state inside one debounce window.
type eventKind int

const (
	kindAdded eventKind = iota
	kindRemoved
	kindModified
)

// Reconciler converts the raw fsnotify event stream for one directory into
// settled Diffs. Bursts are coalesced with a quiet-period timer: every raw
// event resets the timer and the buffer is flushed only once it expires.
type Reconciler struct {
	dir      string
	debounce time.Duration
	handler  Handler
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a reconciler for dir. The handler must not be nil.
func New(dir string, debounce time.Duration, handler Handler, logger *slog.Logger) *Reconciler {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Reconciler{
		dir:      dir,
		debounce: debounce,
		handler:  handler,
		logger:   logging.WithComponent(logger, "watcher"),
	}
}

// Start subscribes to filesystem notifications and begins debouncing.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("watcher already running")
	}

	if _, err := os.Stat(r.dir); err != nil {
		return services.Classify("watcher", "subscribe", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrWatchLost, "watcher", "start", "", err)
	}
	if err := fsw.Add(r.dir); err != nil {
		_ = fsw.Close()
		return services.Classify("watcher", "subscribe", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(1)
	go r.loop(runCtx, fsw)

	r.logger.Debug("watch started",
		logging.String("dir", r.dir),
		logging.Duration("debounce", r.debounce),
	)
	return nil
}

// Stop cancels the subscription and discards any in-flight debounce window.
// When Stop returns, no further Handler call will be made.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	cancel()
	r.wg.Wait()
	r.logger.Debug("watch stopped", logging.String("dir", r.dir))
}

func (r *Reconciler) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer r.wg.Done()
	defer fsw.Close()

	pending := make(map[string]eventKind)
	timer := time.NewTimer(r.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false

	for {
		select {
		case <-ctx.Done():
			// Drop any pending window: a stale diff after watch-off could
			// resurrect entries the session already discarded.
			return

		case event, ok := <-fsw.Events:
			if !ok {
				r.lost(errors.New("event stream closed"))
				return
			}
			if !r.relevant(event.Name) {
				continue
			}
			coalesce(pending, event)
			if timerArmed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(r.debounce)
			timerArmed = true

		case err, ok := <-fsw.Errors:
			if !ok {
				r.lost(errors.New("error stream closed"))
				return
			}
			r.lost(err)
			return

		case <-timer.C:
			timerArmed = false
			diff := settle(pending)
			pending = make(map[string]eventKind)
			if diff.Empty() {
				continue
			}
			r.logger.Debug("diff settled",
				logging.Int("added", len(diff.Added)),
				logging.Int("removed", len(diff.Removed)),
				logging.Int("modified", len(diff.Modified)),
			)
			r.handler.OnDiff(diff)
		}
	}
}

// relevant filters events down to plausible image paths; editors and copy
// tools emit plenty of noise for temp and sidecar files.
func (r *Reconciler) relevant(path string) bool {
	return imagefile.HasSupportedExtension(path)
}

// lost marks the reconciler stopped before notifying, so a Stop call from
// inside the handler is a safe no-op rather than a self-join.
func (r *Reconciler) lost(err error) {
	r.mu.Lock()
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	r.logger.Warn("watch subscription lost", logging.Error(err), logging.String("dir", r.dir))
	r.handler.OnWatchLost(services.Wrap(services.ErrWatchLost, "watcher", "subscribe", r.dir, err))
}

// coalesce folds one raw event into the pending window. The last event per
// path wins, except that a create followed by a delete inside the same
// window cancels outright.
func coalesce(pending map[string]eventKind, event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Create):
		pending[event.Name] = kindAdded
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		// A rename notifies on the old path; the new path arrives as a
		// separate create event.
		if kind, seen := pending[event.Name]; seen && kind == kindAdded {
			delete(pending, event.Name)
			return
		}
		pending[event.Name] = kindRemoved
	case event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Chmod):
		// A write right after a create is still an addition settling.
		if kind, seen := pending[event.Name]; seen && kind == kindAdded {
			return
		}
		pending[event.Name] = kindModified
	}
}

// settle turns the coalesced window into a Diff.
func settle(pending map[string]eventKind) library.Diff {
	var diff library.Diff
	for path, kind := range pending {
		switch kind {
		case kindAdded:
			diff.Added = append(diff.Added, path)
		case kindRemoved:
			diff.Removed = append(diff.Removed, path)
		case kindModified:
			diff.Modified = append(diff.Modified, path)
		}
	}
	return diff
}
