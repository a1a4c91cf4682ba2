package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pictor/internal/assetcache"
	"pictor/internal/config"
	"pictor/internal/library"
	"pictor/internal/logging"
	"pictor/internal/services"
	"pictor/internal/watcher"
	"pictor/internal/xmpmeta"
)

// State describes the session lifecycle.
type State int

const (
	// StateEmpty means no directory is open.
	StateEmpty State = iota
	// StateLoaded means a directory index is built and navigable.
	StateLoaded
	// StateWatching means Loaded plus an active filesystem subscription.
	StateWatching
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateWatching:
		return "watching"
	default:
		return "unknown"
	}
}

// Direction selects a navigation step.
type Direction int

const (
	// Next moves toward the end of the index.
	Next Direction = iota
	// Previous moves toward the start of the index.
	Previous
)

// Session owns the open directory, the current selection, and the decoded
// view of the selected asset. All mutation happens under the session mutex;
// the watcher hands settled diffs in through OnDiff and never touches the
// index itself.
type Session struct {
	id     string
	logger *slog.Logger
	store  *xmpmeta.Store
	cache  *assetcache.Cache

	debounce   time.Duration
	selfWindow time.Duration

	mu       sync.Mutex
	state    State
	index    *library.Index
	selected int
	current  *assetcache.Asset
	rec      *watcher.Reconciler
	// lastWrite records our own rating writes so the resulting "modified"
	// event is not mistaken for an external change.
	lastWrite map[string]time.Time
	watchErr  error
}

// New constructs an empty session from the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	id := uuid.NewString()
	logger = logging.WithComponent(logger, "session").With(
		logging.String(logging.FieldSessionID, id),
	)

	cache, err := assetcache.New(cfg.Viewer.CacheCapacity, logger)
	if err != nil {
		return nil, err
	}

	return &Session{
		id:         id,
		logger:     logger,
		store:      xmpmeta.NewStore(logger),
		cache:      cache,
		debounce:   cfg.Debounce(),
		selfWindow: cfg.SelfEventWindow(),
		selected:   -1,
		lastWrite:  make(map[string]time.Time),
	}, nil
}

// ID returns the session correlation id.
func (s *Session) ID() string { return s.id }

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open builds an index for dir and makes it the active directory, selecting
// the first entry when one exists. On failure the previous state is left
// intact. An active watch on the previous directory is stopped; watching
// must be re-enabled explicitly for the new directory.
func (s *Session) Open(dir string) error {
	index, err := library.Build(dir)
	if err != nil {
		return err
	}

	s.stopWatch()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = index
	s.state = StateLoaded
	s.selected = -1
	s.current = nil
	s.watchErr = nil
	s.lastWrite = make(map[string]time.Time)
	s.cache.Purge()

	s.logger.Info("directory opened",
		logging.String("dir", dir),
		logging.Int("entries", index.Len()),
	)

	if index.Len() > 0 {
		if err := s.selectLocked(0); err != nil {
			// The directory is open either way; the first entry may have
			// vanished between enumeration and load.
			s.logger.Warn("initial selection failed", logging.Error(err))
		}
	}
	return nil
}

// SelectIndex moves the selection to position i and loads its metadata.
func (s *Session) SelectIndex(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEmpty {
		return services.Wrap(services.ErrValidation, "session", "select", "no directory open", nil)
	}
	return s.selectLocked(i)
}

// SelectPath moves the selection to the entry with the given path.
func (s *Session) SelectPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEmpty {
		return services.Wrap(services.ErrValidation, "session", "select", "no directory open", nil)
	}
	i, ok := s.index.PositionOf(path)
	if !ok {
		return services.Wrap(services.ErrNotFound, "session", "select", path, nil)
	}
	return s.selectLocked(i)
}

// Navigate steps the selection one entry in the given direction. Stepping
// past either end is a no-op.
func (s *Session) Navigate(direction Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEmpty || s.selected < 0 {
		return nil
	}
	next := s.selected
	switch direction {
	case Next:
		next = s.index.Next(s.selected)
	case Previous:
		next = s.index.Previous(s.selected)
	}
	if next == s.selected {
		return nil
	}
	return s.selectLocked(next)
}

// selectLocked updates the selection and loads the asset view for it.
// Callers hold s.mu.
func (s *Session) selectLocked(i int) error {
	entry, ok := s.index.Entry(i)
	if !ok {
		return services.Wrap(services.ErrValidation, "session", "select", "index out of range", nil)
	}
	asset, err := s.cache.Fetch(entry.Path)
	if err != nil {
		return err
	}
	s.selected = i
	s.current = &asset
	return nil
}

// ToggleWatch starts the filesystem watch for the open directory, or stops
// it when already active. It reports whether the watch is running after the
// call.
func (s *Session) ToggleWatch(ctx context.Context) (bool, error) {
	s.mu.Lock()
	switch s.state {
	case StateEmpty:
		s.mu.Unlock()
		return false, services.Wrap(services.ErrValidation, "session", "watch", "no directory open", nil)
	case StateWatching:
		s.mu.Unlock()
		s.stopWatch()
		return false, nil
	}

	rec := watcher.New(s.index.Dir(), s.debounce, s, s.logger)
	if err := rec.Start(ctx); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.rec = rec
	s.state = StateWatching
	s.watchErr = nil
	s.mu.Unlock()
	return true, nil
}

// stopWatch stops any active reconciler. The reconciler is stopped outside
// the session mutex: its loop goroutine may be blocked in OnDiff waiting
// for the same mutex, and Stop joins that goroutine.
func (s *Session) stopWatch() {
	s.mu.Lock()
	rec := s.rec
	s.rec = nil
	if s.state == StateWatching {
		s.state = StateLoaded
	}
	s.mu.Unlock()
	if rec != nil {
		rec.Stop()
	}
}

// OnDiff applies a settled directory diff. It implements watcher.Handler.
func (s *Session) OnDiff(diff library.Diff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateWatching || s.index == nil {
		return
	}

	external := s.externalModifications(diff.Modified)

	prevPath := ""
	prevIndex := s.selected
	if entry, ok := s.index.Entry(s.selected); ok {
		prevPath = entry.Path
	}

	for _, path := range diff.Removed {
		s.cache.Invalidate(path)
		delete(s.lastWrite, path)
	}
	for _, path := range external {
		s.cache.Invalidate(path)
	}

	s.index = s.index.ApplyDiff(diff)

	s.logger.Debug("diff applied",
		logging.Int("added", len(diff.Added)),
		logging.Int("removed", len(diff.Removed)),
		logging.Int("modified", len(diff.Modified)),
		logging.Int("entries", s.index.Len()),
	)

	s.reselect(prevPath, prevIndex, external)
}

// externalModifications filters out modified paths attributable to this
// session's own rating writes. The suppression is a time-window heuristic:
// an external tool writing the same file inside the window is indistinguishable
// from our own write and will not trigger a re-fetch.
func (s *Session) externalModifications(modified []string) []string {
	now := time.Now()
	var external []string
	for _, path := range modified {
		if stamp, ok := s.lastWrite[path]; ok && now.Sub(stamp) <= s.selfWindow {
			delete(s.lastWrite, path)
			continue
		}
		external = append(external, path)
	}
	return external
}

// reselect revalidates the selection after a diff. Callers hold s.mu.
func (s *Session) reselect(prevPath string, prevIndex int, external []string) {
	if prevPath == "" {
		if s.selected < 0 && s.index.Len() > 0 {
			if err := s.selectLocked(0); err != nil {
				s.logger.Warn("selection load failed", logging.Error(err))
			}
		}
		return
	}

	if pos, ok := s.index.PositionOf(prevPath); ok {
		s.selected = pos
		for _, path := range external {
			if path == prevPath {
				// Genuine external modification of the selected file:
				// re-fetch its metadata view.
				if err := s.selectLocked(pos); err != nil {
					s.logger.Warn("metadata refresh failed",
						logging.String(logging.FieldPath, prevPath),
						logging.Error(err),
					)
					s.current = nil
				}
				break
			}
		}
		return
	}

	// The selected file is gone. Fall back to the nearest remaining entry
	// by prior position, or clear the selection if the directory emptied.
	if s.index.Len() == 0 {
		s.selected = -1
		s.current = nil
		return
	}
	fallback := prevIndex
	if fallback >= s.index.Len() {
		fallback = s.index.Len() - 1
	}
	if fallback < 0 {
		fallback = 0
	}
	if err := s.selectLocked(fallback); err != nil {
		s.logger.Warn("fallback selection load failed", logging.Error(err))
		s.selected = fallback
		s.current = nil
	}
}

// OnWatchLost handles a terminal watch failure. Watching is disabled and
// the failure is reported once; there is no automatic retry.
func (s *Session) OnWatchLost(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateWatching {
		s.state = StateLoaded
	}
	s.rec = nil
	s.watchErr = err
	s.logger.Warn("watch lost, watching disabled", logging.Error(err))
}

// WatchError returns the terminal watch failure, if one occurred since the
// watch was last started.
func (s *Session) WatchError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchErr
}

// SetRating writes rating to the selected file and updates the in-memory
// view on success. On failure neither the file view nor the in-memory
// rating changes.
func (s *Session) SetRating(rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return services.Wrap(services.ErrValidation, "session", "rate", "no directory open", nil)
	}
	entry, ok := s.index.Entry(s.selected)
	if !ok {
		return services.Wrap(services.ErrValidation, "session", "rate", "no selection", nil)
	}
	if err := s.store.Write(entry.Path, rating); err != nil {
		return err
	}
	s.lastWrite[entry.Path] = time.Now()
	s.cache.UpdateRating(entry.Path, rating)
	if s.current != nil {
		s.current.Rating = rating
	}
	s.logger.Info("rating set",
		logging.String(logging.FieldPath, entry.Path),
		logging.Int("rating", rating),
	)
	return nil
}

// CurrentPath reports the selected file's path for platform integrations
// such as clipboard copy.
func (s *Session) CurrentPath() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return "", false
	}
	entry, ok := s.index.Entry(s.selected)
	if !ok {
		return "", false
	}
	return entry.Path, true
}

// Current returns the decoded view of the selected asset.
func (s *Session) Current() (assetcache.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return assetcache.Asset{}, false
	}
	return *s.current, true
}

// SelectedIndex reports the selection position, or -1 when nothing is
// selected.
func (s *Session) SelectedIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Index returns the current directory index, or nil when no directory is
// open.
func (s *Session) Index() *library.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Close stops any active watch and releases session resources.
func (s *Session) Close() {
	s.stopWatch()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
	s.state = StateEmpty
	s.index = nil
	s.selected = -1
	s.current = nil
}
