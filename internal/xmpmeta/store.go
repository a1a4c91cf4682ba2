package xmpmeta

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"pictor/internal/imagefile"
	"pictor/internal/logging"
	"pictor/internal/services"
)

// Store reads and writes ratings embedded in image files on disk. The codec
// layer above operates on byte buffers only; Store owns the filesystem side:
// atomic replacement, an exclusive lock claim during the replace, and a guard
// against overlapping writes to the same path.
type Store struct {
	logger *slog.Logger

	mu      sync.Mutex
	writing map[string]struct{}
}

// NewStore constructs a rating store. A nil logger is replaced with a no-op.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		logger:  logging.WithComponent(logger, "ratingstore"),
		writing: make(map[string]struct{}),
	}
}

// Read returns the embedded rating for the file at path. Absent or
// unparsable ratings read as 0; only filesystem failures error.
func (s *Store) Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, services.Classify("ratingstore", "read", err)
	}
	return ReadRating(data, imagefile.Sniff(data)), nil
}

// Write embeds rating into the file at path. The image is rewritten through
// a temporary file in the same directory and renamed into place, so a
// failure at any point leaves the original untouched. An exclusive flock
// claim is held on the target for the duration of the replace.
func (s *Store) Write(path string, rating int) error {
	if rating < 0 || rating > MaxRating {
		return services.Wrap(services.ErrValidation, "ratingstore", "write",
			fmt.Sprintf("rating must be 0-%d, got %d", MaxRating, rating), nil)
	}

	if !s.claim(path) {
		return services.Wrap(services.ErrValidation, "ratingstore", "write",
			"write already in progress for "+imagefile.FormatForLog(path), nil)
	}
	defer s.release(path)

	// Stat before locking: flock creates its target when absent, which
	// would turn a vanished file into an empty one.
	info, err := os.Stat(path)
	if err != nil {
		return services.Classify("ratingstore", "write", err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return services.Classify("ratingstore", "lock", err)
	}
	if !locked {
		return services.Wrap(services.ErrValidation, "ratingstore", "write",
			"file is locked by another process", nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	started := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return services.Classify("ratingstore", "write", err)
	}

	updated, err := Apply(data, imagefile.Sniff(data), rating)
	if err != nil {
		return err
	}

	if err := replaceFile(path, updated, info.Mode()); err != nil {
		return services.Classify("ratingstore", "replace", err)
	}

	s.logger.Debug("rating written",
		logging.String(logging.FieldPath, imagefile.FormatForLog(path)),
		logging.Int("rating", rating),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (s *Store) claim(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.writing[path]; busy {
		return false
	}
	s.writing[path] = struct{}{}
	return true
}

func (s *Store) release(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.writing, path)
}

// replaceFile writes data to a temporary sibling and renames it over path.
func replaceFile(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pictor-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
