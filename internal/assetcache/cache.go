package assetcache

import (
	"log/slog"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"pictor/internal/imagefile"
	"pictor/internal/logging"
	"pictor/internal/pngmeta"
	"pictor/internal/services"
	"pictor/internal/xmpmeta"
)

// DefaultCapacity bounds the cache when no explicit capacity is configured.
const DefaultCapacity = 16

// Asset is a fully decoded image entry: the raw file bytes plus the
// metadata the viewer surfaces for it.
type Asset struct {
	Path     string
	Format   imagefile.Format
	Data     []byte
	Metadata *pngmeta.GenerationMetadata
	Rating   int
	LoadedAt time.Time
}

// Cache keeps recently viewed assets in memory so that stepping back and
// forth through a directory does not re-read and re-parse files. Entries
// are evicted least-recently-used once capacity is reached.
type Cache struct {
	logger *slog.Logger
	mu     sync.Mutex
	lru    *lru.Cache[string, Asset]
}

// New creates a cache holding at most capacity assets.
func New(capacity int, logger *slog.Logger) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	inner, err := lru.New[string, Asset](capacity)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "assetcache", "new", "create lru", err)
	}
	return &Cache{
		logger: logging.WithComponent(logger, "assetcache"),
		lru:    inner,
	}, nil
}

// Fetch returns the cached asset for path, loading and decoding it on a
// miss. The returned asset reflects the file as of the load; callers that
// know the file changed should Invalidate first.
func (c *Cache) Fetch(path string) (Asset, error) {
	c.mu.Lock()
	if asset, ok := c.lru.Get(path); ok {
		c.mu.Unlock()
		return asset, nil
	}
	c.mu.Unlock()

	asset, err := load(path)
	if err != nil {
		return Asset{}, err
	}

	c.mu.Lock()
	c.lru.Add(path, asset)
	c.mu.Unlock()

	c.logger.Debug("asset loaded",
		logging.String(logging.FieldPath, path),
		logging.String("format", asset.Format.String()),
		logging.Int("bytes", len(asset.Data)),
		logging.Bool("generation_metadata", asset.Metadata != nil),
	)
	return asset, nil
}

// Peek reports the cached asset for path without loading on a miss and
// without refreshing its recency.
func (c *Cache) Peek(path string) (Asset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Peek(path)
}

// UpdateRating rewrites the cached rating for path in place. A miss is a
// no-op; the next Fetch reads the rating from disk anyway.
func (c *Cache) UpdateRating(path string, rating int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	asset, ok := c.lru.Peek(path)
	if !ok {
		return
	}
	asset.Rating = rating
	c.lru.Add(path, asset)
}

// Invalidate drops the cached asset for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(path)
}

// Purge drops every cached asset.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len reports the number of cached assets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func load(path string) (Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Asset{}, services.Classify("assetcache", "load", err)
	}
	format := imagefile.Sniff(data)

	asset := Asset{
		Path:     path,
		Format:   format,
		Data:     data,
		LoadedAt: time.Now(),
	}
	// Missing or unreadable metadata leaves the asset usable: the viewer
	// shows the image with empty details rather than failing the load.
	asset.Metadata = pngmeta.Extract(data, format)
	asset.Rating = xmpmeta.ReadRating(data, format)
	return asset, nil
}
