package subtitles

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"subforge/internal/fileutil"
	"subforge/internal/logging"
	"subforge/internal/timeline"
)

const lockRetryDelay = 50 * time.Millisecond

// CachePath returns the deterministic cache location for a media file: the
// media filename stem with an .srt extension inside cacheDir.
func CachePath(cacheDir, mediaPath string) string {
	base := filepath.Base(mediaPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(cacheDir, stem+".srt")
}

// Cache persists timelines next to each other under one directory. Writes
// hold an advisory file lock so a CLI run and a serving process do not
// interleave writes to the same cache entry.
type Cache struct {
	dir    string
	logger *slog.Logger
}

// NewCache constructs a cache rooted at dir.
func NewCache(dir string, logger *slog.Logger) *Cache {
	return &Cache{dir: dir, logger: logging.NewComponentLogger(logger, "subtitle-cache")}
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

// PathFor returns the cache path for mediaPath.
func (c *Cache) PathFor(mediaPath string) string {
	return CachePath(c.dir, mediaPath)
}

// Load returns the cached segments for mediaPath. A missing entry yields
// ok=false with no error.
func (c *Cache) Load(mediaPath string) ([]timeline.Segment, bool, error) {
	path := c.PathFor(mediaPath)
	if !fileutil.Exists(path) {
		return nil, false, nil
	}
	segments, err := ParseFile(path)
	if err != nil {
		return nil, false, err
	}
	c.logger.Info("subtitle cache hit",
		logging.String(logging.FieldEventType, "cache_hit"),
		logging.String("path", path),
		logging.Int("segments", len(segments)),
	)
	return segments, true, nil
}

// Store writes segments for mediaPath in the given mode and returns the path.
func (c *Cache) Store(ctx context.Context, mediaPath string, segments []timeline.Segment, mode Mode) (string, error) {
	path := c.PathFor(mediaPath)
	if err := WriteFileLocked(ctx, path, segments, mode); err != nil {
		return "", err
	}
	c.logger.Info("subtitle cache updated",
		logging.String(logging.FieldEventType, "cache_write"),
		logging.String("path", path),
		logging.Int("segments", len(segments)),
		logging.String("mode", string(mode)),
	)
	return path, nil
}

// WriteFile atomically writes segments to path in the given mode.
func WriteFile(path string, segments []timeline.Segment, mode Mode) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return Write(w, segments, mode)
	})
}

// WriteFileLocked is WriteFile guarded by an advisory lock on path+".lock".
func WriteFileLocked(ctx context.Context, path string, segments []timeline.Segment, mode Mode) error {
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", path)
	}
	defer func() { _ = lock.Unlock() }()
	return WriteFile(path, segments, mode)
}
