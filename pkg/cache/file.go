package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gravitylab/gravita/pkg/errors"
)

// FileCache is a filesystem-backed cache. Each entry is a pair of files
// under the cache directory: the payload and a small JSON envelope holding
// the expiry. Suitable for single-machine CLI usage.
type FileCache struct {
	dir string
}

type fileEnvelope struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// NewFileCache creates a file cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "cache directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "creating cache directory")
	}
	return &FileCache{dir: dir}, nil
}

// Get retrieves a value, honoring expiry. Expired entries are removed.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	meta, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "reading cache metadata")
	}
	var env fileEnvelope
	if err := json.Unmarshal(meta, &env); err != nil {
		// Corrupt envelope: treat as a miss and clean up.
		_ = c.Delete(ctx, key)
		return nil, false, nil
	}
	if !env.ExpiresAt.IsZero() && time.Now().After(env.ExpiresAt) {
		_ = c.Delete(ctx, key)
		return nil, false, nil
	}
	data, err := os.ReadFile(c.dataPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "reading cache entry")
	}
	return data, true, nil
}

// Set stores a value with the given TTL. A zero TTL means no expiry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := fileEnvelope{}
	if ttl > 0 {
		env.ExpiresAt = time.Now().Add(ttl)
	}
	meta, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encoding cache metadata")
	}
	if err := writeAtomic(c.dataPath(key), data); err != nil {
		return err
	}
	return writeAtomic(c.metaPath(key), meta)
}

// Delete removes a value.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(c.dataPath(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInternal, err, "removing cache entry")
	}
	if err := os.Remove(c.metaPath(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInternal, err, "removing cache metadata")
	}
	return nil
}

// Close does nothing for a file cache.
func (c *FileCache) Close() error {
	return nil
}

// Clear removes every entry in the cache directory.
func (c *FileCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "listing cache directory")
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "clearing cache entry")
		}
	}
	return nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

func (c *FileCache) dataPath(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+".bin")
}

func (c *FileCache) metaPath(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+".json")
}

// sanitizeKey makes a cache key safe to use as a filename.
// Keys are prefix:hexhash, so only the colon needs replacing.
func sanitizeKey(key string) string {
	return strings.ReplaceAll(key, ":", "_")
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "writing cache entry")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "committing cache entry")
	}
	return nil
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
