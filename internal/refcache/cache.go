// Package refcache memoizes metadata references for one capture session so
// that projects sharing a binary share one loaded handle.
package refcache

import (
	"path/filepath"
	"runtime"
	"strings"

	"buildcap/internal/errors"
)

// Loader loads the metadata of a referenced binary.
type Loader interface {
	Load(path string) (*Reference, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path string) (*Reference, error)

func (f LoaderFunc) Load(path string) (*Reference, error) { return f(path) }

// Cache maps normalized reference paths to loaded references. It has no
// eviction and is not safe for concurrent use; one session owns it.
type Cache struct {
	loader   Loader
	foldCase bool
	refs     map[string]*Reference
}

// Option configures a Cache.
type Option func(*Cache)

// WithCaseFolding overrides the host default for case-insensitive keys.
func WithCaseFolding(fold bool) Option {
	return func(c *Cache) { c.foldCase = fold }
}

// New creates an empty cache backed by loader.
func New(loader Loader, opts ...Option) *Cache {
	c := &Cache{
		loader:   loader,
		foldCase: runtime.GOOS == "windows" || runtime.GOOS == "darwin",
		refs:     make(map[string]*Reference),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrLoad returns the cached reference for path, loading it on first use.
func (c *Cache) GetOrLoad(path string) (*Reference, error) {
	key := c.key(path)
	if ref, ok := c.refs[key]; ok {
		return ref, nil
	}

	ref, err := c.loader.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load metadata reference %s", path)
	}
	c.refs[key] = ref
	return ref, nil
}

// Len returns the number of distinct references loaded.
func (c *Cache) Len() int {
	return len(c.refs)
}

func (c *Cache) key(path string) string {
	key := filepath.Clean(path)
	if c.foldCase {
		key = strings.ToLower(key)
	}
	return key
}
