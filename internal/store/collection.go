// Package store persists named collections of records as flat JSON files.
//
// Each file holds one object whose collection field is an array of records:
//
//	{"users": [ {...}, {...} ]}
//
// Writers go through Collection.Update, which holds the collection's lock for
// the whole load, mutate and save sequence. Saves rewrite the file through a
// temporary sibling and a rename, so readers see either the old or the new
// image and never a partial one.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/anangai/civic-portal-backend/pkg/logger"
	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrStoreCorruption reports a persisted file that cannot be decoded.
	ErrStoreCorruption = errors.New("store corruption")
	// ErrPersistence reports a write that could not complete.
	ErrPersistence = errors.New("persistence failure")
	// ErrNoChange may be returned from an Update callback to skip the save.
	ErrNoChange = errors.New("no change")
)

// Collection is a typed, file-backed set of records. It owns the lock that
// serializes writers of its file.
type Collection[T any] struct {
	name   string
	path   string
	schema *gojsonschema.Schema
	mu     sync.Mutex
}

// Option configures a Collection
type Option func(*options)

type options struct {
	required []string
}

// WithRequiredFields makes load reject records missing any of the given string fields.
func WithRequiredFields(fields ...string) Option {
	return func(o *options) {
		o.required = append(o.required, fields...)
	}
}

// NewCollection binds a collection name (the top-level array field) to a file path.
func NewCollection[T any](name, path string, opts ...Option) (*Collection[T], error) {
	if name == "" || path == "" {
		return nil, fmt.Errorf("collection name and path are required")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(documentSchema(name, o.required)))
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", name, err)
	}

	return &Collection[T]{name: name, path: path, schema: schema}, nil
}

func documentSchema(name string, required []string) map[string]interface{} {
	item := map[string]interface{}{"type": "object"}
	if len(required) > 0 {
		props := map[string]interface{}{}
		for _, f := range required {
			props[f] = map[string]interface{}{"type": "string"}
		}
		item["properties"] = props
		item["required"] = required
	}
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			name: map[string]interface{}{
				"type":  "array",
				"items": item,
			},
		},
	}
}

// Name returns the collection field name
func (c *Collection[T]) Name() string { return c.name }

// Path returns the backing file path
func (c *Collection[T]) Path() string { return c.path }

// Load reads the whole collection. A missing file is an empty set.
func (c *Collection[T]) Load() (*DocumentSet[T], error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newDocumentSet[T](), nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrStoreCorruption, c.path, err)
	}
	return c.decode(raw)
}

func (c *Collection[T]) decode(raw []byte) (*DocumentSet[T], error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return newDocumentSet[T](), nil
	}

	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorruption, c.path, err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorruption, c.path, msgs)
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorruption, c.path, err)
	}

	set := newDocumentSet[T]()
	if field, ok := root[c.name]; ok {
		if err := json.Unmarshal(field, &set.Records); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrStoreCorruption, c.path, c.name, err)
		}
		delete(root, c.name)
	}
	set.extra = root
	return set, nil
}

// Save rewrites the collection file atomically, taking the writer lock.
func (c *Collection[T]) Save(set *DocumentSet[T]) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(set)
}

func (c *Collection[T]) save(set *DocumentSet[T]) error {
	root := make(map[string]interface{}, len(set.extra)+1)
	for k, v := range set.extra {
		root[k] = v
	}
	records := set.Records
	if records == nil {
		records = []T{}
	}
	root[c.name] = records

	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPersistence, c.name, err)
	}
	if err := WriteFileAtomic(c.path, data); err != nil {
		logger.Error("Failed to persist collection", err, map[string]interface{}{
			"collection": c.name,
			"path":       c.path,
		})
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Update runs fn against a fresh image of the collection while holding the
// writer lock, then saves. If fn returns ErrNoChange nothing is written and
// Update returns nil; any other error aborts without writing.
func (c *Collection[T]) Update(fn func(set *DocumentSet[T]) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, err := c.Load()
	if err != nil {
		return err
	}
	if err := fn(set); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}
	return c.save(set)
}

// FindByKey loads the collection and returns the first record whose key matches.
func (c *Collection[T]) FindByKey(key func(*T) string, value string, caseInsensitive bool) (*T, error) {
	set, err := c.Load()
	if err != nil {
		return nil, err
	}
	_, rec := set.FindByKey(key, value, caseInsensitive)
	return rec, nil
}

// Snapshot copies the current file to dst. It reports false when there is
// nothing to copy yet.
func (c *Collection[T]) Snapshot(dst string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: read %s: %v", ErrPersistence, c.path, err)
	}
	if err := WriteFileAtomic(dst, data); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return true, nil
}

// WriteFileAtomic writes data to a temporary sibling of path and renames it
// into place. An existing file keeps its permission bits; new files get 0644.
func WriteFileAtomic(path string, data []byte) (err error) {
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
