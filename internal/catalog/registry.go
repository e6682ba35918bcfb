// Package catalog reads and writes the directory's category text files.
//
// Category files live in three directories: food listings (including
// shops.txt), places and events. Each file's shape is fixed by its kind and
// described by a label table in schema.go that both the writer and the parser
// use, so anything appended on approval is listed by discovery unchanged.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/anangai/civic-portal-backend/internal/store"
	"github.com/anangai/civic-portal-backend/pkg/logger"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCategoryNotFound is returned for an unknown category id
var ErrCategoryNotFound = errors.New("category not found")

// Group is the directory a category file belongs to
type Group string

const (
	GroupFood   Group = "food"
	GroupPlaces Group = "places"
	GroupEvents Group = "events"
)

const fileExt = ".txt"

// ShopsID is the featured category written in the shop shape
const ShopsID = "shops"

// FeaturedCategories are the category files a business may apply to.
var FeaturedCategories = []string{
	"bakeries",
	"breweries_pubs",
	"cafés_coffee_shops",
	"ice_cream_gelato",
	"restaurants",
	ShopsID,
}

// IsFeatured reports whether id is one of FeaturedCategories
func IsFeatured(id string) bool {
	for _, c := range FeaturedCategories {
		if c == id {
			return true
		}
	}
	return false
}

// FeaturedKind returns the shape used for a featured category file.
func FeaturedKind(id string) Kind {
	if id == ShopsID {
		return KindShop
	}
	return KindFood
}

// Category describes one category file
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  Group  `json:"type"`
	File  string `json:"file"`

	Kind Kind   `json:"-"`
	Path string `json:"-"`
}

// Registry resolves category ids to files and serializes appends per file.
type Registry struct {
	dirs  []groupDir
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type groupDir struct {
	group Group
	path  string
}

// NewRegistry builds a registry over the three category directories. Empty
// paths are skipped.
func NewRegistry(foodDir, placesDir, eventsDir string) *Registry {
	r := &Registry{locks: make(map[string]*sync.Mutex)}
	for _, d := range []groupDir{
		{GroupFood, foodDir},
		{GroupPlaces, placesDir},
		{GroupEvents, eventsDir},
	} {
		if d.path != "" {
			r.dirs = append(r.dirs, d)
		}
	}
	return r
}

// Categories lists every category file: food first, then places, then events,
// each group ordered by file name. Missing directories contribute nothing.
func (r *Registry) Categories() ([]Category, error) {
	categories := make([]Category, 0)
	for _, d := range r.dirs {
		entries, err := os.ReadDir(d.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("Category directory missing", map[string]interface{}{
					"group": d.group,
					"path":  d.path,
				})
				continue
			}
			return nil, fmt.Errorf("read category dir %s: %w", d.path, err)
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), fileExt) {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			categories = append(categories, newCategory(d, name))
		}
	}
	return categories, nil
}

func newCategory(d groupDir, fileName string) Category {
	id := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return Category{
		ID:    id,
		Label: Label(id),
		Type:  d.group,
		File:  fileName,
		Kind:  kindFor(d.group, id),
		Path:  filepath.Join(d.path, fileName),
	}
}

func kindFor(g Group, id string) Kind {
	switch g {
	case GroupPlaces:
		return KindPlace
	case GroupEvents:
		return KindEvent
	default:
		return FeaturedKind(id)
	}
}

// Label derives a display name from a file stem: "ice_cream_gelato" -> "Ice Cream Gelato".
func Label(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}

// Lookup resolves a category id, searching food, places then events.
func (r *Registry) Lookup(id string) (Category, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Category{}, ErrCategoryNotFound
	}
	categories, err := r.Categories()
	if err != nil {
		return Category{}, err
	}
	for _, c := range categories {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
}

// FeaturedPath is where approved applications for a featured category land.
func (r *Registry) FeaturedPath(id string) string {
	for _, d := range r.dirs {
		if d.group == GroupFood {
			return filepath.Join(d.path, id+fileExt)
		}
	}
	return ""
}

// Entries loads, splits and parses a category file, dropping unnamed blocks.
func (r *Registry) Entries(c Category) ([]Entry, error) {
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read category %s: %w", c.ID, err)
	}

	entries := make([]Entry, 0)
	for _, block := range SplitEntries(c.Kind, string(raw)) {
		if e, ok := ParseEntry(c.Kind, block); ok && e.EntryName() != "" {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// AppendEntry appends a rendered block to the end of an existing category
// file. A missing file is left alone and reported as not appended. The file is
// rewritten atomically so concurrent readers never observe half a block.
func (r *Registry) AppendEntry(path, block string) (bool, error) {
	lock := r.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	existing, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Category file missing, entry not appended", map[string]interface{}{
				"path": path,
			})
			return false, nil
		}
		return false, fmt.Errorf("%w: read %s: %v", store.ErrPersistence, path, err)
	}

	data := make([]byte, 0, len(existing)+len(block)+1)
	data = append(data, existing...)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' && !strings.HasPrefix(block, "\n") {
		data = append(data, '\n')
	}
	data = append(data, block...)

	if err := store.WriteFileAtomic(path, data); err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}
	return true, nil
}

// Export renders e and appends it to the featured category file id. It
// reports false without error when e has no name or the file is missing.
func (r *Registry) Export(id string, e Entry) (bool, error) {
	if !IsFeatured(id) {
		return false, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	block, err := ExportEntry(e)
	if err != nil {
		if errors.Is(err, ErrMissingName) {
			logger.Warn("Skipping export of unnamed entry", map[string]interface{}{
				"category": id,
			})
			return false, nil
		}
		return false, err
	}
	return r.AppendEntry(r.FeaturedPath(id), block)
}

func (r *Registry) lockFor(path string) *sync.Mutex {
	key := filepath.Clean(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	return l
}
