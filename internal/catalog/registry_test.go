package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRegistryTest(t *testing.T) (*Registry, string) {
	root := t.TempDir()
	for _, dir := range []string{"Food", "Places", "Events"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	r := NewRegistry(
		filepath.Join(root, "Food"),
		filepath.Join(root, "Places"),
		filepath.Join(root, "Events"),
	)
	return r, root
}

func writeFile(t *testing.T, path, content string) {
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLabel(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"ice_cream_gelato", "Ice Cream Gelato"},
		{"breweries_pubs", "Breweries Pubs"},
		{"shops", "Shops"},
		{"cafés_coffee_shops", "Cafés Coffee Shops"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.id))
		})
	}
}

func TestCategories_OrderAndGroups(t *testing.T) {
	r, root := setupRegistryTest(t)
	writeFile(t, filepath.Join(root, "Food", "restaurants.txt"), "")
	writeFile(t, filepath.Join(root, "Food", "bakeries.txt"), "")
	writeFile(t, filepath.Join(root, "Food", "shops.txt"), "")
	writeFile(t, filepath.Join(root, "Food", "README.md"), "ignored")
	writeFile(t, filepath.Join(root, "Places", "parks.txt"), "")
	writeFile(t, filepath.Join(root, "Events", "events.txt"), "")
	require.NoError(t, os.Mkdir(filepath.Join(root, "Food", "archive.txt"), 0o755))

	categories, err := r.Categories()
	require.NoError(t, err)

	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"bakeries", "restaurants", "shops", "parks", "events"}, ids)

	assert.Equal(t, GroupFood, categories[0].Type)
	assert.Equal(t, KindFood, categories[0].Kind)
	assert.Equal(t, "bakeries.txt", categories[0].File)
	assert.Equal(t, KindShop, categories[2].Kind)
	assert.Equal(t, GroupPlaces, categories[3].Type)
	assert.Equal(t, KindPlace, categories[3].Kind)
	assert.Equal(t, GroupEvents, categories[4].Type)
	assert.Equal(t, KindEvent, categories[4].Kind)
}

func TestCategories_MissingDirectories(t *testing.T) {
	root := t.TempDir()
	r := NewRegistry(filepath.Join(root, "nope"), "", filepath.Join(root, "also-missing"))

	categories, err := r.Categories()
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestLookup(t *testing.T) {
	r, root := setupRegistryTest(t)
	writeFile(t, filepath.Join(root, "Places", "museums.txt"), "")

	c, err := r.Lookup("museums")
	require.NoError(t, err)
	assert.Equal(t, "Museums", c.Label)
	assert.Equal(t, filepath.Join(root, "Places", "museums.txt"), c.Path)

	_, err = r.Lookup("zoos")
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	_, err = r.Lookup("  ")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestEntries(t *testing.T) {
	r, root := setupRegistryTest(t)
	path := filepath.Join(root, "Food", "bakeries.txt")
	writeFile(t, path, "Kingston Bakeries\n\nBusiness Name: A\nLocation: 1 St\n\nLocation: orphan\n\nBusiness Name: B\n")

	c, err := r.Lookup("bakeries")
	require.NoError(t, err)

	entries, err := r.Entries(c)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].EntryName())
	assert.Equal(t, "B", entries[1].EntryName())
}

func TestEntries_FileRemovedAfterListing(t *testing.T) {
	r, root := setupRegistryTest(t)
	path := filepath.Join(root, "Places", "parks.txt")
	writeFile(t, path, "Name: City Park\n")

	c, err := r.Lookup("parks")
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	entries, err := r.Entries(c)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExport_ShopsScenario(t *testing.T) {
	r, root := setupRegistryTest(t)
	path := filepath.Join(root, "Food", "shops.txt")
	writeFile(t, path, "Store Name: Existing\nLocation: 1 Princess St\n---")

	ok, err := r.Export(ShopsID, &ShopEntry{
		Name:     "Joe's",
		Location: "123 Main",
		Hours:    "9-5",
		Info:     "Local goods",
		Category: "Retail",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Store Name: Existing\nLocation: 1 Princess St\n---\nStore Name: Joe's\nLocation: 123 Main\nHours of Operation: 9-5\nInfo: Local goods\nCategory: Retail\n---",
		string(raw))

	c, err := r.Lookup(ShopsID)
	require.NoError(t, err)
	entries, err := r.Entries(c)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, &ShopEntry{Name: "Joe's", Location: "123 Main", Hours: "9-5", Info: "Local goods", Category: "Retail"}, entries[1])
}

func TestExport_FoodAppendsAreListed(t *testing.T) {
	r, root := setupRegistryTest(t)
	path := filepath.Join(root, "Food", "restaurants.txt")
	writeFile(t, path, "Business Name: First\nLocation: 1 St\n")

	for _, name := range []string{"Second", "Third"} {
		ok, err := r.Export("restaurants", &FoodEntry{Name: name, Location: "2 St"})
		require.NoError(t, err)
		assert.True(t, ok)
	}

	c, err := r.Lookup("restaurants")
	require.NoError(t, err)
	entries, err := r.Entries(c)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Third", entries[2].EntryName())
}

func TestExport_MissingFileIsNoop(t *testing.T) {
	r, root := setupRegistryTest(t)

	ok, err := r.Export("bakeries", &FoodEntry{Name: "Bread Co"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = os.Stat(filepath.Join(root, "Food", "bakeries.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestExport_UnnamedEntrySkipped(t *testing.T) {
	r, root := setupRegistryTest(t)
	path := filepath.Join(root, "Food", "bakeries.txt")
	writeFile(t, path, "")

	ok, err := r.Export("bakeries", &FoodEntry{Location: "1 St"})
	require.NoError(t, err)
	assert.False(t, ok)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestExport_UnknownCategory(t *testing.T) {
	r, _ := setupRegistryTest(t)

	_, err := r.Export("parks", &FoodEntry{Name: "x"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestAppendEntry_EventLineOnUnterminatedFile(t *testing.T) {
	r, root := setupRegistryTest(t)
	path := filepath.Join(root, "Events", "events.txt")
	writeFile(t, path, "A | May 1 | May 2 | Sq | 1 St | url")

	line, err := ExportEntry(&EventEntry{Name: "B", StartDate: "June 1"})
	require.NoError(t, err)
	ok, err := r.AppendEntry(path, line)
	require.NoError(t, err)
	assert.True(t, ok)

	c, err := r.Lookup("events")
	require.NoError(t, err)
	entries, err := r.Entries(c)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[1].EntryName())
}

func TestAppendEntry_KeepsFileMode(t *testing.T) {
	r, root := setupRegistryTest(t)
	path := filepath.Join(root, "Food", "shops.txt")
	writeFile(t, path, "")
	require.NoError(t, os.Chmod(path, 0o640))

	ok, err := r.Export("shops", &ShopEntry{Name: "Joe's"})
	require.NoError(t, err)
	assert.True(t, ok)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestAppendEntry_Concurrent(t *testing.T) {
	r, root := setupRegistryTest(t)
	path := filepath.Join(root, "Food", "cafés_coffee_shops.txt")
	writeFile(t, path, "")

	const writers = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Export("cafés_coffee_shops", &FoodEntry{Name: fmt.Sprintf("Cafe %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	c, err := r.Lookup("cafés_coffee_shops")
	require.NoError(t, err)
	entries, err := r.Entries(c)
	require.NoError(t, err)
	assert.Len(t, entries, writers)

	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.EntryName()] = true
	}
	assert.Len(t, seen, writers)
}

func TestFeaturedKind(t *testing.T) {
	assert.Equal(t, KindShop, FeaturedKind("shops"))
	assert.Equal(t, KindFood, FeaturedKind("bakeries"))
	assert.True(t, IsFeatured("ice_cream_gelato"))
	assert.False(t, IsFeatured("parks"))
}

func TestDecodeEntries(t *testing.T) {
	entries := []Entry{
		&ShopEntry{Name: "Joe's", Category: "Retail"},
		&ShopEntry{Name: "Books", Location: "2 St"},
	}
	data, err := json.Marshal(entries)
	require.NoError(t, err)

	decoded, err := DecodeEntries(KindShop, data)
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)

	_, err = DecodeEntries(Kind("nope"), data)
	assert.Error(t, err)

	_, err = DecodeEntries(KindFood, []byte("{"))
	assert.Error(t, err)
}
