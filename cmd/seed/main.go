package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/anangai/civic-portal-backend/config"
	"github.com/anangai/civic-portal-backend/internal/cache"
	"github.com/anangai/civic-portal-backend/internal/catalog"
	"github.com/anangai/civic-portal-backend/pkg/redis"
	"github.com/xuri/excelize/v2"
)

// seed appends spreadsheet rows to a category file:
//
//	go run cmd/seed/main.go <xlsx_file_path> <category_id>
//
// The first row holds column headers named after the block labels.
func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path> <category_id>")
	}
	filePath, categoryID := os.Args[1], os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	registry := catalog.NewRegistry(cfg.Data.FoodDir, cfg.Data.PlacesDir, cfg.Data.EventsDir)
	category, err := registry.Lookup(categoryID)
	if err != nil {
		log.Fatal("Unknown category:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	entries, err := readEntriesFromXLSX(filePath, category.Kind)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total entries to import into %s: %d\n", category.File, len(entries))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	added, err := importEntries(registry, category, entries)
	if err != nil {
		log.Fatal("Failed to import entries:", err)
	}

	if cfg.Redis.Addr != "" {
		invalidate(cfg, category.ID)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total entries imported: %d\n", added)
}

func readEntriesFromXLSX(filePath string, kind catalog.Kind) ([]catalog.Entry, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	headers := rows[0]
	fmt.Printf("Headers: %v\n", headers)

	var entries []catalog.Entry
	seen := make(map[string]bool)
	skippedCount := 0

	for _, row := range rows[1:] {
		columns := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				columns[h] = row[i]
			}
		}

		e, err := catalog.EntryFromColumns(kind, columns)
		if err != nil {
			skippedCount++
			continue
		}

		key := strings.ToLower(e.EntryName())
		if seen[key] {
			skippedCount++
			continue
		}
		seen[key] = true
		entries = append(entries, e)
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid entries: %d\n", len(entries))
	fmt.Printf("  Skipped rows: %d\n", skippedCount)

	return entries, nil
}

// importEntries appends entries whose name is not already in the category
// file. The file must exist.
func importEntries(registry *catalog.Registry, category catalog.Category, entries []catalog.Entry) (int, error) {
	if _, err := os.Stat(category.Path); err != nil {
		return 0, fmt.Errorf("category file %s: %w", category.Path, err)
	}

	existing, err := registry.Entries(category)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, e := range existing {
		known[strings.ToLower(e.EntryName())] = true
	}

	added := 0
	for _, e := range entries {
		if known[strings.ToLower(e.EntryName())] {
			continue
		}
		block, err := catalog.ExportEntry(e)
		if err != nil {
			return added, err
		}
		if _, err := registry.AppendEntry(category.Path, block); err != nil {
			return added, err
		}
		known[strings.ToLower(e.EntryName())] = true
		added++
	}
	return added, nil
}

// invalidate drops the cached listing so the server rereads the file.
func invalidate(cfg *config.Config, categoryID string) {
	ctx := context.Background()
	client, err := redis.Connect(ctx, &cfg.Redis)
	if err != nil {
		fmt.Printf("Warning: cache not invalidated: %v\n", err)
		return
	}
	defer redis.Close(client)

	if err := cache.NewRedisCache(client, cache.DiscoveryPrefix, cfg.Redis.TTL).Delete(ctx, categoryID); err != nil {
		fmt.Printf("Warning: cache not invalidated: %v\n", err)
	}
}
