package catalog

import (
	"encoding/json"
	"fmt"
)

// Kind selects the text shape of a category file
type Kind string

const (
	KindFood  Kind = "food"
	KindShop  Kind = "shop"
	KindPlace Kind = "place"
	KindEvent Kind = "event"
)

// Entry is one listing parsed from or written to a category file.
// Implementations: *FoodEntry, *ShopEntry, *PlaceEntry, *EventEntry.
type Entry interface {
	Kind() Kind
	EntryName() string
	sealed()
}

// FoodEntry is a restaurant, bakery, café, pub or gelato listing.
type FoodEntry struct {
	Name           string `json:"name"`
	Location       string `json:"location"`
	Hours          string `json:"hours"`
	LocalSourcing  string `json:"local_sourcing"`
	VegVegan       string `json:"veg_vegan"`
	GreenPlateCert string `json:"green_plate_cert"` // empty when not certified
	Notes          string `json:"notes"`
}

// ShopEntry is a retail listing from shops.txt
type ShopEntry struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Hours    string `json:"hours"`
	Info     string `json:"info"`
	Category string `json:"category"`
}

// PlaceEntry is a curated point of interest
type PlaceEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Address     string `json:"address"`
	Description string `json:"description"`
	Hours       string `json:"hours"`
	Website     string `json:"website"`
}

// EventEntry is one line of the events file
type EventEntry struct {
	Name            string `json:"name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	LocationName    string `json:"location_name"`
	LocationAddress string `json:"location_address"`
	MapsURL         string `json:"maps_url"`
}

func (*FoodEntry) Kind() Kind  { return KindFood }
func (*ShopEntry) Kind() Kind  { return KindShop }
func (*PlaceEntry) Kind() Kind { return KindPlace }
func (*EventEntry) Kind() Kind { return KindEvent }

func (e *FoodEntry) EntryName() string  { return e.Name }
func (e *ShopEntry) EntryName() string  { return e.Name }
func (e *PlaceEntry) EntryName() string { return e.Name }
func (e *EventEntry) EntryName() string { return e.Name }

func (*FoodEntry) sealed()  {}
func (*ShopEntry) sealed()  {}
func (*PlaceEntry) sealed() {}
func (*EventEntry) sealed() {}

// DecodeEntries reads a JSON array of entries of one kind, as produced by
// marshaling the result of Registry.Entries.
func DecodeEntries(kind Kind, data []byte) ([]Entry, error) {
	switch kind {
	case KindFood:
		return decodeAs[FoodEntry](data)
	case KindShop:
		return decodeAs[ShopEntry](data)
	case KindPlace:
		return decodeAs[PlaceEntry](data)
	case KindEvent:
		return decodeAs[EventEntry](data)
	default:
		return nil, fmt.Errorf("unknown entry kind %q", kind)
	}
}

func decodeAs[T any, P interface {
	*T
	Entry
}](data []byte) ([]Entry, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	out := make([]Entry, len(items))
	for i := range items {
		out[i] = P(&items[i])
	}
	return out, nil
}
