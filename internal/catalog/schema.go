package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingName means an entry has no display name and cannot be written.
var ErrMissingName = errors.New("entry has no name")

const (
	shopTerminator = "---"
	eventSeparator = " | "
	eventFields    = 6
	nullValue      = "null"
)

// labeled binds a line label ("Business Name") to the entry field it carries.
type labeled[T any] struct {
	Label string
	Field func(*T) *string
}

// blockSchema is the ordered label table of a block-shaped category. The
// first label carries the entry name. Writer and parser both read this table.
type blockSchema[T any] struct {
	Labels     []labeled[T]
	Terminator string
}

var foodSchema = blockSchema[FoodEntry]{
	Labels: []labeled[FoodEntry]{
		{"Business Name", func(e *FoodEntry) *string { return &e.Name }},
		{"Location", func(e *FoodEntry) *string { return &e.Location }},
		{"Hours", func(e *FoodEntry) *string { return &e.Hours }},
		{"Local Sourcing", func(e *FoodEntry) *string { return &e.LocalSourcing }},
		{"Veg/Vegan Options", func(e *FoodEntry) *string { return &e.VegVegan }},
		{"Green Plate Certification", func(e *FoodEntry) *string { return &e.GreenPlateCert }},
		{"Notes", func(e *FoodEntry) *string { return &e.Notes }},
	},
}

var shopSchema = blockSchema[ShopEntry]{
	Labels: []labeled[ShopEntry]{
		{"Store Name", func(e *ShopEntry) *string { return &e.Name }},
		{"Location", func(e *ShopEntry) *string { return &e.Location }},
		{"Hours of Operation", func(e *ShopEntry) *string { return &e.Hours }},
		{"Info", func(e *ShopEntry) *string { return &e.Info }},
		{"Category", func(e *ShopEntry) *string { return &e.Category }},
	},
	Terminator: shopTerminator,
}

var placeSchema = blockSchema[PlaceEntry]{
	Labels: []labeled[PlaceEntry]{
		{"Name", func(e *PlaceEntry) *string { return &e.Name }},
		{"Type", func(e *PlaceEntry) *string { return &e.Type }},
		{"Address", func(e *PlaceEntry) *string { return &e.Address }},
		{"Description", func(e *PlaceEntry) *string { return &e.Description }},
		{"Hours", func(e *PlaceEntry) *string { return &e.Hours }},
		{"Website", func(e *PlaceEntry) *string { return &e.Website }},
	},
}

// eventHeaders names the event columns for tabular imports.
var eventHeaders = []string{"Name", "Start Date", "End Date", "Location Name", "Location Address", "Maps URL"}

var eventColumns = []func(*EventEntry) *string{
	func(e *EventEntry) *string { return &e.Name },
	func(e *EventEntry) *string { return &e.StartDate },
	func(e *EventEntry) *string { return &e.EndDate },
	func(e *EventEntry) *string { return &e.LocationName },
	func(e *EventEntry) *string { return &e.LocationAddress },
	func(e *EventEntry) *string { return &e.MapsURL },
}

// nameLabel is the line prefix that opens an entry of this shape.
func (s blockSchema[T]) nameLabel() string {
	return s.Labels[0].Label + ":"
}

// format renders e as a block that starts on a fresh line. Blocks carry no
// trailing newline; the next block's leading newline separates them.
func (s blockSchema[T]) format(e *T, fill func(label, value string) string) (string, error) {
	if singleLine(*s.Labels[0].Field(e)) == "" {
		return "", ErrMissingName
	}
	lines := make([]string, 0, len(s.Labels)+2)
	lines = append(lines, "")
	for _, l := range s.Labels {
		value := singleLine(*l.Field(e))
		if fill != nil {
			value = fill(l.Label, value)
		}
		lines = append(lines, l.Label+": "+value)
	}
	if s.Terminator != "" {
		lines = append(lines, s.Terminator)
	}
	return strings.Join(lines, "\n"), nil
}

// parse reads labeled lines back into an entry. The first occurrence of a
// label wins; unknown lines are ignored.
func (s blockSchema[T]) parse(block string) (*T, bool) {
	var e T
	seen := make(map[string]bool, len(s.Labels))
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		for _, l := range s.Labels {
			prefix := l.Label + ":"
			if seen[prefix] || !strings.HasPrefix(line, prefix) {
				continue
			}
			*l.Field(&e) = strings.TrimSpace(strings.TrimPrefix(line, prefix))
			seen[prefix] = true
			break
		}
	}
	if *s.Labels[0].Field(&e) == "" {
		return nil, false
	}
	return &e, true
}

// fromColumns sets each labeled field from columns, keyed by lower-cased label.
func (s blockSchema[T]) fromColumns(columns map[string]string) *T {
	var e T
	for _, l := range s.Labels {
		*l.Field(&e) = singleLine(columns[strings.ToLower(l.Label)])
	}
	return &e
}

func foodFill(label, value string) string {
	if label == "Green Plate Certification" && value == "" {
		return nullValue
	}
	return value
}

func formatEvent(e *EventEntry) (string, error) {
	if singleLine(e.Name) == "" {
		return "", ErrMissingName
	}
	cols := make([]string, len(eventColumns))
	for i, col := range eventColumns {
		v := singleLine(*col(e))
		if i < len(eventColumns)-1 {
			v = strings.ReplaceAll(v, "|", "/")
		}
		cols[i] = v
	}
	return strings.Join(cols, eventSeparator) + "\n", nil
}

func parseEvent(line string) (*EventEntry, bool) {
	if !strings.Contains(line, "|") {
		return nil, false
	}
	var e EventEntry
	parts := strings.SplitN(strings.TrimSpace(line), "|", eventFields)
	for i, p := range parts {
		*eventColumns[i](&e) = strings.TrimSpace(p)
	}
	if e.Name == "" {
		return nil, false
	}
	return &e, true
}

// ExportEntry renders the text block for an entry in its category's shape.
func ExportEntry(e Entry) (string, error) {
	switch v := e.(type) {
	case *FoodEntry:
		return foodSchema.format(v, foodFill)
	case *ShopEntry:
		return shopSchema.format(v, nil)
	case *PlaceEntry:
		return placeSchema.format(v, nil)
	case *EventEntry:
		return formatEvent(v)
	default:
		return "", fmt.Errorf("unsupported entry type %T", e)
	}
}

// ParseEntry reads one block produced by SplitEntries. It reports false when
// the block has no recoverable name.
func ParseEntry(kind Kind, block string) (Entry, bool) {
	switch kind {
	case KindFood:
		e, ok := foodSchema.parse(block)
		if !ok {
			return nil, false
		}
		if strings.EqualFold(e.GreenPlateCert, nullValue) || e.GreenPlateCert == "None" {
			e.GreenPlateCert = ""
		}
		return e, true
	case KindShop:
		e, ok := shopSchema.parse(block)
		if !ok {
			return nil, false
		}
		return e, true
	case KindPlace:
		e, ok := placeSchema.parse(block)
		if !ok {
			return nil, false
		}
		return e, true
	case KindEvent:
		e, ok := parseEvent(block)
		if !ok {
			return nil, false
		}
		return e, true
	default:
		return nil, false
	}
}

// EntryFromColumns builds an entry of kind from a spreadsheet row keyed by
// column header. Headers match the block labels ("Business Name", "Store
// Name", ...) case-insensitively; events use eventHeaders. Unknown columns are
// ignored.
func EntryFromColumns(kind Kind, row map[string]string) (Entry, error) {
	columns := make(map[string]string, len(row))
	for k, v := range row {
		columns[strings.ToLower(strings.TrimSpace(k))] = v
	}

	var e Entry
	switch kind {
	case KindFood:
		e = foodSchema.fromColumns(columns)
	case KindShop:
		e = shopSchema.fromColumns(columns)
	case KindPlace:
		e = placeSchema.fromColumns(columns)
	case KindEvent:
		ev := &EventEntry{}
		for i, h := range eventHeaders {
			*eventColumns[i](ev) = singleLine(columns[strings.ToLower(h)])
		}
		e = ev
	default:
		return nil, fmt.Errorf("unsupported kind %q", kind)
	}
	if e.EntryName() == "" {
		return nil, ErrMissingName
	}
	return e, nil
}

// SplitEntries cuts a category file into entry blocks:
// food blocks open on a "Business Name:" line, shop blocks close on "---",
// place blocks are separated by blank lines, events are one per line.
func SplitEntries(kind Kind, content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	switch kind {
	case KindFood:
		return splitOnOpener(content, foodSchema.nameLabel())
	case KindShop:
		return splitOnTerminator(content, shopTerminator)
	case KindPlace:
		return splitOnBlankLines(content)
	case KindEvent:
		return splitLines(content)
	default:
		return nil
	}
}

func splitOnOpener(content, opener string) []string {
	var blocks []string
	var cur []string
	open := false
	flush := func() {
		if open {
			if b := strings.TrimSpace(strings.Join(cur, "\n")); b != "" {
				blocks = append(blocks, b)
			}
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), opener) {
			flush()
			open = true
		}
		if open {
			cur = append(cur, line)
		}
	}
	flush()
	return blocks
}

func splitOnTerminator(content, terminator string) []string {
	var blocks []string
	var cur []string
	flush := func() {
		if b := strings.TrimSpace(strings.Join(cur, "\n")); b != "" {
			blocks = append(blocks, b)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == terminator {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return blocks
}

func splitOnBlankLines(content string) []string {
	var blocks []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, "\n"))
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, strings.TrimSpace(line))
	}
	flush()
	return blocks
}

func splitLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" && strings.Contains(line, "|") {
			out = append(out, line)
		}
	}
	return out
}

// singleLine keeps a field value on one line so it cannot break the block.
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
