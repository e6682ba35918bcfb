package store

import (
	"encoding/json"
	"strings"
)

// DocumentSet is the in-memory image of one collection file. Record order is
// insertion order.
type DocumentSet[T any] struct {
	Records []T

	// other top-level fields of the file, written back untouched
	extra map[string]json.RawMessage
}

func newDocumentSet[T any]() *DocumentSet[T] {
	return &DocumentSet[T]{Records: []T{}, extra: map[string]json.RawMessage{}}
}

// Len returns the number of records
func (s *DocumentSet[T]) Len() int { return len(s.Records) }

// Find returns the index and address of the first record matching pred,
// or -1 and nil.
func (s *DocumentSet[T]) Find(pred func(*T) bool) (int, *T) {
	for i := range s.Records {
		if pred(&s.Records[i]) {
			return i, &s.Records[i]
		}
	}
	return -1, nil
}

// FindByKey matches key(record) against value after trimming both sides.
func (s *DocumentSet[T]) FindByKey(key func(*T) string, value string, caseInsensitive bool) (int, *T) {
	return s.Find(KeyEquals(key, value, caseInsensitive))
}

// Upsert returns the first record matching pred, appending factory() when
// none does. The returned pointer is valid until the next append.
func (s *DocumentSet[T]) Upsert(pred func(*T) bool, factory func() T) (int, *T, bool) {
	if i, rec := s.Find(pred); rec != nil {
		return i, rec, false
	}
	s.Records = append(s.Records, factory())
	i := len(s.Records) - 1
	return i, &s.Records[i], true
}

// Append adds a record at the end
func (s *DocumentSet[T]) Append(rec T) {
	s.Records = append(s.Records, rec)
}

// Filter returns copies of every record matching pred, in order.
func (s *DocumentSet[T]) Filter(pred func(*T) bool) []T {
	out := make([]T, 0)
	for i := range s.Records {
		if pred(&s.Records[i]) {
			out = append(out, s.Records[i])
		}
	}
	return out
}

// KeyEquals builds a predicate comparing a string key field.
func KeyEquals[T any](key func(*T) string, value string, caseInsensitive bool) func(*T) bool {
	want := strings.TrimSpace(value)
	if caseInsensitive {
		want = strings.ToLower(want)
	}
	return func(rec *T) bool {
		if want == "" {
			return false
		}
		got := strings.TrimSpace(key(rec))
		if caseInsensitive {
			got = strings.ToLower(got)
		}
		return got == want
	}
}
