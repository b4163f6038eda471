package paging

import (
	"fmt"
	"reflect"
)

// Identifier is implemented by items that know their own cache identity.
type Identifier interface {
	CacheID() string
}

// IDFunc extracts the identity of an item. It reports false when the item
// has none, in which case it is not written through.
type IDFunc[T any] func(item T) (string, bool)

var idFieldNames = []string{"ID", "Id", "SonarrSeriesID", "SonarrEpisodeID", "RadarrID"}

// DefaultID uses Identifier when implemented and otherwise looks for a
// common ID field. Zero values do not count as an identity.
func DefaultID[T any](item T) (string, bool) {
	if identified, ok := any(item).(Identifier); ok {
		id := identified.CacheID()
		return id, id != ""
	}

	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", false
	}

	for _, name := range idFieldNames {
		field := v.FieldByName(name)
		if !field.IsValid() || !field.CanInterface() || field.IsZero() {
			continue
		}
		return fmt.Sprintf("%v", field.Interface()), true
	}
	return "", false
}
