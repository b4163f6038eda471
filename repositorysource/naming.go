package repositorysource

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/goliatone/go-pagecache/cache"
)

// ErrUnsupported is returned when the wrapped repository lacks an operation.
var ErrUnsupported = errors.New("repositorysource: operation not supported by repository")

// CollectionName derives a snake_case collection name from T, ignoring
// pointers, package paths and generic arguments.
func CollectionName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice {
		t = t.Elem()
	}

	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return toSnake(name)
}

// CollectionKey is the cache key prefix for a collection of T.
func CollectionKey[T any]() cache.QueryKey {
	return cache.Key(CollectionName[T]())
}

// toSnake lowercases s and separates words with underscores. Anything that
// is not a letter or digit becomes a separator, keeping the result safe as a
// key segment.
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	pending := false
	write := func(r rune) {
		if pending && b.Len() > 0 {
			b.WriteByte('_')
		}
		pending = false
		b.WriteRune(r)
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					pending = true
				}
			}
			write(unicode.ToLower(r))
		case unicode.IsLower(r):
			write(r)
		case unicode.IsDigit(r):
			if i > 0 && unicode.IsLetter(runes[i-1]) {
				pending = true
			}
			write(r)
		default:
			pending = true
		}
	}

	return b.String()
}
