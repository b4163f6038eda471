package cache

import (
	"fmt"

	"github.com/goliatone/go-pagecache/internal/cacheinfra"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = cacheinfra.KeySeparator

// RangeSegment precedes the range mode part of a paginated query key.
const RangeSegment = "range"

// KeyPart lets a key component control its own serialized form.
type KeyPart interface {
	CacheKeyPart() string
}

// QueryKey is an ordered tuple identifying a cached query. A collection is
// identified by a prefix of parts; more specific queries extend it.
type QueryKey []any

var defaultSerializer = NewDefaultKeySerializer()

// Key builds a QueryKey from parts.
func Key(parts ...any) QueryKey {
	return append(QueryKey(nil), parts...)
}

// Append returns a new key extending k with parts. k is never modified.
func (k QueryKey) Append(parts ...any) QueryKey {
	out := make(QueryKey, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}

// String serializes the key with the default serializer.
func (k QueryKey) String() string {
	return defaultSerializer.SerializeKey(k...)
}

// HasPrefix reports whether prefix identifies k or one of its ancestors.
func (k QueryKey) HasPrefix(prefix QueryKey) bool {
	return cacheinfra.HasSegmentPrefix(k.String(), prefix.String())
}

// Equal reports whether both keys serialize to the same string.
func (k QueryKey) Equal(other QueryKey) bool {
	return k.String() == other.String()
}

// RangeMode is the last part of a paginated query key. Fetch-all and paged
// requests for the same collection never share a key.
type RangeMode struct {
	All   bool
	Start int
	Size  int
}

// RangeAll identifies a whole-collection request.
func RangeAll() RangeMode {
	return RangeMode{All: true}
}

// RangePage identifies a single page request.
func RangePage(start, size int) RangeMode {
	return RangeMode{Start: start, Size: size}
}

// CacheKeyPart implements KeyPart.
func (m RangeMode) CacheKeyPart() string {
	if m.All {
		return "all"
	}
	return fmt.Sprintf("start=%d,size=%d", m.Start, m.Size)
}
