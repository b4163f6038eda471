package cache

import "testing"

func TestQueryKey_AppendDoesNotAlias(t *testing.T) {
	base := make(QueryKey, 1, 4)
	base[0] = "series"

	page := base.Append(RangeSegment, RangePage(0, 25))
	item := base.Append("42")

	if got := page.String(); got != joinWithSeparator("series", "range", "start=0,size=25") {
		t.Errorf("unexpected page key %q", got)
	}
	if got := item.String(); got != joinWithSeparator("series", "42") {
		t.Errorf("unexpected item key %q", got)
	}
	if len(base) != 1 {
		t.Errorf("base key modified: %v", base)
	}
}

func TestQueryKey_ModesProduceDistinctKeys(t *testing.T) {
	base := Key("movies")

	all := base.Append(RangeSegment, RangeAll())
	page := base.Append(RangeSegment, RangePage(0, 50))

	if all.Equal(page) {
		t.Fatalf("fetch-all and paged keys must differ: %q", all.String())
	}
	if !all.HasPrefix(base) || !page.HasPrefix(base) {
		t.Error("both mode keys should live under the collection prefix")
	}
}

func TestQueryKey_HasPrefix(t *testing.T) {
	tests := []struct {
		name   string
		key    QueryKey
		prefix QueryKey
		want   bool
	}{
		{"same key", Key("series"), Key("series"), true},
		{"child key", Key("series", 10), Key("series"), true},
		{"sibling with shared text", Key("series2", 10), Key("series"), false},
		{"longer prefix", Key("series"), Key("series", 10), false},
		{"empty prefix", Key("series"), Key(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.HasPrefix(tt.prefix); got != tt.want {
				t.Errorf("HasPrefix() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRangeMode_CacheKeyPart(t *testing.T) {
	if got := RangeAll().CacheKeyPart(); got != "all" {
		t.Errorf("RangeAll() = %q", got)
	}
	if got := RangePage(50, 25).CacheKeyPart(); got != "start=50,size=25" {
		t.Errorf("RangePage() = %q", got)
	}
}
