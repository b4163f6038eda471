package paging_test

import (
	"testing"

	"github.com/goliatone/go-pagecache/paging"
	"github.com/stretchr/testify/assert"
)

type movie struct {
	RadarrID int
	Title    string
}

type episode struct {
	Id string
}

type tagged struct {
	slug string
}

func (t tagged) CacheID() string { return "tag:" + t.slug }

func TestDefaultID(t *testing.T) {
	tests := []struct {
		name   string
		item   any
		want   string
		wantOK bool
	}{
		{name: "radarr id", item: movie{RadarrID: 7}, want: "7", wantOK: true},
		{name: "pointer", item: &movie{RadarrID: 8}, want: "8", wantOK: true},
		{name: "Id field", item: episode{Id: "e-1"}, want: "e-1", wantOK: true},
		{name: "identifier interface", item: tagged{slug: "x"}, want: "tag:x", wantOK: true},
		{name: "zero id", item: movie{Title: "untitled"}, wantOK: false},
		{name: "nil pointer", item: (*movie)(nil), wantOK: false},
		{name: "not a struct", item: 42, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := paging.DefaultID[any](tt.item)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
