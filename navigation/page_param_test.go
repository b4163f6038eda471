package navigation_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-pagecache/cache"
	"github.com/goliatone/go-pagecache/internal/demo"
	"github.com/goliatone/go-pagecache/navigation"
	"github.com/goliatone/go-pagecache/paging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePager struct {
	pageCount int
	page      int
	calls     []int
}

func (f *fakePager) GotoPage(n int) bool {
	f.calls = append(f.calls, n)
	if n < 0 || n >= f.pageCount {
		return false
	}
	f.page = n
	return true
}

func TestPageParam_InitialIndex(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{query: "", want: 0},
		{query: "page=1", want: 0},
		{query: "page=3", want: 2},
		{query: "page=%203%20", want: 2},
		{query: "page=0", want: 0},
		{query: "page=-4", want: 0},
		{query: "page=abc", want: 0},
		{query: "?page=2&sort=title", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			params, err := navigation.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, navigation.NewPageParam(params, "").InitialIndex())
		})
	}
}

func TestPageParam_CustomName(t *testing.T) {
	params, err := navigation.ParseQuery("p=4&page=9")
	require.NoError(t, err)
	assert.Equal(t, 3, navigation.NewPageParam(params, "p").InitialIndex())
}

func TestPageParam_Navigate(t *testing.T) {
	params, err := navigation.ParseQuery("page=2&sort=title")
	require.NoError(t, err)
	pp := navigation.NewPageParam(params, "")
	pager := &fakePager{pageCount: 3}

	assert.True(t, pp.Navigate(pager, 2))
	assert.Equal(t, "3", params.Get("page"))
	assert.Equal(t, "title", params.Get("sort"))
	assert.Equal(t, 2, pager.page)

	assert.False(t, pp.Navigate(pager, 5))
	assert.Equal(t, "3", params.Get("page"), "rejected navigation keeps the old value")
	assert.Equal(t, 2, pager.page)
	assert.Equal(t, []int{2, 5}, pager.calls)
}

func TestPageParam_RejectedNavigationWithoutParamLeavesItUnset(t *testing.T) {
	params, err := navigation.ParseQuery("sort=title")
	require.NoError(t, err)
	pp := navigation.NewPageParam(params, "")
	pager := &fakePager{pageCount: 2}

	assert.False(t, pp.Navigate(pager, 4))
	assert.Equal(t, "sort=title", params.Encode())
	assert.Equal(t, 0, pp.InitialIndex())
}

func TestPageParam_DrivesQuery(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewStore(cache.DefaultConfig())
	require.NoError(t, err)

	params := navigation.NewURLValues(nil)
	params.Replace("page", "2")
	pp := navigation.NewPageParam(params, "")

	coll := demo.NewCollection(demo.GenerateSeries(60))
	q, err := paging.NewQuery(store, cache.Key("series"), coll.Fetcher(),
		paging.WithPageSize[demo.Series](25),
		paging.WithInitialPage[demo.Series](pp.InitialIndex()),
		paging.WithStaleTime[demo.Series](time.Minute),
	)
	require.NoError(t, err)
	defer q.Close()

	st, err := q.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 26, st.Items()[0].ID)

	require.True(t, pp.Navigate(q, 2))
	assert.Equal(t, "page=3", params.Encode())
	assert.Equal(t, paging.Range{Start: 50, Length: 25}, q.Range())
}
