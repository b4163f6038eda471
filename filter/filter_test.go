package filter_test

import (
	"testing"

	"github.com/goliatone/go-pagecache/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type show struct {
	title   string
	audio   []filter.Language
	missing []string
}

func title(s show) string { return s.title }

func audioCodes(s show) []string {
	out := make([]string, 0, len(s.audio))
	for _, l := range s.audio {
		out = append(out, l.Code)
	}
	return out
}

func missingSubs(s show) []string { return s.missing }

var (
	english  = filter.Language{Code: "en", Name: "English"}
	french   = filter.Language{Code: "fr", Name: "french"}
	japanese = filter.Language{Code: "ja", Name: "Japanese"}
)

func shows() []show {
	return []show{
		{title: "The Office", audio: []filter.Language{english}, missing: []string{"fr"}},
		{title: "Amélie", audio: []filter.Language{french}},
		{title: "Spirited Away", audio: []filter.Language{japanese, english}, missing: []string{"en"}},
		{title: "Unknown", audio: nil},
	}
}

func titles(items []show) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, s.title)
	}
	return out
}

func TestTitleContains(t *testing.T) {
	assert.Nil(t, filter.TitleContains("  ", title))

	pred := filter.TitleContains("OFF", title)
	require.NotNil(t, pred)
	assert.Equal(t, []string{"The Office"}, titles(filter.Apply(shows(), pred)))
}

func TestFuzzyTitle(t *testing.T) {
	assert.Nil(t, filter.FuzzyTitle("", title))

	tests := []struct {
		query string
		want  []string
	}{
		{query: "amelie", want: []string{"Amélie"}},
		{query: "spway", want: []string{"Spirited Away"}},
		{query: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := filter.Apply(shows(), filter.FuzzyTitle(tt.query, title))
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestIncludeExclude(t *testing.T) {
	assert.Nil(t, filter.IncludeAny(nil, audioCodes))
	assert.Nil(t, filter.ExcludeAny([]string{}, audioCodes))

	include := filter.IncludeAny([]string{"en", "de"}, audioCodes)
	assert.Equal(t, []string{"The Office", "Spirited Away"}, titles(filter.Apply(shows(), include)))

	exclude := filter.ExcludeAny([]string{"en"}, audioCodes)
	assert.Equal(t, []string{"Amélie", "Unknown"}, titles(filter.Apply(shows(), exclude)))
}

func TestMissing(t *testing.T) {
	assert.Nil(t, filter.Missing("", missingSubs))

	pred := filter.Missing("fr", missingSubs)
	assert.Equal(t, []string{"The Office"}, titles(filter.Apply(shows(), pred)))
}

func TestActive(t *testing.T) {
	t.Run("no predicates", func(t *testing.T) {
		pred := filter.Active(
			filter.TitleContains("", title),
			filter.IncludeAny(nil, audioCodes),
		)
		assert.Nil(t, pred)
		assert.Len(t, filter.Apply(shows(), pred), 4)
	})

	t.Run("combined", func(t *testing.T) {
		preds := []filter.Predicate[show]{
			filter.TitleContains("a", title),
			filter.IncludeAny([]string{"en"}, audioCodes),
			filter.ExcludeAny([]string{"ja"}, audioCodes),
			nil,
		}
		assert.Equal(t, 3, filter.Count(preds...))

		got := filter.Apply(shows(), filter.Active(preds...))
		assert.Empty(t, got)

		got = filter.Apply(shows(), filter.Active(preds[1:]...))
		assert.Equal(t, []string{"The Office"}, titles(got))
	})
}

func TestAnd_EmptyKeepsEverything(t *testing.T) {
	assert.True(t, filter.And[show]()(show{}))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	items := shows()
	before := titles(items)

	_ = filter.Apply(items, filter.TitleContains("office", title))
	assert.Equal(t, before, titles(items))
}

func TestLanguageOptions(t *testing.T) {
	items := shows()
	items = append(items, show{title: "Dup", audio: []filter.Language{{Code: "en", Name: "Anglais"}, {Code: "", Name: "none"}}})

	opts := filter.LanguageOptions(items, func(s show) []filter.Language { return s.audio })
	assert.Equal(t, []filter.Option{
		{Value: "en", Label: "English"},
		{Value: "fr", Label: "French"},
		{Value: "ja", Label: "Japanese"},
	}, opts)
}
