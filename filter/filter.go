package filter

import (
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Predicate reports whether an item is kept. Predicates must be pure.
type Predicate[T any] func(item T) bool

// TextFunc extracts the text a predicate matches against.
type TextFunc[T any] func(item T) string

// CodesFunc extracts the codes (for example audio language code2 values)
// of an item.
type CodesFunc[T any] func(item T) []string

// fold case-folds s. It builds a new Caser per call since a Caser is not
// safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

// TitleContains keeps items whose text contains query, ignoring case.
// An empty query yields nil.
func TitleContains[T any](query string, text TextFunc[T]) Predicate[T] {
	query = strings.TrimSpace(query)
	if query == "" || text == nil {
		return nil
	}

	needle := fold(query)
	return func(item T) bool {
		return strings.Contains(fold(text(item)), needle)
	}
}

// FuzzyTitle keeps items whose text contains the characters of query in
// order, ignoring case and diacritics. An empty query yields nil.
func FuzzyTitle[T any](query string, text TextFunc[T]) Predicate[T] {
	query = strings.TrimSpace(query)
	if query == "" || text == nil {
		return nil
	}

	return func(item T) bool {
		return fuzzy.MatchNormalizedFold(query, text(item))
	}
}

// IncludeAny keeps items that have at least one of values. No values yields nil.
func IncludeAny[T any](values []string, codes CodesFunc[T]) Predicate[T] {
	if len(values) == 0 || codes == nil {
		return nil
	}

	wanted := toSet(values)
	return func(item T) bool {
		return hasAny(codes(item), wanted)
	}
}

// ExcludeAny drops items that have any of values. No values yields nil.
func ExcludeAny[T any](values []string, codes CodesFunc[T]) Predicate[T] {
	if len(values) == 0 || codes == nil {
		return nil
	}

	unwanted := toSet(values)
	return func(item T) bool {
		return !hasAny(codes(item), unwanted)
	}
}

// Missing keeps items whose codes contain value, used for "missing subtitle
// in language X" style filters. An empty value yields nil.
func Missing[T any](value string, missing CodesFunc[T]) Predicate[T] {
	if value == "" || missing == nil {
		return nil
	}

	return func(item T) bool {
		return slices.Contains(missing(item), value)
	}
}

// And keeps items accepted by every non-nil predicate.
func And[T any](preds ...Predicate[T]) Predicate[T] {
	active := compact(preds)
	return func(item T) bool {
		for _, p := range active {
			if !p(item) {
				return false
			}
		}
		return true
	}
}

// Active combines the non-nil predicates with And. It returns nil when none
// is set so callers can skip filtering entirely.
func Active[T any](preds ...Predicate[T]) Predicate[T] {
	active := compact(preds)
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	default:
		return And(active...)
	}
}

// Count returns how many predicates are set.
func Count[T any](preds ...Predicate[T]) int {
	return len(compact(preds))
}

// Apply returns the items accepted by pred, preserving order. items is never
// modified. A nil pred returns items as is.
func Apply[T any](items []T, pred Predicate[T]) []T {
	if pred == nil {
		return items
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Option is a selectable value with a display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Language is a code with a display name.
type Language struct {
	Code string
	Name string
}

// LanguageOptions collects the unique language codes found in items. The
// first name seen for a code wins. Options are sorted by case folded label.
func LanguageOptions[T any](items []T, langs func(item T) []Language) []Option {
	if langs == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var opts []Option
	for _, item := range items {
		for _, l := range langs(item) {
			if l.Code == "" {
				continue
			}
			if _, ok := seen[l.Code]; ok {
				continue
			}
			seen[l.Code] = struct{}{}
			opts = append(opts, Option{Value: l.Code, Label: displayName(l)})
		}
	}

	sort.SliceStable(opts, func(i, j int) bool {
		return fold(opts[i].Label) < fold(opts[j].Label)
	})
	return opts
}

func displayName(l Language) string {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return l.Code
	}
	return cases.Title(language.English).String(name)
}

func compact[T any](preds []Predicate[T]) []Predicate[T] {
	out := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func hasAny(codes []string, set map[string]struct{}) bool {
	for _, c := range codes {
		if _, ok := set[c]; ok {
			return true
		}
	}
	return false
}
