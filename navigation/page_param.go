package navigation

import (
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// DefaultParam is the query parameter that carries the page number.
const DefaultParam = "page"

// ParamStore is the boundary state a page number is mirrored into, usually
// the query string of the current location.
type ParamStore interface {
	Get(name string) string
	// Replace sets name without creating a new history entry.
	Replace(name, value string)
	Delete(name string)
}

// Pager is the part of paging.Query the adapter drives.
type Pager interface {
	GotoPage(n int) bool
}

// URLValues adapts url.Values to ParamStore.
type URLValues struct {
	mu     sync.Mutex
	values url.Values
}

// NewURLValues wraps v. A nil v starts empty.
func NewURLValues(v url.Values) *URLValues {
	if v == nil {
		v = url.Values{}
	}
	return &URLValues{values: v}
}

// ParseQuery builds a URLValues from a raw query string.
func ParseQuery(raw string) (*URLValues, error) {
	v, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, err
	}
	return NewURLValues(v), nil
}

func (u *URLValues) Get(name string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.values.Get(name)
}

func (u *URLValues) Replace(name, value string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.values.Set(name, value)
}

func (u *URLValues) Delete(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.values.Del(name)
}

// Encode returns the values in URL encoded form.
func (u *URLValues) Encode() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.values.Encode()
}

// PageParam mirrors the engine page index into a 1-based parameter. It reads
// the parameter once when a view mounts and only writes it on navigation;
// the engine never reads it back.
type PageParam struct {
	params ParamStore
	name   string
}

// NewPageParam creates an adapter for params. An empty name uses DefaultParam.
func NewPageParam(params ParamStore, name string) *PageParam {
	if name == "" {
		name = DefaultParam
	}
	return &PageParam{params: params, name: name}
}

// InitialIndex returns the 0-based page index encoded in the parameter.
// Missing, malformed or non positive values map to 0.
func (p *PageParam) InitialIndex() int {
	n, err := strconv.Atoi(strings.TrimSpace(p.params.Get(p.name)))
	if err != nil || n < 1 {
		return 0
	}
	return n - 1
}

// Navigate writes page+1 to the parameter and moves pager to page. When
// the pager rejects the target the previous parameter value is restored,
// or the parameter removed when it was unset.
func (p *PageParam) Navigate(pager Pager, page int) bool {
	prev := p.params.Get(p.name)
	p.params.Replace(p.name, strconv.Itoa(page+1))

	if pager.GotoPage(page) {
		return true
	}
	if prev == "" {
		p.params.Delete(p.name)
	} else {
		p.params.Replace(p.name, prev)
	}
	return false
}
