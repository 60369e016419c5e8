package postgrest

import (
	"net/url"
	"sort"
	"strings"
)

// Query builds the filter, ordering and projection part of a PostgREST
// request. The zero value selects every column with no filter.
type Query struct {
	filters [][2]string
	order   string
	columns string
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{}
}

// Eq adds an exact-match filter: column=eq.value.
func (q *Query) Eq(column, value string) *Query {
	q.filters = append(q.filters, [2]string{column, "eq." + value})
	return q
}

// Order sorts by column, descending when desc is true.
func (q *Query) Order(column string, desc bool) *Query {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	q.order = column + "." + dir
	return q
}

// Select restricts the returned columns.
func (q *Query) Select(columns ...string) *Query {
	q.columns = strings.Join(columns, ",")
	return q
}

// HasFilter reports whether at least one filter is set. PostgREST refuses
// unfiltered PATCH and DELETE, so callers check this first.
func (q *Query) HasFilter() bool {
	return q != nil && len(q.filters) > 0
}

// Encode renders the query string without the leading '?'.
func (q *Query) Encode() string {
	if q == nil {
		return ""
	}
	v := url.Values{}
	for _, f := range q.filters {
		v.Add(f[0], f[1])
	}
	if q.order != "" {
		v.Set("order", q.order)
	}
	if q.columns != "" {
		v.Set("select", q.columns)
	}

	// url.Values.Encode escapes '*' and ','; PostgREST accepts both forms
	// but the literal ones keep logs readable.
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, val := range v[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(escapeValue(val))
		}
	}
	return b.String()
}

func escapeValue(s string) string {
	esc := url.QueryEscape(s)
	esc = strings.ReplaceAll(esc, "%2A", "*")
	esc = strings.ReplaceAll(esc, "%2C", ",")
	return esc
}
