package urlbuild

import (
	"net/url"
	"sort"
	"strings"
)

// queryValues is an ordered query-string mapping. Keys keep the position
// they were first seen at; replacing a value does not move the key.
//
// net/url's Values.Encode sorts keys alphabetically, which would reorder
// the caller's query string on every pass. Build promises canonical but
// order-preserving re-serialization, so the codec lives here.
type queryValues struct {
	entries []queryEntry
	index   map[string]int
}

type queryEntry struct {
	key   string
	value any // string, []string, []any, or map[string]any
}

func newQueryValues() *queryValues {
	return &queryValues{index: make(map[string]int)}
}

// parseQuery decodes a raw query string into an ordered mapping. Repeated
// keys and bracketed array-style keys (colors[0]=blue) accumulate into a
// []string value. Malformed escapes degrade to the literal text rather
// than failing.
func parseQuery(raw string) *queryValues {
	q := newQueryValues()
	if raw == "" {
		return q
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key := unescape(k)
		value := unescape(v)

		// colors[0]=blue and colors[]=blue both address the colors array.
		bracketed := false
		if i := strings.Index(key, "["); i > 0 && strings.HasSuffix(key, "]") {
			key = key[:i]
			bracketed = true
		}
		q.add(key, value, bracketed)
	}
	return q
}

// add appends value under key, promoting the entry to an array when the
// key repeats or uses array-style syntax.
func (q *queryValues) add(key, value string, forceArray bool) {
	i, ok := q.index[key]
	if !ok {
		if forceArray {
			q.set(key, []string{value})
		} else {
			q.set(key, value)
		}
		return
	}
	q.entries[i].value = append(toStrings(q.entries[i].value), value)
}

// lookup returns the value for key, if present.
func (q *queryValues) lookup(key string) (any, bool) {
	i, ok := q.index[key]
	if !ok {
		return nil, false
	}
	return q.entries[i].value, true
}

// get returns the value for key, or nil.
func (q *queryValues) get(key string) any {
	v, _ := q.lookup(key)
	return v
}

// set replaces the value for key in place, or appends a new entry.
func (q *queryValues) set(key string, value any) {
	if i, ok := q.index[key]; ok {
		q.entries[i].value = value
		return
	}
	q.index[key] = len(q.entries)
	q.entries = append(q.entries, queryEntry{key: key, value: value})
}

// delete removes key and its value.
func (q *queryValues) delete(key string) {
	i, ok := q.index[key]
	if !ok {
		return
	}
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	delete(q.index, key)
	for j := i; j < len(q.entries); j++ {
		q.index[q.entries[j].key] = j
	}
}

func (q *queryValues) len() int {
	return len(q.entries)
}

// encode serializes the mapping. Sequence values emit repeated keys
// (colors=red&colors=blue); map values emit bracketed sub-keys with the
// sub-keys sorted so the output is deterministic.
func (q *queryValues) encode() string {
	var b strings.Builder
	for _, e := range q.entries {
		switch v := e.value.(type) {
		case []string:
			for _, item := range v {
				appendPair(&b, escape(e.key), escape(item))
			}
		case []any:
			for _, item := range v {
				appendPair(&b, escape(e.key), escape(stringify(item)))
			}
		case map[string]any:
			subs := make([]string, 0, len(v))
			for sub := range v {
				subs = append(subs, sub)
			}
			sort.Strings(subs)
			for _, sub := range subs {
				appendPair(&b, escape(e.key)+"%5B"+escape(sub)+"%5D", escape(stringify(v[sub])))
			}
		default:
			appendPair(&b, escape(e.key), escape(stringify(v)))
		}
	}
	return b.String()
}

func appendPair(b *strings.Builder, key, value string) {
	if b.Len() > 0 {
		b.WriteByte('&')
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
}

// escape percent-encodes a query component, using %20 for spaces.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// unescape decodes a query component, returning the input untouched when
// the escapes are malformed.
func unescape(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}
