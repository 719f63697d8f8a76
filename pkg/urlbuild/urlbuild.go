// Package urlbuild constructs URLs from a base URL and layered override
// parameters.
//
// Build reconciles four concerns in one pass: fragment preservation,
// ordered path-segment extraction ("pretty URLs"), multi-object override
// precedence, and set-algebra edits to array-valued query parameters.
//
// Example:
//
//	urlbuild.Build("/events", []string{"category"}, urlbuild.Params{"category": "music"})
//	// "/events/music"
//
//	urlbuild.Build("/colors?colors=red", nil, urlbuild.Params{"colors": urlbuild.AddToSet{Value: "blue"}})
//	// "/colors?colors=red&colors=blue"
package urlbuild

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

// Params is one override object: a mapping from parameter name to value.
//
// Recognized value kinds:
//   - scalars (string, integer, float, bool): set the parameter
//   - nil or "": remove the parameter
//   - AddToSet / Pull: set-algebra edit of an array-valued parameter
//   - any other value (slice, map): opaque, never placed in the path
type Params map[string]any

// AddToSet adds Value to the parameter's array value if not already present.
type AddToSet struct {
	Value any
}

// Pull removes Value from the parameter's array value. If the result is
// empty the parameter is deleted.
type Pull struct {
	Value any
}

// Build returns a new URL whose path and query string reflect the override
// objects applied to rawurl.
//
// pathKeys names parameters that are appended as literal path segments
// instead of query parameters, in order. Path-key processing is
// prefix-greedy: the first key that resolves to an empty value, a
// non-scalar value, or a value that is not slug-safe halts all further
// path placement.
//
// Override objects are consulted last-argument-first; the query string
// already present on rawurl has the lowest precedence. Set-algebra
// directives fold cumulatively from the original query upward.
//
// A fragment on rawurl is preserved verbatim and always appears last.
// With no pathKeys and no overrides, rawurl is returned unchanged.
//
// Build is pure and safe for concurrent use.
func Build(rawurl string, pathKeys []string, overrides ...Params) string {
	if len(pathKeys) == 0 && len(overrides) == 0 {
		return rawurl
	}

	base, fragment, hasFragment := strings.Cut(rawurl, "#")
	base, rawQuery, _ := strings.Cut(base, "?")
	original := parseQuery(rawQuery)

	// Precedence chain, highest first: explicit overrides in reverse call
	// order, then the original query string.
	chain := make([]Params, 0, len(overrides))
	for i := len(overrides) - 1; i >= 0; i-- {
		chain = append(chain, overrides[i])
	}

	consumed := make(map[string]bool, len(pathKeys))

	// Path segment resolution: prefix-greedy over pathKeys, one value per
	// key taken from the first object in precedence order that defines it.
	for _, key := range pathKeys {
		value, found := lookup(chain, original, key)
		if !found || isEmpty(value) {
			// An absent or empty value halts all path placement. The key
			// is consumed so it cannot reappear as a query parameter and
			// produce an ambiguous URL.
			consumed[key] = true
			break
		}
		if !isScalar(value) {
			// Non-scalar, including set directives: never path material.
			// The key stays eligible as a query parameter.
			break
		}
		s := stringify(value)
		if s != slug.Make(s) {
			// Not slug-safe, cannot sit in a path segment.
			break
		}
		if base == "/" {
			base += s
		} else {
			base += "/" + s
		}
		consumed[key] = true
	}

	// Query resolution: lowest precedence first so later objects override
	// earlier ones and set directives fold against the running mapping.
	query := newQueryValues()
	for _, e := range original.entries {
		if consumed[e.key] || isEmpty(e.value) {
			continue
		}
		query.set(e.key, e.value)
	}
	for _, params := range overrides {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if consumed[key] {
				continue
			}
			switch v := params[key].(type) {
			case Pull:
				next := removeString(toStrings(query.get(key)), stringify(v.Value))
				if len(next) == 0 {
					query.delete(key)
				} else {
					query.set(key, next)
				}
			case AddToSet:
				cur := toStrings(query.get(key))
				s := stringify(v.Value)
				if !containsString(cur, s) {
					cur = append(cur, s)
				}
				query.set(key, cur)
			default:
				if isEmpty(v) {
					query.delete(key)
				} else {
					query.set(key, v)
				}
			}
		}
	}

	if query.len() > 0 {
		base += "?" + query.encode()
	}
	if hasFragment {
		base += "#" + fragment
	}
	return base
}

// lookup finds the highest-precedence value for key. The original query is
// scanned last.
func lookup(chain []Params, original *queryValues, key string) (any, bool) {
	for _, params := range chain {
		if v, ok := params[key]; ok {
			return v, true
		}
	}
	return original.lookup(key)
}

// isEmpty reports whether v means "remove this key". The number zero is a
// value, not an absence.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// isScalar reports whether v can be stringified into a single path segment
// or query value.
func isScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// stringify converts a scalar to its query-string form.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toStrings coerces a running query value into the array form the set
// directives operate on. A missing value is the empty set, a scalar is a
// one-element set.
func toStrings(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			out = append(out, stringify(e))
		}
		return out
	default:
		return []string{stringify(x)}
	}
}

func removeString(ss []string, s string) []string {
	out := ss[:0]
	for _, e := range ss {
		if e != s {
			out = append(out, e)
		}
	}
	return out
}

func containsString(ss []string, s string) bool {
	for _, e := range ss {
		if e == s {
			return true
		}
	}
	return false
}
