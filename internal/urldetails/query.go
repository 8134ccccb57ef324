package urldetails

import (
	"net/url"
	"strings"

	"github.com/imposter-project/imposter-http/internal/multivalue"
	"github.com/imposter-project/imposter-http/pkg/utils"
)

// ParseQuery decodes a raw query string and splits it into key/value lists.
//
// The result is nil when raw is empty. A key without '=' is present with no
// values, repeated keys accumulate in encounter order, and a value containing
// commas contributes one entry per comma-separated part.
func ParseQuery(raw string) map[string]multivalue.List {
	if raw == "" {
		return nil
	}
	// only a literal '?' is a separator; an escaped one belongs to the key
	return ParseValues(Unescape(strings.TrimPrefix(raw, "?")), true)
}

// ParseValues tokenizes an already-decoded query string. Tokens with an
// empty key are dropped. When splitCommas is set each value is further split
// on ','.
func ParseValues(decoded string, splitCommas bool) map[string]multivalue.List {
	acc := make(map[string][]string)
	for _, token := range strings.Split(decoded, "&") {
		if token == "" {
			continue
		}
		key, value, _ := strings.Cut(token, "=")
		if key == "" {
			continue
		}
		values := acc[key]
		if value != "" {
			if splitCommas {
				values = append(values, strings.Split(value, ",")...)
			} else {
				values = append(values, value)
			}
		}
		acc[key] = values
	}
	return toLists(acc)
}

// ParseForm parses an application/x-www-form-urlencoded body. Unlike
// ParseQuery each key and value is decoded individually and commas are kept.
func ParseForm(raw string) map[string]multivalue.List {
	if raw == "" {
		return nil
	}
	acc := make(map[string][]string)
	for _, token := range strings.Split(raw, "&") {
		if token == "" {
			continue
		}
		key, value, _ := strings.Cut(token, "=")
		key = Unescape(key)
		if key == "" {
			continue
		}
		values := acc[key]
		if value != "" {
			values = append(values, Unescape(value))
		}
		acc[key] = values
	}
	return toLists(acc)
}

// EncodeQuery serialises a parsed query back into a string that ParseQuery
// maps to the same result. Keys are sorted for a stable output.
func EncodeQuery(query map[string]multivalue.List) string {
	keys := utils.SortedKeys(query)
	tokens := make([]string, 0, len(keys))
	for _, k := range keys {
		list := query[k]
		if list.IsEmpty() {
			tokens = append(tokens, url.QueryEscape(k))
			continue
		}
		escaped := make([]string, list.Len())
		for i, v := range list.Values() {
			escaped[i] = url.QueryEscape(v)
		}
		tokens = append(tokens, url.QueryEscape(k)+"="+strings.Join(escaped, ","))
	}
	return strings.Join(tokens, "&")
}

func toLists(acc map[string][]string) map[string]multivalue.List {
	result := make(map[string]multivalue.List, len(acc))
	for k, v := range acc {
		result[k] = multivalue.New(v...)
	}
	return result
}
