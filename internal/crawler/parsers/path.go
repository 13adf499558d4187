package parsers

import (
	"strconv"
	"strings"
)

// Lookup walks a dot path ("a.b.0.c", "link.@href") through decoded maps
// and slices. A non-numeric segment applied to an array descends into
// the first element, so "ht:news_item.ht:news_item_url" works whether
// news_item repeats or not.
func Lookup(v any, path string) (any, bool) {
	if path == "" {
		return v, v != nil
	}

	cur := v

	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}

		cur = next
	}

	return cur, cur != nil
}

func step(cur any, seg string) (any, bool) {
	for {
		switch node := cur.(type) {
		case map[string]any:
			val, ok := node[seg]

			return val, ok
		case []any:
			if idx, err := strconv.Atoi(seg); err == nil {
				if idx < 0 || idx >= len(node) {
					return nil, false
				}

				return node[idx], true
			}

			if len(node) == 0 {
				return nil, false
			}

			cur = node[0]
		default:
			return nil, false
		}
	}
}
