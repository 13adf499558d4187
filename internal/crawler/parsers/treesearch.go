package parsers

import (
	"slices"
)

// DefaultMaxNodes caps how many nodes one search may visit.
const DefaultMaxNodes = 10000

// daysKeys name per-day groupings whose first matching element holds the list.
var daysKeys = []string{"days", "trendingSearchesDays"}

// FindArray searches the tree breadth-first for the first object that maps
// one of keys to an array. Map keys are visited in sorted order so the
// result is deterministic.
func FindArray(tree any, keys []string) ([]any, bool) {
	return FindArrayLimit(tree, keys, DefaultMaxNodes)
}

// FindArrayLimit is FindArray with an explicit node-visit cap.
func FindArrayLimit(tree any, keys []string, maxNodes int) ([]any, bool) {
	if len(keys) == 0 || tree == nil {
		return nil, false
	}

	queue := []any{tree}
	visited := 0

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		visited++
		if visited > maxNodes {
			return nil, false
		}

		switch n := node.(type) {
		case map[string]any:
			if arr, ok := matchDays(n, keys); ok {
				return arr, true
			}

			for _, key := range keys {
				if arr, ok := n[key].([]any); ok {
					return arr, true
				}
			}

			for _, k := range sortedKeys(n) {
				if isContainer(n[k]) {
					queue = append(queue, n[k])
				}
			}
		case []any:
			for _, el := range n {
				if isContainer(el) {
					queue = append(queue, el)
				}
			}
		}
	}

	return nil, false
}

func matchDays(n map[string]any, keys []string) ([]any, bool) {
	for _, dk := range daysKeys {
		days, ok := n[dk].([]any)
		if !ok {
			continue
		}

		for _, day := range days {
			m, ok := day.(map[string]any)
			if !ok {
				continue
			}

			for _, key := range keys {
				if arr, ok := m[key].([]any); ok {
					return arr, true
				}
			}
		}
	}

	return nil, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}

	return false
}
