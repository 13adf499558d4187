package parsers

import (
	"github.com/SHSHJW/top10-daily/internal/models"
)

// feedItemPaths are the places an RSS or Atom list can live.
var feedItemPaths = []string{"rss.channel.item", "channel.item", "rdf:RDF.item", "feed.entry"}

// Extract locates the raw item list for a candidate: the configured
// item path first, then the feed defaults for XML formats, then a tree
// search over the configured keys for JSON formats. A present but empty
// list is returned as-is.
func Extract(doc any, c models.SourceCandidate) ([]any, error) {
	if c.ItemPath != "" {
		if v, ok := Lookup(doc, c.ItemPath); ok {
			if arr, isArr := asArray(v); isArr {
				return arr, nil
			}
		}
	}

	if c.Format.IsXML() {
		for _, p := range feedItemPaths {
			if v, ok := Lookup(doc, p); ok {
				if arr, isArr := asArray(v); isArr {
					return arr, nil
				}
			}
		}

		return nil, &ShapeError{Path: c.ItemPath, Keys: feedItemPaths}
	}

	if arr, ok := doc.([]any); ok && c.ItemPath == "" && len(c.ItemKeys) == 0 {
		return arr, nil
	}

	if arr, ok := FindArray(doc, c.ItemKeys); ok {
		return arr, nil
	}

	return nil, &ShapeError{Path: c.ItemPath, Keys: c.ItemKeys}
}

// asArray accepts a single object where a list was expected.
func asArray(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case map[string]any:
		return []any{x}, true
	}

	return nil, false
}
