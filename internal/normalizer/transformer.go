package normalizer

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/SHSHJW/top10-daily/internal/crawler/parsers"
	"github.com/SHSHJW/top10-daily/internal/models"
	"github.com/SHSHJW/top10-daily/pkg/utils"
)

// Transformer maps raw items onto canonical items.
type Transformer struct {
	maxItems int
}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{maxItems: models.MaxItems}
}

// normalize keeps the first ten raw items in input order and maps each
// one through the field precedence for the format. Missing fields are
// empty strings; ranks run 1..n.
func normalize(raw []any, format models.Format, overrides models.FieldPaths) []models.CanonicalItem {
	return NewTransformer().Transform(raw, ResolveFields(format, overrides), "")
}

// Transform converts raw items using resolved field paths. Relative URLs
// are resolved against base when it is set.
func (t *Transformer) Transform(raw []any, fields models.FieldPaths, base string) []models.CanonicalItem {
	n := min(len(raw), t.maxItems)
	items := make([]models.CanonicalItem, 0, n)

	for i := 0; i < n; i++ {
		node := raw[i]

		item := models.CanonicalItem{Rank: i + 1}

		if _, isObject := node.(map[string]any); !isObject {
			// A bare scalar is the title itself.
			item.Title = utils.CleanText(scalarString(node))
			items = append(items, item)

			continue
		}

		item.Title = firstString(node, fields.Title)
		item.URL = resolveURL(firstString(node, fields.URL), base)
		item.Traffic = firstString(node, fields.Traffic)
		item.Snippet = firstString(node, fields.Snippet)
		item.Icon = resolveURL(firstString(node, fields.Icon), base)
		item.Category = firstString(node, fields.Category)

		items = append(items, item)
	}

	return items
}

// firstString returns the first path that yields a non-empty cleaned string.
func firstString(node any, paths []string) string {
	for _, p := range paths {
		v, ok := parsers.Lookup(node, p)
		if !ok {
			continue
		}

		if s := utils.CleanText(scalarString(v)); s != "" {
			return s
		}
	}

	return ""
}

// scalarString renders a leaf value. Element maps contribute their text
// content and lists their first element; other objects yield "".
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any:
		if text, ok := x[parsers.TextKey]; ok {
			return scalarString(text)
		}
	case []any:
		if len(x) > 0 {
			return scalarString(x[0])
		}
	}

	return ""
}

func resolveURL(raw, base string) string {
	if raw == "" || base == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return raw
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	return baseURL.ResolveReference(ref).String()
}
