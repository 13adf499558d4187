package normalizer

import (
	"github.com/SHSHJW/top10-daily/internal/models"
)

var jsonFields = models.FieldPaths{
	Title:    []string{"title.query", "title", "query", "keyword", "name", "entityNames.0"},
	URL:      []string{"url", "shareUrl", "link", "exploreLink", "articles.0.url"},
	Traffic:  []string{"formattedTraffic", "traffic", "search_volume", "searchVolume", "approx_traffic"},
	Snippet:  []string{"snippet", "description", "articles.0.snippet", "articles.0.title", "artistName"},
	Icon:     []string{"image.imageUrl", "icon", "artworkUrl100", "thumbnail", "image"},
	Category: []string{"category", "genres.0.name", "categories.0.name"},
}

var rssFields = models.FieldPaths{
	Title:    []string{"title", "ht:news_item.ht:news_item_title"},
	URL:      []string{"link", "ht:news_item.ht:news_item_url", "guid"},
	Traffic:  []string{"ht:approx_traffic", "approx_traffic"},
	Snippet:  []string{"description", "ht:news_item.ht:news_item_snippet", "ht:news_item.ht:news_item_title"},
	Icon:     []string{"ht:picture", "media:content.@url", "enclosure.@url"},
	Category: []string{"category"},
}

var atomFields = models.FieldPaths{
	Title:    []string{"title"},
	URL:      []string{"link.@href", "link", "id"},
	Traffic:  []string{"ht:approx_traffic"},
	Snippet:  []string{"summary", "content"},
	Icon:     []string{"media:thumbnail.@url", "ht:picture"},
	Category: []string{"category.@term", "category"},
}

// DefaultFields returns the built-in field precedence for a format.
func DefaultFields(format models.Format) models.FieldPaths {
	switch format {
	case models.FormatRSS:
		return rssFields
	case models.FormatAtom:
		return atomFields
	case models.FormatJSONAPI, models.FormatJSONInHTML:
		return jsonFields
	}

	return jsonFields
}

// ResolveFields overlays per-candidate overrides on the format defaults.
// An override replaces the default list for that field only.
func ResolveFields(format models.Format, overrides models.FieldPaths) models.FieldPaths {
	fields := DefaultFields(format)

	pick := func(override, def []string) []string {
		if len(override) > 0 {
			return override
		}

		return def
	}

	return models.FieldPaths{
		Title:    pick(overrides.Title, fields.Title),
		URL:      pick(overrides.URL, fields.URL),
		Traffic:  pick(overrides.Traffic, fields.Traffic),
		Snippet:  pick(overrides.Snippet, fields.Snippet),
		Icon:     pick(overrides.Icon, fields.Icon),
		Category: pick(overrides.Category, fields.Category),
	}
}
