package config

import "github.com/SHSHJW/top10-daily/internal/models"

// Shared header sets for the built-in jobs.
var (
	trendsJSONHeaders = map[string]string{
		"Accept":          "application/json,text/plain,*/*",
		"Accept-Language": "ko,en;q=0.8",
		"Cookie":          "CONSENT=YES+",
		"Referer":         "https://trends.google.com/trends/trendingsearches/daily?geo=KR&hl=ko",
	}

	feedHeaders = map[string]string{
		"Accept":          "application/rss+xml,text/xml,*/*",
		"Accept-Language": "ko,en;q=0.8",
	}
)

// Default returns the built-in configuration: the App Store top-free
// list and the Google Trends daily list for Korea.
func Default() *Config {
	cfg := &Config{
		Updater: UpdaterConfig{
			Retry:     DefaultRetryPolicy(),
			RateLimit: RateLimitConfig{RequestsPerSecond: 2, Burst: 1},
			Logging:   LoggingConfig{Level: "info", Format: "text"},
			Jobs:      []JobConfig{AppStoreJob(), TrendsJob()},
		},
	}

	cfg.applyDefaults()

	return cfg
}

// AppStoreJob is the App Store top-free apps list.
func AppStoreJob() JobConfig {
	return JobConfig{
		Name:     "appstore-kr",
		Output:   "data/appstore-kr.json",
		Timezone: DefaultTimezone,
		Enabled:  true,
		Candidates: []CandidateConfig{
			{
				Name:     "apple-marketing-rss",
				URL:      "https://rss.applemarketingtools.com/api/v2/kr/apps/top-free/10/apps.json",
				Format:   "json_api",
				ItemPath: "feed.results",
				ItemKeys: []string{"results"},
				Headers:  map[string]string{"User-Agent": "Top10Bot/1.0", "Accept": "application/json"},
			},
			{
				Name:     "itunes-legacy-rss",
				URL:      "https://itunes.apple.com/kr/rss/topfreeapplications/limit=10/json",
				Format:   "json_api",
				ItemPath: "feed.entry",
				ItemKeys: []string{"entry"},
				Headers:  map[string]string{"Accept": "application/json"},
				Fields: fieldPaths(
					[]string{"im:name.label", "title.label"},
					[]string{"link.attributes.href", "id.label"},
					nil,
					[]string{"im:artist.label", "summary.label"},
					[]string{"im:image.2.label", "im:image.0.label"},
					[]string{"category.attributes.label"},
				),
			},
		},
	}
}

// TrendsJob is the Google Trends daily searches list.
func TrendsJob() JobConfig {
	return JobConfig{
		Name:     "trends-kr",
		Output:   "data/trends-kr.json",
		Timezone: DefaultTimezone,
		Enabled:  true,
		Candidates: []CandidateConfig{
			{
				Name:      "dailytrends-api",
				URL:       "https://trends.google.com/trends/api/dailytrends?hl=ko&tz=-540&geo=KR&ed={date}",
				Format:    "json_api",
				ItemKeys:  []string{"trendingSearches"},
				Headers:   trendsJSONHeaders,
				CacheBust: true,
			},
			{
				Name:    "daily-rss",
				URL:     "https://trends.google.com/trends/trendingsearches/daily/rss?hl=ko&geo=KR",
				Format:  "rss",
				Headers: feedHeaders,
			},
			{
				Name:    "daily-rss-nolang",
				URL:     "https://trends.google.com/trends/trendingsearches/daily/rss?geo=KR",
				Format:  "rss",
				Headers: feedHeaders,
			},
			{
				Name:    "trending-rss",
				URL:     "https://trends.google.com/trending/rss?geo=KR",
				Format:  "rss",
				Headers: feedHeaders,
			},
			{
				Name:    "daily-rss-kr-domain",
				URL:     "https://trends.google.co.kr/trends/trendingsearches/daily/rss?hl=ko&geo=KR",
				Format:  "rss",
				Headers: feedHeaders,
			},
			// The page's script block carries no stable id; an empty
			// script_id selects the first application/json block.
			{
				Name:     "trending-page",
				URL:      "https://trends.google.com/trending?geo=KR&hl=ko",
				Format:   "json_in_html",
				ItemKeys: []string{"trendingSearches", "trends"},
				Headers:  map[string]string{"Accept": "text/html", "Cookie": "CONSENT=YES+"},
			},
			{
				Name:    "hottrends-atom",
				URL:     "https://www.google.com/trends/hottrends/atom/feed?pn=p23",
				Format:  "atom",
				Headers: feedHeaders,
			},
		},
		Secondary: []CandidateConfig{
			{
				Name:      "serpapi-trending-now",
				URL:       "https://serpapi.com/search.json?engine=google_trends_trending_now&geo=KR&hl=ko&api_key={api_key}",
				Format:    "json_api",
				ItemKeys:  []string{"trending_searches"},
				APIKeyEnv: "SERPAPI_API_KEY",
				Fields: fieldPaths(
					[]string{"query"},
					[]string{"serpapi_google_trends_link", "link"},
					[]string{"search_volume", "formattedTraffic"},
					[]string{"trend_breakdown.0"},
					nil,
					[]string{"categories.0.name"},
				),
			},
		},
	}
}

func fieldPaths(title, url, traffic, snippet, icon, category []string) models.FieldPaths {
	return models.FieldPaths{
		Title:    title,
		URL:      url,
		Traffic:  traffic,
		Snippet:  snippet,
		Icon:     icon,
		Category: category,
	}
}
