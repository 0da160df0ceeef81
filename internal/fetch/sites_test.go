package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSite(t *testing.T) {
	tests := []struct {
		url      string
		expected Site
	}{
		{"https://punchng.com/flooding-hits-lagos/", SiteWordPress},
		{"https://www.premiumtimesng.com/news/headlines/123.html", SiteWordPress},
		{"https://myblog.wordpress.com/2026/01/post", SiteWordPress},
		{"https://www.bbc.co.uk/news/world-africa-123", SiteBBC},
		{"https://www.bbc.com/news/articles/abc", SiteBBC},
		{"https://medium.com/@writer/a-story-1a2b", SiteMedium},
		{"https://writer.substack.com/p/post", SiteSubstack},
		{"https://example.com/news", SiteUnknown},
		{"https://notpunchng.com/a", SiteUnknown},
		{"://bad", SiteUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectSite(tt.url))
		})
	}
}

func TestSiteContentSelectors(t *testing.T) {
	assert.Contains(t, SiteContentSelectors(SiteWordPress), ".entry-content")
	assert.Contains(t, SiteContentSelectors(SiteSubstack), ".available-content")
	// Unknown sites fall back to generic article selectors
	assert.Equal(t, ArticleSelectors(), SiteContentSelectors(SiteUnknown))
}

func TestSiteNoiseSelectors(t *testing.T) {
	wp := SiteNoiseSelectors(SiteWordPress)
	assert.Contains(t, wp, "#comments")
	assert.Contains(t, wp, ".jp-relatedposts")

	unknown := SiteNoiseSelectors(SiteUnknown)
	assert.Contains(t, unknown, ".cookie-banner")
	assert.NotContains(t, unknown, ".jp-relatedposts")
}
