package fetch

import (
	"net/url"
	"strings"
)

// Site is a publishing platform with a known page layout.
type Site string

const (
	// SiteWordPress covers WordPress-based outlets, including most Nigerian dailies
	SiteWordPress Site = "wordpress"
	// SiteBBC is the BBC News layout
	SiteBBC Site = "bbc"
	// SiteMedium is Medium and its custom domains
	SiteMedium Site = "medium"
	// SiteSubstack is Substack newsletters
	SiteSubstack Site = "substack"
	// SiteUnknown is an unrecognized layout
	SiteUnknown Site = "unknown"
)

var wordPressHosts = []string{
	"punchng.com",
	"vanguardngr.com",
	"premiumtimesng.com",
	"thecable.ng",
	"dailytrust.com",
	"guardian.ng",
	"thisdaylive.com",
	"leadership.ng",
	"saharareporters.com",
	"wordpress.com",
}

// DetectSite identifies the publishing layout from a URL.
func DetectSite(urlStr string) Site {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return SiteUnknown
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	switch {
	case hostMatches(host, "bbc.co.uk") || hostMatches(host, "bbc.com"):
		return SiteBBC
	case hostMatches(host, "medium.com"):
		return SiteMedium
	case hostMatches(host, "substack.com"):
		return SiteSubstack
	}
	for _, h := range wordPressHosts {
		if hostMatches(host, h) {
			return SiteWordPress
		}
	}
	return SiteUnknown
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// SiteContentSelectors returns content selectors tuned for a site layout.
func SiteContentSelectors(site Site) []string {
	switch site {
	case SiteWordPress:
		return []string{
			".entry-content",
			".post-content",
			".td-post-content",
			".article-content",
			"article",
		}
	case SiteBBC:
		return []string{
			"article",
			"[data-component='text-block']",
			".story-body",
			"main",
		}
	case SiteMedium:
		return []string{
			"article section",
			"article",
		}
	case SiteSubstack:
		return []string{
			".available-content",
			".body.markup",
			"article",
		}
	default:
		return ArticleSelectors()
	}
}

// SiteNoiseSelectors returns noise exclusion selectors for a site layout.
func SiteNoiseSelectors(site Site) []string {
	common := []string{
		// Comments and reader interaction
		"#comments",
		".comments",
		".comment-respond",

		// Related and recommended content
		".related-posts",
		".related-articles",
		".recommended",
		".more-stories",

		// Newsletter and subscription prompts
		"form",
		".newsletter",
		".subscribe",

		// Social and share buttons
		".social-share",
		".share-buttons",
		".social-links",

		// Cookie and GDPR
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",
	}

	switch site {
	case SiteWordPress:
		return append(common,
			".jp-relatedposts",
			".sharedaddy",
			".wp-block-buttons",
			".td-post-sharing",
		)
	case SiteBBC:
		return append(common,
			"[data-component='links-block']",
			"[data-component='topic-list']",
			"[data-component='image-block'] figcaption",
		)
	case SiteMedium:
		return append(common,
			".pw-responses",
			"[data-testid='headerClapButton']",
		)
	case SiteSubstack:
		return append(common,
			".subscription-widget-wrap",
			".post-footer",
		)
	default:
		return common
	}
}
