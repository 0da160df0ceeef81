// Package ingestion turns a verification request's content into plain text:
// URLs are fetched and reduced to their article body, raw text is sanitised.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/jonathan/trustcheck/internal/fetch"
)

// DefaultMaxChars bounds the extracted text handed to the engine.
const DefaultMaxChars = 20000

// Extractor turns a URL into text. It never fails: on any error it returns
// Placeholder(url).
type Extractor interface {
	Extract(ctx context.Context, url string) string
}

// ExtractionError is returned when a page could not be reduced to text.
type ExtractionError struct {
	URL     string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.URL, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ErrEmptyPage is the cause when a page yields no text.
var ErrEmptyPage = errors.New("page has no extractable text")

// Placeholder is the text used in place of a page that could not be extracted.
func Placeholder(url string) string {
	return fmt.Sprintf("Content from %s could not be extracted", url)
}

// Page is the extracted form of a web page.
type Page struct {
	Text     string
	Metadata *Metadata
}

// PageExtractor fetches pages through a cached fetcher, falling back to a
// headless renderer for pages rendered client-side.
type PageExtractor struct {
	fetcher  *fetch.CachedFetcher
	renderer fetch.Renderer
	maxChars int
	logger   *slog.Logger
}

// NewPageExtractor creates an extractor. renderer may be nil to disable the
// browser fallback.
func NewPageExtractor(fetcher *fetch.CachedFetcher, renderer fetch.Renderer) *PageExtractor {
	if fetcher == nil {
		fetcher = fetch.NewCachedFetcher(nil, nil)
	}
	return &PageExtractor{
		fetcher:  fetcher,
		renderer: renderer,
		maxChars: DefaultMaxChars,
		logger:   slog.With(slog.String("component", "ingestion")),
	}
}

// Extract returns the page text or the placeholder.
func (e *PageExtractor) Extract(ctx context.Context, url string) string {
	page, err := e.ExtractPage(ctx, url)
	if err != nil {
		e.logger.Warn("[Ingestion] content extraction failed", slog.String("url", url), slog.String("error", err.Error()))
		return Placeholder(url)
	}
	return page.Text
}

// ExtractPage fetches url and returns its cleaned article text with metadata.
func (e *PageExtractor) ExtractPage(ctx context.Context, url string) (*Page, error) {
	site := fetch.DetectSite(url)

	result, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, &ExtractionError{URL: url, Message: "fetch failed", Cause: err}
	}

	contentSelectors := fetch.SiteContentSelectors(site)
	noiseSelectors := fetch.SiteNoiseSelectors(site)

	text, err := fetch.ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
	if err != nil {
		return nil, &ExtractionError{URL: url, Message: "HTML parsing failed", Cause: err}
	}

	if e.renderer != nil && fetch.ShouldUseBrowser(text) {
		e.logger.Info("[Ingestion] content too short, rendering in browser",
			slog.String("url", url), slog.Int("chars", len(text)))
		rendered, renderErr := e.renderer.Render(ctx, url)
		if renderErr != nil {
			e.logger.Warn("[Ingestion] browser rendering failed, using HTTP content", slog.String("error", renderErr.Error()))
		} else if browserText, err := fetch.ExtractMainText(rendered, contentSelectors, noiseSelectors...); err == nil {
			text = browserText
		}
	}

	text = CleanText(text)
	if text == "" {
		return nil, &ExtractionError{URL: url, Message: "no text found", Cause: ErrEmptyPage}
	}
	text = truncate(text, e.maxChars)

	metadata := NewMetadata(text, url)
	metadata.Site = string(site)
	metadata.Title = result.Title
	metadata.FromCache = result.FromCache

	return &Page{Text: text, Metadata: metadata}, nil
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
