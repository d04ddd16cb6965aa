package scraping

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"go.uber.org/zap"
)

// inventoryKeywords flag navigation links that plausibly lead to vehicle
// listings. Matched as substrings against both the href and the anchor text.
var inventoryKeywords = []string{
	"inventory", "vehicles", "cars", "used", "new", "pre-owned", "search",
}

// InventoryPageFinder walks a dealer homepage for links into inventory pages.
type InventoryPageFinder struct {
	logger  *zap.Logger
	fetcher *PageFetcher
	matcher ahocorasick.AhoCorasick
}

func NewInventoryPageFinder(fetcher *PageFetcher, logger *zap.Logger) *InventoryPageFinder {
	return &InventoryPageFinder{
		logger:  logger,
		fetcher: fetcher,
		matcher: newAutomaton(inventoryKeywords),
	}
}

// FindInventoryPages collects same host links off the homepage that look like
// inventory listings, deduplicated in document order. Best effort: an
// unreachable or unparsable homepage yields an empty slice and the
// orchestrator falls back to scraping the base URL directly.
func (f *InventoryPageFinder) FindInventoryPages(ctx context.Context, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		f.logger.Warn("Invalid base URL for inventory discovery", zap.String("url", baseURL), zap.Error(err))
		return nil
	}

	doc, err := f.fetcher.Document(ctx, baseURL)
	if err != nil {
		f.logger.Warn("Homepage fetch failed, skipping inventory discovery",
			zap.String("url", baseURL), zap.Error(err))
		return nil
	}

	seen := make(map[string]struct{})
	var pages []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		if !containsAny(f.matcher, href) && !containsAny(f.matcher, sel.Text()) {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		// mailto:, tel: and cross host links all fail the host check.
		if resolved.Host != base.Host {
			return
		}
		resolved.Fragment = ""

		abs := resolved.String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		pages = append(pages, abs)
	})

	f.logger.Debug("Inventory pages discovered", zap.String("url", baseURL), zap.Int("count", len(pages)))
	return pages
}
