package scraping

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// listingSelectors is a precedence order, not a union. Dealer themes nest
// generic classes inside specific cards, so taking the first selector that
// matches anything avoids double counting the same vehicle.
var listingSelectors = []string{
	".vehicle-item",
	".car-item",
	".inventory-item",
	".vehicle-card",
	".listing-item",
	"[data-vehicle]",
	".vehicle",
}

// vehicleMakes is the recognized manufacturer list. Order is precedence:
// when a card mentions several makes the earliest entry wins.
var vehicleMakes = []string{
	"toyota", "honda", "ford", "chevrolet", "nissan", "hyundai", "kia",
	"volkswagen", "bmw", "mercedes", "audi", "lexus", "acura", "infiniti",
	"mazda", "subaru", "mitsubishi", "jeep", "ram", "dodge", "chrysler",
	"buick", "gmc", "cadillac", "lincoln", "volvo", "jaguar", "land rover",
	"porsche", "tesla",
}

// imageExcludeKeywords reject site chrome by URL or alt text. There is no
// matching allow list: anything that survives this filter is kept, because
// losing a real photo costs more than storing a stray one.
var imageExcludeKeywords = []string{
	"logo", "icon", "banner", "header", "footer", "nav", "menu",
	"button", "arrow", "star", "social", "facebook", "twitter", "instagram",
}

// imageAttrs in lookup order. src wins when present; data-src and data-lazy
// cover lazy loading themes that park the real photo off the src attribute.
var imageAttrs = []string{"src", "data-src", "data-lazy"}

var (
	yearPattern    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	pricePattern   = regexp.MustCompile(`\$[\d,]+`)
	mileagePattern = regexp.MustCompile(`(?i)([\d,]+)\s*(miles?|mi)\b`)
)

// makeModelPatterns holds one compiled "make followed by a word" pattern per
// catalog make, index aligned with vehicleMakes.
var makeModelPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(vehicleMakes))
	for i, name := range vehicleMakes {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s+(\w+)`)
	}
	return patterns
}()

// ListingExtractor turns an inventory page DOM into vehicle listings.
type ListingExtractor struct {
	logger     *zap.Logger
	makes      ahocorasick.AhoCorasick
	imgExclude ahocorasick.AhoCorasick
}

func NewListingExtractor(logger *zap.Logger) *ListingExtractor {
	return &ListingExtractor{
		logger:     logger,
		makes:      newAutomaton(vehicleMakes),
		imgExclude: newAutomaton(imageExcludeKeywords),
	}
}

// Extract pulls vehicle listings out of an inventory page. Listings missing
// a year or carrying no images are dropped silently; the acceptance gate is
// models.VehicleListing.Valid.
func (e *ListingExtractor) Extract(doc *goquery.Document, baseURL string) []models.VehicleListing {
	base, err := url.Parse(baseURL)
	if err != nil {
		e.logger.Warn("Invalid base URL for extraction", zap.String("url", baseURL), zap.Error(err))
		return nil
	}

	var elements *goquery.Selection
	for _, selector := range listingSelectors {
		if found := doc.Find(selector); found.Length() > 0 {
			elements = found
			break
		}
	}
	if elements == nil {
		return nil
	}

	var listings []models.VehicleListing
	elements.Each(func(_ int, sel *goquery.Selection) {
		listing := e.extractListing(sel, base)
		if listing.Valid() {
			listings = append(listings, listing)
		}
	})
	return listings
}

func (e *ListingExtractor) extractListing(sel *goquery.Selection, base *url.URL) models.VehicleListing {
	text := sel.Text()

	listing := models.VehicleListing{
		Year:      extractYear(text),
		Price:     extractPrice(text),
		Mileage:   extractMileage(text),
		ImageURLs: e.imageURLs(sel, base),
	}
	listing.Make, listing.Model = e.makeAndModel(text)

	// Stock number and VIN are not on listing cards; DMS sync and manual
	// uploads are the sources that populate them.
	if href, ok := sel.Find("a[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			listing.DetailURL = base.ResolveReference(ref).String()
		}
	}
	return listing
}

// imageURLs collects candidate photos from a card, resolved absolute and
// filtered through the chrome heuristics. Order is preserved: the first URL
// here is the one the ingestion pipeline will try to flag primary.
func (e *ListingExtractor) imageURLs(sel *goquery.Selection, base *url.URL) []string {
	var urls []string
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		var raw string
		for _, attr := range imageAttrs {
			if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
				raw = strings.TrimSpace(v)
				break
			}
		}
		if raw == "" {
			return
		}

		ref, err := url.Parse(raw)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref).String()

		alt, _ := img.Attr("alt")
		if !e.isVehicleImage(resolved, alt) {
			return
		}
		urls = append(urls, resolved)
	})
	return urls
}

// isVehicleImage filters site chrome out of the photo set.
func (e *ListingExtractor) isVehicleImage(imgURL, altText string) bool {
	return !containsAny(e.imgExclude, imgURL+" "+altText)
}

// makeAndModel finds the earliest catalog make mentioned in the card text and
// takes the word right after it as the model. Both come back title cased.
func (e *ListingExtractor) makeAndModel(text string) (string, string) {
	lower := strings.ToLower(text)

	idx := firstPattern(e.makes, lower)
	if idx == -1 {
		return "", ""
	}

	caser := cases.Title(language.English)
	makeName := caser.String(vehicleMakes[idx])

	var model string
	if m := makeModelPatterns[idx].FindStringSubmatch(lower); len(m) > 1 {
		model = caser.String(m[1])
	}
	return makeName, model
}

// extractYear returns the first plausible model year token, or 0.
func extractYear(text string) int {
	match := yearPattern.FindString(text)
	if match == "" {
		return 0
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return year
}

// extractPrice returns the first dollar amount with separators stripped, or 0.
func extractPrice(text string) int64 {
	match := pricePattern.FindString(text)
	if match == "" {
		return 0
	}
	digits := strings.NewReplacer("$", "", ",", "").Replace(match)
	price, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return price
}

// extractMileage returns the first "N miles"/"N mi" figure, or 0.
func extractMileage(text string) int64 {
	m := mileagePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	digits := strings.ReplaceAll(m[1], ",", "")
	mileage, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return mileage
}
