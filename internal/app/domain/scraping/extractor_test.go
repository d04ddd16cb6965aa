package scraping

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const baseURL = "https://dealer.example.com/inventory"

func TestExtractListing(t *testing.T) {
	html := `<html><body>
		<div class="vehicle-item">
			<a href="/vehicles/42"><img src="/photos/camry-front.jpg" alt="2022 Toyota Camry"></a>
			<img data-src="/photos/camry-side.jpg" alt="side view">
			<h3>2022 Toyota Camry LE</h3>
			<span class="price">$24,995</span>
			<span class="mileage">35,000 miles</span>
		</div>
	</body></html>`

	extractor := NewListingExtractor(zap.NewNop())
	listings := extractor.Extract(docFromHTML(t, html), baseURL)

	require.Len(t, listings, 1)
	got := listings[0]
	assert.Equal(t, 2022, got.Year)
	assert.Equal(t, "Toyota", got.Make)
	assert.Equal(t, "Camry", got.Model)
	assert.Equal(t, int64(24995), got.Price)
	assert.Equal(t, int64(35000), got.Mileage)
	assert.Equal(t, "https://dealer.example.com/vehicles/42", got.DetailURL)
	assert.Equal(t, []string{
		"https://dealer.example.com/photos/camry-front.jpg",
		"https://dealer.example.com/photos/camry-side.jpg",
	}, got.ImageURLs)
	assert.Empty(t, got.VIN)
	assert.Empty(t, got.StockNumber)
}

func TestExtractSelectorPrecedence(t *testing.T) {
	// vehicle-item wins; the vehicle-card block must not be unioned in.
	html := `<html><body>
		<div class="vehicle-item">
			<img src="/a.jpg">1999 Honda Civic
		</div>
		<div class="vehicle-card">
			<img src="/b.jpg">2021 Ford F-150
		</div>
	</body></html>`

	extractor := NewListingExtractor(zap.NewNop())
	listings := extractor.Extract(docFromHTML(t, html), baseURL)

	require.Len(t, listings, 1)
	assert.Equal(t, 1999, listings[0].Year)
	assert.Equal(t, "Honda", listings[0].Make)
}

func TestExtractAcceptanceGate(t *testing.T) {
	t.Run("NoYearDropped", func(t *testing.T) {
		html := `<div class="vehicle-item"><img src="/a.jpg">Low miles Honda Civic, call for price</div>`
		extractor := NewListingExtractor(zap.NewNop())
		assert.Empty(t, extractor.Extract(docFromHTML(t, html), baseURL))
	})

	t.Run("NoImagesDropped", func(t *testing.T) {
		html := `<div class="vehicle-item">2020 Honda Civic $18,500</div>`
		extractor := NewListingExtractor(zap.NewNop())
		assert.Empty(t, extractor.Extract(docFromHTML(t, html), baseURL))
	})
}

func TestExtractImageFiltering(t *testing.T) {
	html := `<div class="vehicle-item">
		<img src="/assets/logo.png" alt="dealer logo">
		<img src="/assets/nav-arrow.svg">
		<img src="/photos/1.jpg" alt="facebook share card">
		<img src="/photos/2.jpg">
		<img data-lazy="/photos/3.jpg">
		<img alt="no source at all">
		2019 Mazda CX-5
	</div>`

	extractor := NewListingExtractor(zap.NewNop())
	listings := extractor.Extract(docFromHTML(t, html), baseURL)

	require.Len(t, listings, 1)
	// logo and nav-arrow rejected by URL, the facebook alt text rejects an
	// otherwise fine photo, and unmatched photos are kept by default.
	assert.Equal(t, []string{
		"https://dealer.example.com/photos/2.jpg",
		"https://dealer.example.com/photos/3.jpg",
	}, listings[0].ImageURLs)
}

func TestExtractMakePrecedence(t *testing.T) {
	// toyota precedes honda in the catalog even though honda appears first
	// in the text.
	html := `<div class="vehicle-item"><img src="/a.jpg">Honda trade-in welcome! 2018 Toyota Corolla</div>`

	extractor := NewListingExtractor(zap.NewNop())
	listings := extractor.Extract(docFromHTML(t, html), baseURL)

	require.Len(t, listings, 1)
	assert.Equal(t, "Toyota", listings[0].Make)
	assert.Equal(t, "Corolla", listings[0].Model)
}

func TestExtractMultiWordMake(t *testing.T) {
	html := `<div class="vehicle-item"><img src="/a.jpg">2020 Land Rover Defender $62,000</div>`

	extractor := NewListingExtractor(zap.NewNop())
	listings := extractor.Extract(docFromHTML(t, html), baseURL)

	require.Len(t, listings, 1)
	assert.Equal(t, "Land Rover", listings[0].Make)
	assert.Equal(t, "Defender", listings[0].Model)
}

func TestExtractDataVehicleSelector(t *testing.T) {
	html := `<html><body>
		<section data-vehicle="1"><img src="/a.jpg">2017 Kia Soul</section>
		<section data-vehicle="2"><img src="/b.jpg">2016 Jeep Wrangler</section>
	</body></html>`

	extractor := NewListingExtractor(zap.NewNop())
	listings := extractor.Extract(docFromHTML(t, html), baseURL)

	require.Len(t, listings, 2)
	assert.Equal(t, "Kia", listings[0].Make)
	assert.Equal(t, "Jeep", listings[1].Make)
}

func TestExtractNoSelectorsMatch(t *testing.T) {
	html := `<html><body><p>No inventory markup here</p></body></html>`
	extractor := NewListingExtractor(zap.NewNop())
	assert.Empty(t, extractor.Extract(docFromHTML(t, html), baseURL))
}

func TestExtractHelpers(t *testing.T) {
	assert.Equal(t, 2004, extractYear("clean 2004 wagon"))
	assert.Equal(t, 0, extractYear("call 555-0134 today"))
	assert.Equal(t, int64(1899500), extractPrice("now $1,899,500 obo"))
	assert.Equal(t, int64(0), extractPrice("price on request"))
	assert.Equal(t, int64(12345), extractMileage("only 12,345 mi"))
	assert.Equal(t, int64(8000), extractMileage("8000 Miles, one owner"))
	assert.Equal(t, int64(0), extractMileage("mileage unknown"))
}

func TestListingValid(t *testing.T) {
	assert.True(t, models.VehicleListing{Year: 2020, ImageURLs: []string{"u"}}.Valid())
	assert.False(t, models.VehicleListing{ImageURLs: []string{"u"}}.Valid())
	assert.False(t, models.VehicleListing{Year: 2020}.Valid())
}
