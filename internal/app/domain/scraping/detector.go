package scraping

import (
	"context"
	"io"
	"time"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// platformSignatures maps page body substrings to the platform they identify.
// Order matters: vendor specific markers come before the generic wordpress
// bucket, and detection picks the earliest entry that matches anywhere in
// the body.
var platformSignatures = []struct {
	platform  models.WebsitePlatform
	signature string
}{
	{models.PlatformAutotrader, "autotrader"},
	{models.PlatformAutotrader, "at-inventory"},
	{models.PlatformCarsDotCom, "cars.com"},
	{models.PlatformCarsDotCom, "cars-inventory"},
	{models.PlatformDealerFire, "dealerfire"},
	{models.PlatformDealerFire, "df-inventory"},
	{models.PlatformDealerSocket, "dealersocket"},
	{models.PlatformDealerSocket, "ds-inventory"},
	{models.PlatformAutoRevolution, "autorevolution"},
	{models.PlatformAutoRevolution, "ar-inventory"},
	{models.PlatformCobalt, "cobalt"},
	{models.PlatformCobalt, "cobalt-inventory"},
	{models.PlatformDealerDotCom, "dealer.com"},
	{models.PlatformDealerDotCom, "ddc-inventory"},
	{models.PlatformWordpress, "wp-content"},
	{models.PlatformWordpress, "wordpress"},
}

// maxDetectionBytes bounds how much of a homepage detection will read.
// Signatures live in the head and early templates, not megabytes in.
const maxDetectionBytes = 1 << 20

// PlatformDetector names the CMS behind a dealer site by sniffing the
// homepage body for known vendor signatures.
type PlatformDetector struct {
	logger  *zap.Logger
	fetcher *PageFetcher
	matcher ahocorasick.AhoCorasick
	cache   *cache.Cache
}

func NewPlatformDetector(fetcher *PageFetcher, logger *zap.Logger) *PlatformDetector {
	patterns := make([]string, len(platformSignatures))
	for i, entry := range platformSignatures {
		patterns[i] = entry.signature
	}
	return &PlatformDetector{
		logger:  logger,
		fetcher: fetcher,
		matcher: newAutomaton(patterns),
		cache:   cache.New(10*time.Minute, 30*time.Minute),
	}
}

// Detect classifies the site behind rawURL. A body that fetched but matched
// no signature is a custom build; a site that cannot be fetched at all stays
// unknown. Neither case is an error, the orchestrator works with whatever
// comes back. Successful classifications are cached per URL; fetch failures
// are not, so a flaky site gets retried on the next run.
func (d *PlatformDetector) Detect(ctx context.Context, rawURL string) models.WebsitePlatform {
	if cached, found := d.cache.Get(rawURL); found {
		if platform, ok := cached.(models.WebsitePlatform); ok {
			return platform
		}
	}

	resp, err := d.fetcher.Get(ctx, rawURL)
	if err != nil {
		d.logger.Warn("Platform detection fetch failed", zap.String("url", rawURL), zap.Error(err))
		return models.PlatformUnknown
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDetectionBytes))
	if err != nil {
		d.logger.Warn("Platform detection read failed", zap.String("url", rawURL), zap.Error(err))
		return models.PlatformUnknown
	}

	platform := d.classify(string(body))
	d.cache.Set(rawURL, platform, cache.DefaultExpiration)
	d.logger.Debug("Platform detected", zap.String("url", rawURL), zap.String("platform", string(platform)))
	return platform
}

// classify returns the highest precedence platform whose signature occurs in
// the body, or custom when nothing matches.
func (d *PlatformDetector) classify(body string) models.WebsitePlatform {
	idx := firstPattern(d.matcher, body)
	if idx == -1 {
		return models.PlatformCustom
	}
	return platformSignatures[idx].platform
}
