package collect

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/pkg/jina"
)

const (
	// overviewExcerptLen caps how much page text becomes the overview.
	overviewExcerptLen = 1200
	// minReadableContent is the shortest page body worth trusting; anything
	// below this is usually a bot wall or an empty shell.
	minReadableContent = 200
	// enrichedQualityFloor is the context quality granted when the website
	// read fills a missing overview.
	enrichedQualityFloor = 0.6
)

// EnrichBrandContext fills a sparse brand context from the brand's own
// website before the query plan is composed. A brand submitted with only a
// name and URL still gets niche-aware queries this way. Enrichment is best
// effort: read failures leave the context untouched.
func EnrichBrandContext(ctx context.Context, brand *model.BrandContext, reader jina.Client) {
	if reader == nil || !brand.HasWebsite() {
		return
	}
	if strings.TrimSpace(brand.Overview) != "" {
		return
	}
	logger := zap.L().With(zap.String("job_id", brand.JobID))

	resp, err := reader.Read(ctx, brand.WebsiteURL)
	if err != nil {
		logger.Warn("brand website read failed", zap.String("url", brand.WebsiteURL), zap.Error(err))
		return
	}
	if resp.Code != 200 {
		logger.Warn("brand website read rejected",
			zap.String("url", brand.WebsiteURL), zap.Int("code", resp.Code))
		return
	}

	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < minReadableContent {
		logger.Warn("brand website content too thin to use",
			zap.String("url", brand.WebsiteURL), zap.Int("length", len(content)))
		return
	}

	brand.Overview = excerpt(content, overviewExcerptLen)
	if brand.ContextQuality < enrichedQualityFloor {
		brand.ContextQuality = enrichedQualityFloor
	}
	logger.Info("brand context enriched from website",
		zap.String("url", brand.WebsiteURL),
		zap.Int("overview_len", len(brand.Overview)),
		zap.Int("tokens", resp.Data.Usage.Tokens))
}

// excerpt truncates text at the last word boundary before the limit.
func excerpt(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if i := strings.LastIndexAny(cut, " \n\t"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
