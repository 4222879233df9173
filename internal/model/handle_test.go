package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		name    string
		surface Surface
		raw     string
		want    string
	}{
		{"strips at sign", SurfaceInstagram, "@BrandX", "brandx"},
		{"case folds", SurfaceTikTok, "BRANDX", "brandx"},
		{"trims whitespace", SurfaceInstagram, "  brandx ", "brandx"},
		{"strips path fragment", SurfaceInstagram, "brandx/reels", "brandx"},
		{"strips query fragment", SurfaceX, "brandx?lang=en", "brandx"},
		{"trailing periods on instagram", SurfaceInstagram, "brandx.", "brandx"},
		{"keeps interior periods", SurfaceInstagram, "brand.x", "brand.x"},
		{"website to bare domain", SurfaceWebsite, "https://www.brandx.com/shop", "brandx.com"},
		{"website without scheme", SurfaceWebsite, "WWW.BrandX.com", "brandx.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHandle(tt.surface, tt.raw))
		})
	}
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "brandx.com", NormalizeDomain("https://www.brandx.com/about?x=1"))
	assert.Equal(t, "shop.brandx.com", NormalizeDomain("shop.brandx.com"))
	assert.Equal(t, "", NormalizeDomain("not a domain"))
	assert.Equal(t, "", NormalizeDomain(""))
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "brand x", FoldName("  Brand   X "))
	assert.Equal(t, "café nero", FoldName("Café Nero"))
}
