package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandscope/competitor-cli/internal/model"
)

func TestRejectHandle(t *testing.T) {
	tests := []struct {
		name    string
		surface model.Surface
		handle  string
		reject  bool
	}{
		{"real handle", model.SurfaceInstagram, "ironpulse.fit", false},
		{"too short", model.SurfaceInstagram, "ab", true},
		{"navigation path", model.SurfaceInstagram, "explore", true},
		{"reels path", model.SurfaceInstagram, "reels", true},
		{"platform name", model.SurfaceTikTok, "tiktok", true},
		{"numeric", model.SurfaceInstagram, "12345", true},
		{"numeric with separators", model.SurfaceInstagram, "12.34_5", true},
		{"real domain", model.SurfaceWebsite, "sweatcollective.com", false},
		{"aggregator domain", model.SurfaceWebsite, "amazon.com", true},
		{"social domain as website", model.SurfaceWebsite, "instagram.com", true},
		{"bare word as website", model.SurfaceWebsite, "fitness", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rejected := RejectHandle(tt.surface, tt.handle)
			assert.Equal(t, tt.reject, rejected)
		})
	}
}

func TestRejectSelf(t *testing.T) {
	brand := &model.BrandContext{
		BrandName:  "Iron Pulse",
		WebsiteURL: "https://www.ironpulse.com",
		Handles: map[model.Surface]string{
			model.SurfaceInstagram: "@IronPulse",
		},
	}

	assert.True(t, RejectSelf(brand, model.SurfaceInstagram, "ironpulse"))
	assert.True(t, RejectSelf(brand, model.SurfaceTikTok, "ironpulse"), "collapsed brand name on any surface")
	assert.True(t, RejectSelf(brand, model.SurfaceWebsite, "ironpulse.com"))
	assert.False(t, RejectSelf(brand, model.SurfaceInstagram, "sweatcollective"))
	assert.False(t, RejectSelf(nil, model.SurfaceInstagram, "ironpulse"))
}
