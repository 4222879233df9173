package collect

import (
	"regexp"
	"strings"

	"github.com/brandscope/competitor-cli/internal/model"
)

// genericHandles are platform navigation paths and dictionary words that
// show up constantly in search results but never name a real account.
var genericHandles = map[string]struct{}{
	"p": {}, "explore": {}, "reel": {}, "reels": {}, "stories": {},
	"tv": {}, "accounts": {}, "directory": {}, "legal": {}, "about": {},
	"developer": {}, "developers": {}, "privacy": {}, "help": {},
	"official": {}, "business": {}, "instagram": {}, "tiktok": {},
	"youtube": {}, "facebook": {}, "twitter": {}, "linkedin": {},
	"profile": {}, "account": {}, "online": {}, "shop": {}, "store": {},
	"follow": {}, "share": {}, "watch": {}, "channel": {}, "video": {},
	"videos": {}, "live": {}, "home": {}, "search": {}, "discover": {},
	"trending": {}, "hashtag": {}, "tag": {}, "tags": {}, "music": {},
	"foryou": {}, "following": {}, "upload": {}, "login": {}, "signup": {},
}

// noisyDomains are aggregators, marketplaces, and reference sites whose
// pages dominate search results without being competitors themselves.
var noisyDomains = map[string]struct{}{
	"amazon.com": {}, "etsy.com": {}, "ebay.com": {}, "walmart.com": {},
	"aliexpress.com": {}, "wikipedia.org": {}, "pinterest.com": {},
	"reddit.com": {}, "medium.com": {}, "quora.com": {}, "yelp.com": {},
	"linktr.ee": {}, "beacons.ai": {}, "trustpilot.com": {},
	"glassdoor.com": {}, "crunchbase.com": {}, "g2.com": {},
	"capterra.com": {}, "producthunt.com": {}, "github.com": {},
	"youtube.com": {}, "instagram.com": {}, "tiktok.com": {},
	"facebook.com": {}, "twitter.com": {}, "x.com": {}, "linkedin.com": {},
	"threads.net": {}, "apple.com": {}, "play.google.com": {},
}

var numericHandleRE = regexp.MustCompile(`^[0-9_.]+$`)

// RejectHandle reports whether a normalized handle is too noisy to become
// a candidate, with a short reason for the drop log.
func RejectHandle(surface model.Surface, handle string) (string, bool) {
	if len(handle) < 3 {
		return "handle too short", true
	}
	if _, ok := genericHandles[handle]; ok {
		return "generic platform handle", true
	}
	if numericHandleRE.MatchString(handle) {
		return "numeric handle", true
	}
	if surface == model.SurfaceWebsite {
		if _, ok := noisyDomains[handle]; ok {
			return "aggregator domain", true
		}
		if !strings.Contains(handle, ".") {
			return "not a domain", true
		}
	}
	return "", false
}

// RejectSelf reports whether the handle refers to the brand being
// researched rather than a competitor.
func RejectSelf(brand *model.BrandContext, surface model.Surface, handle string) bool {
	if brand == nil {
		return false
	}
	if known, ok := brand.Handles[surface]; ok && model.NormalizeHandle(surface, known) == handle {
		return true
	}
	brandToken := model.FoldName(brand.BrandName)
	brandToken = strings.ReplaceAll(brandToken, " ", "")
	if brandToken != "" && strings.ReplaceAll(handle, ".", "") == brandToken {
		return true
	}
	if surface == model.SurfaceWebsite && brand.HasWebsite() {
		if model.NormalizeDomain(brand.WebsiteURL) == handle {
			return true
		}
	}
	return false
}
