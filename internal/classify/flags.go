// Package classify tags candidates with entity flags and a competitor
// type before scoring.
package classify

import (
	"regexp"
	"strings"

	"github.com/brandscope/competitor-cli/internal/model"
)

// Entity flags in precedence order. The first flag whose forced type is
// non-empty decides the candidate's type; later matches still appear in
// the flag list.
const (
	FlagNewsMedia           = "news_media"
	FlagCommunityForum      = "community_forum"
	FlagFanAccount          = "fan_account"
	FlagInfluencerPersona   = "influencer_persona"
	FlagFounderPersonal     = "founder_personal"
	FlagMarketplaceListing  = "marketplace_listing"
	FlagAggregatorDirectory = "aggregator_directory"
	FlagDealerReseller      = "dealer_reseller"
	FlagFinanceTicker       = "finance_ticker"
)

type flagRule struct {
	name   string
	re     *regexp.Regexp
	forced model.CompetitorType
}

// flagRules are checked in order; precedence is the slice order.
var flagRules = []flagRule{
	{FlagNewsMedia, regexp.MustCompile(`\b(news|magazine|journalism|newspaper|press release|media outlet|editorial|breaking)\b`), model.TypeMedia},
	{FlagCommunityForum, regexp.MustCompile(`\b(community|forum|subreddit|discussion board|group for|meetup)\b`), model.TypeCommunity},
	{FlagFanAccount, regexp.MustCompile(`\bfan\s?(page|account|club)\b|\bfans of\b|\bfanpage\b`), model.TypeCommunity},
	{FlagInfluencerPersona, regexp.MustCompile(`\b(influencer|content creator|vlogger|blogger|ambassador|lifestyle creator)\b`), model.TypeInfluencer},
	{FlagFounderPersonal, regexp.MustCompile(`\b(founder|co-founder|ceo) of\b|\bpersonal (account|page|brand) of\b`), model.TypeInfluencer},
	{FlagMarketplaceListing, regexp.MustCompile(`\b(marketplace|storefront on|listed on|seller on|shop on (amazon|etsy|ebay))\b`), model.TypeMarketplace},
	{FlagAggregatorDirectory, regexp.MustCompile(`\b(directory|roundup|listicle|top \d+|best \d+|ranked|comparison site)\b`), model.TypeMarketplace},
	{FlagDealerReseller, regexp.MustCompile(`\b(dealer|reseller|distributor|authorized retailer|stockist)\b`), model.TypeMarketplace},
	// Informational only; never forces a type on its own.
	{FlagFinanceTicker, regexp.MustCompile(`\b(nasdaq|nyse|ticker|stock price|share price|earnings call|investor relations)\b`), ""},
}

// candidateText collates the text the flag rules inspect: handle, name,
// URLs, and the title, snippet and originating query of every piece of
// evidence.
func candidateText(c *model.ResolvedCandidate) string {
	var b strings.Builder
	b.WriteString(c.NormalizedHandle)
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(c.CanonicalName))
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(c.ProfileURL))
	for _, ev := range c.Evidence {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(ev.Title))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(ev.Snippet))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(ev.Query))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(ev.URL))
	}
	return b.String()
}

// detectFlags returns the matched flag names in precedence order and the
// first forced type, if any.
func detectFlags(text string) (flags []string, forced model.CompetitorType) {
	for _, rule := range flagRules {
		if !rule.re.MatchString(text) {
			continue
		}
		flags = append(flags, rule.name)
		if forced == "" && rule.forced != "" {
			forced = rule.forced
		}
	}
	return flags, forced
}
