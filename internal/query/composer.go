// Package query composes deterministic per-surface search query sets from
// brand context and discovery policy.
package query

import (
	"fmt"
	"strings"

	"github.com/brandscope/competitor-cli/internal/model"
)

// alwaysNegative terms exclude generic search noise on every surface.
var alwaysNegative = []string{"coupon", "promo code", "meme", "fan page", "wallpaper", "giveaway"}

// financeNegative terms keep ticker chatter out of enterprise-brand results.
var financeNegative = []string{"stock", "ticker", "share price"}

// queriesPerSurface bounds the query set per surface by precision.
func queriesPerSurface(p model.Precision) int {
	if p == model.PrecisionHigh {
		return 3
	}
	return 5
}

// Compose builds the per-surface query plan. It is a pure function: the same
// brand, policy and precision always produce the same plan, byte for byte.
func Compose(brand *model.BrandContext, policy *model.DiscoveryPolicy, precision model.Precision) map[model.Surface][]string {
	name := Sanitize(brand.BrandName)
	niche := Sanitize(brand.Niche)

	archetype := ClassifyArchetype(brand.Niche, brand.Overview)

	bizTokens := TopKeywords(niche+" "+Sanitize(brand.Overview), 4)
	bizAnchor := strings.Join(bizTokens, " ")
	if bizAnchor == "" {
		bizAnchor = niche
	}
	if bizAnchor == "" {
		bizAnchor = strings.ToLower(name)
	}

	audTokens := TopKeywords(brand.Audience, 3)
	audAnchor := strings.Join(audTokens, " ")

	negatives := negativeClause(archetype, brand)

	out := make(map[model.Surface][]string, len(policy.Surfaces))
	limit := queriesPerSurface(precision)
	for _, surface := range policy.Surfaces {
		qs := surfaceQueries(surface, name, bizAnchor, audAnchor, archetype, brand.Handles[surface], negatives)
		qs = dedupeQueries(qs)
		if len(qs) > limit {
			qs = qs[:limit]
		}
		out[surface] = qs
	}
	return out
}

// negativeClause builds the trailing "-term" clause shared by all queries.
func negativeClause(archetype Archetype, brand *model.BrandContext) string {
	terms := make([]string, 0, len(alwaysNegative)+len(financeNegative))
	terms = append(terms, alwaysNegative...)
	if archetype == ArchetypeEnterpriseBrand && !IsFinanceHeavy(brand.Niche, brand.Overview) {
		terms = append(terms, financeNegative...)
	}

	var b strings.Builder
	for _, t := range terms {
		if strings.Contains(t, " ") {
			fmt.Fprintf(&b, ` -"%s"`, t)
		} else {
			fmt.Fprintf(&b, " -%s", t)
		}
	}
	return b.String()
}

// archetypeHint tailors query phrasing per business category.
func archetypeHint(a Archetype) string {
	switch a {
	case ArchetypeCreator, ArchetypePersonalBrand:
		return "creators"
	case ArchetypeEcommerce:
		return "brands"
	case ArchetypeAgency:
		return "agencies"
	case ArchetypeSaaS:
		return "tools"
	case ArchetypeNonprofit:
		return "organizations"
	case ArchetypeEducation:
		return "programs"
	case ArchetypeLocalBusiness:
		return "businesses"
	default:
		return "accounts"
	}
}

func surfaceQueries(surface model.Surface, name, bizAnchor, audAnchor string, archetype Archetype, knownHandle, neg string) []string {
	hint := archetypeHint(archetype)

	var qs []string
	switch surface {
	case model.SurfaceInstagram:
		qs = append(qs,
			fmt.Sprintf("site:instagram.com %s%s", bizAnchor, neg),
			fmt.Sprintf("best %s instagram %s%s", bizAnchor, hint, neg),
			fmt.Sprintf("top %s instagram accounts%s", bizAnchor, neg),
		)
		if knownHandle != "" {
			qs = append(qs, fmt.Sprintf("instagram accounts like @%s%s", strings.TrimPrefix(knownHandle, "@"), neg))
		}
		if audAnchor != "" {
			qs = append(qs, fmt.Sprintf("%s instagram for %s%s", bizAnchor, audAnchor, neg))
		}
	case model.SurfaceTikTok:
		qs = append(qs,
			fmt.Sprintf("site:tiktok.com %s%s", bizAnchor, neg),
			fmt.Sprintf("best %s tiktok %s%s", bizAnchor, hint, neg),
			fmt.Sprintf("%s tiktok accounts to follow%s", bizAnchor, neg),
		)
		if knownHandle != "" {
			qs = append(qs, fmt.Sprintf("tiktok accounts like @%s%s", strings.TrimPrefix(knownHandle, "@"), neg))
		}
		if audAnchor != "" {
			qs = append(qs, fmt.Sprintf("%s tiktok for %s%s", bizAnchor, audAnchor, neg))
		}
	case model.SurfaceYouTube:
		qs = append(qs,
			fmt.Sprintf("site:youtube.com %s channel%s", bizAnchor, neg),
			fmt.Sprintf("best %s youtube channels%s", bizAnchor, neg),
			fmt.Sprintf("%s youtube %s%s", bizAnchor, hint, neg),
		)
	case model.SurfaceLinkedIn:
		qs = append(qs,
			fmt.Sprintf("site:linkedin.com/company %s%s", bizAnchor, neg),
			fmt.Sprintf("%s companies linkedin%s", bizAnchor, neg),
			fmt.Sprintf("top %s %s linkedin%s", bizAnchor, hint, neg),
		)
	case model.SurfaceX:
		qs = append(qs,
			fmt.Sprintf("site:x.com %s%s", bizAnchor, neg),
			fmt.Sprintf("site:twitter.com %s%s", bizAnchor, neg),
			fmt.Sprintf("%s accounts to follow twitter%s", bizAnchor, neg),
		)
	case model.SurfaceFacebook:
		qs = append(qs,
			fmt.Sprintf("site:facebook.com %s%s", bizAnchor, neg),
			fmt.Sprintf("%s facebook pages%s", bizAnchor, neg),
		)
	case model.SurfaceWebsite:
		qs = append(qs,
			fmt.Sprintf(`"%s" competitors%s`, name, neg),
			fmt.Sprintf(`"%s" alternatives%s`, name, neg),
			fmt.Sprintf("best %s %s%s", bizAnchor, hint, neg),
		)
		if audAnchor != "" {
			qs = append(qs, fmt.Sprintf("%s %s for %s%s", bizAnchor, hint, audAnchor, neg))
		}
	}
	return qs
}

// dedupeQueries removes queries equal under whitespace-collapsed lowercase
// comparison, preserving first occurrence order.
func dedupeQueries(qs []string) []string {
	seen := make(map[string]bool, len(qs))
	var out []string
	for _, q := range qs {
		key := strings.Join(strings.Fields(strings.ToLower(q)), " ")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}
