package query

import (
	"regexp"
	"strings"
)

// Archetype is a coarse business category used to pick query shapes and
// negative terms.
type Archetype string

const (
	ArchetypeGeneral         Archetype = "general"
	ArchetypeLocalBusiness   Archetype = "local_business"
	ArchetypeEcommerce       Archetype = "ecommerce"
	ArchetypeCreator         Archetype = "creator"
	ArchetypePersonalBrand   Archetype = "personal_brand"
	ArchetypeAgency          Archetype = "agency"
	ArchetypeSaaS            Archetype = "saas"
	ArchetypeNonprofit       Archetype = "nonprofit"
	ArchetypeEducation       Archetype = "education"
	ArchetypeEnterpriseBrand Archetype = "enterprise_brand"
)

// archetypeRank orders archetypes from least to most specific. Ties in
// keyword matches resolve to the lower-specificity archetype.
var archetypeRank = []Archetype{
	ArchetypeGeneral,
	ArchetypeLocalBusiness,
	ArchetypeEcommerce,
	ArchetypeCreator,
	ArchetypePersonalBrand,
	ArchetypeAgency,
	ArchetypeSaaS,
	ArchetypeNonprofit,
	ArchetypeEducation,
	ArchetypeEnterpriseBrand,
}

// archetypePatterns are the keyword regex families per archetype.
var archetypePatterns = map[Archetype][]*regexp.Regexp{
	ArchetypeLocalBusiness: {
		regexp.MustCompile(`\blocal\b`),
		regexp.MustCompile(`\b(restaurant|cafe|coffee shop|salon|barber|gym|studio|bakery|clinic)\b`),
		regexp.MustCompile(`\b(near me|neighborhood|storefront|brick.and.mortar)\b`),
	},
	ArchetypeEcommerce: {
		regexp.MustCompile(`\b(e-?commerce|online (store|shop)|shopify|dropship\w*)\b`),
		regexp.MustCompile(`\b(ship(ping|s)?|retail(er)?|merch(andise)?|dtc|d2c)\b`),
		regexp.MustCompile(`\bsell(s|ing)? (products|goods|apparel|clothing|jewelry)\b`),
	},
	ArchetypeCreator: {
		regexp.MustCompile(`\b(creator|influencer|content creat\w+|vlogger|blogger|streamer)\b`),
		regexp.MustCompile(`\b(youtube channel|podcast(er)?|tiktoker|instagrammer)\b`),
	},
	ArchetypePersonalBrand: {
		regexp.MustCompile(`\b(coach(ing)?|consultant|mentor(ship)?|speaker|author)\b`),
		regexp.MustCompile(`\bpersonal brand\b`),
		regexp.MustCompile(`\b(freelanc\w+|solopreneur)\b`),
	},
	ArchetypeAgency: {
		regexp.MustCompile(`\bagenc(y|ies)\b`),
		regexp.MustCompile(`\b(marketing|creative|design|branding|media) (firm|studio|shop)\b`),
		regexp.MustCompile(`\bclient (work|roster|accounts)\b`),
	},
	ArchetypeSaaS: {
		regexp.MustCompile(`\b(saas|software|platform|app|api)\b`),
		regexp.MustCompile(`\b(subscription|b2b tool|cloud.based)\b`),
	},
	ArchetypeNonprofit: {
		regexp.MustCompile(`\b(non.?profit|charit(y|ies|able)|donat\w+|foundation|ngo)\b`),
		regexp.MustCompile(`\b(volunteer\w*|fundrais\w+|mission.driven)\b`),
	},
	ArchetypeEducation: {
		regexp.MustCompile(`\b(education|school|university|college|academy|tutor\w*)\b`),
		regexp.MustCompile(`\b(course(s)?|curriculum|students|e-?learning|bootcamp)\b`),
	},
	ArchetypeEnterpriseBrand: {
		regexp.MustCompile(`\b(enterprise|fortune 500|multinational|global brand|corporation)\b`),
		regexp.MustCompile(`\b(publicly traded|nyse|nasdaq|conglomerate)\b`),
	},
}

// ClassifyArchetype picks the business archetype from free-text context.
// The archetype with the most keyword-family matches wins; ties resolve to
// the lowest-specificity archetype, and no matches at all mean general.
func ClassifyArchetype(niche, overview string) Archetype {
	text := strings.ToLower(Sanitize(niche + " " + overview))
	if text == "" {
		return ArchetypeGeneral
	}

	best := ArchetypeGeneral
	bestHits := 0
	for _, arch := range archetypeRank {
		hits := 0
		for _, re := range archetypePatterns[arch] {
			if re.MatchString(text) {
				hits++
			}
		}
		// Strictly greater: a tie keeps the earlier (less specific) archetype.
		if hits > bestHits {
			best = arch
			bestHits = hits
		}
	}
	return best
}

// financeHeavyRE recognizes businesses that are themselves about finance,
// for which finance-ticker negatives would be self-defeating.
var financeHeavyRE = regexp.MustCompile(`\b(finance|financial|invest\w+|trading|stocks?|crypto\w*|wealth)\b`)

// IsFinanceHeavy reports whether the brand's own niche is finance-centric.
func IsFinanceHeavy(niche, overview string) bool {
	return financeHeavyRE.MatchString(strings.ToLower(niche + " " + overview))
}
