package classify

import (
	"strings"

	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/query"
)

// Result is the classifier's verdict for one candidate.
type Result struct {
	Type       model.CompetitorType
	Confidence float64
	Flags      []string
	// Overlap is the share of brand anchor keywords present in the
	// candidate's evidence text, in [0,1].
	Overlap float64
}

// anchorKeywordCount bounds the brand keyword set used for overlap.
const anchorKeywordCount = 12

// Classifier assigns competitor types from entity flags and keyword
// overlap with the brand context. Pure and deterministic.
type Classifier struct {
	cfg     config.ScoreConfig
	anchors []string
}

// New builds a Classifier for one brand context.
func New(cfg config.ScoreConfig, brand *model.BrandContext) *Classifier {
	text := strings.Join([]string{brand.Niche, brand.Overview, brand.Audience}, " ")
	return &Classifier{
		cfg:     cfg,
		anchors: query.TopKeywords(text, anchorKeywordCount),
	}
}

// Classify tags one candidate. Entity flags force non-competitor types;
// otherwise the overlap thresholds for the precision mode decide between
// DIRECT, INDIRECT and ADJACENT.
func (cl *Classifier) Classify(c *model.ResolvedCandidate, precision model.Precision) Result {
	text := candidateText(c)
	flags, forced := detectFlags(text)
	overlap := cl.overlap(text)

	if forced != "" {
		conf := 0.6 + 0.1*float64(len(flags))
		if conf > 0.9 {
			conf = 0.9
		}
		return Result{Type: forced, Confidence: conf, Flags: flags, Overlap: overlap}
	}

	directMin := cl.cfg.DirectOverlapBalanced
	indirectMin := cl.cfg.IndirectOverlapBalanced
	if precision == model.PrecisionHigh {
		directMin = cl.cfg.DirectOverlapHigh
		indirectMin = cl.cfg.IndirectOverlapHigh
	}

	switch {
	case overlap >= directMin:
		return Result{Type: model.TypeDirect, Confidence: clamp(0.55+overlap*0.4, 0, 0.95), Flags: flags, Overlap: overlap}
	case overlap >= indirectMin:
		return Result{Type: model.TypeIndirect, Confidence: 0.6, Flags: flags, Overlap: overlap}
	default:
		return Result{Type: model.TypeAdjacent, Confidence: clamp(0.55+(indirectMin-overlap), 0, 0.9), Flags: flags, Overlap: overlap}
	}
}

// overlap measures how many brand anchor keywords appear in the
// candidate text.
func (cl *Classifier) overlap(text string) float64 {
	if len(cl.anchors) == 0 {
		return 0
	}
	matched := 0
	for _, kw := range cl.anchors {
		if strings.Contains(text, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(cl.anchors))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
