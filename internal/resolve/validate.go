// Package resolve verifies that collected candidates refer to real,
// reachable accounts before they are scored.
package resolve

import (
	"context"
	"regexp"

	"github.com/brandscope/competitor-cli/internal/model"
)

// Validation is the verdict from a search-based handle check.
type Validation struct {
	// Conclusive reports whether the check saw enough references to settle
	// existence without a direct profile probe.
	Conclusive bool
	Exists     bool
	Confidence float64
	References int
	Reason     string
}

// HandleValidator checks handle existence through search references,
// without touching the platform directly.
type HandleValidator interface {
	Name() string
	ValidateHandle(ctx context.Context, surface model.Surface, handle string) (Validation, error)
}

// ProbeResult is the verdict from a direct HTTP profile probe.
type ProbeResult struct {
	Exists     bool
	Confidence float64
	Reason     string
}

// ProfileProber fetches a profile URL directly to settle existence when
// search-based validation is inconclusive.
type ProfileProber interface {
	Name() string
	Probe(ctx context.Context, surface model.Surface, handle string) (ProbeResult, error)
}

// Platform handle grammars. Handles are normalized (folded, no "@")
// before they reach the resolver.
var handleGrammar = map[model.Surface]*regexp.Regexp{
	model.SurfaceInstagram: regexp.MustCompile(`^[a-z0-9_.]{1,30}$`),
	model.SurfaceTikTok:    regexp.MustCompile(`^[a-z0-9_.]{2,24}$`),
	model.SurfaceYouTube:   regexp.MustCompile(`^[a-z0-9_.-]{3,30}$`),
	model.SurfaceLinkedIn:  regexp.MustCompile(`^[a-z0-9-]{2,60}$`),
	model.SurfaceX:         regexp.MustCompile(`^[a-z0-9_]{1,15}$`),
	model.SurfaceFacebook:  regexp.MustCompile(`^[a-z0-9.]{3,50}$`),
}

// ValidHandleSyntax reports whether a normalized handle is even possible
// on its platform.
func ValidHandleSyntax(surface model.Surface, handle string) bool {
	re, ok := handleGrammar[surface]
	if !ok {
		return handle != ""
	}
	return re.MatchString(handle)
}
