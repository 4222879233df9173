package materialize

import (
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/store"
)

// SourceClientIntake marks candidates supplied directly by the client
// rather than discovered by a connector.
const SourceClientIntake = "client_intake"

// DeriveStage computes the operator triage tag for one candidate. Blockers
// win over everything; a linked scrape then decides between queued and
// ready; intake-supplied candidates keep their own lane.
func DeriveStage(c *model.ScoredCandidate, scrape *store.ScrapeJob) model.PipelineStage {
	if blocked(c, scrape) {
		return model.StageBlocked
	}
	if scrape != nil {
		if scrape.Status == model.ScrapeCompleted {
			return model.StageScrapedReady
		}
		return model.StageScrapeQueue
	}
	for _, src := range c.Sources {
		if src == SourceClientIntake {
			return model.StageClientInputs
		}
	}
	return model.StageDiscoveredCandidates
}

func blocked(c *model.ScoredCandidate, scrape *store.ScrapeJob) bool {
	if c.State == model.StateRejected {
		return true
	}
	switch c.Availability {
	case model.AvailabilityInvalidHandle, model.AvailabilityProfileUnavailable:
		return true
	}
	return scrape != nil && scrape.Status == model.ScrapeFailed
}
