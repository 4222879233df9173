package model

import "time"

// RunPhase tracks where an orchestration run is in its lifecycle.
type RunPhase string

const (
	PhaseStarted    RunPhase = "started"
	PhaseCollecting RunPhase = "collecting"
	PhaseResolving  RunPhase = "resolving"
	PhaseScoring    RunPhase = "scoring"
	PhasePersisting RunPhase = "persisting"
	PhaseCompleted  RunPhase = "completed"
	PhaseFailed     RunPhase = "failed"
)

// Terminal reports whether the phase ends the run.
func (p RunPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// RunSummary aggregates the counts a completed run reports.
type RunSummary struct {
	CandidatesDiscovered    int `json:"candidates_discovered"`
	CandidatesFiltered      int `json:"candidates_filtered"`
	Shortlisted             int `json:"shortlisted"`
	TopPicks                int `json:"top_picks"`
	ProfileUnavailableCount int `json:"profile_unavailable_count"`
}

// DiscoveryRun is one orchestration run over a research job. At most one run
// per job may be in a non-terminal phase at a time.
type DiscoveryRun struct {
	ID        string     `json:"id" db:"id"`
	JobID     string     `json:"job_id" db:"job_id"`
	Phase     RunPhase   `json:"phase" db:"phase"`
	Precision Precision  `json:"precision" db:"precision"`
	Summary   RunSummary `json:"summary" db:"summary"`
	Error     string     `json:"error,omitempty" db:"error"`
	StartedAt time.Time  `json:"started_at" db:"started_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Progressed reports whether the run has recorded any measurable progress
// beyond being created. Stale-run takeover uses a shorter window for runs
// that never progressed.
func (r *DiscoveryRun) Progressed() bool {
	return r.Phase != PhaseStarted || r.Summary.CandidatesDiscovered > 0
}

// PipelineStage is the operator-facing triage tag derived per candidate.
type PipelineStage string

const (
	StageClientInputs         PipelineStage = "CLIENT_INPUTS"
	StageDiscoveredCandidates PipelineStage = "DISCOVERED_CANDIDATES"
	StageScrapeQueue          PipelineStage = "SCRAPE_QUEUE"
	StageScrapedReady         PipelineStage = "SCRAPED_READY"
	StageBlocked              PipelineStage = "BLOCKED"
)

// ScrapeStatus reflects the downstream scrape job linked to a candidate.
type ScrapeStatus string

const (
	ScrapeQueued    ScrapeStatus = "queued"
	ScrapeRunning   ScrapeStatus = "running"
	ScrapeCompleted ScrapeStatus = "completed"
	ScrapeFailed    ScrapeStatus = "failed"
)
