// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	DDG        DDGConfig        `yaml:"ddg" mapstructure:"ddg"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Events     EventsConfig     `yaml:"events" mapstructure:"events"`
	Policy     PolicyConfig     `yaml:"policy" mapstructure:"policy"`
	Collector  CollectorConfig  `yaml:"collector" mapstructure:"collector"`
	Resolver   ResolverConfig   `yaml:"resolver" mapstructure:"resolver"`
	Score      ScoreConfig      `yaml:"score" mapstructure:"score"`
	Run        RunConfig        `yaml:"run" mapstructure:"run"`
	Retention  RetentionConfig  `yaml:"retention" mapstructure:"retention"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings for the AI suggestion connector.
type AnthropicConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	Model            string  `yaml:"model" mapstructure:"model"`
	MaxPerPlatform   int     `yaml:"max_per_platform" mapstructure:"max_per_platform"`
	MinRelevance     float64 `yaml:"min_relevance" mapstructure:"min_relevance"`
	RequestTimeoutMs int     `yaml:"request_timeout_ms" mapstructure:"request_timeout_ms"`
}

// PerplexityConfig holds Perplexity API settings (fallback suggestion connector).
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// JinaConfig holds Jina AI Search settings (general web search connector).
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// DDGConfig holds DuckDuckGo HTML search settings (platform-direct connector).
type DDGConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results"`
}

// NotionConfig holds Notion export credentials.
type NotionConfig struct {
	Token       string `yaml:"token" mapstructure:"token"`
	ShortlistDB string `yaml:"shortlist_db" mapstructure:"shortlist_db"`
}

// EventsConfig configures the fire-and-forget telemetry webhook.
type EventsConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	TimeoutMs  int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

// PolicyConfig holds the Policy Engine thresholds.
type PolicyConfig struct {
	// LowQualityThreshold is the context quality below which website
	// candidates are restricted to evidence_only.
	LowQualityThreshold float64 `yaml:"low_quality_threshold" mapstructure:"low_quality_threshold"`
	// SocialFirstSurfaceCap / HybridSurfaceCap / WebFirstSurfaceCap limit the
	// social-surface pool size per focus.
	SocialFirstSurfaceCap int `yaml:"social_first_surface_cap" mapstructure:"social_first_surface_cap"`
	HybridSurfaceCap      int `yaml:"hybrid_surface_cap" mapstructure:"hybrid_surface_cap"`
	WebFirstSurfaceCap    int `yaml:"web_first_surface_cap" mapstructure:"web_first_surface_cap"`
}

// CollectorConfig holds collection budgets and yield targets.
type CollectorConfig struct {
	// BudgetSecsBalanced / BudgetSecsHigh are wall-clock budgets per run.
	BudgetSecsBalanced int `yaml:"budget_secs_balanced" mapstructure:"budget_secs_balanced"`
	BudgetSecsHigh     int `yaml:"budget_secs_high" mapstructure:"budget_secs_high"`
	// PerCallTimeoutMs caps a single connector call; the effective timeout
	// is further bounded by remaining budget minus a safety margin.
	PerCallTimeoutMs int `yaml:"per_call_timeout_ms" mapstructure:"per_call_timeout_ms"`
	SafetyMarginMs   int `yaml:"safety_margin_ms" mapstructure:"safety_margin_ms"`
	// MaxResultsPerQuery limits raw hits requested from each connector call.
	MaxResultsPerQuery int `yaml:"max_results_per_query" mapstructure:"max_results_per_query"`
	// SurfaceCapBalanced / SurfaceCapHigh trim the per-surface candidate
	// list after ranking.
	SurfaceCapBalanced int `yaml:"surface_cap_balanced" mapstructure:"surface_cap_balanced"`
	SurfaceCapHigh     int `yaml:"surface_cap_high" mapstructure:"surface_cap_high"`
	// RatePerSecond limits outbound connector calls.
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// ResolverConfig holds deep-validation limits.
type ResolverConfig struct {
	// ValidationMaxPerPlatform caps network-probed candidates per platform.
	ValidationMaxPerPlatform int `yaml:"validation_max_per_platform" mapstructure:"validation_max_per_platform"`
	// Concurrency is the worker pool size for deep validation.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	// ProbeTimeoutMs bounds a single HTTP profile probe.
	ProbeTimeoutMs int `yaml:"probe_timeout_ms" mapstructure:"probe_timeout_ms"`
	// Website corroboration floors (tightened under peer_candidate policy).
	WebsiteMinSources     int `yaml:"website_min_sources" mapstructure:"website_min_sources"`
	WebsiteMinURLEvidence int `yaml:"website_min_url_evidence" mapstructure:"website_min_url_evidence"`
	WebsiteMinHostMatches int `yaml:"website_min_host_matches" mapstructure:"website_min_host_matches"`
}

// ScoreConfig hoists every scoring, threshold and adaptive-fallback knob into
// one auditable place. Weights sum to 100.
type ScoreConfig struct {
	OfferOverlapWeight     float64 `yaml:"offer_overlap_weight" mapstructure:"offer_overlap_weight"`
	AudienceOverlapWeight  float64 `yaml:"audience_overlap_weight" mapstructure:"audience_overlap_weight"`
	NicheMatchWeight       float64 `yaml:"niche_match_weight" mapstructure:"niche_match_weight"`
	ActivityRecencyWeight  float64 `yaml:"activity_recency_weight" mapstructure:"activity_recency_weight"`
	SizeSimilarityWeight   float64 `yaml:"size_similarity_weight" mapstructure:"size_similarity_weight"`
	SourceConfidenceWeight float64 `yaml:"source_confidence_weight" mapstructure:"source_confidence_weight"`

	// PolicyExclusionPenalty is subtracted from the composite for
	// policy-excluded entity types.
	PolicyExclusionPenalty float64 `yaml:"policy_exclusion_penalty" mapstructure:"policy_exclusion_penalty"`
	// RAGAlignmentBoostMax caps the additive alignment boost.
	RAGAlignmentBoostMax float64 `yaml:"rag_alignment_boost_max" mapstructure:"rag_alignment_boost_max"`

	// Promotion thresholds per surface kind and precision (0-100 composite).
	SocialTopPickHigh        float64 `yaml:"social_top_pick_high" mapstructure:"social_top_pick_high"`
	SocialTopPickBalanced    float64 `yaml:"social_top_pick_balanced" mapstructure:"social_top_pick_balanced"`
	SocialShortlistHigh      float64 `yaml:"social_shortlist_high" mapstructure:"social_shortlist_high"`
	SocialShortlistBalanced  float64 `yaml:"social_shortlist_balanced" mapstructure:"social_shortlist_balanced"`
	WebsiteTopPickHigh       float64 `yaml:"website_top_pick_high" mapstructure:"website_top_pick_high"`
	WebsiteTopPickBalanced   float64 `yaml:"website_top_pick_balanced" mapstructure:"website_top_pick_balanced"`
	WebsiteShortlistHigh     float64 `yaml:"website_shortlist_high" mapstructure:"website_shortlist_high"`
	WebsiteShortlistBalanced float64 `yaml:"website_shortlist_balanced" mapstructure:"website_shortlist_balanced"`

	// Direct-peer evidence gate.
	PeerMinOfferOverlap    float64 `yaml:"peer_min_offer_overlap" mapstructure:"peer_min_offer_overlap"`
	PeerMinAudienceOverlap float64 `yaml:"peer_min_audience_overlap" mapstructure:"peer_min_audience_overlap"`
	PeerCombinedFloor      float64 `yaml:"peer_combined_floor" mapstructure:"peer_combined_floor"`
	PeerSemanticPeak       float64 `yaml:"peer_semantic_peak" mapstructure:"peer_semantic_peak"`

	// Adaptive fallback.
	MinShortlistHigh     int     `yaml:"min_shortlist_high" mapstructure:"min_shortlist_high"`
	MinShortlistBalanced int     `yaml:"min_shortlist_balanced" mapstructure:"min_shortlist_balanced"`
	FallbackScoreFloor   float64 `yaml:"fallback_score_floor" mapstructure:"fallback_score_floor"`
	FallbackMinSources   int     `yaml:"fallback_min_sources" mapstructure:"fallback_min_sources"`
	FallbackFactorFloor  float64 `yaml:"fallback_factor_floor" mapstructure:"fallback_factor_floor"`
	TopPickPromotions    int     `yaml:"top_pick_promotions" mapstructure:"top_pick_promotions"`

	// Classifier overlap thresholds (precision-dependent).
	DirectOverlapHigh       float64 `yaml:"direct_overlap_high" mapstructure:"direct_overlap_high"`
	DirectOverlapBalanced   float64 `yaml:"direct_overlap_balanced" mapstructure:"direct_overlap_balanced"`
	IndirectOverlapHigh     float64 `yaml:"indirect_overlap_high" mapstructure:"indirect_overlap_high"`
	IndirectOverlapBalanced float64 `yaml:"indirect_overlap_balanced" mapstructure:"indirect_overlap_balanced"`
}

// RunConfig holds orchestration-run lock settings.
type RunConfig struct {
	// StaleAfterSecs is how old a RUNNING run may be before takeover.
	StaleAfterSecs int `yaml:"stale_after_secs" mapstructure:"stale_after_secs"`
	// StaleNoProgressSecs is the shorter window for runs with no progress.
	StaleNoProgressSecs int `yaml:"stale_no_progress_secs" mapstructure:"stale_no_progress_secs"`
}

// RetentionConfig configures soft-archiving of dead candidates.
type RetentionConfig struct {
	ArchiveAfterDays int `yaml:"archive_after_days" mapstructure:"archive_after_days"`
	// FilteredDisplayCap bounds the filtered-out bucket in grouped views.
	FilteredDisplayCap int `yaml:"filtered_display_cap" mapstructure:"filtered_display_cap"`
}

// ServerConfig configures the read-only operator API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COMPETITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_per_platform", 10)
	v.SetDefault("anthropic.min_relevance", 0.4)
	v.SetDefault("anthropic.request_timeout_ms", 30000)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("ddg.base_url", "https://html.duckduckgo.com/html/")
	v.SetDefault("ddg.user_agent", "Mozilla/5.0 (compatible; competitor-cli/1.0)")
	v.SetDefault("ddg.max_results", 30)
	v.SetDefault("events.timeout_ms", 5000)

	v.SetDefault("policy.low_quality_threshold", 0.35)
	v.SetDefault("policy.social_first_surface_cap", 3)
	v.SetDefault("policy.hybrid_surface_cap", 3)
	v.SetDefault("policy.web_first_surface_cap", 2)

	v.SetDefault("collector.budget_secs_balanced", 45)
	v.SetDefault("collector.budget_secs_high", 60)
	v.SetDefault("collector.per_call_timeout_ms", 10000)
	v.SetDefault("collector.safety_margin_ms", 1500)
	v.SetDefault("collector.max_results_per_query", 20)
	v.SetDefault("collector.surface_cap_balanced", 25)
	v.SetDefault("collector.surface_cap_high", 15)
	v.SetDefault("collector.rate_per_second", 2.0)

	v.SetDefault("resolver.validation_max_per_platform", 8)
	v.SetDefault("resolver.concurrency", 6)
	v.SetDefault("resolver.probe_timeout_ms", 8000)
	v.SetDefault("resolver.website_min_sources", 2)
	v.SetDefault("resolver.website_min_url_evidence", 2)
	v.SetDefault("resolver.website_min_host_matches", 1)

	v.SetDefault("score.offer_overlap_weight", 30)
	v.SetDefault("score.audience_overlap_weight", 25)
	v.SetDefault("score.niche_match_weight", 20)
	v.SetDefault("score.activity_recency_weight", 10)
	v.SetDefault("score.size_similarity_weight", 10)
	v.SetDefault("score.source_confidence_weight", 5)
	v.SetDefault("score.policy_exclusion_penalty", 16)
	v.SetDefault("score.rag_alignment_boost_max", 8)
	v.SetDefault("score.social_top_pick_high", 70)
	v.SetDefault("score.social_top_pick_balanced", 62)
	v.SetDefault("score.social_shortlist_high", 55)
	v.SetDefault("score.social_shortlist_balanced", 48)
	v.SetDefault("score.website_top_pick_high", 78)
	v.SetDefault("score.website_top_pick_balanced", 70)
	v.SetDefault("score.website_shortlist_high", 64)
	v.SetDefault("score.website_shortlist_balanced", 56)
	v.SetDefault("score.peer_min_offer_overlap", 0.35)
	v.SetDefault("score.peer_min_audience_overlap", 0.3)
	v.SetDefault("score.peer_combined_floor", 0.85)
	v.SetDefault("score.peer_semantic_peak", 0.75)
	v.SetDefault("score.min_shortlist_high", 3)
	v.SetDefault("score.min_shortlist_balanced", 4)
	v.SetDefault("score.fallback_score_floor", 40)
	v.SetDefault("score.fallback_min_sources", 2)
	v.SetDefault("score.fallback_factor_floor", 0.2)
	v.SetDefault("score.top_pick_promotions", 2)
	v.SetDefault("score.direct_overlap_high", 0.6)
	v.SetDefault("score.direct_overlap_balanced", 0.5)
	v.SetDefault("score.indirect_overlap_high", 0.4)
	v.SetDefault("score.indirect_overlap_balanced", 0.3)

	v.SetDefault("run.stale_after_secs", 900)
	v.SetDefault("run.stale_no_progress_secs", 180)
	v.SetDefault("retention.archive_after_days", 14)
	v.SetDefault("retention.filtered_display_cap", 20)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
