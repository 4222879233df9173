package main

import (
	"context"
	"time"

	"github.com/brandscope/competitor-cli/internal/collect"
	"github.com/brandscope/competitor-cli/internal/orchestrator"
	"github.com/brandscope/competitor-cli/internal/resolve"
	"github.com/brandscope/competitor-cli/internal/store"
	"github.com/brandscope/competitor-cli/pkg/anthropic"
	"github.com/brandscope/competitor-cli/pkg/ddg"
	"github.com/brandscope/competitor-cli/pkg/jina"
	"github.com/brandscope/competitor-cli/pkg/perplexity"
)

// openStore connects to the configured database backend.
func openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

// buildDeps wires the live connectors from config. The Perplexity fallback
// tier is only attached when a key is configured.
func buildDeps(st store.Store) orchestrator.Deps {
	jinaClient := newJinaClient()
	ddgClient := newDDGClient()

	deps := orchestrator.Deps{
		Store:     st,
		Web:       collect.NewJinaSearch(jinaClient),
		Platform:  collect.NewDDGSearch(ddgClient),
		Suggester: collect.NewAnthropicSuggester(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic),
		Validator: resolve.NewDDGValidator(ddgClient),
		Prober:    resolve.NewHTTPProber(time.Duration(cfg.Resolver.ProbeTimeoutMs) * time.Millisecond),
		Reader:    jinaClient,
	}

	if cfg.Perplexity.Key != "" {
		var opts []perplexity.Option
		if cfg.Perplexity.BaseURL != "" {
			opts = append(opts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
		}
		if cfg.Perplexity.Model != "" {
			opts = append(opts, perplexity.WithModel(cfg.Perplexity.Model))
		}
		deps.Fallback = collect.NewPerplexitySuggester(perplexity.NewClient(cfg.Perplexity.Key, opts...), cfg.Anthropic)
	}

	return deps
}

func newJinaClient() jina.Client {
	var opts []jina.Option
	if cfg.Jina.SearchBaseURL != "" {
		opts = append(opts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	}
	return jina.NewClient(cfg.Jina.Key, opts...)
}

func newDDGClient() ddg.Client {
	var opts []ddg.Option
	if cfg.DDG.BaseURL != "" {
		opts = append(opts, ddg.WithBaseURL(cfg.DDG.BaseURL))
	}
	if cfg.DDG.UserAgent != "" {
		opts = append(opts, ddg.WithUserAgent(cfg.DDG.UserAgent))
	}
	return ddg.NewClient(opts...)
}
