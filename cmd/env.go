package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/talentsignal/employer-cli/internal/namecheck"
	"github.com/talentsignal/employer-cli/internal/pipeline"
	"github.com/talentsignal/employer-cli/internal/store"
	anthropicpkg "github.com/talentsignal/employer-cli/pkg/anthropic"
	"github.com/talentsignal/employer-cli/pkg/jina"
	"github.com/talentsignal/employer-cli/pkg/perplexity"
)

// pipelineEnv bundles the pipeline and its store so commands can share one
// initialization path and one Close.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

func (e *pipelineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initPipeline builds the pipeline against the real providers.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := validateAPIKeys(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	jinaClient := jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))
	perplexityClient := perplexity.NewClient(cfg.Perplexity.Key,
		perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
		perplexity.WithModel(cfg.Perplexity.Model))
	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)

	p := pipeline.New(cfg, st, jinaClient, perplexityClient, anthropicClient, namecheck.New())
	return &pipelineEnv{Store: st, Pipeline: p}, nil
}

// initOfflinePipeline builds the pipeline against canned stub providers, for
// dry runs without API keys.
func initOfflinePipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(cfg, st,
		&pipeline.StubJinaClient{Results: pipeline.DefaultStubHits()},
		&pipeline.StubPerplexityClient{Answer: "Registered office not found."},
		&pipeline.StubAnthropicClient{},
		namecheck.New())
	return &pipelineEnv{Store: st, Pipeline: p}, nil
}

func validateAPIKeys() error {
	switch {
	case cfg.Anthropic.Key == "":
		return eris.New("anthropic.key is not set (EMPLOYER_ANTHROPIC_KEY)")
	case cfg.Jina.Key == "":
		return eris.New("jina.key is not set (EMPLOYER_JINA_KEY)")
	case cfg.Perplexity.Key == "":
		return eris.New("perplexity.key is not set (EMPLOYER_PERPLEXITY_KEY)")
	}
	return nil
}
