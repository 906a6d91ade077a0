package main

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/andes-data/procura-cli/internal/classify"
	"github.com/andes-data/procura-cli/internal/fetch"
	"github.com/andes-data/procura-cli/internal/rates"
	"github.com/andes-data/procura-cli/internal/store"
	"github.com/andes-data/procura-cli/pkg/anthropic"
)

// env bundles the shared per-invocation resources: store layout and run log.
type env struct {
	layout store.Layout
	runlog *store.RunLog
}

// initEnv builds the environment from the loaded config.
func initEnv() (*env, error) {
	layout := store.Layout{DataDir: cfg.Data.Dir}

	runlog, err := store.OpenRunLog(layout.RunLogPath())
	if err != nil {
		return nil, err
	}

	return &env{layout: layout, runlog: runlog}, nil
}

// Close releases the environment's resources.
func (e *env) Close() {
	_ = e.runlog.Close()
}

// anthropicClient builds the SDK-backed client, requiring a configured key.
func anthropicClient() (anthropic.Client, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic key not configured (set PROCURA_ANTHROPIC_KEY or anthropic.key)")
	}
	return anthropic.NewClient(cfg.Anthropic.Key), nil
}

// newClassifier builds the LLM-backed classification capability.
func newClassifier() (classify.Classifier, error) {
	client, err := anthropicClient()
	if err != nil {
		return nil, err
	}
	return classify.NewLLMClassifier(client, cfg.Anthropic.ClassifierModel, cfg.Anthropic.MaxTokens), nil
}

// newRateSource builds the LLM-backed rate-lookup capability.
func newRateSource() (rates.Source, error) {
	client, err := anthropicClient()
	if err != nil {
		return nil, err
	}
	return rates.NewLLMSource(client, cfg.Anthropic.RateModel), nil
}

// newFetchRegistry builds the acquisition source registry.
func newFetchRegistry() *fetch.Registry {
	return fetch.NewRegistry(fetch.NewHTTPFetcher(fetch.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
	}))
}
