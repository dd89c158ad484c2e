package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rahul/chainsmith/internal/catalog"
	"github.com/rahul/chainsmith/internal/chain"
	"github.com/rahul/chainsmith/internal/governance"
	"github.com/rahul/chainsmith/internal/llm"
	"github.com/rahul/chainsmith/internal/observability"
	"github.com/rahul/chainsmith/internal/store"
	"github.com/rahul/chainsmith/pkg/config"
)

// app bundles the collaborators every command needs.
type app struct {
	cfg       *config.Config
	logger    *observability.Logger
	catalog   *catalog.Catalog
	executor  *chain.Executor
	simulator *llm.Simulator
	policy    *governance.GoalPolicy
}

func newLogger(cfg *config.Config, w io.Writer) *observability.Logger {
	llmLog := ""
	if cfg.App.LogLLM {
		llmLog = filepath.Join("logs", "llm.jsonl")
	}
	return observability.NewLoggerTo(w, llmLog)
}

func loadApp(eventLog io.Writer) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.App.Catalog)
	if err != nil {
		return nil, err
	}

	m, err := newModel(cfg)
	if err != nil {
		return nil, err
	}

	policy, err := newPolicy(cfg)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg, eventLog)
	prompts := llm.NewPromptManager(cfg.App.PromptsDir)
	gen := llm.NewGenerator(m, prompts, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		catalog:   cat,
		executor:  chain.NewExecutor(gen, logger),
		simulator: llm.NewSimulator(m, prompts, logger),
		policy:    policy,
	}, nil
}

func newPolicy(cfg *config.Config) (*governance.GoalPolicy, error) {
	return governance.FromConfig(cfg.Policy.DenyPatterns, cfg.Policy.DenyTargets)
}

// newModel builds the model for the first enabled provider.
func newModel(cfg *config.Config) (llms.Model, error) {
	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		return nil, fmt.Errorf("no enabled provider found in config (or set %s)", config.APIKeyEnv)
	}

	switch pName {
	case "openai", "openrouter", "gemini":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("provider %s not yet implemented", pName)
	}
}

func openSelection(cfg *config.Config) (*store.SelectionStore, error) {
	return store.NewSelectionStore(cfg.Memory.Path)
}
