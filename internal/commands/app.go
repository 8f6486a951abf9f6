package commands

import (
	"fmt"
	"time"

	"github.com/hay-kot/dyna/internal/agent"
	"github.com/hay-kot/dyna/internal/core/config"
	"github.com/hay-kot/dyna/internal/core/outline"
	"github.com/hay-kot/dyna/internal/core/userstate"
	"github.com/hay-kot/dyna/internal/data/db"
	"github.com/hay-kot/dyna/internal/data/stores"
	"github.com/hay-kot/dyna/internal/integration/dynalist"
	"github.com/hay-kot/dyna/internal/integration/openai"
)

// App holds the services shared by commands. main populates it in the root
// Before hook; commands hold a pointer to it from registration time.
type App struct {
	Version string
	Config  *config.Config
	DB      *db.DB
	KV      *stores.KVStore
	Users   *userstate.KVStore
	History *agent.History
}

// NewApp wires the storage-backed services.
func NewApp(version string, cfg *config.Config, database *db.DB) *App {
	kvStore := stores.NewKVStore(database)
	return &App{
		Version: version,
		Config:  cfg,
		DB:      database,
		KV:      kvStore,
		Users:   userstate.NewKVStore(kvStore, cfg.Bot.ProcessingTTL),
		History: agent.NewHistory(kvStore, cfg.Agent.CheckpointTTL, cfg.Agent.MaxHistory),
	}
}

// Outlines returns the Dynalist client factory.
func (a *App) Outlines() outline.ClientFactory {
	return dynalist.Factory(a.Config.Dynalist.BaseURL, a.Config.Dynalist.Timeout)
}

// OutlineClient returns a client bound to the configured Dynalist token.
func (a *App) OutlineClient() (outline.Client, error) {
	if err := a.Config.RequireDynalistToken(); err != nil {
		return nil, err
	}
	return a.Outlines()(a.Config.Dynalist.Token), nil
}

// Runtime builds the production agent runtime.
func (a *App) Runtime() (*agent.Runtime, error) {
	cfg := a.Config
	if err := cfg.RequireAgent(); err != nil {
		return nil, err
	}

	memory := agent.NewMemory(cfg.Agent.MemoryListTitle, time.Now)
	prompt, err := agent.LoadPrompt(cfg.Agent.SystemPrompt, a.Version, memory, time.Now)
	if err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}

	return agent.New(agent.Options{
		LLM:      openai.New(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Timeout),
		Model:    cfg.OpenAI.Model,
		Clients:  a.Outlines(),
		History:  a.History,
		Prompt:   prompt,
		MaxSteps: cfg.Agent.MaxSteps,
	}), nil
}
