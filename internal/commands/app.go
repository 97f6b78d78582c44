// Copyright 2025 mikodusami
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands implements the promptbuilder CLI: cobra command
// definitions plus the LLM-powered helper services they delegate to.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mikodusami/terminal-promptbuilder/internal/analytics"
	"github.com/mikodusami/terminal-promptbuilder/internal/config"
	"github.com/mikodusami/terminal-promptbuilder/internal/history"
	"github.com/mikodusami/terminal-promptbuilder/internal/log"
	"github.com/mikodusami/terminal-promptbuilder/internal/secrets"
	"github.com/mikodusami/terminal-promptbuilder/internal/share"
	"github.com/mikodusami/terminal-promptbuilder/pkg/chain"
	"github.com/mikodusami/terminal-promptbuilder/pkg/llm"
	"github.com/mikodusami/terminal-promptbuilder/pkg/template"
)

// App holds lazily constructed shared state for all commands. Stores and
// clients are only opened when a command actually needs them.
type App struct {
	// Persistent flag values, bound by NewRootCommand.
	JSON      bool
	LogLevel  string
	ConfigDir string

	cfg       *config.Config
	logger    *slog.Logger
	resolver  *secrets.Resolver
	registry  *llm.Registry
	client    *llm.Client
	histStore *history.Store
	anaStore  *analytics.Store
	chains    *chain.Store
	templates *template.Manager
	sharing   *share.Service
}

// NewApp creates an App with nothing initialized yet.
func NewApp() *App {
	return &App{}
}

// configDir resolves the configuration directory, honoring --config-dir.
func (a *App) configDir() (string, error) {
	if a.ConfigDir != "" {
		return a.ConfigDir, nil
	}
	return config.ConfigDir()
}

// Init loads configuration and builds the logger. Called from the root
// command's PersistentPreRunE so every subcommand sees the same state.
func (a *App) Init() error {
	dir, err := a.configDir()
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(cfgPath); err != nil {
		cfgPath = ""
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := log.FromEnv()
	if a.LogLevel != "" {
		logCfg.Level = a.LogLevel
	} else if cfg.Log.Level != "" {
		logCfg.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		logCfg.Format = log.Format(cfg.Log.Format)
	}
	logCfg.Output = os.Stderr
	a.logger = log.New(logCfg)
	return nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Resolver returns the API key resolver, constructing it on first use.
func (a *App) Resolver() *secrets.Resolver {
	if a.resolver == nil {
		a.resolver = secrets.NewResolver()
	}
	return a.resolver
}

// Registry returns the provider registry with factories from the providers
// package already registered via init.
func (a *App) Registry() *llm.Registry {
	if a.registry == nil {
		a.registry = llm.DefaultRegistry()
	}
	return a.registry
}

// Client activates every provider the user has a key for and returns a
// routing client. Activation failures for individual providers are logged
// and skipped so one bad key does not take down the others.
func (a *App) Client() (*llm.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	registry := a.Registry()
	activated := 0
	for _, name := range secrets.Providers() {
		key, err := a.Resolver().APIKey(name)
		if err != nil {
			continue
		}
		creds := llm.APIKeyCredentials{APIKey: key}
		if pc, ok := a.cfg.Providers[name]; ok {
			creds.BaseURL = pc.BaseURL
		}
		if err := registry.Activate(name, creds); err != nil {
			a.Logger().Warn("provider activation failed",
				log.String("provider", name), log.Error(err))
			continue
		}
		a.Logger().Debug("provider activated",
			log.String("provider", name),
			log.String("credentials", creds.Redacted()))
		activated++
	}
	if activated == 0 {
		return nil, fmt.Errorf("no providers configured: set an API key with 'promptbuilder provider set-key' or an environment variable like ANTHROPIC_API_KEY")
	}

	if def := a.cfg.LLM.DefaultProvider; def != "" && registry.IsActive(def) {
		if err := registry.SetDefault(def); err != nil {
			return nil, err
		}
	}
	if fb := a.cfg.LLM.FallbackProvider; fb != "" && registry.IsActive(fb) {
		if err := registry.SetFallback(fb); err != nil {
			return nil, err
		}
	}

	a.client = llm.NewClient(registry, a.cfg.LLM.ProviderOrder, a.Logger())
	return a.client, nil
}

// History opens the prompt history store.
func (a *App) History() (*history.Store, error) {
	if a.histStore != nil {
		return a.histStore, nil
	}
	path, err := a.cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	store, err := history.NewStore(path)
	if err != nil {
		return nil, err
	}
	a.histStore = store
	return store, nil
}

// Analytics opens the usage analytics store.
func (a *App) Analytics() (*analytics.Store, error) {
	if a.anaStore != nil {
		return a.anaStore, nil
	}
	path, err := a.cfg.AnalyticsPath()
	if err != nil {
		return nil, err
	}
	store, err := analytics.NewStore(path)
	if err != nil {
		return nil, err
	}
	a.anaStore = store
	return store, nil
}

// Chains opens the chain store (builtin chains plus user chains.json).
func (a *App) Chains() (*chain.Store, error) {
	if a.chains != nil {
		return a.chains, nil
	}
	dir, err := a.configDir()
	if err != nil {
		return nil, err
	}
	store, err := chain.NewStore(filepath.Join(dir, "chains.json"))
	if err != nil {
		return nil, err
	}
	a.chains = store
	return store, nil
}

// Templates opens the custom template manager.
func (a *App) Templates() (*template.Manager, error) {
	if a.templates != nil {
		return a.templates, nil
	}
	path, err := a.cfg.TemplatesPath()
	if err != nil {
		return nil, err
	}
	mgr, err := template.NewManager(path)
	if err != nil {
		return nil, err
	}
	a.templates = mgr
	return mgr, nil
}

// Sharing opens the prompt library service.
func (a *App) Sharing() (*share.Service, error) {
	if a.sharing != nil {
		return a.sharing, nil
	}
	dir, err := a.configDir()
	if err != nil {
		return nil, err
	}
	svc, err := share.NewService(dir)
	if err != nil {
		return nil, err
	}
	a.sharing = svc
	return svc, nil
}

// Recorder returns a chain usage recorder backed by the analytics store,
// or nil when analytics is disabled.
func (a *App) Recorder() chain.Recorder {
	if !a.cfg.AnalyticsEnabled() {
		return nil
	}
	store, err := a.Analytics()
	if err != nil {
		a.Logger().Warn("analytics store unavailable", log.Error(err))
		return nil
	}
	return analytics.NewRecorder(store, a.Logger())
}

// Close releases any stores the session opened.
func (a *App) Close() {
	if a.histStore != nil {
		a.histStore.Close()
	}
	if a.anaStore != nil {
		a.anaStore.Close()
	}
}
