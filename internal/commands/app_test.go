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

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppInitWithoutConfigFile(t *testing.T) {
	app := NewApp()
	app.ConfigDir = t.TempDir()

	require.NoError(t, app.Init())
	t.Cleanup(app.Close)

	cfg := app.Config()
	require.NotNil(t, cfg)
	assert.True(t, cfg.HistoryEnabled())
	assert.True(t, cfg.AnalyticsEnabled())
	assert.NotEmpty(t, cfg.LLM.DefaultProvider)
	assert.NotNil(t, app.Logger())
}

func TestAppInitReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgYAML := `llm:
  default_provider: openai
  max_tokens: 512
history:
  enabled: false
analytics:
  enabled: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfgYAML), 0o644))

	app := NewApp()
	app.ConfigDir = dir

	require.NoError(t, app.Init())
	t.Cleanup(app.Close)

	cfg := app.Config()
	assert.Equal(t, "openai", cfg.LLM.DefaultProvider)
	assert.Equal(t, 512, cfg.LLM.MaxTokens)
	assert.False(t, cfg.HistoryEnabled())
	assert.False(t, cfg.AnalyticsEnabled())

	// Disabled analytics means no recorder is attached to chain runs.
	assert.Nil(t, app.Recorder())
}

func TestAppConfigDirFlagOverride(t *testing.T) {
	dir := t.TempDir()
	app := NewApp()
	app.ConfigDir = dir

	got, err := app.configDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestAppStoresOpenLazily(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	app := NewApp()
	app.ConfigDir = t.TempDir()
	require.NoError(t, app.Init())
	t.Cleanup(app.Close)

	hist, err := app.History()
	require.NoError(t, err)
	require.NotNil(t, hist)

	// Repeated calls reuse the same store.
	again, err := app.History()
	require.NoError(t, err)
	assert.Same(t, hist, again)

	chains, err := app.Chains()
	require.NoError(t, err)
	assert.NotEmpty(t, chains.List(), "builtin chains should be listed")
}
