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

package analytics

import (
	"context"
	"log/slog"

	"github.com/mikodusami/terminal-promptbuilder/internal/tokens"
	"github.com/mikodusami/terminal-promptbuilder/pkg/chain"
)

// Recorder adapts the store to the chain executor's usage hook. Recording
// failures are logged and swallowed so analytics can never break a chain.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

// NewRecorder wraps a store for use as a chain.Recorder.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{store: store, logger: logger}
}

// RecordStepUsage persists one chain step's usage.
func (r *Recorder) RecordStepUsage(ctx context.Context, usage chain.StepUsage) {
	pricing := tokens.PricingFor(usage.Model)
	cost := tokens.Cost(usage.Usage.InputTokens, pricing.InputPer1K) +
		tokens.Cost(usage.Usage.OutputTokens, pricing.OutputPer1K)

	err := r.store.Record(ctx, Record{
		Technique:    "chain:" + usage.Chain,
		Provider:     usage.Provider,
		Model:        usage.Model,
		InputTokens:  usage.Usage.InputTokens,
		OutputTokens: usage.Usage.OutputTokens,
		Cost:         cost,
		LatencyMS:    usage.LatencyMS,
		Success:      usage.Success,
		Tags:         usage.Step,
	})
	if err != nil {
		r.logger.Warn("failed to record chain usage",
			slog.String("chain", usage.Chain),
			slog.String("step", usage.Step),
			slog.String("error", err.Error()))
	}
}

var _ chain.Recorder = (*Recorder)(nil)
