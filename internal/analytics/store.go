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

// Package analytics tracks LLM usage: tokens, cost, latency, and success
// per call, with aggregate summaries and a filterable JSON export.
package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mikodusami/terminal-promptbuilder/internal/jq"
)

// Record is one LLM call's usage.
type Record struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Technique    string    `json:"technique,omitempty"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Cost         float64   `json:"cost"`
	LatencyMS    int64     `json:"latency_ms"`
	Success      bool      `json:"success"`
	Tags         string    `json:"tags,omitempty"`
}

// Summary aggregates usage over a window.
type Summary struct {
	Days          int
	TotalRequests int64
	TotalTokens   int64
	TotalCost     float64
	SuccessRate   float64
	AvgLatencyMS  float64
	TopTechniques []NameCount
	TopModels     []NameCount
}

// NameCount pairs a dimension value with its request count.
type NameCount struct {
	Name  string
	Count int64
}

// CostEntry is one provider's share of total cost.
type CostEntry struct {
	Provider string
	Requests int64
	Tokens   int64
	Cost     float64
}

// Store is a SQLite-backed usage log.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the analytics database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("analytics database path is required")
	}

	connStr := path
	if path != ":memory:" {
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to analytics database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate analytics schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS usage (
			id            TEXT PRIMARY KEY,
			timestamp     TEXT NOT NULL,
			technique     TEXT NOT NULL DEFAULT '',
			provider      TEXT NOT NULL,
			model         TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			cost          REAL NOT NULL,
			latency_ms    INTEGER NOT NULL,
			success       INTEGER NOT NULL,
			tags          TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_provider ON usage(provider)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Record persists a usage record. A missing ID gets a UUID; a zero
// timestamp gets the current time.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	success := 0
	if rec.Success {
		success = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage
			(id, timestamp, technique, provider, model, input_tokens, output_tokens,
			 cost, latency_ms, success, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UTC().Format(time.RFC3339), rec.Technique,
		rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens,
		rec.Cost, rec.LatencyMS, success, rec.Tags,
	)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

// Summary aggregates usage over the last N days.
func (s *Store) Summary(ctx context.Context, days int) (*Summary, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days).UTC().Format(time.RFC3339)

	summary := &Summary{Days: days}
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(input_tokens + output_tokens), 0),
		        COALESCE(SUM(cost), 0),
		        COALESCE(AVG(success), 0),
		        COALESCE(AVG(latency_ms), 0)
		 FROM usage WHERE timestamp >= ?`, since)
	if err := row.Scan(&summary.TotalRequests, &summary.TotalTokens,
		&summary.TotalCost, &summary.SuccessRate, &summary.AvgLatencyMS); err != nil {
		return nil, fmt.Errorf("aggregate usage: %w", err)
	}

	var err error
	summary.TopTechniques, err = s.topCounts(ctx, "technique", since)
	if err != nil {
		return nil, err
	}
	summary.TopModels, err = s.topCounts(ctx, "model", since)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *Store) topCounts(ctx context.Context, column, since string) ([]NameCount, error) {
	// column is one of the fixed dimension names above, never user input.
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM usage
			 WHERE timestamp >= ? AND %s != ''
			 GROUP BY %s ORDER BY COUNT(*) DESC LIMIT 5`, column, column, column),
		since)
	if err != nil {
		return nil, fmt.Errorf("top %s: %w", column, err)
	}
	defer rows.Close()

	var counts []NameCount
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, nc)
	}
	return counts, rows.Err()
}

// TechniqueStats returns request counts per technique over all time.
func (s *Store) TechniqueStats(ctx context.Context) ([]NameCount, error) {
	return s.topCounts(ctx, "technique", time.Time{}.Format(time.RFC3339))
}

// CostBreakdown returns per-provider totals over the last N days.
func (s *Store) CostBreakdown(ctx context.Context, days int) ([]CostEntry, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days).UTC().Format(time.RFC3339)

	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, COUNT(*),
		        COALESCE(SUM(input_tokens + output_tokens), 0),
		        COALESCE(SUM(cost), 0)
		 FROM usage WHERE timestamp >= ?
		 GROUP BY provider ORDER BY SUM(cost) DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("cost breakdown: %w", err)
	}
	defer rows.Close()

	var entries []CostEntry
	for rows.Next() {
		var e CostEntry
		if err := rows.Scan(&e.Provider, &e.Requests, &e.Tokens, &e.Cost); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Recent returns the most recent records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, technique, provider, model, input_tokens,
		        output_tokens, cost, latency_ms, success, tags
		 FROM usage ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent usage: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var ts string
		var success int
		if err := rows.Scan(&rec.ID, &ts, &rec.Technique, &rec.Provider, &rec.Model,
			&rec.InputTokens, &rec.OutputTokens, &rec.Cost, &rec.LatencyMS,
			&success, &rec.Tags); err != nil {
			return nil, err
		}
		rec.Success = success != 0
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ExportJSON serializes all records, optionally filtered through a jq
// expression.
func (s *Store) ExportJSON(ctx context.Context, filter string) ([]byte, error) {
	records, err := s.Recent(ctx, 1<<30)
	if err != nil {
		return nil, err
	}

	if filter != "" {
		// Round-trip through generic JSON so jq sees plain maps.
		raw, err := json.Marshal(records)
		if err != nil {
			return nil, err
		}
		var generic interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, err
		}

		filtered, err := jq.NewExecutor(0, 0).Execute(ctx, filter, generic)
		if err != nil {
			return nil, fmt.Errorf("jq filter: %w", err)
		}
		return json.MarshalIndent(filtered, "", "  ")
	}

	return json.MarshalIndent(records, "", "  ")
}

// PruneOlderThan deletes records older than the given number of days and
// returns how many were removed.
func (s *Store) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `DELETE FROM usage WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune usage: %w", err)
	}
	return res.RowsAffected()
}
