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

// Package history persists generated prompts in a local SQLite database
// with favorites, tags, and search.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

// Entry is one saved prompt.
type Entry struct {
	ID         int64
	Technique  string
	Task       string
	Prompt     string
	Tags       []string
	IsFavorite bool
	CreatedAt  time.Time
}

// Store is a SQLite-backed prompt history. Safe for concurrent use;
// SQLite serializes writes.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the history database at path. Special value
// ":memory:" creates an in-memory database for tests.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history database path is required")
	}

	// WAL mode for concurrent readers
	connStr := path
	if path != ":memory:" {
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS prompts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			technique   TEXT NOT NULL,
			task        TEXT NOT NULL,
			prompt      TEXT NOT NULL,
			tags        TEXT NOT NULL DEFAULT '',
			is_favorite INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_prompts_technique ON prompts(technique)`,
		`CREATE INDEX IF NOT EXISTS idx_prompts_created ON prompts(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_prompts_favorite ON prompts(is_favorite)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Save inserts a prompt and returns its ID.
func (s *Store) Save(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO prompts (technique, task, prompt, tags, is_favorite, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Technique, e.Task, e.Prompt, joinTags(e.Tags), boolToInt(e.IsFavorite),
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert prompt: %w", err)
	}
	return res.LastInsertId()
}

// Get returns the entry with the given ID.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, technique, task, prompt, tags, is_favorite, created_at
		 FROM prompts WHERE id = ?`, id)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, &errors.NotFoundError{Resource: "prompt", ID: fmt.Sprintf("%d", id)}
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	return e, nil
}

// ListRecent returns the most recent entries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.query(ctx,
		`SELECT id, technique, task, prompt, tags, is_favorite, created_at
		 FROM prompts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

// ListFavorites returns favorite entries, newest first.
func (s *Store) ListFavorites(ctx context.Context) ([]Entry, error) {
	return s.query(ctx,
		`SELECT id, technique, task, prompt, tags, is_favorite, created_at
		 FROM prompts WHERE is_favorite = 1 ORDER BY created_at DESC, id DESC`)
}

// Search returns entries whose task or tags contain the query string.
func (s *Store) Search(ctx context.Context, q string) ([]Entry, error) {
	pattern := "%" + q + "%"
	return s.query(ctx,
		`SELECT id, technique, task, prompt, tags, is_favorite, created_at
		 FROM prompts WHERE task LIKE ? OR tags LIKE ?
		 ORDER BY created_at DESC, id DESC`, pattern, pattern)
}

// SearchByTechnique returns entries built with the given technique.
func (s *Store) SearchByTechnique(ctx context.Context, technique string) ([]Entry, error) {
	return s.query(ctx,
		`SELECT id, technique, task, prompt, tags, is_favorite, created_at
		 FROM prompts WHERE technique = ? ORDER BY created_at DESC, id DESC`, technique)
}

// ToggleFavorite flips an entry's favorite flag and returns the new value.
func (s *Store) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE prompts SET is_favorite = 1 - is_favorite WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, &errors.NotFoundError{Resource: "prompt", ID: fmt.Sprintf("%d", id)}
	}

	e, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return e.IsFavorite, nil
}

// AddTags appends tags to an entry, skipping duplicates.
func (s *Store) AddTags(ctx context.Context, id int64, tags []string) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	existing := make(map[string]bool, len(e.Tags))
	merged := e.Tags
	for _, tag := range e.Tags {
		existing[tag] = true
	}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" && !existing[tag] {
			existing[tag] = true
			merged = append(merged, tag)
		}
	}

	_, err = s.db.ExecContext(ctx, `UPDATE prompts SET tags = ? WHERE id = ?`, joinTags(merged), id)
	if err != nil {
		return fmt.Errorf("update tags: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &errors.NotFoundError{Resource: "prompt", ID: fmt.Sprintf("%d", id)}
	}
	return nil
}

// ClearAll removes every entry and returns how many were deleted.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prompts`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prompts`).Scan(&n)
	return n, err
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var tags, created string
	var fav int
	if err := row.Scan(&e.ID, &e.Technique, &e.Task, &e.Prompt, &tags, &fav, &created); err != nil {
		return nil, err
	}
	e.Tags = splitTags(tags)
	e.IsFavorite = fav != 0
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		e.CreatedAt = t
	}
	return &e, nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
