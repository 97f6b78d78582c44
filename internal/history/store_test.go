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

package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	pberrors "github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, Entry{
		Technique: "cot",
		Task:      "explain goroutines",
		Prompt:    "Think through this step-by-step: ...",
		Tags:      []string{"go", "concurrency"},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	e, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if e.Technique != "cot" || e.Task != "explain goroutines" {
		t.Errorf("entry = %+v", e)
	}
	if len(e.Tags) != 2 || e.Tags[0] != "go" {
		t.Errorf("Tags = %v", e.Tags)
	}
	if e.IsFavorite {
		t.Error("new entry should not be a favorite")
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestStore_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), 999)
	var nf *pberrors.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestStore_ListRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := s.Save(ctx, Entry{
			Technique: "cot",
			Task:      "task",
			Prompt:    "p",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.ListRecent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Newest first.
	if !entries[0].CreatedAt.After(entries[2].CreatedAt) {
		t.Error("entries not ordered newest first")
	}
}

func TestStore_FavoritesAndToggle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, Entry{Technique: "role", Task: "t", Prompt: "p"})
	if err != nil {
		t.Fatal(err)
	}

	fav, err := s.ToggleFavorite(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !fav {
		t.Error("first toggle should set favorite")
	}

	favorites, err := s.ListFavorites(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(favorites) != 1 || favorites[0].ID != id {
		t.Errorf("favorites = %+v", favorites)
	}

	fav, err = s.ToggleFavorite(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if fav {
		t.Error("second toggle should clear favorite")
	}

	if _, err := s.ToggleFavorite(ctx, 12345); err == nil {
		t.Error("toggling an unknown ID should fail")
	}
}

func TestStore_Search(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, Entry{Technique: "cot", Task: "review auth middleware", Prompt: "p"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, Entry{Technique: "few_shot", Task: "write docs", Prompt: "p", Tags: []string{"auth"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, Entry{Technique: "cot", Task: "unrelated", Prompt: "p"}); err != nil {
		t.Fatal(err)
	}

	// Matches task text and tags.
	results, err := s.Search(ctx, "auth")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("Search('auth') returned %d entries, want 2", len(results))
	}

	byTechnique, err := s.SearchByTechnique(ctx, "cot")
	if err != nil {
		t.Fatal(err)
	}
	if len(byTechnique) != 2 {
		t.Errorf("SearchByTechnique('cot') returned %d entries, want 2", len(byTechnique))
	}
}

func TestStore_AddTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, Entry{Technique: "cot", Task: "t", Prompt: "p", Tags: []string{"one"}})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.AddTags(ctx, id, []string{"two", "one", " ", "three"}); err != nil {
		t.Fatal(err)
	}

	e, err := s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"one", "two", "three"}
	if len(e.Tags) != len(want) {
		t.Fatalf("Tags = %v, want %v", e.Tags, want)
	}
	for i := range want {
		if e.Tags[i] != want[i] {
			t.Errorf("Tags[%d] = %q, want %q", i, e.Tags[i], want[i])
		}
	}
}

func TestStore_DeleteAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, Entry{Technique: "cot", Task: "t", Prompt: "p"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, Entry{Technique: "cot", Task: "t2", Prompt: "p"}); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, id); err == nil {
		t.Error("deleting twice should fail")
	}

	n, err := s.ClearAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("ClearAll removed %d entries, want 1", n)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Count = %d after clear", count)
	}
}
