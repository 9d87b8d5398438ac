package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

func testStore(t *testing.T) *SQLite {
	t.Helper()
	f, err := os.CreateTemp("", "quire-store-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustSave(t *testing.T, s *SQLite, n *models.Note) *models.Note {
	t.Helper()
	if err := s.Save(context.Background(), n); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return n
}

func TestSchemaCreation(t *testing.T) {
	s := testStore(t)
	for _, table := range []string{"users", "notes", "note_shares"} {
		var count int
		if err := s.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestSave_InsertAssignsIdentity(t *testing.T) {
	s := testStore(t)
	n := mustSave(t, s, &models.Note{Title: "Hello", Content: "World", Author: "a"})
	if n.ID == "" {
		t.Fatal("expected store-assigned id")
	}
	if n.Version != 1 {
		t.Errorf("version = %d, want 1", n.Version)
	}
	if n.CreatedAt.IsZero() || n.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	got, err := s.FindOne(context.Background(), Filter{ID: n.ID})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.Title != "Hello" || got.Content != "World" || got.Author != "a" {
		t.Errorf("got %+v", got)
	}
	if got.SharedWith == nil || len(got.SharedWith) != 0 {
		t.Errorf("shared_with = %#v, want empty non-nil", got.SharedWith)
	}
}

func TestSave_UpdateReplacesShares(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n := mustSave(t, s, &models.Note{Title: "T", Author: "a", SharedWith: []string{"b", "c"}})

	n.SharedWith = []string{"c"}
	n.Title = "T2"
	mustSave(t, s, n)
	if n.Version != 2 {
		t.Errorf("version = %d, want 2", n.Version)
	}

	got, err := s.FindOne(ctx, Filter{ID: n.ID})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.Title != "T2" {
		t.Errorf("title = %q", got.Title)
	}
	if len(got.SharedWith) != 1 || got.SharedWith[0] != "c" {
		t.Errorf("shared_with = %v, want [c]", got.SharedWith)
	}
}

func TestSave_StaleVersionConflicts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n := mustSave(t, s, &models.Note{Title: "T", Author: "a"})

	first := *n
	second := *n
	first.Title = "first"
	if err := s.Save(ctx, &first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	second.Title = "second"
	err := s.Save(ctx, &second)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second save err = %v, want conflict", err)
	}

	got, _ := s.FindOne(ctx, Filter{ID: n.ID})
	if got.Title != "first" {
		t.Errorf("title = %q, stale write must not land", got.Title)
	}
}

func TestSave_MissingNote(t *testing.T) {
	s := testStore(t)
	err := s.Save(context.Background(), &models.Note{ID: "ghost", Title: "x", Author: "a", Version: 1})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestFindOne_NotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.FindOne(context.Background(), Filter{ID: "nope"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestFindOne_EmptyIDMatchesNothing(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	mustSave(t, s, &models.Note{Title: "secret", Author: "a"})

	for _, f := range []Filter{{}, {Author: "a"}, {VisibleTo: "a"}} {
		if _, err := s.FindOne(ctx, f); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("FindOne(%+v) err = %v, want not found", f, err)
		}
	}
}

func TestFilter_Visibility(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	own := mustSave(t, s, &models.Note{Title: "own", Author: "a"})
	shared := mustSave(t, s, &models.Note{Title: "shared", Author: "b", SharedWith: []string{"a"}})
	mustSave(t, s, &models.Note{Title: "other", Author: "c", SharedWith: []string{"b"}})

	notes, err := s.FindMany(ctx, Filter{VisibleTo: "a"})
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("visible to a = %d, want 2", len(notes))
	}
	ids := map[string]bool{notes[0].ID: true, notes[1].ID: true}
	if !ids[own.ID] || !ids[shared.ID] {
		t.Errorf("unexpected notes %v", ids)
	}

	if _, err := s.FindOne(ctx, Filter{ID: shared.ID, VisibleTo: "c"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("c should not see b's note: %v", err)
	}
	if _, err := s.FindOne(ctx, Filter{ID: shared.ID, Author: "a"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("author filter should exclude shared notes: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n := mustSave(t, s, &models.Note{Title: "bye", Author: "a", SharedWith: []string{"b"}})

	if err := s.Delete(ctx, n); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.FindOne(ctx, Filter{ID: n.ID}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted note still found: %v", err)
	}
	var count int
	_ = s.conn.QueryRow(`SELECT count(*) FROM note_shares WHERE note_id = ?`, n.ID).Scan(&count)
	if count != 0 {
		t.Errorf("%d share rows left behind", count)
	}
}

func TestDelete_StaleVersion(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n := mustSave(t, s, &models.Note{Title: "T", Author: "a"})
	stale := *n
	n.Content = "changed"
	mustSave(t, s, n)

	if err := s.Delete(ctx, &stale); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestTextSearch_ScopedToFilter(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	mine := mustSave(t, s, &models.Note{Title: "Search Me", Content: "uniqueword appears here", Author: "a"})
	mustSave(t, s, &models.Note{Title: "Hidden", Content: "uniqueword in someone else's note", Author: "b"})

	results, err := s.TextSearch(ctx, "uniqueword", Filter{VisibleTo: "a"}, 10)
	if err != nil {
		t.Fatalf("TextSearch: %v", err)
	}
	if len(results) != 1 || results[0].ID != mine.ID {
		t.Errorf("results = %+v, want only a's note", results)
	}
}

func TestTextSearch_AnyTermMatches(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	mustSave(t, s, &models.Note{Title: "apples", Content: "red fruit", Author: "a"})
	mustSave(t, s, &models.Note{Title: "bananas", Content: "yellow fruit", Author: "a"})
	mustSave(t, s, &models.Note{Title: "carrots", Content: "vegetable", Author: "a"})

	results, err := s.TextSearch(ctx, "apples bananas", Filter{VisibleTo: "a"}, 10)
	if err != nil {
		t.Fatalf("TextSearch: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}
}

func TestTextSearch_SpecialCharacters(t *testing.T) {
	s := testStore(t)
	mustSave(t, s, &models.Note{Title: "T", Content: "plain", Author: "a"})
	for _, q := range []string{`"unbalanced`, `a AND OR`, `100%`, `under_score`, `NEAR(`} {
		if _, err := s.TextSearch(context.Background(), q, Filter{VisibleTo: "a"}, 10); err != nil {
			t.Errorf("query %q: %v", q, err)
		}
	}
}

func TestTextSearch_EmptyQuery(t *testing.T) {
	s := testStore(t)
	results, err := s.TextSearch(context.Background(), "   ", Filter{}, 10)
	if err != nil {
		t.Fatalf("TextSearch: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func TestUsers(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.CreateUser(ctx, "alice", "other"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate username err = %v, want already exists", err)
	}

	got, err := s.FindUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindUserByUsername: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" {
		t.Errorf("got %+v", got)
	}
	if _, err := s.FindUserByUsername(ctx, "nobody"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing user err = %v", err)
	}

	ok, err := s.UserExists(ctx, u.ID)
	if err != nil || !ok {
		t.Errorf("UserExists(%s) = %v, %v", u.ID, ok, err)
	}
	ok, _ = s.UserExists(ctx, "00000000-0000-0000-0000-000000000000")
	if ok {
		t.Error("unknown id should not exist")
	}
}
