//go:build sqlite_fts5

package store

import (
	"context"
	"testing"

	"github.com/starford/quire/internal/models"
)

func TestFTS_UpsertKeepsOneRowPerNote(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n := mustSave(t, s, &models.Note{Title: "alpha", Content: "first", Author: "a"})
	for _, title := range []string{"alpha two", "alpha three"} {
		n.Title = title
		mustSave(t, s, n)
	}

	var rows int
	if err := s.conn.QueryRow(`SELECT count(*) FROM notes_fts WHERE note_id = ?`, n.ID).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("fts rows = %d, want 1", rows)
	}

	got, err := s.TextSearch(ctx, "alpha", Filter{VisibleTo: "a"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "alpha three" {
		t.Errorf("search = %+v", got)
	}
}

func TestFTS_UpsertFailsWhenIndexUnavailable(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n := mustSave(t, s, &models.Note{Title: "alpha", Author: "a"})

	if _, err := s.conn.Exec(`DROP TABLE notes_fts`); err != nil {
		t.Fatal(err)
	}
	n.Title = "beta"
	if err := s.Save(ctx, n); err == nil {
		t.Fatal("Save should fail when the fts delete fails")
	}

	got, err := s.FindOne(ctx, Filter{ID: n.ID})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "alpha" {
		t.Errorf("title = %q, want rollback to alpha", got.Title)
	}
}
