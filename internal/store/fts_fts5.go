//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/quire/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			note_id UNINDEXED,
			title,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, id, title, content string) error {
	if err := ftsDelete(ctx, tx, id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO notes_fts (note_id, title, content) VALUES (?, ?, ?)`, id, title, content)
	if err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete fts: %w", err)
	}
	return nil
}

// matchExpr quotes every term so user input is never parsed as FTS5 syntax,
// and ORs the terms together.
func matchExpr(query string) string {
	terms := searchTerms(query)
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

// TextSearch ranks notes by FTS5 relevance, evaluating the filter in the same statement.
func (s *SQLite) TextSearch(ctx context.Context, query string, f Filter, limit int) ([]models.Note, error) {
	if limit <= 0 {
		limit = 20
	}
	match := matchExpr(query)
	if match == "" {
		return []models.Note{}, nil
	}
	where, args := f.where()
	params := append([]any{match}, args...)
	params = append(params, limit)
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes_fts
		JOIN notes n ON n.id = notes_fts.note_id
		WHERE notes_fts MATCH ? AND `+where+`
		ORDER BY notes_fts.rank
		LIMIT ?
	`, params...)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	out, err := scanNotes(rows)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	return out, nil
}
