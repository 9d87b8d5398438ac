//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/quire/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE over notes.title and notes.content.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _, _, _ string) error { return nil }

func ftsDelete(_ context.Context, _ *sql.Tx, _ string) error { return nil }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// TextSearch performs a LIKE-based search (fallback when FTS5 is not compiled in).
// A note matches when any term appears in its title or content.
func (s *SQLite) TextSearch(ctx context.Context, query string, f Filter, limit int) ([]models.Note, error) {
	if limit <= 0 {
		limit = 20
	}
	terms := searchTerms(query)
	if len(terms) == 0 {
		return []models.Note{}, nil
	}
	conds := make([]string, 0, len(terms))
	var params []any
	for _, t := range terms {
		like := "%" + likeEscaper.Replace(t) + "%"
		conds = append(conds, `(n.title LIKE ? ESCAPE '\' OR n.content LIKE ? ESCAPE '\')`)
		params = append(params, like, like)
	}
	where, args := f.where()
	params = append(params, args...)
	params = append(params, limit)
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		WHERE (`+strings.Join(conds, " OR ")+`) AND `+where+`
		ORDER BY n.rowid
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
