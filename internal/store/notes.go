package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

// noteColumns selects a full note from the notes table aliased n; the last
// column folds the sharing set into a comma-separated list.
const noteColumns = `n.id, n.title, n.content, n.author, n.version, n.created_at, n.updated_at,
	COALESCE((SELECT group_concat(s.user_id, ',') FROM note_shares s WHERE s.note_id = n.id), '')`

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*models.Note, error) {
	var n models.Note
	var shared string
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Author, &n.Version, &n.CreatedAt, &n.UpdatedAt, &shared); err != nil {
		return nil, err
	}
	n.SharedWith = []string{}
	if shared != "" {
		n.SharedWith = strings.Split(shared, ",")
	}
	return &n, nil
}

func scanNotes(rows *sql.Rows) ([]models.Note, error) {
	defer rows.Close()
	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// FindOne returns the note matching f. f.ID must be set; an empty id
// matches nothing.
func (s *SQLite) FindOne(ctx context.Context, f Filter) (*models.Note, error) {
	if f.ID == "" {
		return nil, fmt.Errorf("store: find note: %w", apperr.ErrNotFound)
	}
	where, args := f.where()
	row := s.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes n WHERE `+where+` LIMIT 1`, args...)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: find note: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: find note: %w", err)
	}
	return n, nil
}

// FindMany returns every note matching f in insertion order.
func (s *SQLite) FindMany(ctx context.Context, f Filter) ([]models.Note, error) {
	where, args := f.where()
	rows, err := s.conn.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes n WHERE `+where+` ORDER BY n.rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: find notes: %w", err)
	}
	out, err := scanNotes(rows)
	if err != nil {
		return nil, fmt.Errorf("store: find notes: %w", err)
	}
	return out, nil
}

// Save inserts or version-checked replaces n, its sharing set and its FTS
// entry within one transaction. On success n carries the stored version.
func (s *SQLite) Save(ctx context.Context, n *models.Note) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	now := time.Now().UTC()
	insert := n.ID == ""
	id := n.ID
	if insert {
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notes (id, title, content, author, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, 1, ?, ?)
		`, id, n.Title, n.Content, n.Author, now, now)
		if err != nil {
			return fmt.Errorf("store: insert note: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE notes SET
				title      = ?,
				content    = ?,
				version    = version + 1,
				updated_at = ?
			WHERE id = ? AND version = ?
		`, n.Title, n.Content, now, id, n.Version)
		if err != nil {
			return fmt.Errorf("store: update note: %w", err)
		}
		if err := checkAffected(ctx, tx, res, id); err != nil {
			return err
		}
	}

	if err := replaceShares(ctx, tx, id, n.SharedWith); err != nil {
		return err
	}
	if err := ftsUpsert(ctx, tx, id, n.Title, n.Content); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}

	if insert {
		n.ID = id
		n.Version = 1
		n.CreatedAt = now
	} else {
		n.Version++
	}
	n.UpdatedAt = now
	if n.SharedWith == nil {
		n.SharedWith = []string{}
	}
	return nil
}

// Delete removes n, its sharing set and its FTS entry.
func (s *SQLite) Delete(ctx context.Context, n *models.Note) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND version = ?`, n.ID, n.Version)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	if err := checkAffected(ctx, tx, res, n.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_shares WHERE note_id = ?`, n.ID); err != nil {
		return fmt.Errorf("store: delete shares: %w", err)
	}
	if err := ftsDelete(ctx, tx, n.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// checkAffected turns a zero-row version-checked write into ErrConflict
// when the note still exists and ErrNotFound when it is gone.
func checkAffected(ctx context.Context, tx *sql.Tx, res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM notes WHERE id = ?`, id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	case err != nil:
		return fmt.Errorf("store: note %s: %w", id, err)
	default:
		return fmt.Errorf("store: note %s version changed: %w", id, apperr.ErrConflict)
	}
}

// replaceShares rewrites the sharing set of a note.
func replaceShares(ctx context.Context, tx *sql.Tx, noteID string, users []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_shares WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("store: clear shares: %w", err)
	}
	if len(users) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO note_shares (note_id, user_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare share insert: %w", err)
	}
	defer stmt.Close()
	for _, u := range users {
		if _, err := stmt.ExecContext(ctx, noteID, u); err != nil {
			return fmt.Errorf("store: insert share: %w", err)
		}
	}
	return nil
}
