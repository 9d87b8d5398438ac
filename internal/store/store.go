package store

import (
	"context"
	"strings"

	"github.com/starford/quire/internal/models"
)

// Store is the document store the note repository runs against. Each
// method is its own unit of atomicity.
type Store interface {
	// FindOne returns the first note matching f, or an error wrapping
	// apperr.ErrNotFound.
	FindOne(ctx context.Context, f Filter) (*models.Note, error)
	// FindMany returns every note matching f.
	FindMany(ctx context.Context, f Filter) ([]models.Note, error)
	// Save inserts n when n.ID is empty (assigning ID, Version and
	// timestamps) and otherwise replaces the stored note, sharing set
	// included, provided the stored version still equals n.Version.
	Save(ctx context.Context, n *models.Note) error
	// Delete removes n provided the stored version still equals n.Version.
	Delete(ctx context.Context, n *models.Note) error
	// TextSearch ranks notes matching query in title or content,
	// restricted to notes matching f.
	TextSearch(ctx context.Context, query string, f Filter, limit int) ([]models.Note, error)
	// UserExists reports whether a user with the given id is registered.
	UserExists(ctx context.Context, id string) (bool, error)
}

// Users holds account records for the identity provider.
type Users interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Verify *SQLite satisfies both interfaces at compile time.
var (
	_ Store = (*SQLite)(nil)
	_ Users = (*SQLite)(nil)
)

// Filter selects notes. Zero fields are ignored and set fields are AND-ed.
type Filter struct {
	// ID matches the note id exactly.
	ID string
	// Author matches the note author exactly.
	Author string
	// VisibleTo matches notes the user authored or has been shared on.
	VisibleTo string
}

// where renders the filter as a SQL condition over the notes table aliased n.
func (f Filter) where() (string, []any) {
	var conds []string
	var args []any
	if f.ID != "" {
		conds = append(conds, "n.id = ?")
		args = append(args, f.ID)
	}
	if f.Author != "" {
		conds = append(conds, "n.author = ?")
		args = append(args, f.Author)
	}
	if f.VisibleTo != "" {
		conds = append(conds, "(n.author = ? OR EXISTS (SELECT 1 FROM note_shares s WHERE s.note_id = n.id AND s.user_id = ?))")
		args = append(args, f.VisibleTo, f.VisibleTo)
	}
	if len(conds) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(conds, " AND "), args
}

// searchTerms splits a free-text query into whitespace-separated terms.
func searchTerms(query string) []string {
	return strings.Fields(query)
}
