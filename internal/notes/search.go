package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/store"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200

	MsgQueryRequired = "query parameter 'q' is required"
)

// Searcher runs free-text queries restricted to the actor's visibility set.
type Searcher struct {
	store store.Store
	limit int
}

// NewSearcher returns a Searcher capped at limit results. A non-positive
// limit means DefaultSearchLimit; anything above MaxSearchLimit is clamped.
func NewSearcher(s store.Store, limit int) *Searcher {
	return &Searcher{store: s, limit: clampLimit(limit)}
}

// Search returns notes visible to actor that match any term of query,
// best match first.
func (s *Searcher) Search(ctx context.Context, actor, query string) ([]models.Note, error) {
	return s.SearchN(ctx, actor, query, s.limit)
}

// SearchN is Search with a per-call result limit.
func (s *Searcher) SearchN(ctx context.Context, actor, query string, limit int) ([]models.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation(MsgQueryRequired)
	}
	out, err := s.store.TextSearch(ctx, query, store.Filter{VisibleTo: actor}, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("notes: search: %w", err)
	}
	return out, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSearchLimit
	case limit > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return limit
	}
}
