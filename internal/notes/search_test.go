package notes

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/quire/internal/apperr"
)

func TestSearch_EmptyQuery(t *testing.T) {
	env := newTestEnv(t)
	for _, q := range []string{"", "   ", "\t"} {
		_, err := env.srch.Search(context.Background(), "a", q)
		if !errors.Is(err, apperr.ErrValidation) || apperr.MessageOf(err) != MsgQueryRequired {
			t.Errorf("query %q: err = %v", q, err)
		}
	}
}

func TestSearch_VisibilityScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	c := env.user(t, "carol")

	mine, _ := env.repo.Create(ctx, a, "groceries", "milk and eggs")
	shared, _ := env.repo.Create(ctx, b, "party", "bring milk")
	_, _ = env.repo.Create(ctx, c, "secret", "milk recipe")
	if err := env.repo.Share(ctx, b, shared.ID, a); err != nil {
		t.Fatal(err)
	}

	found, err := env.srch.Search(ctx, a, "milk")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found %d notes, want 2", len(found))
	}
	for _, n := range found {
		if n.ID != mine.ID && n.ID != shared.ID {
			t.Errorf("leaked note %q", n.Title)
		}
	}
}

func TestSearch_Limit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice")
	for range 5 {
		_, _ = env.repo.Create(ctx, a, "repeat", "same words")
	}

	found, err := env.srch.SearchN(ctx, a, "repeat", 3)
	if err != nil {
		t.Fatalf("SearchN: %v", err)
	}
	if len(found) != 3 {
		t.Errorf("found %d, want 3", len(found))
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultSearchLimit},
		{-1, DefaultSearchLimit},
		{10, 10},
		{MaxSearchLimit, MaxSearchLimit},
		{MaxSearchLimit + 1, MaxSearchLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
