package apperr

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestCodedErrorMatchesKind(t *testing.T) {
	err := NotFound("Note not found or access denied")
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("coded error should match its kind")
	}
	if errors.Is(err, ErrForbidden) {
		t.Error("coded error should not match another kind")
	}
	wrapped := fmt.Errorf("get: %w", err)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped coded error should still match its kind")
	}
	if got := MessageOf(wrapped); got != "Note not found or access denied" {
		t.Errorf("MessageOf = %q", got)
	}
}

func TestMessageOf_UncodedIsInternal(t *testing.T) {
	err := fmt.Errorf("store: save: %w", errors.New("database is locked at /var/lib/quire.db"))
	if got := MessageOf(err); got != "internal error" {
		t.Errorf("MessageOf = %q, want internal error", got)
	}
}

func TestMessageOf_BareKind(t *testing.T) {
	err := fmt.Errorf("store: save note: %w", ErrConflict)
	if got := MessageOf(err); got != "conflict" {
		t.Errorf("MessageOf = %q, want conflict", got)
	}
}

func TestMessageOf_NeverLeaksCause(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		detail := rapid.StringMatching(`[a-zA-Z0-9 /_:.\-]{1,80}`).Draw(t, "detail")
		err := fmt.Errorf("store: %w", errors.New(detail))
		if MessageOf(err) != "internal error" {
			t.Fatalf("uncoded error leaked: %q", MessageOf(err))
		}
	})
}

func TestMessageOf_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.SampledFrom([]error{ErrValidation, ErrNotFound, ErrForbidden, ErrConflict}).Draw(t, "kind")
		msg := rapid.StringMatching(`[a-zA-Z ]{1,40}`).Draw(t, "msg")
		err := New(kind, msg)
		if !errors.Is(err, kind) {
			t.Fatalf("kind lost")
		}
		if MessageOf(err) != msg {
			t.Fatalf("MessageOf = %q, want %q", MessageOf(err), msg)
		}
	})
}
