// Package testutil provides shared test helpers for setting up databases and users.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/quire/internal/store"
)

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T) *store.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "quire-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			os.Remove(dbFile.Name() + suffix)
		}
	})

	s, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestUser registers username with a placeholder password hash and returns its id.
func TestUser(t *testing.T, s store.Users, username string) string {
	t.Helper()
	u, err := s.CreateUser(context.Background(), username, "x")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u.ID
}
