package auth

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestMemoryRevocationStore(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryRevocationStore()
	store.now = func() time.Time { return now }

	c.Assert(store.Revoke(ctx, "a", now.Add(time.Minute)), qt.IsNil)
	c.Assert(store.Revoke(ctx, "past", now.Add(-time.Minute)), qt.IsNil)

	revoked, err := store.IsRevoked(ctx, "a")
	c.Assert(err, qt.IsNil)
	c.Assert(revoked, qt.IsTrue)

	revoked, _ = store.IsRevoked(ctx, "past")
	c.Assert(revoked, qt.IsFalse)

	now = now.Add(2 * time.Minute)
	revoked, _ = store.IsRevoked(ctx, "a")
	c.Assert(revoked, qt.IsFalse)

	// Expired entries are swept on the next revoke.
	c.Assert(store.Revoke(ctx, "b", now.Add(time.Minute)), qt.IsNil)
	c.Assert(store.entries, qt.HasLen, 1)
}
