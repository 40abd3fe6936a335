package testsupport

import (
	"context"
	"testing"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/subscription"
)

// MustOpenStore opens a subscription.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *subscription.Store {
	t.Helper()

	store, err := subscription.Open(cfg)
	if err != nil {
		t.Fatalf("subscription.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSubscription creates a subscription for tests using the provided store.
func NewSubscription(t testing.TB, store *subscription.Store, url, title string) *subscription.Subscription {
	t.Helper()

	sub, err := store.Create(context.Background(), url, title)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return sub
}
