package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Vodeneev/hotstreakline/internal/pkg/marketblob"
	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
	"github.com/Vodeneev/hotstreakline/internal/pkg/storage"
)

// fakeLineStore — in-memory LineStorage; первые failStores вызовов StoreLines
// падают, имитируя временный сбой базы.
type fakeLineStore struct {
	digests    map[string]string
	stored     []models.MarketLine
	failStores int
}

var _ storage.LineStorage = (*fakeLineStore)(nil)

func (f *fakeLineStore) StoreLines(_ context.Context, lines []models.MarketLine, _ time.Time) error {
	if f.failStores > 0 {
		f.failStores--
		return errors.New("connection reset by peer")
	}
	f.stored = append(f.stored, lines...)
	return nil
}

func (f *fakeLineStore) LastBlobDigest(_ context.Context, player string) (string, error) {
	return f.digests[player], nil
}

func (f *fakeLineStore) StoreBlobDigest(_ context.Context, player, digest string, _ time.Time) error {
	f.digests[player] = digest
	return nil
}

func (f *fakeLineStore) Close() error { return nil }

func TestStoreRunRetriesPlayerAfterStoreFailure(t *testing.T) {
	store := &fakeLineStore{digests: map[string]string{}, failStores: 1}
	players := []models.PlayerMarkets{{FullName: "John Doe", Markets64: "blob-1"}}
	id := "gid-42"
	out := []models.MarketLine{{ID: &id, PlayerName: "John Doe"}}
	now := time.Now()

	if _, err := storeRun(context.Background(), store, players, out, now); err == nil {
		t.Fatal("expected error when StoreLines fails")
	}
	if len(store.digests) != 0 {
		t.Fatalf("digest persisted before lines were stored: %v", store.digests)
	}

	// Повторный прогон с тем же блобом: игрок не должен считаться неизменным.
	unchanged, err := storeRun(context.Background(), store, players, out, now)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if unchanged != 0 {
		t.Fatalf("unchanged = %d on retry, want 0", unchanged)
	}
	if len(store.stored) != 1 {
		t.Fatalf("stored %d lines on retry, want 1", len(store.stored))
	}
	if got := store.digests["John Doe"]; got != marketblob.Digest("blob-1") {
		t.Fatalf("digest after retry = %q, want digest of blob-1", got)
	}
}

func TestStoreRunSkipsUnchangedBlob(t *testing.T) {
	store := &fakeLineStore{digests: map[string]string{}}
	players := []models.PlayerMarkets{{FullName: "Jane Roe", Markets64: "blob-2"}}
	id := "gid-7"
	out := []models.MarketLine{{ID: &id, PlayerName: "Jane Roe"}}
	now := time.Now()

	if _, err := storeRun(context.Background(), store, players, out, now); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	unchanged, err := storeRun(context.Background(), store, players, out, now)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if unchanged != 1 {
		t.Fatalf("unchanged = %d, want 1", unchanged)
	}
	if len(store.stored) != 1 {
		t.Fatalf("stored %d lines total, want 1 (second run skips)", len(store.stored))
	}
}
