package storage

import (
	"context"
	"time"

	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
)

// LineStorage persists decoded market lines between pipeline runs.
type LineStorage interface {
	// StoreLines UPSERTs the final records of one run.
	StoreLines(ctx context.Context, lines []models.MarketLine, recordedAt time.Time) error

	// LastBlobDigest returns the previously stored digest of the player's
	// encoded blob ("" if the player has not been seen).
	LastBlobDigest(ctx context.Context, player string) (string, error)

	// StoreBlobDigest remembers the digest of the player's encoded blob.
	StoreBlobDigest(ctx context.Context, player, digest string, recordedAt time.Time) error

	Close() error
}
