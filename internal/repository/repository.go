package repository

import (
	"context"

	"tokenagg/internal/models"
)

// Repository persists the latest merged tokens and per-source fetch state.
// Implementations treat a nil receiver as a no-op store.
type Repository interface {
	UpsertTokenSnapshots(ctx context.Context, items []models.TokenSnapshot) error
	FindTokenSnapshotsByAddress(ctx context.Context, address string) ([]models.TokenSnapshot, error)
	SaveSourceState(ctx context.Context, state *models.SourceState) error
	ListSourceStates(ctx context.Context) ([]models.SourceState, error)
}
