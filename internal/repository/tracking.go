package repository

import (
	"context"

	"rfid-asset-tracker/internal/model"
)

// TrackingRepository defines data access for the movement tracker.
type TrackingRepository interface {
	// GetSettings reads the operator-managed system settings singleton.
	GetSettings(ctx context.Context) (model.SystemSettings, error)

	// GetIntervalConfig reads the drain period. Implementations return the
	// default config (not an error) when the row is absent.
	GetIntervalConfig(ctx context.Context) (model.IntervalConfig, error)

	// ListPending returns all unprocessed sightings ordered by id ascending.
	ListPending(ctx context.Context) ([]model.PendingSighting, error)

	// GetAsset looks up the asset master record by RFID tag.
	// Returns (nil, nil) when the tag is unknown to the registry.
	GetAsset(ctx context.Context, tagID string) (*model.AssetRecord, error)

	// ApplySightingUpdate finalizes one sighting in a single transaction:
	// marks the pending row processed (and purges processed rows), applies
	// the asset patch, and appends the movement history entry. On any
	// failure the whole unit rolls back and the sighting stays pending.
	ApplySightingUpdate(ctx context.Context, sightingID int64, statusFlag int,
		cls model.Classification, patch model.StatePatch, entry model.MovementHistoryEntry) error

	// ListMovements returns the most recent history entries for a tag.
	ListMovements(ctx context.Context, tagID string, limit int) ([]model.MovementHistoryEntry, error)

	// CountPending returns the number of unprocessed sightings.
	CountPending(ctx context.Context) (int64, error)

	// Close closes the repository connection.
	Close() error
}
