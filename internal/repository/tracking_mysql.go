package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"rfid-asset-tracker/internal/model"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLTrackingRepository implements TrackingRepository using MySQL. This is
// the production backend; the schema is managed by the ingestion side.
type MySQLTrackingRepository struct {
	db *sql.DB
}

// NewMySQLTrackingRepository opens a MySQL connection pool and verifies it.
func NewMySQLTrackingRepository(dsn string) (*MySQLTrackingRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	log.Printf("[MySQLTrackingRepository] Connected")
	return &MySQLTrackingRepository{db: db}, nil
}

// GetSettings reads the system settings singleton.
func (r *MySQLTrackingRepository) GetSettings(ctx context.Context) (model.SystemSettings, error) {
	var s model.SystemSettings
	query := `SELECT flag_moving_in, flag_moving_out, moving_mode FROM system_settings LIMIT 1`

	err := r.db.QueryRowContext(ctx, query).Scan(&s.FlagMovingIn, &s.FlagMovingOut, &s.MovingMode)
	if err != nil {
		return model.SystemSettings{}, wrapConnErr(fmt.Errorf("failed to get system settings: %w", err))
	}
	return s, nil
}

// GetIntervalConfig reads the drain period, defaulting when the row is absent.
func (r *MySQLTrackingRepository) GetIntervalConfig(ctx context.Context) (model.IntervalConfig, error) {
	var cfg model.IntervalConfig
	query := `SELECT period_ms FROM scheduler_config WHERE id = 1`

	err := r.db.QueryRowContext(ctx, query).Scan(&cfg.PeriodMS)
	if err == sql.ErrNoRows {
		return model.IntervalConfig{PeriodMS: model.DefaultDrainPeriod.Milliseconds()}, nil
	}
	if err != nil {
		return model.IntervalConfig{}, wrapConnErr(fmt.Errorf("failed to get interval config: %w", err))
	}
	return cfg, nil
}

// ListPending returns unprocessed sightings in FIFO order.
func (r *MySQLTrackingRepository) ListPending(ctx context.Context) ([]model.PendingSighting, error) {
	query := `
		SELECT id, rfid_tag_number, reader_angle, room_id, room_name,
		       reader_gate, reader_id, is_legal_moving, observed_at, processed
		FROM pending_sightings
		WHERE processed = 0
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapConnErr(fmt.Errorf("failed to list pending sightings: %w", err))
	}
	defer rows.Close()

	var pending []model.PendingSighting
	for rows.Next() {
		var s model.PendingSighting
		if err := rows.Scan(&s.ID, &s.TagID, &s.ReaderAngle, &s.RoomID, &s.RoomName,
			&s.ReaderGate, &s.ReaderID, &s.LegalMoving, &s.ObservedAt, &s.Processed); err != nil {
			return nil, fmt.Errorf("failed to scan pending sighting: %w", err)
		}
		pending = append(pending, s)
	}
	return pending, wrapConnErr(rows.Err())
}

// GetAsset looks up the asset master record. Unknown tags return (nil, nil).
func (r *MySQLTrackingRepository) GetAsset(ctx context.Context, tagID string) (*model.AssetRecord, error) {
	query := `
		SELECT rfid_tag_number, asset_code, asset_name, nup, status,
		       current_room_id, last_room_id, last_room_name, movement_type, borrow_mode
		FROM assets
		WHERE rfid_tag_number = ?`

	var a model.AssetRecord
	err := r.db.QueryRowContext(ctx, query, tagID).Scan(&a.TagID, &a.AssetCode, &a.AssetName,
		&a.NUP, &a.Status, &a.CurrentRoomID, &a.LastRoomID, &a.LastRoomName,
		&a.MovementType, &a.BorrowMode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapConnErr(fmt.Errorf("failed to get asset %s: %w", tagID, err))
	}
	return &a, nil
}

// ApplySightingUpdate finalizes one sighting atomically.
func (r *MySQLTrackingRepository) ApplySightingUpdate(ctx context.Context, sightingID int64, statusFlag int,
	cls model.Classification, patch model.StatePatch, entry model.MovementHistoryEntry) error {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapConnErr(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	// Mark the pending row processed and stamp the verdict on it.
	res, err := tx.ExecContext(ctx, `
		UPDATE pending_sightings
		SET processed = ?, category = ?, description = ?, last_room_id = ?, last_room_name = ?
		WHERE id = ?`,
		statusFlag, cls.Category, cls.Description, entry.LastRoomID, entry.LastRoomName, sightingID)
	if err != nil {
		return wrapConnErr(fmt.Errorf("failed to mark sighting %d processed: %w", sightingID, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sighting %d no longer pending", sightingID)
	}

	// Purge rows already marked processed.
	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_sightings WHERE processed != 0`); err != nil {
		return wrapConnErr(fmt.Errorf("failed to purge processed sightings: %w", err))
	}

	if !patch.IsEmpty() {
		setClause, args := buildPatchSet(patch, false, 0)
		args = append(args, entry.TagID)
		if _, err := tx.ExecContext(ctx,
			"UPDATE assets SET "+setClause+" WHERE rfid_tag_number = ?", args...); err != nil {
			return wrapConnErr(fmt.Errorf("failed to patch asset %s: %w", entry.TagID, err))
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO asset_movements (moved_on, moved_at, reader_id, room_id, rfid_tag_number,
		                             direction, last_room_id, last_room_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Date, entry.Time, entry.ReaderID, entry.RoomID, entry.TagID,
		entry.Direction, entry.LastRoomID, entry.LastRoomName)
	if err != nil {
		return wrapConnErr(fmt.Errorf("failed to insert movement history: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return wrapConnErr(fmt.Errorf("failed to commit sighting update: %w", err))
	}
	return nil
}

// ListMovements returns the most recent history entries for a tag.
func (r *MySQLTrackingRepository) ListMovements(ctx context.Context, tagID string, limit int) ([]model.MovementHistoryEntry, error) {
	query := `
		SELECT moved_on, moved_at, reader_id, room_id, rfid_tag_number,
		       direction, last_room_id, last_room_name
		FROM asset_movements
		WHERE rfid_tag_number = ?
		ORDER BY id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, tagID, limit)
	if err != nil {
		return nil, wrapConnErr(fmt.Errorf("failed to list movements: %w", err))
	}
	defer rows.Close()

	var entries []model.MovementHistoryEntry
	for rows.Next() {
		var e model.MovementHistoryEntry
		if err := rows.Scan(&e.Date, &e.Time, &e.ReaderID, &e.RoomID, &e.TagID,
			&e.Direction, &e.LastRoomID, &e.LastRoomName); err != nil {
			return nil, fmt.Errorf("failed to scan movement entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountPending returns the number of unprocessed sightings.
func (r *MySQLTrackingRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_sightings WHERE processed = 0`).Scan(&count)
	if err != nil {
		return 0, wrapConnErr(fmt.Errorf("failed to count pending sightings: %w", err))
	}
	return count, nil
}

// Close closes the database connection.
func (r *MySQLTrackingRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLTrackingRepository implements TrackingRepository
var _ TrackingRepository = (*MySQLTrackingRepository)(nil)
