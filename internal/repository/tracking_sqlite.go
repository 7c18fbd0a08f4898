package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	"rfid-asset-tracker/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteTrackingRepository implements TrackingRepository using SQLite.
// Intended for local development and tests; bootstraps its own schema.
type SQLiteTrackingRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteTrackingRepository opens (or creates) the SQLite database at dbPath.
func NewSQLiteTrackingRepository(dbPath string) (*SQLiteTrackingRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createTrackingTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteTrackingRepository] Initialized with database: %s", dbPath)
	return &SQLiteTrackingRepository{db: db}, nil
}

// createTrackingTables creates the tracker schema and seeds the singletons.
func createTrackingTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS system_settings (
			id INTEGER PRIMARY KEY,
			flag_moving_in INTEGER NOT NULL DEFAULT 1,
			flag_moving_out INTEGER NOT NULL DEFAULT 2,
			moving_mode TEXT NOT NULL DEFAULT 'free'
		);`,
		`INSERT OR IGNORE INTO system_settings (id, flag_moving_in, flag_moving_out, moving_mode)
			VALUES (1, 1, 2, 'free');`,
		`CREATE TABLE IF NOT EXISTS scheduler_config (
			id INTEGER PRIMARY KEY,
			period_ms INTEGER NOT NULL
		);`,
		`INSERT OR IGNORE INTO scheduler_config (id, period_ms) VALUES (1, 5000);`,
		`CREATE TABLE IF NOT EXISTS pending_sightings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			rfid_tag_number TEXT NOT NULL,
			reader_angle TEXT NOT NULL,
			room_id INTEGER NOT NULL,
			room_name TEXT NOT NULL DEFAULT '',
			reader_gate TEXT NOT NULL DEFAULT '',
			reader_id INTEGER NOT NULL DEFAULT 0,
			is_legal_moving INTEGER NOT NULL DEFAULT 0,
			observed_at DATETIME NOT NULL,
			processed INTEGER NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			last_room_id INTEGER NOT NULL DEFAULT 0,
			last_room_name TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_pending_processed ON pending_sightings(processed, id);`,
		`CREATE TABLE IF NOT EXISTS assets (
			rfid_tag_number TEXT PRIMARY KEY,
			asset_code TEXT NOT NULL DEFAULT '',
			asset_name TEXT NOT NULL DEFAULT '',
			nup TEXT NOT NULL DEFAULT '',
			status INTEGER NOT NULL DEFAULT 0,
			current_room_id INTEGER NOT NULL DEFAULT 0,
			last_room_id INTEGER NOT NULL DEFAULT 0,
			last_room_name TEXT NOT NULL DEFAULT '',
			movement_type INTEGER NOT NULL DEFAULT 0,
			borrow_mode INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS asset_movements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			moved_on DATETIME NOT NULL,
			moved_at TEXT NOT NULL,
			reader_id INTEGER NOT NULL DEFAULT 0,
			room_id INTEGER NOT NULL DEFAULT 0,
			rfid_tag_number TEXT NOT NULL,
			direction TEXT NOT NULL,
			last_room_id INTEGER NOT NULL DEFAULT 0,
			last_room_name TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_movements_tag ON asset_movements(rfid_tag_number, id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetSettings reads the system settings singleton.
func (r *SQLiteTrackingRepository) GetSettings(ctx context.Context) (model.SystemSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s model.SystemSettings
	query := `SELECT flag_moving_in, flag_moving_out, moving_mode FROM system_settings LIMIT 1`

	err := r.db.QueryRowContext(ctx, query).Scan(&s.FlagMovingIn, &s.FlagMovingOut, &s.MovingMode)
	if err != nil {
		return model.SystemSettings{}, fmt.Errorf("failed to get system settings: %w", err)
	}
	return s, nil
}

// GetIntervalConfig reads the drain period, defaulting when the row is absent.
func (r *SQLiteTrackingRepository) GetIntervalConfig(ctx context.Context) (model.IntervalConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cfg model.IntervalConfig
	err := r.db.QueryRowContext(ctx, `SELECT period_ms FROM scheduler_config WHERE id = 1`).Scan(&cfg.PeriodMS)
	if err == sql.ErrNoRows {
		return model.IntervalConfig{PeriodMS: model.DefaultDrainPeriod.Milliseconds()}, nil
	}
	if err != nil {
		return model.IntervalConfig{}, fmt.Errorf("failed to get interval config: %w", err)
	}
	return cfg, nil
}

// ListPending returns unprocessed sightings in FIFO order.
func (r *SQLiteTrackingRepository) ListPending(ctx context.Context) ([]model.PendingSighting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		SELECT id, rfid_tag_number, reader_angle, room_id, room_name,
		       reader_gate, reader_id, is_legal_moving, observed_at, processed
		FROM pending_sightings
		WHERE processed = 0
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending sightings: %w", err)
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
	return pending, rows.Err()
}

// GetAsset looks up the asset master record. Unknown tags return (nil, nil).
func (r *SQLiteTrackingRepository) GetAsset(ctx context.Context, tagID string) (*model.AssetRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

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
		return nil, fmt.Errorf("failed to get asset %s: %w", tagID, err)
	}
	return &a, nil
}

// ApplySightingUpdate finalizes one sighting atomically.
func (r *SQLiteTrackingRepository) ApplySightingUpdate(ctx context.Context, sightingID int64, statusFlag int,
	cls model.Classification, patch model.StatePatch, entry model.MovementHistoryEntry) error {

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE pending_sightings
		SET processed = ?, category = ?, description = ?, last_room_id = ?, last_room_name = ?
		WHERE id = ?`,
		statusFlag, cls.Category, cls.Description, entry.LastRoomID, entry.LastRoomName, sightingID)
	if err != nil {
		return fmt.Errorf("failed to mark sighting %d processed: %w", sightingID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sighting %d no longer pending", sightingID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_sightings WHERE processed != 0`); err != nil {
		return fmt.Errorf("failed to purge processed sightings: %w", err)
	}

	if !patch.IsEmpty() {
		setClause, args := buildPatchSet(patch, false, 0)
		args = append(args, entry.TagID)
		if _, err := tx.ExecContext(ctx,
			"UPDATE assets SET "+setClause+" WHERE rfid_tag_number = ?", args...); err != nil {
			return fmt.Errorf("failed to patch asset %s: %w", entry.TagID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO asset_movements (moved_on, moved_at, reader_id, room_id, rfid_tag_number,
		                             direction, last_room_id, last_room_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Date, entry.Time, entry.ReaderID, entry.RoomID, entry.TagID,
		entry.Direction, entry.LastRoomID, entry.LastRoomName)
	if err != nil {
		return fmt.Errorf("failed to insert movement history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sighting update: %w", err)
	}
	return nil
}

// ListMovements returns the most recent history entries for a tag.
func (r *SQLiteTrackingRepository) ListMovements(ctx context.Context, tagID string, limit int) ([]model.MovementHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		SELECT moved_on, moved_at, reader_id, room_id, rfid_tag_number,
		       direction, last_room_id, last_room_name
		FROM asset_movements
		WHERE rfid_tag_number = ?
		ORDER BY id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, tagID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
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
func (r *SQLiteTrackingRepository) CountPending(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_sightings WHERE processed = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending sightings: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (r *SQLiteTrackingRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteTrackingRepository implements TrackingRepository
var _ TrackingRepository = (*SQLiteTrackingRepository)(nil)

// SeedAsset inserts or replaces an asset master record. Used by local
// development seeding and tests; the production registry is managed
// elsewhere.
func (r *SQLiteTrackingRepository) SeedAsset(ctx context.Context, a model.AssetRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assets (rfid_tag_number, asset_code, asset_name, nup, status,
		                               current_room_id, last_room_id, last_room_name,
		                               movement_type, borrow_mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.TagID, a.AssetCode, a.AssetName, a.NUP, a.Status,
		a.CurrentRoomID, a.LastRoomID, a.LastRoomName, a.MovementType, a.BorrowMode)
	if err != nil {
		return fmt.Errorf("failed to seed asset %s: %w", a.TagID, err)
	}
	return nil
}

// EnqueueSighting appends a pending sighting. Stands in for the reader
// ingestion path in local development and tests.
func (r *SQLiteTrackingRepository) EnqueueSighting(ctx context.Context, s model.PendingSighting) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_sightings (rfid_tag_number, reader_angle, room_id, room_name,
		                               reader_gate, reader_id, is_legal_moving, observed_at, processed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		s.TagID, s.ReaderAngle, s.RoomID, s.RoomName,
		s.ReaderGate, s.ReaderID, s.LegalMoving, s.ObservedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue sighting: %w", err)
	}
	return res.LastInsertId()
}

// SetSettings overwrites the system settings singleton.
func (r *SQLiteTrackingRepository) SetSettings(ctx context.Context, s model.SystemSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		UPDATE system_settings SET flag_moving_in = ?, flag_moving_out = ?, moving_mode = ? WHERE id = 1`,
		s.FlagMovingIn, s.FlagMovingOut, s.MovingMode)
	return err
}

// SetDrainPeriod overwrites the stored drain period.
func (r *SQLiteTrackingRepository) SetDrainPeriod(ctx context.Context, periodMS int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `UPDATE scheduler_config SET period_ms = ? WHERE id = 1`, periodMS)
	return err
}
