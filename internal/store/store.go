package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"flowsight/internal/config"
	"flowsight/internal/registry"
)

// Store persists blocker events in SQLite. The in-memory registry stays the
// source of truth for live blockers; the store is the durable event log that
// cloud sync and history queries read from.
type Store struct {
	db   *sql.DB
	path string
}

// Event is one persisted registry event plus its sync bookkeeping.
type Event struct {
	ID         int64
	Type       string
	BlockerID  string
	Category   string
	Severity   string
	Confidence float64
	Payload    string
	CreatedAt  time.Time
	Synced     bool
}

// Open initializes or connects to the event database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "flowsight.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordEvent appends one registry event to the log.
func (s *Store) RecordEvent(ctx context.Context, event registry.Event) error {
	payload, err := json.Marshal(event.Blocker)
	if err != nil {
		return fmt.Errorf("marshal blocker payload: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO blocker_events (
            event_type, blocker_id, category, severity, confidence,
            payload_json, created_at, synced
        ) VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		string(event.Type),
		event.Blocker.ID,
		string(event.Blocker.Category),
		string(event.Blocker.Severity),
		event.Blocker.Confidence,
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Unsynced returns the oldest events not yet delivered to the dashboard,
// bounded by limit.
func (s *Store) Unsynced(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+eventColumns+` FROM blocker_events WHERE synced = 0 ORDER BY id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query unsynced events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// MarkSynced flags the given events as delivered.
func (s *Store) MarkSynced(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := makePlaceholders(len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx, `UPDATE blocker_events SET synced = 1 WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("mark synced: %w", err)
	}
	return res.RowsAffected()
}

// History returns the newest events for a blocker, or for all blockers when
// blockerID is empty.
func (s *Store) History(ctx context.Context, blockerID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)
	if blockerID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM blocker_events ORDER BY id DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM blocker_events WHERE blocker_id = ? ORDER BY id DESC LIMIT ?`, blockerID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query event history: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Stats counts events grouped by type, plus the unsynced backlog.
func (s *Store) Stats(ctx context.Context) (map[string]int, int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_type, COUNT(1) FROM blocker_events GROUP BY event_type`)
	if err != nil {
		return nil, 0, fmt.Errorf("event stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, 0, err
		}
		stats[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var unsynced int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM blocker_events WHERE synced = 0`)
	if err := row.Scan(&unsynced); err != nil {
		return nil, 0, fmt.Errorf("count unsynced: %w", err)
	}
	return stats, unsynced, nil
}

// PruneOlderThan deletes synced events older than the given age in days.
// Unsynced events survive so a long dashboard outage loses nothing.
func (s *Store) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `DELETE FROM blocker_events WHERE synced = 1 AND created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

// CheckHealth returns diagnostic information about the event database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("event database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat event database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("event database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("event database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping event database: %w", err)
	}
	health.DatabaseReadable = true

	row := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

// DatabaseHealth summarizes the event database's diagnostics.
type DatabaseHealth struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	IntegrityCheck   bool   `json:"integrity_check"`
	Error            string `json:"error,omitempty"`
}

const eventColumns = "id, event_type, blocker_id, category, severity, confidence, payload_json, created_at, synced"

func scanEvent(scanner interface{ Scan(dest ...any) error }) (Event, error) {
	var (
		event      Event
		createdRaw string
		synced     int64
	)
	if err := scanner.Scan(
		&event.ID,
		&event.Type,
		&event.BlockerID,
		&event.Category,
		&event.Severity,
		&event.Confidence,
		&event.Payload,
		&createdRaw,
		&synced,
	); err != nil {
		return Event{}, err
	}
	event.Synced = synced != 0
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		event.CreatedAt = created
	}
	return event, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
