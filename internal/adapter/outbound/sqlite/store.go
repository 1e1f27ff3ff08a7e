// Package sqlite implements the scope store on SQLite via
// modernc.org/sqlite (pure Go, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/gateward/gateward/internal/domain/scope"
)

// Store implements scope.Store backed by a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (or creates) the database at path and ensures the
// schema exists. Parent directories are created if needed.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sqlite_store")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL keeps readers from blocking the scope evaluator under write
	// load.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("sqlite store initialized", "path", path)
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS memberships (
			team_id TEXT NOT NULL,
			subject TEXT NOT NULL,
			active  INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (team_id, subject)
		);

		CREATE TABLE IF NOT EXISTS resources (
			type       TEXT NOT NULL,
			id         TEXT NOT NULL,
			visibility TEXT NOT NULL DEFAULT 'team',
			team_id    TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (type, id)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// FindActiveMembership implements scope.Store.
func (s *Store) FindActiveMembership(ctx context.Context, teamID, subject string) (bool, error) {
	var active int
	err := s.db.QueryRowContext(ctx,
		"SELECT active FROM memberships WHERE team_id = ? AND subject = ?",
		teamID, subject,
	).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying membership: %w", err)
	}
	return active != 0, nil
}

// FindResource implements scope.Store.
func (s *Store) FindResource(ctx context.Context, typ scope.ResourceType, id string) (*scope.Resource, error) {
	res := &scope.Resource{Type: typ, ID: id}
	var visibility, teamID string
	err := s.db.QueryRowContext(ctx,
		"SELECT visibility, team_id FROM resources WHERE type = ? AND id = ?",
		string(typ), id,
	).Scan(&visibility, &teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scope.ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying resource: %w", err)
	}
	res.Visibility = scope.Visibility(visibility)
	res.TeamID = teamID
	return res, nil
}

// UpsertMembership inserts or updates a membership row.
func (s *Store) UpsertMembership(ctx context.Context, teamID, subject string, active bool) error {
	activeInt := 0
	if active {
		activeInt = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (team_id, subject, active) VALUES (?, ?, ?)
		ON CONFLICT (team_id, subject) DO UPDATE SET active = excluded.active
	`, teamID, subject, activeInt)
	if err != nil {
		return fmt.Errorf("upserting membership: %w", err)
	}
	return nil
}

// UpsertResource inserts or updates a resource row.
func (s *Store) UpsertResource(ctx context.Context, res scope.Resource) error {
	visibility := res.Visibility
	if visibility == "" {
		visibility = scope.VisibilityTeam
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (type, id, visibility, team_id) VALUES (?, ?, ?, ?)
		ON CONFLICT (type, id) DO UPDATE SET
			visibility = excluded.visibility,
			team_id    = excluded.team_id
	`, string(res.Type), res.ID, string(visibility), res.TeamID)
	if err != nil {
		return fmt.Errorf("upserting resource: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
