package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Version is one recorded revision of a profile.
type Version struct {
	Version    int
	SessionID  string
	Profile    *TaxProfile
	RecordedAt time.Time
}

// History is an append-only ledger of saved profiles in SQLite.
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates the history database at path.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	h := &History{db: db}
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return h, nil
}

func (h *History) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS profile_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		tax_year INTEGER NOT NULL,
		version INTEGER NOT NULL,
		session_id TEXT,
		profile_json TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		UNIQUE(user_id, tax_year, version)
	);
	CREATE INDEX IF NOT EXISTS idx_profile_versions_key ON profile_versions(user_id, tax_year);
	`
	_, err := h.db.Exec(query)
	return err
}

// Record appends p as the next version for its user and year.
func (h *History) Record(ctx context.Context, p *TaxProfile) (int, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("encode profile: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback()

	var version int
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM profile_versions WHERE user_id = ? AND tax_year = ?`,
		p.UserID, p.TaxYear)
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("next history version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profile_versions (user_id, tax_year, version, session_id, profile_json, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.UserID, p.TaxYear, version, p.SessionID, string(data), time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("insert history version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit history version: %w", err)
	}
	return version, nil
}

// Versions returns all recorded versions for a user and year, oldest first.
func (h *History) Versions(ctx context.Context, userID string, taxYear int) ([]Version, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT version, COALESCE(session_id, ''), profile_json, recorded_at
		 FROM profile_versions WHERE user_id = ? AND tax_year = ? ORDER BY version`,
		userID, taxYear)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var (
			v        Version
			data     string
			recorded int64
		)
		if err := rows.Scan(&v.Version, &v.SessionID, &data, &recorded); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		p, err := decode([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("%w: history version %d: %v", ErrCorrupt, v.Version, err)
		}
		v.Profile = p
		v.RecordedAt = time.Unix(0, recorded)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Close releases the database.
func (h *History) Close() error {
	return h.db.Close()
}
