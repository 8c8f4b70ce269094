package calllog

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// maxSummaries caps the table; the oldest records are pruned on insert.
const maxSummaries = 200

// Store persists completed call summaries to PostgreSQL. It is the data
// source behind the summaries API the reporting dashboard reads.
type Store struct {
	db *sql.DB
}

// Open connects to the call log database at connStr.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("calllog open: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("calllog ping: %w", err)
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("calllog migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return err
	}

	var current int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), -1) FROM schema_version`)
	if err = row.Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for i := current + 1; i < len(entries); i++ {
		data, readErr := migrationFS.ReadFile("migrations/" + entries[i].Name())
		if readErr != nil {
			return fmt.Errorf("read migration %d: %w", i, readErr)
		}
		if _, execErr := db.Exec(string(data)); execErr != nil {
			return fmt.Errorf("migration %d: %w", i, execErr)
		}
		if _, execErr := db.Exec(`INSERT INTO schema_version (version) VALUES ($1)`, i); execErr != nil {
			return fmt.Errorf("migration %d record: %w", i, execErr)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores one summary and prunes old records.
func (s *Store) Insert(rec Summary) error {
	_, err := s.db.Exec(
		`INSERT INTO call_summaries (id, call_id, status, summary, transcript, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.CallID, rec.Status, rec.Summary, rec.Transcript,
		rec.StartedAt.UTC(), rec.EndedAt.UTC(),
	)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`DELETE FROM call_summaries WHERE id NOT IN
		 (SELECT id FROM call_summaries ORDER BY ended_at DESC LIMIT $1)`,
		maxSummaries,
	)
	return err
}

// InsertAsync stores a summary in a background goroutine. Errors are logged,
// not propagated, so call teardown never waits on the database.
func (s *Store) InsertAsync(rec Summary) {
	go func() {
		if err := s.Insert(rec); err != nil {
			slog.Error("call log insert", "call_id", rec.CallID, "error", err)
		}
	}()
}

// List returns summaries newest first, with the total count.
func (s *Store) List(limit, offset int) ([]Summary, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM call_summaries`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(`
		SELECT id, call_id, status, summary, transcript, started_at, ended_at
		FROM call_summaries
		ORDER BY ended_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recs []Summary
	for rows.Next() {
		var rec Summary
		if err = rows.Scan(&rec.ID, &rec.CallID, &rec.Status, &rec.Summary, &rec.Transcript, &rec.StartedAt, &rec.EndedAt); err != nil {
			return nil, 0, err
		}
		recs = append(recs, rec)
	}
	return recs, total, rows.Err()
}

// Get returns a single summary by record id.
func (s *Store) Get(id string) (*Summary, error) {
	var rec Summary
	err := s.db.QueryRow(
		`SELECT id, call_id, status, summary, transcript, started_at, ended_at
		 FROM call_summaries WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.CallID, &rec.Status, &rec.Summary, &rec.Transcript, &rec.StartedAt, &rec.EndedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
