// Package resultstore keeps solved deals in a SQLite database so a batch
// can be resumed or re-run without solving the same positions again.
package resultstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
	fingerprint TEXT NOT NULL,
	settings    TEXT NOT NULL,
	doc         BLOB NOT NULL,
	created_at  INTEGER NOT NULL,
	PRIMARY KEY (fingerprint, settings)
)`

// Store maps a position fingerprint and the solver settings that produced
// a result to the serialized result.
type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Msg("result-store-opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored document, and whether there was one.
func (s *Store) Get(ctx context.Context, fingerprint, settings string) ([]byte, bool, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT doc FROM results WHERE fingerprint = ? AND settings = ?",
		fingerprint, settings).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Put stores doc, replacing any earlier document for the same key. A
// locked database is retried with backoff.
func (s *Store) Put(ctx context.Context, fingerprint, settings string, doc []byte) error {
	return retry.Do(
		func() error {
			_, err := s.db.ExecContext(ctx,
				`INSERT INTO results (fingerprint, settings, doc, created_at) VALUES (?, ?, ?, ?)
				 ON CONFLICT (fingerprint, settings) DO UPDATE SET doc = excluded.doc, created_at = excluded.created_at`,
				fingerprint, settings, doc, time.Now().Unix())
			return err
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Debug().Err(err).Uint("n", n).Msg("result-store-busy-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
}

// Count returns the number of stored results.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM results").Scan(&n)
	return n, err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
