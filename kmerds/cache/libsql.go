package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/tokenizer"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"
)

// LibSQLStore keeps encodings in a libSQL database. Every Open starts a new
// run; entries record the run that wrote them.
type LibSQLStore struct {
	db    *sql.DB
	runID uuid.UUID
}

// NewLibSQLStore opens dsn. A bare path is treated as a local file.
func NewLibSQLStore(dsn string) (*LibSQLStore, error) {
	if !strings.Contains(dsn, ":") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		dsn = "file:" + dsn
	}
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	s := &LibSQLStore{db: db, runID: uuid.New()}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Encoding cache opened", "dsn", dsn, "run_id", s.runID)
	return s, nil
}

func (s *LibSQLStore) init() error {
	createTables := []string{
		`CREATE TABLE IF NOT EXISTS runs (id TEXT PRIMARY KEY, started_at TEXT)`,
		`CREATE TABLE IF NOT EXISTS encodings (key TEXT PRIMARY KEY, run_id TEXT, created_at TEXT, payload BLOB)`,
	}
	for _, query := range createTables {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to initialize cache schema: %w", err)
		}
	}
	if _, err := s.db.Exec("INSERT INTO runs (id, started_at) VALUES (?, ?)",
		s.runID.String(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RunID identifies this store session.
func (s *LibSQLStore) RunID() uuid.UUID { return s.runID }

func (s *LibSQLStore) Get(key string) (*tokenizer.Encoding, bool, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM encodings WHERE key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error querying encoding: %w", err)
	}
	enc, err := unmarshalEncoding(payload)
	if err != nil {
		return nil, false, err
	}
	return enc, true, nil
}

func (s *LibSQLStore) Put(key string, enc *tokenizer.Encoding) error {
	payload, err := marshalEncoding(enc)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO encodings (key, run_id, created_at, payload) VALUES (?, ?, ?, ?)",
		key, s.runID.String(), time.Now().UTC().Format(time.RFC3339), payload)
	if err != nil {
		return fmt.Errorf("error inserting encoding: %w", err)
	}
	return nil
}

// Runs returns the ids of every run recorded in the database.
func (s *LibSQLStore) Runs() ([]uuid.UUID, error) {
	rows, err := s.db.Query("SELECT id FROM runs ORDER BY started_at")
	if err != nil {
		return nil, fmt.Errorf("error querying runs: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("error scanning run: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("error parsing run id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *LibSQLStore) Close() error {
	return s.db.Close()
}
