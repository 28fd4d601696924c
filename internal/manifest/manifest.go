// Package manifest keeps an index of generated samples in a SQLite
// database so a dataset can be audited and partially regenerated.
package manifest

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite" // Register the pure Go "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	seed        INTEGER NOT NULL,
	pipeline    TEXT NOT NULL,
	started_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS samples (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	idx         INTEGER NOT NULL,
	source      TEXT NOT NULL,
	output      TEXT NOT NULL,
	background  TEXT NOT NULL,
	blake3      TEXT NOT NULL,
	border      INTEGER NOT NULL,
	regions     INTEGER NOT NULL,
	shrinks     INTEGER NOT NULL,
	status      TEXT NOT NULL,
	reason      TEXT NOT NULL,
	PRIMARY KEY (run_id, idx)
);`

// Status is the outcome of one sample.
type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
)

// Sample is one row of the manifest.
type Sample struct {
	Index      int    `json:"index"`
	Source     string `json:"source"`
	Output     string `json:"output"`
	Background string `json:"background"`
	Hash       string `json:"blake3"`
	Border     int    `json:"border"`
	Regions    int    `json:"regions"`
	Shrinks    int    `json:"shrinks"`
	Status     Status `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// Manifest is an open manifest database.
type Manifest struct {
	db *sql.DB
}

// Open opens or creates the manifest at path. Use ":memory:" for a
// throwaway database.
func Open(path string) (*Manifest, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create manifest schema: %w", err)
	}
	return &Manifest{db: db}, nil
}

// Close closes the database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Run records the samples of one generation run.
type Run struct {
	m  *Manifest
	id string
}

// ID returns the run's identifier.
func (r *Run) ID() string { return r.id }

// StartRun registers a new run and returns it.
func (m *Manifest) StartRun(ctx context.Context, seed uint64, pipeline string) (*Run, error) {
	id := uuid.NewString()
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO runs (id, seed, pipeline, started_at) VALUES (?, ?, ?, ?)`,
		id, int64(seed), pipeline, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return &Run{m: m, id: id}, nil
}

// Record stores one sample. Recording the same index twice in a run is an
// error.
func (r *Run) Record(ctx context.Context, s Sample) error {
	_, err := r.m.db.ExecContext(ctx,
		`INSERT INTO samples (run_id, idx, source, output, background, blake3, border, regions, shrinks, status, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, s.Index, s.Source, s.Output, s.Background, s.Hash, s.Border, s.Regions, s.Shrinks, string(s.Status), s.Reason)
	if err != nil {
		return fmt.Errorf("failed to record sample %d: %w", s.Index, err)
	}
	return nil
}

// Samples returns the samples of runID ordered by index.
func (m *Manifest) Samples(ctx context.Context, runID string) ([]Sample, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT idx, source, output, background, blake3, border, regions, shrinks, status, reason
		 FROM samples WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var s Sample
		var status string
		if err := rows.Scan(&s.Index, &s.Source, &s.Output, &s.Background, &s.Hash,
			&s.Border, &s.Regions, &s.Shrinks, &status, &s.Reason); err != nil {
			return nil, fmt.Errorf("failed to read sample: %w", err)
		}
		s.Status = Status(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Summary aggregates one run.
type Summary struct {
	RunID         string  `json:"run_id"`
	Written       int     `json:"written"`
	Skipped       int     `json:"skipped"`
	MeanShrinks   float64 `json:"mean_shrinks"`
	StdDevShrinks float64 `json:"stddev_shrinks"`
	MeanBorder    float64 `json:"mean_border"`
}

// Summary computes counts and shrink statistics over the written samples
// of runID.
func (m *Manifest) Summary(ctx context.Context, runID string) (*Summary, error) {
	samples, err := m.Samples(ctx, runID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{RunID: runID}
	var shrinks, borders []float64
	for _, s := range samples {
		switch s.Status {
		case StatusWritten:
			sum.Written++
			shrinks = append(shrinks, float64(s.Shrinks))
			borders = append(borders, float64(s.Border))
		case StatusSkipped:
			sum.Skipped++
		}
	}

	if len(shrinks) > 0 {
		sum.MeanShrinks, sum.StdDevShrinks = stat.MeanStdDev(shrinks, nil)
		sum.MeanBorder = stat.Mean(borders, nil)
	}
	if len(shrinks) < 2 {
		sum.StdDevShrinks = 0
	}
	return sum, nil
}

// Hash returns the hex BLAKE3 digest of data.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the hex BLAKE3 digest of the file at path.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return Hash(data), nil
}

// Mismatch is a written sample whose output no longer matches its recorded
// digest.
type Mismatch struct {
	Index  int    `json:"index"`
	Output string `json:"output"`
	Want   string `json:"want"`
	Got    string `json:"got,omitempty"`
	Err    string `json:"error,omitempty"`
}

// Verify re-hashes the output of every written sample of runID and returns
// the samples whose file is missing or differs from the manifest. Skipped
// samples have no output and are not checked.
func (m *Manifest) Verify(ctx context.Context, runID string) ([]Mismatch, error) {
	samples, err := m.Samples(ctx, runID)
	if err != nil {
		return nil, err
	}

	var bad []Mismatch
	for _, s := range samples {
		if s.Status != StatusWritten {
			continue
		}
		if err := ctx.Err(); err != nil {
			return bad, err
		}
		got, err := HashFile(s.Output)
		switch {
		case err != nil:
			bad = append(bad, Mismatch{Index: s.Index, Output: s.Output, Want: s.Hash, Err: err.Error()})
		case got != s.Hash:
			bad = append(bad, Mismatch{Index: s.Index, Output: s.Output, Want: s.Hash, Got: got})
		}
	}
	return bad, nil
}
