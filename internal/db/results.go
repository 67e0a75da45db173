package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go-hep.org/x/hep/hbook"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// Histogram samples.
const (
	SampleSignal     = "signal"
	SampleBackground = "background"
)

// RunSummary holds the totals of a finished run.
type RunSummary struct {
	EventsSeen      int
	EventsAccepted  int
	SignalPairs     int
	BackgroundPairs int
	RejectedPairs   int
}

// Run is one stored analysis run.
type Run struct {
	ID         string
	CreatedAt  time.Time
	FinishedAt time.Time // zero while the run is open
	ConfigJSON string
	Input      string
	Summary    RunSummary
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// BinSummary is the pair count of one pair bin within a run.
type BinSummary struct {
	Key             string
	SignalPairs     int
	BackgroundPairs int
}

// HistogramBin is one stored histogram bin.
type HistogramBin struct {
	Index   int
	XLow    float64
	XHigh   float64
	SumW    float64
	Entries int64
}

// CreateRun records a new run with the analysis configuration it used and
// returns its id.
func (db *DB) CreateRun(configJSON, input string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO runs (run_id, created_unix_ns, config_json, input) VALUES (?, ?, ?, ?)`,
		id, db.clock.Now().UnixNano(), configJSON, input,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// FinishRun stores the run totals and marks the run finished.
func (db *DB) FinishRun(runID string, s RunSummary) error {
	res, err := db.Exec(
		`UPDATE runs SET finished_unix_ns = ?, events_seen = ?, events_accepted = ?,
			signal_pairs = ?, background_pairs = ?, rejected_pairs = ?
		WHERE run_id = ?`,
		db.clock.Now().UnixNano(), s.EventsSeen, s.EventsAccepted,
		s.SignalPairs, s.BackgroundPairs, s.RejectedPairs, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return requireRow(res, runID)
}

// SaveBin inserts or replaces the pair counts of one bin.
func (db *DB) SaveBin(runID string, b BinSummary) error {
	_, err := db.Exec(
		`INSERT INTO bins (run_id, bin_key, signal_pairs, background_pairs) VALUES (?, ?, ?, ?)
		ON CONFLICT (run_id, bin_key) DO UPDATE SET
			signal_pairs = excluded.signal_pairs,
			background_pairs = excluded.background_pairs`,
		runID, b.Key, b.SignalPairs, b.BackgroundPairs,
	)
	if err != nil {
		return fmt.Errorf("failed to save bin %s: %w", b.Key, err)
	}
	return nil
}

// SaveHistogram replaces the stored contents of one histogram in a single
// transaction. Under- and overflow are not stored.
func (db *DB) SaveHistogram(runID, binKey, kind, sample string, h *hbook.H1D) error {
	if sample != SampleSignal && sample != SampleBackground {
		return fmt.Errorf("unknown histogram sample %q", sample)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM histogram_bins WHERE run_id = ? AND bin_key = ? AND kind = ? AND sample = ?`,
		runID, binKey, kind, sample,
	); err != nil {
		return fmt.Errorf("failed to clear histogram: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO histogram_bins (run_id, bin_key, kind, sample, bin_index, x_low, x_high, sum_w, entries)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range h.Binning.Bins {
		if _, err := stmt.Exec(runID, binKey, kind, sample, i, b.XMin(), b.XMax(), b.SumW(), b.Entries()); err != nil {
			return fmt.Errorf("failed to insert histogram bin %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Runs returns every run, oldest first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query(
		`SELECT run_id, created_unix_ns, finished_unix_ns, config_json, input,
			events_seen, events_accepted, signal_pairs, background_pairs, rejected_pairs
		FROM runs ORDER BY created_unix_ns, rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &created, &finished, &r.ConfigJSON, &r.Input,
			&r.Summary.EventsSeen, &r.Summary.EventsAccepted,
			&r.Summary.SignalPairs, &r.Summary.BackgroundPairs, &r.Summary.RejectedPairs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		if finished.Valid {
			r.FinishedAt = time.Unix(0, finished.Int64).UTC()
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// BinSummaries returns the stored bins of a run ordered by key.
func (db *DB) BinSummaries(runID string) ([]BinSummary, error) {
	rows, err := db.Query(
		`SELECT bin_key, signal_pairs, background_pairs FROM bins WHERE run_id = ? ORDER BY bin_key`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query bins: %w", err)
	}
	defer rows.Close()

	var out []BinSummary
	for rows.Next() {
		var b BinSummary
		if err := rows.Scan(&b.Key, &b.SignalPairs, &b.BackgroundPairs); err != nil {
			return nil, fmt.Errorf("failed to scan bin: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// HistogramBins returns one stored histogram ordered by bin index.
func (db *DB) HistogramBins(runID, binKey, kind, sample string) ([]HistogramBin, error) {
	rows, err := db.Query(
		`SELECT bin_index, x_low, x_high, sum_w, entries FROM histogram_bins
		WHERE run_id = ? AND bin_key = ? AND kind = ? AND sample = ?
		ORDER BY bin_index`,
		runID, binKey, kind, sample,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query histogram: %w", err)
	}
	defer rows.Close()

	var out []HistogramBin
	for rows.Next() {
		var b HistogramBin
		if err := rows.Scan(&b.Index, &b.XLow, &b.XHigh, &b.SumW, &b.Entries); err != nil {
			return nil, fmt.Errorf("failed to scan histogram bin: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
