// Package recorder persists per-frame tracking output to SQLite.
//
// Each invocation of the tracker is a run, identified by a UUID. Frames and
// track observations are written as the pipeline produces them; nothing is
// ever read back into the tracker.
package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/socialnavi/pedtrack/internal/detection"
	"github.com/socialnavi/pedtrack/internal/monitoring"
	"github.com/socialnavi/pedtrack/internal/tracking"
)

// ErrNoRun is returned by Record before BeginRun has been called.
var ErrNoRun = errors.New("recorder: no run started")

// Observation is one stored track row.
type Observation struct {
	FrameIndex int
	TrackID    int
	Box        tracking.BBox
	Center     tracking.Point
	Age        int
	Misses     int
	State      tracking.TrackState
	Depth      sql.NullFloat64
}

// Recorder writes snapshots for a single run at a time.
type Recorder struct {
	db *sql.DB

	mu    sync.Mutex
	runID string
}

// Open opens (or creates) the database at path and brings its schema up to
// date.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	r := &Recorder{db: db}
	if err := r.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// RunID returns the current run's ID, or "" before BeginRun.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// BeginRun starts a new run. params is stored as JSON alongside the run,
// typically the effective tuning configuration.
func (r *Recorder) BeginRun(source string, params interface{}) (string, error) {
	var paramsJSON sql.NullString
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return "", fmt.Errorf("failed to encode run params: %w", err)
		}
		paramsJSON = sql.NullString{String: string(b), Valid: true}
	}

	id := uuid.NewString()
	if _, err := r.db.Exec(`INSERT INTO runs (run_id, source, params_json) VALUES (?, ?, ?)`,
		id, source, paramsJSON); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	r.mu.Lock()
	r.runID = id
	r.mu.Unlock()
	monitoring.Logf("[recorder] started run %s for %s", id, source)
	return id, nil
}

// Record stores one frame and every live track in its snapshot. It
// satisfies pipeline.Sink.
func (r *Recorder) Record(frame detection.FrameInfo, snap tracking.Snapshot, dets []detection.Detection) error {
	runID := r.RunID()
	if runID == "" {
		return ErrNoRun
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO frames (run_id, frame_index, frame_name, detection_count, track_count)
		VALUES (?, ?, ?, ?, ?)`, runID, snap.Frame, frame.Name, len(dets), len(snap.Tracks)); err != nil {
		return fmt.Errorf("failed to insert frame %s: %w", frame.Name, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO track_observations (
			run_id, frame_index, track_id, x_min, y_min, x_max, y_max,
			center_x, center_y, age, misses, state, depth
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare observation insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range snap.Tracks {
		depth := sql.NullFloat64{Float64: t.Depth, Valid: t.HasDepth}
		if _, err := stmt.Exec(runID, snap.Frame, t.ID,
			t.Box.XMin, t.Box.YMin, t.Box.XMax, t.Box.YMax,
			t.Center.X, t.Center.Y, t.Age, t.Misses, string(t.State), depth); err != nil {
			return fmt.Errorf("failed to insert track %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit frame %s: %w", frame.Name, err)
	}
	return nil
}

// TrackHistory returns every stored observation of a track in frame order.
func (r *Recorder) TrackHistory(runID string, trackID int) ([]Observation, error) {
	rows, err := r.db.Query(`SELECT frame_index, track_id, x_min, y_min, x_max, y_max,
			center_x, center_y, age, misses, state, depth
		FROM track_observations
		WHERE run_id = ? AND track_id = ?
		ORDER BY frame_index`, runID, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track %d: %w", trackID, err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var o Observation
		var state string
		if err := rows.Scan(&o.FrameIndex, &o.TrackID,
			&o.Box.XMin, &o.Box.YMin, &o.Box.XMax, &o.Box.YMax,
			&o.Center.X, &o.Center.Y, &o.Age, &o.Misses, &state, &o.Depth); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.State = tracking.TrackState(state)
		out = append(out, o)
	}
	return out, rows.Err()
}

// FrameCount returns the number of frames stored for a run.
func (r *Recorder) FrameCount(runID string) (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM frames WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count frames: %w", err)
	}
	return n, nil
}
