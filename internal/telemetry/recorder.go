package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Recorder appends tick samples to a SQLite history table. It is a secondary
// index for offline analysis; write failures are returned but safe to log
// and ignore.
type Recorder struct {
	db *sql.DB
}

// OpenRecorder opens (or creates) the history database at path.
func OpenRecorder(path string) (*Recorder, error) {
	if path == "" {
		return nil, fmt.Errorf("telemetry: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// WAL suits the append-only tick stream.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	schema := `CREATE TABLE IF NOT EXISTS tick_stats (
		tick INTEGER PRIMARY KEY,
		agent_updates INTEGER NOT NULL,
		pathfinds INTEGER NOT NULL,
		path_cache_size INTEGER NOT NULL,
		field_cache_size INTEGER NOT NULL,
		queue_depth INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		duration_millis REAL NOT NULL,
		total_time_seconds REAL NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Recorder{db: db}, nil
}

// Record inserts or replaces one tick sample.
func (r *Recorder) Record(sample TickSample) error {
	if r == nil || r.db == nil {
		return nil
	}
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO tick_stats
		(tick, agent_updates, pathfinds, path_cache_size, field_cache_size, queue_depth, agents, duration_millis, total_time_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sample.Tick,
		sample.AgentUpdates,
		sample.Pathfinds,
		sample.PathCacheSize,
		sample.FieldCacheSize,
		sample.QueueDepth,
		sample.Agents,
		sample.DurationMillis,
		sample.TotalTimeSecond,
	)
	return err
}

// Samples reads back up to limit samples in tick order, newest last.
func (r *Recorder) Samples(limit int) ([]TickSample, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(
		`SELECT tick, agent_updates, pathfinds, path_cache_size, field_cache_size, queue_depth, agents, duration_millis, total_time_seconds
		FROM tick_stats ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	samples := make([]TickSample, 0, limit)
	for rows.Next() {
		var s TickSample
		if err := rows.Scan(&s.Tick, &s.AgentUpdates, &s.Pathfinds, &s.PathCacheSize,
			&s.FieldCacheSize, &s.QueueDepth, &s.Agents, &s.DurationMillis, &s.TotalTimeSecond); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse into ascending tick order.
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	return samples, nil
}

// Close releases the database handle.
func (r *Recorder) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
