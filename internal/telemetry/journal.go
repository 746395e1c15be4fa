package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Journal writes tick samples as zstd-compressed JSONL, one line per tick.
// It complements the SQLite recorder with a cheap bulk-export format.
type Journal struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// OpenJournal creates (or truncates) a journal file at path.
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Journal{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Write appends one sample line.
func (j *Journal) Write(sample TickSample) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return nil
	}
	line, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(line); err != nil {
		return err
	}
	return j.w.WriteByte('\n')
}

// Close flushes and releases the journal.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w != nil {
		_ = j.w.Flush()
		j.w = nil
	}
	var firstErr error
	if j.enc != nil {
		firstErr = j.enc.Close()
		j.enc = nil
	}
	if j.f != nil {
		if err := j.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		j.f = nil
	}
	return firstErr
}
