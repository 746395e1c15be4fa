package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	rec, err := OpenRecorder(path)
	if err != nil {
		t.Fatalf("OpenRecorder: %v", err)
	}
	defer rec.Close()

	for tick := uint64(1); tick <= 3; tick++ {
		err := rec.Record(TickSample{
			Tick:            tick,
			AgentUpdates:    int(tick) * 2,
			Pathfinds:       int(tick),
			QueueDepth:      5 - int(tick),
			Agents:          10,
			DurationMillis:  1.5,
			TotalTimeSecond: float64(tick) / 2,
		})
		if err != nil {
			t.Fatalf("Record tick %d: %v", tick, err)
		}
	}

	samples, err := rec.Samples(10)
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[0].Tick != 1 || samples[2].Tick != 3 {
		t.Fatalf("expected ascending tick order, got %+v", samples)
	}
	if samples[1].AgentUpdates != 4 {
		t.Fatalf("expected round-tripped agent updates, got %d", samples[1].AgentUpdates)
	}
	if samples[2].TotalTimeSecond != 1.5 || samples[2].DurationMillis != 1.5 {
		t.Fatalf("expected round-tripped timing fields, got %+v", samples[2])
	}
}

func TestRecorderRejectsEmptyPath(t *testing.T) {
	if _, err := OpenRecorder(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestJournalWritesCompressedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.jsonl.zst")
	journal, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	for tick := uint64(1); tick <= 5; tick++ {
		if err := journal.Write(TickSample{Tick: tick, Agents: 3}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	scanner := bufio.NewScanner(dec)
	count := 0
	for scanner.Scan() {
		var sample TickSample
		if err := json.Unmarshal(scanner.Bytes(), &sample); err != nil {
			t.Fatalf("line %d: %v", count, err)
		}
		count++
		if sample.Tick != uint64(count) {
			t.Fatalf("expected tick %d, got %d", count, sample.Tick)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 lines, got %d", count)
	}
}
