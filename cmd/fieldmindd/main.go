// Command fieldmindd runs a self-contained demo simulation: a handful of
// profile-driven NPC agents and one scripted intruder on an open field. It
// exposes health, stats and a websocket stream for watching the tick reports.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"fieldmind/internal/engine"
	"fieldmind/internal/nav"
	"fieldmind/internal/profiles"
	"fieldmind/internal/telemetry"
	"fieldmind/logging"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "listen address")
		profilesPath = flag.String("profiles", "", "profile catalog YAML (optional)")
		dbPath       = flag.String("db", "", "tick stats SQLite file (optional)")
		journalPath  = flag.String("journal", "", "compressed tick journal (optional)")
		agentCount   = flag.Int("agents", 12, "number of NPC agents to seed")
		tickRate     = flag.Int("tick-rate", 15, "simulation ticks per second")
		algorithm    = flag.String("algorithm", string(nav.AlgorithmAStar), "pathfinding algorithm")
		verbose      = flag.Bool("verbose", false, "log debug events")
	)
	flag.Parse()

	minSeverity := logging.SeverityInfo
	if *verbose {
		minSeverity = logging.SeverityDebug
	}
	router := logging.NewRouter(logging.ClockFunc(time.Now), minSeverity, logging.NewConsoleSink(os.Stdout))
	defer router.Close(context.Background())

	metrics := logging.NewMetrics()

	var catalog *profiles.Catalog
	if *profilesPath != "" {
		loaded, err := profiles.Load(*profilesPath)
		if err != nil {
			log.Fatalf("load profiles: %v", err)
		}
		catalog = loaded
		log.Printf("loaded %d profiles from %s", catalog.Len(), *profilesPath)
	}

	var recorder *telemetry.Recorder
	if *dbPath != "" {
		r, err := telemetry.OpenRecorder(*dbPath)
		if err != nil {
			log.Fatalf("open recorder: %v", err)
		}
		recorder = r
		defer recorder.Close()
	}

	var journal *telemetry.Journal
	if *journalPath != "" {
		j, err := telemetry.OpenJournal(*journalPath)
		if err != nil {
			log.Fatalf("open journal: %v", err)
		}
		journal = j
		defer journal.Close()
	}

	hub := newHub()

	sim, err := newSimulation(simulationConfig{
		Algorithm: nav.Algorithm(*algorithm),
		Agents:    *agentCount,
		TickRate:  *tickRate,
		Catalog:   catalog,
		Publisher: router,
		Metrics:   telemetry.WrapMetrics(metrics),
		Recorder:  recorder,
		Journal:   journal,
		Hub:       hub,
	})
	if err != nil {
		log.Fatalf("build simulation: %v", err)
	}

	if *profilesPath != "" {
		go watchProfiles(*profilesPath, sim)
	}

	stop := make(chan struct{})
	go sim.Run(stop)
	defer close(stop)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Engine  engine.Stats        `json:"engine"`
			Metrics map[string]uint64   `json:"metrics"`
			Router  logging.RouterStats `json:"router"`
		}{
			Engine:  sim.Stats(),
			Metrics: metrics.Snapshot(),
			Router:  router.Stats(),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	http.HandleFunc("/ws", hub.handleWS)

	server := &http.Server{Addr: *addr}
	go func() {
		log.Printf("listening on %s", *addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
}

// watchProfiles reloads the catalog when the file changes on disk. A broken
// edit keeps the previous catalog in place.
func watchProfiles(path string, sim *simulation) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("profile watcher unavailable: %v", err)
		return
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		log.Printf("watch %s: %v", path, err)
		return
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			catalog, err := profiles.Load(path)
			if err != nil {
				log.Printf("profile reload rejected: %v", err)
				continue
			}
			sim.SwapCatalog(catalog)
			log.Printf("profiles reloaded: %d entries", catalog.Len())
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("profile watcher: %v", err)
		}
	}
}
