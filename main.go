package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

func main() {
	cfg := LoadConfig()

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	clientDir := flag.String("client", cfg.ClientDir, "Path to client directory (default: ../client)")
	dbPath := flag.String("db", cfg.DBPath, "Path to SQLite database (empty disables replays)")
	flag.Parse()

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
	}

	var db *DB
	if *dbPath != "" {
		var err error
		db, err = OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("open database %s: %v", *dbPath, err)
		}
		defer db.Close()
	}

	hub := NewHub(db, cfg)
	go hub.Run()

	mux := SetupRoutes(hub, *clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", *addr)
		log.Printf("Serving client files from %s", *clientDir)
		log.Printf("Rollback window %d frames, input delay %d frames, grace %v",
			cfg.RollbackWindow, cfg.InputDelay, cfg.Tuning.MinTrailLife)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	server.Close()
}
