package main

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the server configuration, read from the environment after an
// optional .env file.
type Config struct {
	Addr           string
	ClientDir      string
	DBPath         string
	JWTSecret      string
	Tuning         Tuning
	RollbackWindow int
	InputDelay     int
}

// LoadConfig loads .env (if present) and the GC_* variables.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("could not load .env: %v", err)
	}

	tuning := DefaultTuning()
	tuning.MinTrailLife = envDuration("GC_MIN_TRAIL_LIFE", tuning.MinTrailLife)
	tuning.FuelFloor = envBool("GC_FUEL_FLOOR", tuning.FuelFloor)

	return Config{
		Addr:           envString("GC_ADDR", ":8080"),
		ClientDir:      envString("GC_CLIENT_DIR", ""),
		DBPath:         envString("GC_DB_PATH", "galaxycats.db"),
		JWTSecret:      os.Getenv("GC_JWT_SECRET"),
		Tuning:         tuning,
		RollbackWindow: envInt("GC_ROLLBACK_WINDOW", DefaultRollbackWindow),
		InputDelay:     envInt("GC_INPUT_DELAY", DefaultInputDelay),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("ignoring %s=%q: not a non-negative integer", key, v)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("ignoring %s=%q: not a duration", key, v)
		return def
	}
	return d
}
