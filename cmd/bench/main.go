// README: Smoke and load runner for a deployed voyage API; executes HTTP/DB/Redis checks and prints results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	bench := NewRunner(cfg)
	results := bench.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail, skipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case statusPass:
			pass++
		case statusFail:
			fail++
		case statusSkip:
			skipped++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 || (cfg.Strict && skipped > 0) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL       string
	DSN           string
	RedisAddr     string
	RedisPrefix   string
	MigrationPath string
	Strict        bool
	Timeout       time.Duration
	Concurrency   int
	Duration      time.Duration
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("VOYAGE_BENCH_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.DSN, "dsn", os.Getenv("VOYAGE_DB_DSN"), "Postgres DSN (empty skips DB checks)")
	flag.StringVar(&cfg.RedisAddr, "redis", os.Getenv("VOYAGE_REDIS_ADDR"), "Redis address (empty skips Redis checks)")
	flag.StringVar(&cfg.RedisPrefix, "redis-prefix", envOrDefault("VOYAGE_SESSION_PREFIX", "voyage:session:"), "Session key prefix")
	flag.StringVar(&cfg.MigrationPath, "migration", envOrDefault("VOYAGE_BENCH_MIGRATION", "migrations/0001_sessions.sql"), "Migration SQL path")
	flag.BoolVar(&cfg.Strict, "strict", envOrDefaultBool("VOYAGE_BENCH_STRICT", false), "Fail on skipped checks")
	flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("VOYAGE_BENCH_TIMEOUT", 2*time.Minute), "Total timeout")
	flag.IntVar(&cfg.Concurrency, "concurrency", envOrDefaultInt("VOYAGE_BENCH_CONCURRENCY", 20), "Concurrency for load checks")
	flag.DurationVar(&cfg.Duration, "duration", envOrDefaultDuration("VOYAGE_BENCH_DURATION", 10*time.Second), "Duration for load checks")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "1" || v == "true" || v == "yes"
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
