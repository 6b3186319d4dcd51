// README: Smoke cases for the planner API; health, chat turns, sessions, storage rows and load.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	// sessionID is the session opened by the chat cases.
	sessionID string
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency.Round(time.Millisecond))
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

type chatResult struct {
	status int
	body   struct {
		ResponseType      string `json:"responseType"`
		Question          string `json:"question"`
		Message           string `json:"message"`
		ConversationState struct {
			SessionID string `json:"sessionId"`
			Status    string `json:"status"`
			History   []any  `json:"history"`
		} `json:"conversationState"`
	}
	latency time.Duration
}

func (r *Runner) chat(ctx context.Context, sessionID, message string) (chatResult, error) {
	var out chatResult
	status, body, latency, err := r.do(ctx, http.MethodPost, "/api/chat", map[string]string{
		"message":   message,
		"sessionId": sessionID,
	})
	out.status, out.latency = status, latency
	if err != nil {
		return out, err
	}
	if status == http.StatusOK {
		if err := json.Unmarshal(body, &out.body); err != nil {
			return out, fmt.Errorf("decode chat response: %w", err)
		}
	}
	return out, nil
}

func (r *Runner) do(ctx context.Context, method, path string, payload any) (int, []byte, time.Duration, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, 0, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, time.Since(start), err
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "dsn not set"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not set"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "dsn not set"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: statusPass, Note: fmt.Sprintf("%d tables", len(tables))}
			},
		},
		{
			Name: "API: health",
			Run: func(ctx context.Context, r *Runner) Result {
				status, _, latency, err := r.do(ctx, http.MethodGet, "/health", nil)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return expectStatus(status, latency, http.StatusOK)
			},
		},
		{
			Name: "Chat: empty message -> 400",
			Run: func(ctx context.Context, r *Runner) Result {
				status, _, latency, err := r.do(ctx, http.MethodPost, "/api/chat", map[string]string{"message": " "})
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return expectStatus(status, latency, http.StatusBadRequest)
			},
		},
		{
			Name: "Chat: missing duration asks a question",
			Run: func(ctx context.Context, r *Runner) Result {
				res, err := r.chat(ctx, "", "I want to visit Lisbon")
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if res.status != http.StatusOK || res.body.ResponseType != "clarification" {
					return Result{Status: statusFail, Latency: res.latency, Note: fmt.Sprintf("status=%d type=%s", res.status, res.body.ResponseType)}
				}
				r.sessionID = res.body.ConversationState.SessionID
				return Result{Status: statusPass, Latency: res.latency, Note: res.body.Question}
			},
		},
		{
			Name: "Chat: answer completes the trip",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.sessionID == "" {
					return Result{Status: statusSkip, Note: "no session"}
				}
				res, err := r.chat(ctx, r.sessionID, "4")
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if res.status != http.StatusOK {
					return Result{Status: statusFail, Latency: res.latency, Note: fmt.Sprintf("status=%d", res.status)}
				}
				// The origin question comes next; skipping it starts generation.
				res, err = r.chat(ctx, r.sessionID, "skip")
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				switch res.body.ResponseType {
				case "itinerary", "information":
					return Result{Status: statusPass, Latency: res.latency, Note: "type=" + res.body.ResponseType}
				}
				return Result{Status: statusFail, Latency: res.latency, Note: fmt.Sprintf("type=%s message=%s", res.body.ResponseType, res.body.Message)}
			},
		},
		{
			Name: "Session: stored in Redis",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil || r.sessionID == "" {
					return Result{Status: statusSkip, Note: "redis or session not available"}
				}
				n, err := r.redis.Exists(ctx, r.cfg.RedisPrefix+r.sessionID).Result()
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if n == 0 {
					return Result{Status: statusSkip, Note: "key absent; server may use another backend"}
				}
				ttl, _ := r.redis.TTL(ctx, r.cfg.RedisPrefix+r.sessionID).Result()
				return Result{Status: statusPass, Note: fmt.Sprintf("ttl=%s", ttl)}
			},
		},
		{
			Name: "Session: stored in Postgres",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil || r.sessionID == "" {
					return Result{Status: statusSkip, Note: "db or session not available"}
				}
				var status string
				err := r.db.QueryRow(ctx, "SELECT status FROM conversation_sessions WHERE id=$1", r.sessionID).Scan(&status)
				if err != nil {
					return Result{Status: statusSkip, Note: "row absent; server may use another backend"}
				}
				return Result{Status: statusPass, Note: "status=" + status}
			},
		},
		{
			Name: "Session: concurrent turns are serialized",
			Run: func(ctx context.Context, r *Runner) Result {
				return concurrentTurns(ctx, r)
			},
		},
		{
			Name: "Session: delete then 404",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.sessionID == "" {
					return Result{Status: statusSkip, Note: "no session"}
				}
				status, _, _, err := r.do(ctx, http.MethodDelete, "/api/sessions/"+r.sessionID, nil)
				if err != nil || status != http.StatusNoContent {
					return Result{Status: statusFail, Note: fmt.Sprintf("delete status=%d err=%v", status, err)}
				}
				status, _, latency, err := r.do(ctx, http.MethodGet, "/api/sessions/"+r.sessionID, nil)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return expectStatus(status, latency, http.StatusNotFound)
			},
		},
		{
			Name: "Perf: clarification turns",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r)
			},
		},
	}
}

func expectStatus(status int, latency time.Duration, want int) Result {
	if status == want {
		return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", status)}
	}
	return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d want=%d", status, want)}
}

// concurrentTurns fires parallel turns at one session and checks that every
// accepted turn landed in the history exactly once.
func concurrentTurns(ctx context.Context, r *Runner) Result {
	id := uuid.NewString()
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		busy     int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.chat(ctx, id, "I want to go to Porto")
			if err != nil {
				return
			}
			mu.Lock()
			switch res.status {
			case http.StatusOK:
				accepted++
			case http.StatusConflict, http.StatusTooManyRequests:
				busy++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	status, body, _, err := r.do(ctx, http.MethodGet, "/api/sessions/"+id, nil)
	if err != nil || status != http.StatusOK {
		return Result{Status: statusFail, Note: fmt.Sprintf("get session status=%d err=%v", status, err)}
	}
	var st struct {
		History []any `json:"history"`
	}
	if err := json.Unmarshal(body, &st); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	_, _, _, _ = r.do(ctx, http.MethodDelete, "/api/sessions/"+id, nil)

	note := fmt.Sprintf("accepted=%d busy=%d history=%d", accepted, busy, len(st.History))
	if len(st.History) != 2*accepted {
		return Result{Status: statusFail, Note: note}
	}
	return Result{Status: statusPass, Note: note}
}

func perfLoad(ctx context.Context, r *Runner) Result {
	end := time.Now().Add(r.cfg.Duration)
	var (
		count, errCount, limited int64
		mu                       sync.Mutex
		wg                       sync.WaitGroup
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				res, err := r.chat(ctx, "", "I want to visit Kyoto")
				mu.Lock()
				switch {
				case err != nil:
					errCount++
				case res.status == http.StatusTooManyRequests:
					limited++
				default:
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: fmt.Sprintf("no requests completed (rate limited=%d)", limited)}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d rate_limited=%d", rps, errCount, limited)}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}
