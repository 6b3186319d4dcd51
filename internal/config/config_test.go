package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "VOYAGE_AI_PROVIDER", "VOYAGE_CONFIG", "VOYAGE_SESSION_BACKEND"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, ProviderNone, cfg.AI.Provider)
	assert.Equal(t, 40*time.Second, cfg.AI.CallTimeout)
	assert.Equal(t, 2, cfg.AI.MaxRetries)
	assert.InDelta(t, 0.65, cfg.Planner.Threshold, 1e-9)
	assert.Equal(t, 30, cfg.Planner.MaxDaysPerCity)
	assert.Equal(t, 15, cfg.Planner.ModifyMaxDays)
}

func TestLoadProviderFromKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "voyage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9000"
ai:
  call_timeout: 10s
planner:
  modify_max_days: 20
  max_days_per_city: 45
`), 0o600))
	t.Setenv("VOYAGE_CONFIG", path)
	t.Setenv("VOYAGE_HTTP_ADDR", ":9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.HTTP.Addr, "env wins over file")
	assert.Equal(t, 10*time.Second, cfg.AI.CallTimeout)
	assert.Equal(t, 20, cfg.Planner.ModifyMaxDays)
	assert.Equal(t, 45, cfg.Planner.MaxDaysPerCity)
	assert.Equal(t, 1, cfg.Planner.ModifyMinDays, "unset keys keep defaults")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Session.Backend = "mongo" }},
		{"gemini without key", func(c *Config) { c.AI.Provider = ProviderGemini }},
		{"openai without key", func(c *Config) { c.AI.Provider = ProviderOpenAI }},
		{"threshold out of range", func(c *Config) { c.Planner.Threshold = 1.5 }},
		{"inverted day range", func(c *Config) { c.Planner.ModifyMaxDays = 0 }},
		{"postgres without dsn", func(c *Config) { c.Session.Backend = BackendPostgres; c.DB.DSN = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.AI.Provider = ProviderNone
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	ok := Default()
	ok.AI.Provider = ProviderNone
	assert.NoError(t, ok.Validate())
}

func TestEnvOrDefaultList(t *testing.T) {
	t.Setenv("VOYAGE_TEST_LIST", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, envOrDefaultList("VOYAGE_TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, envOrDefaultList("VOYAGE_TEST_UNSET", []string{"x"}))
}
