package bootstrap

import (
	"testing"
	"time"

	"github.com/emifit/fitplan/pkg/backend"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, name := range []string{
		"GOOGLE_CLOUD_PROJECT", "PROJECT_ID", "PROCESS_URL", "PROCESS_PATH",
		"PROCESS_JSON_PATH", "GOALS_AUTO_PATH", "HEALTH_PATH", "FILE_FIELD",
		"SUBMIT_TIMEOUT", "HEALTH_TIMEOUT",
	} {
		t.Setenv(name, "")
	}

	cfg := LoadConfig()
	if cfg.ProcessURL != "http://localhost:8000" {
		t.Errorf("ProcessURL = %q", cfg.ProcessURL)
	}
	if cfg.SubmitTimeout != 0 || cfg.HealthTimeout != 0 {
		t.Errorf("unset timeouts must stay zero, got %v / %v", cfg.SubmitTimeout, cfg.HealthTimeout)
	}
}

func TestLoadConfigEndpointOverrides(t *testing.T) {
	t.Setenv("PROCESS_URL", "https://plans.example.com")
	t.Setenv("PROCESS_PATH", "/v2/process")
	t.Setenv("PROCESS_JSON_PATH", "/v2/process/json")
	t.Setenv("GOALS_AUTO_PATH", "/v2/goals/auto")
	t.Setenv("HEALTH_PATH", "/v2/health")
	t.Setenv("FILE_FIELD", "photo")
	t.Setenv("SUBMIT_TIMEOUT", "45s")
	t.Setenv("HEALTH_TIMEOUT", "2s")

	got := LoadConfig().BackendConfig()
	want := backend.Config{
		BaseURL:         "https://plans.example.com",
		ProcessPath:     "/v2/process",
		ProcessJSONPath: "/v2/process/json",
		GoalsAutoPath:   "/v2/goals/auto",
		HealthPath:      "/v2/health",
		FileField:       "photo",
		SubmitTimeout:   45 * time.Second,
		HealthTimeout:   2 * time.Second,
	}
	if got != want {
		t.Errorf("backend config = %+v, want %+v", got, want)
	}
}

func TestEnvDurationMalformed(t *testing.T) {
	t.Setenv("SUBMIT_TIMEOUT", "soon")
	if d := envDuration("SUBMIT_TIMEOUT"); d != 0 {
		t.Errorf("malformed duration = %v, want 0", d)
	}
}
