package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"

	shared "github.com/emifit/fitplan/pkg"
	"github.com/emifit/fitplan/pkg/backend"
	"github.com/emifit/fitplan/pkg/infrastructure/database"
	infrapubsub "github.com/emifit/fitplan/pkg/infrastructure/pubsub"
	"github.com/emifit/fitplan/pkg/infrastructure/secrets"
	infrastorage "github.com/emifit/fitplan/pkg/infrastructure/storage"
	"github.com/emifit/fitplan/pkg/submission"
)

// Config holds standard configuration for the client
type Config struct {
	ProjectID          string
	ProcessURL         string
	ProcessPath        string
	ProcessJSONPath    string
	GoalsAutoPath      string
	HealthPath         string
	FileField          string
	SubmitTimeout      time.Duration
	HealthTimeout      time.Duration
	EnablePublish      bool
	ArtifactBucket     string
	BackendToken       string
	BackendTokenSecret string
}

// BackendConfig maps the env-derived settings onto the gateway config;
// unset values fall back to the gateway defaults.
func (c *Config) BackendConfig() backend.Config {
	return backend.Config{
		BaseURL:         c.ProcessURL,
		ProcessPath:     c.ProcessPath,
		ProcessJSONPath: c.ProcessJSONPath,
		GoalsAutoPath:   c.GoalsAutoPath,
		HealthPath:      c.HealthPath,
		FileField:       c.FileField,
		SubmitTimeout:   c.SubmitTimeout,
		HealthTimeout:   c.HealthTimeout,
	}
}

// Service holds initialized dependencies
type Service struct {
	DB         shared.Database
	Store      shared.BlobStore
	Pub        shared.Publisher
	Secrets    shared.SecretStore
	Backend    *backend.Client
	Submission *submission.Service
	Config     *Config
	Logger     *slog.Logger
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = os.Getenv("PROJECT_ID")
	}
	if projectID == "" {
		projectID = shared.ProjectID // Fallback
	}

	processURL := os.Getenv("PROCESS_URL")
	if processURL == "" {
		processURL = "http://localhost:8000"
	}

	return &Config{
		ProjectID:          projectID,
		ProcessURL:         processURL,
		ProcessPath:        os.Getenv("PROCESS_PATH"),
		ProcessJSONPath:    os.Getenv("PROCESS_JSON_PATH"),
		GoalsAutoPath:      os.Getenv("GOALS_AUTO_PATH"),
		HealthPath:         os.Getenv("HEALTH_PATH"),
		FileField:          os.Getenv("FILE_FIELD"),
		SubmitTimeout:      envDuration("SUBMIT_TIMEOUT"),
		HealthTimeout:      envDuration("HEALTH_TIMEOUT"),
		EnablePublish:      os.Getenv("ENABLE_PUBLISH") == "true",
		ArtifactBucket:     os.Getenv("ARTIFACT_BUCKET"),
		BackendToken:       os.Getenv("BACKEND_TOKEN"),
		BackendTokenSecret: os.Getenv("BACKEND_TOKEN_SECRET"),
	}
}

// envDuration parses a Go duration from the environment; unset or
// malformed values resolve to zero, leaving the gateway default in place.
func envDuration(name string) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("Ignoring malformed duration", "name", name, "value", v)
		return 0
	}
	return d
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message
type ComponentHandler struct {
	slog.Handler
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	var component string

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = a.Value.String()
			return false // stop
		}
		return true
	})

	if component != "" {
		newMsg := fmt.Sprintf("[%s] %s", component, r.Message)
		newRecord := slog.NewRecord(r.Time, r.Level, newMsg, r.PC)

		r.Attrs(func(a slog.Attr) bool {
			if a.Key != "component" {
				newRecord.AddAttrs(a)
			}
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// InitLogger configures structured logging with Cloud Logging compatible keys
func InitLogger() {
	opts := GetSlogHandlerOptions(slog.LevelInfo)
	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(&ComponentHandler{Handler: handler})
	slog.SetDefault(logger)
}

// NewLogger creates a configured logger instance
func NewLogger(serviceName string) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := GetSlogHandlerOptions(level)
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}

// NewService initializes all standard dependencies
func NewService(ctx context.Context) (*Service, error) {
	InitLogger()
	cfg := LoadConfig()
	logger := NewLogger("fitplan")

	slog.Info("Initializing client", "project_id", cfg.ProjectID, "process_url", cfg.ProcessURL)

	// Firestore
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Firestore init failed", "error", err)
		return nil, fmt.Errorf("firestore init: %w", err)
	}

	// Pub/Sub
	var pubAdapter shared.Publisher
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			slog.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		pubAdapter = &infrapubsub.PubSubAdapter{Client: psClient}
		slog.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		pubAdapter = &infrapubsub.LogPublisher{}
		slog.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	// Storage
	gcsClient, err := storage.NewClient(ctx)
	if err != nil {
		slog.Error("Storage init failed", "error", err)
		return nil, fmt.Errorf("storage init: %w", err)
	}

	secretStore := &secrets.SecretsAdapter{}

	source, err := tokenSource(ctx, cfg, secretStore)
	if err != nil {
		return nil, err
	}

	be := backend.NewClient(cfg.BackendConfig(), source, logger)
	db := database.NewFirestoreAdapter(fsClient)

	return &Service{
		DB:         db,
		Pub:        pubAdapter,
		Store:      &infrastorage.StorageAdapter{Client: gcsClient},
		Secrets:    secretStore,
		Backend:    be,
		Submission: submission.NewService(be, db, pubAdapter, shared.TopicSubmissionCompleted, logger),
		Config:     cfg,
		Logger:     logger,
	}, nil
}

// tokenSource resolves the backend bearer token: a literal env token wins,
// then a Secret Manager reference; with neither the client goes out
// unauthenticated (local backend).
func tokenSource(ctx context.Context, cfg *Config, store shared.SecretStore) (backend.TokenSource, error) {
	if cfg.BackendToken != "" {
		return backend.StaticTokenSource(cfg.BackendToken), nil
	}
	if cfg.BackendTokenSecret != "" {
		token, err := store.GetSecret(ctx, cfg.ProjectID, cfg.BackendTokenSecret)
		if err != nil {
			slog.Error("Backend token secret fetch failed", "secret", cfg.BackendTokenSecret, "error", err)
			return nil, fmt.Errorf("backend token secret: %w", err)
		}
		return backend.StaticTokenSource(token), nil
	}
	return nil, nil
}
