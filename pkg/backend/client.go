// Package backend is the HTTP gateway to the plan-generation service. It
// owns the two submission calls (multipart image, JSON manual entry), the
// auto-goal lookup, and the health check. Requests are validated locally
// before any network I/O; bearer tokens are attached by Transport.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	errs "github.com/emifit/fitplan/pkg/errors"
	"github.com/emifit/fitplan/pkg/types"
)

const (
	DefaultProcessPath     = "/process"
	DefaultProcessJSONPath = "/process/json"
	DefaultGoalsAutoPath   = "/goals/auto"
	DefaultHealthPath      = "/health"
	DefaultFileField       = "file"
	DefaultFilename        = "upload.jpg"

	DefaultSubmitTimeout = 20 * time.Second
	DefaultHealthTimeout = 5 * time.Second
)

// Config carries the externally supplied endpoint layout. Only BaseURL is
// required; paths and timeouts fall back to the defaults above.
type Config struct {
	BaseURL         string
	ProcessPath     string
	ProcessJSONPath string
	GoalsAutoPath   string
	HealthPath      string
	FileField       string
	SubmitTimeout   time.Duration
	HealthTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.ProcessPath == "" {
		c.ProcessPath = DefaultProcessPath
	}
	if c.ProcessJSONPath == "" {
		c.ProcessJSONPath = DefaultProcessJSONPath
	}
	if c.GoalsAutoPath == "" {
		c.GoalsAutoPath = DefaultGoalsAutoPath
	}
	if c.HealthPath == "" {
		c.HealthPath = DefaultHealthPath
	}
	if c.FileField == "" {
		c.FileField = DefaultFileField
	}
	if c.SubmitTimeout == 0 {
		c.SubmitTimeout = DefaultSubmitTimeout
	}
	if c.HealthTimeout == 0 {
		c.HealthTimeout = DefaultHealthTimeout
	}
	return c
}

// SubmitFields are the fields common to both submission modes.
type SubmitFields struct {
	Sex         int    `validate:"min=0,max=1"` // 0=female, 1=male
	Goal3200S   int    `validate:"gt=0"`
	GoalPush    int    `validate:"gt=0"`
	GoalSit     int    `validate:"gt=0"`
	UserID      string `validate:"required"`
	Constraints types.Constraints
}

// ImageRequest is a photo submission.
type ImageRequest struct {
	SubmitFields
	File     io.Reader `validate:"required"`
	Filename string
}

// ManualRequest is a hand-entered anthropometry submission. Height and
// weight bounds reject implausible entries before the backend sees them.
type ManualRequest struct {
	SubmitFields
	HeightM  float64 `validate:"required,gte=1.2,lte=2.3"`
	WeightKg float64 `validate:"required,gte=30,lte=200"`
}

// ProcessResponse is the backend's answer to either submission call.
type ProcessResponse struct {
	UploadID       string                 `json:"uploadId"`
	PredID         string                 `json:"predId"`
	PlanID         string                 `json:"planId"`
	HeightM        float64                `json:"height_m"`
	WeightKg       float64                `json:"weight_kg"`
	BMI            float64                `json:"bmi"`
	ClassIdx       int                    `json:"class_idx"`
	ClassName      string                 `json:"class_name"`
	ClassSource    string                 `json:"class_source"`
	Plan           map[string]interface{} `json:"plan"`
	PlanJSONPath   string                 `json:"plan_json_path"`
	ResultJSONPath string                 `json:"result_json_path"`
}

// HasIdentifiers reports whether the backend returned the full id triple.
func (r *ProcessResponse) HasIdentifiers() bool {
	return r != nil && r.UploadID != "" && r.PredID != "" && r.PlanID != ""
}

// GoalsAutoRequest asks the backend to derive goals from demographics.
type GoalsAutoRequest struct {
	Sex         string `json:"sex" validate:"oneof=M F"`
	AgeYears    int    `json:"ageYears" validate:"gt=0"`
	TargetScore int    `json:"targetScore" validate:"gte=60,lte=100"`
}

type GoalsAutoResponse struct {
	GoalPush  int `json:"goal_push"`
	GoalSit   int `json:"goal_sit"`
	Goal3200S int `json:"goal_3200_s"`
}

type Client struct {
	cfg      Config
	http     *http.Client
	validate *validator.Validate
	logger   *slog.Logger
}

func NewClient(cfg Config, source TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:      cfg.withDefaults(),
		http:     &http.Client{Transport: &Transport{Source: source}},
		validate: validator.New(),
		logger:   logger.With("component", "backend"),
	}
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

// SubmitImage posts a multipart photo submission to {base}/process.
func (c *Client) SubmitImage(ctx context.Context, req ImageRequest) (*ProcessResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, errs.ErrValidation.WithCause(err)
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	filename := req.Filename
	if filename == "" {
		filename = DefaultFilename
	}
	fw, err := w.CreateFormFile(c.cfg.FileField, filename)
	if err != nil {
		return nil, errs.ErrInternal.WithCause(err)
	}
	if _, err := io.Copy(fw, req.File); err != nil {
		return nil, errs.ErrInternal.WithCause(err)
	}

	fields := map[string]string{
		"sex":          itoa(req.Sex),
		"goal_3200_s":  itoa(req.Goal3200S),
		"goal_push":    itoa(req.GoalPush),
		"goal_sit":     itoa(req.GoalSit),
		"user_id":      req.UserID,
		"knee":         flag(req.Constraints.InjKnee),
		"shoulder":     flag(req.Constraints.InjShoulder),
		"back":         flag(req.Constraints.InjBack),
		"vegan":        flag(req.Constraints.Vegan),
		"lactose_free": flag(req.Constraints.LactoseFree),
		"gluten_free":  flag(req.Constraints.GlutenFree),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, errs.ErrInternal.WithCause(err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, errs.ErrInternal.WithCause(err)
	}

	var out ProcessResponse
	if err := c.do(ctx, http.MethodPost, c.url(c.cfg.ProcessPath), body, w.FormDataContentType(), c.cfg.SubmitTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitManual posts a JSON manual-entry submission to {base}/process/json.
func (c *Client) SubmitManual(ctx context.Context, req ManualRequest) (*ProcessResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, errs.ErrValidation.WithCause(err)
	}

	body := manualBody{
		InputMode:   "manual",
		Sex:         req.Sex,
		UserID:      req.UserID,
		Knee:        boolToInt(req.Constraints.InjKnee),
		Shoulder:    boolToInt(req.Constraints.InjShoulder),
		Back:        boolToInt(req.Constraints.InjBack),
		Vegan:       boolToInt(req.Constraints.Vegan),
		LactoseFree: boolToInt(req.Constraints.LactoseFree),
		GlutenFree:  boolToInt(req.Constraints.GlutenFree),
	}
	body.Manual.HeightM = req.HeightM
	body.Manual.WeightKg = req.WeightKg
	body.Goals.GoalPush = req.GoalPush
	body.Goals.GoalSit = req.GoalSit
	body.Goals.Goal3200S = req.Goal3200S

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errs.ErrInternal.WithCause(err)
	}

	var out ProcessResponse
	if err := c.do(ctx, http.MethodPost, c.url(c.cfg.ProcessJSONPath), bytes.NewReader(payload), "application/json", c.cfg.SubmitTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type manualBody struct {
	InputMode string `json:"input_mode"`
	Sex       int    `json:"sex"`
	Manual    struct {
		HeightM  float64 `json:"height_m"`
		WeightKg float64 `json:"weight_kg"`
	} `json:"manual"`
	Goals struct {
		GoalPush  int `json:"goal_push"`
		GoalSit   int `json:"goal_sit"`
		Goal3200S int `json:"goal_3200_s"`
	} `json:"goals"`
	UserID      string `json:"user_id"`
	Knee        int    `json:"knee"`
	Shoulder    int    `json:"shoulder"`
	Back        int    `json:"back"`
	Vegan       int    `json:"vegan"`
	LactoseFree int    `json:"lactose_free"`
	GlutenFree  int    `json:"gluten_free"`
}

// AutoGoals asks the backend for goal values matching the demographics.
func (c *Client) AutoGoals(ctx context.Context, req GoalsAutoRequest) (*GoalsAutoResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, errs.ErrValidation.WithCause(err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errs.ErrInternal.WithCause(err)
	}

	var out GoalsAutoResponse
	if err := c.do(ctx, http.MethodPost, c.url(c.cfg.GoalsAutoPath), bytes.NewReader(payload), "application/json", c.cfg.SubmitTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks the backend with a short timeout. Any 2xx is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.url(c.cfg.HealthPath), nil, "", c.cfg.HealthTimeout, nil)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string, timeout time.Duration, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errs.ErrInternal.WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("Backend call timed out", "method", method, "url", url, "timeout", timeout)
			return errs.ErrBackendTimeout.WithCause(err).WithMetadata("url", url)
		}
		c.logger.Warn("Backend unreachable", "method", method, "url", url, "error", err)
		return errs.ErrBackendUnreachable.WithCause(err).WithMetadata("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp, method, url)
		c.logger.Warn("Backend rejected request", "method", method, "url", url, "status", resp.StatusCode)
		return errs.Wrap(apiErr, errs.CodeBackendRejected, fmt.Sprintf("backend returned %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(err, errs.CodeBackendRejected, "invalid response body")
	}
	return nil
}

func itoa(v int) string { return strconv.Itoa(v) }

func flag(b bool) string { return itoa(boolToInt(b)) }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
