// Package submission orchestrates sending a submission to the processing
// backend and fanning the result out to the client's own records: the
// Firestore mirror write and the completion event. The backend response is
// authoritative; the fan-out is best effort and never blocks the caller.
package submission

import (
	"context"
	"log/slog"
	"sync"
	"time"

	shared "github.com/emifit/fitplan/pkg"
	"github.com/emifit/fitplan/pkg/backend"
	errs "github.com/emifit/fitplan/pkg/errors"
	"github.com/emifit/fitplan/pkg/infrastructure/pubsub"
	"github.com/emifit/fitplan/pkg/types"
)

const (
	InputModeImage  = "image"
	InputModeManual = "manual"

	// fan-out writes run detached from the caller's context
	fanoutTimeout = 10 * time.Second
)

// Backend is the slice of the gateway the service needs.
type Backend interface {
	SubmitImage(ctx context.Context, req backend.ImageRequest) (*backend.ProcessResponse, error)
	SubmitManual(ctx context.Context, req backend.ManualRequest) (*backend.ProcessResponse, error)
}

// Mirror is the slice of the document store the service needs.
type Mirror interface {
	MirrorUpload(ctx context.Context, userID, uploadID string, u *types.Upload) error
}

type Service struct {
	Backend   Backend
	Store     Mirror
	Publisher shared.Publisher
	Topic     string
	Logger    *slog.Logger

	wg sync.WaitGroup
}

func NewService(b Backend, store Mirror, pub shared.Publisher, topic string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Backend:   b,
		Store:     store,
		Publisher: pub,
		Topic:     topic,
		Logger:    logger,
	}
}

// SubmitImage sends a photo submission and mirrors the accepted result.
func (s *Service) SubmitImage(ctx context.Context, req backend.ImageRequest) (*backend.ProcessResponse, error) {
	resp, err := s.Backend.SubmitImage(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.accept(resp); err != nil {
		return nil, err
	}
	s.fanout(req.SubmitFields, resp, InputModeImage, "")
	return resp, nil
}

// SubmitManual sends a hand-entered submission and mirrors the accepted
// result. The mirrored upload carries the manual marker instead of an
// image reference.
func (s *Service) SubmitManual(ctx context.Context, req backend.ManualRequest) (*backend.ProcessResponse, error) {
	resp, err := s.Backend.SubmitManual(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.accept(resp); err != nil {
		return nil, err
	}
	s.fanout(req.SubmitFields, resp, InputModeManual, types.ImagePathManual)
	return resp, nil
}

// Wait blocks until all detached fan-out work has finished. Callers that
// exit right after a submit (the CLI) use this to avoid dropping writes.
func (s *Service) Wait() {
	s.wg.Wait()
}

// accept rejects responses that lack the id triple. A 2xx without all three
// ids means the backend did not finish plan generation.
func (s *Service) accept(resp *backend.ProcessResponse) error {
	if !resp.HasIdentifiers() {
		return errs.ErrBackendRejected.WithMessage("backend response missing upload, prediction, or plan id")
	}
	return nil
}

func (s *Service) fanout(fields backend.SubmitFields, resp *backend.ProcessResponse, mode, imagePath string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
		defer cancel()
		s.mirror(ctx, fields, resp, imagePath)
		s.announce(ctx, fields.UserID, resp, mode)
	}()
}

// mirror writes the client-owned copy of the accepted upload. Failure is
// logged and swallowed: the server-side document remains the source of truth
// and the history view will pick it up regardless.
func (s *Service) mirror(ctx context.Context, fields backend.SubmitFields, resp *backend.ProcessResponse, imagePath string) {
	if s.Store == nil {
		return
	}
	u := &types.Upload{
		ID:          resp.UploadID,
		ImagePath:   imagePath,
		Sex:         fields.Sex,
		Goals:       types.Goals{RunS: fields.Goal3200S, Push: fields.GoalPush, Sit: fields.GoalSit},
		Constraints: fields.Constraints,
		Status:      types.StatusPlanned,
		PredID:      resp.PredID,
		PlanID:      resp.PlanID,
	}
	if err := s.Store.MirrorUpload(ctx, fields.UserID, resp.UploadID, u); err != nil {
		s.Logger.Error("Mirror write failed", "uploadId", resp.UploadID, "error", err)
		return
	}
	s.Logger.Info("Upload mirrored", "uploadId", resp.UploadID, "predId", resp.PredID, "planId", resp.PlanID)
}

// announce emits the completion event for analytics consumers.
func (s *Service) announce(ctx context.Context, userID string, resp *backend.ProcessResponse, mode string) {
	if s.Publisher == nil || s.Topic == "" {
		return
	}
	payload := pubsub.SubmissionCompleted{
		UserID:    userID,
		UploadID:  resp.UploadID,
		PredID:    resp.PredID,
		PlanID:    resp.PlanID,
		InputMode: mode,
	}
	e, err := pubsub.NewCloudEvent(pubsub.EventSource, pubsub.EventTypeSubmissionCompleted, payload)
	if err != nil {
		s.Logger.Error("Failed to build completion event", "error", err)
		return
	}
	if _, err := s.Publisher.PublishCloudEvent(ctx, s.Topic, e); err != nil {
		s.Logger.Error("Failed to publish completion event", "uploadId", resp.UploadID, "error", err)
	}
}
