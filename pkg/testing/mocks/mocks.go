package mocks

import (
	"context"
	"fmt"

	"github.com/cloudevents/sdk-go/v2/event"
	shared "github.com/emifit/fitplan/pkg"
	"github.com/emifit/fitplan/pkg/types"
)

// --- Mock Database ---
type MockDatabase struct {
	GetUploadFunc    func(ctx context.Context, userID, uploadID string) (*types.Upload, error)
	MirrorUploadFunc func(ctx context.Context, userID, uploadID string, u *types.Upload) error
	UpdateUploadFunc func(ctx context.Context, userID, uploadID string, data map[string]interface{}) error
	ListUploadsFunc  func(ctx context.Context, userID string, pageSize int, cursor *shared.PageCursor) (*shared.UploadPage, error)
	WatchUploadFunc  func(ctx context.Context, userID, uploadID string) (shared.UploadSubscription, error)

	GetPredictionFunc func(ctx context.Context, predID string) (*types.Prediction, error)
	GetPlanFunc       func(ctx context.Context, planID string) (map[string]interface{}, error)

	GetUserProfileFunc    func(ctx context.Context, uid string) (*types.UserProfile, error)
	UpsertUserProfileFunc func(ctx context.Context, uid string, p *types.UserProfile) error
}

func (m *MockDatabase) GetUpload(ctx context.Context, userID, uploadID string) (*types.Upload, error) {
	if m.GetUploadFunc != nil {
		return m.GetUploadFunc(ctx, userID, uploadID)
	}
	return nil, nil
}
func (m *MockDatabase) MirrorUpload(ctx context.Context, userID, uploadID string, u *types.Upload) error {
	if m.MirrorUploadFunc != nil {
		return m.MirrorUploadFunc(ctx, userID, uploadID, u)
	}
	return nil
}
func (m *MockDatabase) UpdateUpload(ctx context.Context, userID, uploadID string, data map[string]interface{}) error {
	if m.UpdateUploadFunc != nil {
		return m.UpdateUploadFunc(ctx, userID, uploadID, data)
	}
	return nil
}
func (m *MockDatabase) ListUploads(ctx context.Context, userID string, pageSize int, cursor *shared.PageCursor) (*shared.UploadPage, error) {
	if m.ListUploadsFunc != nil {
		return m.ListUploadsFunc(ctx, userID, pageSize, cursor)
	}
	return &shared.UploadPage{}, nil
}
func (m *MockDatabase) WatchUpload(ctx context.Context, userID, uploadID string) (shared.UploadSubscription, error) {
	if m.WatchUploadFunc != nil {
		return m.WatchUploadFunc(ctx, userID, uploadID)
	}
	return nil, fmt.Errorf("no subscription configured")
}

func (m *MockDatabase) GetPrediction(ctx context.Context, predID string) (*types.Prediction, error) {
	if m.GetPredictionFunc != nil {
		return m.GetPredictionFunc(ctx, predID)
	}
	return nil, nil
}
func (m *MockDatabase) GetPlan(ctx context.Context, planID string) (map[string]interface{}, error) {
	if m.GetPlanFunc != nil {
		return m.GetPlanFunc(ctx, planID)
	}
	return nil, nil
}

func (m *MockDatabase) GetUserProfile(ctx context.Context, uid string) (*types.UserProfile, error) {
	if m.GetUserProfileFunc != nil {
		return m.GetUserProfileFunc(ctx, uid)
	}
	return nil, nil
}
func (m *MockDatabase) UpsertUserProfile(ctx context.Context, uid string, p *types.UserProfile) error {
	if m.UpsertUserProfileFunc != nil {
		return m.UpsertUserProfileFunc(ctx, uid, p)
	}
	return nil
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "mock-message-id", nil
}

// --- Mock Blob Store ---
type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
	ReadFunc  func(ctx context.Context, bucket, object string) ([]byte, error)
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}
func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return nil, fmt.Errorf("object not found")
}

// --- Mock Secret Store ---
type MockSecretStore struct {
	GetSecretFunc func(ctx context.Context, projectID, name string) (string, error)
}

func (m *MockSecretStore) GetSecret(ctx context.Context, projectID, name string) (string, error) {
	if m.GetSecretFunc != nil {
		return m.GetSecretFunc(ctx, projectID, name)
	}
	return "", fmt.Errorf("secret not found")
}
