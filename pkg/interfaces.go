package shared

import (
	"context"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/emifit/fitplan/pkg/types"
)

// --- Persistence Interfaces ---

// PageCursor is the opaque continuation token for upload history pages.
// It pins the createdAt and document id of the last item of the previous
// page so that sequential pages never repeat or skip items.
type PageCursor struct {
	CreatedAt time.Time
	DocID     string
}

// UploadPage is one batch of a user's upload history, newest first.
// Cursor is nil when the history is exhausted (short page returned).
type UploadPage struct {
	Items  []*types.Upload
	Cursor *PageCursor
}

// UploadEvent is one delivery from an upload subscription. Upload is nil
// when the document does not exist or was removed. Err is set on
// subscription failure, after which no further events are delivered.
type UploadEvent struct {
	Upload *types.Upload
	Err    error
}

// UploadSubscription is a cancellable realtime view of a single upload
// document. Events is closed after Stop returns or after a terminal error;
// no event is ever delivered after Stop returns.
type UploadSubscription interface {
	Events() <-chan UploadEvent
	Stop()
}

// Database is the document gateway. Upload documents are minted by the
// backend; the client only reads them and merge-writes fields it owns.
type Database interface {
	GetUpload(ctx context.Context, userID, uploadID string) (*types.Upload, error)
	MirrorUpload(ctx context.Context, userID, uploadID string, u *types.Upload) error
	UpdateUpload(ctx context.Context, userID, uploadID string, data map[string]interface{}) error
	ListUploads(ctx context.Context, userID string, pageSize int, cursor *PageCursor) (*UploadPage, error)
	WatchUpload(ctx context.Context, userID, uploadID string) (UploadSubscription, error)

	GetPrediction(ctx context.Context, predID string) (*types.Prediction, error)
	GetPlan(ctx context.Context, planID string) (map[string]interface{}, error)

	GetUserProfile(ctx context.Context, uid string) (*types.UserProfile, error)
	UpsertUserProfile(ctx context.Context, uid string, p *types.UserProfile) error
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// --- Secrets Interface ---

type SecretStore interface {
	GetSecret(ctx context.Context, projectID, name string) (string, error)
}
