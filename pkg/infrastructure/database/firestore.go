// Package database provides document operations using Firestore.
package database

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/emifit/fitplan/pkg"
	errs "github.com/emifit/fitplan/pkg/errors"
	storage "github.com/emifit/fitplan/pkg/storage/firestore"
	"github.com/emifit/fitplan/pkg/types"
)

// FirestoreAdapter implements shared.Database on top of a Firestore client.
// All writes use merge semantics: the backend writes to the same upload
// documents concurrently (predId, planId, status), so the client must never
// clobber fields it does not own.
type FirestoreAdapter struct {
	Client *firestore.Client
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{Client: client}
}

func (a *FirestoreAdapter) uploads(userID string) *firestore.CollectionRef {
	return a.Client.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionUploads)
}

// --- Uploads ---

func (a *FirestoreAdapter) GetUpload(ctx context.Context, userID, uploadID string) (*types.Upload, error) {
	snap, err := a.uploads(userID).Doc(uploadID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrStore.WithCause(err)
	}
	return storage.FirestoreToUpload(snap.Ref.ID, snap.Data()), nil
}

// MirrorUpload merge-writes the backend-returned identifiers into the
// user's upload document. createdAt/updatedAt come from the server clock.
func (a *FirestoreAdapter) MirrorUpload(ctx context.Context, userID, uploadID string, u *types.Upload) error {
	data := storage.UploadToFirestore(u)
	if u.CreatedAt.IsZero() {
		data["createdAt"] = firestore.ServerTimestamp
	}
	data["updatedAt"] = firestore.ServerTimestamp

	if _, err := a.uploads(userID).Doc(uploadID).Set(ctx, data, firestore.MergeAll); err != nil {
		return errs.ErrStore.WithCause(err)
	}
	return nil
}

func (a *FirestoreAdapter) UpdateUpload(ctx context.Context, userID, uploadID string, data map[string]interface{}) error {
	if _, err := a.uploads(userID).Doc(uploadID).Set(ctx, data, firestore.MergeAll); err != nil {
		return errs.ErrStore.WithCause(err)
	}
	return nil
}

// ListUploads returns one page of the user's uploads, newest first. The
// secondary order on document id makes the cursor stable when several
// uploads share a createdAt.
func (a *FirestoreAdapter) ListUploads(ctx context.Context, userID string, pageSize int, cursor *shared.PageCursor) (*shared.UploadPage, error) {
	q := a.uploads(userID).
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(pageSize)
	if cursor != nil {
		q = q.StartAfter(cursor.CreatedAt, cursor.DocID)
	}

	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.ErrStore.WithCause(err)
	}

	items := make([]*types.Upload, 0, len(docs))
	for _, d := range docs {
		items = append(items, storage.FirestoreToUpload(d.Ref.ID, d.Data()))
	}

	page := &shared.UploadPage{Items: items}
	if len(docs) == pageSize {
		last := items[len(items)-1]
		page.Cursor = &shared.PageCursor{CreatedAt: last.CreatedAt, DocID: last.ID}
	}
	return page, nil
}

// WatchUpload opens a realtime subscription on one upload document.
func (a *FirestoreAdapter) WatchUpload(ctx context.Context, userID, uploadID string) (shared.UploadSubscription, error) {
	ref := a.uploads(userID).Doc(uploadID)

	ctx, cancel := context.WithCancel(ctx)
	sub := &uploadSubscription{
		events: make(chan shared.UploadEvent),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.pump(ctx, ref)
	return sub, nil
}

type uploadSubscription struct {
	events chan shared.UploadEvent
	cancel context.CancelFunc
	stop   sync.Once
	done   chan struct{}
}

func (s *uploadSubscription) Events() <-chan shared.UploadEvent { return s.events }

// Stop cancels the snapshot listener and waits for the pump to exit, so no
// event can be delivered after Stop returns.
func (s *uploadSubscription) Stop() {
	s.stop.Do(s.cancel)
	<-s.done
}

func (s *uploadSubscription) pump(ctx context.Context, ref *firestore.DocumentRef) {
	defer close(s.done)
	defer close(s.events)

	it := ref.Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return
			}
			// Terminal: surface once, do not retry silently.
			s.deliver(ctx, shared.UploadEvent{Err: errs.ErrSubscription.WithCause(err)})
			return
		}

		var u *types.Upload
		if snap.Exists() {
			u = storage.FirestoreToUpload(snap.Ref.ID, snap.Data())
		}
		if !s.deliver(ctx, shared.UploadEvent{Upload: u}) {
			return
		}
	}
}

func (s *uploadSubscription) deliver(ctx context.Context, ev shared.UploadEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// --- Predictions ---

func (a *FirestoreAdapter) GetPrediction(ctx context.Context, predID string) (*types.Prediction, error) {
	snap, err := a.Client.Collection(shared.CollectionPredictions).Doc(predID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrStore.WithCause(err)
	}
	return storage.FirestoreToPrediction(snap.Ref.ID, snap.Data()), nil
}

// --- Plans ---

// GetPlan returns the raw plan document. No schema is assumed here; the
// planui package owns making sense of it.
func (a *FirestoreAdapter) GetPlan(ctx context.Context, planID string) (map[string]interface{}, error) {
	snap, err := a.Client.Collection(shared.CollectionPlans).Doc(planID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrStore.WithCause(err)
	}
	return snap.Data(), nil
}

// --- User profiles ---

func (a *FirestoreAdapter) GetUserProfile(ctx context.Context, uid string) (*types.UserProfile, error) {
	snap, err := a.Client.Collection(shared.CollectionUsers).Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrStore.WithCause(err)
	}
	return storage.FirestoreToProfile(snap.Ref.ID, snap.Data()), nil
}

func (a *FirestoreAdapter) UpsertUserProfile(ctx context.Context, uid string, p *types.UserProfile) error {
	ref := a.Client.Collection(shared.CollectionUsers).Doc(uid)

	data := storage.ProfileToFirestore(p)
	data["updatedAt"] = firestore.ServerTimestamp

	snap, err := ref.Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return errs.ErrStore.WithCause(err)
	}
	if snap == nil || !snap.Exists() {
		data["createdAt"] = firestore.ServerTimestamp
	}

	if _, err := ref.Set(ctx, data, firestore.MergeAll); err != nil {
		return errs.ErrStore.WithCause(err)
	}
	return nil
}
