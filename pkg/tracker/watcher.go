// Package tracker gives callers a live view of one upload's lifecycle and a
// paginated view of a user's submission history, without exposing document
// store query syntax. Every operation takes the user id explicitly; there is
// no ambient session state.
package tracker

import (
	"context"
	"sync"

	shared "github.com/emifit/fitplan/pkg"
	errs "github.com/emifit/fitplan/pkg/errors"
	"github.com/emifit/fitplan/pkg/types"
)

// Store is the slice of the document gateway the tracker needs.
type Store interface {
	ListUploads(ctx context.Context, userID string, pageSize int, cursor *shared.PageCursor) (*shared.UploadPage, error)
	WatchUpload(ctx context.Context, userID, uploadID string) (shared.UploadSubscription, error)
}

// StatusUpdate is one observation of the watched upload. Upload is nil when
// the document does not exist (or was removed). Err reports a transport or
// subscription failure; Failed reports that the backend marked the upload
// itself as failed - the two are distinct conditions.
type StatusUpdate struct {
	Upload *types.Upload
	Err    error
	Failed bool
}

// StatusStream is a cancellable stream of StatusUpdates for one upload.
// Updates is closed when the stream ends; after Stop returns no further
// update is delivered.
type StatusStream struct {
	updates chan StatusUpdate
	halt    chan struct{}
	stop    func()
	once    sync.Once
	done    chan struct{}
}

func (s *StatusStream) Updates() <-chan StatusUpdate { return s.updates }

// Stop tears the stream down and waits until delivery has ceased.
func (s *StatusStream) Stop() {
	s.once.Do(func() {
		close(s.halt)
		s.stop()
	})
	<-s.done
}

// StatusWatcher observes single uploads through the store's realtime
// subscription.
type StatusWatcher struct {
	Store Store
}

func NewStatusWatcher(store Store) *StatusWatcher {
	return &StatusWatcher{Store: store}
}

// Watch opens a stream over users/{userID}/uploads/{uploadID}.
//
// An empty userID yields a single not-authenticated update and no remote
// call. An empty uploadID is the valid "nothing selected" state: the stream
// closes immediately without updates.
func (w *StatusWatcher) Watch(ctx context.Context, userID, uploadID string) *StatusStream {
	if userID == "" {
		return terminalStream(StatusUpdate{Err: errs.ErrNotAuthenticated})
	}
	if uploadID == "" {
		return closedStream()
	}

	sub, err := w.Store.WatchUpload(ctx, userID, uploadID)
	if err != nil {
		return terminalStream(StatusUpdate{Err: errs.ErrSubscription.WithCause(err)})
	}

	s := &StatusStream{
		updates: make(chan StatusUpdate),
		halt:    make(chan struct{}),
		stop:    sub.Stop,
		done:    make(chan struct{}),
	}
	go s.pump(sub)
	return s
}

func (s *StatusStream) pump(sub shared.UploadSubscription) {
	defer close(s.done)
	defer close(s.updates)

	for ev := range sub.Events() {
		if ev.Err != nil {
			// Last known state resolves to null plus the error flag.
			s.deliver(StatusUpdate{Upload: nil, Err: ev.Err})
			return
		}
		up := StatusUpdate{
			Upload: ev.Upload,
			Failed: ev.Upload.Failed(),
		}
		if !s.deliver(up) {
			return
		}
	}
}

// deliver hands an update to the consumer unless the stream was stopped;
// a consumer blocked in Stop never receives it.
func (s *StatusStream) deliver(u StatusUpdate) bool {
	select {
	case s.updates <- u:
		return true
	case <-s.halt:
		return false
	}
}

// terminalStream delivers exactly one update and closes.
func terminalStream(u StatusUpdate) *StatusStream {
	s := newIdleStream(1)
	s.updates <- u
	close(s.updates)
	return s
}

// closedStream delivers nothing.
func closedStream() *StatusStream {
	s := newIdleStream(0)
	close(s.updates)
	return s
}

func newIdleStream(buffer int) *StatusStream {
	s := &StatusStream{
		updates: make(chan StatusUpdate, buffer),
		halt:    make(chan struct{}),
		stop:    func() {},
		done:    make(chan struct{}),
	}
	close(s.done)
	return s
}
