package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	shared "github.com/emifit/fitplan/pkg"
	errs "github.com/emifit/fitplan/pkg/errors"
	"github.com/emifit/fitplan/pkg/types"
)

// fakeSub mirrors the adapter contract: Stop waits until the pump has
// exited, so nothing is delivered after Stop returns.
type fakeSub struct {
	in      chan shared.UploadEvent
	events  chan shared.UploadEvent
	stopped chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newFakeSub() *fakeSub {
	f := &fakeSub{
		in:      make(chan shared.UploadEvent, 16),
		events:  make(chan shared.UploadEvent),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go f.pump()
	return f
}

func (f *fakeSub) pump() {
	defer close(f.done)
	defer close(f.events)
	for {
		select {
		case ev := <-f.in:
			select {
			case f.events <- ev:
			case <-f.stopped:
				return
			}
		case <-f.stopped:
			return
		}
	}
}

func (f *fakeSub) Events() <-chan shared.UploadEvent { return f.events }

func (f *fakeSub) Stop() {
	f.once.Do(func() { close(f.stopped) })
	<-f.done
}

func (f *fakeSub) emit(ev shared.UploadEvent) { f.in <- ev }

type fakeStore struct {
	sub        *fakeSub
	watchErr   error
	watchCalls int
	listFn     func(pageSize int, cursor *shared.PageCursor) (*shared.UploadPage, error)
	listCalls  int
}

func (s *fakeStore) WatchUpload(ctx context.Context, userID, uploadID string) (shared.UploadSubscription, error) {
	s.watchCalls++
	if s.watchErr != nil {
		return nil, s.watchErr
	}
	return s.sub, nil
}

func (s *fakeStore) ListUploads(ctx context.Context, userID string, pageSize int, cursor *shared.PageCursor) (*shared.UploadPage, error) {
	s.listCalls++
	if s.listFn == nil {
		return &shared.UploadPage{Items: []*types.Upload{}}, nil
	}
	return s.listFn(pageSize, cursor)
}

func recvUpdate(t *testing.T, s *StatusStream) StatusUpdate {
	t.Helper()
	select {
	case u, ok := <-s.Updates():
		if !ok {
			t.Fatal("stream closed while an update was expected")
		}
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	return StatusUpdate{}
}

func assertClosed(t *testing.T, s *StatusStream) {
	t.Helper()
	select {
	case u, ok := <-s.Updates():
		if ok {
			t.Fatalf("expected closed stream, got update %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream close")
	}
}

func TestWatchWithoutUser(t *testing.T) {
	store := &fakeStore{}
	s := NewStatusWatcher(store).Watch(context.Background(), "", "a1")

	u := recvUpdate(t, s)
	if !errors.Is(u.Err, errs.ErrNotAuthenticated) {
		t.Errorf("err = %v, want not-authenticated", u.Err)
	}
	assertClosed(t, s)

	if store.watchCalls != 0 {
		t.Error("no remote call may be made without a user id")
	}
}

func TestWatchNothingSelected(t *testing.T) {
	store := &fakeStore{}
	s := NewStatusWatcher(store).Watch(context.Background(), "u1", "")

	assertClosed(t, s)
	if store.watchCalls != 0 {
		t.Error("no remote call may be made for an empty upload id")
	}
	s.Stop() // must be a no-op, not a hang
}

func TestWatchDeliversTransitions(t *testing.T) {
	sub := newFakeSub()
	store := &fakeStore{sub: sub}
	s := NewStatusWatcher(store).Watch(context.Background(), "u1", "a1")
	defer s.Stop()

	sub.emit(shared.UploadEvent{Upload: &types.Upload{ID: "a1", Status: types.StatusPending}})
	u := recvUpdate(t, s)
	if u.Upload == nil || u.Upload.Status != types.StatusPending || u.Failed {
		t.Errorf("first update = %+v", u)
	}

	sub.emit(shared.UploadEvent{Upload: &types.Upload{
		ID: "a1", Status: types.StatusPlanned, PredID: "p1", PlanID: "pl1",
	}})
	u = recvUpdate(t, s)
	if u.Upload == nil || !u.Upload.Ready() {
		t.Errorf("second update = %+v", u)
	}
}

func TestWatchMissingDocument(t *testing.T) {
	sub := newFakeSub()
	store := &fakeStore{sub: sub}
	s := NewStatusWatcher(store).Watch(context.Background(), "u1", "gone")
	defer s.Stop()

	sub.emit(shared.UploadEvent{Upload: nil})
	u := recvUpdate(t, s)
	if u.Upload != nil || u.Err != nil || u.Failed {
		t.Errorf("missing doc should be a plain nil update, got %+v", u)
	}
}

func TestWatchBackendFailureFlag(t *testing.T) {
	sub := newFakeSub()
	store := &fakeStore{sub: sub}
	s := NewStatusWatcher(store).Watch(context.Background(), "u1", "a1")
	defer s.Stop()

	sub.emit(shared.UploadEvent{Upload: &types.Upload{ID: "a1", Status: types.StatusError}})
	u := recvUpdate(t, s)
	if !u.Failed {
		t.Error("status=error must raise the Failed flag")
	}
	if u.Err != nil {
		t.Errorf("Failed is an application condition, not a transport error: %v", u.Err)
	}
}

func TestWatchSubscriptionError(t *testing.T) {
	sub := newFakeSub()
	store := &fakeStore{sub: sub}
	s := NewStatusWatcher(store).Watch(context.Background(), "u1", "a1")
	defer s.Stop()

	subErr := errs.ErrSubscription.WithCause(errors.New("listen broke"))
	sub.emit(shared.UploadEvent{Err: subErr})

	u := recvUpdate(t, s)
	if u.Upload != nil {
		t.Error("state must resolve to null on subscription error")
	}
	if !errors.Is(u.Err, errs.ErrSubscription) {
		t.Errorf("err = %v", u.Err)
	}
	assertClosed(t, s) // no silent retry
}

func TestWatchErrAtOpen(t *testing.T) {
	store := &fakeStore{watchErr: errors.New("no connection")}
	s := NewStatusWatcher(store).Watch(context.Background(), "u1", "a1")

	u := recvUpdate(t, s)
	if !errors.Is(u.Err, errs.ErrSubscription) {
		t.Errorf("err = %v", u.Err)
	}
	assertClosed(t, s)
}

func TestStopSilencesStream(t *testing.T) {
	sub := newFakeSub()
	store := &fakeStore{sub: sub}
	s := NewStatusWatcher(store).Watch(context.Background(), "u1", "a1")

	sub.emit(shared.UploadEvent{Upload: &types.Upload{ID: "a1", Status: types.StatusPending}})
	recvUpdate(t, s)

	s.Stop()

	// The stream is closed and stays silent even though the caller never
	// drained a pending update.
	assertClosed(t, s)
}

func TestStopWithUndrainedUpdateDoesNotHang(t *testing.T) {
	sub := newFakeSub()
	store := &fakeStore{sub: sub}
	s := NewStatusWatcher(store).Watch(context.Background(), "u1", "a1")

	// Park an update in the pipeline without ever reading it.
	sub.emit(shared.UploadEvent{Upload: &types.Upload{ID: "a1", Status: types.StatusPending}})

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop deadlocked on an undrained update")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	sub := newFakeSub()
	store := &fakeStore{sub: sub}
	s := NewStatusWatcher(store).Watch(context.Background(), "u1", "a1")

	s.Stop()
	s.Stop()
}
