package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	shared "github.com/emifit/fitplan/pkg"
	errs "github.com/emifit/fitplan/pkg/errors"
	"github.com/emifit/fitplan/pkg/types"
)

// memStore serves pages from a fixed newest-first slice using the same
// cursor contract as the document store adapter: a full page carries a
// cursor for the next call, a short page carries none.
type memStore struct {
	all     []*types.Upload
	listErr error
	calls   int
}

func (s *memStore) ListUploads(ctx context.Context, userID string, pageSize int, cursor *shared.PageCursor) (*shared.UploadPage, error) {
	s.calls++
	if s.listErr != nil {
		return nil, s.listErr
	}

	start := 0
	if cursor != nil {
		for i, u := range s.all {
			if u.ID == cursor.DocID {
				start = i + 1
				break
			}
		}
	}
	end := start + pageSize
	if end > len(s.all) {
		end = len(s.all)
	}

	page := &shared.UploadPage{Items: s.all[start:end]}
	if len(page.Items) == pageSize {
		last := page.Items[len(page.Items)-1]
		page.Cursor = &shared.PageCursor{CreatedAt: last.CreatedAt, DocID: last.ID}
	}
	return page, nil
}

func (s *memStore) WatchUpload(ctx context.Context, userID, uploadID string) (shared.UploadSubscription, error) {
	return nil, errors.New("not used")
}

func uploads(n int) []*types.Upload {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	out := make([]*types.Upload, n)
	for i := 0; i < n; i++ {
		out[i] = &types.Upload{
			ID:        fmt.Sprintf("a%d", i),
			Status:    types.StatusPending,
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return out
}

func ids(items []*types.Upload) []string {
	out := make([]string, len(items))
	for i, u := range items {
		out[i] = u.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPagerWithoutUser(t *testing.T) {
	p := NewHistoryPager(&memStore{}, "", 5)
	if _, err := p.NextPage(context.Background()); !errors.Is(err, errs.ErrNotAuthenticated) {
		t.Errorf("err = %v, want not-authenticated", err)
	}
}

func TestPaginationDeterminism(t *testing.T) {
	// Two pages of size k must equal one page of size 2k split at k.
	store := &memStore{all: uploads(12)}
	ctx := context.Background()

	small := NewHistoryPager(store, "u1", 4)
	p1, err := small.NextPage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := small.NextPage(ctx)
	if err != nil {
		t.Fatal(err)
	}

	big := NewHistoryPager(store, "u1", 8)
	whole, err := big.NextPage(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if !equalIDs(ids(p1), ids(whole[:4])) {
		t.Errorf("page 1 = %v, want %v", ids(p1), ids(whole[:4]))
	}
	if !equalIDs(ids(p2), ids(whole[4:])) {
		t.Errorf("page 2 = %v, want %v", ids(p2), ids(whole[4:]))
	}
}

func TestPagerWalksToExhaustion(t *testing.T) {
	store := &memStore{all: uploads(5)}
	p := NewHistoryPager(store, "u1", 2)
	ctx := context.Background()

	var seen []string
	for !p.Exhausted() {
		batch, err := p.NextPage(ctx)
		if err != nil {
			t.Fatal(err)
		}
		seen = append(seen, ids(batch)...)
	}

	if !equalIDs(seen, ids(store.all)) {
		t.Errorf("walked %v, want %v", seen, ids(store.all))
	}
	if got := len(p.Uploads()); got != 5 {
		t.Errorf("accumulated %d items, want 5", got)
	}

	// Past the end the pager stays quiet instead of re-querying.
	calls := store.calls
	batch, err := p.NextPage(ctx)
	if err != nil || batch != nil {
		t.Errorf("NextPage after exhaustion = %v, %v", batch, err)
	}
	if store.calls != calls {
		t.Error("exhausted pager hit the store again")
	}
}

func TestPagerAlignedEndNeedsExtraPage(t *testing.T) {
	// 4 items with page size 2: the second page is full, so exhaustion is
	// only discovered by the empty third fetch.
	store := &memStore{all: uploads(4)}
	p := NewHistoryPager(store, "u1", 2)
	ctx := context.Background()

	p.NextPage(ctx)
	p.NextPage(ctx)
	if p.Exhausted() {
		t.Fatal("a full page must not mark the history exhausted")
	}
	batch, err := p.NextPage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 0 || !p.Exhausted() {
		t.Errorf("third page = %v, exhausted = %v", ids(batch), p.Exhausted())
	}
}

func TestRefreshReplaces(t *testing.T) {
	store := &memStore{all: uploads(9)}
	p := NewHistoryPager(store, "u1", 3)
	ctx := context.Background()

	p.NextPage(ctx)
	p.NextPage(ctx)
	if got := len(p.Uploads()); got != 6 {
		t.Fatalf("accumulated %d items before refresh", got)
	}

	batch, err := p.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 3 {
		t.Errorf("refresh returned %d items, want 3", len(batch))
	}
	if got := ids(p.Uploads()); !equalIDs(got, []string{"a0", "a1", "a2"}) {
		t.Errorf("after refresh pager holds %v", got)
	}
	if p.Exhausted() {
		t.Error("refresh of a long history must leave more pages to walk")
	}

	// And the walk resumes from the fresh cursor, not the stale one.
	next, err := p.NextPage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(next), []string{"a3", "a4", "a5"}) {
		t.Errorf("page after refresh = %v", ids(next))
	}
}

func TestPagerPropagatesStoreError(t *testing.T) {
	store := &memStore{listErr: errs.ErrStore.WithCause(errors.New("rpc failed"))}
	p := NewHistoryPager(store, "u1", 3)

	if _, err := p.NextPage(context.Background()); !errors.Is(err, errs.ErrStore) {
		t.Errorf("err = %v, want store error", err)
	}
}

func TestReadyRequiresBothIdentifiers(t *testing.T) {
	store := &memStore{all: []*types.Upload{
		{ID: "a0", Status: types.StatusPlanned, PredID: "p0"}, // plan id not yet written
		{ID: "a1", Status: types.StatusError},
		{ID: "a2", Status: types.StatusCompleted, PredID: "p2", PlanID: "pl2"},
		{ID: "a3", Status: types.StatusPlanned, PredID: "p3", PlanID: "pl3"},
	}}
	p := NewHistoryPager(store, "u1", 10)
	if _, err := p.NextPage(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := p.Ready()
	if got == nil || got.ID != "a2" {
		t.Errorf("Ready() = %+v, want a2", got)
	}
}

func TestLatestReadyNone(t *testing.T) {
	store := &memStore{all: []*types.Upload{
		{ID: "a0", Status: types.StatusPending},
		{ID: "a1", Status: types.StatusPredicted, PredID: "p1"},
	}}
	got, err := LatestReady(context.Background(), store, "u1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("LatestReady = %+v, want nil", got)
	}
}
