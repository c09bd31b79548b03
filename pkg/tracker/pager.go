package tracker

import (
	"context"
	"sync"

	shared "github.com/emifit/fitplan/pkg"
	errs "github.com/emifit/fitplan/pkg/errors"
	"github.com/emifit/fitplan/pkg/types"
)

// DefaultPageSize matches the history screen's batch size.
const DefaultPageSize = 10

// HistoryPager walks a user's uploads newest-first, one page at a time.
// It is safe for concurrent use, though pages fetched concurrently by
// several goroutines land in arrival order.
type HistoryPager struct {
	store    Store
	userID   string
	pageSize int

	mu        sync.Mutex
	items     []*types.Upload
	cursor    *shared.PageCursor
	exhausted bool
	started   bool
}

func NewHistoryPager(store Store, userID string, pageSize int) *HistoryPager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &HistoryPager{
		store:    store,
		userID:   userID,
		pageSize: pageSize,
	}
}

// NextPage fetches and appends the next batch. It returns the batch just
// fetched; an empty batch means the history is exhausted.
func (p *HistoryPager) NextPage(ctx context.Context) ([]*types.Upload, error) {
	if p.userID == "" {
		return nil, errs.ErrNotAuthenticated
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started && p.exhausted {
		return nil, nil
	}

	page, err := p.store.ListUploads(ctx, p.userID, p.pageSize, p.cursor)
	if err != nil {
		return nil, err
	}

	p.started = true
	p.items = append(p.items, page.Items...)
	p.cursor = page.Cursor
	p.exhausted = page.Cursor == nil

	return page.Items, nil
}

// Refresh resets the cursor and replaces the in-memory set with a fresh
// first page, rather than appending to it.
func (p *HistoryPager) Refresh(ctx context.Context) ([]*types.Upload, error) {
	if p.userID == "" {
		return nil, errs.ErrNotAuthenticated
	}

	page, err := p.store.ListUploads(ctx, p.userID, p.pageSize, nil)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
	p.items = append([]*types.Upload(nil), page.Items...)
	p.cursor = page.Cursor
	p.exhausted = page.Cursor == nil

	return page.Items, nil
}

// Uploads returns a copy of everything fetched so far.
func (p *HistoryPager) Uploads() []*types.Upload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*types.Upload(nil), p.items...)
}

// Exhausted reports whether the last fetched page was short.
func (p *HistoryPager) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// Ready returns the newest upload eligible for dashboard display: status
// planned or completed with both the prediction and plan id written. A
// status flip that races ahead of the id writes does not qualify.
func (p *HistoryPager) Ready() *types.Upload {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.items {
		if u.Ready() {
			return u
		}
	}
	return nil
}

// LatestReady is the dashboard shortcut: fetch one page and pick the first
// ready upload from it, or nil when none qualifies.
func LatestReady(ctx context.Context, store Store, userID string, pageSize int) (*types.Upload, error) {
	p := NewHistoryPager(store, userID, pageSize)
	if _, err := p.NextPage(ctx); err != nil {
		return nil, err
	}
	return p.Ready(), nil
}
