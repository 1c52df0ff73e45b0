package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"linktrail/internal/cache"
	"linktrail/internal/database"
	"linktrail/internal/types"
)

func init() {
	passwordCost = bcrypt.MinCost
}

// memStore is an in-memory LinkStore, ClickStore and geo.ClickUpdater with
// the constraint behaviour of the PostgreSQL schema.
type memStore struct {
	mu     sync.Mutex
	links  map[string]types.Link
	clicks []types.Click

	insertClickErr error
}

func newMemStore() *memStore {
	return &memStore{links: map[string]types.Link{}}
}

func copyLink(l types.Link) *types.Link {
	l.Tags = slices.Clone(l.Tags)
	return &l
}

func (m *memStore) CreateLink(_ context.Context, link *types.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.Slug == link.Slug {
			return fmt.Errorf("insert link: %w: links_slug_key", database.ErrConflict)
		}
	}
	m.links[link.ID] = *copyLink(*link)
	return nil
}

func (m *memStore) GetLinkByID(_ context.Context, id string) (*types.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return copyLink(l), nil
}

func (m *memStore) GetLinkBySlug(_ context.Context, slug string) (*types.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.Slug == slug {
			return copyLink(l), nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memStore) filterLinks(tag string) []types.Link {
	var out []types.Link
	for _, l := range m.links {
		if tag == "" || slices.Contains(l.Tags, tag) {
			out = append(out, *copyLink(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) ListLinks(_ context.Context, tag string, limit, offset int) ([]types.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return window(m.filterLinks(tag), limit, offset), nil
}

func (m *memStore) CountLinks(_ context.Context, tag string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filterLinks(tag))), nil
}

func (m *memStore) UpdateLink(_ context.Context, link *types.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[link.ID]; !ok {
		return database.ErrNotFound
	}
	for id, l := range m.links {
		if id != link.ID && l.Slug == link.Slug {
			return fmt.Errorf("update link: %w: links_slug_key", database.ErrConflict)
		}
	}
	m.links[link.ID] = *copyLink(*link)
	return nil
}

func (m *memStore) DeleteLink(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.links, id)
	m.clicks = slices.DeleteFunc(m.clicks, func(c types.Click) bool { return c.LinkID == id })
	return nil
}

func (m *memStore) InsertClick(_ context.Context, click *types.Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertClickErr != nil {
		return m.insertClickErr
	}
	if _, ok := m.links[click.LinkID]; !ok {
		return fmt.Errorf("insert click: %w: clicks_link_id_fkey", database.ErrNotFound)
	}
	m.clicks = append(m.clicks, *click)
	return nil
}

func (m *memStore) SetClickLocation(_ context.Context, clickID string, country, city *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.clicks {
		c := &m.clicks[i]
		if c.ID == clickID && c.Country == nil && c.City == nil {
			c.Country, c.City = country, city
		}
	}
	return nil
}

// linkClicks returns a link's clicks newest first.
func (m *memStore) linkClicks(linkID string) []types.Click {
	var out []types.Click
	for _, c := range m.clicks {
		if c.LinkID == linkID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memStore) ListClicks(_ context.Context, linkID string, limit, offset int) ([]types.Click, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return window(m.linkClicks(linkID), limit, offset), nil
}

func (m *memStore) CountClicks(_ context.Context, linkID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.linkClicks(linkID))), nil
}

func (m *memStore) ClicksByDay(_ context.Context, linkID string) ([]types.DayCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, c := range m.linkClicks(linkID) {
		counts[DayOf(c.Timestamp)]++
	}
	var out []types.DayCount
	for day, n := range counts {
		out = append(out, types.DayCount{Date: day, Count: n})
	}
	return out, nil
}

func (m *memStore) ClicksByCountry(_ context.Context, linkID string) ([]types.CountryCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, c := range m.linkClicks(linkID) {
		if c.Country != nil {
			counts[*c.Country]++
		}
	}
	var out []types.CountryCount
	for country, n := range counts {
		out = append(out, types.CountryCount{Country: country, Count: n})
	}
	return out, nil
}

func (m *memStore) ReferrerCounts(_ context.Context, linkID string) ([]types.RawReferrerCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var direct int64
	counts := map[string]int64{}
	for _, c := range m.linkClicks(linkID) {
		if c.Referrer == nil {
			direct++
			continue
		}
		counts[*c.Referrer]++
	}
	var out []types.RawReferrerCount
	if direct > 0 {
		out = append(out, types.RawReferrerCount{Count: direct})
	}
	for ref, n := range counts {
		out = append(out, types.RawReferrerCount{Referrer: &ref, Count: n})
	}
	return out, nil
}

func (m *memStore) RecentClicks(_ context.Context, linkID string, n int) ([]types.RecentClick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.RecentClick
	for _, c := range window(m.linkClicks(linkID), n, 0) {
		out = append(out, types.RecentClick{Timestamp: c.Timestamp, Country: c.Country, City: c.City, Referrer: c.Referrer})
	}
	return out, nil
}

func (m *memStore) clickCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clicks)
}

func (m *memStore) click(id string) (types.Click, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clicks {
		if c.ID == id {
			return c, true
		}
	}
	return types.Click{}, false
}

func window[T any](s []T, limit, offset int) []T {
	if offset >= len(s) {
		return nil
	}
	s = s[offset:]
	if limit < len(s) {
		s = s[:limit]
	}
	return s
}

// memCache is a LinkCache that records invalidations.
type memCache struct {
	mu      sync.Mutex
	links   map[string]types.Link
	deleted []string
	hits    int
}

func newMemCache() *memCache {
	return &memCache{links: map[string]types.Link{}}
}

func (c *memCache) GetLink(_ context.Context, slug string) (*types.Link, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.links[slug]
	if !ok {
		return nil, cache.ErrMiss
	}
	c.hits++
	return copyLink(l), nil
}

func (c *memCache) SetLink(_ context.Context, link *types.Link) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links[link.Slug] = *copyLink(*link)
	return nil
}

func (c *memCache) DeleteLink(_ context.Context, slugs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range slugs {
		delete(c.links, s)
		c.deleted = append(c.deleted, s)
	}
	return nil
}

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestShortener(store *memStore) *Shortener {
	s := NewShortener(store, nil, "http://sho.rt/")
	s.now = fixedClock(testNow)
	return s
}

func mustCreate(t *testing.T, s *Shortener, req types.CreateLinkRequest) *types.LinkView {
	t.Helper()
	link, err := s.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create(%+v) error = %v", req, err)
	}
	return link
}

func ptr[T any](v T) *T {
	return &v
}
