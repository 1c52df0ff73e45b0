package service

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"linktrail/internal/types"
)

const (
	defaultClickPageSize = 50
	recentClicksCount    = 10
	directReferrer       = "direct"
)

// Analytics reads the click ledger of a single link.
type Analytics struct {
	links  LinkStore
	clicks ClickStore
}

func NewAnalytics(links LinkStore, clicks ClickStore) *Analytics {
	return &Analytics{links: links, clicks: clicks}
}

func (a *Analytics) Stats(ctx context.Context, linkID string) (*types.LinkStats, error) {
	if err := a.linkExists(ctx, linkID); err != nil {
		return nil, err
	}

	total, err := a.clicks.CountClicks(ctx, linkID)
	if err != nil {
		return nil, storeError(err)
	}
	byDay, err := a.clicks.ClicksByDay(ctx, linkID)
	if err != nil {
		return nil, storeError(err)
	}
	byCountry, err := a.clicks.ClicksByCountry(ctx, linkID)
	if err != nil {
		return nil, storeError(err)
	}
	rawReferrers, err := a.clicks.ReferrerCounts(ctx, linkID)
	if err != nil {
		return nil, storeError(err)
	}
	recent, err := a.clicks.RecentClicks(ctx, linkID, recentClicksCount)
	if err != nil {
		return nil, storeError(err)
	}

	sort.SliceStable(byDay, func(i, j int) bool { return byDay[i].Date > byDay[j].Date })
	sort.SliceStable(byCountry, func(i, j int) bool {
		if byCountry[i].Count != byCountry[j].Count {
			return byCountry[i].Count > byCountry[j].Count
		}
		return byCountry[i].Country < byCountry[j].Country
	})

	return &types.LinkStats{
		TotalClicks:     total,
		ClicksByDay:     nonNil(byDay),
		ClicksByCountry: nonNil(byCountry),
		TopReferrers:    mergeReferrers(rawReferrers),
		RecentClicks:    nonNil(recent),
	}, nil
}

// ListClicks pages through a link's clicks newest first. page and limit
// of 0 select the defaults.
func (a *Analytics) ListClicks(ctx context.Context, linkID string, page, limit int) (*types.ClickPage, error) {
	page, limit, err := pageParams(page, limit, defaultClickPageSize)
	if err != nil {
		return nil, err
	}
	if err := a.linkExists(ctx, linkID); err != nil {
		return nil, err
	}

	total, err := a.clicks.CountClicks(ctx, linkID)
	if err != nil {
		return nil, storeError(err)
	}
	clicks, err := a.clicks.ListClicks(ctx, linkID, limit, (page-1)*limit)
	if err != nil {
		return nil, storeError(err)
	}
	return &types.ClickPage{Clicks: nonNil(clicks), Pagination: paginate(page, limit, total)}, nil
}

func (a *Analytics) linkExists(ctx context.Context, linkID string) error {
	_, err := a.links.GetLinkByID(ctx, linkID)
	return storeError(err)
}

// ReferrerLabel reduces a referrer to the host it came from. No referrer
// is "direct"; a value that is not an absolute URL is kept verbatim.
func ReferrerLabel(referrer *string) string {
	if referrer == nil || *referrer == "" {
		return directReferrer
	}
	u, err := url.Parse(*referrer)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return *referrer
	}
	return strings.ToLower(u.Hostname())
}

// DayOf is the UTC calendar date of an epoch millisecond timestamp.
func DayOf(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.DateOnly)
}

// mergeReferrers sums raw referrer groups per label, most frequent first.
func mergeReferrers(raw []types.RawReferrerCount) []types.ReferrerCount {
	counts := make(map[string]int64, len(raw))
	for _, r := range raw {
		counts[ReferrerLabel(r.Referrer)] += r.Count
	}
	out := make([]types.ReferrerCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, types.ReferrerCount{Referrer: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Referrer < out[j].Referrer
	})
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
