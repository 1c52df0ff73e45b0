package service

//go:generate mockgen -destination=mocks_test.go -package=service linktrail/internal/service EnrichmentDispatcher,ClickSink

import (
	"context"

	"linktrail/internal/types"
)

// LinkStore is the persistent link directory. Implementations report a
// missing link with database.ErrNotFound and a taken slug with
// database.ErrConflict.
type LinkStore interface {
	CreateLink(ctx context.Context, link *types.Link) error
	GetLinkByID(ctx context.Context, id string) (*types.Link, error)
	GetLinkBySlug(ctx context.Context, slug string) (*types.Link, error)
	ListLinks(ctx context.Context, tag string, limit, offset int) ([]types.Link, error)
	CountLinks(ctx context.Context, tag string) (int64, error)
	UpdateLink(ctx context.Context, link *types.Link) error
	DeleteLink(ctx context.Context, id string) error
}

// ClickStore is the append-only click ledger and its aggregate queries.
type ClickStore interface {
	InsertClick(ctx context.Context, click *types.Click) error
	ListClicks(ctx context.Context, linkID string, limit, offset int) ([]types.Click, error)
	CountClicks(ctx context.Context, linkID string) (int64, error)
	ClicksByDay(ctx context.Context, linkID string) ([]types.DayCount, error)
	ClicksByCountry(ctx context.Context, linkID string) ([]types.CountryCount, error)
	ReferrerCounts(ctx context.Context, linkID string) ([]types.RawReferrerCount, error)
	RecentClicks(ctx context.Context, linkID string, n int) ([]types.RecentClick, error)
}

// LinkCache holds links by slug. GetLink returns cache.ErrMiss for slugs
// it does not hold.
type LinkCache interface {
	GetLink(ctx context.Context, slug string) (*types.Link, error)
	SetLink(ctx context.Context, link *types.Link) error
	DeleteLink(ctx context.Context, slugs ...string) error
}

// EnrichmentDispatcher starts geo enrichment of a recorded click without
// waiting for it.
type EnrichmentDispatcher interface {
	Dispatch(clickID, ip string)
}

// ClickSink receives a copy of every recorded click. PushClick must not
// block.
type ClickSink interface {
	PushClick(click types.Click)
}
