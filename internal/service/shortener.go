package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"linktrail/internal/cache"
	"linktrail/internal/database"
	"linktrail/internal/metrics"
	"linktrail/internal/types"
)

const defaultLinkPageSize = 20

// Shortener is the link directory: it owns link records, their slugs and
// the access rules stored with them.
type Shortener struct {
	links   LinkStore
	cache   LinkCache
	baseURL string
	now     func() time.Time
}

// NewShortener wires the directory. linkCache may be nil.
func NewShortener(links LinkStore, linkCache LinkCache, baseURL string) *Shortener {
	return &Shortener{
		links:   links,
		cache:   linkCache,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func (s *Shortener) ShortURL(slug string) string {
	return s.baseURL + "/" + slug
}

func (s *Shortener) View(link *types.Link) types.LinkView {
	tags := link.Tags
	if tags == nil {
		tags = []string{}
	}
	return types.LinkView{
		ID:          link.ID,
		Slug:        link.Slug,
		ShortURL:    s.ShortURL(link.Slug),
		TargetURL:   link.TargetURL,
		HasPassword: link.PasswordHash != nil,
		ExpiresAt:   link.ExpiresAt,
		Tags:        tags,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

func (s *Shortener) Create(ctx context.Context, req types.CreateLinkRequest) (*types.LinkView, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	now := s.now().UnixMilli()
	link := &types.Link{
		ID:        uuid.New().String(),
		Slug:      req.Slug,
		TargetURL: req.URL,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      uniqueTags(req.Tags),
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			slog.Error("Failed to hash password", "error", err)
			return nil, errInternal
		}
		link.PasswordHash = &hash
	}

	if err := s.insert(ctx, link); err != nil {
		return nil, err
	}
	view := s.View(link)
	return &view, nil
}

// insert stores link. An empty slug is generated, and regenerated while it
// collides with an existing one.
func (s *Shortener) insert(ctx context.Context, link *types.Link) error {
	if link.Slug != "" {
		return storeError(s.links.CreateLink(ctx, link))
	}

	for range maxSlugAttempts {
		slug, err := randomSlug()
		if err != nil {
			slog.Error("Failed to generate slug", "error", err)
			return errInternal
		}
		link.Slug = slug
		err = s.links.CreateLink(ctx, link)
		if err == nil {
			return nil
		}
		if !errors.Is(err, database.ErrConflict) {
			return storeError(err)
		}
	}
	link.Slug = ""
	return newError(CodeInternal, "Failed to generate unique slug")
}

func (s *Shortener) Get(ctx context.Context, id string) (*types.LinkView, error) {
	link, err := s.links.GetLinkByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	view := s.View(link)
	return &view, nil
}

// GetBySlug returns the full record, password hash included, reading
// through the cache when there is one.
func (s *Shortener) GetBySlug(ctx context.Context, slug string) (*types.Link, error) {
	if s.cache != nil {
		link, err := s.cache.GetLink(ctx, slug)
		if err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return link, nil
		}
		if errors.Is(err, cache.ErrMiss) {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues("error").Inc()
			slog.Warn("Redis error", "error", err)
		}
	}

	link, err := s.links.GetLinkBySlug(ctx, slug)
	if err != nil {
		return nil, storeError(err)
	}

	if s.cache != nil {
		if err := s.cache.SetLink(ctx, link); err != nil {
			slog.Warn("Failed to warm up cache", "error", err)
		}
	}
	return link, nil
}

// List pages through links newest first. page and limit of 0 select the
// defaults; tag, when set, keeps only links carrying it.
func (s *Shortener) List(ctx context.Context, page, limit int, tag string) (*types.LinkPage, error) {
	page, limit, err := pageParams(page, limit, defaultLinkPageSize)
	if err != nil {
		return nil, err
	}

	total, err := s.links.CountLinks(ctx, tag)
	if err != nil {
		return nil, storeError(err)
	}
	links, err := s.links.ListLinks(ctx, tag, limit, (page-1)*limit)
	if err != nil {
		return nil, storeError(err)
	}

	views := make([]types.LinkView, len(links))
	for i := range links {
		views[i] = s.View(&links[i])
	}
	return &types.LinkPage{Links: views, Pagination: paginate(page, limit, total)}, nil
}

// Update applies the non-nil fields of req. An empty password removes the
// password.
func (s *Shortener) Update(ctx context.Context, id string, req types.UpdateLinkRequest) (*types.LinkView, error) {
	clearPassword := req.Password != nil && *req.Password == ""
	if clearPassword {
		req.Password = nil
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	link, err := s.links.GetLinkByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	oldSlug := link.Slug

	if req.URL != nil {
		link.TargetURL = *req.URL
	}
	if req.Slug != nil {
		link.Slug = *req.Slug
	}
	if req.ExpiresAt != nil {
		link.ExpiresAt = req.ExpiresAt
	}
	switch {
	case clearPassword:
		link.PasswordHash = nil
	case req.Password != nil:
		hash, err := hashPassword(*req.Password)
		if err != nil {
			slog.Error("Failed to hash password", "error", err)
			return nil, errInternal
		}
		link.PasswordHash = &hash
	}
	if req.Tags != nil {
		link.Tags = uniqueTags(req.Tags)
	}
	link.UpdatedAt = max(s.now().UnixMilli(), link.UpdatedAt+1)

	if err := s.links.UpdateLink(ctx, link); err != nil {
		return nil, storeError(err)
	}
	s.invalidate(ctx, oldSlug, link.Slug)

	view := s.View(link)
	return &view, nil
}

// Delete removes the link; its clicks go with it.
func (s *Shortener) Delete(ctx context.Context, id string) error {
	link, err := s.links.GetLinkByID(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if err := s.links.DeleteLink(ctx, id); err != nil {
		return storeError(err)
	}
	s.invalidate(ctx, link.Slug)
	return nil
}

func (s *Shortener) invalidate(ctx context.Context, slugs ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteLink(ctx, slugs...); err != nil {
		slog.Warn("Failed to invalidate cache", "error", err, "slugs", slugs)
	}
}

// storeError translates storage sentinels into service errors.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return errLinkNotFound
	case errors.Is(err, database.ErrConflict):
		return errSlugExists
	default:
		slog.Error("Database error", "error", err)
		return errInternal
	}
}

func uniqueTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// pageParams applies defaults to zero values and rejects negative ones.
func pageParams(page, limit, defaultLimit int) (int, int, error) {
	if page < 0 || limit < 0 {
		return 0, 0, newError(CodeValidation, "page and limit must be positive")
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultLimit
	}
	return page, limit, nil
}

func paginate(page, limit int, total int64) types.Pagination {
	var pages int64
	if total > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return types.Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
