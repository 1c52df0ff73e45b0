package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"linktrail/internal/database"
	"linktrail/internal/metrics"
	"linktrail/internal/types"
)

// RequestMeta is what the resolver needs from the incoming request.
// ForwardedFor is the raw X-Forwarded-For header.
type RequestMeta struct {
	ForwardedFor string
	RealIP       string
	UserAgent    string
	Referrer     string
	Password     *string
}

type Redirect struct {
	URL    string
	Status int
}

// Resolver turns a slug into a redirect and records the click.
type Resolver struct {
	links    *Shortener
	clicks   ClickStore
	enricher EnrichmentDispatcher
	archive  ClickSink
	now      func() time.Time
}

// NewResolver wires the resolver. archive may be nil.
func NewResolver(links *Shortener, clicks ClickStore, enricher EnrichmentDispatcher, archive ClickSink) *Resolver {
	return &Resolver{
		links:    links,
		clicks:   clicks,
		enricher: enricher,
		archive:  archive,
		now:      time.Now,
	}
}

// Resolve checks expiry and password, writes exactly one click and starts
// geo enrichment without waiting for it. A refused resolution records
// nothing.
func (r *Resolver) Resolve(ctx context.Context, slug string, meta RequestMeta) (*Redirect, error) {
	link, err := r.links.GetBySlug(ctx, slug)
	if err != nil {
		return nil, r.deny(err)
	}

	now := r.now()
	if link.ExpiresAt != nil && *link.ExpiresAt < now.UnixMilli() {
		return nil, r.deny(errLinkExpired)
	}

	if link.PasswordHash != nil {
		if meta.Password == nil || *meta.Password == "" {
			return nil, r.deny(errPasswordRequired)
		}
		ok, err := checkPassword(*link.PasswordHash, *meta.Password)
		if err != nil {
			slog.Error("Stored password hash is unusable", "link_id", link.ID, "error", err)
		}
		if !ok {
			return nil, r.deny(errInvalidPassword)
		}
	}

	click := types.Click{
		ID:        uuid.New().String(),
		LinkID:    link.ID,
		Timestamp: now.UnixMilli(),
		IP:        optional(clientIP(meta.ForwardedFor, meta.RealIP)),
		UserAgent: optional(meta.UserAgent),
		Referrer:  optional(meta.Referrer),
	}
	if err := r.clicks.InsertClick(ctx, &click); err != nil {
		// A cached link can outlive its row.
		if errors.Is(err, database.ErrNotFound) {
			return nil, r.deny(errLinkNotFound)
		}
		slog.Error("Failed to record click", "error", err, "slug", slug)
		return nil, errInternal
	}
	metrics.ClicksRecorded.Inc()

	if click.IP != nil {
		r.enricher.Dispatch(click.ID, *click.IP)
	}
	if r.archive != nil {
		r.archive.PushClick(click)
	}

	return &Redirect{URL: link.TargetURL, Status: http.StatusFound}, nil
}

func (r *Resolver) deny(err error) error {
	e := AsError(err)
	metrics.RedirectsDenied.WithLabelValues(string(e.Code)).Inc()
	return e
}

// clientIP takes the first hop of X-Forwarded-For, then X-Real-IP.
func clientIP(forwardedFor, realIP string) string {
	first, _, _ := strings.Cut(forwardedFor, ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	return strings.TrimSpace(realIP)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
