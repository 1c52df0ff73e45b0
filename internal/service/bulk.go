package service

import (
	"context"

	"github.com/google/uuid"

	"linktrail/internal/types"
)

const (
	bulkInvalidURL  = "Invalid URL"
	bulkInvalidSlug = "Invalid slug"
	bulkSlugExists  = "Slug already exists"
	bulkFailed      = "Failed to create link"
)

// BulkCreate creates each item independently, in input order. A failing
// item is reported in Errors by its index and never stops the others.
func (s *Shortener) BulkCreate(ctx context.Context, items []types.BulkItem) types.BulkResult {
	res := types.BulkResult{
		Created: []types.CreatedLink{},
		Errors:  []types.BulkError{},
	}

	for i, item := range items {
		if !validURL(item.URL) {
			res.Errors = append(res.Errors, types.BulkError{Index: i, Error: bulkInvalidURL})
			continue
		}
		var slug string
		if item.Slug != nil {
			if !validSlug(*item.Slug) {
				res.Errors = append(res.Errors, types.BulkError{Index: i, Error: bulkInvalidSlug})
				continue
			}
			slug = *item.Slug
		}

		now := s.now().UnixMilli()
		link := &types.Link{
			ID:        uuid.New().String(),
			Slug:      slug,
			TargetURL: item.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.insert(ctx, link); err != nil {
			reason := bulkFailed
			if IsCode(err, CodeConflict) {
				reason = bulkSlugExists
			}
			res.Errors = append(res.Errors, types.BulkError{Index: i, Error: reason})
			continue
		}
		res.Created = append(res.Created, types.CreatedLink{
			ID:       link.ID,
			Slug:     link.Slug,
			ShortURL: s.ShortURL(link.Slug),
		})
	}
	return res
}
