package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"linktrail/internal/types"
)

const linkColumns = `id, slug, target_url, password_hash, expires_at, created_at, updated_at`

func (db *Database) CreateLink(ctx context.Context, link *types.Link) error {
	tx, err := db.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `INSERT INTO links (`+linkColumns+`)
		VALUES (:id, :slug, :target_url, :password_hash, :expires_at, :created_at, :updated_at)`, link)
	if err != nil {
		return fmt.Errorf("insert link: %w", translate(err))
	}
	if err := setLinkTags(ctx, tx, link.ID, link.Tags, link.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *Database) GetLinkByID(ctx context.Context, id string) (*types.Link, error) {
	return db.getLink(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id)
}

func (db *Database) GetLinkBySlug(ctx context.Context, slug string) (*types.Link, error) {
	return db.getLink(ctx, `SELECT `+linkColumns+` FROM links WHERE slug = $1`, slug)
}

func (db *Database) getLink(ctx context.Context, query string, arg string) (*types.Link, error) {
	var link types.Link
	if err := db.db.GetContext(ctx, &link, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get link: %w", err)
	}
	tags, err := db.tagsFor(ctx, []string{link.ID})
	if err != nil {
		return nil, err
	}
	link.Tags = tags[link.ID]
	return &link, nil
}

// ListLinks returns links newest first, optionally restricted to a tag.
func (db *Database) ListLinks(ctx context.Context, tag string, limit, offset int) ([]types.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links`
	args := []any{}
	if tag != "" {
		query += ` WHERE EXISTS (SELECT 1 FROM link_tags lt JOIN tags t ON t.id = lt.tag_id
			WHERE lt.link_id = links.id AND t.name = $1)`
		args = append(args, tag)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	links := []types.Link{}
	if err := db.db.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	ids := make([]string, len(links))
	for i := range links {
		ids[i] = links[i].ID
	}
	tags, err := db.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range links {
		links[i].Tags = tags[links[i].ID]
	}
	return links, nil
}

func (db *Database) CountLinks(ctx context.Context, tag string) (int64, error) {
	query := `SELECT COUNT(*) FROM links`
	args := []any{}
	if tag != "" {
		query += ` WHERE EXISTS (SELECT 1 FROM link_tags lt JOIN tags t ON t.id = lt.tag_id
			WHERE lt.link_id = links.id AND t.name = $1)`
		args = append(args, tag)
	}
	var count int64
	if err := db.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return count, nil
}

// UpdateLink overwrites every mutable column and replaces the tag set.
func (db *Database) UpdateLink(ctx context.Context, link *types.Link) error {
	tx, err := db.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.NamedExecContext(ctx, `UPDATE links
		SET slug = :slug, target_url = :target_url, password_hash = :password_hash,
		    expires_at = :expires_at, updated_at = :updated_at
		WHERE id = :id`, link)
	if err != nil {
		return fmt.Errorf("update link: %w", translate(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM link_tags WHERE link_id = $1`, link.ID); err != nil {
		return fmt.Errorf("clear link tags: %w", err)
	}
	if err := setLinkTags(ctx, tx, link.ID, link.Tags, link.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteLink removes a link; its clicks and tag associations go with it
// through ON DELETE CASCADE.
func (db *Database) DeleteLink(ctx context.Context, id string) error {
	res, err := db.db.ExecContext(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// setLinkTags creates unknown tags on the fly and associates all of them.
func setLinkTags(ctx context.Context, tx *sqlx.Tx, linkID string, names []string, now int64) error {
	for _, name := range names {
		var tagID string
		err := tx.GetContext(ctx, &tagID, `INSERT INTO tags (id, name, created_at) VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, uuid.NewString(), name, now)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO link_tags (link_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, linkID, tagID)
		if err != nil {
			return fmt.Errorf("associate tag %q: %w", name, translate(err))
		}
	}
	return nil
}

func (db *Database) tagsFor(ctx context.Context, linkIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(linkIDs))
	for _, id := range linkIDs {
		out[id] = []string{}
	}
	if len(linkIDs) == 0 {
		return out, nil
	}

	rows, err := db.db.QueryxContext(ctx, `SELECT lt.link_id, t.name FROM link_tags lt
		JOIN tags t ON t.id = lt.tag_id
		WHERE lt.link_id = ANY($1)
		ORDER BY t.name`, pq.Array(linkIDs))
	if err != nil {
		return nil, fmt.Errorf("query link tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var linkID, name string
		if err := rows.Scan(&linkID, &name); err != nil {
			return nil, fmt.Errorf("scan link tag: %w", err)
		}
		out[linkID] = append(out[linkID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}
