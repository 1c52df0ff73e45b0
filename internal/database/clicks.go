package database

import (
	"context"
	"fmt"

	"linktrail/internal/types"
)

func (db *Database) InsertClick(ctx context.Context, click *types.Click) error {
	_, err := db.db.NamedExecContext(ctx, `INSERT INTO clicks
		(id, link_id, clicked_at, ip, user_agent, referrer, country, city)
		VALUES (:id, :link_id, :clicked_at, :ip, :user_agent, :referrer, :country, :city)`, click)
	if err != nil {
		return fmt.Errorf("insert click: %w", translate(err))
	}
	return nil
}

// SetClickLocation fills the enrichment columns of a click. Only a click
// with no location yet is touched, so enrichment happens at most once.
func (db *Database) SetClickLocation(ctx context.Context, clickID string, country, city *string) error {
	_, err := db.db.ExecContext(ctx, `UPDATE clicks SET country = $2, city = $3
		WHERE id = $1 AND country IS NULL AND city IS NULL`, clickID, country, city)
	if err != nil {
		return fmt.Errorf("set click location: %w", err)
	}
	return nil
}

func (db *Database) ListClicks(ctx context.Context, linkID string, limit, offset int) ([]types.Click, error) {
	clicks := []types.Click{}
	err := db.db.SelectContext(ctx, &clicks, `SELECT id, link_id, clicked_at, ip, user_agent, referrer, country, city
		FROM clicks WHERE link_id = $1
		ORDER BY clicked_at DESC, id DESC
		LIMIT $2 OFFSET $3`, linkID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list clicks: %w", err)
	}
	return clicks, nil
}

func (db *Database) CountClicks(ctx context.Context, linkID string) (int64, error) {
	var count int64
	if err := db.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM clicks WHERE link_id = $1`, linkID); err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	return count, nil
}

// ClicksByDay groups clicks by their UTC calendar date.
func (db *Database) ClicksByDay(ctx context.Context, linkID string) ([]types.DayCount, error) {
	days := []types.DayCount{}
	err := db.db.SelectContext(ctx, &days, `
		SELECT to_char(to_timestamp(clicked_at / 1000.0) AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		       COUNT(*) AS count
		FROM clicks
		WHERE link_id = $1
		GROUP BY day
		ORDER BY day DESC`, linkID)
	if err != nil {
		return nil, fmt.Errorf("query clicks by day: %w", err)
	}
	return days, nil
}

func (db *Database) ClicksByCountry(ctx context.Context, linkID string) ([]types.CountryCount, error) {
	countries := []types.CountryCount{}
	err := db.db.SelectContext(ctx, &countries, `
		SELECT country, COUNT(*) AS count
		FROM clicks
		WHERE link_id = $1 AND country IS NOT NULL
		GROUP BY country
		ORDER BY count DESC, country`, linkID)
	if err != nil {
		return nil, fmt.Errorf("query clicks by country: %w", err)
	}
	return countries, nil
}

// ReferrerCounts groups by the raw referrer string; NULL is its own group.
func (db *Database) ReferrerCounts(ctx context.Context, linkID string) ([]types.RawReferrerCount, error) {
	refs := []types.RawReferrerCount{}
	err := db.db.SelectContext(ctx, &refs, `
		SELECT referrer, COUNT(*) AS count
		FROM clicks
		WHERE link_id = $1
		GROUP BY referrer`, linkID)
	if err != nil {
		return nil, fmt.Errorf("query referrers: %w", err)
	}
	return refs, nil
}

func (db *Database) RecentClicks(ctx context.Context, linkID string, n int) ([]types.RecentClick, error) {
	recent := []types.RecentClick{}
	err := db.db.SelectContext(ctx, &recent, `
		SELECT clicked_at, country, city, referrer
		FROM clicks
		WHERE link_id = $1
		ORDER BY clicked_at DESC, id DESC
		LIMIT $2`, linkID, n)
	if err != nil {
		return nil, fmt.Errorf("query recent clicks: %w", err)
	}
	return recent, nil
}
