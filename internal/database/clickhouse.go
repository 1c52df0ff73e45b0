package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/golang-migrate/migrate/v4"
	clickmigrations "github.com/golang-migrate/migrate/v4/database/clickhouse"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"linktrail/internal/geo"
	"linktrail/internal/metrics"
	"linktrail/internal/types"
)

//go:embed migrations/clickhouse/*.sql
var migrationsClickHouseFS embed.FS

const (
	archiveBufferSize = 1000
	archiveBatchSize  = 100
	archiveFlushEvery = 5 * time.Second
	unknownLocation   = "Unknown"
)

// Archive copies clicks into ClickHouse for long term reporting. It is fed
// from the redirect path without blocking it: a full buffer drops clicks.
type Archive struct {
	db           *sql.DB
	clicksBuffer chan types.Click
	geo          geo.Lookup
	flush        func(ctx context.Context, clicks []types.Click) error
	done         chan struct{}
}

func ConnectClickHouse(ctx context.Context, addr, user, pass, dbName string, lookup geo.Lookup) (*Archive, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
			Username: user,
			Password: pass,
		},
		DialTimeout: time.Second * 30,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	a := newArchive(lookup)
	a.db = conn
	a.flush = a.recordClicks

	if err := a.runMigrations(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return a, nil
}

func newArchive(lookup geo.Lookup) *Archive {
	return &Archive{
		clicksBuffer: make(chan types.Click, archiveBufferSize),
		geo:          lookup,
		done:         make(chan struct{}),
	}
}

func (a *Archive) runMigrations() error {
	d, err := iofs.New(migrationsClickHouseFS, "migrations/clickhouse")
	if err != nil {
		return err
	}

	driver, err := clickmigrations.WithInstance(a.db, &clickmigrations.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance(
		"iofs", d,
		"clickhouse", driver,
	)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	slog.Info("ClickHouse migrations applied successfully")
	return nil
}

// Start runs the batching worker until ctx is cancelled; pending clicks are
// flushed before it returns.
func (a *Archive) Start(ctx context.Context) {
	go a.worker(ctx)
}

func (a *Archive) worker(ctx context.Context) {
	defer close(a.done)

	var buffer []types.Click
	ticker := time.NewTicker(archiveFlushEvery)
	defer ticker.Stop()

	write := func() {
		if len(buffer) == 0 {
			return
		}
		flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.flush(flushCtx, buffer); err != nil {
			slog.Warn("RecordClicks error", "error", err, "clicks", len(buffer))
		} else {
			metrics.ArchiveFlushed.Add(float64(len(buffer)))
		}
		buffer = nil
	}

	for {
		select {
		case data := <-a.clicksBuffer:
			buffer = append(buffer, data)
			if len(buffer) >= archiveBatchSize {
				write()
			}
		case <-ticker.C:
			write()
		case <-ctx.Done():
			for {
				select {
				case data := <-a.clicksBuffer:
					buffer = append(buffer, data)
				default:
					write()
					return
				}
			}
		}
	}
}

// Done is closed once the worker has flushed and exited.
func (a *Archive) Done() <-chan struct{} {
	return a.done
}

func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *Archive) recordClicks(ctx context.Context, clicks []types.Click) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO clicks (id, link_id, clicked_at, country, city, user_agent, referrer) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, data := range clicks {
		country, city := a.locate(ctx, data)
		_, err = stmt.ExecContext(ctx, data.ID, data.LinkID, time.UnixMilli(data.Timestamp).UTC(),
			country, city, deref(data.UserAgent), deref(data.Referrer))
		if err != nil {
			slog.Error("failed to exec insert for click", "error", err, "click_id", data.ID)
			continue
		}
	}
	return tx.Commit()
}

// locate resolves the click's location with the archive's own lookup; the
// ledger row may not be enriched yet when the click is archived.
func (a *Archive) locate(ctx context.Context, data types.Click) (string, string) {
	country, city := unknownLocation, unknownLocation
	if data.IP == nil || a.geo == nil {
		return country, city
	}
	loc, err := a.geo.Lookup(ctx, *data.IP)
	if err != nil {
		return country, city
	}
	if loc.Country != "" {
		country = loc.Country
	}
	if loc.City != "" {
		city = loc.City
	}
	return country, city
}

func (a *Archive) PushClick(data types.Click) {
	select {
	case a.clicksBuffer <- data:
	default:
		metrics.ArchiveDropped.Inc()
		slog.Warn("Archive buffer full, dropping click", "link_id", data.LinkID)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
