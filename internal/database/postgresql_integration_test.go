//go:build integration

package database

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"linktrail/internal/types"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func startPostgres(t *testing.T) *Database {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "linktrail",
				"POSTGRES_PASSWORD": "linktrail",
				"POSTGRES_DB":       "linktrail",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	url := fmt.Sprintf("postgres://linktrail:linktrail@%s:%s/linktrail?sslmode=disable", host, port.Port())
	db, err := ConnectPostgres(ctx, url)
	if err != nil {
		t.Fatalf("ConnectPostgres() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newLink(slug string, createdAt int64, tags ...string) *types.Link {
	return &types.Link{
		ID:        uuid.New().String(),
		Slug:      slug,
		TargetURL: "https://example.com/" + slug,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Tags:      tags,
	}
}

func TestPostgresLinks(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	link := newLink("alpha", 1000, "docs", "team")
	if err := db.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}
	if err := db.CreateLink(ctx, newLink("alpha", 1001)); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate slug error = %v, want ErrConflict", err)
	}
	if err := db.CreateLink(ctx, newLink("beta", 2000, "docs")); err != nil {
		t.Fatalf("CreateLink(beta) error = %v", err)
	}

	got, err := db.GetLinkBySlug(ctx, "alpha")
	if err != nil {
		t.Fatalf("GetLinkBySlug() error = %v", err)
	}
	if got.ID != link.ID || len(got.Tags) != 2 || got.Tags[0] != "docs" {
		t.Errorf("GetLinkBySlug() = %+v", got)
	}
	if _, err := db.GetLinkByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLinkByID(missing) error = %v, want ErrNotFound", err)
	}

	links, err := db.ListLinks(ctx, "docs", 10, 0)
	if err != nil {
		t.Fatalf("ListLinks() error = %v", err)
	}
	if len(links) != 2 || links[0].Slug != "beta" {
		t.Errorf("ListLinks(docs) = %+v, want beta first", links)
	}
	if n, err := db.CountLinks(ctx, "team"); err != nil || n != 1 {
		t.Errorf("CountLinks(team) = %d, %v", n, err)
	}

	got.Slug = "beta"
	if err := db.UpdateLink(ctx, got); !errors.Is(err, ErrConflict) {
		t.Errorf("UpdateLink(taken slug) error = %v, want ErrConflict", err)
	}
	got.Slug = "gamma"
	got.Tags = []string{"new"}
	got.UpdatedAt = 3000
	if err := db.UpdateLink(ctx, got); err != nil {
		t.Fatalf("UpdateLink() error = %v", err)
	}
	updated, err := db.GetLinkByID(ctx, link.ID)
	if err != nil {
		t.Fatalf("GetLinkByID() error = %v", err)
	}
	if updated.Slug != "gamma" || len(updated.Tags) != 1 || updated.Tags[0] != "new" {
		t.Errorf("after update = %+v", updated)
	}
}

func TestPostgresClicks(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	link := newLink("clicks", 1000)
	if err := db.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}

	day := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC).UnixMilli()
	twitter := "https://twitter.com/a"
	clicks := []types.Click{
		{ID: "c1", LinkID: link.ID, Timestamp: day, Referrer: &twitter},
		{ID: "c2", LinkID: link.ID, Timestamp: day + int64(time.Hour/time.Millisecond), Referrer: &twitter},
		{ID: "c3", LinkID: link.ID, Timestamp: day + 1},
	}
	for i := range clicks {
		if err := db.InsertClick(ctx, &clicks[i]); err != nil {
			t.Fatalf("InsertClick() error = %v", err)
		}
	}
	if err := db.InsertClick(ctx, &types.Click{ID: "orphan", LinkID: "missing", Timestamp: day}); !errors.Is(err, ErrNotFound) {
		t.Errorf("InsertClick(unknown link) error = %v, want ErrNotFound", err)
	}

	de, berlin, fr := "DE", "Berlin", "FR"
	if err := db.SetClickLocation(ctx, "c1", &de, &berlin); err != nil {
		t.Fatalf("SetClickLocation() error = %v", err)
	}
	if err := db.SetClickLocation(ctx, "c1", &fr, nil); err != nil {
		t.Fatalf("SetClickLocation(second) error = %v", err)
	}

	page, err := db.ListClicks(ctx, link.ID, 2, 0)
	if err != nil {
		t.Fatalf("ListClicks() error = %v", err)
	}
	if len(page) != 2 || page[0].ID != "c2" || page[1].ID != "c3" {
		t.Errorf("ListClicks() = %+v, want c2, c3", page)
	}

	byDay, err := db.ClicksByDay(ctx, link.ID)
	if err != nil {
		t.Fatalf("ClicksByDay() error = %v", err)
	}
	if len(byDay) != 2 || byDay[0].Date != "2024-03-11" || byDay[1].Date != "2024-03-10" || byDay[1].Count != 2 {
		t.Errorf("ClicksByDay() = %+v", byDay)
	}

	byCountry, err := db.ClicksByCountry(ctx, link.ID)
	if err != nil {
		t.Fatalf("ClicksByCountry() error = %v", err)
	}
	if len(byCountry) != 1 || byCountry[0].Country != "DE" {
		t.Errorf("ClicksByCountry() = %+v, want only the first enrichment", byCountry)
	}

	refs, err := db.ReferrerCounts(ctx, link.ID)
	if err != nil {
		t.Fatalf("ReferrerCounts() error = %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("ReferrerCounts() = %+v, want twitter and direct groups", refs)
	}

	if err := db.DeleteLink(ctx, link.ID); err != nil {
		t.Fatalf("DeleteLink() error = %v", err)
	}
	if n, err := db.CountClicks(ctx, link.ID); err != nil || n != 0 {
		t.Errorf("CountClicks after delete = %d, %v", n, err)
	}
	if err := db.DeleteLink(ctx, link.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteLink(again) error = %v, want ErrNotFound", err)
	}
}
