//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kozaktomas/portfolio/internal/config"
	"github.com/kozaktomas/portfolio/internal/database"
	"github.com/kozaktomas/portfolio/internal/web/middleware"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(ctx, cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestMigrations(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	versions, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("MigrationsApplied() error = %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("applied %d migrations, want 2: %v", len(versions), versions)
	}

	// Running again is a no-op.
	if err := pool.Migrate(ctx); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

func TestProjectRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewProjectRepository(pool)

	t.Run("empty store", func(t *testing.T) {
		projects, err := repo.ListProjects(ctx)
		if err != nil {
			t.Fatalf("ListProjects() error = %v", err)
		}
		if len(projects) != 0 {
			t.Errorf("ListProjects() = %d projects, want 0", len(projects))
		}

		maxOrder, err := repo.MaxSortOrder(ctx)
		if err != nil {
			t.Fatalf("MaxSortOrder() error = %v", err)
		}
		if maxOrder != 0 {
			t.Errorf("MaxSortOrder() = %d, want 0", maxOrder)
		}
	})

	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	a := &database.Project{Title: "Alpha", RepoURL: "https://github.com/a/alpha", Tags: []string{"go", "cli"}, SortOrder: 1, CreatedAt: base}
	b := &database.Project{Title: "Beta", SortOrder: 2, CreatedAt: base.Add(time.Minute)}
	c := &database.Project{Title: "Gamma", SortOrder: 2, CreatedAt: base.Add(2 * time.Minute)}

	t.Run("insert and list", func(t *testing.T) {
		for _, p := range []*database.Project{a, b, c} {
			if err := repo.InsertProject(ctx, p); err != nil {
				t.Fatalf("InsertProject(%s) error = %v", p.Title, err)
			}
			if p.ID == "" {
				t.Fatalf("InsertProject(%s) did not assign an id", p.Title)
			}
		}

		projects, err := repo.ListProjects(ctx)
		if err != nil {
			t.Fatalf("ListProjects() error = %v", err)
		}

		// sort_order ascending, newer first on ties
		want := []string{a.ID, c.ID, b.ID}
		got := database.ProjectIDs(projects)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("ListProjects() order = %v, want %v", got, want)
			}
		}

		if len(projects[0].Tags) != 2 || projects[0].Tags[0] != "go" {
			t.Errorf("tags = %v, want [go cli]", projects[0].Tags)
		}
		if projects[1].Tags != nil {
			t.Errorf("NULL tags should scan as nil, got %v", projects[1].Tags)
		}
		if projects[1].RepoURL != "" {
			t.Errorf("NULL repo_url should scan as empty, got %q", projects[1].RepoURL)
		}
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetProject(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetProject() error = %v", err)
		}
		if got == nil || got.Title != "Alpha" {
			t.Fatalf("GetProject() = %+v, want Alpha", got)
		}

		missing, err := repo.GetProject(ctx, "does-not-exist")
		if err != nil {
			t.Fatalf("GetProject(missing) error = %v", err)
		}
		if missing != nil {
			t.Error("GetProject(missing) should return nil")
		}
	})

	t.Run("update", func(t *testing.T) {
		err := repo.UpdateProject(ctx, b.ID, database.ProjectUpdate{Title: "Beta 2", ImageURL: "https://cdn/b.webp", Tags: []string{"web"}})
		if err != nil {
			t.Fatalf("UpdateProject() error = %v", err)
		}
		got, _ := repo.GetProject(ctx, b.ID)
		if got.Title != "Beta 2" || got.ImageURL != "https://cdn/b.webp" || len(got.Tags) != 1 {
			t.Errorf("UpdateProject() stored %+v", got)
		}

		err = repo.UpdateProject(ctx, "missing", database.ProjectUpdate{Title: "x"})
		if !errors.Is(err, database.ErrProjectNotFound) {
			t.Errorf("UpdateProject(missing) error = %v, want ErrProjectNotFound", err)
		}
	})

	t.Run("reorder", func(t *testing.T) {
		n, err := repo.UpdateProjectOrder(ctx, []string{c.ID, b.ID, a.ID})
		if err != nil {
			t.Fatalf("UpdateProjectOrder() error = %v", err)
		}
		if n != 3 {
			t.Errorf("UpdateProjectOrder() = %d, want 3", n)
		}

		projects, _ := repo.ListProjects(ctx)
		for i, p := range projects {
			if p.SortOrder != i+1 {
				t.Errorf("project %s sort_order = %d, want %d", p.Title, p.SortOrder, i+1)
			}
		}
		if projects[0].ID != c.ID {
			t.Errorf("first project = %s, want Gamma", projects[0].Title)
		}

		n, err = repo.UpdateProjectOrder(ctx, []string{c.ID, "ghost"})
		if err != nil {
			t.Fatalf("UpdateProjectOrder(unknown) error = %v", err)
		}
		if n != 1 {
			t.Errorf("UpdateProjectOrder(unknown) = %d, want 1", n)
		}

		maxOrder, _ := repo.MaxSortOrder(ctx)
		if maxOrder != 3 {
			t.Errorf("MaxSortOrder() = %d, want 3", maxOrder)
		}
	})

	t.Run("delete", func(t *testing.T) {
		n, err := repo.DeleteProjects(ctx, []string{a.ID, b.ID, "ghost"})
		if err != nil {
			t.Fatalf("DeleteProjects() error = %v", err)
		}
		if n != 2 {
			t.Errorf("DeleteProjects() = %d, want 2", n)
		}
		projects, _ := repo.ListProjects(ctx)
		if len(projects) != 1 || projects[0].ID != c.ID {
			t.Errorf("remaining projects = %v, want only Gamma", database.ProjectIDs(projects))
		}
	})
}

func TestSessionRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewSessionRepository(pool)
	now := time.Now()

	live := middleware.StoredSession{ID: "live", Subject: "admin@example.com", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	dead := middleware.StoredSession{ID: "dead", Subject: "admin@example.com", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}

	for _, s := range []middleware.StoredSession{live, dead} {
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("Save(%s) error = %v", s.ID, err)
		}
	}

	got, err := repo.Get(ctx, "live")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.Subject != "admin@example.com" {
		t.Fatalf("Get() = %+v", got)
	}

	expired, err := repo.Get(ctx, "dead")
	if err != nil {
		t.Fatalf("Get(expired) error = %v", err)
	}
	if expired != nil {
		t.Error("Get() should not return expired sessions")
	}

	n, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", n)
	}

	if err := repo.Delete(ctx, "live"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got, _ := repo.Get(ctx, "live"); got != nil {
		t.Error("session still present after Delete()")
	}
}
