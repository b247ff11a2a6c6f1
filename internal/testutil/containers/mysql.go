//go:build integration

// Package containers starts the backing services used by integration
// tests.  Every helper registers its own cleanup.
package containers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/iliyamo/course-enrollment/internal/database"
)

// MySQLContainer is a migrated MySQL 8 schema.
type MySQLContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewMySQLContainer starts MySQL, opens a pool through the database
// package and applies the schema.
func NewMySQLContainer(t *testing.T) *MySQLContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("enrollment"),
		tcmysql.WithUsername("enrollment"),
		tcmysql.WithPassword("enrollment"),
	)
	if err != nil {
		t.Fatalf("start mysql container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "loc=UTC")
	if err != nil {
		t.Fatalf("mysql connection string: %v", err)
	}
	db, err := database.OpenDSN(dsn)
	if err != nil {
		t.Fatalf("open mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &MySQLContainer{Container: container, DSN: dsn, DB: db}
}

// Truncate empties every table, children first.
func (m *MySQLContainer) Truncate(ctx context.Context) error {
	for _, table := range []string{"payments", "enrollments", "students", "courses"} {
		if _, err := m.DB.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
