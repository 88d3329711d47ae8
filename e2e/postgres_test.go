package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgOnce      sync.Once
	pgDSN       string
	pgErr       error
	testCleanup func()
)

// getSharedPostgresDatabase starts one PostgreSQL container for the whole
// run and returns its DSN. TestMain terminates it.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	pgOnce.Do(func() {
		ctx := context.Background()

		container, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("gatehouse"),
			pgcontainer.WithUsername("gatehouse"),
			pgcontainer.WithPassword("gatehouse"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			pgErr = err
			return
		}
		testCleanup = func() { _ = testcontainers.TerminateContainer(container) }

		pgDSN, pgErr = container.ConnectionString(ctx, "sslmode=disable")
	})

	if pgErr != nil {
		t.Fatalf("postgres container: %v", pgErr)
	}
	return pgDSN
}
