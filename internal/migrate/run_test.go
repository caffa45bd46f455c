package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedVersions(t *testing.T) {
	versions, err := embeddedVersions()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_vehicles_jobs", "0002_job_parts"}, versions)
}

func TestEmbeddedMigrationsDeclareSchema(t *testing.T) {
	body, err := migrationsFS.ReadFile("migrations/0001_vehicles_jobs.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "jobs_status_check")

	body, err = migrationsFS.ReadFile("migrations/0002_job_parts.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "REFERENCES jobs (id) ON DELETE CASCADE")
}

func TestRun_ClosedPoolFailsFast(t *testing.T) {
	// A closed pool surfaces the error from the first statement instead of applying anything.
	db := openClosedDB(t)
	err := Run(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_migrations")
}
