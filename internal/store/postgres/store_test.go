package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spigell/job-triage/internal/store"
	"github.com/spigell/job-triage/internal/store/storetest"
)

const testDatabaseEnv = "JOB_TRIAGE_TEST_DATABASE_URL"

func TestStore(t *testing.T) {
	dsn := os.Getenv(testDatabaseEnv)
	if dsn == "" {
		t.Skipf("%s is not set", testDatabaseEnv)
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := Open(ctx, dsn)
		require.NoError(t, err)

		_, err = s.pool.Exec(ctx, `TRUNCATE submission_events, application_drafts, job_matches, preferences, resumes, profiles, job_posts`)
		require.NoError(t, err)

		t.Cleanup(func() { s.Close() })
		return s
	})
}
