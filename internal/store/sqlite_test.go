package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsignal/employer-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testPosting(jobID string) model.PostingRecord {
	return model.PostingRecord{
		JobID:         jobID,
		Title:         "CNC Setter / Operator",
		RecruiterName: "Apex Talent Ltd",
		LocationText:  "Leicester LE4",
		Description:   "Busy fabrication shop seeks a CNC setter.",
	}
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testPosting("job-001"))
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "job-001", got.Posting.JobID)
	assert.Equal(t, "Apex Talent Ltd", got.Posting.RecruiterName)
	assert.Nil(t, got.Result)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "no-such-run")
	assert.Error(t, err)
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testPosting("job-002"))
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusSearching))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSearching, got.Status)
}

func TestSQLite_UpdateRunStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateRunStatus(context.Background(), "missing", model.RunStatusRanking)
	assert.Error(t, err)
}

func TestSQLite_UpdateRunResult(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testPosting("job-003"))
	require.NoError(t, err)

	result := &model.RunResult{
		TopCompany:    "Midland Precision Engineering Ltd",
		TopConfidence: 0.84,
		TopScore:      59,
		Candidates:    3,
		TotalTokens:   12840,
	}
	require.NoError(t, st.UpdateRunResult(ctx, run.ID, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "Midland Precision Engineering Ltd", got.Result.TopCompany)
	assert.Equal(t, 59, got.Result.TopScore)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testPosting("job-004"))
	require.NoError(t, err)

	result := &model.RunResult{Error: "hypothesis generation failed"}
	require.NoError(t, st.FailRun(ctx, run.ID, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "hypothesis generation failed", got.Result.Error)
}

func TestSQLite_ListRuns_FilterByStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateRun(ctx, testPosting("job-a"))
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, testPosting("job-b"))
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, a.ID, model.RunStatusComplete))

	runs, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "job-a", runs[0].Posting.JobID)
}

func TestSQLite_ListRuns_FilterByJobID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateRun(ctx, testPosting("job-x"))
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, testPosting("job-y"))
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, RunFilter{JobID: "job-y"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "job-y", runs[0].Posting.JobID)
}

func TestSQLite_ListRuns_Limit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.CreateRun(ctx, testPosting("job-limit"))
		require.NoError(t, err)
	}

	runs, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
