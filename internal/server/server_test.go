package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/pipeline"
	"github.com/spigell/job-triage/internal/review"
	"github.com/spigell/job-triage/internal/store"
	"github.com/spigell/job-triage/internal/store/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const owner = "user-1"

type stubRunner struct {
	report *pipeline.Report
	err    error
	user   string
}

func (s *stubRunner) Run(_ context.Context, userID string) (*pipeline.Report, error) {
	s.user = userID
	return s.report, s.err
}

func seedMatch(t *testing.T, st store.Store, url string, status jobs.Status) *jobs.Match {
	t.Helper()
	ctx := context.Background()
	p := &jobs.Posting{URL: url, Title: "Engineer", Company: "Acme"}
	_, err := st.InsertPosting(ctx, p)
	require.NoError(t, err)

	m := &jobs.Match{UserID: owner, PostingID: p.ID, FitScore: 80, Status: status}
	require.NoError(t, st.CreateMatch(ctx, m))
	require.NoError(t, st.CreateDraft(ctx, &jobs.Draft{MatchID: m.ID, CoverLetter: "hello"}))
	return m
}

func do(t *testing.T, h http.Handler, method, path, user, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealthAndAuth(t *testing.T) {
	srv := New(&stubRunner{}, review.New(memory.New(), nil, nil), nil)

	rec, body := do(t, srv.Handler(), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = do(t, srv.Handler(), http.MethodPost, "/v1/pipeline/run", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunPipeline(t *testing.T) {
	okReport := &pipeline.Report{
		UserID:  owner,
		Steps:   []*pipeline.Step{{ID: pipeline.StepCollect, Status: pipeline.StepCompleted, Count: 3}},
		Summary: pipeline.Summary{JobsCollected: 3, MatchesScored: 3, DraftsCreated: 3, Errors: []string{}},
	}
	failed := &pipeline.Report{Steps: []*pipeline.Step{{ID: pipeline.StepCollect, Status: pipeline.StepFailed}}}

	tests := []struct {
		name     string
		runner   *stubRunner
		wantCode int
		check    func(t *testing.T, body map[string]any)
	}{
		{
			name:     "success",
			runner:   &stubRunner{report: okReport},
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				summary := body["summary"].(map[string]any)
				assert.EqualValues(t, 3, summary["jobsCollected"])
				assert.EqualValues(t, 3, summary["draftsCreated"])
			},
		},
		{
			name:     "precondition",
			runner:   &stubRunner{report: &pipeline.Report{}, err: &pipeline.PreconditionError{Code: pipeline.CodeMissingResume, Message: "Please upload a resume first"}},
			wantCode: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, pipeline.CodeMissingResume, body["code"])
			},
		},
		{
			name:     "store failure keeps steps",
			runner:   &stubRunner{report: failed, err: errors.New("collect: connection refused")},
			wantCode: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body["error"], "connection refused")
				assert.Len(t, body["steps"], 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(tt.runner, review.New(memory.New(), nil, nil), nil)
			rec, body := do(t, srv.Handler(), http.MethodPost, "/v1/pipeline/run", owner, "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, owner, tt.runner.user)
			tt.check(t, body)
		})
	}
}

func TestMatchesEndpoints(t *testing.T) {
	st := memory.New()
	srv := New(&stubRunner{}, review.New(st, nil, nil), nil)
	h := srv.Handler()

	drafted := seedMatch(t, st, "https://a", jobs.StatusDrafted)
	pending := seedMatch(t, st, "https://b", jobs.StatusNeedsReview)
	skipped := seedMatch(t, st, "https://c", jobs.StatusSkipped)

	rec, body := do(t, h, http.MethodGet, "/v1/matches?status=needs_review", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["matches"], 1)

	rec, _ = do(t, h, http.MethodGet, "/v1/matches?status=bogus", owner, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, h, http.MethodGet, "/v1/matches/"+drafted.ID, owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", body["draft"].(map[string]any)["cover_letter"])

	rec, _ = do(t, h, http.MethodGet, "/v1/matches/"+drafted.ID, "intruder", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, h, http.MethodPost, "/v1/matches/"+drafted.ID+"/approve", owner, `{"coverLetter": "edited"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(jobs.StatusApplied), body["status"])
	d, err := st.GetDraft(context.Background(), drafted.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", d.CoverLetter)

	rec, body = do(t, h, http.MethodPost, "/v1/matches/"+pending.ID+"/skip", owner, `{"reason": "too far"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(jobs.StatusSkipped), body["status"])

	rec, _ = do(t, h, http.MethodPost, "/v1/matches/"+skipped.ID+"/approve", owner, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/v1/matches/"+drafted.ID+"/skip", owner, "{broken")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
