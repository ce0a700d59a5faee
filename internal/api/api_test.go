package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-github/v54/github"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoflow/mergecoord/internal/engine"
	"github.com/octoflow/mergecoord/internal/host/hosttest"
	"github.com/octoflow/mergecoord/internal/host/model"
	"github.com/octoflow/mergecoord/internal/serializer"
)

func newTestServer(fake *hosttest.FakeClient) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)

	noSleep := func(context.Context, time.Duration) error { return nil }
	e := engine.New(fake,
		engine.WithLogger(log),
		engine.WithScheduler(engine.NewScheduler(engine.DefaultRetryPolicy, noSleep)),
	)
	return NewServer(e, log)
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) serializer.OperationResult {
	t.Helper()
	var result serializer.OperationResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	return result
}

func TestHandleCheckMerged(t *testing.T) {
	fake := hosttest.NewFakeClient(&model.MergeState{
		Merged:           true,
		MergeCommitOID:   "m-1",
		MergeStateStatus: model.MergeStateMergeable,
	})
	fake.Quota().Update(github.Rate{Limit: 5000, Remaining: 4999})
	server := newTestServer(fake)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pulls/octoflow/widgets/42/merged", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.True(t, result.Merged)
	assert.Equal(t, "m-1", result.MergeCommit)
	require.NotNil(t, result.RateRemaining)
	assert.Equal(t, 4999, *result.RateRemaining)
}

func TestHandleCheckReadinessBlocked(t *testing.T) {
	fake := hosttest.NewFakeClient(&model.MergeState{
		State:            model.PullRequestOpen,
		MergeStateStatus: model.MergeStateConflicting,
	})
	server := newTestServer(fake)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pulls/octoflow/widgets/42/readiness", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.False(t, result.Verdict)
	require.Len(t, result.BlockingReasons, 1)
	assert.Equal(t, engine.CodeMergeConflict, result.BlockingReasons[0].Code)
}

func TestHandleExecuteMerge(t *testing.T) {
	fake := hosttest.NewFakeClient(
		&model.MergeState{
			State:            model.PullRequestOpen,
			HeadOID:          "head-1",
			MergeStateStatus: model.MergeStateMergeable,
			ReviewDecision:   model.ReviewApproved,
			CheckRollup:      model.CheckRollupSuccess,
		},
		&model.MergeState{Merged: true, MergeCommitOID: "m-1", MergeStateStatus: model.MergeStateMergeable},
	)
	fake.MergeOID = "m-1"
	server := newTestServer(fake)

	body := strings.NewReader(`{"strategy":"MERGE_COMMIT"}`)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pulls/octoflow/widgets/42/merge", body))

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.True(t, result.Verdict)
	assert.Equal(t, "m-1", result.MergeCommit)
	require.Len(t, fake.MergeCalls, 1)
	assert.Equal(t, "head-1", fake.MergeCalls[0].ExpectedHeadOID)
}

func TestHandleRollbackWithoutApproval(t *testing.T) {
	fake := hosttest.NewFakeClient(&model.MergeState{Merged: true})
	server := newTestServer(fake)

	body := strings.NewReader(`{"merge_commit_oid":"m-1","mode":"FORCE_RESET"}`)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pulls/octoflow/widgets/42/rollback", body))

	require.Equal(t, http.StatusForbidden, rec.Code)

	var apiErr serializer.APIErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	assert.Equal(t, "approval_required", apiErr.ID)
	assert.Zero(t, fake.MutationCount())
}

func TestHandleNotFound(t *testing.T) {
	server := newTestServer(hosttest.NewFakeClient())

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pulls/octoflow/widgets/42/merged", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var apiErr serializer.APIErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	assert.Equal(t, "not_found", apiErr.ID)
}

func TestHandleBadNumber(t *testing.T) {
	server := newTestServer(hosttest.NewFakeClient())

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pulls/octoflow/widgets/zero/merged", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
