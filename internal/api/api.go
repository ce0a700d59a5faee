package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/octoflow/mergecoord/internal/engine"
	"github.com/octoflow/mergecoord/internal/host"
	"github.com/octoflow/mergecoord/internal/host/model"
	"github.com/octoflow/mergecoord/internal/serializer"
)

// Server exposes the engine's operations over HTTP for callers that
// coordinate many pull requests concurrently. Every handler is one engine
// invocation; nothing is shared between requests except the host client and
// its quota tracker.
type Server struct {
	engine *engine.Engine
	router *mux.Router
	log    *logrus.Logger
}

func NewServer(e *engine.Engine, log *logrus.Logger) *Server {
	s := &Server{engine: e, router: mux.NewRouter(), log: log}
	s.initializeAPI()
	return s
}

func (s *Server) initializeAPI() {
	r := s.router.PathPrefix("/api/v1/pulls/{owner}/{repo}/{number}").Subrouter()
	r.HandleFunc("/merged", s.handleCheckMerged).Methods(http.MethodGet)
	r.HandleFunc("/readiness", s.handleCheckReadiness).Methods(http.MethodGet)
	r.HandleFunc("/verify", s.handleVerifyCompletion).Methods(http.MethodGet)
	r.HandleFunc("/merge", s.handleExecuteMerge).Methods(http.MethodPost)
	r.HandleFunc("/rollback", s.handleRollback).Methods(http.MethodPost)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func handleFromRequest(r *http.Request) (model.PullRequestHandle, error) {
	vars := mux.Vars(r)
	number, err := strconv.Atoi(vars["number"])
	if err != nil || number <= 0 {
		return model.PullRequestHandle{}, errors.Wrap(engine.ErrInvalidRequest, "pull request number must be a positive integer")
	}
	return model.PullRequestHandle{Owner: vars["owner"], Repo: vars["repo"], Number: number}, nil
}

func (s *Server) handleCheckMerged(w http.ResponseWriter, r *http.Request) {
	handle, err := handleFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	state, err := s.engine.CheckMerged(r.Context(), handle)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, serializer.FromState("check-merged", state))
}

func (s *Server) handleCheckReadiness(w http.ResponseWriter, r *http.Request) {
	handle, err := handleFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	req := engine.MergeRequest{
		Strategy:                  engine.StrategyMergeCommit,
		OverrideFailingChecks:     r.URL.Query().Get("override_failing_checks") == "true",
		OverrideUnresolvedThreads: r.URL.Query().Get("override_unresolved_threads") == "true",
	}

	report, err := s.engine.CheckReadiness(r.Context(), handle, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, serializer.FromReadiness(report))
}

func (s *Server) handleVerifyCompletion(w http.ResponseWriter, r *http.Request) {
	handle, err := handleFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	state, err := s.engine.VerifyCompletion(r.Context(), handle)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, serializer.FromState("verify-completion", state))
}

func (s *Server) handleExecuteMerge(w http.ResponseWriter, r *http.Request) {
	handle, err := handleFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req engine.MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(engine.ErrInvalidRequest, "could not decode merge request body"))
		return
	}
	if req.Strategy == "" {
		req.Strategy = engine.StrategyMergeCommit
	}

	result, err := s.engine.Execute(r.Context(), handle, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, serializer.FromMergeResult(result, ""))
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	handle, err := handleFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req engine.RollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(engine.ErrInvalidRequest, "could not decode rollback request body"))
		return
	}

	result, err := s.engine.Rollback(r.Context(), handle, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, serializer.FromRollback(result))
}

// writeResult attaches the last observed rate-limit quota before encoding.
func (s *Server) writeResult(w http.ResponseWriter, result *serializer.OperationResult) {
	if remaining, ok := s.engine.QuotaRemaining(); ok {
		result.WithRateRemaining(remaining)
	}
	s.writeJSON(w, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(err).Warn("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if _, err = w.Write(b); err != nil {
		s.log.WithError(err).Warn("failed to write JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	apiErr := &serializer.APIErrorResponse{
		ID:         errorID(err),
		Message:    err.Error(),
		StatusCode: statusCode(err),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	if encodeErr := json.NewEncoder(w).Encode(apiErr); encodeErr != nil {
		s.log.WithError(encodeErr).Warn("failed to write API error")
	}
}

func errorID(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, engine.ErrApprovalRequired):
		return "approval_required"
	case errors.Is(err, engine.ErrReadinessIndeterminate):
		return "readiness_indeterminate"
	case errors.Is(err, host.ErrNotFound):
		return "not_found"
	case errors.Is(err, host.ErrAuthFailed):
		return "auth_failed"
	case errors.Is(err, host.ErrHeadChanged):
		return "head_changed"
	case errors.Is(err, host.ErrNotMergeable):
		return "not_mergeable"
	case errors.Is(err, host.ErrRateLimitCritical):
		return "rate_limit_critical"
	default:
		return "host_unavailable"
	}
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrApprovalRequired):
		return http.StatusForbidden
	case errors.Is(err, host.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, host.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, host.ErrHeadChanged), errors.Is(err, host.ErrNotMergeable):
		return http.StatusConflict
	case errors.Is(err, host.ErrRateLimitCritical):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrReadinessIndeterminate):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
