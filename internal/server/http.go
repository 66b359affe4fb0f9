package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alfredjeanlab/standup/internal/observability"
	"github.com/alfredjeanlab/standup/internal/presence"
)

// maxBodyBytes bounds the query body, which is a single integer.
const maxBodyBytes = 1 << 10

// activityResponse is the success envelope of POST /v1/activity.
type activityResponse struct {
	Success  bool                `json:"success"`
	Activity map[string][]string `json:"activity"`
}

// membersResponse is the success envelope of GET /v1/members.
type membersResponse struct {
	Success bool              `json:"success"`
	Members []presence.Status `json:"members"`
}

// errorResponse is the failure envelope shared by every route.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health and
// GET /metrics) must include a valid Authorization: Bearer <token> header.
func (s *ActivityServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/activity", s.handleActivity)
	mux.HandleFunc("GET /v1/members", s.handleMembers)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return RecoveryMiddleware(s.logger, LoggingMiddleware(s.logger, AuthMiddleware(authToken, mux)))
}

// handleActivity handles POST /v1/activity. The body is a JSON integer: the
// start of the 24-hour window in UNIX seconds.
func (s *ActivityServer) handleActivity(w http.ResponseWriter, r *http.Request) {
	since, err := decodeSince(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		observability.RecordActivityQuery(false)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	activity, err := s.activity.Activity(r.Context(), since)
	if err != nil {
		observability.RecordActivityQuery(false)
		s.logger.Error("activity query failed", "since", since, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	observability.RecordActivityQuery(true)
	if activity == nil {
		activity = map[string][]string{}
	}
	writeJSON(w, http.StatusOK, activityResponse{Success: true, Activity: activity})
}

func decodeSince(r io.Reader) (int64, error) {
	var since *int64
	dec := json.NewDecoder(r)
	if err := dec.Decode(&since); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, inputError("request body must be a UNIX timestamp")
		}
		return 0, inputError("invalid timestamp: " + err.Error())
	}
	if since == nil {
		return 0, inputError("request body must be a UNIX timestamp")
	}
	if dec.More() {
		return 0, inputError("invalid timestamp: trailing data")
	}
	return *since, nil
}

// handleMembers handles GET /v1/members.
func (s *ActivityServer) handleMembers(w http.ResponseWriter, _ *http.Request) {
	if s.roster == nil {
		writeError(w, http.StatusNotFound, "member roster not available: worker is not running")
		return
	}
	writeJSON(w, http.StatusOK, membersResponse{Success: true, Members: s.roster.Roster()})
}

// handleHealth handles GET /v1/health.
func (s *ActivityServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}
