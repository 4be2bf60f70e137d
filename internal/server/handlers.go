package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/job-evaluator/internal/db"
	"github.com/jonathan/job-evaluator/internal/export"
	"github.com/jonathan/job-evaluator/internal/generator"
	"github.com/jonathan/job-evaluator/internal/pipeline"
	"github.com/jonathan/job-evaluator/internal/types"
)

// EvaluateRequest is the request body for POST /evaluate. Paths refer to
// documents on the server filesystem.
type EvaluateRequest struct {
	OldDocument  string `json:"old_document"`
	NewDocument  string `json:"new_document"`
	CurrentLevel int    `json:"current_level,omitempty"`
	WithGauge    bool   `json:"with_gauge"`
	WithClassify bool   `json:"with_classify"`
}

// ClassifyRequest is the request body for POST /classify. ContextRunID
// optionally names an earlier evaluation run to reuse as change context.
type ClassifyRequest struct {
	Document     string `json:"document"`
	ContextRunID string `json:"context_run_id,omitempty"`
}

// ListRunsResponse is the response body for GET /runs.
type ListRunsResponse struct {
	Runs  []db.Run `json:"runs"`
	Count int      `json:"count"`
}

// ArtifactResponse is the response body for a single artifact.
type ArtifactResponse struct {
	RunID       string          `json:"run_id"`
	Step        string          `json:"step"`
	Content     json.RawMessage `json:"content,omitempty"`
	TextContent string          `json:"text_content,omitempty"`
}

// handleEvaluate runs the comparison chain synchronously and returns the
// full result.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.OldDocument == "" || req.NewDocument == "" {
		s.errorResponse(w, http.StatusBadRequest, "old_document and new_document are required")
		return
	}

	result, err := s.evaluator.Evaluate(r.Context(), pipeline.EvaluationRequest{
		OldPath:      req.OldDocument,
		NewPath:      req.NewDocument,
		CurrentLevel: req.CurrentLevel,
		WithGauge:    req.WithGauge,
		WithClassify: req.WithClassify,
	})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleClassify classifies a single document, reusing an earlier run's
// comparison and gauge artifacts as change context when one is named.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Document == "" {
		s.errorResponse(w, http.StatusBadRequest, "document is required")
		return
	}
	var contextRunID uuid.UUID
	if req.ContextRunID != "" {
		parsed, err := uuid.Parse(req.ContextRunID)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "invalid context_run_id")
			return
		}
		contextRunID = parsed
	}

	result, err := s.evaluator.Classify(r.Context(), pipeline.ClassifyRequest{
		Path:         req.Document,
		ContextRunID: contextRunID,
	})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleGenerate produces job descriptions from every configured provider.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req types.JobDescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.evaluator.Generate(r.Context(), req)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleListRuns lists recent runs, optionally filtered by mode and status.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filters := db.RunFilters{
		Mode:   r.URL.Query().Get("mode"),
		Status: r.URL.Query().Get("status"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filters.Limit = limit
	}

	runs, err := s.store.ListRuns(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, ListRunsResponse{Runs: runs, Count: len(runs)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}
	step := r.PathValue("step")

	content, err := s.store.GetArtifact(r.Context(), runID, step)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := ArtifactResponse{RunID: runID.String(), Step: step, Content: content}
	if content == nil {
		text, err := s.store.GetTextArtifact(r.Context(), runID, step)
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		if text == "" {
			s.errorResponse(w, http.StatusNotFound, "artifact not found")
			return
		}
		resp.TextContent = text
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

var errReportUnavailable = errors.New("run has no artifacts to report on")

// handleGetReport rebuilds a plain-text report from the run's stored
// artifacts.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "run not found")
		return
	}

	report, err := s.buildReport(r.Context(), run)
	if err != nil {
		if errors.Is(err, errReportUnavailable) {
			s.errorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report))
}

func (s *Server) buildReport(ctx context.Context, run *db.Run) (string, error) {
	switch run.Mode {
	case db.ModeGenerate:
		var genResult generator.Result
		found, err := s.loadArtifact(ctx, run.ID, db.StepGeneration, &genResult)
		if err != nil {
			return "", err
		}
		if !found {
			return "", errReportUnavailable
		}
		return export.FormatGeneration(&genResult), nil

	case db.ModeClassify:
		result := &pipeline.ClassifyResult{RunID: run.ID}
		found, err := s.loadArtifact(ctx, run.ID, db.StepClassification, &result.Classification)
		if err != nil {
			return "", err
		}
		if !found {
			return "", errReportUnavailable
		}
		if _, err := s.loadArtifact(ctx, run.ID, db.StepCostSummary, &result.Cost); err != nil {
			return "", err
		}
		return export.FormatClassification(result), nil

	default:
		result := &pipeline.EvaluationResult{RunID: run.ID}
		found, err := s.loadArtifact(ctx, run.ID, db.StepComparison, &result.Comparison)
		if err != nil {
			return "", err
		}
		if !found {
			return "", errReportUnavailable
		}
		if _, err := s.loadArtifact(ctx, run.ID, db.StepGauge, &result.Gauge); err != nil {
			return "", err
		}
		if _, err := s.loadArtifact(ctx, run.ID, db.StepClassification, &result.Classification); err != nil {
			return "", err
		}
		if _, err := s.loadArtifact(ctx, run.ID, db.StepCostSummary, &result.Cost); err != nil {
			return "", err
		}
		return export.FormatEvaluation(result), nil
	}
}

// loadArtifact unmarshals a stored artifact into out, reporting whether it
// existed.
func (s *Server) loadArtifact(ctx context.Context, runID uuid.UUID, step string, out any) (bool, error) {
	data, err := s.store.GetArtifact(ctx, runID, step)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decoding %s artifact: %w", step, err)
	}
	return true, nil
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "run not found")
		return
	}
	if err := s.store.DeleteRun(r.Context(), runID); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted", "run_id": runID.String()})
}

// parseRunID parses the {id} path segment, writing a 400 on failure.
func (s *Server) parseRunID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run ID")
		return uuid.Nil, false
	}
	return runID, true
}
