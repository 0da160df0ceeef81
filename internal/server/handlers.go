package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jonathan/trustcheck/internal/history"
	"github.com/jonathan/trustcheck/internal/pipeline"
	"github.com/jonathan/trustcheck/internal/schemas"
	"github.com/jonathan/trustcheck/internal/types"
)

// maxRequestBody bounds POST /verify bodies.
const maxRequestBody = 1 << 20

// HistoryPage is the response of GET /history.
type HistoryPage struct {
	Verifications []types.VerificationResult `json:"verifications"`
	Page          int                        `json:"page"`
	TotalPages    int                        `json:"totalPages"`
	Total         int                        `json:"total"`
}

// decodeVerificationRequest reads and validates the request body.
func decodeVerificationRequest(w http.ResponseWriter, r *http.Request) (types.VerificationRequest, bool) {
	var req types.VerificationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return req, false
	}
	if err := req.Validate(); err != nil {
		errorResponse(w, HTTPStatus(err), validationMessage(err))
		return req, false
	}
	return req, true
}

// handleVerify runs a verification and returns the result
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeVerificationRequest(w, r)
	if !ok {
		return
	}

	result, err := s.engine.VerifyWithProgress(r.Context(), req, nil)
	if err != nil {
		s.logger.Warn("[Verify] verification aborted", slog.String("error", err.Error()))
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.checkSchema(result)
	jsonResponse(w, http.StatusOK, result)
}

// handleVerifyStream runs a verification and streams progress over SSE
func (s *Server) handleVerifyStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeVerificationRequest(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.engine.VerifyWithProgress(r.Context(), req, func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("step", event); err != nil {
			s.logger.Debug("[Verify] failed to write progress event", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		s.logger.Warn("[Verify] streamed verification aborted", slog.String("error", err.Error()))
		sse.WriteError(err.Error())
		return
	}

	s.checkSchema(result)
	sse.WriteComplete(result)
}

// handleHistoryList returns a filtered page of past results
func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			verr := &ErrValidation{Field: "page", Message: "must be a positive integer"}
			errorResponse(w, HTTPStatus(verr), verr.Error())
			return
		}
		page = n
	}

	results, ok := s.listHistory(w, r)
	if !ok {
		return
	}

	filtered := history.Filter(results, r.URL.Query().Get("q"))
	items, pages := history.Page(filtered, page, history.PageSize)
	jsonResponse(w, http.StatusOK, HistoryPage{
		Verifications: items,
		Page:          page,
		TotalPages:    pages,
		Total:         len(filtered),
	})
}

// handleHistoryStats returns aggregate statistics over the stored results
func (s *Server) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	results, ok := s.listHistory(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, history.ComputeStats(results, s.now()))
}

// handleHistoryExport returns the stored results as a downloadable document
func (s *Server) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	results, ok := s.listHistory(w, r)
	if !ok {
		return
	}

	now := s.now()
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="verification-history-%s.json"`, now.UTC().Format("2006-01-02")))
	jsonResponse(w, http.StatusOK, history.Export(results, now))
}

// handleHistoryClear deletes every stored result. Admin only.
func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Clear(r.Context()); err != nil {
		s.logger.Error("[History] failed to clear", slog.String("error", err.Error()))
		errorResponse(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}
	s.logger.Info("[History] cleared by admin", slog.String("remote", r.RemoteAddr))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) ([]types.VerificationResult, bool) {
	results, err := s.history.List(r.Context())
	if err != nil {
		s.logger.Error("[History] failed to list", slog.String("error", err.Error()))
		errorResponse(w, http.StatusInternalServerError, "Failed to load history")
		return nil, false
	}
	return results, true
}

// checkSchema logs results that do not match the published schema.
func (s *Server) checkSchema(result *types.VerificationResult) {
	if !s.validateResponses {
		return
	}
	if err := schemas.ValidateResult(result); err != nil {
		s.logger.Error("[Verify] result does not match schema",
			slog.String("id", result.ID),
			slog.String("error", err.Error()))
	}
}
