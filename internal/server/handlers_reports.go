package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/rendering"
	"github.com/jonathan/ranking-reports/internal/server/middleware"
	"github.com/jonathan/ranking-reports/internal/types"
)

// maxRequestBody bounds POST /reports bodies.
const maxRequestBody = 64 << 10

// JobReportsResponse is the body of GET /reports/job/{jobId}.
type JobReportsResponse struct {
	JobID   string         `json:"job_id"`
	Reports []types.Report `json:"reports"`
}

// handleCreateReport accepts a report request and returns before generation starts.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.GetOwnerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req types.GenerateReportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, &ErrBadRequest{Message: "invalid request body: " + err.Error()})
		return
	}

	report, err := s.service.Request(r.Context(), ownerID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Location", "/reports/"+report.ID.String())
	s.jsonResponse(w, http.StatusAccepted, types.GenerateReportResponse{
		ReportID: report.ID.String(),
		State:    report.State,
	})
}

// handleGetReport returns a report owned by the caller.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.ownedReport(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleListJobReports lists every report of a job owned by the caller.
func (s *Server) handleListJobReports(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.GetOwnerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "jobId"))
	if err != nil {
		s.writeError(w, &ErrBadRequest{Message: "invalid job id"})
		return
	}

	job, err := s.jobs.FindJob(r.Context(), jobID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if job.OwnerID != ownerID {
		s.writeError(w, &types.UnauthorizedError{Message: "job belongs to another owner"})
		return
	}

	list, err := s.service.Store().ListByJob(r.Context(), jobID)
	if err != nil {
		s.writeError(w, fmt.Errorf("failed to list reports: %w", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, JobReportsResponse{JobID: jobID.String(), Reports: list})
}

// handleReportArtifact streams the rendered document of a completed report.
func (s *Server) handleReportArtifact(w http.ResponseWriter, r *http.Request) {
	report, ok := s.ownedReport(w, r)
	if !ok {
		return
	}
	if report.State != types.ReportCompleted || report.ArtifactLocation == "" {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("report %s has no artifact (state %s)", report.ID, report.State))
		return
	}

	f, err := os.Open(report.ArtifactLocation)
	if err != nil {
		if os.IsNotExist(err) {
			s.errorResponse(w, http.StatusNotFound, "artifact file is missing")
			return
		}
		s.writeError(w, fmt.Errorf("failed to open artifact: %w", err))
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		s.writeError(w, fmt.Errorf("failed to stat artifact: %w", err))
		return
	}

	w.Header().Set("Content-Type", rendering.ContentType(report.ArtifactFormat))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(report.ArtifactLocation)))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// ownedReport loads the {id} report. Reports of other owners are reported as
// not found so their existence is not disclosed.
func (s *Server) ownedReport(w http.ResponseWriter, r *http.Request) (*types.Report, bool) {
	ownerID, err := middleware.GetOwnerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, &ErrBadRequest{Message: "invalid report id"})
		return nil, false
	}

	report, err := s.service.Store().Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	if report.RequestedBy != ownerID {
		s.writeError(w, &types.NotFoundError{Resource: "report", ID: id.String()})
		return nil, false
	}
	return report, true
}
