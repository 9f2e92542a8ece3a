package api

import (
	"errors"
	"net/http"

	"github.com/nippo-hq/nippo/pkg/httputil"
	"github.com/nippo-hq/nippo/pkg/middleware"
	"github.com/nippo-hq/nippo/pkg/storage"
)

// listReports handles GET /api/projects/{id}/reports
func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	reports, err := s.store.ListReportsForProject(r.Context(), projectID)
	if err != nil {
		s.logger.WithError(err).Error("failed to list reports")
		httputil.WriteInternalError(w, "failed to load reports")
		return
	}
	httputil.WriteSuccess(w, reports)
}

// createReport handles POST /api/projects/{id}/reports. The report is
// attributed to the acting session's user, who need not be the project's
// creator.
func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		httputil.WriteUnauthorized(w, "login required")
		return
	}

	projectID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Date               string `json:"date"`
		Content            string `json:"content"`
		ProgressPercentage int    `json:"progress_percentage"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	reportID, err := s.store.CreateReport(r.Context(), projectID, identity.UserID,
		req.Date, req.Content, req.ProgressPercentage)
	if errors.Is(err, storage.ErrValidation) {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to create report")
		httputil.WriteInternalError(w, "failed to create report")
		return
	}

	httputil.WriteCreated(w, map[string]interface{}{
		"success":  true,
		"message":  "report posted",
		"reportId": reportID,
	})
}
