package api

import (
	"errors"
	"net/http"

	"github.com/nippo-hq/nippo/pkg/httputil"
	"github.com/nippo-hq/nippo/pkg/middleware"
	"github.com/nippo-hq/nippo/pkg/storage"
)

// listProjects handles GET /api/projects
func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list projects")
		httputil.WriteInternalError(w, "failed to load projects")
		return
	}
	httputil.WriteSuccess(w, projects)
}

// createProject handles POST /api/projects
func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		httputil.WriteUnauthorized(w, "login required")
		return
	}

	var req struct {
		Name        string                `json:"name"`
		Description string                `json:"description"`
		Status      storage.ProjectStatus `json:"status"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	projectID, err := s.store.CreateProject(r.Context(), req.Name, req.Description, req.Status, identity.UserID)
	if errors.Is(err, storage.ErrValidation) {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to create project")
		httputil.WriteInternalError(w, "failed to create project")
		return
	}

	httputil.WriteCreated(w, map[string]interface{}{
		"success":   true,
		"message":   "project created",
		"projectId": projectID,
	})
}

// updateProject handles PUT /api/projects/{id}.
//
// Updates are deliberately not restricted to the project's creator: any
// authenticated user may edit any project, matching how report authorship
// is open to non-creators.
func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Name        string                `json:"name"`
		Description string                `json:"description"`
		Status      storage.ProjectStatus `json:"status"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	err := s.store.UpdateProject(r.Context(), projectID, req.Name, req.Description, req.Status)
	if errors.Is(err, storage.ErrValidation) {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFoundError(w, "project not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to update project")
		httputil.WriteInternalError(w, "failed to update project")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"success": true,
		"message": "project updated",
	})
}
