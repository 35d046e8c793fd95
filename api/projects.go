package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/stsysd/taskboard/model"
)

// errInvalidID はパスのIDが解釈できないことを表します。存在しないIDと同じく404になります。
var errInvalidID = errors.New("invalid id")

// errInvalidBody はリクエストボディがJSONとして解釈できないことを表します。
var errInvalidBody = errors.New("invalid request body")

func parsePathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := model.ParseID(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errInvalidID, err)
	}
	return id, nil
}

// writeParamsError はパラメータ解析のエラーを返却します。
func (s *Server) writeParamsError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, errInvalidID) {
		s.writeJSONError(w, notFound, http.StatusNotFound)
		return
	}
	if errors.Is(err, errInvalidBody) {
		// デコーダのメッセージはログにのみ残す
		s.logger.WithError(err).Warn("rejected request body")
		s.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.writeJSONError(w, err.Error(), http.StatusBadRequest)
}

// ProjectIDParams represents a request addressing one project.
type ProjectIDParams struct {
	ProjectID uuid.UUID
}

// NewProjectIDParams parses the project id from the request path.
func NewProjectIDParams(r *http.Request) (*ProjectIDParams, error) {
	id, err := parsePathID(r, "project_id")
	if err != nil {
		return nil, err
	}
	return &ProjectIDParams{ProjectID: id}, nil
}

// CreateProjectsParams represents parameters for batch project creation.
type CreateProjectsParams struct {
	Projects []model.ProjectInput
}

// NewCreateProjectsParams creates parameters for project creation from HTTP request.
func NewCreateProjectsParams(r *http.Request) (*CreateProjectsParams, error) {
	var requestBody struct {
		Projects []model.ProjectInput `json:"projects"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return &CreateProjectsParams{Projects: requestBody.Projects}, nil
}

// UpdateProjectParams represents parameters for updating a project.
type UpdateProjectParams struct {
	ProjectID uuid.UUID
	Patch     model.ProjectPatch
}

// NewUpdateProjectParams creates parameters for project update from HTTP request.
func NewUpdateProjectParams(r *http.Request) (*UpdateProjectParams, error) {
	id, err := parsePathID(r, "project_id")
	if err != nil {
		return nil, err
	}
	var patch model.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return &UpdateProjectParams{ProjectID: id, Patch: patch}, nil
}

// handleListProjects はプロジェクト一覧を返すハンドラーです。
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.service.ListProjects(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch projects")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, projects)
}

// handleGetProject はタスク付きのプロジェクトを返すハンドラーです。
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	params, err := NewProjectIDParams(r)
	if err != nil {
		s.writeParamsError(w, err, "Project not found")
		return
	}

	project, err := s.service.GetProject(r.Context(), params.ProjectID)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch project")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, project)
}

// handleCreateProjects はプロジェクトを一括作成するハンドラーです。
func (s *Server) handleCreateProjects(w http.ResponseWriter, r *http.Request) {
	params, err := NewCreateProjectsParams(r)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := s.service.CreateProjects(r.Context(), params.Projects)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to create projects")
		return
	}
	writeJSON(w, s.logger, http.StatusCreated, created)
}

// handleUpdateProject はプロジェクトを部分更新するハンドラーです。
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	params, err := NewUpdateProjectParams(r)
	if err != nil {
		s.writeParamsError(w, err, "Project not found")
		return
	}

	updated, err := s.service.UpdateProject(r.Context(), params.ProjectID, params.Patch)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to update project")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, updated)
}

// handleDeleteProject は完了済みプロジェクトをタスクごと削除するハンドラーです。
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	params, err := NewProjectIDParams(r)
	if err != nil {
		s.writeParamsError(w, err, "Project not found")
		return
	}

	if err := s.service.DeleteProject(r.Context(), params.ProjectID); err != nil {
		s.writeServiceError(w, r, err, "Failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
