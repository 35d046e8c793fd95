package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/stsysd/taskboard/model"
)

// CreateTasksParams represents parameters for batch task creation.
type CreateTasksParams struct {
	ProjectID uuid.UUID
	Tasks     []model.TaskInput
}

// NewCreateTasksParams creates parameters for task creation from HTTP request.
func NewCreateTasksParams(r *http.Request) (*CreateTasksParams, error) {
	projectID, err := parsePathID(r, "project_id")
	if err != nil {
		return nil, err
	}
	var requestBody struct {
		Tasks []model.TaskInput `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return &CreateTasksParams{ProjectID: projectID, Tasks: requestBody.Tasks}, nil
}

// UpdateTaskParams represents parameters for updating a task.
type UpdateTaskParams struct {
	TaskID uuid.UUID
	Patch  model.TaskPatch
}

// NewUpdateTaskParams creates parameters for task update from HTTP request.
func NewUpdateTaskParams(r *http.Request) (*UpdateTaskParams, error) {
	taskID, err := parsePathID(r, "task_id")
	if err != nil {
		return nil, err
	}
	var patch model.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return &UpdateTaskParams{TaskID: taskID, Patch: patch}, nil
}

// DeleteTaskParams represents parameters for deleting a task.
type DeleteTaskParams struct {
	TaskID uuid.UUID
}

// NewDeleteTaskParams creates parameters for task deletion from HTTP request.
func NewDeleteTaskParams(r *http.Request) (*DeleteTaskParams, error) {
	taskID, err := parsePathID(r, "task_id")
	if err != nil {
		return nil, err
	}
	return &DeleteTaskParams{TaskID: taskID}, nil
}

// handleCreateTasks は未完了プロジェクトにタスクを一括作成するハンドラーです。
func (s *Server) handleCreateTasks(w http.ResponseWriter, r *http.Request) {
	params, err := NewCreateTasksParams(r)
	if errors.Is(err, errInvalidBody) {
		// ボディより先にプロジェクトの存在と状態を検査する
		projectID, _ := parsePathID(r, "project_id")
		if err := s.service.CheckTaskTarget(r.Context(), projectID); err != nil {
			s.writeServiceError(w, r, err, "Failed to create tasks")
			return
		}
	}
	if err != nil {
		s.writeParamsError(w, err, "Project not found")
		return
	}

	created, err := s.service.CreateTasks(r.Context(), params.ProjectID, params.Tasks)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to create tasks")
		return
	}
	writeJSON(w, s.logger, http.StatusCreated, created)
}

// handleUpdateTask はタスクを部分更新するハンドラーです。
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	params, err := NewUpdateTaskParams(r)
	if err != nil {
		s.writeParamsError(w, err, "Task not found")
		return
	}

	updated, err := s.service.UpdateTask(r.Context(), params.TaskID, params.Patch)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to update task")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, updated)
}

// handleDeleteTask はタスクを削除するハンドラーです。
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	params, err := NewDeleteTaskParams(r)
	if err != nil {
		s.writeParamsError(w, err, "Task not found")
		return
	}

	if err := s.service.DeleteTask(r.Context(), params.TaskID); err != nil {
		s.writeServiceError(w, r, err, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
