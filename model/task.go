// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"time"

	"github.com/google/uuid"
)

// Task はプロジェクトに属するタスクを表すモデルです。
type Task struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`     // タスク名
	Completed bool      `json:"completed"` // 完了フラグ
	ProjectID uuid.UUID `json:"projectId"` // 所属プロジェクトのID（変更不可）
	CreatedAt time.Time `json:"createdAt"` // 作成日時
}

// NewTask はTaskの新しいインスタンスを作成します。
func NewTask(projectID uuid.UUID, title string, createdAt time.Time) (*Task, error) {
	title, err := NormalizeText("title", title)
	if err != nil {
		return nil, err
	}
	task := &Task{
		ID:        NewID(),
		Title:     title,
		Completed: false,
		ProjectID: projectID,
		CreatedAt: Timestamp(createdAt),
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// LoadTask は既存のTaskインスタンスを作成します。
func LoadTask(id uuid.UUID, title string, completed bool, projectID uuid.UUID, createdAt time.Time) (*Task, error) {
	task := &Task{
		ID:        id,
		Title:     title,
		Completed: completed,
		ProjectID: projectID,
		CreatedAt: createdAt,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate はタスクのデータバリデーションを行います。
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id is required")
	}
	if t.Title == "" {
		return NewValidationError("title is required")
	}
	if t.ProjectID == uuid.Nil {
		return NewValidationError("projectId is required")
	}
	if t.CreatedAt.IsZero() {
		return NewValidationError("createdAt is required")
	}
	return nil
}

// TaskPatch はタスクの部分更新内容です。
type TaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// IsEmpty は更新対象のフィールドが一つもないかを返します。
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil
}

// Apply はパッチをタスクに適用します。
func (p TaskPatch) Apply(task *Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Completed != nil {
		task.Completed = *p.Completed
	}
}
