// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"time"

	"github.com/google/uuid"
)

// Project はプロジェクトエンティティを表すモデルです。
type Project struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`      // プロジェクト名
	Completed bool      `json:"completed"` // 完了フラグ
	CreatedAt time.Time `json:"createdAt"` // 作成日時
}

// NewProject は新しいProjectインスタンスを作成します。
// 名前は前後の空白を除去してから検証し、completedは常にfalseで作成されます。
func NewProject(name string, createdAt time.Time) (*Project, error) {
	name, err := NormalizeText("name", name)
	if err != nil {
		return nil, err
	}
	p := &Project{
		ID:        NewID(),
		Name:      name,
		Completed: false,
		CreatedAt: Timestamp(createdAt),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadProject は既存のProjectインスタンスを作成します。
func LoadProject(id uuid.UUID, name string, completed bool, createdAt time.Time) (*Project, error) {
	p := &Project{
		ID:        id,
		Name:      name,
		Completed: completed,
		CreatedAt: createdAt,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate はプロジェクトのデータバリデーションを行います。
func (p *Project) Validate() error {
	if p.ID == uuid.Nil {
		return NewValidationError("id is required")
	}
	if p.Name == "" {
		return NewValidationError("name is required")
	}
	if p.CreatedAt.IsZero() {
		return NewValidationError("createdAt is required")
	}
	return nil
}

// TaskCount は一覧表示用のタスク件数です。
type TaskCount struct {
	Tasks int `json:"tasks"`
}

// ProjectSummary はタスク件数付きのプロジェクトです。
type ProjectSummary struct {
	Project
	Count TaskCount `json:"_count"`
}

// ProjectWithTasks はタスク一覧を含むプロジェクトです。
type ProjectWithTasks struct {
	Project
	Tasks []*Task `json:"tasks"`
}

// Clone はタスクを含めたディープコピーを返します。
func (p *ProjectWithTasks) Clone() *ProjectWithTasks {
	if p == nil {
		return nil
	}
	c := &ProjectWithTasks{Project: p.Project, Tasks: make([]*Task, len(p.Tasks))}
	for i, t := range p.Tasks {
		task := *t
		c.Tasks[i] = &task
	}
	return c
}

// FindTask は指定IDのタスクを返します。見つからない場合はnilです。
func (p *ProjectWithTasks) FindTask(id uuid.UUID) *Task {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// ProjectPatch はプロジェクトの部分更新内容です。nilのフィールドは更新しません。
type ProjectPatch struct {
	Name      *string `json:"name,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// IsEmpty は更新対象のフィールドが一つもないかを返します。
func (p ProjectPatch) IsEmpty() bool {
	return p.Name == nil && p.Completed == nil
}

// Apply はパッチをプロジェクトに適用します。
func (p ProjectPatch) Apply(project *Project) {
	if p.Name != nil {
		project.Name = *p.Name
	}
	if p.Completed != nil {
		project.Completed = *p.Completed
	}
}
