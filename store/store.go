// Package store は、データの永続化機能を提供します。
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/stsysd/taskboard/model"
)

// Store はプロジェクトとタスクの保存と取得を行うインターフェースです。
// 見つからない場合は model.ErrProjectNotFound / model.ErrTaskNotFound を返します。
type Store interface {
	// ListProjects はタスク件数付きの全プロジェクトを作成日時の降順で取得します。
	ListProjects(ctx context.Context) ([]*model.ProjectSummary, error)
	// GetProject は指定されたIDのプロジェクトをタスク（作成日時の昇順）付きで取得します。
	GetProject(ctx context.Context, id uuid.UUID) (*model.ProjectWithTasks, error)
	// CreateProjects は複数のプロジェクトを1トランザクションで作成し、作成したものを返します。
	CreateProjects(ctx context.Context, projects []*model.Project) ([]*model.Project, error)
	// UpdateProject はパッチを適用し、更新後のプロジェクトを返します。
	UpdateProject(ctx context.Context, id uuid.UUID, patch model.ProjectPatch) (*model.Project, error)
	// DeleteProject はタスク、プロジェクトの順に1トランザクションで削除します。
	DeleteProject(ctx context.Context, id uuid.UUID) error

	// GetTask は指定されたIDのタスクを取得します。
	GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error)
	// CreateTasks は複数のタスクを1トランザクションで作成し、作成したものを返します。
	CreateTasks(ctx context.Context, projectID uuid.UUID, tasks []*model.Task) ([]*model.Task, error)
	// UpdateTask はパッチを適用し、更新後のタスクを返します。
	UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (*model.Task, error)
	// DeleteTask は指定されたIDのタスクを削除します。
	DeleteTask(ctx context.Context, id uuid.UUID) error

	// Reset は全データを削除します（シード用）。
	Reset(ctx context.Context) error
	// Ping はデータベースへの疎通を確認します。
	Ping(ctx context.Context) error
	// Close はストアの接続を閉じます。
	Close() error
}
