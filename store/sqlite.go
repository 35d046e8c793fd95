package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/stsysd/taskboard/db"
	"github.com/stsysd/taskboard/model"
)

// timeLayout はSQLiteに保存する日時の形式です。固定長なので文字列比較で時刻順に並びます。
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// SQLiteStore はSQLiteを使用したStoreの実装です。
type SQLiteStore struct {
	conn    *sql.DB
	queries *db.Queries
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore は新しいSQLiteStoreを作成します。
// migrate にはスキーマを準備する関数（通常は db.Migrate）を渡します。
func NewSQLiteStore(dataDir string, migrate func(*sql.DB) error) (*SQLiteStore, error) {
	// データディレクトリの作成（存在しない場合）
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "taskboard.db")
	dsn := "file:" + dbPath + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}
	// 単一接続にして書き込みを直列化
	conn.SetMaxOpenConns(1)

	if migrate != nil {
		if err := migrate(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	return &SQLiteStore{
		conn:    conn,
		queries: db.New(conn),
	}, nil
}

// ListProjects はタスク件数付きの全プロジェクトを取得します。
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*model.ProjectSummary, error) {
	rows, err := s.queries.ListProjectsWithTaskCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	summaries := make([]*model.ProjectSummary, 0, len(rows))
	for _, row := range rows {
		project, err := toProject(db.Project{
			ID:        row.ID,
			Name:      row.Name,
			Completed: row.Completed,
			CreatedAt: row.CreatedAt,
		})
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &model.ProjectSummary{
			Project: *project,
			Count:   model.TaskCount{Tasks: int(row.TaskCount)},
		})
	}
	return summaries, nil
}

// GetProject はプロジェクトとそのタスクを取得します。
func (s *SQLiteStore) GetProject(ctx context.Context, id uuid.UUID) (*model.ProjectWithTasks, error) {
	return getProjectWithTasks(ctx, s.queries, id)
}

func getProjectWithTasks(ctx context.Context, q *db.Queries, id uuid.UUID) (*model.ProjectWithTasks, error) {
	row, err := q.GetProject(ctx, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	project, err := toProject(row)
	if err != nil {
		return nil, err
	}

	taskRows, err := q.ListTasksByProject(ctx, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks := make([]*model.Task, 0, len(taskRows))
	for _, tr := range taskRows {
		task, err := toTask(tr)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return &model.ProjectWithTasks{Project: *project, Tasks: tasks}, nil
}

// CreateProjects は複数のプロジェクトを1トランザクションで作成します。
func (s *SQLiteStore) CreateProjects(ctx context.Context, projects []*model.Project) ([]*model.Project, error) {
	err := s.withTx(ctx, func(q *db.Queries) error {
		for _, p := range projects {
			if err := p.Validate(); err != nil {
				return err
			}
			if err := q.CreateProject(ctx, db.CreateProjectParams{
				ID:        p.ID.String(),
				Name:      p.Name,
				Completed: p.Completed,
				CreatedAt: formatTime(p.CreatedAt),
			}); err != nil {
				return fmt.Errorf("failed to insert project: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProject はプロジェクトにパッチを適用します。
func (s *SQLiteStore) UpdateProject(ctx context.Context, id uuid.UUID, patch model.ProjectPatch) (*model.Project, error) {
	var updated *model.Project
	err := s.withTx(ctx, func(q *db.Queries) error {
		result, err := q.UpdateProject(ctx, db.UpdateProjectParams{
			Name:      nullString(patch.Name),
			Completed: nullBool(patch.Completed),
			ID:        id.String(),
		})
		if err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		if err := requireRow(result, model.ErrProjectNotFound); err != nil {
			return err
		}
		row, err := q.GetProject(ctx, id.String())
		if err != nil {
			return fmt.Errorf("failed to reload project: %w", err)
		}
		updated, err = toProject(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProject はタスクを削除してからプロジェクトを削除します。
func (s *SQLiteStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return s.withTx(ctx, func(q *db.Queries) error {
		if err := q.DeleteTasksByProject(ctx, id.String()); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		result, err := q.DeleteProject(ctx, id.String())
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return requireRow(result, model.ErrProjectNotFound)
	})
}

// GetTask はタスクを取得します。
func (s *SQLiteStore) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	row, err := s.queries.GetTask(ctx, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return toTask(row)
}

// CreateTasks は複数のタスクを1トランザクションで作成します。
func (s *SQLiteStore) CreateTasks(ctx context.Context, projectID uuid.UUID, tasks []*model.Task) ([]*model.Task, error) {
	err := s.withTx(ctx, func(q *db.Queries) error {
		if _, err := q.GetProject(ctx, projectID.String()); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrProjectNotFound
			}
			return fmt.Errorf("failed to get project: %w", err)
		}
		for _, t := range tasks {
			if t.ProjectID != projectID {
				return model.NewValidationError("task belongs to another project")
			}
			if err := t.Validate(); err != nil {
				return err
			}
			if err := q.CreateTask(ctx, db.CreateTaskParams{
				ID:        t.ID.String(),
				Title:     t.Title,
				Completed: t.Completed,
				ProjectID: projectID.String(),
				CreatedAt: formatTime(t.CreatedAt),
			}); err != nil {
				return fmt.Errorf("failed to insert task: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTask はタスクにパッチを適用します。
func (s *SQLiteStore) UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (*model.Task, error) {
	var updated *model.Task
	err := s.withTx(ctx, func(q *db.Queries) error {
		result, err := q.UpdateTask(ctx, db.UpdateTaskParams{
			Title:     nullString(patch.Title),
			Completed: nullBool(patch.Completed),
			ID:        id.String(),
		})
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if err := requireRow(result, model.ErrTaskNotFound); err != nil {
			return err
		}
		row, err := q.GetTask(ctx, id.String())
		if err != nil {
			return fmt.Errorf("failed to reload task: %w", err)
		}
		updated, err = toTask(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask はタスクを削除します。
func (s *SQLiteStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	result, err := s.queries.DeleteTask(ctx, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireRow(result, model.ErrTaskNotFound)
}

// Reset は全てのタスクとプロジェクトを削除します。
func (s *SQLiteStore) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(q *db.Queries) error {
		if err := q.DeleteAllTasks(ctx); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		if err := q.DeleteAllProjects(ctx); err != nil {
			return fmt.Errorf("failed to delete projects: %w", err)
		}
		return nil
	})
}

// Ping はデータベースへの疎通を確認します。
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close はデータベース接続を閉じます。
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// withTx はトランザクション内で fn を実行します。fn がエラーを返した場合はロールバックします。
func (s *SQLiteStore) withTx(ctx context.Context, fn func(q *db.Queries) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			tx.Rollback() // コミット済みの場合はnilになっている
		}
	}()

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil
	return nil
}

func requireRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func toProject(row db.Project) (*model.Project, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid project id in database: %w", err)
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	return model.LoadProject(id, row.Name, row.Completed, createdAt)
}

func toTask(row db.Task) (*model.Task, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid task id in database: %w", err)
	}
	projectID, err := uuid.Parse(row.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid project id in database: %w", err)
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	return model.LoadTask(id, row.Title, row.Completed, projectID, createdAt)
}

func formatTime(t time.Time) string {
	return model.Timestamp(t).Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp in database: %w", err)
	}
	return t.UTC(), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
