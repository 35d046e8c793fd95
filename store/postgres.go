package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/stsysd/taskboard/model"
)

// PostgresStore はPostgreSQL（pgx）を使用したStoreの実装です。
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore は接続プールを作成し、migrate でスキーマを準備します。
// migrate には通常 db.MigratePostgres を渡します。
func NewPostgresStore(ctx context.Context, dsn string, migrate func(*sql.DB) error) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	if migrate != nil {
		conn := stdlib.OpenDBFromPool(pool)
		err := migrate(conn)
		conn.Close()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	return &PostgresStore{pool: pool}, nil
}

const pgListProjects = `
SELECT p.id, p.name, p.completed, p.created_at, COUNT(t.id)
FROM projects p
LEFT JOIN tasks t ON t.project_id = p.id
GROUP BY p.id
ORDER BY p.created_at DESC, p.id DESC`

// ListProjects はタスク件数付きの全プロジェクトを取得します。
func (s *PostgresStore) ListProjects(ctx context.Context) ([]*model.ProjectSummary, error) {
	rows, err := s.pool.Query(ctx, pgListProjects)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.ProjectSummary, error) {
		var (
			p     model.Project
			count int64
		)
		if err := row.Scan(&p.ID, &p.Name, &p.Completed, &p.CreatedAt, &count); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		return &model.ProjectSummary{Project: p, Count: model.TaskCount{Tasks: int(count)}}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan projects: %w", err)
	}
	return summaries, nil
}

// pgQuerier は pgxpool.Pool と pgx.Tx の共通部分です。
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const pgGetProject = `SELECT id, name, completed, created_at FROM projects WHERE id = $1`

const pgListTasks = `
SELECT id, title, completed, project_id, created_at
FROM tasks
WHERE project_id = $1
ORDER BY created_at ASC, id ASC`

// GetProject はプロジェクトとそのタスクを取得します。
func (s *PostgresStore) GetProject(ctx context.Context, id uuid.UUID) (*model.ProjectWithTasks, error) {
	project, err := pgFetchProject(ctx, s.pool, pgGetProject, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, pgListTasks, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Task, error) {
		return scanTask(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan tasks: %w", err)
	}
	return &model.ProjectWithTasks{Project: *project, Tasks: tasks}, nil
}

const pgInsertProject = `INSERT INTO projects (id, name, completed, created_at) VALUES ($1, $2, $3, $4)`

// CreateProjects は pgx.Batch で複数のプロジェクトを1トランザクションで作成します。
func (s *PostgresStore) CreateProjects(ctx context.Context, projects []*model.Project) ([]*model.Project, error) {
	batch := &pgx.Batch{}
	for _, p := range projects {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		batch.Queue(pgInsertProject, p.ID, p.Name, p.Completed, p.CreatedAt)
	}
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		return sendBatch(ctx, tx, batch, "project")
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

const pgUpdateProject = `
UPDATE projects
SET name = COALESCE($1, name), completed = COALESCE($2, completed)
WHERE id = $3
RETURNING id, name, completed, created_at`

// UpdateProject はプロジェクトにパッチを適用します。
func (s *PostgresStore) UpdateProject(ctx context.Context, id uuid.UUID, patch model.ProjectPatch) (*model.Project, error) {
	return pgFetchProject(ctx, s.pool, pgUpdateProject, patch.Name, patch.Completed, id)
}

// DeleteProject はタスクを削除してからプロジェクトを削除します。
func (s *PostgresStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrProjectNotFound
		}
		return nil
	})
}

// GetTask はタスクを取得します。
func (s *PostgresStore) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return pgFetchTask(ctx, s.pool,
		`SELECT id, title, completed, project_id, created_at FROM tasks WHERE id = $1`, id)
}

const pgInsertTask = `INSERT INTO tasks (id, title, completed, project_id, created_at) VALUES ($1, $2, $3, $4, $5)`

// CreateTasks は pgx.Batch で複数のタスクを1トランザクションで作成します。
func (s *PostgresStore) CreateTasks(ctx context.Context, projectID uuid.UUID, tasks []*model.Task) ([]*model.Task, error) {
	batch := &pgx.Batch{}
	for _, t := range tasks {
		if t.ProjectID != projectID {
			return nil, model.NewValidationError("task belongs to another project")
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		batch.Queue(pgInsertTask, t.ID, t.Title, t.Completed, projectID, t.CreatedAt)
	}
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		// 行ロックで削除と競合しないようにする
		var found uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM projects WHERE id = $1 FOR SHARE`, projectID).Scan(&found)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrProjectNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get project: %w", err)
		}
		return sendBatch(ctx, tx, batch, "task")
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

const pgUpdateTask = `
UPDATE tasks
SET title = COALESCE($1, title), completed = COALESCE($2, completed)
WHERE id = $3
RETURNING id, title, completed, project_id, created_at`

// UpdateTask はタスクにパッチを適用します。
func (s *PostgresStore) UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (*model.Task, error) {
	return pgFetchTask(ctx, s.pool, pgUpdateTask, patch.Title, patch.Completed, id)
}

// DeleteTask はタスクを削除します。
func (s *PostgresStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

// Reset は全てのタスクとプロジェクトを削除します。
func (s *PostgresStore) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tasks`); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM projects`); err != nil {
			return fmt.Errorf("failed to delete projects: %w", err)
		}
		return nil
	})
}

// Ping はデータベースへの疎通を確認します。
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close は接続プールを閉じます。
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			tx.Rollback(ctx)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil
	return nil
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, kind string) error {
	results := tx.SendBatch(ctx, batch)
	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert %s: %w", kind, err)
		}
	}
	return results.Close()
}

func pgFetchProject(ctx context.Context, q pgQuerier, query string, args ...any) (*model.Project, error) {
	var p model.Project
	err := q.QueryRow(ctx, query, args...).Scan(&p.ID, &p.Name, &p.Completed, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	return model.LoadProject(p.ID, p.Name, p.Completed, p.CreatedAt.UTC())
}

func pgFetchTask(ctx context.Context, q pgQuerier, query string, args ...any) (*model.Task, error) {
	row := q.QueryRow(ctx, query, args...)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return task, nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		t         model.Task
		createdAt time.Time
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Completed, &t.ProjectID, &createdAt); err != nil {
		return nil, err
	}
	return model.LoadTask(t.ID, t.Title, t.Completed, t.ProjectID, createdAt.UTC())
}
