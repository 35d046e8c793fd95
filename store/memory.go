package store

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stsysd/taskboard/model"
)

// MemoryStore はメモリ上にデータを保持するStoreの実装です。テストやデモ用です。
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]model.Project
	tasks    map[uuid.UUID]model.Task
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore は空のMemoryStoreを作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[uuid.UUID]model.Project),
		tasks:    make(map[uuid.UUID]model.Task),
	}
}

// compareCreated は (createdAt, id) の昇順で比較します。
func compareCreated(aAt time.Time, aID uuid.UUID, bAt time.Time, bID uuid.UUID) int {
	if c := aAt.Compare(bAt); c != 0 {
		return c
	}
	return bytes.Compare(aID[:], bID[:])
}

// ListProjects はタスク件数付きの全プロジェクトを取得します。
func (m *MemoryStore) ListProjects(ctx context.Context) ([]*model.ProjectSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[uuid.UUID]int)
	for _, t := range m.tasks {
		counts[t.ProjectID]++
	}
	summaries := make([]*model.ProjectSummary, 0, len(m.projects))
	for _, p := range m.projects {
		summaries = append(summaries, &model.ProjectSummary{
			Project: p,
			Count:   model.TaskCount{Tasks: counts[p.ID]},
		})
	}
	slices.SortFunc(summaries, func(a, b *model.ProjectSummary) int {
		return compareCreated(b.CreatedAt, b.ID, a.CreatedAt, a.ID)
	})
	return summaries, nil
}

// GetProject はプロジェクトとそのタスクを取得します。
func (m *MemoryStore) GetProject(ctx context.Context, id uuid.UUID) (*model.ProjectWithTasks, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, model.ErrProjectNotFound
	}
	tasks := []*model.Task{}
	for _, t := range m.tasks {
		if t.ProjectID == id {
			task := t
			tasks = append(tasks, &task)
		}
	}
	slices.SortFunc(tasks, func(a, b *model.Task) int {
		return compareCreated(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return &model.ProjectWithTasks{Project: p, Tasks: tasks}, nil
}

// CreateProjects は全件を検証してからまとめて保存します。
func (m *MemoryStore) CreateProjects(ctx context.Context, projects []*model.Project) ([]*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[uuid.UUID]bool)
	for _, p := range projects {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := m.projects[p.ID]; exists || seen[p.ID] {
			return nil, model.NewValidationErrorf("duplicate project id %s", p.ID)
		}
		seen[p.ID] = true
	}
	for _, p := range projects {
		m.projects[p.ID] = *p
	}
	return projects, nil
}

// UpdateProject はプロジェクトにパッチを適用します。
func (m *MemoryStore) UpdateProject(ctx context.Context, id uuid.UUID, patch model.ProjectPatch) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, model.ErrProjectNotFound
	}
	patch.Apply(&p)
	m.projects[id] = p
	return &p, nil
}

// DeleteProject はタスクを削除してからプロジェクトを削除します。
func (m *MemoryStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[id]; !ok {
		return model.ErrProjectNotFound
	}
	for tid, t := range m.tasks {
		if t.ProjectID == id {
			delete(m.tasks, tid)
		}
	}
	delete(m.projects, id)
	return nil
}

// GetTask はタスクを取得します。
func (m *MemoryStore) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, model.ErrTaskNotFound
	}
	return &t, nil
}

// CreateTasks は全件を検証してからまとめて保存します。
func (m *MemoryStore) CreateTasks(ctx context.Context, projectID uuid.UUID, tasks []*model.Task) ([]*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[projectID]; !ok {
		return nil, model.ErrProjectNotFound
	}
	seen := make(map[uuid.UUID]bool)
	for _, t := range tasks {
		if t.ProjectID != projectID {
			return nil, model.NewValidationError("task belongs to another project")
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, exists := m.tasks[t.ID]; exists || seen[t.ID] {
			return nil, model.NewValidationErrorf("duplicate task id %s", t.ID)
		}
		seen[t.ID] = true
	}
	for _, t := range tasks {
		m.tasks[t.ID] = *t
	}
	return tasks, nil
}

// UpdateTask はタスクにパッチを適用します。
func (m *MemoryStore) UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, model.ErrTaskNotFound
	}
	patch.Apply(&t)
	m.tasks[id] = t
	return &t, nil
}

// DeleteTask はタスクを削除します。
func (m *MemoryStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return model.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

// Reset は全データを削除します。
func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.projects)
	clear(m.tasks)
	return nil
}

// Ping は常に成功します。
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close は何もしません。
func (m *MemoryStore) Close() error {
	return nil
}
