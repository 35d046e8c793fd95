package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/stsysd/taskboard/model"
	"github.com/stsysd/taskboard/rules"
)

// API is the part of Client a View needs.
type API interface {
	GetProject(ctx context.Context, id uuid.UUID) (*model.ProjectWithTasks, error)
	UpdateProject(ctx context.Context, id uuid.UUID, patch model.ProjectPatch) (*model.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
	CreateTasks(ctx context.Context, projectID uuid.UUID, titles ...string) ([]*model.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
}

var _ API = (*Client)(nil)

// Level is the severity of a Notice.
type Level int

const (
	LevelSuccess Level = iota
	LevelInfo
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelInfo:
		return "info"
	default:
		return "error"
	}
}

// Notice is a user-visible message produced by a View operation.
type Notice struct {
	Level   Level
	Message string
	// Err is set for LevelError notices.
	Err error
}

// Notifier receives notices from a View.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// ErrNotLoaded is returned by View operations before Load succeeded.
var ErrNotLoaded = errors.New("view is not loaded")

// ErrUnknownTask is returned when the task is not part of the snapshot.
var ErrUnknownTask = errors.New("task is not part of this project")

// View holds the client side snapshot of one project. Every mutation is
// applied to the snapshot first; when the request fails the snapshot taken
// before the mutation is restored as is.
//
// A View is safe for concurrent use.
type View struct {
	api       API
	projectID uuid.UUID
	notifier  Notifier

	mu       sync.Mutex
	snapshot *model.ProjectWithTasks
}

// NewView returns an empty view of projectID. notifier may be nil.
func NewView(api API, projectID uuid.UUID, notifier Notifier) *View {
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	return &View{api: api, projectID: projectID, notifier: notifier}
}

// Snapshot returns a copy of the current state, or nil before Load.
func (v *View) Snapshot() *model.ProjectWithTasks {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot.Clone()
}

// Load replaces the snapshot with the server state.
func (v *View) Load(ctx context.Context) error {
	project, err := v.api.GetProject(ctx, v.projectID)
	if err != nil {
		v.fail("Failed to load project", err)
		return err
	}
	v.mu.Lock()
	v.snapshot = project
	v.mu.Unlock()
	return nil
}

// begin applies mutate to the snapshot and returns the state from before.
func (v *View) begin(mutate func(p *model.ProjectWithTasks) error) (*model.ProjectWithTasks, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.snapshot == nil {
		return nil, ErrNotLoaded
	}
	before := v.snapshot.Clone()
	if err := mutate(v.snapshot); err != nil {
		v.snapshot = before
		return nil, err
	}
	return before, nil
}

// rollback restores the state captured by begin and reports err.
func (v *View) rollback(before *model.ProjectWithTasks, message string, err error) {
	v.mu.Lock()
	v.snapshot = before
	v.mu.Unlock()
	v.fail(message, err)
}

// commit applies the server response to the snapshot.
func (v *View) commit(apply func(p *model.ProjectWithTasks)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.snapshot != nil {
		apply(v.snapshot)
	}
}

func (v *View) fail(message string, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		message = apiErr.Message
	}
	v.notifier.Notify(Notice{Level: LevelError, Message: message, Err: err})
}

// ToggleTask flips the completion of a task.
func (v *View) ToggleTask(ctx context.Context, taskID uuid.UUID) error {
	v.mu.Lock()
	if v.snapshot == nil {
		v.mu.Unlock()
		return ErrNotLoaded
	}
	task := v.snapshot.FindTask(taskID)
	if task == nil {
		v.mu.Unlock()
		return ErrUnknownTask
	}
	completed := !task.Completed
	v.mu.Unlock()

	return v.UpdateTask(ctx, taskID, model.TaskPatch{Completed: &completed})
}

// UpdateTask applies patch to a task. Reopening a task of a completed project
// marks the project incomplete locally as well; the server does the same, and
// the view is reloaded afterwards.
func (v *View) UpdateTask(ctx context.Context, taskID uuid.UUID, patch model.TaskPatch) error {
	var reopens bool
	before, err := v.begin(func(p *model.ProjectWithTasks) error {
		task := p.FindTask(taskID)
		if task == nil {
			return ErrUnknownTask
		}
		reopens = patch.Completed != nil && rules.NeedsCompletionReset(&p.Project, task, *patch.Completed)
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			patch.Title = &title
		}
		patch.Apply(task)
		if reopens {
			p.Completed = false
		}
		return nil
	})
	if err != nil {
		return err
	}

	updated, err := v.api.UpdateTask(ctx, taskID, patch)
	if err != nil {
		v.rollback(before, "Failed to update task. Please try again.", err)
		return err
	}
	v.commit(func(p *model.ProjectWithTasks) {
		if task := p.FindTask(taskID); task != nil {
			*task = *updated
		}
	})

	if reopens {
		v.notifier.Notify(Notice{
			Level:   LevelInfo,
			Message: "Project marked as In Progress because a task was reopened.",
		})
		return v.Load(ctx)
	}
	state := "reopened"
	if updated.Completed {
		state = "completed"
	}
	v.notifier.Notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Task %s successfully", state)})
	return nil
}

// RenameProject changes the project name.
func (v *View) RenameProject(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return v.updateProject(ctx, model.ProjectPatch{Name: &name})
}

// SetProjectCompleted changes the project completion. The server rejects
// completing a project with incomplete tasks.
func (v *View) SetProjectCompleted(ctx context.Context, completed bool) error {
	return v.updateProject(ctx, model.ProjectPatch{Completed: &completed})
}

func (v *View) updateProject(ctx context.Context, patch model.ProjectPatch) error {
	before, err := v.begin(func(p *model.ProjectWithTasks) error {
		patch.Apply(&p.Project)
		return nil
	})
	if err != nil {
		return err
	}

	updated, err := v.api.UpdateProject(ctx, v.projectID, patch)
	if err != nil {
		v.rollback(before, "Failed to update project", err)
		return err
	}
	v.commit(func(p *model.ProjectWithTasks) { p.Project = *updated })
	v.notifier.Notify(Notice{Level: LevelSuccess, Message: "Project updated successfully"})
	return nil
}

// AddTask adds a task. A placeholder is shown until the server answers.
func (v *View) AddTask(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	placeholder := &model.Task{
		ID:        model.NewID(),
		Title:     title,
		ProjectID: v.projectID,
		CreatedAt: model.Now(),
	}
	before, err := v.begin(func(p *model.ProjectWithTasks) error {
		p.Tasks = append(p.Tasks, placeholder)
		return nil
	})
	if err != nil {
		return err
	}

	created, err := v.api.CreateTasks(ctx, v.projectID, title)
	if err != nil {
		v.rollback(before, "Failed to add task", err)
		return err
	}
	v.commit(func(p *model.ProjectWithTasks) {
		if task := p.FindTask(placeholder.ID); task != nil && len(created) > 0 {
			*task = *created[0]
		}
	})
	v.notifier.Notify(Notice{Level: LevelSuccess, Message: "Task added successfully"})
	return nil
}

// DeleteTask removes a task. The project completion is left untouched.
func (v *View) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	before, err := v.begin(func(p *model.ProjectWithTasks) error {
		i := indexOfTask(p.Tasks, taskID)
		if i < 0 {
			return ErrUnknownTask
		}
		p.Tasks = append(p.Tasks[:i:i], p.Tasks[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	if err := v.api.DeleteTask(ctx, taskID); err != nil {
		v.rollback(before, "Failed to delete task. Please try again.", err)
		return err
	}
	v.notifier.Notify(Notice{Level: LevelSuccess, Message: "Task deleted successfully"})
	return nil
}

// DeleteProject deletes the project. On success the view becomes empty.
func (v *View) DeleteProject(ctx context.Context) error {
	v.mu.Lock()
	loaded := v.snapshot != nil
	v.mu.Unlock()
	if !loaded {
		return ErrNotLoaded
	}

	if err := v.api.DeleteProject(ctx, v.projectID); err != nil {
		v.fail("Failed to delete project. Only completed projects can be deleted.", err)
		return err
	}
	v.mu.Lock()
	v.snapshot = nil
	v.mu.Unlock()
	v.notifier.Notify(Notice{Level: LevelSuccess, Message: "Project deleted successfully"})
	return nil
}

func indexOfTask(tasks []*model.Task, id uuid.UUID) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
