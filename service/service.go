// Package service orchestrates every request: it loads the current state from
// the store, asks the rules whether the mutation is allowed and only then
// writes.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stsysd/taskboard/logging"
	"github.com/stsysd/taskboard/model"
	"github.com/stsysd/taskboard/rules"
	"github.com/stsysd/taskboard/store"
)

// Service exposes one method per API operation.
type Service struct {
	store    store.Store
	logger   logrus.FieldLogger
	now      func() time.Time
	onReopen func(projectID uuid.UUID)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger replaces the package logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReopenHook registers fn to be called after a task reopen has flipped
// its project back to incomplete.
func WithReopenHook(fn func(projectID uuid.UUID)) Option {
	return func(s *Service) { s.onReopen = fn }
}

// New returns a Service backed by st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: logging.Logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListProjects returns every project with its task count, newest first.
func (s *Service) ListProjects(ctx context.Context) ([]*model.ProjectSummary, error) {
	return s.store.ListProjects(ctx)
}

// GetProject returns a project with its tasks, oldest first.
func (s *Service) GetProject(ctx context.Context, id uuid.UUID) (*model.ProjectWithTasks, error) {
	return s.store.GetProject(ctx, id)
}

// CreateProjects validates the whole batch before anything is written and
// returns the created projects, most recent first.
func (s *Service) CreateProjects(ctx context.Context, inputs []model.ProjectInput) ([]*model.Project, error) {
	names, err := rules.ValidateBatch(inputs, rules.ProjectNames)
	if err != nil {
		return nil, err
	}

	createdAt := model.Timestamp(s.now())
	projects := make([]*model.Project, len(names))
	for i, name := range names {
		p, err := model.NewProject(name, createdAt)
		if err != nil {
			return nil, err
		}
		projects[i] = p
	}

	created, err := s.store.CreateProjects(ctx, projects)
	if err != nil {
		return nil, err
	}
	// All entries share createdAt, so the id breaks the tie: the last one is the newest.
	out := slices.Clone(created)
	slices.Reverse(out)
	return out, nil
}

// UpdateProject applies a partial update. Marking a project completed requires
// every task to be completed.
func (s *Service) UpdateProject(ctx context.Context, id uuid.UUID, patch model.ProjectPatch) (*model.Project, error) {
	current, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	planned, err := rules.PlanProjectUpdate(&current.Project, current.Tasks, patch)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateProject(ctx, id, planned)
}

// DeleteProject deletes a completed project together with its tasks.
func (s *Service) DeleteProject(ctx context.Context, id uuid.UUID) error {
	current, err := s.store.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if err := rules.CheckProjectDeletion(&current.Project); err != nil {
		return err
	}
	return s.store.DeleteProject(ctx, id)
}

// CreateTasks adds a batch of tasks to an open project and returns them in
// input order.
func (s *Service) CreateTasks(ctx context.Context, projectID uuid.UUID, inputs []model.TaskInput) ([]*model.Task, error) {
	if err := s.CheckTaskTarget(ctx, projectID); err != nil {
		return nil, err
	}
	titles, err := rules.ValidateBatch(inputs, rules.TaskTitles)
	if err != nil {
		return nil, err
	}

	createdAt := model.Timestamp(s.now())
	tasks := make([]*model.Task, len(titles))
	for i, title := range titles {
		t, err := model.NewTask(projectID, title, createdAt)
		if err != nil {
			return nil, err
		}
		tasks[i] = t
	}
	return s.store.CreateTasks(ctx, projectID, tasks)
}

// CheckTaskTarget reports whether tasks may be added to the project: it
// returns ErrProjectNotFound or a RuleViolation when they may not.
func (s *Service) CheckTaskTarget(ctx context.Context, projectID uuid.UUID) error {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	return rules.CheckTaskCreation(&project.Project)
}

// UpdateTask applies a partial update to a task. Reopening a task of a
// completed project also marks the project incomplete. The two writes are not
// atomic; when the second one fails the task update stays in place and the
// error is returned.
func (s *Service) UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	var project *model.Project
	if rules.Reopens(task, patch) {
		owner, err := s.store.GetProject(ctx, task.ProjectID)
		switch {
		case errors.Is(err, model.ErrProjectNotFound):
			// the project vanished in between; nothing to propagate to
		case err != nil:
			return nil, err
		default:
			project = &owner.Project
		}
	}

	plan, err := rules.PlanTaskUpdate(project, task, patch)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateTask(ctx, id, plan.Patch)
	if err != nil {
		return nil, err
	}
	if !plan.ReopenProject {
		return updated, nil
	}

	log := s.logger.WithFields(logrus.Fields{
		"task_id":    id,
		"project_id": task.ProjectID,
	})
	reopened := false
	if _, err := s.store.UpdateProject(ctx, task.ProjectID, model.ProjectPatch{Completed: &reopened}); err != nil {
		log.WithError(err).Error("task reopened but project completion could not be reset")
		// %v: the task write already happened, so this is never a client error
		return nil, fmt.Errorf("failed to reopen project %s: %v", task.ProjectID, err)
	}
	log.Info("project reopened by task update")
	if s.onReopen != nil {
		s.onReopen(task.ProjectID)
	}
	return updated, nil
}

// DeleteTask deletes a task. Deleting never changes the project's completion.
func (s *Service) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.GetTask(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteTask(ctx, id)
}

// Health reports whether the store is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}
