package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stsysd/taskboard/model"
	"github.com/stsysd/taskboard/rules"
	"github.com/stsysd/taskboard/store"
)

var fixedNow = time.Date(2025, 5, 21, 14, 30, 0, 0, time.UTC)

// recordingStore counts inserts and can fail project updates.
type recordingStore struct {
	store.Store
	inserts          int
	updateProjectErr error
}

func (r *recordingStore) CreateProjects(ctx context.Context, projects []*model.Project) ([]*model.Project, error) {
	r.inserts += len(projects)
	return r.Store.CreateProjects(ctx, projects)
}

func (r *recordingStore) CreateTasks(ctx context.Context, projectID uuid.UUID, tasks []*model.Task) ([]*model.Task, error) {
	r.inserts += len(tasks)
	return r.Store.CreateTasks(ctx, projectID, tasks)
}

func (r *recordingStore) UpdateProject(ctx context.Context, id uuid.UUID, patch model.ProjectPatch) (*model.Project, error) {
	if r.updateProjectErr != nil {
		return nil, r.updateProjectErr
	}
	return r.Store.UpdateProject(ctx, id, patch)
}

func newService(t *testing.T, opts ...Option) (*Service, *recordingStore, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	rec := &recordingStore{Store: store.NewMemoryStore()}
	opts = append([]Option{WithLogger(logger), WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(rec, opts...), rec, hook
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }

func createProject(t *testing.T, svc *Service, name string) *model.Project {
	t.Helper()
	created, err := svc.CreateProjects(context.Background(), []model.ProjectInput{{Name: strPtr(name)}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	return created[0]
}

func createTasks(t *testing.T, svc *Service, projectID uuid.UUID, titles ...string) []*model.Task {
	t.Helper()
	inputs := make([]model.TaskInput, len(titles))
	for i := range titles {
		inputs[i] = model.TaskInput{Title: strPtr(titles[i])}
	}
	created, err := svc.CreateTasks(context.Background(), projectID, inputs)
	require.NoError(t, err)
	return created
}

// completeProject marks every task and then the project completed.
func completeProject(t *testing.T, svc *Service, project *model.Project, tasks []*model.Task) {
	t.Helper()
	ctx := context.Background()
	for _, task := range tasks {
		_, err := svc.UpdateTask(ctx, task.ID, model.TaskPatch{Completed: boolPtr(true)})
		require.NoError(t, err)
	}
	_, err := svc.UpdateProject(ctx, project.ID, model.ProjectPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
}

func TestCreateProjects(t *testing.T) {
	ctx := context.Background()

	t.Run("returns created projects most recent first", func(t *testing.T) {
		svc, rec, _ := newService(t)
		created, err := svc.CreateProjects(ctx, []model.ProjectInput{
			{Name: strPtr(" First ")},
			{Name: strPtr("Second")},
		})
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, "Second", created[0].Name)
		assert.Equal(t, "First", created[1].Name)
		assert.Equal(t, 2, rec.inserts)
		for _, p := range created {
			assert.False(t, p.Completed)
			assert.True(t, p.CreatedAt.Equal(fixedNow))
		}

		list, err := svc.ListProjects(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, created[0].ID, list[0].ID)
	})

	rejected := map[string][]model.ProjectInput{
		"empty batch":   {},
		"blank entry":   {{Name: strPtr("ok")}, {Name: strPtr("   ")}},
		"missing entry": {{Name: strPtr("ok")}, {}},
	}
	for name, inputs := range rejected {
		t.Run(name, func(t *testing.T) {
			svc, rec, _ := newService(t)
			created, err := svc.CreateProjects(ctx, inputs)
			assert.Nil(t, created)
			var validationErr *model.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Zero(t, rec.inserts, "store must not receive any insert")
		})
	}
}

func TestUpdateProject(t *testing.T) {
	ctx := context.Background()

	t.Run("not found before validation", func(t *testing.T) {
		svc, _, _ := newService(t)
		_, err := svc.UpdateProject(ctx, model.NewID(), model.ProjectPatch{})
		assert.ErrorIs(t, err, model.ErrProjectNotFound)
	})

	t.Run("empty patch", func(t *testing.T) {
		svc, _, _ := newService(t)
		project := createProject(t, svc, "Site")
		_, err := svc.UpdateProject(ctx, project.ID, model.ProjectPatch{})
		var validationErr *model.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("completion with incomplete task leaves state unchanged", func(t *testing.T) {
		svc, _, _ := newService(t)
		project := createProject(t, svc, "Site")
		createTasks(t, svc, project.ID, "Design")

		_, err := svc.UpdateProject(ctx, project.ID, model.ProjectPatch{Name: strPtr("New"), Completed: boolPtr(true)})
		var violation *model.RuleViolation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, rules.RuleProjectCompletion, violation.Rule)

		got, err := svc.GetProject(ctx, project.ID)
		require.NoError(t, err)
		assert.False(t, got.Completed)
		assert.Equal(t, "Site", got.Name)
	})

	t.Run("completion without tasks", func(t *testing.T) {
		svc, _, _ := newService(t)
		project := createProject(t, svc, "Site")
		updated, err := svc.UpdateProject(ctx, project.ID, model.ProjectPatch{Completed: boolPtr(true)})
		require.NoError(t, err)
		assert.True(t, updated.Completed)
	})

	t.Run("rename trims", func(t *testing.T) {
		svc, _, _ := newService(t)
		project := createProject(t, svc, "Site")
		updated, err := svc.UpdateProject(ctx, project.ID, model.ProjectPatch{Name: strPtr("  Docs ")})
		require.NoError(t, err)
		assert.Equal(t, "Docs", updated.Name)
	})
}

func TestDeleteProject(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	project := createProject(t, svc, "Site")
	tasks := createTasks(t, svc, project.ID, "Design", "Build")

	err := svc.DeleteProject(ctx, project.ID)
	var violation *model.RuleViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, rules.RuleProjectDeletion, violation.Rule)

	completeProject(t, svc, project, tasks)
	require.NoError(t, svc.DeleteProject(ctx, project.ID))

	_, err = svc.GetProject(ctx, project.ID)
	assert.ErrorIs(t, err, model.ErrProjectNotFound)
	for _, task := range tasks {
		err := svc.DeleteTask(ctx, task.ID)
		assert.ErrorIs(t, err, model.ErrTaskNotFound)
	}

	assert.ErrorIs(t, svc.DeleteProject(ctx, project.ID), model.ErrProjectNotFound)
}

func TestCreateTasks(t *testing.T) {
	ctx := context.Background()

	t.Run("input order", func(t *testing.T) {
		svc, _, _ := newService(t)
		project := createProject(t, svc, "Site")
		tasks := createTasks(t, svc, project.ID, "one", " two ")
		require.Len(t, tasks, 2)
		assert.Equal(t, "one", tasks[0].Title)
		assert.Equal(t, "two", tasks[1].Title)
		assert.Equal(t, project.ID, tasks[1].ProjectID)
		assert.False(t, tasks[1].Completed)
	})

	t.Run("unknown project", func(t *testing.T) {
		svc, rec, _ := newService(t)
		_, err := svc.CreateTasks(ctx, model.NewID(), []model.TaskInput{{Title: strPtr("x")}})
		assert.ErrorIs(t, err, model.ErrProjectNotFound)
		assert.Zero(t, rec.inserts)
	})

	t.Run("completed project", func(t *testing.T) {
		svc, rec, _ := newService(t)
		project := createProject(t, svc, "Site")
		completeProject(t, svc, project, nil)
		before := rec.inserts

		_, err := svc.CreateTasks(ctx, project.ID, []model.TaskInput{{Title: strPtr("late")}})
		var violation *model.RuleViolation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, rules.RuleTaskCreation, violation.Rule)
		assert.Equal(t, before, rec.inserts)

		got, err := svc.GetProject(ctx, project.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Tasks)
	})

	t.Run("invalid batch", func(t *testing.T) {
		svc, rec, _ := newService(t)
		project := createProject(t, svc, "Site")
		before := rec.inserts

		_, err := svc.CreateTasks(ctx, project.ID, []model.TaskInput{{Title: strPtr("ok")}, {Title: strPtr("")}})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, before, rec.inserts)
	})
}

func TestCheckTaskTarget(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	assert.ErrorIs(t, svc.CheckTaskTarget(ctx, model.NewID()), model.ErrProjectNotFound)

	project := createProject(t, svc, "Site")
	assert.NoError(t, svc.CheckTaskTarget(ctx, project.ID))

	completeProject(t, svc, project, nil)
	var violation *model.RuleViolation
	require.ErrorAs(t, svc.CheckTaskTarget(ctx, project.ID), &violation)
	assert.Equal(t, rules.RuleTaskCreation, violation.Rule)
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("reopen propagates to completed project", func(t *testing.T) {
		var reopened []uuid.UUID
		svc, _, hook := newService(t, WithReopenHook(func(id uuid.UUID) { reopened = append(reopened, id) }))
		project := createProject(t, svc, "Site")
		tasks := createTasks(t, svc, project.ID, "Design")
		completeProject(t, svc, project, tasks)

		updated, err := svc.UpdateTask(ctx, tasks[0].ID, model.TaskPatch{Completed: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, updated.Completed)

		got, err := svc.GetProject(ctx, project.ID)
		require.NoError(t, err)
		assert.False(t, got.Completed)
		assert.Equal(t, []uuid.UUID{project.ID}, reopened)
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	})

	t.Run("reopen under open project does not write the project", func(t *testing.T) {
		svc, rec, _ := newService(t)
		project := createProject(t, svc, "Site")
		tasks := createTasks(t, svc, project.ID, "Design")
		_, err := svc.UpdateTask(ctx, tasks[0].ID, model.TaskPatch{Completed: boolPtr(true)})
		require.NoError(t, err)

		rec.updateProjectErr = errors.New("must not be called")
		_, err = svc.UpdateTask(ctx, tasks[0].ID, model.TaskPatch{Completed: boolPtr(false)})
		assert.NoError(t, err)
	})

	t.Run("second write failure is a store failure", func(t *testing.T) {
		svc, rec, hook := newService(t)
		project := createProject(t, svc, "Site")
		tasks := createTasks(t, svc, project.ID, "Design")
		completeProject(t, svc, project, tasks)

		rec.updateProjectErr = model.ErrProjectNotFound
		_, err := svc.UpdateTask(ctx, tasks[0].ID, model.TaskPatch{Completed: boolPtr(false)})
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrProjectNotFound)
		var validationErr *model.ValidationError
		assert.False(t, errors.As(err, &validationErr))

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

		// the first write stays in place
		got, err := svc.GetProject(ctx, project.ID)
		require.NoError(t, err)
		assert.False(t, got.Tasks[0].Completed)
		assert.True(t, got.Completed)
	})

	t.Run("empty patch", func(t *testing.T) {
		svc, _, _ := newService(t)
		project := createProject(t, svc, "Site")
		tasks := createTasks(t, svc, project.ID, "Design")
		_, err := svc.UpdateTask(ctx, tasks[0].ID, model.TaskPatch{})
		var validationErr *model.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("blank title", func(t *testing.T) {
		svc, _, _ := newService(t)
		project := createProject(t, svc, "Site")
		tasks := createTasks(t, svc, project.ID, "Design")
		_, err := svc.UpdateTask(ctx, tasks[0].ID, model.TaskPatch{Title: strPtr(" ")})
		var validationErr *model.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _, _ := newService(t)
		_, err := svc.UpdateTask(ctx, model.NewID(), model.TaskPatch{Completed: boolPtr(true)})
		assert.ErrorIs(t, err, model.ErrTaskNotFound)
	})
}

func TestDeleteTaskDoesNotPropagate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	project := createProject(t, svc, "Site")
	tasks := createTasks(t, svc, project.ID, "done", "open")
	_, err := svc.UpdateTask(ctx, tasks[0].ID, model.TaskPatch{Completed: boolPtr(true)})
	require.NoError(t, err)

	// removing the only incomplete task does not complete the project
	require.NoError(t, svc.DeleteTask(ctx, tasks[1].ID))
	got, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Len(t, got.Tasks, 1)

	assert.ErrorIs(t, svc.DeleteTask(ctx, tasks[1].ID), model.ErrTaskNotFound)
}

func TestScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	project := createProject(t, svc, "Site")
	assert.False(t, project.Completed)

	tasks := createTasks(t, svc, project.ID, "Design")
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Completed)

	task, err := svc.UpdateTask(ctx, tasks[0].ID, model.TaskPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, task.Completed)

	updated, err := svc.UpdateProject(ctx, project.ID, model.ProjectPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	_, err = svc.UpdateTask(ctx, tasks[0].ID, model.TaskPatch{Completed: boolPtr(false)})
	require.NoError(t, err)

	got, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
}

func TestHealth(t *testing.T) {
	svc, _, _ := newService(t)
	assert.NoError(t, svc.Health(context.Background()))
}
