package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stsysd/taskboard/model"
)

// baseTime はテストで使う作成日時の基準です。
var baseTime = time.Date(2025, 5, 21, 14, 30, 0, 123456000, time.UTC)

func mustProject(t *testing.T, name string, offset time.Duration) *model.Project {
	t.Helper()
	p, err := model.NewProject(name, baseTime.Add(offset))
	if err != nil {
		t.Fatalf("Failed to create project model: %v", err)
	}
	return p
}

func mustTask(t *testing.T, projectID uuid.UUID, title string, offset time.Duration) *model.Task {
	t.Helper()
	task, err := model.NewTask(projectID, title, baseTime.Add(offset))
	if err != nil {
		t.Fatalf("Failed to create task model: %v", err)
	}
	return task
}

func seedProject(t *testing.T, s Store, name string, offset time.Duration) *model.Project {
	t.Helper()
	created, err := s.CreateProjects(context.Background(), []*model.Project{mustProject(t, name, offset)})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return created[0]
}

// testStore は各バックエンド共通の振る舞いを検証します。
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("CreateAndGetProject", func(t *testing.T) {
		s := newStore(t)
		project := seedProject(t, s, "Site", 0)

		got, err := s.GetProject(ctx, project.ID)
		if err != nil {
			t.Fatalf("Failed to get project: %v", err)
		}
		if got.ID != project.ID || got.Name != "Site" || got.Completed {
			t.Errorf("Unexpected project: %+v", got.Project)
		}
		if !got.CreatedAt.Equal(project.CreatedAt) {
			t.Errorf("Expected CreatedAt %v, got %v", project.CreatedAt, got.CreatedAt)
		}
		if len(got.Tasks) != 0 {
			t.Errorf("Expected no tasks, got %d", len(got.Tasks))
		}
	})

	t.Run("GetProjectNotFound", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.GetProject(ctx, model.NewID()); !errors.Is(err, model.ErrProjectNotFound) {
			t.Errorf("Expected ErrProjectNotFound, got %v", err)
		}
	})

	t.Run("ListProjectsOrderAndCounts", func(t *testing.T) {
		s := newStore(t)
		older := seedProject(t, s, "Older", 0)
		newer := seedProject(t, s, "Newer", time.Hour)

		// 同一時刻でもIDで順序が決まる
		sameA := mustProject(t, "SameA", 2*time.Hour)
		sameB := mustProject(t, "SameB", 2*time.Hour)
		if _, err := s.CreateProjects(ctx, []*model.Project{sameA, sameB}); err != nil {
			t.Fatalf("Failed to create projects: %v", err)
		}

		if _, err := s.CreateTasks(ctx, older.ID, []*model.Task{
			mustTask(t, older.ID, "a", 0),
			mustTask(t, older.ID, "b", 0),
		}); err != nil {
			t.Fatalf("Failed to create tasks: %v", err)
		}

		list, err := s.ListProjects(ctx)
		if err != nil {
			t.Fatalf("Failed to list projects: %v", err)
		}
		var names []string
		for _, p := range list {
			names = append(names, p.Name)
		}
		want := []string{"SameB", "SameA", "Newer", "Older"}
		if len(names) != len(want) {
			t.Fatalf("Expected %v, got %v", want, names)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Fatalf("Expected %v, got %v", want, names)
			}
		}
		if list[3].Count.Tasks != 2 {
			t.Errorf("Expected 2 tasks for %s, got %d", older.Name, list[3].Count.Tasks)
		}
		if list[2].ID != newer.ID || list[2].Count.Tasks != 0 {
			t.Errorf("Expected no tasks for %s, got %d", newer.Name, list[2].Count.Tasks)
		}
	})

	t.Run("TasksOrderedByCreation", func(t *testing.T) {
		s := newStore(t)
		project := seedProject(t, s, "Site", 0)

		late := mustTask(t, project.ID, "late", time.Minute)
		early := mustTask(t, project.ID, "early", 0)
		created, err := s.CreateTasks(ctx, project.ID, []*model.Task{late, early})
		if err != nil {
			t.Fatalf("Failed to create tasks: %v", err)
		}
		if len(created) != 2 || created[0].ID != late.ID {
			t.Errorf("Expected tasks returned in input order, got %+v", created)
		}

		got, err := s.GetProject(ctx, project.ID)
		if err != nil {
			t.Fatalf("Failed to get project: %v", err)
		}
		if len(got.Tasks) != 2 || got.Tasks[0].Title != "early" || got.Tasks[1].Title != "late" {
			t.Errorf("Expected tasks ordered by createdAt asc, got %+v", got.Tasks)
		}
	})

	t.Run("CreateTasksUnknownProject", func(t *testing.T) {
		s := newStore(t)
		missing := model.NewID()
		_, err := s.CreateTasks(ctx, missing, []*model.Task{mustTask(t, missing, "x", 0)})
		if !errors.Is(err, model.ErrProjectNotFound) {
			t.Errorf("Expected ErrProjectNotFound, got %v", err)
		}
	})

	t.Run("CreateProjectsIsAtomic", func(t *testing.T) {
		s := newStore(t)
		valid := mustProject(t, "Valid", 0)
		// 同じIDの2件目で主キー違反を起こす
		dup := *valid
		if _, err := s.CreateProjects(ctx, []*model.Project{valid, &dup}); err == nil {
			t.Fatal("Expected error for duplicate id, got nil")
		}
		list, err := s.ListProjects(ctx)
		if err != nil {
			t.Fatalf("Failed to list projects: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("Expected no projects after failed batch, got %d", len(list))
		}
	})

	t.Run("UpdateProjectPartial", func(t *testing.T) {
		s := newStore(t)
		project := seedProject(t, s, "Site", 0)

		done := true
		updated, err := s.UpdateProject(ctx, project.ID, model.ProjectPatch{Completed: &done})
		if err != nil {
			t.Fatalf("Failed to update project: %v", err)
		}
		if !updated.Completed || updated.Name != "Site" {
			t.Errorf("Unexpected project after completed-only patch: %+v", updated)
		}

		name := "Renamed"
		updated, err = s.UpdateProject(ctx, project.ID, model.ProjectPatch{Name: &name})
		if err != nil {
			t.Fatalf("Failed to update project: %v", err)
		}
		if !updated.Completed || updated.Name != "Renamed" {
			t.Errorf("Unexpected project after name-only patch: %+v", updated)
		}
		if !updated.CreatedAt.Equal(project.CreatedAt) {
			t.Errorf("Expected CreatedAt to be unchanged")
		}

		if _, err := s.UpdateProject(ctx, model.NewID(), model.ProjectPatch{Name: &name}); !errors.Is(err, model.ErrProjectNotFound) {
			t.Errorf("Expected ErrProjectNotFound, got %v", err)
		}
	})

	t.Run("DeleteProjectCascades", func(t *testing.T) {
		s := newStore(t)
		project := seedProject(t, s, "Site", 0)
		tasks, err := s.CreateTasks(ctx, project.ID, []*model.Task{
			mustTask(t, project.ID, "a", 0),
			mustTask(t, project.ID, "b", 0),
		})
		if err != nil {
			t.Fatalf("Failed to create tasks: %v", err)
		}

		if err := s.DeleteProject(ctx, project.ID); err != nil {
			t.Fatalf("Failed to delete project: %v", err)
		}
		if _, err := s.GetProject(ctx, project.ID); !errors.Is(err, model.ErrProjectNotFound) {
			t.Errorf("Expected ErrProjectNotFound after delete, got %v", err)
		}
		for _, task := range tasks {
			if _, err := s.GetTask(ctx, task.ID); !errors.Is(err, model.ErrTaskNotFound) {
				t.Errorf("Expected orphan task %s to be gone, got %v", task.ID, err)
			}
		}

		if err := s.DeleteProject(ctx, project.ID); !errors.Is(err, model.ErrProjectNotFound) {
			t.Errorf("Expected ErrProjectNotFound on second delete, got %v", err)
		}
	})

	t.Run("TaskLifecycle", func(t *testing.T) {
		s := newStore(t)
		project := seedProject(t, s, "Site", 0)
		created, err := s.CreateTasks(ctx, project.ID, []*model.Task{mustTask(t, project.ID, "Design", 0)})
		if err != nil {
			t.Fatalf("Failed to create task: %v", err)
		}
		task := created[0]

		got, err := s.GetTask(ctx, task.ID)
		if err != nil {
			t.Fatalf("Failed to get task: %v", err)
		}
		if got.ProjectID != project.ID || got.Title != "Design" || got.Completed {
			t.Errorf("Unexpected task: %+v", got)
		}

		done := true
		updated, err := s.UpdateTask(ctx, task.ID, model.TaskPatch{Completed: &done})
		if err != nil {
			t.Fatalf("Failed to update task: %v", err)
		}
		if !updated.Completed || updated.Title != "Design" {
			t.Errorf("Unexpected task after update: %+v", updated)
		}

		if _, err := s.UpdateTask(ctx, model.NewID(), model.TaskPatch{Completed: &done}); !errors.Is(err, model.ErrTaskNotFound) {
			t.Errorf("Expected ErrTaskNotFound, got %v", err)
		}

		if err := s.DeleteTask(ctx, task.ID); err != nil {
			t.Fatalf("Failed to delete task: %v", err)
		}
		if err := s.DeleteTask(ctx, task.ID); !errors.Is(err, model.ErrTaskNotFound) {
			t.Errorf("Expected ErrTaskNotFound on second delete, got %v", err)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		s := newStore(t)
		project := seedProject(t, s, "Site", 0)
		if _, err := s.CreateTasks(ctx, project.ID, []*model.Task{mustTask(t, project.ID, "a", 0)}); err != nil {
			t.Fatalf("Failed to create task: %v", err)
		}
		if err := s.Reset(ctx); err != nil {
			t.Fatalf("Failed to reset: %v", err)
		}
		list, err := s.ListProjects(ctx)
		if err != nil {
			t.Fatalf("Failed to list projects: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("Expected empty store after reset, got %d projects", len(list))
		}
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}
