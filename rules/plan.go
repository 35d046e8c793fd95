package rules

import (
	"github.com/stsysd/taskboard/model"
)

// NormalizeName trims value and rejects it when nothing is left. field names
// the attribute in the error message.
func NormalizeName(field, value string) (string, error) {
	return model.NormalizeText(field, value)
}

// PlanProjectUpdate validates a partial project update against the current
// state and returns the normalized patch to persist.
//
// tasks must be the project's full task list; it is only consulted when the
// patch marks the project completed.
func PlanProjectUpdate(project *model.Project, tasks []*model.Task, patch model.ProjectPatch) (model.ProjectPatch, error) {
	if patch.IsEmpty() {
		return model.ProjectPatch{}, model.NewValidationError("At least one of name or completed must be provided")
	}
	out := patch
	if patch.Name != nil {
		name, err := NormalizeName("name", *patch.Name)
		if err != nil {
			return model.ProjectPatch{}, err
		}
		out.Name = &name
	}
	if patch.Completed != nil && *patch.Completed {
		if err := CheckProjectCompletion(project, tasks); err != nil {
			return model.ProjectPatch{}, err
		}
	}
	return out, nil
}

// TaskUpdatePlan is the outcome of PlanTaskUpdate.
type TaskUpdatePlan struct {
	// Patch is the normalized task patch.
	Patch model.TaskPatch
	// ReopenProject is set when the owning project must be written back
	// with completed=false after the task update.
	ReopenProject bool
}

// PlanTaskUpdate validates a partial task update. project is the owning
// project and may be nil when the patch does not reopen the task; without a
// project no propagation is planned.
func PlanTaskUpdate(project *model.Project, task *model.Task, patch model.TaskPatch) (TaskUpdatePlan, error) {
	if patch.IsEmpty() {
		return TaskUpdatePlan{}, model.NewValidationError("At least one of title or completed must be provided")
	}
	out := patch
	if patch.Title != nil {
		title, err := NormalizeName("title", *patch.Title)
		if err != nil {
			return TaskUpdatePlan{}, err
		}
		out.Title = &title
	}
	plan := TaskUpdatePlan{Patch: out}
	if project != nil && patch.Completed != nil {
		plan.ReopenProject = NeedsCompletionReset(project, task, *patch.Completed)
	}
	return plan, nil
}

// Reopens reports whether patch sets a completed task back to incomplete,
// which is the only case where the owning project has to be loaded.
func Reopens(task *model.Task, patch model.TaskPatch) bool {
	return task.Completed && patch.Completed != nil && !*patch.Completed
}
