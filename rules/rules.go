// Package rules holds the consistency rules between projects and their tasks.
//
// Every function here is pure: callers load the current state, ask the rules
// whether a mutation is allowed, and only then write.
package rules

import (
	"fmt"

	"github.com/stsysd/taskboard/model"
)

// Rule names reported in model.RuleViolation.
const (
	RuleProjectCompletion = "project_completion_requires_tasks_done"
	RuleTaskCreation      = "no_tasks_under_completed_project"
	RuleProjectDeletion   = "delete_requires_completed_project"
)

// CanCompleteProject reports whether every task owned by project is completed.
// A project without tasks can always be completed.
func CanCompleteProject(project *model.Project, tasks []*model.Task) bool {
	return countIncomplete(project, tasks) == 0
}

// CanCreateTaskUnder reports whether new tasks may be added to project.
func CanCreateTaskUnder(project *model.Project) bool {
	return !project.Completed
}

// CanDeleteProject reports whether project may be deleted.
func CanDeleteProject(project *model.Project) bool {
	return project.Completed
}

// NeedsCompletionReset reports whether setting task.completed to
// newTaskCompleted reopens a task of a completed project. When it does, the
// project has to be written back with completed=false as well.
func NeedsCompletionReset(project *model.Project, task *model.Task, newTaskCompleted bool) bool {
	return project.Completed && task.Completed && !newTaskCompleted
}

// countIncomplete counts incomplete tasks owned by project. Tasks of other
// projects are ignored.
func countIncomplete(project *model.Project, tasks []*model.Task) int {
	n := 0
	for _, t := range tasks {
		if project != nil && t.ProjectID != project.ID {
			continue
		}
		if !t.Completed {
			n++
		}
	}
	return n
}

// CheckProjectCompletion returns a RuleViolation when project cannot be marked completed.
func CheckProjectCompletion(project *model.Project, tasks []*model.Task) error {
	if n := countIncomplete(project, tasks); n > 0 {
		return model.NewRuleViolation(RuleProjectCompletion,
			fmt.Sprintf("Cannot mark project as completed: %d task(s) are still incomplete", n))
	}
	return nil
}

// CheckTaskCreation returns a RuleViolation when tasks cannot be added to project.
func CheckTaskCreation(project *model.Project) error {
	if !CanCreateTaskUnder(project) {
		return model.NewRuleViolation(RuleTaskCreation, "Cannot add tasks to a completed project")
	}
	return nil
}

// CheckProjectDeletion returns a RuleViolation when project cannot be deleted.
func CheckProjectDeletion(project *model.Project) error {
	if !CanDeleteProject(project) {
		return model.NewRuleViolation(RuleProjectDeletion, "Only completed projects can be deleted")
	}
	return nil
}
