// Package seed loads sample projects through the service, so every sample
// obeys the same rules as API requests.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stsysd/taskboard/model"
	"github.com/stsysd/taskboard/service"
)

//go:embed seed.yaml
var defaultData []byte

// Dataset is the seed file layout.
type Dataset struct {
	Projects []ProjectData `yaml:"projects"`
}

// ProjectData is one sample project.
type ProjectData struct {
	Name      string     `yaml:"name"`
	Completed bool       `yaml:"completed"`
	Tasks     []TaskData `yaml:"tasks"`
}

// TaskData is one sample task.
type TaskData struct {
	Title     string `yaml:"title"`
	Completed bool   `yaml:"completed"`
}

// Summary counts what Apply created.
type Summary struct {
	Projects int
	Tasks    int
}

// Default returns the built-in sample data.
func Default() (*Dataset, error) {
	return Parse(defaultData)
}

// LoadFile reads a dataset from a YAML file.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML dataset.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	return &ds, nil
}

// Apply creates every project of ds in file order, then its tasks, then
// replays the completion flags. A completed project must list only completed
// tasks.
func Apply(ctx context.Context, svc *service.Service, ds *Dataset) (Summary, error) {
	var sum Summary
	done := true
	for _, pd := range ds.Projects {
		name := pd.Name
		created, err := svc.CreateProjects(ctx, []model.ProjectInput{{Name: &name}})
		if err != nil {
			return sum, fmt.Errorf("project %q: %w", pd.Name, err)
		}
		project := created[0]
		sum.Projects++

		if len(pd.Tasks) > 0 {
			inputs := make([]model.TaskInput, len(pd.Tasks))
			for i := range pd.Tasks {
				inputs[i] = model.TaskInput{Title: &pd.Tasks[i].Title}
			}
			tasks, err := svc.CreateTasks(ctx, project.ID, inputs)
			if err != nil {
				return sum, fmt.Errorf("tasks of %q: %w", pd.Name, err)
			}
			sum.Tasks += len(tasks)

			for i, task := range tasks {
				if !pd.Tasks[i].Completed {
					continue
				}
				if _, err := svc.UpdateTask(ctx, task.ID, model.TaskPatch{Completed: &done}); err != nil {
					return sum, fmt.Errorf("task %q: %w", task.Title, err)
				}
			}
		}

		if pd.Completed {
			if _, err := svc.UpdateProject(ctx, project.ID, model.ProjectPatch{Completed: &done}); err != nil {
				return sum, fmt.Errorf("project %q: %w", pd.Name, err)
			}
		}
	}
	return sum, nil
}
