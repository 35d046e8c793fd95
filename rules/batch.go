package rules

import (
	"strings"

	"github.com/stsysd/taskboard/model"
)

// Field describes the required text field validated for each batch entry.
type Field[E any] struct {
	// Collection is the request key holding the entries, e.g. "projects".
	Collection string
	// Name is the field inside one entry, e.g. "name".
	Name string
	// Get returns nil when the field is missing.
	Get func(E) *string
}

// ProjectNames extracts project names from a batch creation request.
var ProjectNames = Field[model.ProjectInput]{
	Collection: "projects",
	Name:       "name",
	Get:        func(in model.ProjectInput) *string { return in.Name },
}

// TaskTitles extracts task titles from a batch creation request.
var TaskTitles = Field[model.TaskInput]{
	Collection: "tasks",
	Name:       "title",
	Get:        func(in model.TaskInput) *string { return in.Title },
}

// ValidateBatch checks a batch creation request as a whole. It fails when
// entries is empty or when any entry's field is missing or blank after
// trimming; in that case nothing from the batch may be persisted. On success
// it returns the trimmed values in input order.
func ValidateBatch[E any](entries []E, field Field[E]) ([]string, error) {
	if len(entries) == 0 {
		return nil, model.NewValidationErrorf("%s must be a non-empty array", field.Collection)
	}
	values := make([]string, len(entries))
	for i, entry := range entries {
		v := field.Get(entry)
		if v == nil {
			return nil, model.NewValidationErrorf("%s[%d].%s is required", field.Collection, i, field.Name)
		}
		trimmed := strings.TrimSpace(*v)
		if trimmed == "" {
			return nil, model.NewValidationErrorf("%s[%d].%s must not be blank", field.Collection, i, field.Name)
		}
		values[i] = trimmed
	}
	return values, nil
}
