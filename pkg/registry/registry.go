// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"monopco-workers/internal/common/validation"

	"github.com/xeipuuv/gojsonschema"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode activity registry: %w", err)
	}
	return &reg, nil
}

// Find returns the activity bound to taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// TaskTypes returns the registered task types, sorted.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.TaskType)
	}
	sort.Strings(out)
	return out
}

// Validate checks activity naming, uniqueness and that every input schema
// compiles. All problems are reported, not just the first.
func (r *ActivityRegistry) Validate() []error {
	var errs []error
	ids := map[string]bool{}
	taskTypes := map[string]bool{}

	for _, a := range r.Activities {
		if err := validation.ValidateActivityNaming(a.ID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.ID, err))
		}
		if ids[a.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate activity id", a.ID))
		}
		ids[a.ID] = true

		if a.TaskType == "" {
			errs = append(errs, fmt.Errorf("%s: taskType is required", a.ID))
		} else if taskTypes[a.TaskType] {
			errs = append(errs, fmt.Errorf("%s: task type %s is already registered", a.ID, a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if a.InputSchema != nil {
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema)); err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid input schema: %w", a.ID, err))
			}
		}
	}
	return errs
}

// Missing lists the task types with a handler but no registry entry.
func (r *ActivityRegistry) Missing(taskTypes []string) []string {
	var out []string
	for _, t := range taskTypes {
		if _, ok := r.Find(t); !ok {
			out = append(out, t)
		}
	}
	return out
}

// SetField updates one scalar field of the activity with this id and bumps
// LastUpdated.
func (r *ActivityRegistry) SetField(id, field, value string) error {
	var act *Activity
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			act = &r.Activities[i]
			break
		}
	}
	if act == nil {
		return fmt.Errorf("activity %s not found", id)
	}

	switch field {
	case "status":
		act.ImplementationStatus = value
	case "version":
		act.Version = value
	case "displayName":
		act.DisplayName = value
	case "description":
		act.Description = value
	case "timeout":
		act.Timeout = value
	case "retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid retries value %q", value)
		}
		act.Retries = n
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// Save writes the registry as indented JSON.
func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode activity registry: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
