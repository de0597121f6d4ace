package tasks

import "context"

// Definition is a task that can be registered by its id
type Definition interface {
	TaskID() string
	HandleExecution(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)
}

// DefineTasks registers every given task definition
func DefineTasks(r *Registry, defs ...Definition) {
	for _, def := range defs {
		r.Register(def.TaskID(), def.HandleExecution)
	}
}
