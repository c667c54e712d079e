package agent

import (
	"encoding/json"
	"strings"
)

// toolAddTask and toolDefineTasks are intercepted by the orchestrator
// before they ever reach the tool registry: they mutate the in-flight
// task queue directly instead of doing any real work.
const (
	toolAddTask     = "add_task"
	toolDefineTasks = "define_tasks"
)

// Task is one entry in the orchestrator's per-request task queue, as
// inserted by add_task/define_tasks. The queue is advisory: it is
// surfaced to the model as state but the orchestrator does not itself
// schedule work against it.
type Task struct {
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// TaskQueue is the ordered list of tasks the assistant has queued for
// itself during a single orchestrator run.
type TaskQueue struct {
	tasks []Task
}

// Tasks returns a snapshot of the queue in order.
func (q *TaskQueue) Tasks() []Task {
	out := make([]Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}

type addTaskInput struct {
	Description string `json:"description"`
	Position    string `json:"position"`
}

// applyAddTask inserts one task at the front or back of the queue,
// per the add_task tool's "position" argument (default "front").
func (q *TaskQueue) applyAddTask(args json.RawMessage) (string, error) {
	var in addTaskInput
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return "", err
		}
	}
	if strings.TrimSpace(in.Description) == "" {
		return "", errEmptyTaskDescription
	}
	task := Task{Description: in.Description}
	if strings.ToLower(in.Position) == "back" {
		q.tasks = append(q.tasks, task)
	} else {
		q.tasks = append([]Task{task}, q.tasks...)
	}
	return "task added", nil
}

type defineTasksInput struct {
	Tasks []string `json:"tasks"`
}

// applyDefineTasks replaces the queue wholesale.
func (q *TaskQueue) applyDefineTasks(args json.RawMessage) (string, error) {
	var in defineTasksInput
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return "", err
		}
	}
	tasks := make([]Task, 0, len(in.Tasks))
	for _, desc := range in.Tasks {
		desc = strings.TrimSpace(desc)
		if desc == "" {
			continue
		}
		tasks = append(tasks, Task{Description: desc})
	}
	q.tasks = tasks
	return "tasks defined", nil
}

var errEmptyTaskDescription = &taskError{"add_task requires a non-empty description"}

type taskError struct{ msg string }

func (e *taskError) Error() string { return e.msg }
