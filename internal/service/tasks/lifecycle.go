package tasks

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"shopfloor/internal/service"
	"shopfloor/internal/storage"
)

// События автомата. Назначение, удержание и отмена задач делаются вне движка,
// поэтому здесь только то, что меняет статус при работе с часами.
const (
	EventClockIn = "clock_in"
	EventPause   = "pause"
)

type lifecycleContext struct {
	TaskID int64
}

// Lifecycle: автомат статусов одной задачи, поднятый из её текущего статуса.
type Lifecycle struct {
	interpreter *statekit.Interpreter[lifecycleContext]
}

func NewLifecycle(task *storage.Task) (*Lifecycle, error) {
	initial := task.Status
	if initial == "" {
		initial = storage.TaskPending
	}

	builder := statekit.NewMachine[lifecycleContext]("task-lifecycle").
		WithInitial(statekit.StateID(initial)).
		WithContext(lifecycleContext{TaskID: task.ID})

	for _, st := range []storage.TaskStatus{
		storage.TaskPending,
		storage.TaskAssigned,
		storage.TaskPaused,
		storage.TaskOnHold,
	} {
		builder.State(statekit.StateID(st)).
			On(EventClockIn).Target(statekit.StateID(storage.TaskRunning)).
			On(EventPause).Target(statekit.StateID(storage.TaskPaused)).
			Done()
	}

	builder.State(statekit.StateID(storage.TaskRunning)).
		On(EventPause).Target(statekit.StateID(storage.TaskPaused)).
		Done()

	// терминальные
	builder.State(statekit.StateID(storage.TaskCompleted)).Done()
	builder.State(statekit.StateID(storage.TaskCancelled)).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("task %d: unknown status %q: %w", task.ID, task.Status, service.ErrInvalidAction)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &Lifecycle{interpreter: interpreter}, nil
}

// Fire применяет событие и возвращает новый статус.
// Повторный clock_in у работающей задачи и повторная пауза допустимы и статус не меняют.
func (l *Lifecycle) Fire(event string) (storage.TaskStatus, error) {
	before := l.Current()

	if (event == EventClockIn && before == storage.TaskRunning) ||
		(event == EventPause && before == storage.TaskPaused) {
		return before, nil
	}

	l.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := l.Current()

	if before != after {
		return after, nil
	}

	return before, fmt.Errorf("action %q is not allowed while task is %s: %w", event, before, service.ErrInvalidAction)
}

func (l *Lifecycle) Current() storage.TaskStatus {
	return storage.TaskStatus(l.interpreter.State().Value)
}
