// Package shutdownqueue collects cleanup tasks registered during startup
// and drains them in reverse order when the process exits.
//
// Register from anywhere with Add, then drain once at the end of main:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	defer shutdownqueue.Shutdown(ctx)
//
// Tasks run exactly once, last-registered first. A panicking task is
// recovered and reported alongside ordinary task errors via errors.Join.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a cleanup function. It should honor ctx and return an error
// if it cannot finish in time.
type Task func(ctx context.Context) error

var global = &taskList{}

type taskList struct {
	mu      sync.Mutex
	tasks   []Task
	drained bool
}

// Add registers a task to run on Shutdown. Registration after Shutdown
// has started is silently dropped, as is a nil task.
func Add(t Task) {
	if t == nil {
		return
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.drained {
		return
	}

	global.tasks = append(global.tasks, t)
}

// Shutdown runs every registered task in LIFO order and returns their
// errors joined. Calling it again is a no-op returning nil.
//
// If ctx expires mid-drain, the remaining tasks are skipped and the
// context error is included in the result.
func Shutdown(ctx context.Context) error {
	global.mu.Lock()

	if global.drained {
		global.mu.Unlock()
		return nil
	}

	global.drained = true
	tasks := global.tasks
	global.tasks = nil

	global.mu.Unlock()

	var errs []error

	for i := len(tasks) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))
			return errors.Join(errs...)
		default:
		}

		err := runTask(ctx, tasks[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic in shutdown task: %v", r)
		}
	}()

	return t(ctx)
}
