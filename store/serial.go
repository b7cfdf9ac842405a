package store

import "sync"

// serial runs tasks one at a time in post order. There is no dedicated
// goroutine: the first poster to find the executor idle drains the queue,
// including tasks posted while it drains, before returning. A task that posts
// another task therefore never blocks, and the new task runs after it.
type serial struct {
	mu      sync.Mutex
	tasks   []func()
	running bool
}

func (e *serial) post(task func()) {
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.drain()
}

// postWait posts task and blocks until it has run. It must not be called
// from inside a task.
func (e *serial) postWait(task func()) {
	done := make(chan struct{})
	e.post(func() {
		defer close(done)
		task()
	})
	<-done
}

func (e *serial) drain() {
	defer func() {
		if r := recover(); r != nil {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			panic(r)
		}
	}()

	for {
		e.mu.Lock()
		if len(e.tasks) == 0 {
			e.running = false
			e.mu.Unlock()
			return
		}
		task := e.tasks[0]
		e.tasks[0] = nil
		e.tasks = e.tasks[1:]
		e.mu.Unlock()

		task()
	}
}
