package sampler

import "sync"

// Queue is an unbounded FIFO of commands with any number of producers and a
// single consumer. Neither Push nor DrainAll waits on the other side.
type Queue struct {
	mu   sync.Mutex
	cmds []Command
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends cmd.
func (q *Queue) Push(cmd Command) {
	q.mu.Lock()
	q.cmds = append(q.cmds, cmd)
	q.mu.Unlock()
}

// DrainAll removes and returns every pending command, oldest first.
// It returns nil if the queue is empty.
func (q *Queue) DrainAll() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.cmds) == 0 {
		return nil
	}
	out := q.cmds
	q.cmds = nil
	return out
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}
