package delegate

import "sync"

type queue[T any] []T

func (wq *queue[T]) Len() int { return len(*wq) }

func (wq *queue[T]) Pop() T {
	old := *wq
	x := old[0]
	var zero T
	old[0] = zero
	*wq = old[1:]
	return x
}

func (wq *queue[T]) Push(t T) {
	*wq = append(*wq, t)
}

// channel is an unbounded FIFO of tasks with many producers and a single consumer.
// It counts unfinished items so that join can wait for a full drain.
type channel struct {
	mu         sync.Mutex
	available  *sync.Cond
	drained    *sync.Cond
	items      queue[*Task]
	unfinished int
	err        error
}

func newChannel() *channel {
	c := &channel{items: queue[*Task]{}}
	c.available = sync.NewCond(&c.mu)
	c.drained = sync.NewCond(&c.mu)
	return c
}

// push never blocks. Once the channel is failed, data tasks are completed with the
// failure instead of being queued.
func (c *channel) push(t *Task) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		t.fail(c.err)
		return c.items.Len()
	}
	c.items.Push(t)
	c.unfinished++
	c.available.Signal()
	return c.items.Len()
}

func (c *channel) pop() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.items.Len() == 0 {
		c.available.Wait()
	}
	return c.items.Pop()
}

func (c *channel) taskDone() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unfinished <= 0 {
		panic("delegate: taskDone called more times than items were pushed")
	}
	c.unfinished--
	if c.unfinished == 0 {
		c.drained.Broadcast()
	}
}

// join blocks until every pushed item has been consumed.
func (c *channel) join() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.unfinished > 0 {
		c.drained.Wait()
	}
}

func (c *channel) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// failPending completes every queued task with err and rejects future pushes.
func (c *channel) failPending(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.err = err
	for c.items.Len() > 0 {
		c.items.Pop().fail(err)
	}
	c.unfinished = 0
	c.drained.Broadcast()
}
