package session

import "sync"

// worker runs fn on every pushed item, in order, on its own goroutine.
// push never blocks, so it can be called inside the critical section.
type worker[T any] struct {
	fn func(T)

	mu    sync.Mutex
	items []T
	wake  chan struct{}

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newWorker[T any](fn func(T)) *worker[T] {
	w := &worker[T]{
		fn:   fn,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *worker[T]) push(x T) {
	w.mu.Lock()
	w.items = append(w.items, x)
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *worker[T]) take() []T {
	w.mu.Lock()
	defer w.mu.Unlock()
	items := w.items
	w.items = nil
	return items
}

func (w *worker[T]) run() {
	defer close(w.done)
	for {
		items := w.take()
		for _, x := range items {
			w.fn(x)
		}
		if len(items) > 0 {
			continue
		}
		select {
		case <-w.wake:
		case <-w.stop:
			for _, x := range w.take() {
				w.fn(x)
			}
			return
		}
	}
}

// shutdown asks the worker to finish the queued items and exit.
func (w *worker[T]) shutdown() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// wait blocks until the worker exited. It must not be called from fn.
func (w *worker[T]) wait() {
	<-w.done
}
