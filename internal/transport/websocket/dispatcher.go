package websocket

import "sync"

const dispatchQueueSize = 64

// dispatcher runs callbacks one by one on its own goroutine, in the order they were posted.
type dispatcher struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		queue: make(chan func(), dispatchQueueSize),
		done:  make(chan struct{}),
	}

	go d.run()

	return d
}

func (that *dispatcher) run() {
	for {
		select {
		case <-that.done:
			return
		case fn := <-that.queue:
			// stop wins over anything still queued
			select {
			case <-that.done:
				return
			default:
			}

			fn()
		}
	}
}

// post blocks while the queue is full, unless the dispatcher is stopped.
func (that *dispatcher) post(fn func()) {
	select {
	case <-that.done:
	case that.queue <- fn:
	}
}

// stop does not wait for a running callback, so it is safe to call from one.
func (that *dispatcher) stop() {
	that.once.Do(func() {
		close(that.done)
	})
}
