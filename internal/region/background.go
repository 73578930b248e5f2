package region

import (
	"sync"
	"time"
)

// ObserveMessage is what a background observer reports. Exactly one of the
// fields is set. Done is the last message of a run.
type ObserveMessage struct {
	Event *Event
	Err   error
	Done  bool
}

// BackgroundObserver is a running background observation started by
// ObserveInBackground.
type BackgroundObserver struct {
	ch   chan<- ObserveMessage
	quit chan struct{}
	done chan struct{}
	once sync.Once

	mu         sync.Mutex
	reactivate []string
}

// ObserveInBackground runs the observer on a new goroutine for d, or until
// stopped when d is not positive.
//
// The worker observes a copy of r and its watchers. Events are sent on ch
// instead of being queued or passed to handlers, and a failed cycle is sent
// as an Err message and ends the run. The worker never closes ch. The caller
// must keep receiving until the Done message; after Stop, messages the
// caller is not waiting for are dropped.
//
// It returns false when an observe loop is already running for r.
func (r *Region) ObserveInBackground(d time.Duration, ch chan<- ObserveMessage) (*BackgroundObserver, bool) {
	o := r.observer
	if !o.running.CompareAndSwap(false, true) {
		return nil, false
	}
	o.stop.Store(false)

	b := &BackgroundObserver{
		ch:   ch,
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	worker := r.isolate()

	go func() {
		defer close(b.done)
		defer o.running.Store(false)

		stopped := func() bool {
			select {
			case <-b.quit:
				return true
			default:
				return o.stop.Load()
			}
		}
		cycle := func() error {
			wo := worker.observer
			for _, name := range b.takeReactivations() {
				wo.SetActive(name)
			}
			if err := wo.CheckAll(); err != nil {
				return err
			}
			evs := wo.caught
			wo.caught = nil
			for _, ev := range evs {
				b.send(ObserveMessage{Event: ev})
			}
			return nil
		}

		if err := worker.observer.loop(d, stopped, b.quit, cycle); err != nil {
			r.s.debugf("background observer for %s failed: %v", r.rect, err)
			b.send(ObserveMessage{Err: err})
		}
		b.send(ObserveMessage{Done: true})
	}()
	return b, true
}

// isolate copies r for a background worker. The copy shares the session
// but nothing mutable with r.
func (r *Region) isolate() *Region {
	c := r.derive(r.rect)
	c.rows, c.cols = r.rows, r.cols
	c.pinned = r.pinned
	c.observer = r.observer.clone(c)
	return c
}

func (b *BackgroundObserver) send(msg ObserveMessage) {
	select {
	case b.ch <- msg:
	case <-b.quit:
		select {
		case b.ch <- msg:
		default:
		}
	}
}

func (b *BackgroundObserver) takeReactivations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := b.reactivate
	b.reactivate = nil
	return names
}

// Reactivate makes watcher name fire again in the worker. It takes effect
// at the start of the next cycle.
func (b *BackgroundObserver) Reactivate(name string) {
	b.mu.Lock()
	b.reactivate = append(b.reactivate, name)
	b.mu.Unlock()
}

// Stop ends the run at the worker's next wake-up. It is safe to call more
// than once.
func (b *BackgroundObserver) Stop() {
	b.once.Do(func() { close(b.quit) })
}

// Wait blocks until the worker has exited.
func (b *BackgroundObserver) Wait() {
	<-b.done
}

// Done is closed when the worker has exited.
func (b *BackgroundObserver) Done() <-chan struct{} {
	return b.done
}
