package region

import (
	"image"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/region-tools-mcp/internal/pattern"
)

// Handler receives the events of a watcher. When a watcher has a handler
// its events are not queued.
type Handler func(ev *Event)

type watcher struct {
	id      string
	kind    EventKind
	pattern pattern.Pattern

	minPixels int
	baseline  image.Image

	handler  Handler
	count    int
	active   bool
	lastSeen *Match
}

// Observer watches a region for patterns appearing or vanishing and for
// pixel changes. Each Region owns exactly one Observer.
//
// A watcher fires at most once and then stays inactive until it is
// reactivated, either explicitly with SetActive or by draining its event
// with Events or Event.
type Observer struct {
	region   *Region
	watchers []*watcher
	byID     map[string]*watcher
	caught   []*Event

	running atomic.Bool
	stop    atomic.Bool
}

func newObserver(r *Region) *Observer {
	return &Observer{region: r, byID: make(map[string]*watcher)}
}

func (o *Observer) register(w *watcher) string {
	w.id = uuid.NewString()
	w.active = true
	o.watchers = append(o.watchers, w)
	o.byID[w.id] = w
	return w.id
}

// CheckAll evaluates every active watcher once, in registration order.
func (o *Observer) CheckAll() error {
	for _, w := range o.watchers {
		if !w.active {
			continue
		}
		ev, err := o.check(w)
		if err != nil {
			return err
		}
		if ev == nil {
			continue
		}

		w.count++
		w.active = false
		ev.name = w.id
		ev.count = w.count
		o.region.s.debugf("observer %s fired %s #%d", w.id, ev.kind, ev.count)

		if w.handler != nil {
			w.handler(ev)
		} else {
			o.caught = append(o.caught, ev)
		}
	}
	return nil
}

// check returns the event w fires against the current screen, or nil.
func (o *Observer) check(w *watcher) (*Event, error) {
	r := o.region
	switch w.kind {
	case EventAppear:
		m, err := r.Exists(w.pattern, Timeout(0))
		if err != nil || m == nil {
			return nil, err
		}
		return &Event{kind: EventAppear, region: r, pattern: w.pattern, hasPattern: true, match: m}, nil

	case EventVanish:
		m, err := r.Exists(w.pattern, Timeout(0))
		if err != nil {
			return nil, err
		}
		if m != nil {
			w.lastSeen = m
			return nil, nil
		}
		return &Event{kind: EventVanish, region: r, pattern: w.pattern, hasPattern: true, match: w.lastSeen}, nil

	case EventChange:
		cs, err := r.Changes(w.baseline)
		if err != nil || cs.Pixels < w.minPixels {
			return nil, err
		}
		return &Event{kind: EventChange, region: r, changes: cs, hasChanges: true}, nil
	}
	return nil, nil
}

// Events returns the queued events and empties the queue. The watcher of
// every returned event is reactivated.
func (o *Observer) Events() []*Event {
	evs := o.caught
	o.caught = nil
	for _, ev := range evs {
		o.SetActive(ev.name)
	}
	return evs
}

// Event removes and returns the oldest queued event of watcher name and
// reactivates the watcher. It returns nil when there is none.
func (o *Observer) Event(name string) *Event {
	for i, ev := range o.caught {
		if ev.name == name {
			o.caught = append(o.caught[:i:i], o.caught[i+1:]...)
			o.SetActive(name)
			return ev
		}
	}
	return nil
}

// HasEvents reports whether events are queued.
func (o *Observer) HasEvents() bool { return len(o.caught) > 0 }

// HasWatchers reports whether at least one watcher is registered.
func (o *Observer) HasWatchers() bool { return len(o.watchers) > 0 }

// SetActive reactivates watcher name. Unknown names are ignored.
func (o *Observer) SetActive(name string) {
	if w, ok := o.byID[name]; ok {
		w.active = true
	}
}

// SetInactive pauses watcher name. Unknown names are ignored.
func (o *Observer) SetInactive(name string) {
	if w, ok := o.byID[name]; ok {
		w.active = false
	}
}

// Active reports whether watcher name exists and is active.
func (o *Observer) Active(name string) bool {
	w, ok := o.byID[name]
	return ok && w.active
}

// IsRunning reports whether an observe loop, foreground or background, is
// running for this observer.
func (o *Observer) IsRunning() bool { return o.running.Load() }

// Stop asks the running loop to end at its next wake-up.
func (o *Observer) Stop() { o.stop.Store(true) }

// Run calls CheckAll at the observe scan rate until d elapses or Stop is
// called. A non-positive d runs until stopped. Run returns false without
// doing anything when a loop is already running.
func (o *Observer) Run(d time.Duration) (bool, error) {
	if !o.running.CompareAndSwap(false, true) {
		return false, nil
	}
	defer o.running.Store(false)
	o.stop.Store(false)

	return true, o.loop(d, o.stop.Load, nil, o.CheckAll)
}

// loop runs cycle until d elapses or stopped reports true. A receive on
// wake cuts the sleep between cycles short.
func (o *Observer) loop(d time.Duration, stopped func() bool, wake <-chan struct{}, cycle func() error) error {
	interval := o.region.s.settings.ObserveInterval()
	deadline := time.Now().Add(d)
	for !stopped() {
		if d > 0 && !time.Now().Before(deadline) {
			return nil
		}
		if err := cycle(); err != nil {
			return err
		}

		wait := interval
		if d > 0 {
			wait = min(wait, time.Until(deadline))
		}
		if wait <= 0 {
			continue
		}
		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-wake:
			t.Stop()
		}
	}
	return nil
}

// clone copies the watchers into a new observer for r. Handlers are not
// copied.
func (o *Observer) clone(r *Region) *Observer {
	c := newObserver(r)
	for _, w := range o.watchers {
		cw := *w
		cw.handler = nil
		c.watchers = append(c.watchers, &cw)
		c.byID[cw.id] = &cw
	}
	return c
}

// Observer returns the region's observer.
func (r *Region) Observer() *Observer { return r.observer }

// OnAppear registers a watcher that fires when p becomes visible. It
// returns the watcher id.
func (r *Region) OnAppear(p pattern.Pattern, h Handler) string {
	return r.observer.register(&watcher{kind: EventAppear, pattern: p, handler: h})
}

// OnVanish registers a watcher that fires when p is not visible.
func (r *Region) OnVanish(p pattern.Pattern, h Handler) string {
	return r.observer.register(&watcher{kind: EventVanish, pattern: p, handler: h})
}

// OnChange registers a watcher that fires when at least minPixels pixels
// differ from the region as it looks now. A non-positive minPixels uses
// the ObserveMinChangedPixels setting.
func (r *Region) OnChange(minPixels int, h Handler) (string, error) {
	if minPixels <= 0 {
		minPixels = r.s.settings.ObserveMinChangedPixels
	}
	baseline, _, err := r.Capture()
	if err != nil {
		return "", err
	}
	return r.observer.register(&watcher{kind: EventChange, minPixels: minPixels, baseline: baseline, handler: h}), nil
}

// Observe runs the observer on the calling goroutine. See Observer.Run.
func (r *Region) Observe(d time.Duration) (bool, error) {
	return r.observer.Run(d)
}

// StopObserver stops the running observe loop at its next wake-up.
func (r *Region) StopObserver() { r.observer.Stop() }

// IsObserving reports whether an observe loop is running.
func (r *Region) IsObserving() bool { return r.observer.IsRunning() }

// HasObserver reports whether any watcher is registered.
func (r *Region) HasObserver() bool { return r.observer.HasWatchers() }

// HasEvents reports whether observer events are queued.
func (r *Region) HasEvents() bool { return r.observer.HasEvents() }

// Events drains the observer queue. See Observer.Events.
func (r *Region) Events() []*Event { return r.observer.Events() }

// Event takes one queued event of watcher name. See Observer.Event.
func (r *Region) Event(name string) *Event { return r.observer.Event(name) }

// SetActive reactivates watcher name.
func (r *Region) SetActive(name string) { r.observer.SetActive(name) }

// SetInactive pauses watcher name.
func (r *Region) SetInactive(name string) { r.observer.SetInactive(name) }
