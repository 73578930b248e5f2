package region

import (
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/platform"
)

func TestObserver_AppearFiresOnceUntilDrained(t *testing.T) {
	s, d := newTestSession(t)
	r := mustRegion(t, s, 0, 0, 200, 150)
	name := r.OnAppear(needle(20), nil)
	if name == "" || !r.HasObserver() || !r.Observer().Active(name) {
		t.Fatalf("OnAppear did not register an active watcher (name %q)", name)
	}

	if err := r.Observer().CheckAll(); err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if r.HasEvents() {
		t.Fatal("event fired before the pattern appeared")
	}

	d.Draw(noise(16, 12, 20), geometry.Pt(70, 80))
	for i := 0; i < 3; i++ {
		if err := r.Observer().CheckAll(); err != nil {
			t.Fatalf("CheckAll failed: %v", err)
		}
	}
	if r.Observer().Active(name) {
		t.Error("watcher still active after firing")
	}

	evs := r.Events()
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	ev := evs[0]
	if ev.Kind() != EventAppear || ev.Name() != name || ev.Count() != 1 {
		t.Errorf("event: got %s %q #%d", ev.Kind(), ev.Name(), ev.Count())
	}
	m, err := ev.Match()
	if err != nil || m == nil || m.TopLeft() != geometry.Pt(70, 80) {
		t.Errorf("event match: got (%v, %v)", m, err)
	}
	if r.HasEvents() || !r.Observer().Active(name) {
		t.Error("Events should empty the queue and reactivate the watcher")
	}

	if err := r.Observer().CheckAll(); err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	evs = r.Events()
	if len(evs) != 1 || evs[0].Count() != 2 {
		t.Errorf("second firing: got %d events", len(evs))
	}
}

func TestObserver_HandlerReceivesEvents(t *testing.T) {
	s, d := newTestSession(t)
	d.Draw(noise(16, 12, 21), geometry.Pt(10, 10))
	r := mustRegion(t, s, 0, 0, 200, 150)

	var got []*Event
	r.OnAppear(needle(21), func(ev *Event) {
		got = append(got, ev)
		if len(got) < 3 {
			ev.Region().SetActive(ev.Name())
		}
	})

	for i := 0; i < 5; i++ {
		if err := r.Observer().CheckAll(); err != nil {
			t.Fatalf("CheckAll failed: %v", err)
		}
	}
	if len(got) != 3 {
		t.Errorf("handler calls: got %d, want 3", len(got))
	}
	for i, ev := range got {
		if ev.Count() != i+1 {
			t.Errorf("event %d: count %d", i, ev.Count())
		}
	}
	if r.HasEvents() {
		t.Error("events with a handler must not be queued")
	}
}

func TestObserver_Vanish(t *testing.T) {
	s, d := newTestSession(t)
	d.Draw(noise(16, 12, 22), geometry.Pt(30, 40))
	r := mustRegion(t, s, 0, 0, 200, 150)
	name := r.OnVanish(needle(22), nil)

	if err := r.Observer().CheckAll(); err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if r.HasEvents() {
		t.Fatal("vanish fired while the pattern is visible")
	}

	d.Fill(geometry.NewRect(30, 40, 16, 12), color.Black)
	if err := r.Observer().CheckAll(); err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	ev := r.Event(name)
	if ev == nil {
		t.Fatal("no vanish event")
	}
	if ev.Kind() != EventVanish {
		t.Errorf("kind: got %s, want VANISH", ev.Kind())
	}
	m, err := ev.Match()
	if err != nil || m == nil || m.TopLeft() != geometry.Pt(30, 40) {
		t.Errorf("last seen match: got (%v, %v)", m, err)
	}
}

func TestObserver_VanishWithoutSighting(t *testing.T) {
	s, _ := newTestSession(t)
	r := mustRegion(t, s, 0, 0, 200, 150)
	r.OnVanish(needle(23), nil)

	if err := r.Observer().CheckAll(); err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	evs := r.Events()
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	if _, err := evs[0].Match(); !errors.Is(err, ErrNoEventData) {
		t.Errorf("Match: got %v, want ErrNoEventData", err)
	}
	if p, err := evs[0].Pattern(); err != nil || p.Path() != "needle" {
		t.Errorf("Pattern: got (%v, %v)", p, err)
	}
}

func TestObserver_Change(t *testing.T) {
	s, d := newTestSession(t)
	r := mustRegion(t, s, 0, 0, 200, 150)
	name, err := r.OnChange(25, nil)
	if err != nil {
		t.Fatalf("OnChange failed: %v", err)
	}

	d.Fill(geometry.NewRect(100, 100, 4, 4), color.White)
	if err := r.Observer().CheckAll(); err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if r.HasEvents() {
		t.Fatal("16 changed pixels fired a 25 pixel watcher")
	}

	d.Fill(geometry.NewRect(100, 100, 5, 5), color.White)
	if err := r.Observer().CheckAll(); err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	ev := r.Event(name)
	if ev == nil {
		t.Fatal("no change event")
	}
	cs, err := ev.Changes()
	if err != nil {
		t.Fatalf("Changes failed: %v", err)
	}
	if cs.Pixels != 25 || cs.Bounds != geometry.NewRect(100, 100, 5, 5) {
		t.Errorf("changes: got %d pixels in %v", cs.Pixels, cs.Bounds)
	}
	if _, err := ev.Pattern(); !errors.Is(err, ErrWrongEventKind) {
		t.Errorf("Pattern on a change event: got %v, want ErrWrongEventKind", err)
	}
	if _, err := ev.Match(); !errors.Is(err, ErrWrongEventKind) {
		t.Errorf("Match on a change event: got %v, want ErrWrongEventKind", err)
	}
	if err := ev.SetResponse(Skip); !errors.Is(err, ErrWrongEventKind) {
		t.Errorf("SetResponse on a change event: got %v, want ErrWrongEventKind", err)
	}
}

func TestObserver_EventAndInactive(t *testing.T) {
	s, d := newTestSession(t)
	d.Draw(noise(16, 12, 24), geometry.Pt(10, 10))
	d.Draw(noise(16, 12, 25), geometry.Pt(100, 100))
	r := mustRegion(t, s, 0, 0, 200, 150)

	first := r.OnAppear(needle(24), nil)
	second := r.OnAppear(needle(25), nil)
	paused := r.OnAppear(needle(24), nil)
	r.SetInactive(paused)

	if err := r.Observer().CheckAll(); err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if r.Event(paused) != nil {
		t.Error("inactive watcher fired")
	}
	if r.Event("no-such-watcher") != nil {
		t.Error("unknown watcher returned an event")
	}

	ev := r.Event(second)
	if ev == nil || ev.Name() != second {
		t.Fatalf("Event(second): got %v", ev)
	}
	if !r.Observer().Active(second) || r.Observer().Active(first) {
		t.Error("Event should reactivate only its own watcher")
	}
	if !r.HasEvents() {
		t.Error("first watcher's event should still be queued")
	}
}

func TestObserve_RunsForDuration(t *testing.T) {
	s, d := newTestSession(t)
	d.Draw(noise(16, 12, 26), geometry.Pt(10, 10))
	r := mustRegion(t, s, 0, 0, 200, 150)
	r.OnAppear(needle(26), nil)

	start := time.Now()
	ran, err := r.Observe(50 * time.Millisecond)
	elapsed := time.Since(start)
	if err != nil || !ran {
		t.Fatalf("Observe: got (%v, %v)", ran, err)
	}
	if elapsed < 40*time.Millisecond || elapsed > time.Second {
		t.Errorf("elapsed %s, want about 50ms", elapsed)
	}
	if len(r.Events()) != 1 {
		t.Error("observe did not queue the appear event")
	}
	if r.IsObserving() {
		t.Error("still observing after Observe returned")
	}
}

func TestObserve_StopAndConcurrentStart(t *testing.T) {
	s, _ := newTestSession(t)
	r := mustRegion(t, s, 0, 0, 200, 150)
	r.OnAppear(needle(27), nil)

	result := make(chan bool, 1)
	go func() {
		ran, _ := r.Observe(0)
		result <- ran
	}()

	deadline := time.Now().Add(time.Second)
	for !r.IsObserving() {
		if time.Now().After(deadline) {
			t.Fatal("observer never started")
		}
		time.Sleep(time.Millisecond)
	}

	if ran, err := r.Observe(10 * time.Millisecond); ran || err != nil {
		t.Errorf("second Observe: got (%v, %v), want (false, nil)", ran, err)
	}
	if _, ok := r.ObserveInBackground(0, make(chan ObserveMessage, 1)); ok {
		t.Error("background start while observing should fail")
	}

	r.StopObserver()
	select {
	case ran := <-result:
		if !ran {
			t.Error("first Observe reported it did not run")
		}
	case <-time.After(time.Second):
		t.Fatal("StopObserver did not end the loop")
	}
}

// receive waits for the next message on ch.
func receive(t *testing.T, ch <-chan ObserveMessage) ObserveMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an observe message")
		return ObserveMessage{}
	}
}

// drainUntilDone receives until the Done message.
func drainUntilDone(t *testing.T, ch <-chan ObserveMessage) {
	t.Helper()
	for {
		if receive(t, ch).Done {
			return
		}
	}
}

func TestObserveInBackground_DeliversEvents(t *testing.T) {
	s, d := newTestSession(t)
	d.Draw(noise(16, 12, 28), geometry.Pt(50, 50))
	r := mustRegion(t, s, 0, 0, 200, 150)

	handled := false
	name := r.OnAppear(needle(28), func(*Event) { handled = true })

	ch := make(chan ObserveMessage, 16)
	b, ok := r.ObserveInBackground(0, ch)
	if !ok {
		t.Fatal("ObserveInBackground did not start")
	}
	if !r.IsObserving() {
		t.Error("IsObserving should be true while the worker runs")
	}

	msg := receive(t, ch)
	if msg.Event == nil || msg.Event.Kind() != EventAppear || msg.Event.Name() != name {
		t.Fatalf("first message: got %+v", msg)
	}

	b.Reactivate(name)
	msg = receive(t, ch)
	if msg.Event == nil || msg.Event.Count() != 2 {
		t.Fatalf("after Reactivate: got %+v", msg)
	}

	b.Stop()
	b.Stop()
	drainUntilDone(t, ch)
	b.Wait()

	select {
	case <-b.Done():
	default:
		t.Error("Done channel not closed after Wait")
	}
	if r.IsObserving() {
		t.Error("IsObserving still true after the worker exited")
	}
	if handled {
		t.Error("handlers must not run in the background worker")
	}
	if r.HasEvents() || !r.Observer().Active(name) {
		t.Error("the worker changed the region's own observer")
	}
}

func TestObserveInBackground_Duration(t *testing.T) {
	s, _ := newTestSession(t)
	r := mustRegion(t, s, 0, 0, 200, 150)
	r.OnAppear(needle(29), nil)

	ch := make(chan ObserveMessage, 4)
	b, ok := r.ObserveInBackground(30*time.Millisecond, ch)
	if !ok {
		t.Fatal("ObserveInBackground did not start")
	}
	if msg := receive(t, ch); !msg.Done {
		t.Errorf("got %+v, want Done", msg)
	}
	b.Wait()
}

func TestObserveInBackground_ReportsErrors(t *testing.T) {
	s, d := newTestSession(t)
	r := mustRegion(t, s, 0, 0, 200, 150)
	r.OnAppear(needle(30), nil)
	d.FailCaptures(errors.New("display gone"))

	ch := make(chan ObserveMessage, 4)
	b, ok := r.ObserveInBackground(0, ch)
	if !ok {
		t.Fatal("ObserveInBackground did not start")
	}
	msg := receive(t, ch)
	if !errors.Is(msg.Err, platform.ErrPlatform) {
		t.Errorf("got %+v, want a platform error", msg)
	}
	if msg := receive(t, ch); !msg.Done {
		t.Errorf("got %+v, want Done", msg)
	}
	b.Wait()
}

func TestEventKind_String(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventGeneric, "GENERIC"},
		{EventAppear, "APPEAR"},
		{EventVanish, "VANISH"},
		{EventChange, "CHANGE"},
		{EventFindFailed, "FINDFAILED"},
		{EventMissing, "MISSING"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
