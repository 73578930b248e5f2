// Package region finds pattern images on the desktop and acts on them.
//
// A Session bundles the platform (screen capture, mouse, keyboard and
// clipboard), the template matcher, the settings and the pattern library.
// Regions, Screens and Patterns are created from a Session:
//
//	s, err := region.NewSession(platform, nil, config.Default())
//	r, _ := s.NewRegion(0, 0, 800, 600)
//	p, _ := s.Pattern("button.png")
//	m, err := r.Find(p.Similar(0.9))
//	if err == nil && m != nil {
//	    err = r.Click(region.TargetMatch(m))
//	}
//
// # Searching
//
// Every search captures the region clipped to the monitors and asks the
// matcher for candidates, polling at the region's scan rate until the
// timeout elapses. The first attempt always happens, so a zero timeout
// checks exactly once. A region that touches no monitor fails every search
// with ErrOutOfBounds.
//
//   - Exists returns a nil match when the pattern does not show up.
//   - Find and Wait hand a timeout to the FindFailed protocol: Abort returns
//     a *FindFailedError, Skip returns a nil match, Retry searches again and
//     Prompt asks the session Prompter. A FindFailedHandler may pick the
//     response per failure.
//   - FindAll returns every match of the first capture that has any.
//   - WaitVanish waits for the pattern to go away.
//   - IsChanged and Changes compare the region with a baseline capture.
//
// # Geometry
//
// Offset, Grow, Nearby, Above, Below, Left and Right derive clipped regions
// and fail with ErrOutOfBounds when nothing is left on screen. SetRaster
// imposes a grid addressed with Row, Col, Cell and Get; indexes outside the
// grid follow the historical mapping described at rasterIndex.
//
// # Observing
//
// OnAppear, OnVanish and OnChange register watchers with the region's
// Observer. Observe polls them on the calling goroutine;
// ObserveInBackground polls a copy of them on a new goroutine and reports
// through a channel. A watcher fires once and stays quiet until it is
// reactivated.
//
// # Concurrency
//
// A Session may be shared. A Region, its matches and its observer belong to
// one goroutine; StopObserver and IsObserving are the exceptions.
package region
