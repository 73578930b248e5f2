// Package desktop implements platform.Platform on the real desktop.
//
// Monitor enumeration and capture use kbinani/screenshot; mouse, keyboard and
// clipboard use go-vgo/robotgo. Both need cgo, so builds with CGO_ENABLED=0
// get a stub whose New reports ErrUnavailable.
package desktop

import "errors"

// ErrUnavailable is returned by New when no desktop can be driven, either
// because the binary was built without cgo or because no display is active.
var ErrUnavailable = errors.New("desktop platform unavailable")
