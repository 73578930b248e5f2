package region

import (
	"errors"
	"time"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
	"github.com/ironsheep/region-tools-mcp/internal/platform"
)

// Input actions move the real (or virtual) cursor and keyboard. Targets are
// resolved first, so a pattern target runs Find and follows the region's
// FindFailed response; when that response is Skip the action does nothing
// and returns nil.
//
// Modifier keys (platform.KeyShift and friends) are held for the duration
// of the action and released even when the action fails.

// Click moves to t and clicks the left button.
func (r *Region) Click(t Target, modifiers ...string) error {
	return r.clickAt(t, platform.ButtonLeft, 1, modifiers)
}

// DoubleClick moves to t and double-clicks the left button.
func (r *Region) DoubleClick(t Target, modifiers ...string) error {
	return r.clickAt(t, platform.ButtonLeft, 2, modifiers)
}

// RightClick moves to t and clicks the right button.
func (r *Region) RightClick(t Target, modifiers ...string) error {
	return r.clickAt(t, platform.ButtonRight, 1, modifiers)
}

func (r *Region) clickAt(t Target, b platform.Button, count int, modifiers []string) error {
	pt, ok, err := r.resolveTarget(t)
	if err != nil || !ok {
		return err
	}
	return r.withModifiers(modifiers, func() error {
		if err := r.moveCursor(pt); err != nil {
			return err
		}
		sleep(r.s.settings.ClickDelay)
		if err := r.s.platform.Click(b, count); err != nil {
			return err
		}
		r.s.debugf("clicked %s x%d at %s", b, count, pt)
		return nil
	})
}

// Hover moves the cursor to t.
func (r *Region) Hover(t Target) error {
	pt, ok, err := r.resolveTarget(t)
	if err != nil || !ok {
		return err
	}
	return r.moveCursor(pt)
}

// MouseMove is Hover.
func (r *Region) MouseMove(t Target) error {
	return r.Hover(t)
}

// MouseMoveBy moves the cursor by (dx, dy) from where it is.
func (r *Region) MouseMoveBy(dx, dy int) error {
	cur, err := r.s.platform.Cursor()
	if err != nil {
		return err
	}
	return r.moveCursor(cur.Offset(dx, dy))
}

// Drag moves to t and presses the left button, starting a drag.
func (r *Region) Drag(t Target) error {
	pt, ok, err := r.resolveTarget(t)
	if err != nil || !ok {
		return err
	}
	if err := r.moveCursor(pt); err != nil {
		return err
	}
	sleep(r.s.settings.DelayBeforeMouseDown)
	if err := r.s.platform.ButtonDown(platform.ButtonLeft); err != nil {
		return err
	}
	r.s.debugf("began drag at %s", pt)
	return nil
}

// DropAt moves to t and releases the left button, ending a drag.
func (r *Region) DropAt(t Target) error {
	pt, ok, err := r.resolveTarget(t)
	if err != nil || !ok {
		return err
	}
	if err := r.moveCursor(pt); err != nil {
		return err
	}
	sleep(r.s.settings.DelayBeforeDrop)
	if err := r.s.platform.ButtonUp(platform.ButtonLeft); err != nil {
		return err
	}
	r.s.debugf("ended drag at %s", pt)
	return nil
}

// DragDrop drags from one target and drops on the other.
func (r *Region) DragDrop(from, to Target, modifiers ...string) error {
	return r.withModifiers(modifiers, func() error {
		if err := r.Drag(from); err != nil {
			return err
		}
		sleep(r.s.settings.DelayBeforeDrag)
		return r.DropAt(to)
	})
}

// Type clicks t, unless t is the zero Target, and types text. With a
// positive TypeDelay the text is sent one character at a time.
func (r *Region) Type(t Target, text string, modifiers ...string) error {
	if !t.IsZero() {
		if err := r.Click(t); err != nil {
			return err
		}
	}
	return r.withModifiers(modifiers, func() error {
		delay := r.s.settings.TypeDelay
		if delay <= 0 {
			return r.s.platform.TypeText(text)
		}
		for _, c := range text {
			if err := r.s.platform.TypeText(string(c)); err != nil {
				return err
			}
			sleep(delay)
		}
		r.s.debugf("typed %q", text)
		return nil
	})
}

// Paste clicks t, unless t is the zero Target, and pastes text through the
// clipboard.
func (r *Region) Paste(t Target, text string) error {
	if !t.IsZero() {
		if err := r.Click(t); err != nil {
			return err
		}
	}
	return r.s.platform.PasteText(text)
}

// MouseDown presses b where the cursor is.
func (r *Region) MouseDown(b platform.Button) error {
	return r.s.platform.ButtonDown(b)
}

// MouseUp releases b where the cursor is.
func (r *Region) MouseUp(b platform.Button) error {
	return r.s.platform.ButtonUp(b)
}

// Wheel moves to t, unless t is the zero Target, and turns the wheel.
func (r *Region) Wheel(t Target, dir platform.WheelDirection, steps int) error {
	if !t.IsZero() {
		if err := r.Hover(t); err != nil {
			return err
		}
	}
	return r.s.platform.Wheel(dir, steps)
}

// KeyDown presses keys in order.
func (r *Region) KeyDown(keys ...string) error {
	for _, k := range keys {
		if err := r.s.platform.KeyDown(k); err != nil {
			return err
		}
	}
	return nil
}

// KeyUp releases keys in order.
func (r *Region) KeyUp(keys ...string) error {
	for _, k := range keys {
		if err := r.s.platform.KeyUp(k); err != nil {
			return err
		}
	}
	return nil
}

// Clipboard returns the clipboard text.
func (r *Region) Clipboard() (string, error) {
	return r.s.platform.ReadClipboard()
}

func (r *Region) moveCursor(pt geometry.Point) error {
	if err := r.s.platform.MoveCursor(pt); err != nil {
		return err
	}
	sleep(r.s.settings.MoveMouseDelay)
	return nil
}

// withModifiers holds modifiers down around fn and releases them in reverse
// order.
func (r *Region) withModifiers(modifiers []string, fn func() error) error {
	var pressed []string
	var err error
	for _, m := range modifiers {
		if err = r.s.platform.KeyDown(m); err != nil {
			break
		}
		pressed = append(pressed, m)
	}
	if err == nil {
		err = fn()
	}
	for i := len(pressed) - 1; i >= 0; i-- {
		err = errors.Join(err, r.s.platform.KeyUp(pressed[i]))
	}
	return err
}

func sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
