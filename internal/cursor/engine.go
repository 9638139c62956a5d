// Package cursor implements the hide/show visibility state machine.
// The Engine is the sole mutator of cursor visibility; every display
// effect goes through the injected Display boundary so the logic is
// testable without an X server.
package cursor

import (
	"github.com/bnema/banishd/internal/logger"
)

// Display is the slice of the X connection the engine drives.
type Display interface {
	PointerPosition() (x, y int16, win uint32, ok bool, err error)
	WindowGeometry(win uint32) (x, y, width, height int, err error)
	ScreenSize() (width, height int)
	WarpPointer(x, y int16) error
	HideCursor() error
	ShowCursor() error
	KeyboardState() ([32]byte, error)
	RearmIdleAlarm() error
}

// ModifierChecker answers whether an ignored modifier is held in a
// keymap snapshot.
type ModifierChecker interface {
	HeldIgnored(keys [32]byte, ignored uint16) bool
}

// Options is the static configuration the engine is built with.
type Options struct {
	AlwaysHide         bool
	KeystrokeThreshold int
	IgnoredModifiers   uint16
	Jitter             int
	Relocation         *Relocation
	IdleAlarm          bool
	IgnoreScroll       bool
}

// Engine is the cursor visibility state machine. It is owned and
// driven by the event loop goroutine; no internal locking.
type Engine struct {
	disp Display
	mods ModifierChecker
	opts Options

	hiding     bool
	keystrokes int

	// Pointer position recorded at hide time, for the jitter check.
	hideX, hideY int16

	// Pre-relocation position to restore on show, when valid.
	restoreX, restoreY int16
	restoreValid       bool
}

// NewEngine builds the state machine. The initial state is Visible;
// callers wanting always-hide invoke Hide once at startup.
func NewEngine(disp Display, mods ModifierChecker, opts Options) *Engine {
	if opts.KeystrokeThreshold < 1 {
		opts.KeystrokeThreshold = 1
	}
	return &Engine{disp: disp, mods: mods, opts: opts}
}

// Hidden reports whether the last applied transition was a hide.
func (e *Engine) Hidden() bool {
	return e.hiding
}

// HandleKeyPress accounts one key-press edge. The full keyboard state
// is snapshotted and the keystroke is discarded when an ignored
// modifier is held at this moment; otherwise the counter advances and
// the hide fires at the threshold.
func (e *Engine) HandleKeyPress(code uint16) error {
	keys, err := e.disp.KeyboardState()
	if err != nil {
		return err
	}
	if e.opts.IgnoredModifiers != 0 && e.mods.HeldIgnored(keys, e.opts.IgnoredModifiers) {
		logger.Debugf("ignoring keystroke %d: ignored modifier held", code)
		return nil
	}
	e.keystrokes++
	if e.keystrokes >= e.opts.KeystrokeThreshold {
		return e.Hide()
	}
	return nil
}

// HandleMotion reacts to relative or absolute pointer movement.
func (e *Engine) HandleMotion() error {
	if e.opts.AlwaysHide {
		return nil
	}
	return e.Show()
}

// HandleButtonPress reacts to a pointer button press edge.
func (e *Engine) HandleButtonPress() error {
	if e.opts.AlwaysHide {
		return nil
	}
	return e.Show()
}

// HandleScroll reacts to wheel movement, which unhides unless scroll
// events are configured to be ignored.
func (e *Engine) HandleScroll() error {
	if e.opts.AlwaysHide || e.opts.IgnoreScroll {
		return nil
	}
	return e.Show()
}

// HandleIdleTimeout reacts to the idle alarm firing.
func (e *Engine) HandleIdleTimeout() error {
	logger.Debug("idle timeout reached, hiding cursor")
	return e.Hide()
}

// Hide transitions Visible -> Hidden. A no-op while already Hidden.
// The pre-hide pointer position is recorded for the jitter check; with
// a relocation configured the pointer is warped to its target first
// and the original position kept for restoration.
func (e *Engine) Hide() error {
	if e.hiding {
		return nil
	}

	x, y, win, ok, err := e.disp.PointerPosition()
	if err != nil {
		return err
	}
	if ok {
		e.hideX, e.hideY = x, y
		if r := e.opts.Relocation; r != nil {
			e.restoreX, e.restoreY = x, y
			e.restoreValid = true
			tx, ty, err := e.relocationTarget(r, win)
			if err != nil {
				return err
			}
			if err := e.disp.WarpPointer(tx, ty); err != nil {
				return err
			}
		}
	} else if e.opts.Relocation != nil {
		e.restoreValid = false
	}

	logger.Debug("hiding cursor")
	if err := e.disp.HideCursor(); err != nil {
		return err
	}
	e.hiding = true
	return nil
}

// Show transitions Hidden -> Visible. The keystroke counter reset and
// the idle alarm rearm happen on entry, before the jitter check, so
// both occur even when the transition itself ends up suppressed.
func (e *Engine) Show() error {
	e.keystrokes = 0
	if e.opts.IdleAlarm {
		if err := e.disp.RearmIdleAlarm(); err != nil {
			return err
		}
	}

	if !e.hiding {
		return nil
	}

	if e.opts.Jitter > 0 {
		x, y, _, ok, err := e.disp.PointerPosition()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if abs(int(x)-int(e.hideX)) < e.opts.Jitter &&
			abs(int(y)-int(e.hideY)) < e.opts.Jitter {
			// Movement within jitter threshold; ignore.
			return nil
		}
	}

	logger.Debug("unhiding cursor")
	if e.opts.Relocation != nil && e.restoreValid {
		if err := e.disp.WarpPointer(e.restoreX, e.restoreY); err != nil {
			return err
		}
	}
	if err := e.disp.ShowCursor(); err != nil {
		return err
	}
	e.hiding = false
	return nil
}

// relocationTarget computes where to warp the pointer for r, given the
// window under the pointer at hide time.
func (e *Engine) relocationTarget(r *Relocation, win uint32) (int16, int16, error) {
	sw, sh := e.disp.ScreenSize()

	switch r.Mode {
	case RelocateScreenNW:
		return 0, 0, nil
	case RelocateScreenNE:
		return int16(sw), 0, nil
	case RelocateScreenSW:
		return 0, int16(sh), nil
	case RelocateScreenSE:
		return int16(sw), int16(sh), nil

	case RelocateWindowNW, RelocateWindowNE, RelocateWindowSW, RelocateWindowSE:
		wx, wy, ww, wh, err := e.disp.WindowGeometry(win)
		if err != nil {
			return 0, 0, err
		}
		switch r.Mode {
		case RelocateWindowNW:
			return int16(wx), int16(wy), nil
		case RelocateWindowNE:
			return int16(wx + ww), int16(wy), nil
		case RelocateWindowSW:
			return int16(wx), int16(wy + wh), nil
		default:
			return int16(wx + ww), int16(wy + wh), nil
		}

	default: // RelocateCustom
		x, y := r.OffsetX, r.OffsetY
		if r.AnchorRight {
			x += sw
		}
		if r.AnchorBottom {
			y += sh
		}
		return int16(x), int16(y), nil
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
