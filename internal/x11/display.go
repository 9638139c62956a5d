// Package x11 wraps the X connection the daemon drives: pointer and
// keymap queries, XFixes cursor visibility, and the SYNC idle alarm.
package x11

import (
	"fmt"
	"sync"
	"time"

	"github.com/jezek/xgb"
	xsync "github.com/jezek/xgb/sync"
	"github.com/jezek/xgb/xfixes"
	"github.com/jezek/xgb/xproto"

	"github.com/bnema/banishd/internal/logger"
)

// Display is the single X server connection. Requests are issued
// checked, so every call reports its own error instead of going
// through a global error handler; the benign window-vanished races are
// swallowed here and everything else is returned for the caller to
// treat as fatal.
type Display struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	root   xproto.Window

	events chan xgb.Event
	fatal  chan error
	pump   sync.Once

	idleCounter xsync.Counter
	idleAlarm   xsync.Alarm
	idleTimeout time.Duration
}

// Open connects to the display (empty means $DISPLAY) and initializes
// the XFixes extension the cursor calls need.
func Open(display string) (*Display, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("can't open display: %w", err)
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)

	if err := xfixes.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("xfixes extension unavailable: %w", err)
	}
	// The version handshake must precede any other XFixes request.
	if _, err := xfixes.QueryVersion(conn, 4, 0).Reply(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("xfixes version handshake failed: %w", err)
	}

	return &Display{
		conn:   conn,
		screen: screen,
		root:   screen.Root,
		events: make(chan xgb.Event, 64),
		fatal:  make(chan error, 1),
	}, nil
}

// Close shuts the connection down, which also ends the event pump.
func (d *Display) Close() {
	d.conn.Close()
}

// IsBenign reports whether an X error belongs to the allow-list of
// races a cursor daemon tolerates: a window disappearing between query
// and use. Anything else indicates protocol desynchronization.
func IsBenign(err error) bool {
	switch err.(type) {
	case xproto.WindowError, xproto.DrawableError, xproto.MatchError:
		return true
	}
	return false
}

// Events returns the connection's event stream, starting the pump on
// first use. The channel closes when the connection does.
func (d *Display) Events() <-chan xgb.Event {
	d.pump.Do(func() { go d.pumpEvents() })
	return d.events
}

// Fatal yields at most one unrecoverable display error.
func (d *Display) Fatal() <-chan error {
	return d.fatal
}

func (d *Display) pumpEvents() {
	defer close(d.events)
	for {
		ev, err := d.conn.WaitForEvent()
		if ev == nil && err == nil {
			return
		}
		if err != nil {
			// Stray errors from unchecked requests land here.
			if IsBenign(err) {
				logger.Debugf("ignoring X error: %v", err)
				continue
			}
			select {
			case d.fatal <- fmt.Errorf("X error: %w", err):
			default:
			}
			return
		}
		d.events <- ev
	}
}

// IsAlarmNotify reports whether ev is a SYNC alarm notification.
func IsAlarmNotify(ev xgb.Event) bool {
	_, ok := ev.(xsync.AlarmNotifyEvent)
	return ok
}

// ScreenSize returns the root screen dimensions in pixels.
func (d *Display) ScreenSize() (width, height int) {
	return int(d.screen.WidthInPixels), int(d.screen.HeightInPixels)
}

// PointerPosition queries the pointer's root-relative position and the
// child window under it. ok mirrors the server's same-screen flag; a
// benign query failure also reports ok=false with a nil error.
func (d *Display) PointerPosition() (x, y int16, win uint32, ok bool, err error) {
	reply, qerr := xproto.QueryPointer(d.conn, d.root).Reply()
	if qerr != nil {
		if IsBenign(qerr) {
			logger.Debugf("pointer query failed: %v", qerr)
			return 0, 0, 0, false, nil
		}
		return 0, 0, 0, false, fmt.Errorf("query pointer: %w", qerr)
	}
	return reply.RootX, reply.RootY, uint32(reply.Child), reply.SameScreen, nil
}

// WindowGeometry returns win's geometry. A vanished window (benign
// error) or the zero window yields zero geometry, matching what the
// relocation math expects.
func (d *Display) WindowGeometry(win uint32) (x, y, width, height int, err error) {
	if win == 0 {
		return 0, 0, 0, 0, nil
	}
	reply, gerr := xproto.GetGeometry(d.conn, xproto.Drawable(win)).Reply()
	if gerr != nil {
		if IsBenign(gerr) {
			logger.Debugf("window geometry query failed: %v", gerr)
			return 0, 0, 0, 0, nil
		}
		return 0, 0, 0, 0, fmt.Errorf("get geometry: %w", gerr)
	}
	return int(reply.X), int(reply.Y), int(reply.Width), int(reply.Height), nil
}

// WarpPointer moves the pointer to root coordinates (x, y).
func (d *Display) WarpPointer(x, y int16) error {
	err := xproto.WarpPointerChecked(d.conn, xproto.Window(0), d.root, 0, 0, 0, 0, x, y).Check()
	if err != nil {
		if IsBenign(err) {
			logger.Debugf("warp pointer failed: %v", err)
			return nil
		}
		return fmt.Errorf("warp pointer: %w", err)
	}
	return nil
}

// HideCursor hides the cursor on the root window.
func (d *Display) HideCursor() error {
	if err := xfixes.HideCursorChecked(d.conn, d.root).Check(); err != nil {
		return fmt.Errorf("hide cursor: %w", err)
	}
	return nil
}

// ShowCursor shows the cursor on the root window.
func (d *Display) ShowCursor() error {
	if err := xfixes.ShowCursorChecked(d.conn, d.root).Check(); err != nil {
		return fmt.Errorf("show cursor: %w", err)
	}
	return nil
}

// KeyboardState snapshots the server's 256-bit pressed-key vector.
func (d *Display) KeyboardState() ([32]byte, error) {
	var keys [32]byte
	reply, err := xproto.QueryKeymap(d.conn).Reply()
	if err != nil {
		return keys, fmt.Errorf("query keymap: %w", err)
	}
	copy(keys[:], reply.Keys)
	return keys, nil
}

// ModifierMapping builds the modifier map from the server's current
// modifier-to-keycode bindings. Queried once at startup; the daemon
// does not track later remapping.
func (d *Display) ModifierMapping() (*ModifierMap, error) {
	reply, err := xproto.GetModifierMapping(d.conn).Reply()
	if err != nil {
		return nil, fmt.Errorf("get modifier mapping: %w", err)
	}
	return newModifierMap(int(reply.KeycodesPerModifier), reply.Keycodes), nil
}
