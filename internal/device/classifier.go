package device

import (
	"errors"

	evdev "github.com/gvalkov/golang-evdev"
)

// ErrNotApplicable reports a device that is neither a keyboard nor a
// pointer (power buttons, lid switches, accelerometers).
var ErrNotApplicable = errors.New("device is neither keyboard nor pointer")

// Classify opens path and decides from its capability bitmaps whether
// it behaves as a keyboard or a pointing device. On acceptance the
// descriptor stays open inside the returned Source; on rejection it is
// closed before returning. All failures are non-fatal to the caller.
//
// A keyboard must report EV_KEY events and specifically the space key,
// which filters out single-key devices such as power buttons. A
// pointer must report relative or absolute motion plus a mouse or
// touch button.
func Classify(path string) (*Source, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}

	types := make(map[int]bool)
	keys := make(map[int]bool)
	for capType, codes := range dev.Capabilities {
		types[capType.Type] = true
		if capType.Type == evdev.EV_KEY {
			for _, code := range codes {
				keys[code.Code] = true
			}
		}
	}

	if types[evdev.EV_KEY] && keys[evdev.KEY_SPACE] {
		return &Source{Path: path, Name: dev.Name, Role: RoleKeyboard, dev: dev}, nil
	}

	if (types[evdev.EV_REL] || types[evdev.EV_ABS]) &&
		(keys[evdev.BTN_MOUSE] || keys[evdev.BTN_TOUCH]) {
		return &Source{Path: path, Name: dev.Name, Role: RolePointer, dev: dev}, nil
	}

	if err := dev.File.Close(); err != nil {
		return nil, err
	}
	return nil, ErrNotApplicable
}
