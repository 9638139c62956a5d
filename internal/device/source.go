// Package device discovers and owns the evdev input sources the daemon
// listens on.
package device

import (
	"os"

	evdev "github.com/gvalkov/golang-evdev"
)

// InputDir is where the kernel exposes evdev device nodes.
const InputDir = "/dev/input"

// Role is what an input source behaves as.
type Role int

const (
	RoleKeyboard Role = iota
	RolePointer
)

func (r Role) String() string {
	switch r {
	case RoleKeyboard:
		return "keyboard"
	case RolePointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// Source is one open handle to a physical input device. A Source is
// created by Classify and owned by the Registry until removal.
type Source struct {
	Path string
	Name string
	Role Role

	dev *evdev.InputDevice
}

// Read drains the currently available events from the device. A read
// error means the descriptor is gone (unplugged or closed) and the
// source should be removed.
func (s *Source) Read() ([]evdev.InputEvent, error) {
	if s.dev == nil {
		return nil, os.ErrClosed
	}
	return s.dev.Read()
}

// Close releases the underlying descriptor. Closing unblocks any
// pending Read.
func (s *Source) Close() error {
	if s.dev == nil {
		return nil
	}
	return s.dev.File.Close()
}
