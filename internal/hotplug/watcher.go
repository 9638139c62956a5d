// Package hotplug surfaces udev add/remove notifications for input
// devices.
package hotplug

import (
	"context"
	"fmt"

	udev "github.com/jochenvg/go-udev"

	"github.com/bnema/banishd/internal/logger"
)

// Action is the kind of device change udev reported.
type Action int

const (
	ActionAdd Action = iota
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is one device change: the action and the device node path.
type Event struct {
	Action Action
	Path   string
}

// Watcher listens on the udev netlink socket for input-subsystem
// device changes.
type Watcher struct {
	monitor *udev.Monitor
}

// New creates a watcher filtered to the input subsystem.
func New() (*Watcher, error) {
	u := udev.Udev{}
	monitor := u.NewMonitorFromNetlink("udev")
	if monitor == nil {
		return nil, fmt.Errorf("cannot create udev netlink monitor")
	}
	if err := monitor.FilterAddMatchSubsystem("input"); err != nil {
		return nil, fmt.Errorf("cannot filter udev input subsystem: %w", err)
	}
	return &Watcher{monitor: monitor}, nil
}

// Events starts receiving and returns the translated change channel.
// The channel closes when ctx is cancelled. Devices without a device
// node (sysfs-only input entries) are dropped here.
func (w *Watcher) Events(ctx context.Context) (<-chan Event, error) {
	devices, err := w.monitor.DeviceChan(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot start udev monitor: %w", err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for d := range devices {
			node := d.Devnode()
			if node == "" {
				continue
			}

			var action Action
			switch d.Action() {
			case "add":
				action = ActionAdd
			case "remove":
				action = ActionRemove
			default:
				continue
			}

			logger.Debugf("udev %s: %s", action, node)
			select {
			case out <- Event{Action: action, Path: node}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
