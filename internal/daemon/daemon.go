// Package daemon wires the display, device registry, hotplug watcher
// and visibility engine together and runs the event loop.
package daemon

import (
	"context"
	"fmt"
	"time"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/jezek/xgb"

	"github.com/bnema/banishd/internal/config"
	"github.com/bnema/banishd/internal/cursor"
	"github.com/bnema/banishd/internal/device"
	"github.com/bnema/banishd/internal/hotplug"
	"github.com/bnema/banishd/internal/logger"
	"github.com/bnema/banishd/internal/x11"
)

// visibility is the slice of the cursor engine the dispatcher drives.
type visibility interface {
	HandleKeyPress(code uint16) error
	HandleMotion() error
	HandleButtonPress() error
	HandleScroll() error
	HandleIdleTimeout() error
	Hide() error
}

// sourceEvent is one input record tagged with its originating source.
type sourceEvent struct {
	src *device.Source
	ev  evdev.InputEvent
}

// Daemon owns the device registry and drives everything from a single
// dispatch goroutine. Per-source readers pump raw events into one
// merged channel; all state mutation happens on the loop goroutine.
type Daemon struct {
	cfg      *config.Config
	display  *x11.Display
	engine   visibility
	registry *device.Registry
	watcher  *hotplug.Watcher

	idleAlarm bool
	inputDir  string

	events chan sourceEvent
	gone   chan string
}

// New connects to the display, validates the idle-alarm requirements,
// builds the modifier map and assembles the daemon. Failures here are
// the fatal startup class: an unusable configuration.
func New(cfg *config.Config) (*Daemon, error) {
	display, err := x11.Open("")
	if err != nil {
		return nil, err
	}

	idleAlarm := cfg.Hide.IdleTimeout > 0
	if idleAlarm {
		if err := display.InitIdleAlarm(time.Duration(cfg.Hide.IdleTimeout) * time.Second); err != nil {
			display.Close()
			return nil, err
		}
	}

	modmap, err := display.ModifierMapping()
	if err != nil {
		display.Close()
		return nil, err
	}

	ignored, err := x11.ParseModifierMask(cfg.Hide.IgnoredModifiers)
	if err != nil {
		display.Close()
		return nil, err
	}

	var reloc *cursor.Relocation
	if cfg.Hide.Relocate != "" {
		reloc, err = cursor.ParseRelocation(cfg.Hide.Relocate)
		if err != nil {
			display.Close()
			return nil, err
		}
	}

	engine := cursor.NewEngine(display, modmap, cursor.Options{
		AlwaysHide:         cfg.Hide.AlwaysHide,
		KeystrokeThreshold: cfg.Hide.KeystrokeThreshold,
		IgnoredModifiers:   ignored,
		Jitter:             cfg.Hide.Jitter,
		Relocation:         reloc,
		IdleAlarm:          idleAlarm,
		IgnoreScroll:       cfg.Hide.IgnoreScroll,
	})

	watcher, err := hotplug.New()
	if err != nil {
		display.Close()
		return nil, err
	}

	return &Daemon{
		cfg:       cfg,
		display:   display,
		engine:    engine,
		registry:  device.NewRegistry(nil),
		watcher:   watcher,
		idleAlarm: idleAlarm,
		inputDir:  device.InputDir,
		events:    make(chan sourceEvent, 256),
		gone:      make(chan string, 16),
	}, nil
}

// Run drives the daemon until ctx is cancelled or a fatal display
// error occurs.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.registry.Close()
	defer d.display.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	added := d.registry.Scan(d.inputDir)
	if d.registry.Len() == 0 {
		logger.Warnf("no input devices found in %s (check permissions?)", d.inputDir)
	}
	for _, src := range added {
		d.startReader(ctx, src)
	}

	if d.cfg.Hide.AlwaysHide {
		if err := d.engine.Hide(); err != nil {
			return err
		}
	}

	hotplugEvents, err := d.watcher.Events(ctx)
	if err != nil {
		return err
	}
	xEvents := d.display.Events()

	logger.Info("banishd running",
		"keyboards", len(d.registry.Keyboards()),
		"pointers", len(d.registry.Pointers()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-d.display.Fatal():
			return err
		case ev, ok := <-xEvents:
			if !ok {
				return fmt.Errorf("display connection closed")
			}
			if err := d.handleXEvent(ev); err != nil {
				return err
			}
		case hev := <-hotplugEvents:
			d.handleHotplug(ctx, hev)
		case se := <-d.events:
			if err := d.dispatchInput(se); err != nil {
				return err
			}
		case path := <-d.gone:
			d.registry.Remove(path)
		}

		// Drain whatever else is already pending, display events
		// first, then hotplug, then input. The fixed order resolves
		// concurrent readiness within one wake cycle.
		if err := d.drain(ctx, xEvents, hotplugEvents); err != nil {
			return err
		}
	}
}

func (d *Daemon) drain(ctx context.Context, xEvents <-chan xgb.Event, hotplugEvents <-chan hotplug.Event) error {
	for {
		select {
		case ev, ok := <-xEvents:
			if !ok {
				return fmt.Errorf("display connection closed")
			}
			if err := d.handleXEvent(ev); err != nil {
				return err
			}
			continue
		default:
		}
		break
	}

	for {
		select {
		case hev := <-hotplugEvents:
			d.handleHotplug(ctx, hev)
			continue
		default:
		}
		break
	}

	for {
		select {
		case se := <-d.events:
			if err := d.dispatchInput(se); err != nil {
				return err
			}
			continue
		case path := <-d.gone:
			d.registry.Remove(path)
			continue
		default:
		}
		break
	}

	return nil
}

func (d *Daemon) handleXEvent(ev xgb.Event) error {
	if d.idleAlarm && x11.IsAlarmNotify(ev) {
		return d.engine.HandleIdleTimeout()
	}
	return nil
}

func (d *Daemon) handleHotplug(ctx context.Context, ev hotplug.Event) {
	switch ev.Action {
	case hotplug.ActionAdd:
		if src := d.registry.Add(ev.Path); src != nil {
			d.startReader(ctx, src)
		}
	case hotplug.ActionRemove:
		d.registry.Remove(ev.Path)
	}
}

// startReader drains src with blocking reads until the descriptor
// fails, then reports the source for removal. Closing the descriptor
// (explicit removal or unplug) is what ends the reader.
func (d *Daemon) startReader(ctx context.Context, src *device.Source) {
	go func() {
		for {
			events, err := src.Read()
			if err != nil {
				select {
				case d.gone <- src.Path:
				case <-ctx.Done():
				}
				return
			}
			for _, ev := range events {
				select {
				case d.events <- sourceEvent{src: src, ev: ev}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

// dispatchInput routes one raw record. Keyboards count press edges
// only; pointers unhide on motion, absolute position and button press,
// with wheel codes routed through the scroll path.
func (d *Daemon) dispatchInput(se sourceEvent) error {
	switch se.src.Role {
	case device.RoleKeyboard:
		if se.ev.Type == evdev.EV_KEY && se.ev.Value == 1 {
			return d.engine.HandleKeyPress(se.ev.Code)
		}
	case device.RolePointer:
		switch se.ev.Type {
		case evdev.EV_REL:
			if se.ev.Code == evdev.REL_WHEEL || se.ev.Code == evdev.REL_HWHEEL {
				return d.engine.HandleScroll()
			}
			return d.engine.HandleMotion()
		case evdev.EV_ABS:
			return d.engine.HandleMotion()
		case evdev.EV_KEY:
			if se.ev.Value == 1 {
				return d.engine.HandleButtonPress()
			}
		}
	}
	return nil
}
