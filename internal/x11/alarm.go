package x11

import (
	"fmt"
	"time"

	xsync "github.com/jezek/xgb/sync"

	"github.com/bnema/banishd/internal/logger"
)

// InitIdleAlarm prepares the SYNC extension and locates the IDLETIME
// system counter. Both are required when an idle timeout is
// configured; their absence is a fatal startup condition.
func (d *Display) InitIdleAlarm(timeout time.Duration) error {
	if err := xsync.Init(d.conn); err != nil {
		return fmt.Errorf("no sync extension available: %w", err)
	}
	if _, err := xsync.Initialize(d.conn, 3, 1).Reply(); err != nil {
		return fmt.Errorf("sync initialize failed: %w", err)
	}

	counters, err := xsync.ListSystemCounters(d.conn).Reply()
	if err != nil {
		return fmt.Errorf("list system counters: %w", err)
	}
	for _, c := range counters.Counters {
		if c.Name == "IDLETIME" {
			d.idleCounter = c.Counter
			break
		}
	}
	if d.idleCounter == 0 {
		return fmt.Errorf("no idle counter")
	}

	d.idleTimeout = timeout
	return nil
}

// RearmIdleAlarm destroys any pending idle alarm and arms a fresh
// one-shot comparison against the configured timeout, restarting the
// idle countdown. A no-op when no idle timeout was configured.
func (d *Display) RearmIdleAlarm() error {
	if d.idleCounter == 0 {
		return nil
	}

	if d.idleAlarm != 0 {
		xsync.DestroyAlarm(d.conn, d.idleAlarm)
		d.idleAlarm = 0
	}

	id, err := xsync.NewAlarmId(d.conn)
	if err != nil {
		return fmt.Errorf("allocate alarm id: %w", err)
	}

	wait := uint64(d.idleTimeout / time.Millisecond)
	mask := uint32(xsync.CaCounter | xsync.CaValueType | xsync.CaValue |
		xsync.CaTestType | xsync.CaDelta)
	// INT64 entries occupy two CARD32 slots, high word first.
	values := []uint32{
		uint32(d.idleCounter),
		xsync.ValuetypeRelative,
		uint32(wait >> 32), uint32(wait),
		xsync.TesttypePositiveComparison,
		0, 0,
	}

	if err := xsync.CreateAlarmChecked(d.conn, id, mask, values).Check(); err != nil {
		if IsBenign(err) {
			logger.Debugf("arming idle alarm failed: %v", err)
			return nil
		}
		return fmt.Errorf("create idle alarm: %w", err)
	}

	d.idleAlarm = id
	return nil
}
