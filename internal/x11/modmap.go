package x11

import (
	"fmt"
	"strings"

	"github.com/jezek/xgb/xproto"
)

const modifierCount = 8

var (
	modifierNames = [modifierCount]string{
		"shift", "lock", "control", "mod1", "mod2", "mod3", "mod4", "mod5",
	}
	modifierMasks = [modifierCount]uint16{
		xproto.ModMaskShift, xproto.ModMaskLock, xproto.ModMaskControl,
		xproto.ModMask1, xproto.ModMask2, xproto.ModMask3,
		xproto.ModMask4, xproto.ModMask5,
	}
)

// ModifierMap is a snapshot of which physical keycodes realize each of
// the eight logical modifiers. Built once at startup and immutable; if
// the user remaps modifiers later the daemon's filtering goes stale
// until restart.
type ModifierMap struct {
	entries [modifierCount]modEntry
}

type modEntry struct {
	name     string
	mask     uint16
	keycodes []xproto.Keycode
}

// newModifierMap collects the non-zero keycode bindings out of a
// GetModifierMapping reply laid out as eight rows of perMod keycodes.
func newModifierMap(perMod int, keycodes []xproto.Keycode) *ModifierMap {
	m := &ModifierMap{}
	for i := 0; i < modifierCount; i++ {
		entry := modEntry{name: modifierNames[i], mask: modifierMasks[i]}
		for j := 0; j < perMod; j++ {
			if kc := keycodes[i*perMod+j]; kc != 0 {
				entry.keycodes = append(entry.keycodes, kc)
			}
		}
		m.entries[i] = entry
	}
	return m
}

// HeldIgnored reports whether any keycode bound to a modifier in
// ignored is currently down in the keymap snapshot. This answers
// "should this keystroke be suppressed because an ignored modifier is
// held right now", not whether the pressed key is itself a modifier.
func (m *ModifierMap) HeldIgnored(keys [32]byte, ignored uint16) bool {
	for _, entry := range m.entries {
		if entry.mask&ignored == 0 {
			continue
		}
		for _, kc := range entry.keycodes {
			if keys[kc>>3]>>(kc&7)&1 == 1 {
				return true
			}
		}
	}
	return false
}

// ParseModifierMask translates the -i selector names into a modifier
// bitmask. "all" selects every modifier except mod2, which is usually
// numlock and would otherwise suppress all counting on keyboards left
// with numlock on.
func ParseModifierMask(names []string) (uint16, error) {
	var mask uint16
	for _, name := range names {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "all" {
			for _, m := range modifierMasks {
				mask |= m
			}
			mask &^= xproto.ModMask2
			continue
		}
		matched := false
		for i, known := range modifierNames {
			if lower == known {
				mask |= modifierMasks[i]
				matched = true
				break
			}
		}
		if !matched {
			return 0, fmt.Errorf("unknown modifier %q", name)
		}
	}
	return mask, nil
}
