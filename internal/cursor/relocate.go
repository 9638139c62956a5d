package cursor

import (
	"fmt"
	"strconv"
)

// RelocationMode is where the pointer is warped at the moment of
// hiding.
type RelocationMode int

const (
	RelocateScreenNW RelocationMode = iota + 1
	RelocateScreenNE
	RelocateScreenSW
	RelocateScreenSE
	RelocateWindowNW
	RelocateWindowNE
	RelocateWindowSW
	RelocateWindowSE
	RelocateCustom
)

// Relocation is a parsed -m argument: a screen corner, a corner of the
// window under the pointer, or a signed offset. Negative-anchored axes
// are measured from the far screen edge, matching X geometry strings.
type Relocation struct {
	Mode RelocationMode

	OffsetX, OffsetY         int
	AnchorRight, AnchorBottom bool
}

var cornerModes = map[string]RelocationMode{
	"nw":  RelocateScreenNW,
	"ne":  RelocateScreenNE,
	"sw":  RelocateScreenSW,
	"se":  RelocateScreenSE,
	"wnw": RelocateWindowNW,
	"wne": RelocateWindowNE,
	"wsw": RelocateWindowSW,
	"wse": RelocateWindowSE,
}

// ParseRelocation accepts a corner keyword or an offset string like
// "+10+20" or "-1-1" (both axes sign-prefixed).
func ParseRelocation(s string) (*Relocation, error) {
	if mode, ok := cornerModes[s]; ok {
		return &Relocation{Mode: mode}, nil
	}
	return parseOffset(s)
}

func parseOffset(s string) (*Relocation, error) {
	x, xneg, rest, err := parseSigned(s)
	if err != nil {
		return nil, fmt.Errorf("invalid relocation %q: %w", s, err)
	}
	y, yneg, rest, err := parseSigned(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid relocation %q: %w", s, err)
	}
	if rest != "" {
		return nil, fmt.Errorf("invalid relocation %q: trailing %q", s, rest)
	}
	return &Relocation{
		Mode:         RelocateCustom,
		OffsetX:      x,
		OffsetY:      y,
		AnchorRight:  xneg,
		AnchorBottom: yneg,
	}, nil
}

// parseSigned consumes one sign-prefixed integer off the front of s.
// The sign is mandatory; "-0" still anchors to the far edge.
func parseSigned(s string) (val int, neg bool, rest string, err error) {
	if s == "" {
		return 0, false, "", fmt.Errorf("missing coordinate")
	}
	switch s[0] {
	case '+':
	case '-':
		neg = true
	default:
		return 0, false, "", fmt.Errorf("coordinate must start with + or -")
	}
	i := 1
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 1 {
		return 0, false, "", fmt.Errorf("missing digits")
	}
	val, err = strconv.Atoi(s[1:i])
	if err != nil {
		return 0, false, "", err
	}
	if neg {
		val = -val
	}
	return val, neg, s[i:], nil
}
