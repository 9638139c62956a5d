package cursor

import (
	"testing"
)

// fakeDisplay records display-layer calls and serves scripted pointer
// state.
type fakeDisplay struct {
	x, y    int16
	win     uint32
	ok      bool
	keys    [32]byte
	screenW int
	screenH int

	hideCalls int
	showCalls int
	warps     [][2]int16
	rearms    int
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{ok: true, screenW: 1920, screenH: 1080}
}

func (f *fakeDisplay) PointerPosition() (int16, int16, uint32, bool, error) {
	return f.x, f.y, f.win, f.ok, nil
}

func (f *fakeDisplay) WindowGeometry(win uint32) (int, int, int, int, error) {
	return 100, 200, 640, 480, nil
}

func (f *fakeDisplay) ScreenSize() (int, int) {
	return f.screenW, f.screenH
}

func (f *fakeDisplay) WarpPointer(x, y int16) error {
	f.warps = append(f.warps, [2]int16{x, y})
	f.x, f.y = x, y
	return nil
}

func (f *fakeDisplay) HideCursor() error {
	f.hideCalls++
	return nil
}

func (f *fakeDisplay) ShowCursor() error {
	f.showCalls++
	return nil
}

func (f *fakeDisplay) KeyboardState() ([32]byte, error) {
	return f.keys, nil
}

func (f *fakeDisplay) RearmIdleAlarm() error {
	f.rearms++
	return nil
}

// fakeMods reports a fixed held state.
type fakeMods struct {
	held bool
}

func (m *fakeMods) HeldIgnored(keys [32]byte, ignored uint16) bool {
	return m.held
}

func TestKeystrokeThreshold(t *testing.T) {
	disp := newFakeDisplay()
	e := NewEngine(disp, &fakeMods{}, Options{KeystrokeThreshold: 5})

	for i := 0; i < 4; i++ {
		if err := e.HandleKeyPress(30); err != nil {
			t.Fatalf("HandleKeyPress failed: %v", err)
		}
	}
	if disp.hideCalls != 0 {
		t.Errorf("hide fired before threshold: %d calls", disp.hideCalls)
	}

	if err := e.HandleKeyPress(30); err != nil {
		t.Fatalf("HandleKeyPress failed: %v", err)
	}
	if disp.hideCalls != 1 {
		t.Errorf("expected exactly one hide at threshold, got %d", disp.hideCalls)
	}
	if !e.Hidden() {
		t.Error("engine should be hidden after threshold")
	}

	// A 6th press with no intervening show must not re-trigger hide.
	if err := e.HandleKeyPress(30); err != nil {
		t.Fatalf("HandleKeyPress failed: %v", err)
	}
	if disp.hideCalls != 1 {
		t.Errorf("hide re-triggered while hidden: %d calls", disp.hideCalls)
	}
}

func TestModifierSuppression(t *testing.T) {
	disp := newFakeDisplay()
	e := NewEngine(disp, &fakeMods{held: true}, Options{
		KeystrokeThreshold: 1,
		IgnoredModifiers:   0x4, // control
	})

	if err := e.HandleKeyPress(30); err != nil {
		t.Fatalf("HandleKeyPress failed: %v", err)
	}
	if e.keystrokes != 0 {
		t.Errorf("suppressed keystroke incremented counter to %d", e.keystrokes)
	}
	if disp.hideCalls != 0 {
		t.Errorf("hide fired despite held ignored modifier: %d calls", disp.hideCalls)
	}
}

func TestJitterSuppression(t *testing.T) {
	disp := newFakeDisplay()
	e := NewEngine(disp, &fakeMods{}, Options{KeystrokeThreshold: 1, Jitter: 20})

	disp.x, disp.y = 100, 100
	if err := e.HandleKeyPress(30); err != nil {
		t.Fatalf("HandleKeyPress failed: %v", err)
	}
	if !e.Hidden() {
		t.Fatal("expected hidden after keystroke")
	}

	// 10px in x, 0 in y: below threshold on both axes.
	disp.x = 110
	if err := e.HandleMotion(); err != nil {
		t.Fatalf("HandleMotion failed: %v", err)
	}
	if !e.Hidden() {
		t.Error("jittery motion unhid the cursor")
	}
	if disp.showCalls != 0 {
		t.Errorf("show call issued for jittery motion: %d", disp.showCalls)
	}

	// 25px in x: intentional movement.
	disp.x = 125
	if err := e.HandleMotion(); err != nil {
		t.Fatalf("HandleMotion failed: %v", err)
	}
	if e.Hidden() {
		t.Error("intentional motion did not unhide the cursor")
	}
	if disp.showCalls != 1 {
		t.Errorf("expected one show call, got %d", disp.showCalls)
	}
}

func TestShowSideEffectsBeforeJitterCheck(t *testing.T) {
	disp := newFakeDisplay()
	e := NewEngine(disp, &fakeMods{}, Options{
		KeystrokeThreshold: 5,
		Jitter:             20,
		IdleAlarm:          true,
	})

	disp.x, disp.y = 100, 100
	for i := 0; i < 5; i++ {
		if err := e.HandleKeyPress(30); err != nil {
			t.Fatalf("HandleKeyPress failed: %v", err)
		}
	}
	if !e.Hidden() {
		t.Fatal("expected hidden")
	}

	// Micro-movement: visibility stays Hidden, but the counter resets
	// and the idle alarm rearms anyway.
	disp.x = 105
	if err := e.HandleMotion(); err != nil {
		t.Fatalf("HandleMotion failed: %v", err)
	}
	if !e.Hidden() {
		t.Error("jittery motion unhid the cursor")
	}
	if e.keystrokes != 0 {
		t.Errorf("keystroke counter not reset on suppressed show: %d", e.keystrokes)
	}
	if disp.rearms != 1 {
		t.Errorf("idle alarm not rearmed on suppressed show: %d rearms", disp.rearms)
	}
}

func TestAlwaysHideInvariant(t *testing.T) {
	disp := newFakeDisplay()
	e := NewEngine(disp, &fakeMods{}, Options{AlwaysHide: true, KeystrokeThreshold: 1})

	if err := e.Hide(); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}

	if err := e.HandleMotion(); err != nil {
		t.Fatalf("HandleMotion failed: %v", err)
	}
	if err := e.HandleButtonPress(); err != nil {
		t.Fatalf("HandleButtonPress failed: %v", err)
	}
	if err := e.HandleScroll(); err != nil {
		t.Fatalf("HandleScroll failed: %v", err)
	}

	if !e.Hidden() {
		t.Error("always-hide cursor became visible through input")
	}
	if disp.showCalls != 0 {
		t.Errorf("show call issued in always-hide mode: %d", disp.showCalls)
	}
}

func TestIdempotentVisibility(t *testing.T) {
	disp := newFakeDisplay()
	e := NewEngine(disp, &fakeMods{}, Options{KeystrokeThreshold: 1})

	if err := e.Show(); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if disp.showCalls != 0 {
		t.Errorf("show while visible issued a display call: %d", disp.showCalls)
	}

	if err := e.Hide(); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	if err := e.Hide(); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	if disp.hideCalls != 1 {
		t.Errorf("hide while hidden issued a display call: %d calls", disp.hideCalls)
	}
}

func TestRelocationScreenNE(t *testing.T) {
	disp := newFakeDisplay()
	reloc, err := ParseRelocation("ne")
	if err != nil {
		t.Fatalf("ParseRelocation failed: %v", err)
	}
	e := NewEngine(disp, &fakeMods{}, Options{KeystrokeThreshold: 1, Relocation: reloc})

	disp.x, disp.y = 500, 500
	if err := e.Hide(); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	if len(disp.warps) != 1 || disp.warps[0] != [2]int16{1920, 0} {
		t.Errorf("expected warp to (1920, 0), got %v", disp.warps)
	}

	if err := e.Show(); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if len(disp.warps) != 2 || disp.warps[1] != [2]int16{500, 500} {
		t.Errorf("expected restore warp to (500, 500), got %v", disp.warps)
	}
	if disp.showCalls != 1 {
		t.Errorf("expected one show call, got %d", disp.showCalls)
	}
}

func TestRelocationWindowCorner(t *testing.T) {
	disp := newFakeDisplay()
	disp.win = 7
	reloc, err := ParseRelocation("wse")
	if err != nil {
		t.Fatalf("ParseRelocation failed: %v", err)
	}
	e := NewEngine(disp, &fakeMods{}, Options{KeystrokeThreshold: 1, Relocation: reloc})

	if err := e.Hide(); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	// Window at (100, 200), 640x480.
	if len(disp.warps) != 1 || disp.warps[0] != [2]int16{740, 680} {
		t.Errorf("expected warp to (740, 680), got %v", disp.warps)
	}
}

func TestRelocationCustomAnchors(t *testing.T) {
	disp := newFakeDisplay()
	reloc, err := ParseRelocation("-10+5")
	if err != nil {
		t.Fatalf("ParseRelocation failed: %v", err)
	}
	e := NewEngine(disp, &fakeMods{}, Options{KeystrokeThreshold: 1, Relocation: reloc})

	if err := e.Hide(); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	// -10 anchors to the right edge: 1920-10; +5 from the top.
	if len(disp.warps) != 1 || disp.warps[0] != [2]int16{1910, 5} {
		t.Errorf("expected warp to (1910, 5), got %v", disp.warps)
	}
}

func TestRelocationSkipsRestoreWhenQueryFailed(t *testing.T) {
	disp := newFakeDisplay()
	reloc, err := ParseRelocation("nw")
	if err != nil {
		t.Fatalf("ParseRelocation failed: %v", err)
	}
	e := NewEngine(disp, &fakeMods{}, Options{KeystrokeThreshold: 1, Relocation: reloc})

	disp.ok = false
	if err := e.Hide(); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	if len(disp.warps) != 0 {
		t.Errorf("warped despite failed pointer query: %v", disp.warps)
	}
	if disp.hideCalls != 1 {
		t.Errorf("expected hide despite failed pointer query, got %d calls", disp.hideCalls)
	}

	disp.ok = true
	if err := e.Show(); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if len(disp.warps) != 0 {
		t.Errorf("restore warp issued without a recorded position: %v", disp.warps)
	}
	if disp.showCalls != 1 {
		t.Errorf("expected one show call, got %d", disp.showCalls)
	}
}

func TestScrollIgnore(t *testing.T) {
	disp := newFakeDisplay()
	e := NewEngine(disp, &fakeMods{}, Options{KeystrokeThreshold: 1, IgnoreScroll: true})

	if err := e.Hide(); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	if err := e.HandleScroll(); err != nil {
		t.Fatalf("HandleScroll failed: %v", err)
	}
	if !e.Hidden() {
		t.Error("scroll unhid the cursor despite ignore-scroll")
	}

	e2 := NewEngine(disp, &fakeMods{}, Options{KeystrokeThreshold: 1})
	if err := e2.Hide(); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	if err := e2.HandleScroll(); err != nil {
		t.Fatalf("HandleScroll failed: %v", err)
	}
	if e2.Hidden() {
		t.Error("scroll did not unhide the cursor")
	}
}

func TestEndToEnd(t *testing.T) {
	disp := newFakeDisplay()
	e := NewEngine(disp, &fakeMods{}, Options{KeystrokeThreshold: 1})

	if err := e.HandleKeyPress(30); err != nil {
		t.Fatalf("HandleKeyPress failed: %v", err)
	}
	if disp.hideCalls != 1 {
		t.Fatalf("expected exactly one hide call, got %d", disp.hideCalls)
	}

	if err := e.HandleMotion(); err != nil {
		t.Fatalf("HandleMotion failed: %v", err)
	}
	if disp.showCalls != 1 {
		t.Errorf("expected exactly one show call, got %d", disp.showCalls)
	}
	if e.keystrokes != 0 {
		t.Errorf("keystroke counter not reset after show: %d", e.keystrokes)
	}
}
