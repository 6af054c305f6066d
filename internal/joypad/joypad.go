// Package joypad maps physical input (currently: a host keyboard) onto the
// JOYP button bitmask the bus expects. The bus itself only owns register
// storage and interrupt-edge detection (it is a hardware register like any
// other); this package is the host-facing half described separately from the
// core because it depends on a concrete input source rather than anything
// the CPU can observe directly.
package joypad

import "github.com/gbcore/gbcore/internal/bus"

// Buttons is the host's view of which physical buttons are currently held.
type Buttons struct {
	Up, Down, Left, Right bool
	A, B, Start, Select   bool
}

// Mask packs b into the bitmask bus.SetJoypadState expects (set bit =
// pressed), using the JoypXxx constants the bus exports.
func Mask(b Buttons) byte {
	var m byte
	if b.Right {
		m |= bus.JoypRight
	}
	if b.Left {
		m |= bus.JoypLeft
	}
	if b.Up {
		m |= bus.JoypUp
	}
	if b.Down {
		m |= bus.JoypDown
	}
	if b.A {
		m |= bus.JoypA
	}
	if b.B {
		m |= bus.JoypB
	}
	if b.Select {
		m |= bus.JoypSelectBtn
	}
	if b.Start {
		m |= bus.JoypStart
	}
	return m
}

// KeyReader abstracts the host windowing toolkit's "is this key currently
// held" query, so this package stays free of an ebiten import. The host's UI
// layer supplies an adapter (ebiten.IsKeyPressed bound to a concrete key
// constant) for each entry in DefaultKeymap.
type KeyReader func(key int) bool

// Key constants name the host keys DefaultKeymap binds, independent of any
// particular windowing toolkit's own key enum. internal/ui translates these
// into its toolkit's key codes.
const (
	KeyRight = iota
	KeyLeft
	KeyUp
	KeyDown
	KeyA
	KeyB
	KeyStart
	KeySelect
)

// DefaultKeymap is the classic arrow-keys + Z/X + Enter/RShift layout the
// reference UI has always used.
var DefaultKeymap = map[int]string{
	KeyRight:  "Right",
	KeyLeft:   "Left",
	KeyUp:     "Up",
	KeyDown:   "Down",
	KeyA:      "Z",
	KeyB:      "X",
	KeyStart:  "Enter",
	KeySelect: "RightShift",
}

// Poll reads the held state of every mapped key through pressed and returns
// the resulting Buttons.
func Poll(pressed KeyReader) Buttons {
	return Buttons{
		Right:  pressed(KeyRight),
		Left:   pressed(KeyLeft),
		Up:     pressed(KeyUp),
		Down:   pressed(KeyDown),
		A:      pressed(KeyA),
		B:      pressed(KeyB),
		Start:  pressed(KeyStart),
		Select: pressed(KeySelect),
	}
}
