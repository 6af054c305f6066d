// Package emu wires the CPU, bus, PPU and cartridge into the single
// sequential Machine the host drives one Tick at a time. It owns no
// goroutines and makes no system calls of its own beyond the ROM read a
// loader helper performs on request; all concurrency lives in internal/host.
package emu

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gbcore/gbcore/internal/apu"
	"github.com/gbcore/gbcore/internal/bus"
	"github.com/gbcore/gbcore/internal/cart"
	"github.com/gbcore/gbcore/internal/cpu"
)

// Buttons is the Machine's view of which physical buttons are held this
// tick. internal/joypad translates host key state into this shape.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

// TickResult is everything a single Tick can report back to the host beyond
// the framebuffer, which is read separately via Framebuffer.
type TickResult struct {
	MCycles    int
	SerialByte byte
	HasSerial  bool
	FrameReady bool
}

// Machine owns one running Game Boy: CPU, bus (which in turn owns PPU,
// cartridge, timer and DMA) and the ambient APU. Tick is the only operation
// that advances simulated time; everything else is configuration or
// read-back.
type Machine struct {
	cfg Config

	cpu *cpu.CPU
	bus *bus.Bus
	apu *apu.APU

	romPath string
	palette int

	rgba [160 * 144 * 4]byte
}

// New constructs a Machine with no cartridge loaded. LoadCartridge (or
// LoadROMFromFile) must be called before Tick.
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg, apu: apu.New(44100)}
}

// LoadCartridge parses rom, constructs the matching MBC, and resets the CPU
// to its post-boot state (or, if boot is a full 256-byte DMG boot ROM, to
// 0x0000 so the boot ROM itself performs the reset sequence).
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	c := cart.NewCartridge(rom)
	b := bus.NewWithCartridge(c)
	b.SetAudio(m.apu)
	if len(boot) >= 0x100 {
		b.SetBootROM(boot)
	}
	cp := cpu.New(b)
	if len(boot) >= 0x100 {
		cp.SetPC(0x0000)
	} else {
		cp.ResetNoBoot()
		resetPostBootIO(b)
	}
	m.bus = b
	m.cpu = cp

	if h, err := cart.ParseHeader(rom); err == nil {
		if id, ok := autoCompatPaletteFromHeader(h); ok {
			m.palette = id
		}
	}
	return nil
}

// resetPostBootIO writes the documented post-boot register snapshot for the
// registers that aren't reachable through the CPU reset path alone. DIV and
// STAT's mode/LYC-match bits are hardware-derived rather than CPU-writable,
// so they're seeded through bus/PPU backdoors instead of a normal Write.
func resetPostBootIO(b *bus.Bus) {
	b.SetDIVForBoot(0xABCC) // DIV reads back as 0xAB
	b.Write(0xFF05, 0x00) // TIMA
	b.Write(0xFF06, 0x00) // TMA
	b.Write(0xFF07, 0x00) // TAC
	b.Write(0xFF40, 0x91) // LCDC
	b.Write(0xFF42, 0x00) // SCY
	b.Write(0xFF43, 0x00) // SCX
	b.Write(0xFF45, 0x00) // LYC
	b.PPU().SetPostBootSTATMode(1, true) // STAT reads back as 0x85 (mode 1, LY==LYC)
	b.Write(0xFF0F, 0xE1) // IF
	b.Write(0xFF47, 0xFC) // BGP
	b.Write(0xFF48, 0xFF) // OBP0
	b.Write(0xFF49, 0xFF) // OBP1
	b.Write(0xFF4A, 0x00) // WY
	b.Write(0xFF4B, 0x00) // WX
	b.Write(0xFFFF, 0x00) // IE
}

// LoadROMFromFile reads path and loads it via LoadCartridge, additionally
// recording the path so ROMPath/battery-RAM sidecar conventions can use it.
func (m *Machine) LoadROMFromFile(path string) error {
	rom, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rom: %w", err)
	}
	if err := m.LoadCartridge(rom, nil); err != nil {
		return err
	}
	if abs, err := filepath.Abs(path); err == nil {
		m.romPath = abs
	} else {
		m.romPath = path
	}
	return nil
}

// ROMPath returns the path most recently passed to LoadROMFromFile, or "" if
// the current cartridge was loaded via LoadCartridge directly.
func (m *Machine) ROMPath() string { return m.romPath }

// SetBootROM overlays boot on the currently loaded cartridge's bus without
// resetting the CPU. With no cartridge loaded it does nothing, and the boot
// ROM is not kept for a later LoadCartridge or LoadROMFromFile; to boot
// through it, pass it to LoadCartridge.
func (m *Machine) SetBootROM(boot []byte) {
	if m.bus != nil {
		m.bus.SetBootROM(boot)
	}
}

// SetButtons records which buttons are held for the joypad register to
// report on subsequent reads, and latches any newly-composed falling edge
// as a Joypad interrupt.
func (m *Machine) SetButtons(b Buttons) {
	if m.bus == nil {
		return
	}
	var mask byte
	if b.Right {
		mask |= bus.JoypRight
	}
	if b.Left {
		mask |= bus.JoypLeft
	}
	if b.Up {
		mask |= bus.JoypUp
	}
	if b.Down {
		mask |= bus.JoypDown
	}
	if b.A {
		mask |= bus.JoypA
	}
	if b.B {
		mask |= bus.JoypB
	}
	if b.Select {
		mask |= bus.JoypSelectBtn
	}
	if b.Start {
		mask |= bus.JoypStart
	}
	m.bus.SetJoypadState(mask)
}

// Tick services one CPU step (at most one instruction, or interrupt
// dispatch, or a halted no-op), advances the bus/PPU/timer/DMA by the
// reported machine-cycle count, and reports what happened. A non-nil error
// (illegal opcode) is fatal; the caller must not call Tick again.
func (m *Machine) Tick() (TickResult, error) {
	mCycles, err := m.cpu.Step()
	if err != nil {
		return TickResult{}, err
	}
	m.bus.Advance(mCycles)
	res := TickResult{MCycles: mCycles}
	if b, ok := m.bus.PopSerial(); ok {
		res.SerialByte = b
		res.HasSerial = true
	}
	res.FrameReady = m.bus.PPU().FrameReady()
	return res, nil
}

// StepFrame runs Tick repeatedly until a frame completes or an error
// occurs, for callers (headless/test tooling) that don't need per-tick
// granularity. The error, if any, is swallowed: callers that care should
// drive Tick directly.
func (m *Machine) StepFrame() {
	for {
		res, err := m.Tick()
		if err != nil || res.FrameReady {
			return
		}
	}
}

// Framebuffer renders the PPU's 2-bit shade buffer through the active
// display palette into an RGBA byte slice (160x144x4), suitable for handing
// directly to an image/texture upload.
func (m *Machine) Framebuffer() []byte {
	if m.bus == nil {
		return m.rgba[:]
	}
	fb := m.bus.PPU().Framebuffer()
	pal := dmgPalettes[m.palette%len(dmgPalettes)]
	for y := 0; y < 144; y++ {
		for x := 0; x < 160; x++ {
			shade := fb[y][x]
			c := pal[shade]
			i := (y*160 + x) * 4
			m.rgba[i+0] = c[0]
			m.rgba[i+1] = c[1]
			m.rgba[i+2] = c[2]
			m.rgba[i+3] = 0xFF
		}
	}
	return m.rgba[:]
}

// CurrentPalette, CyclePalette and PaletteName expose the curated DMG
// display palettes autoCompatPaletteFromHeader picks between.
func (m *Machine) CurrentPalette() int { return m.palette }

func (m *Machine) SetPalette(id int) {
	n := len(dmgPalettes)
	m.palette = ((id % n) + n) % n
}

func (m *Machine) CyclePalette(delta int) { m.SetPalette(m.palette + delta) }

func (m *Machine) PaletteName(id int) string {
	n := len(dmgPalettes)
	return dmgPaletteNames[((id%n)+n)%n]
}

// LoadBattery restores battery-backed external RAM from data, returning
// false if the current cartridge doesn't carry persistent RAM.
func (m *Machine) LoadBattery(data []byte) bool {
	if bb, ok := m.bus.Cart().(cart.BatteryBacked); ok {
		bb.LoadRAM(data)
		return true
	}
	return false
}

// SaveBattery returns the current cartridge's external RAM contents,
// returning false if it isn't battery-backed.
func (m *Machine) SaveBattery() ([]byte, bool) {
	if bb, ok := m.bus.Cart().(cart.BatteryBacked); ok {
		return bb.SaveRAM(), true
	}
	return nil, false
}

// APUBufferedStereo reports how many interleaved stereo sample pairs are
// currently queued, for the host's audio player to size its reads.
func (m *Machine) APUBufferedStereo() int { return m.apu.StereoAvailable() }

// APUPullStereo drains up to max stereo sample pairs (L,R interleaved).
func (m *Machine) APUPullStereo(max int) []int16 { return m.apu.PullStereo(max) }

// AdvanceAudio steps the APU by mCycles machine cycles. The host loop calls
// this with the same count Tick just reported; the core itself never does,
// keeping audio strictly downstream of Tick's output.
func (m *Machine) AdvanceAudio(mCycles int) { m.apu.Advance(mCycles) }
