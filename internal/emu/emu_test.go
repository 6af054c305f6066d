package emu

import "testing"

// buildROM returns a minimal header-bearing ROM (32KiB, MBC0) with code
// placed at the 0x0100 entry point.
func buildROM(code []byte) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x0100:], code)
	// Minimal header: Nintendo logo area left zeroed (ParseHeader doesn't
	// validate it), title blank, cart type 0x00 (ROM only).
	rom[0x0147] = 0x00
	rom[0x0148] = 0x00 // 32KiB
	rom[0x0149] = 0x00 // no RAM
	return rom
}

func TestMachine_LoadCartridgeAndTick(t *testing.T) {
	rom := buildROM([]byte{0x00, 0xC3, 0x00, 0x01}) // NOP; JP 0x0100
	m := New(Config{})
	if err := m.LoadCartridge(rom, nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	for i := 0; i < 1000; i++ {
		if _, err := m.Tick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
}

func TestMachine_IllegalOpcodeIsFatal(t *testing.T) {
	rom := buildROM([]byte{0xD3})
	m := New(Config{})
	if err := m.LoadCartridge(rom, nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	if _, err := m.Tick(); err == nil {
		t.Fatalf("expected fatal error on illegal opcode")
	}
}

func TestMachine_StepFrameProducesFramebuffer(t *testing.T) {
	rom := buildROM([]byte{0x00, 0xC3, 0x00, 0x01})
	m := New(Config{})
	if err := m.LoadCartridge(rom, nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	m.StepFrame()
	fb := m.Framebuffer()
	if len(fb) != 160*144*4 {
		t.Fatalf("framebuffer size = %d, want %d", len(fb), 160*144*4)
	}
	// alpha channel must be fully opaque everywhere
	for i := 3; i < len(fb); i += 4 {
		if fb[i] != 0xFF {
			t.Fatalf("pixel %d alpha = %#x, want 0xFF", i/4, fb[i])
		}
	}
}

func TestMachine_PostBootRegisterSnapshot(t *testing.T) {
	rom := buildROM([]byte{0x00})
	m := New(Config{})
	if err := m.LoadCartridge(rom, nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	if got := m.bus.Read(0xFF40); got != 0x91 {
		t.Fatalf("LCDC = %#02x, want 0x91", got)
	}
	if got := m.bus.Read(0xFF47); got != 0xFC {
		t.Fatalf("BGP = %#02x, want 0xFC", got)
	}
	if got := m.bus.Read(0xFF0F); got != 0xE1 {
		t.Fatalf("IF = %#02x, want 0xE1", got)
	}
	if got := m.bus.Read(0xFF04); got != 0xAB {
		t.Fatalf("DIV = %#02x, want 0xAB", got)
	}
	if got := m.bus.Read(0xFF41); got != 0x85 {
		t.Fatalf("STAT = %#02x, want 0x85", got)
	}
}

func TestMachine_SetButtonsReachesBus(t *testing.T) {
	rom := buildROM([]byte{0x00})
	m := New(Config{})
	if err := m.LoadCartridge(rom, nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	m.bus.Write(0xFF00, 0x20) // select D-pad row
	m.SetButtons(Buttons{Down: true})
	got := m.bus.Read(0xFF00)
	if got&0x08 != 0 {
		t.Fatalf("JOYP down bit still set (active-low expected clear): %08b", got)
	}
}

func TestMachine_PaletteCycleWraps(t *testing.T) {
	m := New(Config{})
	m.SetPalette(0)
	m.CyclePalette(-1)
	if m.CurrentPalette() != len(dmgPalettes)-1 {
		t.Fatalf("CyclePalette(-1) from 0 = %d, want %d", m.CurrentPalette(), len(dmgPalettes)-1)
	}
}
