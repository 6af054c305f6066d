package ppu

// Sprite is one OAM entry as seen by the scanline compositor. X is already
// converted to screen space (hardware OAM X minus 8); Y is left in hardware
// space (screen top is Y-16), since row selection needs the sign-extended
// top edge and never goes negative the way X can for a sprite peeking onto
// the left edge of the screen.
type Sprite struct {
	X        int
	Y        byte
	Tile     byte
	Attr     byte
	OAMIndex int
}

// spritePixel is one composited output pixel: its raw 2-bit color index (0
// means no sprite drew here) and the attribute byte of whichever sprite won.
type spritePixel struct {
	ci   byte
	attr byte
}

// composeSpriteLine draws the given sprites onto a 160-pixel row, in
// priority order (lowest X first, ties broken by lowest OAM index), honoring
// each sprite's BG-priority bit against bgci (the background/window's raw,
// pre-palette color indices for this line). Drawing proceeds back-to-front
// so the highest-priority sprite ends up on top.
func composeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [ScreenWidth]byte, tall bool) [ScreenWidth]spritePixel {
	var out [ScreenWidth]spritePixel
	height := 8
	if tall {
		height = 16
	}

	ordered := make([]Sprite, len(sprites))
	copy(ordered, sprites)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			a, b := ordered[i], ordered[j]
			if b.X < a.X || (b.X == a.X && b.OAMIndex < a.OAMIndex) {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	for i := len(ordered) - 1; i >= 0; i-- {
		s := ordered[i]
		top := int(s.Y) - 16
		row := int(ly) - top
		if row < 0 || row >= height {
			continue
		}
		if s.Attr&0x40 != 0 { // Y flip
			row = height - 1 - row
		}
		tile := s.Tile
		if tall {
			tile &^= 0x01
			if row >= 8 {
				tile++
				row -= 8
			}
		}
		addr := 0x8000 + uint16(tile)*16 + uint16(row)*2
		lo := mem.Read(addr)
		hi := mem.Read(addr + 1)
		xFlip := s.Attr&0x20 != 0
		bgPriority := s.Attr&0x80 != 0

		for col := 0; col < 8; col++ {
			bit := 7 - col
			if xFlip {
				bit = col
			}
			ci := ((hi>>uint(bit))&1)<<1 | ((lo >> uint(bit)) & 1)
			if ci == 0 {
				continue
			}
			screenX := s.X + col
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}
			if bgPriority && bgci[screenX] != 0 {
				continue
			}
			out[screenX] = spritePixel{ci: ci, attr: s.Attr}
		}
	}
	return out
}

// ComposeSpriteLine draws the given sprites onto a 160-pixel row, returning
// raw 2-bit color indices (0 = no sprite pixel here).
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [ScreenWidth]byte, tall bool) [ScreenWidth]byte {
	line := composeSpriteLine(mem, sprites, ly, bgci, tall)
	var out [ScreenWidth]byte
	for x, px := range line {
		out[x] = px.ci
	}
	return out
}
