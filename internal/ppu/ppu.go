// Package ppu implements the pixel-processing unit: the LCDC/STAT/LY mode
// state machine, VRAM/OAM storage and arbitration, and the scanline
// renderer that produces a 160x144 framebuffer of 2-bit color indices.
package ppu

// InterruptRequester raises an IF bit (0: VBlank, 1: STAT, 2: Timer, ...).
type InterruptRequester func(bit int)

const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// PPU owns VRAM, OAM, the LCD registers and the output framebuffer.
type PPU struct {
	vram [0x2000]byte
	oam  [0xA0]byte

	lcdc byte
	stat byte
	scy  byte
	scx  byte
	ly   byte
	lyc  byte
	bgp  byte
	obp0 byte
	obp1 byte
	wy   byte
	wx   byte

	dot int

	windowLineCounter int
	renderedThisLine  bool

	framebuffer [ScreenHeight][ScreenWidth]byte
	frameReady  bool

	req InterruptRequester
}

func New(req InterruptRequester) *PPU { return &PPU{req: req} }

// CPURead returns VRAM/OAM bytes (0xFF when arbitration blocks CPU access)
// and LCD register contents.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.stat&0x03 == 3 {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if m := p.stat & 0x03; m == 2 || m == 3 {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// SetPostBootSTATMode forces the STAT mode bits and LYC-coincidence bit
// directly, bypassing setMode/updateLYC's interrupt-raising transition path.
// The loader uses this once, at construction, to reproduce the documented
// post-boot-ROM STAT snapshot: those bits are hardware-derived from the
// PPU's internal scan state, not values a CPU write to STAT can set.
func (p *PPU) SetPostBootSTATMode(mode byte, lycMatch bool) {
	p.stat = (p.stat &^ 0x07) | (mode & 0x03)
	if lycMatch {
		p.stat |= 1 << 2
	}
}

// WriteOAMByte writes directly into OAM with no STAT-mode gating. The OAM
// DMA engine uses this: its transfer always lands in OAM regardless of the
// current PPU mode, unlike a CPU-initiated write to the OAM range.
func (p *PPU) WriteOAMByte(index int, value byte) {
	p.oam[index] = value
}

// CPUWrite handles writes to VRAM, OAM and the LCD registers. A write to LY
// is quietly dropped, matching real hardware.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.stat&0x03 != 3 {
			p.vram[addr-0x8000] = value
		}
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if m := p.stat & 0x03; m != 2 && m != 3 {
			p.oam[addr-0xFE00] = value
		}
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		if p.lcdc&0x80 == 0 && prev&0x80 != 0 {
			p.ly, p.dot = 0, 0
			p.windowLineCounter = 0
			p.setMode(0)
			p.updateLYC()
		} else if p.lcdc&0x80 != 0 && prev&0x80 == 0 {
			p.ly, p.dot = 0, 0
			p.windowLineCounter = 0
			p.setMode(2)
			p.updateLYC()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		// LY is read-only; writes have no effect.
	case addr == 0xFF45:
		p.lyc = value
		p.updateLYC()
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	}
}

// Advance steps the PPU by the given number of dots (4 per machine cycle).
func (p *PPU) Advance(dots int) {
	for i := 0; i < dots; i++ {
		if p.lcdc&0x80 == 0 {
			continue
		}
		p.dot++

		var mode byte
		if p.ly >= 144 {
			mode = 1
		} else {
			switch {
			case p.dot < 80:
				mode = 2
			case p.dot < 80+172:
				mode = 3
			default:
				mode = 0
			}
		}
		wasMode := p.stat & 0x03
		p.setMode(mode)
		if wasMode != 3 && mode == 3 && p.ly < 144 {
			p.renderScanline()
		}

		if p.dot >= 456 {
			p.dot = 0
			p.ly++
			if p.ly == 144 {
				p.frameReady = true
				if p.req != nil {
					p.req(0)
				}
				if p.stat&(1<<4) != 0 && p.req != nil {
					p.req(1)
				}
			} else if p.ly > 153 {
				p.ly = 0
				p.windowLineCounter = 0
			}
			p.updateLYC()
			if p.ly >= 144 {
				p.setMode(1)
			} else {
				p.setMode(2)
			}
		}
	}
}

func (p *PPU) setMode(mode byte) {
	prev := p.stat & 0x03
	if prev == mode {
		return
	}
	p.stat = (p.stat &^ 0x03) | (mode & 0x03)
	switch mode {
	case 0:
		if p.stat&(1<<3) != 0 && p.req != nil {
			p.req(1)
		}
	case 2:
		if p.stat&(1<<5) != 0 && p.req != nil {
			p.req(1)
		}
	}
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
		if p.stat&(1<<6) != 0 && p.req != nil {
			p.req(1)
		}
	} else {
		p.stat &^= 1 << 2
	}
}

// FrameReady reports and clears whether this Advance call crossed into
// VBlank, i.e. the framebuffer holds a freshly completed frame.
func (p *PPU) FrameReady() bool {
	r := p.frameReady
	p.frameReady = false
	return r
}

// Framebuffer returns the current 160x144 buffer of 2-bit color indices.
// Callers must not retain it across the next frame without copying.
func (p *PPU) Framebuffer() *[ScreenHeight][ScreenWidth]byte { return &p.framebuffer }

// WindowLineCounter reports how many scanlines the window has drawn so far
// this frame, for tests and debug tooling.
func (p *PPU) WindowLineCounter() int { return p.windowLineCounter }

func (p *PPU) BGP() byte  { return p.bgp }
func (p *PPU) OBP0() byte { return p.obp0 }
func (p *PPU) OBP1() byte { return p.obp1 }
func (p *PPU) LCDC() byte { return p.lcdc }
func (p *PPU) SCY() byte  { return p.scy }
func (p *PPU) SCX() byte  { return p.scx }
func (p *PPU) WY() byte   { return p.wy }
func (p *PPU) WX() byte   { return p.wx }

type vramView struct{ p *PPU }

func (v vramView) Read(addr uint16) byte {
	if addr >= 0x8000 && addr <= 0x9FFF {
		return v.p.vram[addr-0x8000]
	}
	return 0xFF
}

// renderScanline produces 160 pixels for the current LY: background, window
// overlay, then sprite compositing, written into the framebuffer.
func (p *PPU) renderScanline() {
	ly := p.ly
	mem := vramView{p}

	var bgLine [ScreenWidth]byte
	if p.lcdc&0x01 != 0 {
		mapBase := uint16(0x9800)
		if p.lcdc&0x08 != 0 {
			mapBase = 0x9C00
		}
		bgLine = RenderBGScanlineUsingFetcher(mem, mapBase, p.lcdc&0x10 != 0, p.scx, p.scy, ly)
	}

	windowActive := p.lcdc&0x20 != 0 && ly >= p.wy && int(p.wx) <= 166
	if windowActive {
		wMapBase := uint16(0x9800)
		if p.lcdc&0x40 != 0 {
			wMapBase = 0x9C00
		}
		wxStart := int(p.wx) - 7
		winLine := RenderWindowScanlineUsingFetcher(mem, wMapBase, p.lcdc&0x10 != 0, wxStart, byte(p.windowLineCounter))
		start := wxStart
		if start < 0 {
			start = 0
		}
		for x := start; x < ScreenWidth; x++ {
			bgLine[x] = winLine[x]
		}
		p.windowLineCounter++
	}

	for x := 0; x < ScreenWidth; x++ {
		ci := bgLine[x]
		p.framebuffer[ly][x] = (p.bgp >> (ci * 2)) & 0x03
	}

	if p.lcdc&0x02 != 0 {
		p.renderSprites(ly, &bgLine)
	}
}

// renderSprites composites up to 10 visible 8x8/8x16 objects onto the
// scanline already holding the background/window colors in bgLine (used
// only to resolve the BG-priority attribute bit).
func (p *PPU) renderSprites(ly byte, bgLine *[ScreenWidth]byte) {
	tall := p.lcdc&0x04 != 0
	height := 8
	if tall {
		height = 16
	}

	var visible []Sprite
	for i := 0; i < 40 && len(visible) < 10; i++ {
		base := i * 4
		sy := p.oam[base]
		top := int(sy) - 16
		if int(ly) < top || int(ly) >= top+height {
			continue
		}
		visible = append(visible, Sprite{
			Y: sy, X: int(p.oam[base+1]) - 8, Tile: p.oam[base+2], Attr: p.oam[base+3], OAMIndex: i,
		})
	}

	line := composeSpriteLine(vramView{p}, visible, ly, *bgLine, tall)
	for x := 0; x < ScreenWidth; x++ {
		px := line[x]
		if px.ci == 0 {
			continue
		}
		palette := p.obp0
		if px.attr&0x10 != 0 {
			palette = p.obp1
		}
		p.framebuffer[ly][x] = (palette >> (px.ci * 2)) & 0x03
	}
}
