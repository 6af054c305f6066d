package emu

// dmgPalettes are curated 4-shade RGB display palettes the PPU's 2-bit
// framebuffer indices are mapped through, selected automatically from ROM
// title/licensee heuristics (autoCompatPaletteFromHeader) and cyclable by
// the host via CyclePalette. Index 0 is the canonical DMG green.
var dmgPalettes = [][4][3]byte{
	{ // Green (classic DMG)
		{0x9B, 0xBC, 0x0F}, {0x8B, 0xAC, 0x0F}, {0x30, 0x62, 0x30}, {0x0F, 0x38, 0x0F},
	},
	{ // Sepia
		{0xF4, 0xE4, 0xC1}, {0xC9, 0xA9, 0x76}, {0x8B, 0x5A, 0x2B}, {0x3B, 0x24, 0x14},
	},
	{ // Blue
		{0xE0, 0xF8, 0xF8}, {0x88, 0xC0, 0xE0}, {0x40, 0x68, 0xA0}, {0x10, 0x18, 0x38},
	},
	{ // Red
		{0xFF, 0xE8, 0xC8}, {0xE8, 0x9C, 0x6C}, {0xA8, 0x40, 0x30}, {0x40, 0x10, 0x10},
	},
	{ // Pastel
		{0xF8, 0xE8, 0xF8}, {0xD8, 0xA8, 0xD0}, {0x90, 0x68, 0x98}, {0x38, 0x28, 0x48},
	},
}

var dmgPaletteNames = []string{"Green", "Sepia", "Blue", "Red", "Pastel"}
