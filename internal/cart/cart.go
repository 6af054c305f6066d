// Package cart implements ROM header parsing and the two supported memory
// bank controllers (MBC0/ROM-only and MBC1). Other MBC families are out of
// scope: an unrecognized cartridge-type byte degrades to ROM-only rather
// than failing the load, since truncated or homebrew headers are common.
package cart

// Cartridge is the minimal interface the bus needs for ROM/RAM banking.
// Addresses are CPU addresses (0x0000-0x7FFF for ROM/control, 0xA000-0xBFFF
// for external RAM).
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// BatteryBacked is implemented by cartridges with persistent external RAM.
// The ROM loader uses it to flush RAM to a sidecar file at shutdown; this
// is a host-level convenience, not part of the core's contract.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// NewCartridge picks MBC0 or MBC1 based on the ROM header's cartridge-type
// byte. Any other type, or a header that fails to parse, falls back to
// ROM-only.
func NewCartridge(rom []byte) Cartridge {
	h, err := ParseHeader(rom)
	if err != nil {
		return NewROMOnly(rom)
	}
	switch h.CartType {
	case 0x00:
		return NewROMOnly(rom)
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h.RAMSizeBytes)
	default:
		return NewROMOnly(rom)
	}
}
