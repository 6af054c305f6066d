package bus

// oamDMA models the OAM DMA engine: writing the DMA register arms a
// 160-byte transfer that copies one byte per machine cycle from
// source<<8 into OAM.
type oamDMA struct {
	active bool
	src    uint16
	index  int
}

func (d *oamDMA) start(page byte) {
	d.active = true
	d.src = uint16(page) << 8
	d.index = 0
}

// step copies one byte using the read callback and an OAM-index write
// callback, and reports whether the transfer is still in progress after
// this machine cycle. The write callback must land unconditionally in OAM:
// DMA is not subject to the STAT-mode gating CPU-initiated OAM writes are.
func (d *oamDMA) step(read func(uint16) byte, writeOAM func(index int, v byte)) {
	if !d.active {
		return
	}
	writeOAM(d.index, read(d.src+uint16(d.index)))
	d.index++
	if d.index >= 0xA0 {
		d.active = false
	}
}
