// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

package memory

import "github.com/jetsetilly/gopsx/hardware/memory/timing"

// memctrl register indices, in the order they appear in the MEMCTRL window
// starting at 0x1f801000. Each is word-aligned four bytes apart.
const (
	regEXP1Base = iota
	regEXP2Base
	regEXP1DelaySize
	regEXP3DelaySize
	regBIOSDelaySize
	regSPUDelaySize
	regCDROMDelaySize
	regEXP2DelaySize
	regCommonDelay
	numMemctrlRegisters
)

// writeMasks gives the WRITE_MASK for each MEMCTRL register. Bits outside
// the mask keep their previous value across a write.
//
// The base-address registers are left fully writable; software has no
// reason to probe their reserved bits and hardware doesn't meaningfully
// constrain them either. The delay/size registers mask to the thirteen low
// bits actually decoded by the timing model (bits 0-3 reserved, the
// access_time nibble at bits 4-7, the four use_comN_time flags at bits
// 8-11, and data_bus_16bit at bit 12). common_delay masks to the twenty
// bits spanning its four nibbles.
var writeMasks = [numMemctrlRegisters]uint32{
	regEXP1Base:      0xffffffff,
	regEXP2Base:      0xffffffff,
	regEXP1DelaySize: 0x00001fff,
	regEXP3DelaySize: 0x00001fff,
	regBIOSDelaySize: 0x00001fff,
	regSPUDelaySize:  0x00001fff,
	regCDROMDelaySize: 0x00001fff,
	regEXP2DelaySize: 0x00001fff,
	regCommonDelay:   0x000fffff,
}

// resetDefaults gives the MEMCTRL register contents immediately after
// reset.
var resetDefaults = [numMemctrlRegisters]uint32{
	regEXP1Base:       0x1f000000,
	regEXP2Base:       0x1f802000,
	regEXP1DelaySize:  0x0013243f,
	regEXP3DelaySize:  0x00003022,
	regBIOSDelaySize:  0x0013243f,
	regSPUDelaySize:   0x200931e1,
	regCDROMDelaySize: 0x00020843,
	regEXP2DelaySize:  0x00070777,
	regCommonDelay:    0x00031125,
}

const resetRAMSizeReg = 0x00000b88

// memctrl holds the nine MEMCTRL registers and the derived access-time
// triples for every timed region. The triples are cached rather than
// recomputed per access: recomputation happens only when a write changes a
// register's masked bits, per the recompute-on-write invariant.
type memctrl struct {
	registers [numMemctrlRegisters]uint32

	exp1AccessTime  timing.AccessTime
	exp2AccessTime  timing.AccessTime
	biosAccessTime  timing.AccessTime
	cdromAccessTime timing.AccessTime
	spuAccessTime   timing.AccessTime
}

func newMemctrl() *memctrl {
	m := &memctrl{registers: resetDefaults}
	m.recomputeAll()
	return m
}

func (m *memctrl) recomputeAll() {
	com := timing.ComDelay(m.registers[regCommonDelay])
	m.exp1AccessTime = timing.Calculate(timing.MemDelay(m.registers[regEXP1DelaySize]), com)
	m.exp2AccessTime = timing.Calculate(timing.MemDelay(m.registers[regEXP2DelaySize]), com)
	m.biosAccessTime = timing.Calculate(timing.MemDelay(m.registers[regBIOSDelaySize]), com)
	m.cdromAccessTime = timing.Calculate(timing.MemDelay(m.registers[regCDROMDelaySize]), com)
	m.spuAccessTime = timing.Calculate(timing.MemDelay(m.registers[regSPUDelaySize]), com)
}

// readRegister returns the raw 32-bit contents of a word-aligned register
// index. Index bounds are the caller's responsibility; the dispatcher only
// calls this for indices it has already validated against the MEMCTRL
// window.
func (m *memctrl) readRegister(index int) uint32 {
	return m.registers[index]
}

// writeRegister applies v to register index under its write mask and, if
// the masked result differs from the previous contents and the register is
// common_delay or the delay/size register of a timed region (EXP1, EXP2,
// BIOS, CDROM, SPU), recomputes every access-time triple. Writes to the two
// base registers and to exp3_delay_size never trigger a recompute.
func (m *memctrl) writeRegister(index int, v uint32) {
	mask := writeMasks[index]
	next := (m.registers[index] &^ mask) | (v & mask)
	if next == m.registers[index] {
		return
	}
	m.registers[index] = next

	switch index {
	case regCommonDelay, regEXP1DelaySize, regEXP2DelaySize, regBIOSDelaySize, regCDROMDelaySize, regSPUDelaySize:
		m.recomputeAll()
	}
}
