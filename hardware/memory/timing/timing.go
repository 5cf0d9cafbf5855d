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

// Package timing implements the small algebraic model that turns a MEMCTRL
// delay/size register, together with the shared COMDELAY register, into a
// tick cost for byte, halfword and word accesses to a timed region (BIOS,
// CDROM, SPU, EXP1, EXP2).
//
// The register values are bit-packed. Rather than rely on Go struct field
// ordering across platforms (which the language does not guarantee for
// bitfields - Go doesn't have them), MemDelay and ComDelay are opaque 32-bit
// words with accessor methods that extract the named fields.
package timing

// MemDelay is one of the six MEMCTRL delay/size registers: exp1, exp2,
// exp3, bios, spu or cdrom. Each packs an access_time nibble, four
// "use common Nn time" flags and a 16-bit-bus flag; the remaining bits are
// preserved across writes but don't feed into the timing calculation.
type MemDelay uint32

// Field accessors for a MemDelay register. Bit positions follow the
// MEMCTRL delay/size register layout: bits 0-3 are reserved/unused, a 4-bit
// access_time nibble sits at bits 4-7, followed by four single-bit flags at
// bits 8-11 (recovery/com0, hold/com1, floating/com2, pre-strobe/com3 in
// hardware nomenclature) and the bus-width bit at bit 12. Only com0, com2
// and com3 feed the timing calculation - the "hold" bit is decoded for
// completeness but, like the real chip, has no effect here.
func (d MemDelay) AccessTime() int32  { return int32((d >> 4) & 0xf) }
func (d MemDelay) UseCOM0Time() bool  { return d&(1<<8) != 0 }
func (d MemDelay) UseCOM1Time() bool  { return d&(1<<9) != 0 }
func (d MemDelay) UseCOM2Time() bool  { return d&(1<<10) != 0 }
func (d MemDelay) UseCOM3Time() bool  { return d&(1<<11) != 0 }
func (d MemDelay) DataBus16Bit() bool { return d&(1<<12) != 0 }

// ComDelay is the COMDELAY register shared by every timed region. It packs
// four nibbles, com0 through com3.
type ComDelay uint32

func (c ComDelay) COM0() int32 { return int32(c & 0xf) }
func (c ComDelay) COM1() int32 { return int32((c >> 4) & 0xf) }
func (c ComDelay) COM2() int32 { return int32((c >> 8) & 0xf) }
func (c ComDelay) COM3() int32 { return int32((c >> 12) & 0xf) }

// AccessTime is the triple of tick costs for a timed region, one per access
// width. Each value is already reduced by one (clamped at zero) so it can
// be added directly to a zero-based pending-ticks counter.
type AccessTime struct {
	Byte     int32
	HalfWord int32
	Word     int32
}

// ForWidth returns the component of the triple matching width, where width
// is 1, 2 or 4 bytes.
func (a AccessTime) ForWidth(width int) int32 {
	switch width {
	case 1:
		return a.Byte
	case 2:
		return a.HalfWord
	default:
		return a.Word
	}
}

// Calculate derives the (byte, halfword, word) access-time triple for a
// region from its MEMDELAY register and the shared COMDELAY register.
//
// The algorithm is the one the hardware actually implements: a "first
// access" term and a "sequential access" term are built up from the
// COMDELAY nibbles selected by the use_comN_time flags and the region's own
// access_time field, clamped against a floor derived from com3 when
// use_com3_time is set.
func Calculate(delay MemDelay, com ComDelay) AccessTime {
	var first, seq, min int32

	if delay.UseCOM0Time() {
		first += com.COM0() - 1
		seq += com.COM0() - 1
	}
	if delay.UseCOM2Time() {
		first += com.COM2()
		seq += com.COM2()
	}
	if delay.UseCOM3Time() {
		min = com.COM3()
	}

	if first < 6 {
		first++
	}

	first += delay.AccessTime() + 2
	seq += delay.AccessTime() + 2

	if first < min+6 {
		first = min + 6
	}
	if seq < min+2 {
		seq = min + 2
	}

	var byteTicks, halfTicks, wordTicks int32
	byteTicks = first
	if delay.DataBus16Bit() {
		halfTicks = first
		wordTicks = first + seq
	} else {
		halfTicks = first + seq
		wordTicks = first + seq + seq + seq
	}

	return AccessTime{
		Byte:     clampFloor(byteTicks - 1),
		HalfWord: clampFloor(halfTicks - 1),
		Word:     clampFloor(wordTicks - 1),
	}
}

func clampFloor(v int32) int32 {
	if v < 0 {
		return 0
	}
	return v
}
