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

package segment

import (
	"github.com/jetsetilly/gopsx/hardware/memory"
	"github.com/jetsetilly/gopsx/hardware/memory/bus"
	"github.com/jetsetilly/gopsx/hardware/memory/memorymap"
)

// cacheControlAddress is the single address KSEG2 recognizes.
const cacheControlAddress = 0xfffe0130

// Mapper translates virtual addresses for the CPU and recompiler thunks,
// delegating mapped accesses to the Bus Dispatcher or, for the scratchpad
// window, directly to the CPU's data cache.
type Mapper struct {
	bus    *memory.Dispatcher
	dcache bus.DataCache
	cpu    CPU
	cop0   COP0
}

// NewMapper constructs a Mapper over a Bus Dispatcher, the CPU's scratchpad
// capability, and the CPU/COP0 state it advances and raises exceptions
// against.
func NewMapper(b *memory.Dispatcher, dcache bus.DataCache, cpu CPU, cop0 COP0) *Mapper {
	return &Mapper{bus: b, dcache: dcache, cpu: cpu, cop0: cop0}
}

// segmentResult is the outcome of resolving a virtual address against the
// fixed segment map.
type segmentResult struct {
	phys       uint32
	cached     bool
	scratchpad bool
	cacheCtrl  bool // the single KSEG2 cache-control register
	busError   bool
}

func resolveSegment(vaddr uint32) segmentResult {
	top3 := vaddr >> 29
	switch top3 {
	case 0: // KUSEG 0-512MiB
		return classifyMapped(vaddr&0x1fffffff, true)
	case 1, 2, 3: // KUSEG above 512MiB
		return segmentResult{busError: true}
	case 4: // KSEG0
		return classifyMapped(vaddr&0x1fffffff, true)
	case 5: // KSEG1
		return classifyMapped(vaddr&0x1fffffff, false)
	default: // KSEG2 (6, 7)
		if vaddr == cacheControlAddress {
			return segmentResult{cacheCtrl: true}
		}
		return segmentResult{busError: true}
	}
}

func classifyMapped(phys uint32, cached bool) segmentResult {
	if phys&memorymap.DcacheLocationMask == memorymap.DcacheLocation {
		return segmentResult{phys: phys, cached: cached, scratchpad: true}
	}
	return segmentResult{phys: phys, cached: cached}
}

func alignmentOK(vaddr uint32, width bus.Width) bool {
	switch width {
	case bus.HalfWord:
		return vaddr&1 == 0
	case bus.Word:
		return vaddr&3 == 0
	default:
		return true
	}
}

// FetchInstruction fetches the word at the CPU's npc, commits pc <- npc and
// advances npc by 4 on success. npc is guaranteed word-aligned by the
// caller; a failure here is always a bus error (IBE), which does not touch
// BadVaddr.
func (m *Mapper) FetchInstruction() (instruction uint32, ok bool) {
	npc := m.cpu.NPC()

	seg := resolveSegment(npc)
	if seg.busError || seg.cacheCtrl {
		m.cop0.RaiseException(IBE)
		return 0, false
	}

	var v uint32
	if seg.scratchpad {
		v = m.readScratchpadWord(seg.phys)
	} else {
		readOK, value, ticks := m.bus.ReadWord(seg.phys)
		if !readOK {
			m.cop0.RaiseException(IBE)
			return 0, false
		}
		v = value
		m.cpu.AddPendingTicks(ticks)
	}

	m.cpu.SetPC(npc)
	m.cpu.SetNPC(npc + 4)
	return v, true
}

// ReadMemoryByte, ReadMemoryHalfWord and ReadMemoryWord are the trapping
// load entry points: on failure they raise the appropriate CPU exception
// and return false without touching out; on success they add the access's
// tick cost to the CPU's pending_ticks.
func (m *Mapper) ReadMemoryByte(vaddr uint32, out *uint8) bool {
	v, ok := m.readMemory(vaddr, bus.Byte, true)
	if ok {
		*out = uint8(v)
	}
	return ok
}

func (m *Mapper) ReadMemoryHalfWord(vaddr uint32, out *uint16) bool {
	v, ok := m.readMemory(vaddr, bus.HalfWord, true)
	if ok {
		*out = uint16(v)
	}
	return ok
}

func (m *Mapper) ReadMemoryWord(vaddr uint32, out *uint32) bool {
	v, ok := m.readMemory(vaddr, bus.Word, true)
	if ok {
		*out = v
	}
	return ok
}

// WriteMemoryByte, WriteMemoryHalfWord and WriteMemoryWord are the trapping
// store entry points.
func (m *Mapper) WriteMemoryByte(vaddr uint32, value uint8) bool {
	return m.writeMemory(vaddr, bus.Byte, uint32(value), true)
}

func (m *Mapper) WriteMemoryHalfWord(vaddr uint32, value uint16) bool {
	return m.writeMemory(vaddr, bus.HalfWord, uint32(value), true)
}

func (m *Mapper) WriteMemoryWord(vaddr uint32, value uint32) bool {
	return m.writeMemory(vaddr, bus.Word, value, true)
}

// SafeReadByte, SafeReadHalfWord and SafeReadWord are the non-trapping
// probes used by debuggers and savestate tooling: they never raise CPU
// exceptions and never mutate pending_ticks.
func (m *Mapper) SafeReadByte(vaddr uint32, out *uint8) bool {
	v, ok := m.readMemory(vaddr, bus.Byte, false)
	if ok {
		*out = uint8(v)
	}
	return ok
}

func (m *Mapper) SafeReadHalfWord(vaddr uint32, out *uint16) bool {
	v, ok := m.readMemory(vaddr, bus.HalfWord, false)
	if ok {
		*out = uint16(v)
	}
	return ok
}

func (m *Mapper) SafeReadWord(vaddr uint32, out *uint32) bool {
	v, ok := m.readMemory(vaddr, bus.Word, false)
	if ok {
		*out = v
	}
	return ok
}

func (m *Mapper) SafeWriteByte(vaddr uint32, value uint8) bool {
	return m.writeMemory(vaddr, bus.Byte, uint32(value), false)
}

func (m *Mapper) SafeWriteHalfWord(vaddr uint32, value uint16) bool {
	return m.writeMemory(vaddr, bus.HalfWord, uint32(value), false)
}

func (m *Mapper) SafeWriteWord(vaddr uint32, value uint32) bool {
	return m.writeMemory(vaddr, bus.Word, value, false)
}

// ReadMemoryByteThunk, ReadMemoryHalfWordThunk and ReadMemoryWordThunk are
// the recompiler-facing equivalents of the trapping loads: they first
// record faultPC as the current instruction's program counter, so that
// exception dispatch reports the correct EPC.
func (m *Mapper) ReadMemoryByteThunk(faultPC, vaddr uint32, out *uint8) bool {
	m.cpu.SetCurrentInstructionPC(faultPC)
	return m.ReadMemoryByte(vaddr, out)
}

func (m *Mapper) ReadMemoryHalfWordThunk(faultPC, vaddr uint32, out *uint16) bool {
	m.cpu.SetCurrentInstructionPC(faultPC)
	return m.ReadMemoryHalfWord(vaddr, out)
}

func (m *Mapper) ReadMemoryWordThunk(faultPC, vaddr uint32, out *uint32) bool {
	m.cpu.SetCurrentInstructionPC(faultPC)
	return m.ReadMemoryWord(vaddr, out)
}

func (m *Mapper) WriteMemoryByteThunk(faultPC, vaddr uint32, value uint8) bool {
	m.cpu.SetCurrentInstructionPC(faultPC)
	return m.WriteMemoryByte(vaddr, value)
}

func (m *Mapper) WriteMemoryHalfWordThunk(faultPC, vaddr uint32, value uint16) bool {
	m.cpu.SetCurrentInstructionPC(faultPC)
	return m.WriteMemoryHalfWord(vaddr, value)
}

func (m *Mapper) WriteMemoryWordThunk(faultPC, vaddr uint32, value uint32) bool {
	m.cpu.SetCurrentInstructionPC(faultPC)
	return m.WriteMemoryWord(vaddr, value)
}

func (m *Mapper) readMemory(vaddr uint32, width bus.Width, trap bool) (uint32, bool) {
	if !alignmentOK(vaddr, width) {
		if trap {
			m.cop0.SetBadVaddr(vaddr)
			m.cop0.RaiseException(AdEL)
		}
		return 0, false
	}

	seg := resolveSegment(vaddr)
	if seg.busError {
		if trap {
			m.cop0.RaiseException(DBE)
		}
		return 0, false
	}
	if seg.cacheCtrl {
		return m.cop0.CacheControl(), true
	}
	if seg.scratchpad {
		return m.readScratchpad(seg.phys, width), true
	}

	var ok bool
	var v uint32
	var ticks int32
	switch width {
	case bus.Byte:
		ok, v, ticks = m.bus.ReadByte(seg.phys)
	case bus.HalfWord:
		ok, v, ticks = m.bus.ReadHalfWord(seg.phys)
	default:
		ok, v, ticks = m.bus.ReadWord(seg.phys)
	}
	if !ok {
		if trap {
			m.cop0.RaiseException(DBE)
		}
		return 0, false
	}
	if trap {
		m.cpu.AddPendingTicks(ticks)
	}
	return v, true
}

func (m *Mapper) writeMemory(vaddr uint32, width bus.Width, value uint32, trap bool) bool {
	if !alignmentOK(vaddr, width) {
		if trap {
			m.cop0.SetBadVaddr(vaddr)
			m.cop0.RaiseException(AdES)
		}
		return false
	}

	seg := resolveSegment(vaddr)
	if seg.busError {
		if trap {
			m.cop0.RaiseException(DBE)
		}
		return false
	}
	if seg.cacheCtrl {
		m.cop0.SetCacheControl(value)
		return true
	}

	// The isolate-cache quirk only affects stores to cached segments
	// (KUSEG, KSEG0); the scratchpad and uncached KSEG1 are unaffected.
	if seg.cached && !seg.scratchpad && m.cop0.IsolateCache() {
		return true
	}

	if seg.scratchpad {
		m.writeScratchpad(seg.phys, width, value)
		return true
	}

	var ok bool
	var ticks int32
	switch width {
	case bus.Byte:
		ok, ticks = m.bus.WriteByte(seg.phys, value)
	case bus.HalfWord:
		ok, ticks = m.bus.WriteHalfWord(seg.phys, value)
	default:
		ok, ticks = m.bus.WriteWord(seg.phys, value)
	}
	if !ok {
		if trap {
			m.cop0.RaiseException(DBE)
		}
		return false
	}
	if trap {
		m.cpu.AddPendingTicks(ticks)
	}
	return true
}

func (m *Mapper) scratchpadOffset(phys uint32) uint32 {
	return phys - memorymap.OriginScratchpad
}

func (m *Mapper) readScratchpadWord(phys uint32) uint32 {
	return m.readScratchpad(phys, bus.Word)
}

func (m *Mapper) readScratchpad(phys uint32, width bus.Width) uint32 {
	off := m.scratchpadOffset(phys)
	switch width {
	case bus.Byte:
		return uint32(m.dcache.ReadByte(off))
	case bus.HalfWord:
		return uint32(m.dcache.ReadByte(off)) | uint32(m.dcache.ReadByte(off+1))<<8
	default:
		return uint32(m.dcache.ReadByte(off)) |
			uint32(m.dcache.ReadByte(off+1))<<8 |
			uint32(m.dcache.ReadByte(off+2))<<16 |
			uint32(m.dcache.ReadByte(off+3))<<24
	}
}

func (m *Mapper) writeScratchpad(phys uint32, width bus.Width, value uint32) {
	off := m.scratchpadOffset(phys)
	switch width {
	case bus.Byte:
		m.dcache.WriteByte(off, uint8(value))
	case bus.HalfWord:
		m.dcache.WriteByte(off, uint8(value))
		m.dcache.WriteByte(off+1, uint8(value>>8))
	default:
		m.dcache.WriteByte(off, uint8(value))
		m.dcache.WriteByte(off+1, uint8(value>>8))
		m.dcache.WriteByte(off+2, uint8(value>>16))
		m.dcache.WriteByte(off+3, uint8(value>>24))
	}
}
