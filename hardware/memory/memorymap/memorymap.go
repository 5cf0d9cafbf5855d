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

// Package memorymap facilitates the translation of a physical address into
// the region of the bus it belongs to.
//
// The console has no MMU. The top bits of a physical address are matched
// against a small table of region windows. MapAddress() should be used
// whenever a physical address is decoded from the viewpoint of the bus
// dispatcher.
//
//	region, masked := memorymap.MapAddress(addr)
//
// masked is the offset of addr from the start of its region (for RAM, with
// the 2MiB mirroring folded away), suitable for indexing directly into the
// region's backing store.
package memorymap

import "fmt"

// Area identifies the region of the bus address space a physical address
// falls within.
type Area int

// The regions recognised by the bus dispatcher.
const (
	Invalid Area = iota
	RAM
	Scratchpad
	EXP1
	MemControl
	MemControl2
	Pad
	SIO
	InterruptController
	DMA
	Timers
	CDROM
	GPU
	MDEC
	SPU
	EXP2
	BIOS
)

func (a Area) String() string {
	switch a {
	case RAM:
		return "RAM"
	case Scratchpad:
		return "Scratchpad"
	case EXP1:
		return "EXP1"
	case MemControl:
		return "MemControl"
	case MemControl2:
		return "MemControl2"
	case Pad:
		return "Pad"
	case SIO:
		return "SIO"
	case InterruptController:
		return "InterruptController"
	case DMA:
		return "DMA"
	case Timers:
		return "Timers"
	case CDROM:
		return "CDROM"
	case GPU:
		return "GPU"
	case MDEC:
		return "MDEC"
	case SPU:
		return "SPU"
	case EXP2:
		return "EXP2"
	case BIOS:
		return "BIOS"
	}
	return "Invalid"
}

// Origin/Memtop pairs for every region of the physical address space. RAM is
// mirrored every 2MiB up to 0x007fffff; everything else in this table is a
// single window.
const (
	OriginRAM = uint32(0x00000000)
	MemtopRAM = uint32(0x007fffff)
	SizeRAM   = uint32(0x00200000)

	OriginScratchpad = uint32(0x1f800000)
	MemtopScratchpad = uint32(0x1f8003ff)
	SizeScratchpad   = uint32(0x00000400)

	OriginEXP1 = uint32(0x1f000000)
	MemtopEXP1 = uint32(0x1f7fffff)

	OriginMemControl = uint32(0x1f801000)
	MemtopMemControl = uint32(0x1f801023)

	OriginPad = uint32(0x1f801040)
	MemtopPad = uint32(0x1f80104f)

	OriginSIO = uint32(0x1f801050)
	MemtopSIO = uint32(0x1f80105f)

	OriginMemControl2 = uint32(0x1f801060)
	MemtopMemControl2 = uint32(0x1f801063)

	OriginInterruptController = uint32(0x1f801070)
	MemtopInterruptController = uint32(0x1f801077)

	OriginDMA = uint32(0x1f801080)
	MemtopDMA = uint32(0x1f8010ff)

	OriginTimers = uint32(0x1f801100)
	MemtopTimers = uint32(0x1f80112f)

	OriginCDROM = uint32(0x1f801800)
	MemtopCDROM = uint32(0x1f801803)

	OriginGPU = uint32(0x1f801810)
	MemtopGPU = uint32(0x1f801817)

	OriginMDEC = uint32(0x1f801820)
	MemtopMDEC = uint32(0x1f801827)

	OriginSPU = uint32(0x1f801c00)
	MemtopSPU = uint32(0x1f801fff)

	OriginEXP2 = uint32(0x1f802000)
	MemtopEXP2 = uint32(0x1f9fffff)

	OriginBIOS = uint32(0x1fc00000)
	MemtopBIOS = uint32(0x1fc7ffff)
)

// DcacheLocationMask and DcacheLocation identify the scratchpad window
// wherever it is aliased into the 32-bit physical space. The bus dispatcher
// should never see an address in this window - the segment mapper
// intercepts it and routes to the CPU's data-cache backing store instead.
const (
	DcacheLocationMask = uint32(0x7fffffff) &^ (SizeScratchpad - 1)
	DcacheLocation     = OriginScratchpad
)

// MapAddress decides which region a masked physical address belongs to and
// returns the offset of the address within that region, with RAM mirroring
// resolved. For an Invalid address the address is returned unchanged. The
// caller must have already reduced a virtual address to its physical form
// (see the segment package) before calling this function.
func MapAddress(addr uint32) (Area, uint32) {
	switch {
	case addr <= MemtopRAM:
		return RAM, addr % SizeRAM
	case addr >= OriginEXP1 && addr <= MemtopEXP1:
		return EXP1, addr - OriginEXP1
	case addr >= OriginScratchpad && addr <= MemtopScratchpad:
		return Scratchpad, addr - OriginScratchpad
	case addr >= OriginMemControl && addr <= MemtopMemControl:
		return MemControl, addr - OriginMemControl
	case addr >= OriginPad && addr <= MemtopPad:
		return Pad, addr - OriginPad
	case addr >= OriginSIO && addr <= MemtopSIO:
		return SIO, addr - OriginSIO
	case addr >= OriginMemControl2 && addr <= MemtopMemControl2:
		return MemControl2, addr - OriginMemControl2
	case addr >= OriginInterruptController && addr <= MemtopInterruptController:
		return InterruptController, addr - OriginInterruptController
	case addr >= OriginDMA && addr <= MemtopDMA:
		return DMA, addr - OriginDMA
	case addr >= OriginTimers && addr <= MemtopTimers:
		return Timers, addr - OriginTimers
	case addr >= OriginCDROM && addr <= MemtopCDROM:
		return CDROM, addr - OriginCDROM
	case addr >= OriginGPU && addr <= MemtopGPU:
		return GPU, addr - OriginGPU
	case addr >= OriginMDEC && addr <= MemtopMDEC:
		return MDEC, addr - OriginMDEC
	case addr >= OriginSPU && addr <= MemtopSPU:
		return SPU, addr - OriginSPU
	case addr >= OriginEXP2 && addr <= MemtopEXP2:
		return EXP2, addr - OriginEXP2
	case addr >= OriginBIOS && addr <= MemtopBIOS:
		return BIOS, addr - OriginBIOS
	}
	return Invalid, addr
}

// Summary returns a human readable description of the memory map, used by
// tests and debugging tools to sanity check the region table.
func Summary() string {
	s := ""
	var last Area = -1
	var start uint32
	var addr uint64
	for addr = 0; addr <= 0x1fffffff; addr++ {
		a, _ := MapAddress(uint32(addr))
		if a != last {
			if last != -1 {
				s += fmt.Sprintf("%08x -> %08x\t%s\n", start, uint32(addr)-1, last)
			}
			last = a
			start = uint32(addr)
		}
	}
	s += fmt.Sprintf("%08x -> %08x\t%s\n", start, uint32(addr-1), last)
	return s
}
