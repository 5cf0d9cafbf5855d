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

// Package segment implements the CPU's virtual-to-physical address
// translation: the fixed KUSEG/KSEG0/KSEG1/KSEG2 segment map, the
// isolate-cache store quirk, the scratchpad short-circuit, the single
// KSEG2 cache-control register, and the alignment/bus-error exceptions
// that gate every load, store and instruction fetch.
//
// The CPU core and its COP0 coprocessor are external collaborators: the
// Mapper only ever sees them through the CPU and COP0 interfaces below.
package segment

// ExceptionCode identifies the CPU exception a failed access raises.
type ExceptionCode int

const (
	// AdEL is an address error on load: an unaligned load address.
	AdEL ExceptionCode = iota
	// AdES is an address error on store: an unaligned store address.
	AdES
	// IBE is a bus error fetching an instruction.
	IBE
	// DBE is a bus error on a data load or store.
	DBE
)

func (c ExceptionCode) String() string {
	switch c {
	case AdEL:
		return "AdEL"
	case AdES:
		return "AdES"
	case IBE:
		return "IBE"
	case DBE:
		return "DBE"
	}
	return "unknown exception"
}

// COP0 is the coprocessor-0 contract the mapper needs: the isolate-cache
// status bit, BadVaddr, the single cache-control register, and exception
// dispatch. None of it is implemented here - COP0 belongs to the CPU core.
type COP0 interface {
	IsolateCache() bool
	SetBadVaddr(addr uint32)
	RaiseException(code ExceptionCode)
	CacheControl() uint32
	SetCacheControl(value uint32)
}

// CPU is the mapper's view of the CPU state it advances: the program
// counter pair used by instruction fetch, the EPC bookkeeping recompiler
// thunks need before a trapping access, and the pending-ticks accumulator
// every successful trapping access feeds.
type CPU interface {
	PC() uint32
	NPC() uint32
	SetPC(addr uint32)
	SetNPC(addr uint32)
	SetCurrentInstructionPC(addr uint32)
	AddPendingTicks(ticks int32)
}
