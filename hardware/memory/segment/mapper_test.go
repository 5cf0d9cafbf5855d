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

package segment_test

import (
	"testing"

	"github.com/jetsetilly/gopsx/hardware/memory"
	"github.com/jetsetilly/gopsx/hardware/memory/segment"
)

type fakeInvalidator struct{}

func (fakeInvalidator) InvalidateCodePages(addr uint32, words uint32) {}

type fakeDCache struct {
	bytes [1024]uint8
}

func (d *fakeDCache) ReadByte(offset uint32) uint8        { return d.bytes[offset] }
func (d *fakeDCache) WriteByte(offset uint32, value uint8) { d.bytes[offset] = value }

type fakeCPU struct {
	pc, npc, currentPC uint32
	pendingTicks       int32
}

func (c *fakeCPU) PC() uint32                        { return c.pc }
func (c *fakeCPU) NPC() uint32                        { return c.npc }
func (c *fakeCPU) SetPC(addr uint32)                  { c.pc = addr }
func (c *fakeCPU) SetNPC(addr uint32)                 { c.npc = addr }
func (c *fakeCPU) SetCurrentInstructionPC(addr uint32) { c.currentPC = addr }
func (c *fakeCPU) AddPendingTicks(ticks int32)        { c.pendingTicks += ticks }

type fakeCOP0 struct {
	isc           bool
	badVaddr      uint32
	cacheControl  uint32
	exceptions    []segment.ExceptionCode
}

func (c *fakeCOP0) IsolateCache() bool                          { return c.isc }
func (c *fakeCOP0) SetBadVaddr(addr uint32)                      { c.badVaddr = addr }
func (c *fakeCOP0) RaiseException(code segment.ExceptionCode)    { c.exceptions = append(c.exceptions, code) }
func (c *fakeCOP0) CacheControl() uint32                         { return c.cacheControl }
func (c *fakeCOP0) SetCacheControl(value uint32)                 { c.cacheControl = value }

func newMapper() (*segment.Mapper, *memory.Dispatcher, *fakeCPU, *fakeCOP0) {
	b := memory.NewDispatcher(fakeInvalidator{}, memory.Peripherals{})
	cpu := &fakeCPU{}
	cop0 := &fakeCOP0{}
	m := segment.NewMapper(b, &fakeDCache{}, cpu, cop0)
	return m, b, cpu, cop0
}

// TestIscStoreSuppression is scenario 4.
func TestIscStoreSuppression(t *testing.T) {
	m, _, _, cop0 := newMapper()

	cop0.isc = true
	if !m.WriteMemoryWord(0x80000000, 0x12345678) {
		t.Fatalf("expected the isolated-cache store to report success")
	}
	cop0.isc = false

	var got uint32
	if !m.ReadMemoryWord(0xa0000000, &got) {
		t.Fatalf("expected the KSEG1 read to succeed")
	}
	if got != 0 {
		t.Fatalf("expected RAM to be untouched by the isolated store, got %#08x", got)
	}
}

// TestUnmappedKUSEGIsBusError is scenario 5.
func TestUnmappedKUSEGIsBusError(t *testing.T) {
	m, _, _, cop0 := newMapper()

	var got uint32 = 0xdeadbeef
	ok := m.ReadMemoryWord(0x20000000, &got)
	if ok {
		t.Fatalf("expected the read to fail")
	}
	if got != 0xdeadbeef {
		t.Fatalf("destination must be untouched on bus error, got %#08x", got)
	}

	for _, c := range cop0.exceptions {
		if c == segment.AdEL {
			t.Fatalf("word-aligned access must not raise AdEL")
		}
	}
	if len(cop0.exceptions) != 1 || cop0.exceptions[0] != segment.DBE {
		t.Fatalf("expected exactly one DBE exception, got %v", cop0.exceptions)
	}
}

// TestCacheControlPassthrough is scenario 6.
func TestCacheControlPassthrough(t *testing.T) {
	m, _, _, cop0 := newMapper()

	if !m.WriteMemoryWord(0xfffe0130, 0x0001e988) {
		t.Fatalf("expected the cache-control write to succeed")
	}
	if cop0.cacheControl != 0x0001e988 {
		t.Fatalf("expected the write to land in COP0's cache_control, got %#08x", cop0.cacheControl)
	}

	var got uint32
	if !m.ReadMemoryWord(0xfffe0130, &got) || got != 0x0001e988 {
		t.Fatalf("expected the cache-control read back, got ok read %#08x", got)
	}

	ok := m.ReadMemoryWord(0xfffe0000, &got)
	if ok {
		t.Fatalf("expected any other KSEG2 address to bus error")
	}
	if len(cop0.exceptions) != 1 || cop0.exceptions[0] != segment.DBE {
		t.Fatalf("expected a DBE for the bad KSEG2 address, got %v", cop0.exceptions)
	}
}

// TestUnalignedStoreRaisesAdES is invariant 5.
func TestUnalignedStoreRaisesAdES(t *testing.T) {
	m, b, _, cop0 := newMapper()

	b.WriteWord(0x100, 0)

	if m.WriteMemoryHalfWord(0x80000101, 0xbeef) {
		t.Fatalf("expected the odd-address halfword store to fail")
	}
	if len(cop0.exceptions) != 1 || cop0.exceptions[0] != segment.AdES {
		t.Fatalf("expected AdES, got %v", cop0.exceptions)
	}
	if cop0.badVaddr != 0x80000101 {
		t.Fatalf("expected BadVaddr to record the faulting address, got %#08x", cop0.badVaddr)
	}

	ok, v, _ := b.ReadWord(0x100)
	if !ok || v != 0 {
		t.Fatalf("target memory must be unchanged, got %#08x", v)
	}
}

// TestFetchInstructionAdvancesPCOnSuccess is invariant 6.
func TestFetchInstructionAdvancesPCOnSuccess(t *testing.T) {
	m, b, cpu, _ := newMapper()

	b.WriteWord(0x1000, 0x00000000) // a NOP-shaped word
	cpu.npc = 0x80001000

	_, ok := m.FetchInstruction()
	if !ok {
		t.Fatalf("expected the fetch to succeed")
	}
	if cpu.pc != 0x80001000 || cpu.npc != 0x80001004 {
		t.Fatalf("expected pc/npc to advance by 4, got pc=%#08x npc=%#08x", cpu.pc, cpu.npc)
	}
}

func TestFetchInstructionBusErrorLeavesPCUnchanged(t *testing.T) {
	m, _, cpu, cop0 := newMapper()

	cpu.pc, cpu.npc = 0x1234, 0x20000000

	_, ok := m.FetchInstruction()
	if ok {
		t.Fatalf("expected the fetch to fail")
	}
	if cpu.pc != 0x1234 || cpu.npc != 0x20000000 {
		t.Fatalf("pc/npc must be unchanged on a failed fetch, got pc=%#08x npc=%#08x", cpu.pc, cpu.npc)
	}
	if len(cop0.exceptions) != 1 || cop0.exceptions[0] != segment.IBE {
		t.Fatalf("expected IBE, got %v", cop0.exceptions)
	}
}

func TestScratchpadRoutesToDataCache(t *testing.T) {
	m, _, _, _ := newMapper()

	if !m.WriteMemoryWord(0x1f800010, 0x01020304) {
		t.Fatalf("expected the scratchpad write to succeed")
	}
	var got uint32
	if !m.ReadMemoryWord(0x1f800010, &got) || got != 0x01020304 {
		t.Fatalf("expected the scratchpad round trip, got %#08x", got)
	}
}

func TestSafeProbesDoNotRaiseOrChargeTicks(t *testing.T) {
	m, _, cpu, cop0 := newMapper()

	var got uint32
	ok := m.SafeReadWord(0x20000000, &got)
	if ok {
		t.Fatalf("expected the safe read to fail quietly")
	}
	if len(cop0.exceptions) != 0 {
		t.Fatalf("safe probes must never raise exceptions, got %v", cop0.exceptions)
	}
	if cpu.pendingTicks != 0 {
		t.Fatalf("safe probes must never charge pending_ticks, got %d", cpu.pendingTicks)
	}
}
