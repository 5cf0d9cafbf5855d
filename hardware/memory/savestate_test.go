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

package memory_test

import (
	"bytes"
	"testing"

	"github.com/jetsetilly/gopsx/hardware/memory"
)

func TestSavestateRoundTrip(t *testing.T) {
	d, _ := newDispatcher()

	d.WriteWord(0x1000, 0xaabbccdd)
	d.WriteWord(0x1f801010, 0x00000001) // reprogram bios_delay_size
	d.WriteWord(0x1f801060, 0x12345678) // ram_size_reg
	for _, b := range []byte("partial") {
		d.WriteByte(0x1f802023, uint32(b)) // no trailing \n: buffer stays non-empty
	}

	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := memory.NewDispatcher(&fakeInvalidator{}, memory.Peripherals{})
	if err := restored.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ok, v, _ := restored.ReadWord(0x1000)
	if !ok || v != 0xaabbccdd {
		t.Fatalf("RAM did not round trip, got ok=%v v=%#08x", ok, v)
	}
	ok, v, _ = restored.ReadWord(0x1f801060)
	if !ok || v != 0x12345678 {
		t.Fatalf("ram_size_reg did not round trip, got ok=%v v=%#08x", ok, v)
	}
	if restored.BIOSAccessTime() != d.BIOSAccessTime() {
		t.Fatalf("BIOS access time did not round trip: got %+v want %+v", restored.BIOSAccessTime(), d.BIOSAccessTime())
	}

	var got []string
	restored.SetTTYSink(sinkFunc(func(line string) { got = append(got, line) }))
	restored.WriteByte(0x1f802023, '\n')
	if len(got) != 1 || got[0] != "partial" {
		t.Fatalf("expected the restored TTY buffer to flush \"partial\", got %v", got)
	}
}

func TestSavestateMEMCTRLRoundTrip(t *testing.T) {
	d, _ := newDispatcher()
	d.WriteWord(0x1f801000, 0xdeadbeef) // exp1_base

	var buf bytes.Buffer
	d.Save(&buf)

	restored := memory.NewDispatcher(&fakeInvalidator{}, memory.Peripherals{})
	restored.Load(&buf)

	ok, v, _ := restored.ReadWord(0x1f801000)
	if !ok || v != 0xdeadbeef {
		t.Fatalf("expected exp1_base to round trip, got ok=%v v=%#08x", ok, v)
	}
}
