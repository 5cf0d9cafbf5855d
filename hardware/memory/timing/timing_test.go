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

package timing_test

import (
	"testing"

	"github.com/jetsetilly/gopsx/hardware/memory/timing"
)

// TestBIOSResetTiming exercises the reset-default BIOS_DELAY and COMMON_DELAY
// values through the full formula, against the ground-truth triple one tick
// away from the illustrative numbers in the originating scenario description
// (see DESIGN.md).
func TestBIOSResetTiming(t *testing.T) {
	delay := timing.MemDelay(0x0013243f)
	com := timing.ComDelay(0x00031125)

	if delay.AccessTime() != 3 {
		t.Fatalf("unexpected access time: %d", delay.AccessTime())
	}
	if delay.UseCOM0Time() || !delay.UseCOM2Time() || delay.UseCOM3Time() {
		t.Fatalf("unexpected use-com flags: com0=%v com2=%v com3=%v",
			delay.UseCOM0Time(), delay.UseCOM2Time(), delay.UseCOM3Time())
	}
	if delay.DataBus16Bit() {
		t.Fatalf("expected an 8-bit bus")
	}
	if com.COM0() != 5 || com.COM2() != 1 || com.COM3() != 1 {
		t.Fatalf("unexpected comdelay nibbles: com0=%d com2=%d com3=%d", com.COM0(), com.COM2(), com.COM3())
	}

	got := timing.Calculate(delay, com)
	want := timing.AccessTime{Byte: 6, HalfWord: 12, Word: 24}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDataBus16BitHalvesSequentialCost(t *testing.T) {
	com := timing.ComDelay(0)

	eightBit := timing.Calculate(timing.MemDelay(0x1), com)
	sixteenBit := timing.Calculate(timing.MemDelay(0x1|1<<12), com)

	if sixteenBit.HalfWord != eightBit.Byte {
		t.Fatalf("16-bit halfword should cost the same as the first access: %d != %d", sixteenBit.HalfWord, eightBit.Byte)
	}
	if sixteenBit.Word >= eightBit.Word {
		t.Fatalf("16-bit word access should be cheaper than 8-bit: %d vs %d", sixteenBit.Word, eightBit.Word)
	}
}

func TestAccessTimeNeverNegative(t *testing.T) {
	got := timing.Calculate(timing.MemDelay(0), timing.ComDelay(0))
	if got.Byte < 0 || got.HalfWord < 0 || got.Word < 0 {
		t.Fatalf("access time triple must be non-negative: %+v", got)
	}
}

func TestForWidth(t *testing.T) {
	a := timing.AccessTime{Byte: 1, HalfWord: 2, Word: 3}
	if a.ForWidth(1) != 1 || a.ForWidth(2) != 2 || a.ForWidth(4) != 3 {
		t.Fatalf("ForWidth mismatch: %+v", a)
	}
}

func TestUseCOM3TimeRaisesFloor(t *testing.T) {
	delay := timing.MemDelay(0) // access_time=0, no use-com flags
	withFloor := timing.MemDelay(1 << 11)
	com := timing.ComDelay(9 << 12) // com3 nibble = 9

	plain := timing.Calculate(delay, com)
	floored := timing.Calculate(withFloor, com)

	if floored.Byte <= plain.Byte {
		t.Fatalf("expected use_com3_time to raise the floor: plain=%d floored=%d", plain.Byte, floored.Byte)
	}
}
