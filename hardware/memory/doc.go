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

// Package memory implements the Dispatcher: the crossbar that decodes a
// physical address into one of the machine's regions (RAM, BIOS, expansion
// ROM/IO, and the memory-mapped peripherals) and performs the access at the
// correct width.
//
// The Dispatcher owns RAM, the BIOS image, EXP1, the MEMCTRL registers and
// the EXP2 TTY buffer. It does not own the scratchpad (that belongs to the
// CPU's data cache, see the segment package) and it does not own the
// peripherals it talks to - those are injected at construction as a
// Peripherals bundle of bus.RegisterDevice implementations.
package memory
