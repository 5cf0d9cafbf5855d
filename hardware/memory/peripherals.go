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

import "github.com/jetsetilly/gopsx/hardware/memory/bus"

// Peripherals bundles every memory-mapped device the dispatcher forwards to.
// A nil field is treated as unpopulated: accesses to that device's window
// are logged and handled as an invalid access rather than panicking, which
// keeps the dispatcher usable in tests that only care about a subset of the
// machine.
type Peripherals struct {
	InterruptController bus.RegisterDevice
	DMA                 bus.RegisterDevice
	GPU                 bus.RegisterDevice
	MDEC                bus.RegisterDevice
	CDROM               bus.RegisterDevice
	SPU                 bus.RegisterDevice
	Timers              bus.RegisterDevice
	Pad                 bus.RegisterDevice
	SIO                 bus.RegisterDevice
}
