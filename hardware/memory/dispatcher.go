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

import (
	"github.com/jetsetilly/gopsx/curated"
	"github.com/jetsetilly/gopsx/hardware/memory/bus"
	"github.com/jetsetilly/gopsx/hardware/memory/memorymap"
	"github.com/jetsetilly/gopsx/hardware/memory/timing"
	"github.com/jetsetilly/gopsx/logger"
)

// AccessTimeTriple re-exports timing.AccessTime so callers outside the
// package don't need to import the timing package just to read a triple
// back.
type AccessTimeTriple = timing.AccessTime

// Dispatcher is the bus: it owns RAM, the BIOS image, EXP1, MEMCTRL and the
// EXP2 TTY buffer, and forwards every other physical address to the
// peripheral it belongs to.
//
// A Dispatcher is not safe for concurrent use. The core is synchronous and
// single-threaded by design.
type Dispatcher struct {
	ram  [RAMSize]byte
	bios [BIOSSize]byte
	exp1 []byte

	memctrl *memctrl
	ramSize uint32
	tty     ttyBuffer

	peripherals Peripherals
	invalidator bus.CodeInvalidator
	ttySink     bus.TTYSink

	logPerm logger.Permission
}

// NewDispatcher constructs a Dispatcher at its post-reset state. invalidator
// is called after every RAM write and must not be nil - if the caller has no
// recompiler, pass a no-op implementation rather than nil, since the bus
// does not itself guard against a missing collaborator (see the Design
// Notes on the recompiler coupling).
func NewDispatcher(invalidator bus.CodeInvalidator, peripherals Peripherals) *Dispatcher {
	d := &Dispatcher{
		memctrl:     newMemctrl(),
		ramSize:     resetRAMSizeReg,
		peripherals: peripherals,
		invalidator: invalidator,
		logPerm:     logger.Allow,
	}
	return d
}

// SetLogPermission controls whether this dispatcher's tolerated-but-unusual
// conditions (invalid accesses, POST writes, TTY lines) reach the logger.
// Defaults to always-allow.
func (d *Dispatcher) SetLogPermission(perm logger.Permission) {
	d.logPerm = perm
}

// SetTTYSink installs a collaborator that receives completed EXP2 TTY
// lines. When nil (the default) completed lines are only written to the
// logger.
func (d *Dispatcher) SetTTYSink(sink bus.TTYSink) {
	d.ttySink = sink
}

// SetBIOS installs the BIOS image, which must be exactly BIOSSize bytes.
// A mismatched size is a fatal host-side configuration error - the spec
// that governs this core requires the process to abort rather than limp on
// with a corrupt or truncated BIOS.
func (d *Dispatcher) SetBIOS(image []byte) {
	if len(image) != BIOSSize {
		panic(curated.Errorf("memory: BIOS image must be %d bytes, got %d", BIOSSize, len(image)))
	}
	copy(d.bios[:], image)
}

// SetExpansionROM installs the EXP1 expansion ROM image. A nil or empty
// slice means EXP1 is absent; every read then returns 0xffffffff, including
// the hard-coded Action Replay probe, which only reads 1 while an image is
// installed.
func (d *Dispatcher) SetExpansionROM(data []byte) {
	d.exp1 = data
}

// Reset returns the bus to its post-construction state: RAM zeroed, MEMCTRL
// and the RAM-size register reset, the TTY buffer emptied. BIOS and EXP1
// images are untouched - they are loaded once, outside the reset cycle.
func (d *Dispatcher) Reset() {
	for i := range d.ram {
		d.ram[i] = 0
	}
	d.memctrl = newMemctrl()
	d.ramSize = resetRAMSizeReg
	d.tty.line = d.tty.line[:0]
}

// EXP1AccessTime, EXP2AccessTime, BIOSAccessTime, CDROMAccessTime and
// SPUAccessTime expose the access-time triples derived from MEMCTRL, for
// inspection by tests and the savestate writer.
func (d *Dispatcher) EXP1AccessTime() AccessTimeTriple  { return d.memctrl.exp1AccessTime }
func (d *Dispatcher) EXP2AccessTime() AccessTimeTriple  { return d.memctrl.exp2AccessTime }
func (d *Dispatcher) BIOSAccessTime() AccessTimeTriple  { return d.memctrl.biosAccessTime }
func (d *Dispatcher) CDROMAccessTime() AccessTimeTriple { return d.memctrl.cdromAccessTime }
func (d *Dispatcher) SPUAccessTime() AccessTimeTriple   { return d.memctrl.spuAccessTime }

// ReadByte, ReadHalfWord and ReadWord decode phys and perform a typed read.
// ok is false only for a bus error (address outside every recognized
// region); tolerated-but-unusual conditions inside a recognized region
// (e.g. a bad MEMCTRL2 sub-offset) report ok=true with a sentinel value.
func (d *Dispatcher) ReadByte(phys uint32) (ok bool, value uint32, ticks int32) {
	return d.read(phys, bus.Byte)
}

func (d *Dispatcher) ReadHalfWord(phys uint32) (ok bool, value uint32, ticks int32) {
	return d.read(phys, bus.HalfWord)
}

func (d *Dispatcher) ReadWord(phys uint32) (ok bool, value uint32, ticks int32) {
	return d.read(phys, bus.Word)
}

// WriteByte, WriteHalfWord and WriteWord decode phys and perform a typed
// write. See ReadByte for the meaning of ok.
func (d *Dispatcher) WriteByte(phys uint32, value uint32) (ok bool, ticks int32) {
	return d.write(phys, bus.Byte, value)
}

func (d *Dispatcher) WriteHalfWord(phys uint32, value uint32) (ok bool, ticks int32) {
	return d.write(phys, bus.HalfWord, value)
}

func (d *Dispatcher) WriteWord(phys uint32, value uint32) (ok bool, ticks int32) {
	return d.write(phys, bus.Word, value)
}

// GetDMARAMTickCount is the tick cost of a bulk RAM DMA transfer of n
// words: cheaper, per word, than n independent CPU word accesses since the
// transfer never leaves RAM's own timing domain.
func GetDMARAMTickCount(wordCount int) int32 {
	return int32(wordCount)
}

// ReadWords and WriteWords are the bulk DMA entry points. When the whole
// range lies within RAM they copy directly and charge GetDMARAMTickCount;
// otherwise they fall back to a word-by-word walk through the dispatcher,
// summing ticks and aborting with -1 on the first invalid (bus error)
// access.
func (d *Dispatcher) ReadWords(phys uint32, dst []uint32, wordCount int) int32 {
	if uint64(phys)+uint64(wordCount)*4 <= RAMSize {
		base := phys
		for i := 0; i < wordCount; i++ {
			dst[i] = d.ramReadWordRaw(base)
			base += 4
		}
		return GetDMARAMTickCount(wordCount)
	}

	var total int32
	addr := phys
	for i := 0; i < wordCount; i++ {
		ok, v, ticks := d.read(addr, bus.Word)
		if !ok {
			return -1
		}
		dst[i] = v
		total += ticks
		addr += 4
	}
	return total
}

func (d *Dispatcher) WriteWords(phys uint32, src []uint32, wordCount int) int32 {
	if uint64(phys)+uint64(wordCount)*4 <= RAMSize {
		base := phys
		for i := 0; i < wordCount; i++ {
			d.ramWriteWordRaw(base, src[i])
			base += 4
		}
		d.invalidator.InvalidateCodePages(phys, uint32(wordCount))
		return GetDMARAMTickCount(wordCount)
	}

	var total int32
	addr := phys
	for i := 0; i < wordCount; i++ {
		ok, ticks := d.write(addr, bus.Word, src[i])
		if !ok {
			return -1
		}
		total += ticks
		addr += 4
	}
	return total
}

func (d *Dispatcher) ramReadWordRaw(offset uint32) uint32 {
	return uint32(d.ram[offset]) | uint32(d.ram[offset+1])<<8 | uint32(d.ram[offset+2])<<16 | uint32(d.ram[offset+3])<<24
}

func (d *Dispatcher) ramWriteWordRaw(offset uint32, v uint32) {
	d.ram[offset] = byte(v)
	d.ram[offset+1] = byte(v >> 8)
	d.ram[offset+2] = byte(v >> 16)
	d.ram[offset+3] = byte(v >> 24)
}

func (d *Dispatcher) read(phys uint32, width bus.Width) (bool, uint32, int32) {
	area, offset := memorymap.MapAddress(phys)
	switch area {
	case memorymap.RAM:
		return true, d.readRAM(offset, width), 0

	case memorymap.EXP1:
		return true, d.readEXP1(offset, width), d.memctrl.exp1AccessTime.ForWidth(int(width))

	case memorymap.MemControl:
		return true, laneRead(memctrlRegisterDevice{d.memctrl}, offset, width), 2

	case memorymap.Pad:
		return d.readPassthrough(d.peripherals.Pad, offset, phys, width, "Pad")

	case memorymap.SIO:
		return d.readPassthrough(d.peripherals.SIO, offset, phys, width, "SIO")

	case memorymap.MemControl2:
		if offset == 0 {
			return true, d.ramSize, 2
		}
		return d.tolerated("MemControl2", bus.Word, phys, true, 0)

	case memorymap.InterruptController:
		return d.readPeripheral(d.peripherals.InterruptController, offset, phys, width, "InterruptController")

	case memorymap.DMA:
		return d.readPeripheral(d.peripherals.DMA, offset, phys, width, "DMA")

	case memorymap.Timers:
		return d.readPeripheral(d.peripherals.Timers, offset, phys, width, "Timers")

	case memorymap.CDROM:
		if d.peripherals.CDROM == nil {
			return d.tolerated("CDROM", width, phys, true, 0)
		}
		return true, cdromRead(d.peripherals.CDROM, offset, width), d.memctrl.cdromAccessTime.ForWidth(int(width))

	case memorymap.GPU:
		return d.readPeripheral(d.peripherals.GPU, offset, phys, width, "GPU")

	case memorymap.MDEC:
		return d.readPeripheral(d.peripherals.MDEC, offset, phys, width, "MDEC")

	case memorymap.SPU:
		if d.peripherals.SPU == nil {
			return d.tolerated("SPU", width, phys, true, 0)
		}
		return true, spuRead(d.peripherals.SPU, offset, width), d.memctrl.spuAccessTime.ForWidth(int(width))

	case memorymap.EXP2:
		return true, d.readEXP2(offset), d.memctrl.exp2AccessTime.ForWidth(int(width))

	case memorymap.BIOS:
		return true, d.readBIOS(offset, width), d.memctrl.biosAccessTime.ForWidth(int(width))

	default:
		return d.busError("read", width, phys, 0)
	}
}

func (d *Dispatcher) write(phys uint32, width bus.Width, value uint32) (bool, int32) {
	area, offset := memorymap.MapAddress(phys)
	switch area {
	case memorymap.RAM:
		d.writeRAM(offset, width, value)
		return true, 0

	case memorymap.EXP1:
		logger.Logf(d.logPerm, "bus", "EXP1 write: %#08x <- %#08x", phys, value)
		return true, 0

	case memorymap.MemControl:
		laneWrite(memctrlRegisterDevice{d.memctrl}, offset, width, value)
		return true, 0

	case memorymap.Pad:
		return d.writePassthrough(d.peripherals.Pad, offset, phys, width, value, "Pad")

	case memorymap.SIO:
		return d.writePassthrough(d.peripherals.SIO, offset, phys, width, value, "SIO")

	case memorymap.MemControl2:
		if offset == 0 {
			d.ramSize = value
			return true, 0
		}
		ok, _, ticks := d.tolerated("MemControl2", width, phys, false, value)
		return ok, ticks

	case memorymap.InterruptController:
		return d.writePeripheral(d.peripherals.InterruptController, offset, phys, width, value, "InterruptController")

	case memorymap.DMA:
		return d.writeDMA(offset, phys, width, value)

	case memorymap.Timers:
		return d.writePeripheral(d.peripherals.Timers, offset, phys, width, value, "Timers")

	case memorymap.CDROM:
		if d.peripherals.CDROM == nil {
			ok, _, ticks := d.tolerated("CDROM", width, phys, false, value)
			return ok, ticks
		}
		cdromWrite(d.peripherals.CDROM, offset, width, value)
		return true, 0

	case memorymap.GPU:
		return d.writePeripheral(d.peripherals.GPU, offset, phys, width, value, "GPU")

	case memorymap.MDEC:
		return d.writePeripheral(d.peripherals.MDEC, offset, phys, width, value, "MDEC")

	case memorymap.SPU:
		if d.peripherals.SPU == nil {
			ok, _, ticks := d.tolerated("SPU", width, phys, false, value)
			return ok, ticks
		}
		spuWrite(d.peripherals.SPU, offset, width, value)
		return true, 0

	case memorymap.EXP2:
		d.writeEXP2(offset, value)
		return true, 0

	case memorymap.BIOS:
		logger.Logf(d.logPerm, "bus", "BIOS write ignored: %#08x <- %#08x", phys, value)
		return true, 0

	default:
		_, _, ticks := d.busError("write", width, phys, value)
		return false, ticks
	}
}

func (d *Dispatcher) readPeripheral(dev bus.RegisterDevice, offset, phys uint32, width bus.Width, name string) (bool, uint32, int32) {
	if dev == nil {
		return d.tolerated(name, width, phys, true, 0)
	}
	return true, laneRead(dev, offset, width), 2
}

func (d *Dispatcher) writePeripheral(dev bus.RegisterDevice, offset, phys uint32, width bus.Width, value uint32, name string) (bool, int32) {
	if dev == nil {
		ok, _, ticks := d.tolerated(name, width, phys, false, value)
		return ok, ticks
	}
	laneWrite(dev, offset, width, value)
	return true, 0
}

// readPassthrough and writePassthrough forward the raw, unaligned offset and
// value straight to a RegisterDevice with no word-lane fixup. Pad and SIO
// are the only two peripherals accessed this way: unlike IRQ/DMA/Timers/
// GPU/MDEC, they handle sub-word lanes themselves, so aligning the offset
// and shifting the value here would double up the fixup the device already
// does internally.
func (d *Dispatcher) readPassthrough(dev bus.RegisterDevice, offset, phys uint32, width bus.Width, name string) (bool, uint32, int32) {
	if dev == nil {
		return d.tolerated(name, width, phys, true, 0)
	}
	return true, dev.ReadRegister(offset), 2
}

func (d *Dispatcher) writePassthrough(dev bus.RegisterDevice, offset, phys uint32, width bus.Width, value uint32, name string) (bool, int32) {
	if dev == nil {
		ok, _, ticks := d.tolerated(name, width, phys, false, value)
		return ok, ticks
	}
	dev.WriteRegister(offset, value)
	return true, 0
}

func (d *Dispatcher) writeDMA(offset, phys uint32, width bus.Width, value uint32) (bool, int32) {
	if d.peripherals.DMA == nil {
		ok, _, ticks := d.tolerated("DMA", width, phys, false, value)
		return ok, ticks
	}
	if width != bus.Word && dmaNarrowWriteIsBlockCount(offset) {
		d.peripherals.DMA.WriteRegister(offset&^3, value&widthMask(width))
		return true, 0
	}
	laneWrite(d.peripherals.DMA, offset, width, value)
	return true, 0
}

func (d *Dispatcher) readRAM(offset uint32, width bus.Width) uint32 {
	offset %= RAMSize
	switch width {
	case bus.Byte:
		return uint32(d.ram[offset])
	case bus.HalfWord:
		return uint32(d.ram[offset]) | uint32(d.ram[offset+1])<<8
	default:
		return d.ramReadWordRaw(offset)
	}
}

func (d *Dispatcher) writeRAM(offset uint32, width bus.Width, value uint32) {
	offset %= RAMSize
	switch width {
	case bus.Byte:
		d.ram[offset] = byte(value)
	case bus.HalfWord:
		d.ram[offset] = byte(value)
		d.ram[offset+1] = byte(value >> 8)
	default:
		d.ramWriteWordRaw(offset, value)
	}
	d.invalidator.InvalidateCodePages(offset, uint32(width+3)/4)
}

func (d *Dispatcher) readBIOS(offset uint32, width bus.Width) uint32 {
	switch width {
	case bus.Byte:
		return uint32(d.bios[offset])
	case bus.HalfWord:
		return uint32(d.bios[offset]) | uint32(d.bios[offset+1])<<8
	default:
		return uint32(d.bios[offset]) | uint32(d.bios[offset+1])<<8 | uint32(d.bios[offset+2])<<16 | uint32(d.bios[offset+3])<<24
	}
}

func (d *Dispatcher) readEXP1(offset uint32, width bus.Width) uint32 {
	if len(d.exp1) == 0 {
		return 0xffffffff
	}
	if offset == exp1MagicOffset {
		return 1
	}
	if int(offset)+int(width) > len(d.exp1) {
		return 0
	}
	switch width {
	case bus.Byte:
		return uint32(d.exp1[offset])
	case bus.HalfWord:
		return uint32(d.exp1[offset]) | uint32(d.exp1[offset+1])<<8
	default:
		return uint32(d.exp1[offset]) | uint32(d.exp1[offset+1])<<8 | uint32(d.exp1[offset+2])<<16 | uint32(d.exp1[offset+3])<<24
	}
}

func (d *Dispatcher) readEXP2(offset uint32) uint32 {
	if offset == 0x21 {
		return 0x0c
	}
	logger.Logf(d.logPerm, "bus", "EXP2 read: offset %#04x", offset)
	return 0xffffffff
}

func (d *Dispatcher) writeEXP2(offset uint32, value uint32) {
	switch offset {
	case 0x23:
		d.tty.write(byte(value), func(line string) {
			logger.Logf(d.logPerm, "tty", "%s", line)
			if d.ttySink != nil {
				d.ttySink.WriteLine(line)
			}
		})
	case 0x41:
		logger.Logf(d.logPerm, "bus", "BIOS POST status: %#02x", value&0x0f)
	default:
		logger.Logf(d.logPerm, "bus", "EXP2 write: offset %#04x <- %#08x", offset, value)
	}
}

// tolerated handles an access that falls inside a recognized region but at
// an offset the region doesn't actually decode (e.g. MEMCTRL2 beyond its
// single register, or a peripheral window with no device attached). Per the
// error-handling design this is explicitly not a bus error.
func (d *Dispatcher) tolerated(region string, width bus.Width, addr uint32, isRead bool, value uint32) (bool, uint32, int32) {
	if isRead {
		logger.Logf(d.logPerm, "bus", "invalid %s read (%d byte) at %#08x", region, width, addr)
		return true, 0xffffffff, 1
	}
	logger.Logf(d.logPerm, "bus", "invalid %s write (%d byte) at %#08x (value %#08x)", region, width, addr, value)
	return true, 0, 1
}

// busError handles an address outside every recognized region. Unlike
// tolerated, this is the condition the segment mapper escalates into a CPU
// DBE/IBE exception.
func (d *Dispatcher) busError(direction string, width bus.Width, addr uint32, value uint32) (bool, uint32, int32) {
	if direction == "read" {
		logger.Logf(d.logPerm, "bus", "invalid %d byte read at %#08x", width, addr)
		return false, 0xffffffff, -1
	}
	logger.Logf(d.logPerm, "bus", "invalid %d byte write at %#08x (value %#08x)", width, addr, value)
	return false, 0, -1
}

// memctrlRegisterDevice adapts memctrl's word-indexed register file to the
// bus.RegisterDevice contract so the dispatcher can reuse the same
// lane-fixup helper it uses for every other 32-bit-register peripheral.
type memctrlRegisterDevice struct {
	m *memctrl
}

func (r memctrlRegisterDevice) ReadRegister(offset uint32) uint32 {
	return r.m.readRegister(int(offset / 4))
}

func (r memctrlRegisterDevice) WriteRegister(offset uint32, value uint32) {
	r.m.writeRegister(int(offset/4), value)
}
