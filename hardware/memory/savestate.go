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
	"encoding/binary"
	"fmt"
	"io"
)

// Save writes the bus's persisted state to w in the fixed layout: the five
// derived access-time triples, the RAM and BIOS images, the nine MEMCTRL
// registers, the RAM-size register, and the TTY line buffer. Byte order is
// little-endian throughout.
//
// The access-time triples are persisted rather than recomputed on load so
// that a save made mid-reprogram (between the MEMCTRL write and whatever
// would normally trigger recomputation) round-trips exactly.
func (d *Dispatcher) Save(w io.Writer) error {
	triples := []AccessTimeTriple{
		d.memctrl.exp1AccessTime,
		d.memctrl.exp2AccessTime,
		d.memctrl.biosAccessTime,
		d.memctrl.cdromAccessTime,
		d.memctrl.spuAccessTime,
	}
	for _, t := range triples {
		if err := writeAccessTime(w, t); err != nil {
			return err
		}
	}

	if _, err := w.Write(d.ram[:]); err != nil {
		return fmt.Errorf("memory: writing RAM: %w", err)
	}
	if _, err := w.Write(d.bios[:]); err != nil {
		return fmt.Errorf("memory: writing BIOS: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, d.memctrl.registers); err != nil {
		return fmt.Errorf("memory: writing MEMCTRL: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, d.ramSize); err != nil {
		return fmt.Errorf("memory: writing ram_size_reg: %w", err)
	}

	lineLen := uint32(len(d.tty.line))
	if err := binary.Write(w, binary.LittleEndian, lineLen); err != nil {
		return fmt.Errorf("memory: writing TTY buffer length: %w", err)
	}
	if lineLen > 0 {
		if _, err := w.Write(d.tty.line); err != nil {
			return fmt.Errorf("memory: writing TTY buffer: %w", err)
		}
	}

	return nil
}

// Load replaces the bus's persisted state with the contents read from r, in
// the same layout Save produces. BIOS/EXP1 images must already be the
// correct size - Load overwrites the RAM and BIOS arrays in place and does
// not resize anything.
func (d *Dispatcher) Load(r io.Reader) error {
	var triples [5]AccessTimeTriple
	for i := range triples {
		t, err := readAccessTime(r)
		if err != nil {
			return err
		}
		triples[i] = t
	}
	d.memctrl.exp1AccessTime = triples[0]
	d.memctrl.exp2AccessTime = triples[1]
	d.memctrl.biosAccessTime = triples[2]
	d.memctrl.cdromAccessTime = triples[3]
	d.memctrl.spuAccessTime = triples[4]

	if _, err := io.ReadFull(r, d.ram[:]); err != nil {
		return fmt.Errorf("memory: reading RAM: %w", err)
	}
	if _, err := io.ReadFull(r, d.bios[:]); err != nil {
		return fmt.Errorf("memory: reading BIOS: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &d.memctrl.registers); err != nil {
		return fmt.Errorf("memory: reading MEMCTRL: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &d.ramSize); err != nil {
		return fmt.Errorf("memory: reading ram_size_reg: %w", err)
	}

	var lineLen uint32
	if err := binary.Read(r, binary.LittleEndian, &lineLen); err != nil {
		return fmt.Errorf("memory: reading TTY buffer length: %w", err)
	}
	line := make([]byte, lineLen)
	if lineLen > 0 {
		if _, err := io.ReadFull(r, line); err != nil {
			return fmt.Errorf("memory: reading TTY buffer: %w", err)
		}
	}
	d.tty.line = line

	return nil
}

func writeAccessTime(w io.Writer, t AccessTimeTriple) error {
	v := [3]int32{t.Byte, t.HalfWord, t.Word}
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("memory: writing access-time triple: %w", err)
	}
	return nil
}

func readAccessTime(r io.Reader) (AccessTimeTriple, error) {
	var v [3]int32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return AccessTimeTriple{}, fmt.Errorf("memory: reading access-time triple: %w", err)
	}
	return AccessTimeTriple{Byte: v[0], HalfWord: v[1], Word: v[2]}, nil
}
