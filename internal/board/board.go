// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package board describes the supported Allwinner chips and the two boot
// strategies the tool knows how to produce images for: direct execution
// from the internal SRAM and SPL assisted execution from the external DRAM.
package board

import "fmt"

// Chip is an Allwinner chip variant.
type Chip int

const (
	F1C100s Chip = iota // 32 MiB of in-package DDR1
	F1C200s             // 64 MiB of in-package DDR1
)

func (c Chip) String() string {
	switch c {
	case F1C100s:
		return "F1C100s"
	case F1C200s:
		return "F1C200s"
	}
	return fmt.Sprintf("Chip(%d)", int(c))
}

// ParseChip converts a chip name to a Chip.
func ParseChip(name string) (Chip, error) {
	switch name {
	case "f1c100s", "F1C100s":
		return F1C100s, nil
	case "f1c200s", "F1C200s":
		return F1C200s, nil
	}
	return 0, fmt.Errorf("unknown chip: %s", name)
}

// Mode selects the boot strategy.
type Mode int

const (
	// SPL boots through a first stage loader: the boot ROM loads the SPL
	// from the flash into SRAM, the SPL initializes the clocks, the DRAM
	// controller and the MMU, then chain-loads the main program into DRAM.
	SPL Mode = iota

	// Direct wraps the main program itself in an eGON.BT0 header so the
	// boot ROM loads it straight into SRAM and jumps to it. No DRAM is
	// available, the program must fit in the boot part of the SRAM.
	Direct
)

func (m Mode) String() string {
	if m == Direct {
		return "direct"
	}
	return "spl"
}

// Profile is an immutable chip+mode pair. It determines the memory layout
// and the image formats produced by the build.
type Profile struct {
	Chip Chip
	Mode Mode
}

// Memory map constants shared by the layout planner, the image builders and
// the FEL dispatch code. Keep them here: the same addresses must be used for
// linking, for the uImage load/entry fields and for the run-over-FEL command
// sequence.
const (
	SRAMBase = 0x0000_0000 // boot part of the internal SRAM
	DRAMBase = 0x8000_0000

	DirectCodeSize = 24 * 1024
	DirectDataSize = 8 * 1024

	// The SPL keeps its page tables in the first 32 KiB of DRAM and they
	// stay live after the hand-off. Code placed there is translated
	// through tables it has just overwritten.
	PageTableSize = 0x8000

	SPLCodeOrigin = DRAMBase + PageTableSize
	SPLCodeSize   = 32*1024*1024 - PageTableSize
	SPLDataOrigin = DRAMBase + 32*1024*1024
	SPLDataSize   = 32 * 1024 * 1024
)

// RegionKind tells what a memory region is used for.
type RegionKind int

const (
	Code RegionKind = iota
	Data
)

func (k RegionKind) String() string {
	if k == Code {
		return "code"
	}
	return "data"
}

// Region is a contiguous memory region with an absolute origin.
type Region struct {
	Kind   RegionKind
	Origin uint32
	Size   uint32
}

// End returns the first address past the region.
func (r Region) End() uint32 { return r.Origin + r.Size }

// Layout returns the code and data regions for the profile, in address
// order. The regions never overlap and in SPL mode the code region starts
// past the SPL page table area.
func (p Profile) Layout() []Region {
	switch p.Mode {
	case Direct:
		return []Region{
			{Code, SRAMBase, DirectCodeSize},
			{Data, SRAMBase + DirectCodeSize, DirectDataSize},
		}
	case SPL:
		return []Region{
			{Code, SPLCodeOrigin, SPLCodeSize},
			{Data, SPLDataOrigin, SPLDataSize},
		}
	}
	panic("board: unknown boot mode")
}

// CodeOrigin returns the load/entry address of the main program.
func (p Profile) CodeOrigin() uint32 {
	return p.Layout()[0].Origin
}
