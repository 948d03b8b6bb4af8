// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elf extracts the loadable contents of an executable as a flat,
// memory ordered byte image, the way objcopy -O binary does.
package elf

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sunxitools/f1ctool/internal/util"
)

// Section is a loadable chunk of the program image.
type Section struct {
	Vaddr  uint64 // address in the memory during execution
	Paddr  uint64 // physical location of the section in the Flash/ROM
	Offset uint64 // offset in the ELF file to the beginning of the section data
	Data   []byte // section data
}

type Sections []*Section

// ReadFile reads the loadable sections of the program and returns them as a
// slice. The order of the returned sections is unspecified.
func ReadFile(name string) (Sections, error) {
	r, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ss := make(Sections, 0, 16)
	for i, s := range f.Sections {
		if s.Type != elf.SHT_PROGBITS || s.Flags&elf.SHF_ALLOC == 0 {
			if k := i + 1; k < len(f.Sections) && len(ss) != 0 {
				ns := f.Sections[k]
				if ns.Type == elf.SHT_PROGBITS && ns.Flags&elf.SHF_ALLOC != 0 {
					// Log the non-loadable sections between loadable ones.
					util.Warn(
						"readelf: skipping section '%s' (%d bytes)",
						s.Name, s.Size,
					)
				}
			}
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		paddr := ^uint64(0)
		for _, p := range f.Progs {
			if p.Type != elf.PT_LOAD {
				continue
			}
			if p.Off <= s.Offset && s.Offset < p.Off+p.Filesz {
				paddr = p.Paddr + s.Offset - p.Off
				break
			}
		}
		ss = append(ss, &Section{s.Addr, paddr, s.Offset, data})
	}
	if len(ss) == 0 {
		return nil, errors.New("no loadable sections in " + name)
	}
	return ss, nil
}

// ReadBins reads binary files according to the "BIN1:ADDR1[,BIN2:ADDR2]"
// description and returns them as a slice of sections.
func ReadBins(descr string) (Sections, error) {
	bins := strings.Split(descr, ",")
	ss := make(Sections, len(bins))
	for k, ba := range bins {
		i := strings.LastIndexByte(ba, ':')
		if i <= 0 {
			return nil, fmt.Errorf("bad '%s' in the -inc option", ba)
		}
		bin, addr := ba[:i], ba[i+1:]
		s := new(Section)
		var err error
		s.Paddr, err = strconv.ParseUint(addr, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("bad address in '%s': %s", addr, err)
		}
		s.Data, err = os.ReadFile(bin)
		if err != nil {
			return nil, err
		}
		ss[k] = s
	}
	return ss, nil
}

// SortByPaddr sorts sections according to the Paddr field.
func (ss Sections) SortByPaddr() {
	sort.Slice(
		ss,
		func(i, j int) bool {
			return ss[i].Paddr < ss[j].Paddr
		},
	)
}

// Flatten returns the memory ordered contents of the sections, starting at
// the lowest physical address. The gaps between sections are filled with
// the pad byte. Overlapping sections are an error.
func (ss Sections) Flatten(pad byte) ([]byte, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	ss.SortByPaddr()
	img := append([]byte(nil), ss[0].Data...)
	pa := ss[0].Paddr + uint64(len(img))
	var padCache []byte
	for _, s := range ss[1:] {
		if s.Paddr < pa {
			return nil, errors.New("flatten: overlapping sections")
		}
		if gap := int(s.Paddr - pa); gap != 0 {
			img = append(img, util.PadBytes(&padCache, gap, pad)...)
		}
		img = append(img, s.Data...)
		pa = s.Paddr + uint64(len(s.Data))
	}
	return img, nil
}
