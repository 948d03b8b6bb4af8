// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hex

import (
	"flag"
	"fmt"
	"os"

	"github.com/marcinbor85/gohex"

	"github.com/sunxitools/f1ctool/internal/elf"
	"github.com/sunxitools/f1ctool/internal/util"
)

const Descr = "convert an ELF file to the Intel HEX format"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] [ELF [HEX]]\nOptions:\n",
			cmd,
		)
		fs.PrintDefaults()
	}
	inc := fs.String(
		"inc", "",
		"binary files to be included BIN1:ADDR1[,BIN2:ADDR2[,...]]",
	)
	fs.Parse(args)
	if fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	elfName, hexName := util.InOutFiles(fs.Arg(0), ".elf", fs.Arg(1), ".hex")
	sections, err := elf.ReadFile(elfName)
	util.FatalErr("readelf", err)
	if *inc != "" {
		isec, err := elf.ReadBins(*inc)
		util.FatalErr("readbins", err)
		sections = append(sections, isec...)
	}
	sections.SortByPaddr()
	mem := gohex.NewMemory()
	for _, s := range sections {
		mem.AddBinary(uint32(s.Paddr), s.Data)
	}
	w, err := os.Create(hexName)
	util.FatalErr("", err)
	defer w.Close()
	err = mem.DumpIntelHex(w, 16)
	util.FatalErr("dumpintelhex", err)
}
