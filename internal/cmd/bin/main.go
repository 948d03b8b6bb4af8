// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bin

import (
	"flag"
	"fmt"
	"os"

	"github.com/sunxitools/f1ctool/internal/elf"
	"github.com/sunxitools/f1ctool/internal/util"
)

const Descr = "convert an ELF file to a raw binary image"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] [ELF [BIN]]\nOptions:\n",
			cmd,
		)
		fs.PrintDefaults()
	}
	inc := fs.String(
		"inc", "",
		"binary files to be included BIN1:ADDR1[,BIN2:ADDR2[,...]]",
	)
	pad := fs.Uint(
		"pad", 0xff,
		"pad `byte` used to fill gaps between sections",
	)
	fs.Parse(args)
	if fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	elfName, binName := util.InOutFiles(fs.Arg(0), ".elf", fs.Arg(1), ".bin")
	sections, err := elf.ReadFile(elfName)
	util.FatalErr("readelf", err)
	if *inc != "" {
		isec, err := elf.ReadBins(*inc)
		util.FatalErr("readbins", err)
		sections = append(sections, isec...)
	}
	img, err := sections.Flatten(byte(*pad))
	util.FatalErr("flatten", err)
	util.FatalErr("", os.WriteFile(binName, img, 0o666))
}
