// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package egon

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"github.com/sunxitools/f1ctool/internal/egon"
	"github.com/sunxitools/f1ctool/internal/util"
)

const Descr = "wrap a raw binary in the eGON.BT0 boot ROM header"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] [BIN [IMG]]\nOptions:\n",
			cmd,
		)
		fs.PrintDefaults()
	}
	quiet := fs.Bool("quiet", false, "do not print the image summary")
	fs.Parse(args)
	if fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	binName, imgName := util.InOutFiles(fs.Arg(0), ".bin", fs.Arg(1), "-boot.img")
	code, err := os.ReadFile(binName)
	util.FatalErr("", err)
	img := egon.Make(code)
	util.FatalErr("", os.WriteFile(imgName, img, 0o666))
	if !*quiet {
		fmt.Printf("%s: %d bytes of code at %#x, %d bytes total, checksum %#08x\n",
			imgName, len(code), egon.CodeStart, len(img),
			binary.LittleEndian.Uint32(img[12:]),
		)
	}
}
