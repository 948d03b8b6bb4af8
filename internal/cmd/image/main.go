// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

import (
	"flag"
	"fmt"
	"os"

	"github.com/sunxitools/f1ctool/internal/flashimg"
	"github.com/sunxitools/f1ctool/internal/util"
)

const Descr = "assemble a complete SPI flash image from an SPL and a uImage"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s -spl SPL [OPTIONS] [UIMG [IMG]]\nOptions:\n",
			cmd,
		)
		fs.PrintDefaults()
	}
	splName := fs.String("spl", "", "first stage loader image `file` (required)")
	reserved := fs.Uint(
		"reserved", flashimg.SPLReserved,
		"`size` of the flash area reserved for the SPL",
	)
	fs.Parse(args)
	if *splName == "" || fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	uimgName, imgName := util.InOutFiles(fs.Arg(0), ".uimg", fs.Arg(1), "-flash.img")
	spl, err := os.ReadFile(*splName)
	util.FatalErr("", err)
	uimg, err := os.ReadFile(uimgName)
	util.FatalErr("", err)
	img, err := flashimg.Assemble(spl, uimg, int(*reserved))
	util.FatalErr("", err)
	util.FatalErr("", os.WriteFile(imgName, img, 0o666))
	fmt.Printf("%s: %d bytes (SPL %d of %d reserved)\n",
		imgName, len(img), len(spl), *reserved)
}
