// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uimage

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sunxitools/f1ctool/internal/board"
	"github.com/sunxitools/f1ctool/internal/uimage"
	"github.com/sunxitools/f1ctool/internal/util"
)

const Descr = "wrap a raw binary in the U-Boot (uImage) header"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] [BIN [UIMG]]\nOptions:\n",
			cmd,
		)
		fs.PrintDefaults()
	}
	load := fs.Uint64(
		"load", uint64(board.SPLCodeOrigin),
		"load `address` of the binary",
	)
	entry := fs.Uint64(
		"entry", 0,
		"entry `address` (defaults to the load address)",
	)
	name := fs.String("name", "", "image `name` (defaults to the file name)")
	fs.Parse(args)
	if fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	binName, imgName := util.InOutFiles(fs.Arg(0), ".bin", fs.Arg(1), ".uimg")
	if *entry == 0 {
		*entry = *load
	}
	if *name == "" {
		*name = strings.TrimSuffix(binName, ".bin")
	}
	code, err := os.ReadFile(binName)
	util.FatalErr("", err)
	img := uimage.Make(code, uint32(*load), uint32(*entry), *name)
	util.FatalErr("", os.WriteFile(imgName, img, 0o666))
}
