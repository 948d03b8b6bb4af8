// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mem

import (
	"flag"
	"fmt"
	"os"

	"github.com/sunxitools/f1ctool/internal/board"
	"github.com/sunxitools/f1ctool/internal/util"
)

const Descr = "print the memory layout for a boot profile"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS]\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	chip := fs.String("chip", "f1c100s", "chip `variant`: f1c100s, f1c200s")
	direct := fs.Bool("direct", false, "direct boot from SRAM, no SPL")
	fs.Parse(args)
	if fs.NArg() != 0 {
		fs.Usage()
		os.Exit(1)
	}
	c, err := board.ParseChip(*chip)
	util.FatalErr("", err)
	p := board.Profile{Chip: c, Mode: board.SPL}
	if *direct {
		p.Mode = board.Direct
	}
	fmt.Printf("%s, %s boot:\n", p.Chip, p.Mode)
	for _, r := range p.Layout() {
		fmt.Printf("  %-4s %#08x..%#08x (%d KiB)\n",
			r.Kind, r.Origin, r.End(), r.Size/1024)
	}
}
