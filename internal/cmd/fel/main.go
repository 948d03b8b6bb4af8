// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fel

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/sunxitools/f1ctool/internal/fel"
	"github.com/sunxitools/f1ctool/internal/util"
)

const Descr = "issue single commands to a device in FEL mode"

const usage = `Usage:
  %s [OPTIONS] version
  %s [OPTIONS] write ADDR FILE
  %s [OPTIONS] exec ADDR
  %s [OPTIONS] spl FILE
  %s -spl SPL [OPTIONS] flash OFFSET FILE
Options:
`

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, usage, cmd, cmd, cmd, cmd, cmd)
		fs.PrintDefaults()
	}
	busAddr := fs.String("usb", "", "select the USB device by `BUS:ADDR`")
	splName := fs.String("spl", "", "first stage loader `file` (flash only)")
	wait := fs.Duration("wait", 0, "keep waiting for the device for the given `time`")
	quiet := fs.Bool("quiet", false, "do not print diagnostic information")
	fs.Parse(args)
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}

	conn, err := fel.ConnectRetry(*busAddr, *wait)
	util.FatalErr("", err)
	defer conn.Close()
	conn.Progress = !*quiet

	op := fs.Arg(0)
	switch op {
	case "version":
		argn(fs, 1)
		v, err := conn.Version()
		util.FatalErr("", err)
		name := "unknown"
		if chip, ok := v.Chip(); ok {
			name = chip.String()
		}
		fmt.Printf("SoC:      %#06x (%s)\n", v.SoC(), name)
		fmt.Printf("protocol: %d\n", v.Protocol)
		fmt.Printf("scratch:  %#08x\n", v.Scratch)
	case "write":
		argn(fs, 3)
		util.FatalErr("", conn.Write(parseAddr(fs.Arg(1)), readFile(fs.Arg(2))))
	case "exec":
		argn(fs, 2)
		util.FatalErr("", conn.Exec(parseAddr(fs.Arg(1))))
	case "spl":
		argn(fs, 2)
		util.FatalErr("", conn.LoadSPL(readFile(fs.Arg(1))))
	case "flash":
		argn(fs, 3)
		if *splName == "" {
			util.Fatal("flash needs the -spl option")
		}
		util.FatalErr("", conn.LoadSPL(readFile(*splName)))
		off := parseAddr(fs.Arg(1))
		util.FatalErr("", conn.FlashWrite(off, readFile(fs.Arg(2))))
	default:
		util.Fatal("unknown operation: %s", op)
	}
}

func argn(fs *flag.FlagSet, n int) {
	if fs.NArg() != n {
		fs.Usage()
		os.Exit(1)
	}
}

func parseAddr(s string) uint32 {
	a, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		util.Fatal("bad address '%s': %s", s, err)
	}
	return uint32(a)
}

func readFile(name string) []byte {
	p, err := os.ReadFile(name)
	util.FatalErr("", err)
	return p
}
