// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boot

import (
	"flag"
	"fmt"
	"os"

	"github.com/sunxitools/f1ctool/internal/board"
	"github.com/sunxitools/f1ctool/internal/boot"
	"github.com/sunxitools/f1ctool/internal/fel"
	"github.com/sunxitools/f1ctool/internal/util"
)

const Descr = "compile the current module and build a bootable image"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] [TARGET]\nOptions:\n",
			cmd,
		)
		fs.PrintDefaults()
	}
	chip := fs.String("chip", "f1c100s", "chip `variant`: f1c100s, f1c200s")
	direct := fs.Bool("direct", false, "direct boot from SRAM, no SPL")
	flash := fs.Bool("flash", false, "program the image into the SPI flash")
	run := fs.Bool("run", false, "run the program over FEL without flashing")
	splName := fs.String("spl", "", "first stage loader image `file`")
	outDir := fs.String("o", ".", "output `directory` for the build artifacts")
	busAddr := fs.String("usb", "", "select the USB device by `BUS:ADDR`")
	wait := fs.Duration("wait", 0, "keep waiting for the device for the given `time`")
	timeout := fs.Duration("timeout", 0, "time `limit` for an external tool invocation")
	quiet := fs.Bool("quiet", false, "do not print diagnostic information")
	fs.Parse(args)
	if fs.NArg() > 1 {
		fs.Usage()
		os.Exit(1)
	}

	c, err := board.ParseChip(*chip)
	util.FatalErr("", err)
	req := &boot.Request{
		Target:  fs.Arg(0),
		OutDir:  *outDir,
		Profile: board.Profile{Chip: c, Mode: board.SPL},
		Flash:   *flash,
		Run:     *run,
		SPLPath: *splName,
	}
	if *direct {
		req.Profile.Mode = board.Direct
	}
	if req.Target == "" {
		req.Target = util.TargetName()
	}
	// Bad flag combinations are rejected here, before the device is
	// dialed and before any compilation work.
	util.FatalErr("", req.Validate())

	p := &boot.Pipeline{
		Tool: &boot.GoToolchain{Timeout: *timeout},
	}
	if !*quiet {
		p.Log = os.Stdout
	}
	if *flash || *run {
		conn, err := fel.ConnectRetry(*busAddr, *wait)
		util.FatalErr("", err)
		defer conn.Close()
		conn.Progress = !*quiet
		p.Agent = &felAgent{Conn: conn, splPath: *splName}
	}

	util.SetGOENV()
	util.FatalErr("boot", p.Run(req))
}

// felAgent adapts a FEL connection to the dispatch contract: the flash
// write command implies a running SPL (the boot ROM has no flash driver),
// so the agent starts the loader on first use if the pipeline has not done
// it already.
type felAgent struct {
	*fel.Conn
	splPath    string
	splRunning bool
}

func (a *felAgent) LoadSPL(img []byte) error {
	if err := a.Conn.LoadSPL(img); err != nil {
		return err
	}
	a.splRunning = true
	return nil
}

func (a *felAgent) FlashWrite(off uint32, p []byte) error {
	if !a.splRunning {
		img, err := os.ReadFile(a.splPath)
		if err != nil {
			return err
		}
		if err := a.LoadSPL(img); err != nil {
			return err
		}
	}
	return a.Conn.FlashWrite(off, p)
}
