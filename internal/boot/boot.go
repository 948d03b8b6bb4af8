// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package boot sequences a complete build of a bootable image: compile,
// convert to a raw binary, wrap in the boot headers and optionally hand the
// result over to a device in FEL mode. Every step either succeeds or aborts
// the whole build; nothing is sent to the device after a failed build step.
package boot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sunxitools/f1ctool/internal/board"
	"github.com/sunxitools/f1ctool/internal/egon"
	"github.com/sunxitools/f1ctool/internal/flashimg"
	"github.com/sunxitools/f1ctool/internal/uimage"
)

// ConfigError is an invalid request, detected before any build work starts.
type ConfigError string

func (e ConfigError) Error() string { return "configuration: " + string(e) }

// StageError tells which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Unwrap() error { return e.Err }

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

// ErrToolTimeout reports an external tool that exceeded its time budget.
var ErrToolTimeout = errors.New("external tool timed out")

// Toolchain produces the executable image and extracts its raw contents.
// The concrete implementation wraps the Go toolchain but the pipeline only
// relies on this contract.
type Toolchain interface {
	// Compile builds the current module into the named executable file.
	Compile(elfPath string) error
	// Convert returns the flat, memory ordered contents of the
	// executable, starting at the code region origin.
	Convert(elfPath string) ([]byte, error)
}

// Agent is the on-device side of the dispatch stage: a chip in FEL mode or
// a test double. The implementations own the wire protocol; the pipeline
// only issues the commands in order and stops at the first failure.
type Agent interface {
	// LoadSPL loads the first stage loader into SRAM and executes it.
	LoadSPL(img []byte) error
	// Write writes p to the device memory at the absolute address addr.
	Write(addr uint32, p []byte) error
	// Exec calls the code at the absolute address addr.
	Exec(addr uint32) error
	// FlashWrite programs p into the persistent flash at the byte offset
	// off.
	FlashWrite(off uint32, p []byte) error
}

// Request describes a single build.
type Request struct {
	Target  string // program name, used for the artifact file names
	OutDir  string
	Profile board.Profile
	Flash   bool   // program the result into the SPI flash
	Run     bool   // execute the program over FEL without flashing
	SPLPath string // first stage loader image (eGON wrapped)
}

// Validate rejects impossible flag combinations before any build work is
// done.
func (r *Request) Validate() error {
	if r.Profile.Mode == board.Direct && r.Run {
		return ConfigError("direct mode images run from SRAM at reset, they cannot be started over FEL; use -flash or drop -direct")
	}
	if (r.Flash || r.Run) && r.SPLPath == "" {
		return ConfigError("-flash and -run need a first stage loader image (-spl)")
	}
	return nil
}

// Pipeline runs build requests. Agent may be nil if no request will ask for
// a dispatch; Log may be nil to silence the build report.
type Pipeline struct {
	Tool  Toolchain
	Agent Agent
	Log   io.Writer
}

func (p *Pipeline) logf(f string, args ...any) {
	if p.Log != nil {
		fmt.Fprintf(p.Log, f+"\n", args...)
	}
}

// Run executes the whole pipeline for the request. The error is a
// ConfigError or a StageError naming the failed stage. Artifacts already
// written to the output directory are left in place for inspection but no
// device command is issued after a failure.
func (p *Pipeline) Run(req *Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	// The first stage loader is an input, read it before spending time on
	// the compilation.
	var spl []byte
	if req.SPLPath != "" {
		var err error
		spl, err = os.ReadFile(req.SPLPath)
		if err != nil {
			return &StageError{"input", err}
		}
	}

	elfPath := filepath.Join(req.OutDir, req.Target+".elf")
	if err := p.Tool.Compile(elfPath); err != nil {
		return &StageError{"compile", err}
	}
	raw, err := p.Tool.Convert(elfPath)
	if err != nil {
		return &StageError{"convert", err}
	}
	if err := writeFile(req.OutDir, req.Target+".bin", raw); err != nil {
		return &StageError{"convert", err}
	}

	var flash []byte // complete image to program at flash offset 0
	switch req.Profile.Mode {
	case board.Direct:
		flash = egon.Make(raw)
		if err := writeFile(req.OutDir, req.Target+"-boot.img", flash); err != nil {
			return &StageError{"image", err}
		}
		p.logf("eGON image: %d bytes of code, %d bytes total, checksum %#08x",
			len(raw), len(flash), binary.LittleEndian.Uint32(flash[12:]))
	case board.SPL:
		uimg := uimage.Make(raw, req.Profile.CodeOrigin(), req.Profile.CodeOrigin(), req.Target)
		if err := writeFile(req.OutDir, req.Target+".uimg", uimg); err != nil {
			return &StageError{"image", err}
		}
		p.logf("uImage: %d bytes of code, load/entry %#08x",
			len(raw), req.Profile.CodeOrigin())
		if req.Flash {
			flash, err = flashimg.Assemble(spl, uimg, flashimg.SPLReserved)
			if err != nil {
				return &StageError{"image", err}
			}
			if err := writeFile(req.OutDir, req.Target+"-flash.img", flash); err != nil {
				return &StageError{"image", err}
			}
			p.logf("flash image: %d bytes (SPL area %d bytes)",
				len(flash), flashimg.SPLReserved)
		}
	}

	if !req.Flash && !req.Run {
		return nil
	}
	if p.Agent == nil {
		return &StageError{"dispatch", errors.New("no device agent")}
	}
	if req.Flash {
		if err := p.Agent.FlashWrite(0, flash); err != nil {
			return &StageError{"dispatch", err}
		}
		p.logf("flashed %d bytes at offset 0", len(flash))
	}
	if req.Run {
		// Start the SPL first: it sets up the clocks, the DRAM
		// controller and the MMU, without it the code region does not
		// exist yet.
		if err := p.Agent.LoadSPL(spl); err != nil {
			return &StageError{"dispatch", err}
		}
		org := req.Profile.CodeOrigin()
		if err := p.Agent.Write(org, raw); err != nil {
			return &StageError{"dispatch", err}
		}
		if err := p.Agent.Exec(org); err != nil {
			return &StageError{"dispatch", err}
		}
		p.logf("running %d bytes at %#08x", len(raw), org)
	}
	return nil
}

// writeFile writes an artifact through an exclusively owned scratch file
// renamed into place, so a failed build never leaves a half written image
// behind and a re-run on unchanged inputs replaces artifacts atomically.
func writeFile(dir, name string, data []byte) (err error) {
	f, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), filepath.Join(dir, name))
}
