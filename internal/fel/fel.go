// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fel talks to the FEL mode of the Allwinner boot ROM over USB. FEL
// is the recovery protocol every Allwinner chip drops into when no valid
// boot image is found (or the FEL button is held): it accepts memory reads,
// memory writes and calls to absolute addresses, which is all that is
// needed to develop without touching the persistent flash.
package fel

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	usb "github.com/google/gousb"

	"github.com/sunxitools/f1ctool/internal/board"
	"github.com/sunxitools/f1ctool/internal/util"
)

// All Allwinner boot ROMs enumerate with this vendor:product pair in FEL
// mode.
const (
	Vendor  usb.ID = 0x1f3a
	Product usb.ID = 0xefe8
)

// USB layer commands (the AWUC/AWUS framing around every FEL message).
const (
	usbRead  = 0x11
	usbWrite = 0x12
)

// FEL requests.
const (
	felVersion = 0x001
	felWrite   = 0x101
	felExec    = 0x102
	felRead    = 0x103
)

// maxChunk limits a single bulk transfer. Larger writes are split, both to
// keep the boot ROM happy and to report progress.
const maxChunk = 64 * 1024

type Error struct {
	Op  string
	Err error
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return "fel: " + e.Op + ": " + e.Err.Error()
}

func wrapErr(op string, err *error) {
	if *err != nil {
		*err = &Error{op, *err}
	}
}

// Conn is a connection to a chip in FEL mode.
type Conn struct {
	usbCtx *usb.Context
	oe     *usb.OutEndpoint
	ie     *usb.InEndpoint

	// Progress enables a transfer progress bar on stderr.
	Progress bool
}

// Connect connects to the USB device in FEL mode. You can connect to the
// concrete device on the USB bus by providing a BUS:DEV string where both
// BUS and DEV are decimal unsigned integers. If busAddr is empty Connect
// will try to find a FEL device on the bus (it will return an error if
// there are more than one such devices).
func Connect(busAddr string) (conn *Conn, err error) {
	defer wrapErr("Connect", &err)
	ctx, devs, err := util.OpenUSB(Vendor, Product, busAddr)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			ctx.Close()
		}
	}()
	if len(devs) == 0 {
		return nil, errors.New("no USB devices in FEL mode were found")
	}
	if len(devs) != 1 {
		return nil, errors.New("found more than one USB device in FEL mode")
	}
	dev := devs[0]
	dev.SetAutoDetach(true)

	// The FEL interface is the only one: two bulk endpoints on
	// configuration 1, interface 0.
	cfg, err := dev.Config(1)
	if err != nil {
		return nil, err
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		return nil, err
	}
	var rxn, txn int
	for _, ed := range intf.Setting.Endpoints {
		if ed.TransferType != usb.TransferTypeBulk {
			continue
		}
		if ed.Direction == usb.EndpointDirectionIn {
			rxn = ed.Number
		} else {
			txn = ed.Number
		}
	}
	if rxn == 0 || txn == 0 {
		return nil, errors.New("no USB bulk IN/OUT endpoint pair in the FEL interface")
	}
	ie, err := intf.InEndpoint(rxn)
	if err != nil {
		return nil, err
	}
	oe, err := intf.OutEndpoint(txn)
	if err != nil {
		return nil, err
	}
	return &Conn{usbCtx: ctx, oe: oe, ie: ie}, nil
}

// ConnectRetry keeps trying to connect until maxWait elapses. It covers the
// window in which the device re-enumerates, for example right after the SPL
// was started and reconfigured the clocks.
func ConnectRetry(busAddr string, maxWait time.Duration) (*Conn, error) {
	if maxWait <= 0 {
		return Connect(busAddr)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = maxWait
	return backoff.RetryWithData(
		func() (*Conn, error) { return Connect(busAddr) },
		bo,
	)
}

func (c *Conn) Close() (err error) {
	err = c.usbCtx.Close()
	wrapErr("Close", &err)
	return
}

// encodeUSBRequest encodes the AWUC framing that precedes every transfer in
// either direction. The signature field is 8 bytes: "AWUC" and 4 zero
// bytes, the transfer length follows at offset 8 and is repeated after the
// 16-bit command code.
func encodeUSBRequest(cmd uint16, length uint32) []byte {
	buf := make([]byte, 32)
	le := binary.LittleEndian
	copy(buf, "AWUC")
	le.PutUint32(buf[8:], length)
	le.PutUint32(buf[12:], 0x0c00_0000)
	le.PutUint16(buf[16:], cmd)
	le.PutUint32(buf[18:], length)
	return buf
}

// encodeFELRequest encodes a 16-byte FEL message.
func encodeFELRequest(req, addr, length uint32) []byte {
	buf := make([]byte, 16)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], req)
	le.PutUint32(buf[4:], addr)
	le.PutUint32(buf[8:], length)
	return buf
}

func (c *Conn) usbSend(p []byte) error {
	if _, err := c.oe.Write(encodeUSBRequest(usbWrite, uint32(len(p)))); err != nil {
		return err
	}
	if _, err := c.oe.Write(p); err != nil {
		return err
	}
	return c.readStatus()
}

func (c *Conn) usbRecv(p []byte) error {
	if _, err := c.oe.Write(encodeUSBRequest(usbRead, uint32(len(p)))); err != nil {
		return err
	}
	if _, err := io.ReadFull(c.ie, p); err != nil {
		return err
	}
	return c.readStatus()
}

// readStatus consumes the 13-byte AWUS response that closes every transfer.
func (c *Conn) readStatus() error {
	var status [13]byte
	if _, err := io.ReadFull(c.ie, status[:]); err != nil {
		return err
	}
	if !bytes.HasPrefix(status[:], []byte("AWUS")) {
		return errors.New("bad AWUS status signature")
	}
	return nil
}

// request sends a FEL message and consumes the 8-byte FEL status that
// follows every request without a data phase in between.
func (c *Conn) request(req, addr, length uint32) error {
	return c.usbSend(encodeFELRequest(req, addr, length))
}

func (c *Conn) readFELStatus() error {
	var status [8]byte
	return c.usbRecv(status[:])
}

// Version identifies the connected chip.
type Version struct {
	Signature [8]byte // "AWUSBFEX"
	ID        uint32
	Firmware  uint32
	Protocol  uint16
	DFlag     uint8
	PFlag     uint8
	Scratch   uint32
	_         [8]byte
}

// SoC extracts the SoC identifier from the ID field.
func (v *Version) SoC() uint16 { return uint16(v.ID >> 8) }

// socF1C100s is shared by the F1C100s and F1C200s (they differ only in the
// amount of the in-package DRAM).
const socF1C100s = 0x1663

// Chip reports whether the version matches a chip supported by this tool.
func (v *Version) Chip() (board.Chip, bool) {
	if v.SoC() == socF1C100s {
		return board.F1C100s, true
	}
	return 0, false
}

func (c *Conn) Version() (v *Version, err error) {
	defer wrapErr("Version", &err)
	if err = c.request(felVersion, 0, 0); err != nil {
		return nil, err
	}
	var buf [32]byte
	if err = c.usbRecv(buf[:]); err != nil {
		return nil, err
	}
	if err = c.readFELStatus(); err != nil {
		return nil, err
	}
	v = new(Version)
	binary.Read(bytes.NewReader(buf[:]), binary.LittleEndian, v)
	if string(v.Signature[:]) != "AWUSBFEX" {
		return nil, errors.New("bad version signature")
	}
	return v, nil
}

// Write writes p to the device memory at the absolute address addr.
func (c *Conn) Write(addr uint32, p []byte) (err error) {
	defer wrapErr("Write", &err)
	total := len(p)
	for done := 0; done < total; {
		n := total - done
		if n > maxChunk {
			n = maxChunk
		}
		if err = c.request(felWrite, addr, uint32(n)); err != nil {
			return err
		}
		if err = c.usbSend(p[done : done+n]); err != nil {
			return err
		}
		if err = c.readFELStatus(); err != nil {
			return err
		}
		addr += uint32(n)
		done += n
		if c.Progress {
			util.Progress("fel: write ", done, total, 1024, "KiB")
		}
	}
	return nil
}

// Read reads len(p) bytes of the device memory at the absolute address addr.
func (c *Conn) Read(addr uint32, p []byte) (err error) {
	defer wrapErr("Read", &err)
	total := len(p)
	for done := 0; done < total; {
		n := total - done
		if n > maxChunk {
			n = maxChunk
		}
		if err = c.request(felRead, addr, uint32(n)); err != nil {
			return err
		}
		if err = c.usbRecv(p[done : done+n]); err != nil {
			return err
		}
		if err = c.readFELStatus(); err != nil {
			return err
		}
		addr += uint32(n)
		done += n
		if c.Progress {
			util.Progress("fel: read ", done, total, 1024, "KiB")
		}
	}
	return nil
}

// Exec makes the boot ROM call the code at the absolute address addr. It
// returns after the called code came back to the FEL loop.
func (c *Conn) Exec(addr uint32) (err error) {
	defer wrapErr("Exec", &err)
	if err = c.request(felExec, addr, 0); err != nil {
		return err
	}
	return c.readFELStatus()
}

// LoadSPL loads a complete eGON.BT0 first stage loader image into the boot
// part of SRAM and executes it. The image starts with a jump instruction so
// the entry point is its first byte.
func (c *Conn) LoadSPL(img []byte) (err error) {
	defer wrapErr("LoadSPL", &err)
	if err := c.Write(board.SRAMBase, img); err != nil {
		return err
	}
	return c.Exec(board.SRAMBase)
}

// The flashing protocol between the tool and the first stage loader: the
// data to program is staged in DRAM, the command block describes it and the
// loader entered at its flash service entry programs the SPI flash and
// stores the outcome back in the status word of the command block.
const (
	flashStage   = board.DRAMBase + 0x0100_0000 // staging buffer
	flashCmd     = board.DRAMBase + 0x00ff_ff00 // command block, below the buffer
	flashEntry   = board.SRAMBase + 0x40        // SPL flash service entry
	flashCmdSig  = 0x53504957                   // "SPIW"
	flashCmdDone = 0
)

// FlashWrite programs p into the SPI flash at the byte offset off. The SPL
// must have been started with LoadSPL beforehand: the boot ROM itself has
// no flash driver, the SPL provides it.
func (c *Conn) FlashWrite(off uint32, p []byte) (err error) {
	defer wrapErr("FlashWrite", &err)
	if err := c.Write(flashStage, p); err != nil {
		return err
	}
	var cmd [16]byte
	le := binary.LittleEndian
	le.PutUint32(cmd[0:], flashCmdSig)
	le.PutUint32(cmd[4:], off)
	le.PutUint32(cmd[8:], uint32(len(p)))
	le.PutUint32(cmd[12:], ^uint32(0)) // status, overwritten by the SPL
	if err := c.Write(flashCmd, cmd[:]); err != nil {
		return err
	}
	if err := c.Exec(flashEntry); err != nil {
		return err
	}
	if err := c.Read(flashCmd, cmd[:]); err != nil {
		return err
	}
	if status := le.Uint32(cmd[12:]); status != flashCmdDone {
		return fmt.Errorf("SPL flash service failed with status %#x", status)
	}
	return nil
}
