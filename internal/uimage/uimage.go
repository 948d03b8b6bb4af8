// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package uimage wraps raw binaries in the legacy U-Boot image header so
// they can be chain-loaded by the first stage loader.
package uimage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// HeaderSize is the size of the encoded header.
const HeaderSize = 64

const Magic = 0x27051956

// Image tag bytes for a generic bare-metal program (u-boot image.h values).
const (
	OSUBoot        = 17 // IH_OS_U_BOOT
	ArchARM        = 2  // IH_ARCH_ARM
	TypeStandalone = 1  // IH_TYPE_STANDALONE
	CompNone       = 0  // IH_COMP_NONE
)

// Header is the legacy U-Boot image header. All fields are big-endian on
// the wire.
type Header struct {
	Magic   uint32
	HCRC    uint32 // CRC32 of the header with this field zeroed
	Time    uint32
	Size    uint32 // payload size, the header not included
	Load    uint32
	Entry   uint32
	DCRC    uint32 // CRC32 of the payload
	OS      uint8
	Arch    uint8
	Type    uint8
	Comp    uint8
	Name    [32]byte
}

// Make wraps the raw binary in a uimage header with the given load and
// entry addresses. The payload is appended verbatim, without any padding or
// size rounding. Names longer than the 32 byte name field are truncated.
func Make(code []byte, load, entry uint32, name string) []byte {
	h := Header{
		Magic: Magic,
		Size:  uint32(len(code)),
		Load:  load,
		Entry: entry,
		DCRC:  crc32.ChecksumIEEE(code),
		OS:    OSUBoot,
		Arch:  ArchARM,
		Type:  TypeStandalone,
		Comp:  CompNone,
	}
	copy(h.Name[:], name)

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(code)))
	binary.Write(buf, binary.BigEndian, &h)
	img := buf.Bytes()

	// The header CRC is computed over the encoded header with the HCRC
	// field still zero and patched in afterwards. The zeroed field is a
	// part of the CRC domain.
	binary.BigEndian.PutUint32(img[4:], crc32.ChecksumIEEE(img))

	return append(img, code...)
}

// Parse decodes and verifies the header of an image. It returns an error if
// the image is too short, the magic does not match or either CRC disagrees
// with the image contents.
func Parse(img []byte) (*Header, error) {
	if len(img) < HeaderSize {
		return nil, errors.New("uimage: image shorter than the header")
	}
	h := new(Header)
	binary.Read(bytes.NewReader(img[:HeaderSize]), binary.BigEndian, h)
	if h.Magic != Magic {
		return nil, errors.New("uimage: bad magic")
	}
	var raw [HeaderSize]byte
	copy(raw[:], img)
	binary.BigEndian.PutUint32(raw[4:], 0)
	if crc32.ChecksumIEEE(raw[:]) != h.HCRC {
		return nil, errors.New("uimage: header CRC mismatch")
	}
	data := img[HeaderSize:]
	if uint32(len(data)) < h.Size {
		return nil, errors.New("uimage: truncated payload")
	}
	if crc32.ChecksumIEEE(data[:h.Size]) != h.DCRC {
		return nil, errors.New("uimage: payload CRC mismatch")
	}
	return h, nil
}
