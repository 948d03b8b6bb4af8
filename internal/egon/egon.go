// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package egon generates images in the eGON.BT0 format recognized by the
// boot ROM of the Allwinner chips (see https://linux-sunxi.org/Boot0).
package egon

import "encoding/binary"

const (
	// HeaderSize is the size of the eGON.BT0 header itself.
	HeaderSize = 32

	// CodeStart is the offset of the first code byte in the image. The
	// boot ROM writes the boot device info just after the header so the
	// code must start farther than HeaderSize (the same workaround as in
	// sunxi-tools).
	CodeStart = 0x30

	// Align is the required image size granularity (SD card sector).
	Align = 512

	// ChecksumPlaceholder is the value of the checksum field during the
	// checksum computation. The boot ROM verifies the image the same way:
	// it restores this constant before summing, so the placeholder is a
	// part of the format, not a scratch value.
	ChecksumPlaceholder = 0x5F0A6C39

	magic = "eGON.BT0"

	// ARM b +0x30: 0xEA000000 | (0x30/4 - 2)
	jumpOp = 0xEA000000 | (CodeStart/4 - 2)
)

// Make wraps the raw binary code in the eGON.BT0 header. The returned image
// starts with the 32-byte header, 0xFF padding up to CodeStart, the code
// itself and a zero tail that aligns the image size to a multiple of Align.
// The checksum field holds the real checksum of the image, computed with
// itself set to ChecksumPlaceholder.
func Make(code []byte) []byte {
	size := (CodeStart + len(code) + Align - 1) &^ (Align - 1)
	img := make([]byte, size)

	le := binary.LittleEndian
	le.PutUint32(img[0:], jumpOp)
	copy(img[4:], magic)
	le.PutUint32(img[12:], ChecksumPlaceholder)
	le.PutUint32(img[16:], uint32(size))
	le.PutUint32(img[20:], HeaderSize)
	for i := HeaderSize; i < CodeStart; i++ {
		img[i] = 0xff
	}
	copy(img[CodeStart:], code)

	le.PutUint32(img[12:], Checksum(img))
	return img
}

// Checksum returns the sum, modulo 2^32, of all little-endian 32-bit words
// of p. A partial trailing word is zero extended to a full word: dropping it
// instead produces an image the boot ROM rejects.
func Checksum(p []byte) uint32 {
	le := binary.LittleEndian
	var sum uint32
	n := len(p) &^ 3
	for i := 0; i < n; i += 4 {
		sum += le.Uint32(p[i:])
	}
	if n != len(p) {
		var tail [4]byte
		copy(tail[:], p[n:])
		sum += le.Uint32(tail[:])
	}
	return sum
}

// Verify recomputes the checksum of a complete eGON.BT0 image and reports
// whether it matches the one stored in the header.
func Verify(img []byte) bool {
	if len(img) < HeaderSize || string(img[4:12]) != magic {
		return false
	}
	le := binary.LittleEndian
	stored := le.Uint32(img[12:])
	var hdr [HeaderSize]byte
	copy(hdr[:], img)
	le.PutUint32(hdr[12:], ChecksumPlaceholder)
	sum := Checksum(hdr[:]) + Checksum(img[HeaderSize:])
	return sum == stored
}
