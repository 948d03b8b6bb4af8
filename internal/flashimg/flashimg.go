// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flashimg assembles complete SPI flash images: a first stage
// loader in the reserved area at the start of the flash followed by the
// wrapped main program.
package flashimg

import "fmt"

// SPLReserved is the default size of the flash area reserved for the first
// stage loader. The main image always starts at this offset, it is where
// the SPL looks for it.
const SPLReserved = 0x8000

// SizeError reports a first stage loader that does not fit in the reserved
// flash area. The image must not be emitted in that case: truncating the
// loader produces a checksum-valid prefix that the boot ROM happily runs.
type SizeError struct {
	Size     int
	Reserved int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf(
		"flashimg: SPL is %d bytes, does not fit in the %d byte reserved area",
		e.Size, e.Reserved,
	)
}

// Assemble pads the first stage loader with 0xFF up to reserved bytes and
// appends the main image verbatim, so that byte reserved of the result is
// the first byte of the main image. The result size is not rounded.
func Assemble(spl, main []byte, reserved int) ([]byte, error) {
	if len(spl) > reserved {
		return nil, &SizeError{len(spl), reserved}
	}
	img := make([]byte, reserved+len(main))
	copy(img, spl)
	for i := len(spl); i < reserved; i++ {
		img[i] = 0xff
	}
	copy(img[reserved:], main)
	return img, nil
}
