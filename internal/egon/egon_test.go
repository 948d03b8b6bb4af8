// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package egon

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestMakeHeader(t *testing.T) {
	code := []byte{0xde, 0xad, 0xbe, 0xef}
	img := Make(code)
	le := binary.LittleEndian

	if got := le.Uint32(img[0:]); got != 0xEA00000A {
		t.Errorf("jump opcode = %#08x, want 0xea00000a", got)
	}
	if got := string(img[4:12]); got != "eGON.BT0" {
		t.Errorf("magic = %q", got)
	}
	if got := le.Uint32(img[16:]); got != uint32(len(img)) {
		t.Errorf("length field = %d, image is %d bytes", got, len(img))
	}
	if got := le.Uint32(img[20:]); got != HeaderSize {
		t.Errorf("header size field = %d, want %d", got, HeaderSize)
	}
	for i := 24; i < HeaderSize; i++ {
		if img[i] != 0 {
			t.Errorf("reserved byte %d = %#x, want 0", i, img[i])
		}
	}
	for i := HeaderSize; i < CodeStart; i++ {
		if img[i] != 0xff {
			t.Errorf("pad byte %d = %#x, want 0xff", i, img[i])
		}
	}
	if !bytes.Equal(img[CodeStart:CodeStart+len(code)], code) {
		t.Errorf("code does not start at %#x", CodeStart)
	}
	for i := CodeStart + len(code); i < len(img); i++ {
		if img[i] != 0 {
			t.Fatalf("tail byte %d = %#x, want 0", i, img[i])
		}
	}
}

func TestMakeSize(t *testing.T) {
	for _, n := range []int{0, 1, 3, 4, 480, 481, 512, 1000, 4096, 12345} {
		img := Make(make([]byte, n))
		if len(img)%Align != 0 {
			t.Errorf("code size %d: image size %d is not a multiple of %d",
				n, len(img), Align)
		}
		if len(img) < CodeStart+n {
			t.Errorf("code size %d: image size %d too small", n, len(img))
		}
		if len(img)-Align >= CodeStart+n {
			t.Errorf("code size %d: image size %d overly padded", n, len(img))
		}
	}
}

// An empty binary still produces a full 512-byte sector with a valid
// checksum over its 128 words.
func TestMakeEmpty(t *testing.T) {
	img := Make(nil)
	if len(img) != 512 {
		t.Fatalf("image size = %d, want 512", len(img))
	}
	checkImage(t, img)
}

// The stored checksum must equal the word sum of the image recomputed with
// the checksum field restored to the placeholder constant.
func TestMakeChecksum(t *testing.T) {
	code := make([]byte, 1234)
	for i := range code {
		code[i] = byte(i * 7)
	}
	checkImage(t, Make(code))
}

func checkImage(t *testing.T, img []byte) {
	t.Helper()
	le := binary.LittleEndian
	stored := le.Uint32(img[12:])
	cp := append([]byte(nil), img...)
	le.PutUint32(cp[12:], ChecksumPlaceholder)
	var sum uint32
	for i := 0; i < len(cp); i += 4 {
		sum += le.Uint32(cp[i:])
	}
	if sum != stored {
		t.Errorf("stored checksum %#08x, recomputed %#08x", stored, sum)
	}
	if !Verify(img) {
		t.Error("Verify returned false for a freshly made image")
	}
}

// A partial trailing word is zero extended, never dropped.
func TestChecksumPartialWord(t *testing.T) {
	for _, test := range []struct {
		data []byte
		want uint32
	}{
		{nil, 0},
		{[]byte{1}, 1},
		{[]byte{0, 0x80}, 0x8000},
		{[]byte{1, 0, 0, 0, 2}, 3},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 0x00fffffe}, // 0xffffffff + 0x00ffffff mod 2^32
	} {
		if got := Checksum(test.data); got != test.want {
			t.Errorf("Checksum(% x) = %#x, want %#x", test.data, got, test.want)
		}
	}
}
