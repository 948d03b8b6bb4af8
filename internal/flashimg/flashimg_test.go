// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flashimg

import (
	"bytes"
	"errors"
	"testing"
)

func TestAssemble(t *testing.T) {
	spl := []byte{1, 2, 3}
	main := []byte("main image")
	const reserved = 16

	img, err := Assemble(spl, main, reserved)
	if err != nil {
		t.Fatal(err)
	}
	if len(img) != reserved+len(main) {
		t.Fatalf("image size = %d, want %d", len(img), reserved+len(main))
	}
	if !bytes.Equal(img[:len(spl)], spl) {
		t.Error("SPL modified")
	}
	for i := len(spl); i < reserved; i++ {
		if img[i] != 0xff {
			t.Errorf("pad byte %d = %#x, want 0xff", i, img[i])
		}
	}
	if !bytes.Equal(img[reserved:], main) {
		t.Errorf("byte %d does not start the main image", reserved)
	}
}

// An SPL of exactly the reserved size needs no padding at all.
func TestAssembleExactFit(t *testing.T) {
	spl := bytes.Repeat([]byte{0xaa}, 64)
	main := []byte("0123456789")
	img, err := Assemble(spl, main, len(spl))
	if err != nil {
		t.Fatal(err)
	}
	if len(img) != len(spl)+10 {
		t.Fatalf("image size = %d, want %d", len(img), len(spl)+10)
	}
	if !bytes.Equal(img, append(append([]byte(nil), spl...), main...)) {
		t.Error("SPL and main image are not back to back")
	}
}

// An oversized SPL must fail the build, never be truncated.
func TestAssembleOversize(t *testing.T) {
	img, err := Assemble(make([]byte, 65), nil, 64)
	if img != nil {
		t.Error("an image was emitted for an oversized SPL")
	}
	var se *SizeError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want a *SizeError", err)
	}
	if se.Size != 65 || se.Reserved != 64 {
		t.Errorf("SizeError = %+v, want {65 64}", se)
	}
}
