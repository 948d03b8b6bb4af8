// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boot

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sunxitools/f1ctool/internal/board"
	"github.com/sunxitools/f1ctool/internal/egon"
	"github.com/sunxitools/f1ctool/internal/flashimg"
	"github.com/sunxitools/f1ctool/internal/uimage"
)

type fakeTool struct {
	raw        []byte
	compiles   int
	compileErr error
	convertErr error
}

func (t *fakeTool) Compile(elfPath string) error {
	t.compiles++
	if t.compileErr != nil {
		return t.compileErr
	}
	return os.WriteFile(elfPath, []byte("not a real elf"), 0o666)
}

func (t *fakeTool) Convert(elfPath string) ([]byte, error) {
	if t.convertErr != nil {
		return nil, t.convertErr
	}
	return t.raw, nil
}

type fakeAgent struct {
	ops  []string
	fail string // op name that fails
}

func (a *fakeAgent) op(s string) error {
	if a.fail == s {
		return errors.New(s + " failed")
	}
	a.ops = append(a.ops, s)
	return nil
}

func (a *fakeAgent) LoadSPL(img []byte) error { return a.op("loadspl") }

func (a *fakeAgent) Write(addr uint32, p []byte) error {
	return a.op(fmt.Sprintf("write %#x %d", addr, len(p)))
}

func (a *fakeAgent) Exec(addr uint32) error {
	return a.op(fmt.Sprintf("exec %#x", addr))
}

func (a *fakeAgent) FlashWrite(off uint32, p []byte) error {
	return a.op(fmt.Sprintf("flash %#x %d", off, len(p)))
}

func writeSPL(t *testing.T, dir string, size int) string {
	t.Helper()
	name := filepath.Join(dir, "spl-boot.img")
	spl := egon.Make(make([]byte, size))
	if err := os.WriteFile(name, spl, 0o666); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestDirectRunRejected(t *testing.T) {
	tool := &fakeTool{}
	p := &Pipeline{Tool: tool, Agent: &fakeAgent{}}
	err := p.Run(&Request{
		Target:  "app",
		OutDir:  t.TempDir(),
		Profile: board.Profile{Mode: board.Direct},
		Run:     true,
		SPLPath: "whatever",
	})
	var ce ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want a ConfigError", err)
	}
	if tool.compiles != 0 {
		t.Error("the compiler was invoked for a rejected configuration")
	}
}

func TestDispatchNeedsSPL(t *testing.T) {
	p := &Pipeline{Tool: &fakeTool{}}
	for _, req := range []*Request{
		{Target: "app", Flash: true},
		{Target: "app", Run: true},
	} {
		req.Profile = board.Profile{Mode: board.SPL}
		var ce ConfigError
		if err := p.Run(req); !errors.As(err, &ce) {
			t.Errorf("flash=%t run=%t: error = %v, want a ConfigError",
				req.Flash, req.Run, err)
		}
	}
}

func TestDirectBuild(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("sram program")
	p := &Pipeline{Tool: &fakeTool{raw: raw}}
	err := p.Run(&Request{
		Target:  "app",
		OutDir:  dir,
		Profile: board.Profile{Mode: board.Direct},
	})
	if err != nil {
		t.Fatal(err)
	}
	bin, err := os.ReadFile(filepath.Join(dir, "app.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bin, raw) {
		t.Error("app.bin differs from the converted binary")
	}
	img, err := os.ReadFile(filepath.Join(dir, "app-boot.img"))
	if err != nil {
		t.Fatal(err)
	}
	if !egon.Verify(img) {
		t.Error("app-boot.img is not a valid eGON image")
	}
	if !bytes.Equal(img, egon.Make(raw)) {
		t.Error("app-boot.img does not wrap the converted binary")
	}
}

func TestSPLFlashBuild(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("dram program")
	agent := &fakeAgent{}
	p := &Pipeline{Tool: &fakeTool{raw: raw}, Agent: agent}
	req := &Request{
		Target:  "app",
		OutDir:  dir,
		Profile: board.Profile{Mode: board.SPL},
		Flash:   true,
		SPLPath: writeSPL(t, dir, 100),
	}
	if err := p.Run(req); err != nil {
		t.Fatal(err)
	}

	img, err := os.ReadFile(filepath.Join(dir, "app-flash.img"))
	if err != nil {
		t.Fatal(err)
	}
	spl, _ := os.ReadFile(req.SPLPath)
	if !bytes.Equal(img[:len(spl)], spl) {
		t.Error("flash image does not start with the SPL")
	}
	for i := len(spl); i < flashimg.SPLReserved; i++ {
		if img[i] != 0xff {
			t.Fatalf("pad byte %d = %#x, want 0xff", i, img[i])
		}
	}
	h, err := uimage.Parse(img[flashimg.SPLReserved:])
	if err != nil {
		t.Fatalf("no valid uImage at the reserved offset: %v", err)
	}
	org := req.Profile.CodeOrigin()
	if h.Load != org || h.Entry != org {
		t.Errorf("load/entry = %#x/%#x, want %#x", h.Load, h.Entry, org)
	}

	want := []string{fmt.Sprintf("flash 0x0 %d", len(img))}
	if diff := cmp.Diff(want, agent.ops); diff != "" {
		t.Errorf("dispatch ops (-want +got):\n%s", diff)
	}
}

func TestSPLRunDispatch(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("dram program")
	agent := &fakeAgent{}
	p := &Pipeline{Tool: &fakeTool{raw: raw}, Agent: agent}
	req := &Request{
		Target:  "app",
		OutDir:  dir,
		Profile: board.Profile{Mode: board.SPL},
		Run:     true,
		SPLPath: writeSPL(t, dir, 100),
	}
	if err := p.Run(req); err != nil {
		t.Fatal(err)
	}
	org := req.Profile.CodeOrigin()
	want := []string{
		"loadspl",
		fmt.Sprintf("write %#x %d", org, len(raw)),
		fmt.Sprintf("exec %#x", org),
	}
	if diff := cmp.Diff(want, agent.ops); diff != "" {
		t.Errorf("dispatch ops (-want +got):\n%s", diff)
	}
}

// A failed dispatch step aborts the remaining steps.
func TestDispatchAbortsOnFailure(t *testing.T) {
	dir := t.TempDir()
	agent := &fakeAgent{fail: fmt.Sprintf("write %#x %d", board.SPLCodeOrigin, 3)}
	p := &Pipeline{Tool: &fakeTool{raw: []byte{1, 2, 3}}, Agent: agent}
	err := p.Run(&Request{
		Target:  "app",
		OutDir:  dir,
		Profile: board.Profile{Mode: board.SPL},
		Run:     true,
		SPLPath: writeSPL(t, dir, 100),
	})
	var se *StageError
	if !errors.As(err, &se) || se.Stage != "dispatch" {
		t.Fatalf("error = %v, want a dispatch StageError", err)
	}
	want := []string{"loadspl"}
	if diff := cmp.Diff(want, agent.ops); diff != "" {
		t.Errorf("dispatch ops (-want +got):\n%s", diff)
	}
}

// A failed build step never reaches the device.
func TestNoDispatchAfterFailedBuild(t *testing.T) {
	dir := t.TempDir()
	agent := &fakeAgent{}
	p := &Pipeline{
		Tool:  &fakeTool{convertErr: errors.New("objcopy exploded")},
		Agent: agent,
	}
	err := p.Run(&Request{
		Target:  "app",
		OutDir:  dir,
		Profile: board.Profile{Mode: board.SPL},
		Flash:   true,
		SPLPath: writeSPL(t, dir, 100),
	})
	var se *StageError
	if !errors.As(err, &se) || se.Stage != "convert" {
		t.Fatalf("error = %v, want a convert StageError", err)
	}
	if len(agent.ops) != 0 {
		t.Errorf("device commands were issued after a failed build: %v", agent.ops)
	}
}

// An oversized SPL fails the image stage and no flash image is written.
func TestOversizedSPL(t *testing.T) {
	dir := t.TempDir()
	p := &Pipeline{Tool: &fakeTool{raw: []byte{1}}, Agent: &fakeAgent{}}
	err := p.Run(&Request{
		Target:  "app",
		OutDir:  dir,
		Profile: board.Profile{Mode: board.SPL},
		Flash:   true,
		SPLPath: writeSPL(t, dir, flashimg.SPLReserved),
	})
	var se *flashimg.SizeError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want a *flashimg.SizeError", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "app-flash.img")); err == nil {
		t.Error("a flash image was emitted for an oversized SPL")
	}
}

// Re-running the pipeline on unchanged inputs produces identical artifacts.
func TestIdempotence(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("same program, same bytes")
	p := &Pipeline{Tool: &fakeTool{raw: raw}}
	req := &Request{
		Target:  "app",
		OutDir:  dir,
		Profile: board.Profile{Mode: board.SPL},
	}
	read := func() map[string][]byte {
		t.Helper()
		m := make(map[string][]byte)
		for _, name := range []string{"app.bin", "app.uimg"} {
			p, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				t.Fatal(err)
			}
			m[name] = p
		}
		return m
	}
	if err := p.Run(req); err != nil {
		t.Fatal(err)
	}
	first := read()
	if err := p.Run(req); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, read()); diff != "" {
		t.Errorf("artifacts changed between identical runs (-first +second):\n%s", diff)
	}
	// No scratch files left behind.
	des, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, de := range des {
		if de.Name()[0] == '.' {
			t.Errorf("leftover scratch file %s", de.Name())
		}
	}
}
