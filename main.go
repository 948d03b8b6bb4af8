// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// F1ctool builds and boots programs for the Allwinner F1C100s/F1C200s
// chips: it produces eGON.BT0 and uImage wrapped images, assembles complete
// SPI flash images and talks to the boot ROM FEL mode over USB.
package main

import (
	"fmt"
	"maps"
	"os"
	"slices"

	binCmd "github.com/sunxitools/f1ctool/internal/cmd/bin"
	bootCmd "github.com/sunxitools/f1ctool/internal/cmd/boot"
	buildCmd "github.com/sunxitools/f1ctool/internal/cmd/build"
	egonCmd "github.com/sunxitools/f1ctool/internal/cmd/egon"
	felCmd "github.com/sunxitools/f1ctool/internal/cmd/fel"
	hexCmd "github.com/sunxitools/f1ctool/internal/cmd/hex"
	imageCmd "github.com/sunxitools/f1ctool/internal/cmd/image"
	memCmd "github.com/sunxitools/f1ctool/internal/cmd/mem"
	uimageCmd "github.com/sunxitools/f1ctool/internal/cmd/uimage"
)

type tool struct {
	descr string
	main  func(cmd string, args []string)
}

var tools = map[string]tool{
	"bin":    {binCmd.Descr, binCmd.Main},
	"boot":   {bootCmd.Descr, bootCmd.Main},
	"build":  {buildCmd.Descr, buildCmd.Main},
	"egon":   {egonCmd.Descr, egonCmd.Main},
	"fel":    {felCmd.Descr, felCmd.Main},
	"hex":    {hexCmd.Descr, hexCmd.Main},
	"image":  {imageCmd.Descr, imageCmd.Main},
	"mem":    {memCmd.Descr, memCmd.Main},
	"uimage": {uimageCmd.Descr, uimageCmd.Main},
}

func printToolList() {
	names := slices.Sorted(maps.Keys(tools))
	maxLen := 0
	for _, k := range names {
		if maxLen < len(k) {
			maxLen = len(k)
		}
	}
	uw := os.Stderr
	uw.WriteString("Usage:\n  f1ctool COMMAND [ARGUMENTS]\n\n")
	uw.WriteString("Available commands:\n")
	for _, name := range names {
		fmt.Fprintf(uw, "  %*s  %s\n", maxLen, name, tools[name].descr)
	}
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" {
		printToolList()
		return
	}
	tool, ok := tools[os.Args[1]]
	if !ok {
		printToolList()
		os.Exit(1)
	}
	tool.main(os.Args[1], os.Args[2:])
}
