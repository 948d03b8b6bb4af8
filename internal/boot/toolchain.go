// Copyright 2026 The Sunxi Tools Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boot

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/sunxitools/f1ctool/internal/elf"
)

// GoToolchain compiles the module in the current directory with go build
// and extracts raw binaries from the produced executables. The caller is
// expected to have pointed GOENV at the go.env file of the target (see
// util.SetGOENV), the same way the build subcommand does.
type GoToolchain struct {
	Args    []string      // extra go build arguments
	Timeout time.Duration // 0 means no time limit
}

func (t *GoToolchain) Compile(elfPath string) error {
	goCmd, err := exec.LookPath("go")
	if err != nil {
		return err
	}
	ctx := context.Background()
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	args := append([]string{"build", "-o", elfPath}, t.Args...)
	c := exec.CommandContext(ctx, goCmd, args...)
	// The compiler diagnostics go straight to the operator, unchanged.
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	err = c.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return ErrToolTimeout
	}
	return err
}

func (t *GoToolchain) Convert(elfPath string) ([]byte, error) {
	ss, err := elf.ReadFile(elfPath)
	if err != nil {
		return nil, err
	}
	return ss.Flatten(0xff)
}
