//
// Copyright (c) 2014-2019 Cesanta Software Limited
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package esptool wraps the external esptool utility. All operations are
// bounded-time subprocess invocations with captured output; success means a
// zero exit code before the deadline.
package esptool

import (
	"context"
	"os/exec"
	"strconv"
	"time"

	"github.com/juju/errors"

	"github.com/mpflash/mpflash/cli/ourutil"
)

type runFunc func(ctx context.Context, timeout time.Duration, command string, args ...string) (string, error)

type Tool struct {
	binary string
	run    runFunc
}

func New() *Tool {
	return &Tool{binary: "esptool", run: ourutil.GetCommandOutputTimeout}
}

// Check verifies that the esptool binary is available.
func (t *Tool) Check() error {
	if _, err := exec.LookPath(t.binary); err != nil {
		return errors.Annotatef(err, "%s not found in PATH, install it with \"pip install esptool\"", t.binary)
	}
	return nil
}

// Identify asks the chip on the given port for its ID. Output is the raw
// esptool transcript, used for variant classification.
func (t *Tool) Identify(ctx context.Context, port string, timeout time.Duration) (string, error) {
	out, err := t.run(ctx, timeout, t.binary, "--port", port, "chip-id")
	return out, errors.Trace(err)
}

func (t *Tool) EraseFlash(ctx context.Context, chip, port string, timeout time.Duration) (string, error) {
	out, err := t.run(ctx, timeout, t.binary, "--chip", chip, "--port", port, "erase-flash")
	return out, errors.Trace(err)
}

func (t *Tool) WriteFlash(ctx context.Context, chip, port string, baud uint, image string, timeout time.Duration) (string, error) {
	out, err := t.run(ctx, timeout, t.binary,
		"--chip", chip, "--port", port, "--baud", strconv.FormatUint(uint64(baud), 10),
		"write-flash", "-z", "0x0", image)
	return out, errors.Trace(err)
}
