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
// Package flasher sequences the erase and write steps of a firmware flash.
package flasher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/mpflash/mpflash/cli/ourutil"
)

const (
	writeBaud = 460800
	retryBaud = 115200

	eraseTimeout = 30 * time.Second
	writeTimeout = 60 * time.Second
	retryTimeout = 120 * time.Second
)

// Tool is the subset of the esptool wrapper the orchestrator needs.
type Tool interface {
	EraseFlash(ctx context.Context, chip, port string, timeout time.Duration) (string, error)
	WriteFlash(ctx context.Context, chip, port string, baud uint, image string, timeout time.Duration) (string, error)
}

// Result is the outcome of an erase+write cycle. There is no partial
// success: OK means both erase and write completed.
type Result struct {
	OK        bool
	Retries   int
	LastError string
}

// Flash erases the chip and writes the firmware image. A failed write is
// retried once at a more conservative baud rate with a longer deadline; a
// failed erase is final.
func Flash(ctx context.Context, t Tool, chip, port, image string) Result {
	ourutil.Reportf("Erasing flash memory...")
	if out, err := t.EraseFlash(ctx, chip, port, eraseTimeout); err != nil {
		return Result{LastError: lastError(out, err)}
	}
	ourutil.Reportf("Flash erased successfully")

	ourutil.Reportf("Writing MicroPython firmware...")
	out, err := t.WriteFlash(ctx, chip, port, writeBaud, image, writeTimeout)
	if err == nil {
		return Result{OK: true}
	}
	glog.Infof("write at %d baud failed: %v, output: %s", writeBaud, err, out)
	ourutil.Reportf("Write failed, retrying at %d baud...", retryBaud)
	out, err = t.WriteFlash(ctx, chip, port, retryBaud, image, retryTimeout)
	if err != nil {
		return Result{Retries: 1, LastError: lastError(out, err)}
	}
	return Result{OK: true, Retries: 1}
}

func lastError(out string, err error) string {
	out = strings.TrimSpace(out)
	if out == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s: %s", err, out)
}
