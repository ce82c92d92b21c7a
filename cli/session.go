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
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/mpflash/mpflash/cli/catalog"
	"github.com/mpflash/mpflash/cli/devutil"
	"github.com/mpflash/mpflash/cli/esptool"
	"github.com/mpflash/mpflash/cli/flasher"
	"github.com/mpflash/mpflash/cli/inspect"
	"github.com/mpflash/mpflash/cli/menu"
	"github.com/mpflash/mpflash/cli/ourutil"
)

// errDeclined means the user chose not to continue. It is a normal,
// successful end of the session.
var errDeclined = errors.New("user declined")

type session struct {
	menu    *menu.Menu
	tool    *esptool.Tool
	catalog *catalog.Catalog
	probe   func(context.Context, devutil.Identifier) []devutil.Device

	workDir  string
	device   devutil.Device
	firmware *inspect.FirmwareInfo
	fwFile   string
	flashed  flasher.Result
	smokeOK  bool
}

func newSession() *session {
	return &session{
		menu:    menu.New(),
		tool:    esptool.New(),
		catalog: catalog.New(),
		probe:   devutil.Probe,
	}
}

// The workflow is a fixed linear sequence. A failed fatal step ends the
// session; a failed non-fatal step is reported and skipped over. Retries,
// where they exist, live inside the steps themselves.
type step struct {
	name  string
	run   func(*session, context.Context) error
	fatal bool
}

var steps = []step{
	{"dependency check", (*session).checkDependencies, true},
	{"working directory setup", (*session).setupWorkDir, true},
	{"environment advisory", (*session).checkEnvironment, true},
	{"device probe", (*session).probeDevices, true},
	{"firmware inspection", (*session).inspectFirmware, false},
	{"overwrite confirmation", (*session).confirmOverwrite, true},
	{"firmware selection", (*session).selectFirmware, true},
	{"flash", (*session).flashFirmware, true},
	{"connectivity test", (*session).testConnection, false},
	{"summary", (*session).printSummary, false},
}

func (s *session) run(ctx context.Context) error {
	for _, st := range steps {
		glog.Infof("step: %s", st.name)
		if err := st.run(s, ctx); err != nil {
			if isCleanExit(err) {
				return err
			}
			if !st.fatal {
				ourutil.Reportf("%s failed: %s (continuing)", st.name, err)
				continue
			}
			return errors.Annotatef(err, "%s failed", st.name)
		}
	}
	return nil
}

// isCleanExit tells a user-initiated stop (decline, quit key) from a real
// failure; the former exits with a zero status.
func isCleanExit(err error) bool {
	c := errors.Cause(err)
	return c == errDeclined || c == menu.ErrQuit
}

func (s *session) checkDependencies(ctx context.Context) error {
	return errors.Trace(s.tool.Check())
}

func (s *session) setupWorkDir(ctx context.Context) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return errors.Trace(err)
	}
	s.workDir = filepath.Join(home, "Documents", "esp-tinkering")
	if err := os.MkdirAll(s.workDir, 0755); err != nil {
		return errors.Annotatef(err, "failed to create working directory")
	}
	if err := os.Chdir(s.workDir); err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Working directory: %s", s.workDir)
	return nil
}

// checkEnvironment nudges the user towards an isolated Python environment,
// since esptool is usually installed with pip. Advisory only: the user can
// proceed anyway, and declining ends the session cleanly.
func (s *session) checkEnvironment(ctx context.Context) error {
	env := os.Getenv("CONDA_DEFAULT_ENV")
	if env != "" && env != "base" {
		ourutil.Reportf("Conda environment: %s", env)
		return nil
	}
	ourutil.Reportf("No conda environment is active. Recommended setup:")
	ourutil.Reportf("  conda create -n esp32-dev python=3.11 -y")
	ourutil.Reportf("  conda activate esp32-dev")
	ourutil.Reportf("  pip install esptool pyserial")
	idx, err := s.menu.Select("Are you already in a conda environment?", []string{
		"Yes, I'm already in a conda environment",
		"No, I need to set up conda first",
	})
	if err != nil {
		return errors.Trace(err)
	}
	if idx != 0 {
		ourutil.Reportf("Set up your conda environment first, then run this tool again.")
		return errDeclined
	}
	return nil
}

func (s *session) probeDevices(ctx context.Context) error {
	ourutil.Reportf("Detecting ESP32 devices...")
	devs := s.probe(ctx, s.tool)
	if len(devs) == 0 {
		return errors.Errorf("no ESP32 devices detected, make sure the device is connected via USB")
	}
	ourutil.Reportf("Found %d ESP32 device(s)", len(devs))

	options := make([]string, 0, len(devs)+1)
	for _, d := range devs {
		options = append(options, d.Label())
	}
	options = append(options, "Enter port manually")
	idx, err := s.menu.Select("Select ESP32 Device", options)
	if err != nil {
		return errors.Trace(err)
	}
	if idx == len(options)-1 {
		port := ourutil.Prompt("Enter device port (e.g. /dev/ttyUSB0):")
		chip := ourutil.Prompt("Enter device model (esp32, esp32c3, esp32s3, esp32c6):")
		v := devutil.ParseVariant(chip)
		if !v.Supported() {
			return errors.Errorf("unsupported ESP32 variant %q, supported: esp32, esp32c3, esp32s3, esp32c6", chip)
		}
		s.device = devutil.Device{Port: port, Variant: v, Desc: v.Description()}
	} else {
		s.device = devs[idx]
	}
	if !s.device.Variant.Supported() {
		return errors.Errorf("unsupported ESP32 variant %q", s.device.Variant)
	}
	ourutil.Reportf("Selected device: %s (%s)", s.device.Port, s.device.Variant)
	return nil
}

func (s *session) inspectFirmware(ctx context.Context) error {
	ourutil.Reportf("Detecting current firmware on %s...", s.device.Port)
	s.firmware = inspect.Inspect(s.device.Port)
	return nil
}

func (s *session) confirmOverwrite(ctx context.Context) error {
	info := s.firmware
	header := func(w io.Writer) {
		bar := strings.Repeat("=", 80)
		fmt.Fprintf(w, "\n%s\n  CURRENT FIRMWARE DETECTION RESULTS\n%s\n", bar, bar)
		kind := "Other"
		if info.IsMicroPython {
			kind = "MicroPython"
		}
		fmt.Fprintf(w, "  Firmware type: %s\n", kind)
		fmt.Fprintf(w, "  Version: %s\n", info.Version)
		fmt.Fprintf(w, "  Platform: %s\n", info.Platform)
		warn := color.New(color.FgYellow)
		if info.IsMicroPython {
			warn.Fprintf(w, "\n  MicroPython is already installed on this device.\n")
			warn.Fprintf(w, "  Flashing will overwrite it and erase any stored files.\n")
		} else {
			warn.Fprintf(w, "\n  Non-MicroPython firmware detected.\n")
			warn.Fprintf(w, "  Flashing will replace it and erase any existing data.\n")
		}
		dash := strings.Repeat("-", 76)
		raw := strings.ReplaceAll(strings.TrimSpace(info.RawOutput), "\n", "\n  ")
		fmt.Fprintf(w, "\n  Raw detection output:\n  %s\n  %s\n  %s\n", dash, raw, dash)
	}
	idx, err := s.menu.SelectWithHeader(header, "Do you want to overwrite the current firmware?", []string{
		"Yes, proceed with flashing MicroPython",
		"No, keep the current firmware",
	})
	if err != nil {
		return errors.Trace(err)
	}
	if idx != 0 {
		ourutil.Reportf("Keeping current firmware.")
		return errDeclined
	}
	return nil
}

func (s *session) selectFirmware(ctx context.Context) error {
	path, err := s.catalog.Resolve(ctx, s.device.Variant, s.menu)
	if err != nil {
		return errors.Trace(err)
	}
	s.fwFile = path
	return nil
}

func (s *session) flashFirmware(ctx context.Context) error {
	ourutil.Reportf("Flashing MicroPython to %s...", s.device.Port)
	s.flashed = flasher.Flash(ctx, s.tool, string(s.device.Variant), s.device.Port, s.fwFile)
	if !s.flashed.OK {
		return errors.Errorf("flashing failed (%d retries): %s", s.flashed.Retries, s.flashed.LastError)
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "MicroPython flashed successfully!\n")
	return nil
}

func (s *session) testConnection(ctx context.Context) error {
	ourutil.Reportf("Testing MicroPython connection on %s...", s.device.Port)
	resp, err := inspect.SmokeTest(s.device.Port)
	if err != nil {
		return errors.Trace(err)
	}
	s.smokeOK = true
	ourutil.Reportf("MicroPython responded: %s", ourutil.FirstN(strings.TrimSpace(resp), 120))
	return nil
}

func (s *session) printSummary(ctx context.Context) error {
	color.New(color.FgGreen).Fprintf(os.Stderr, "\nMicroPython installation completed!\n")
	if !s.smokeOK {
		ourutil.Reportf("Note: the connectivity test did not pass, check the device manually.")
	}
	ourutil.Reportf("Working directory: %s", s.workDir)
	ourutil.Reportf("Device: %s (%s)", s.device.Port, s.device.Variant)
	ourutil.Reportf("Firmware: %s", s.fwFile)
	ourutil.Reportf("")
	ourutil.Reportf("To connect to MicroPython:")
	ourutil.Reportf("  screen %s 115200", s.device.Port)
	return nil
}
