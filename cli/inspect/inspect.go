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
// Package inspect determines what firmware currently runs on a device by
// talking to its serial console and classifying the transcript.
package inspect

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cesanta/go-serial/serial"
	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/mpflash/mpflash/cli/ourutil"
)

const (
	baudRate      = 115200
	settleDelay   = 2 * time.Second
	commandDelay  = 500 * time.Millisecond
	readChunkSize = 4096
)

// Commands sent to a (presumed) MicroPython REPL. Their echoed responses
// form the transcript the classifier works on.
var probeCommands = []string{
	"",
	"import sys",
	"print(sys.version)",
	"print(sys.implementation)",
	"print(sys.platform)",
}

var versionRE = regexp.MustCompile(`(?i)(?P<version>micropython\s+v[0-9][\w.\-]*)`)

// FirmwareInfo describes the firmware found on a device.
type FirmwareInfo struct {
	IsMicroPython  bool
	Version        string
	Implementation string
	Platform       string
	RawOutput      string
}

// Inspect probes the firmware currently on the device. It never fails:
// transport errors produce a "Detection failed" descriptor so the workflow
// can still ask the user how to proceed.
func Inspect(port string) *FirmwareInfo {
	transcript, err := capture(port)
	if err != nil {
		glog.Infof("firmware detection on %s failed: %v", port, err)
		return &FirmwareInfo{
			Version:        "Detection failed",
			Implementation: "Unknown",
			Platform:       "Unknown",
			RawOutput:      fmt.Sprintf("Error: %s", err),
		}
	}
	glog.V(1).Infof("transcript from %s: %s", port, ourutil.FirstN(transcript, 512))
	return Classify(transcript)
}

func openPort(port string) (serial.Serial, error) {
	oo := serial.OpenOptions{
		PortName:              port,
		BaudRate:              baudRate,
		DataBits:              8,
		ParityMode:            serial.PARITY_NONE,
		StopBits:              1,
		InterCharacterTimeout: uint(commandDelay / time.Millisecond),
		MinimumReadSize:       0,
	}
	s, err := serial.Open(oo)
	return s, errors.Trace(err)
}

// capture opens the serial console and collects the responses to the probe
// command sequence. The initial settle delay lets the transient garbage a
// raw connection reset produces pass before we start writing.
func capture(port string) (string, error) {
	s, err := openPort(port)
	if err != nil {
		return "", errors.Annotatef(err, "failed to open %s", port)
	}
	defer s.Close()

	time.Sleep(settleDelay)
	s.Flush()

	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)
	for _, cmd := range probeCommands {
		if _, err := s.Write([]byte(cmd + "\r\n")); err != nil {
			return "", errors.Annotatef(err, "write to %s failed", port)
		}
		time.Sleep(commandDelay)
		// Drain whatever arrived; a quiet port just yields nothing.
		if n, _ := s.Read(chunk); n > 0 {
			buf.Write(chunk[:n])
		}
	}
	return buf.String(), nil
}

// Classify determines the firmware type from a captured console transcript.
// It is a pure function of the transcript.
func Classify(transcript string) *FirmwareInfo {
	info := &FirmwareInfo{
		Version:        "Unknown",
		Implementation: "Unknown",
		Platform:       "Unknown",
		RawOutput:      transcript,
	}
	lower := strings.ToLower(transcript)
	switch {
	case strings.Contains(lower, "micropython"):
		info.IsMicroPython = true
		for _, line := range strings.Split(transcript, "\n") {
			ll := strings.ToLower(line)
			if m := ourutil.FindNamedSubmatches(versionRE, line); m != nil {
				info.Version = m["version"]
			} else if strings.Contains(ll, "implementation") {
				info.Implementation = strings.TrimSpace(line)
			} else if strings.Contains(ll, "platform") {
				info.Platform = strings.TrimSpace(line)
			}
		}
	case strings.Contains(lower, "esp-idf") || strings.Contains(lower, "esp32"):
		info.Version = "ESP-IDF or other ESP32 firmware"
	case strings.Contains(lower, "arduino"):
		info.Version = "Arduino firmware"
	default:
		info.Version = "Unknown firmware or no response"
	}
	return info
}
