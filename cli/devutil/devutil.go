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
package devutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
)

// Variant is the ESP32 chip family of a connected device.
type Variant string

const (
	VariantESP32   Variant = "esp32"
	VariantESP32C3 Variant = "esp32c3"
	VariantESP32S3 Variant = "esp32s3"
	VariantESP32C6 Variant = "esp32c6"
	VariantUnknown Variant = ""
)

const identifyTimeout = 10 * time.Second

// Supported reports whether firmware images exist for this variant.
func (v Variant) Supported() bool {
	switch v {
	case VariantESP32, VariantESP32C3, VariantESP32S3, VariantESP32C6:
		return true
	}
	return false
}

func (v Variant) Description() string {
	switch v {
	case VariantESP32C3:
		return "ESP32-C3"
	case VariantESP32S3:
		return "ESP32-S3"
	case VariantESP32C6:
		return "ESP32-C6"
	case VariantESP32:
		return "ESP32"
	}
	return "unsupported"
}

// ParseVariant maps a user-entered chip name to a Variant.
// Unrecognized names yield VariantUnknown.
func ParseVariant(s string) Variant {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "esp32":
		return VariantESP32
	case "esp32c3", "esp32-c3":
		return VariantESP32C3
	case "esp32s3", "esp32-s3":
		return VariantESP32S3
	case "esp32c6", "esp32-c6":
		return VariantESP32C6
	}
	return VariantUnknown
}

// ClassifyChip determines the chip variant from esptool identification
// output. A chip that identified successfully but matched no specific family
// substring is treated as a generic ESP32 of unknown variant.
func ClassifyChip(output string) (Variant, string) {
	out := strings.ToLower(output)
	switch {
	case strings.Contains(out, "esp32-c3") || strings.Contains(out, "esp32c3"):
		return VariantESP32C3, "ESP32-C3"
	case strings.Contains(out, "esp32-s3") || strings.Contains(out, "esp32s3"):
		return VariantESP32S3, "ESP32-S3"
	case strings.Contains(out, "esp32-c6") || strings.Contains(out, "esp32c6"):
		return VariantESP32C6, "ESP32-C6"
	case strings.Contains(out, "esp32"):
		return VariantESP32, "ESP32"
	}
	return VariantESP32, "ESP32 - Unknown variant"
}

// isNoisePort filters out port names that are clearly not a development
// board (bluetooth endpoints, debug consoles), unless the name suggests a
// USB modem device, which is how many ESP32 boards enumerate.
func isNoisePort(port string) bool {
	p := strings.ToLower(port)
	if strings.Contains(p, "usbmodem") {
		return false
	}
	for _, noise := range []string{"bluetooth", "debug", "sppdev", "wirelessiap"} {
		if strings.Contains(p, noise) {
			return true
		}
	}
	return false
}

// Device is a detected (or manually entered) ESP32 board.
type Device struct {
	Port    string
	Variant Variant
	Desc    string
}

func (d Device) Label() string {
	return fmt.Sprintf("%s (%s)", d.Port, d.Desc)
}

// Identifier issues a bounded-time chip identification request for a port.
type Identifier interface {
	Identify(ctx context.Context, port string, timeout time.Duration) (string, error)
}

// Probe checks every candidate serial port for an ESP32 and returns the ones
// that responded. Probing is best-effort: a port that fails to identify or
// times out is silently skipped.
func Probe(ctx context.Context, ident Identifier) []Device {
	var devs []Device
	for _, port := range EnumerateSerialPorts() {
		if isNoisePort(port) {
			glog.V(1).Infof("skipping %s", port)
			continue
		}
		out, err := ident.Identify(ctx, port, identifyTimeout)
		if err != nil {
			glog.Infof("%s: not an ESP32: %v", port, err)
			continue
		}
		v, desc := ClassifyChip(out)
		devs = append(devs, Device{Port: port, Variant: v, Desc: desc})
	}
	return devs
}
