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
	"testing"
)

func TestClassifyChip(t *testing.T) {
	for i, c := range []struct {
		output string
		v      Variant
		desc   string
	}{
		{"Chip is ESP32-C3 (revision v0.4)", VariantESP32C3, "ESP32-C3"},
		{"detecting chip type... esp32c3", VariantESP32C3, "ESP32-C3"},
		{"Chip is ESP32-S3 (QFN56)", VariantESP32S3, "ESP32-S3"},
		{"Chip is ESP32-C6 (QFN40)", VariantESP32C6, "ESP32-C6"},
		{"Chip is ESP32-D0WD-V3 (revision v3.1)", VariantESP32, "ESP32"},
		{"no useful output at all", VariantESP32, "ESP32 - Unknown variant"},
	} {
		v, desc := ClassifyChip(c.output)
		if v != c.v || desc != c.desc {
			t.Errorf("%d %q: got (%q, %q), want (%q, %q)", i, c.output, v, desc, c.v, c.desc)
		}
	}
}

func TestParseVariant(t *testing.T) {
	for i, c := range []struct {
		in        string
		v         Variant
		supported bool
	}{
		{"esp32", VariantESP32, true},
		{"ESP32-C3", VariantESP32C3, true},
		{" esp32s3 ", VariantESP32S3, true},
		{"esp32c6", VariantESP32C6, true},
		{"esp8266", VariantUnknown, false},
		{"", VariantUnknown, false},
	} {
		v := ParseVariant(c.in)
		if v != c.v {
			t.Errorf("%d %q: got %q, want %q", i, c.in, v, c.v)
		}
		if v.Supported() != c.supported {
			t.Errorf("%d %q: Supported() = %v, want %v", i, c.in, v.Supported(), c.supported)
		}
	}
}

func TestIsNoisePort(t *testing.T) {
	for i, c := range []struct {
		port  string
		noise bool
	}{
		{"/dev/cu.Bluetooth-Incoming-Port", true},
		{"/dev/cu.debug-console", true},
		{"/dev/cu.MALS-SPPDev", true},
		{"/dev/cu.iPhone-WirelessiAP", true},
		{"/dev/cu.usbmodem1101", false},
		{"/dev/cu.usbmodem-debug", false}, // usbmodem overrides the denylist
		{"/dev/ttyUSB0", false},
		{"COM3", false},
	} {
		if got := isNoisePort(c.port); got != c.noise {
			t.Errorf("%d %q: got %v, want %v", i, c.port, got, c.noise)
		}
	}
}

func TestDeviceLabel(t *testing.T) {
	d := Device{Port: "/dev/ttyUSB0", Variant: VariantESP32C3, Desc: "ESP32-C3"}
	if got, want := d.Label(), "/dev/ttyUSB0 (ESP32-C3)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
