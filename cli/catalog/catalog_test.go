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
package catalog

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/mpflash/mpflash/cli/devutil"
)

type chooserFunc func(title string, options []string) (int, error)

func (f chooserFunc) Select(title string, options []string) (int, error) {
	return f(title, options)
}

func TestImageName(t *testing.T) {
	rel := Release{Tag: "v1.26.1", Date: "20250911"}
	for i, c := range []struct {
		variant devutil.Variant
		want    string
	}{
		{devutil.VariantESP32, "ESP32_GENERIC-20250911-v1.26.1.bin"},
		{devutil.VariantESP32C3, "ESP32_GENERIC_C3-20250911-v1.26.1.bin"},
		{devutil.VariantESP32S3, "ESP32_GENERIC_S3-20250911-v1.26.1.bin"},
		{devutil.VariantESP32C6, "ESP32_GENERIC_C6-20250911-v1.26.1.bin"},
	} {
		if got := ImageName(c.variant, rel); got != c.want {
			t.Errorf("%d: got %q, want %q", i, got, c.want)
		}
	}
}

func TestURLConstruction(t *testing.T) {
	rel := Release{Tag: "v1.26.1", Date: "20250911"}
	image := ImageName(devutil.VariantESP32C3, rel)

	want := "https://micropython.org/resources/firmware/ESP32_GENERIC_C3-20250911-v1.26.1.bin"
	if got := PrimaryURL(image); got != want {
		t.Errorf("PrimaryURL: got %q, want %q", got, want)
	}
	want = "https://github.com/micropython/micropython/releases/download/v1.26.1/ESP32_GENERIC_C3-20250911-v1.26.1.bin"
	if got := FallbackURL(rel, image); got != want {
		t.Errorf("FallbackURL: got %q, want %q", got, want)
	}

	// Same inputs, same locator.
	if PrimaryURL(image) != PrimaryURL(image) || FallbackURL(rel, image) != FallbackURL(rel, image) {
		t.Error("locator construction is not deterministic")
	}
}

func TestNewReleaseOrder(t *testing.T) {
	c := New()
	if len(c.releases) != len(stableReleases)+1 {
		t.Fatalf("got %d releases", len(c.releases))
	}
	if c.releases[0].Tag != "v1.26.1" || c.releases[0].Label != "Latest Stable" {
		t.Errorf("first release: %+v", c.releases[0])
	}
	if c.releases[1].Tag != "v1.25.0" || c.releases[1].Label != "Previous Stable" {
		t.Errorf("second release: %+v", c.releases[1])
	}
	last := c.releases[len(c.releases)-1]
	if last.Label != "Development" {
		t.Errorf("last release: %+v", last)
	}
}

func chdirTemp(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestResolveLocalNoFiles(t *testing.T) {
	chdirTemp(t)
	c := New()
	chooser := chooserFunc(func(title string, options []string) (int, error) {
		return len(options) - 1, nil // "Use local firmware file"
	})
	_, err := c.Resolve(context.Background(), devutil.VariantESP32C3, chooser)
	if err == nil || !strings.Contains(err.Error(), "no local") {
		t.Fatalf("got %v, want a no-local-files error", err)
	}
}

func TestResolveLocalPick(t *testing.T) {
	chdirTemp(t)
	for _, name := range []string{"b.bin", "a.bin", "notes.txt"} {
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	c := New()
	calls := 0
	chooser := chooserFunc(func(title string, options []string) (int, error) {
		calls++
		if calls == 1 {
			return len(options) - 1, nil // local file path
		}
		return 0, nil // first (sorted) .bin file
	})
	path, err := c.Resolve(context.Background(), devutil.VariantESP32, chooser)
	if err != nil {
		t.Fatal(err)
	}
	if path != "a.bin" {
		t.Errorf("got %q, want \"a.bin\"", path)
	}
}

func TestPreviousDownload(t *testing.T) {
	chdirTemp(t)
	if got := previousDownload(devutil.VariantESP32C3); got != "" {
		t.Errorf("got %q, want no match", got)
	}
	for _, name := range []string{
		"ESP32_GENERIC_C3-20250911-v1.26.1.bin",
		"ESP32_GENERIC-20250911-v1.26.1.bin",
	} {
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if got := previousDownload(devutil.VariantESP32C3); got != "ESP32_GENERIC_C3-20250911-v1.26.1.bin" {
		t.Errorf("got %q", got)
	}
	if got := previousDownload(devutil.VariantESP32); got != "ESP32_GENERIC-20250911-v1.26.1.bin" {
		t.Errorf("got %q", got)
	}
}

func TestPreviousDownloadVariantMismatch(t *testing.T) {
	chdirTemp(t)
	// An image of another variant must never be offered: flashing a C3
	// build to a plain ESP32 bricks the install.
	if err := os.WriteFile("ESP32_GENERIC_C3-20250911-v1.26.1.bin", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := previousDownload(devutil.VariantESP32); got != "" {
		t.Errorf("got %q, want no match for a C3 image", got)
	}
	if got := previousDownload(devutil.VariantESP32S3); got != "" {
		t.Errorf("got %q, want no match for a C3 image", got)
	}
}
