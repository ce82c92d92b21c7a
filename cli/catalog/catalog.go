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
// Package catalog maps a chip variant to known MicroPython firmware builds
// and resolves the user's pick to a local file, downloading it if needed.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/juju/errors"
	goversion "github.com/mcuadros/go-version"

	"github.com/mpflash/mpflash/cli/devutil"
	"github.com/mpflash/mpflash/cli/ourutil"
)

const (
	firmwareBaseURL = "https://micropython.org/resources/firmware"
	releasesBaseURL = "https://github.com/micropython/micropython/releases/download"
	downloadTimeout = 30 * time.Second
	firmwareExt     = ".bin"
)

// Release identifies a published MicroPython build.
type Release struct {
	Tag   string // release tag, e.g. "v1.26.1"
	Date  string // build date stamp, e.g. "20250911"
	Label string // menu label, assigned by New
}

// Published builds. Stable entries may be listed in any order, the catalog
// sorts them newest first; the dev build always goes last in the menu.
var (
	stableReleases = []Release{
		{Tag: "v1.25.0", Date: "20250415"},
		{Tag: "v1.26.1", Date: "20250911"},
	}
	devRelease = Release{Tag: "v1.27.0-preview", Date: "20251002"}
)

// Chooser is the menu dependency: show options, return the chosen index.
type Chooser interface {
	Select(title string, options []string) (int, error)
}

type Catalog struct {
	releases []Release
	client   *http.Client
}

func New() *Catalog {
	rr := append([]Release(nil), stableReleases...)
	sort.SliceStable(rr, func(i, j int) bool {
		return goversion.CompareSimple(rr[i].Tag, rr[j].Tag) > 0
	})
	for i := range rr {
		switch i {
		case 0:
			rr[i].Label = "Latest Stable"
		case 1:
			rr[i].Label = "Previous Stable"
		default:
			rr[i].Label = "Older Stable"
		}
	}
	dev := devRelease
	dev.Label = "Development"
	rr = append(rr, dev)
	return &Catalog{
		releases: rr,
		client:   &http.Client{Timeout: downloadTimeout},
	}
}

// imagePrefix returns MicroPython's image name prefix for a chip variant.
func imagePrefix(variant devutil.Variant) string {
	switch variant {
	case devutil.VariantESP32C3:
		return "ESP32_GENERIC_C3"
	case devutil.VariantESP32S3:
		return "ESP32_GENERIC_S3"
	case devutil.VariantESP32C6:
		return "ESP32_GENERIC_C6"
	}
	return "ESP32_GENERIC"
}

// ImageName constructs the firmware image filename,
// e.g. "ESP32_GENERIC_C3-20250911-v1.26.1.bin".
func ImageName(variant devutil.Variant, r Release) string {
	return fmt.Sprintf("%s-%s-%s%s", imagePrefix(variant), r.Date, r.Tag, firmwareExt)
}

func PrimaryURL(image string) string {
	return fmt.Sprintf("%s/%s", firmwareBaseURL, image)
}

func FallbackURL(r Release, image string) string {
	return fmt.Sprintf("%s/%s/%s", releasesBaseURL, r.Tag, image)
}

// Resolve asks the user to pick a firmware build for the variant and returns
// the path of a local image file ready for flashing. Paths are relative to
// the current directory, which the session sets to the working directory.
func (c *Catalog) Resolve(ctx context.Context, variant devutil.Variant, chooser Chooser) (string, error) {
	options := make([]string, 0, len(c.releases)+1)
	for _, r := range c.releases {
		options = append(options, fmt.Sprintf("%s (%s)", ImageName(variant, r), r.Label))
	}
	options = append(options, "Use local firmware file")

	title := fmt.Sprintf("Select MicroPython Firmware for %s", strings.ToUpper(string(variant)))
	idx, err := chooser.Select(title, options)
	if err != nil {
		return "", errors.Trace(err)
	}
	if idx == len(options)-1 {
		return c.resolveLocal(chooser)
	}

	rel := c.releases[idx]
	image := ImageName(variant, rel)
	path, derr := c.download(ctx, rel, image)
	if derr == nil {
		return path, nil
	}
	ourutil.Reportf("Download failed: %s", derr)
	// Last resort: reuse a previously downloaded image for this variant.
	if prev := previousDownload(variant); prev != "" {
		ourutil.Reportf("Using existing local firmware: %s", prev)
		return prev, nil
	}
	return "", errors.Annotatef(derr, "no firmware source available for %s", variant)
}

func (c *Catalog) resolveLocal(chooser Chooser) (string, error) {
	files, _ := filepath.Glob("*" + firmwareExt)
	if len(files) == 0 {
		return "", errors.Errorf("no local %s files found", firmwareExt)
	}
	sort.Strings(files)
	idx, err := chooser.Select("Select Local Firmware File", files)
	if err != nil {
		return "", errors.Trace(err)
	}
	return files[idx], nil
}

func previousDownload(variant devutil.Variant) string {
	// The prefix must be followed by the date dash, or ESP32_GENERIC would
	// also match the ESP32_GENERIC_C3/S3/C6 images of other variants.
	files, _ := filepath.Glob(imagePrefix(variant) + "-*" + firmwareExt)
	if len(files) == 0 {
		return ""
	}
	sort.Strings(files)
	return files[0]
}

// download fetches the image from the primary location, falling back to the
// GitHub release assets of the same tag, and saves it under the image name.
func (c *Catalog) download(ctx context.Context, rel Release, image string) (string, error) {
	err := c.fetch(ctx, PrimaryURL(image), image)
	if err == nil {
		ourutil.Reportf("Downloaded: %s", image)
		return image, nil
	}
	ourutil.Reportf("Error downloading firmware: %s", err)
	ourutil.Reportf("Trying alternative download URL...")
	if err := c.fetch(ctx, FallbackURL(rel, image), image); err != nil {
		return "", errors.Annotatef(err, "alternative download failed too")
	}
	ourutil.Reportf("Downloaded from alternative URL: %s", image)
	return image, nil
}

func (c *Catalog) fetch(ctx context.Context, url, dst string) error {
	ourutil.Reportf("Downloading %s...", url)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return errors.Trace(err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Trace(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("got %d when accessing %s", resp.StatusCode, url)
	}
	f, err := os.Create(dst)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dst)
		return errors.Trace(err)
	}
	return nil
}
