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
	"path/filepath"
	"sort"
)

// ESP32 boards with a USB-UART bridge (CP210x, CH340) enumerate as ttyUSB;
// boards with native USB (C3, S3, C6) as ttyACM. Bridges are listed first.
func EnumerateSerialPorts() []string {
	var ports []string
	for _, pattern := range []string{"/dev/ttyUSB*", "/dev/ttyACM*"} {
		list, _ := filepath.Glob(pattern)
		sort.Strings(list)
		ports = append(ports, list...)
	}
	return ports
}
