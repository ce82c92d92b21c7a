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
package inspect

import (
	"fmt"
	"strings"
	"time"

	"github.com/juju/errors"
)

const smokeMarker = "Hello MicroPython!"

// SmokeTest sends a print statement to a freshly flashed device and checks
// that the REPL echoes it back. Returns the raw response for reporting.
func SmokeTest(port string) (string, error) {
	s, err := openPort(port)
	if err != nil {
		return "", errors.Annotatef(err, "failed to open %s", port)
	}
	defer s.Close()

	time.Sleep(1 * time.Second)
	s.Flush()
	if _, err := s.Write([]byte(fmt.Sprintf("print(%q)\r\n", smokeMarker))); err != nil {
		return "", errors.Annotatef(err, "write to %s failed", port)
	}
	time.Sleep(1 * time.Second)

	chunk := make([]byte, readChunkSize)
	n, _ := s.Read(chunk)
	resp := string(chunk[:n])
	if !strings.Contains(resp, smokeMarker) {
		return resp, errors.Errorf("no response from MicroPython")
	}
	return resp, nil
}
