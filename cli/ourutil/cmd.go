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
package ourutil

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

// GetCommandOutputTimeout runs the command with a deadline and returns its
// combined stdout+stderr output. A command that overruns the deadline is
// killed and reported as a timeout error, with whatever output it produced.
func GetCommandOutputTimeout(ctx context.Context, timeout time.Duration, command string, args ...string) (string, error) {
	glog.Infof("Running %s %s", command, strings.Join(args, " "))
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(cctx, command, args...)
	output, err := cmd.CombinedOutput()
	if cctx.Err() == context.DeadlineExceeded {
		return string(output), errors.Errorf("%s timed out after %s", command, timeout)
	}
	if err != nil {
		return string(output), errors.Annotatef(err, "failed to run %s %s", command, strings.Join(args, " "))
	}
	return string(output), nil
}
