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
	goflag "flag"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// The tool is purely interactive; the only flags are glog's, and they stay
// hidden from the usage text.
var hiddenFlags = []string{
	"alsologtostderr",
	"log_backtrace_at",
	"log_dir",
	"logtostderr",
	"stderrthreshold",
	"v",
	"vmodule",
}

func initFlags() {
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	for _, f := range hiddenFlags {
		flag.CommandLine.MarkHidden(f)
	}
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, "Interactive ESP32 MicroPython flashing tool.\n")
	fmt.Fprintf(os.Stderr, "\nUsage:\n  %s\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "The tool takes no arguments; it detects a connected ESP32, inspects its\n")
	fmt.Fprintf(os.Stderr, "current firmware, then downloads and flashes a MicroPython image.\n")
}
