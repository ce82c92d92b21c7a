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
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/golang/glog"
	flag "github.com/spf13/pflag"
)

func main() {
	initFlags()
	flag.Parse()

	// In line-input mode Ctrl+C arrives as SIGINT rather than as a byte on
	// stdin. Treat it like the menu quit key: a clean cancellation.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	go func() {
		<-sigc
		fmt.Fprintf(os.Stderr, "\nCancelled by user.\n")
		os.Exit(0)
	}()

	s := newSession()
	err := s.run(context.Background())
	switch {
	case err == nil:
		color.New(color.FgGreen).Fprintf(os.Stderr, "\nAll done! Your ESP32 is ready for MicroPython development.\n")
	case isCleanExit(err):
		glog.Infof("clean exit: %v", err)
	default:
		glog.Infof("Error: %+v", err)
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
