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
// Package menu implements the interactive list selector used throughout the
// tool. When stdin is a terminal it runs in raw mode with arrow-key
// navigation and a full screen redraw on every keystroke; otherwise it falls
// back to a numbered list read line by line. Both modes honor the same
// contract: the index of the chosen option, or ErrQuit.
package menu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/juju/errors"
	"golang.org/x/term"
)

// ErrQuit is returned when the user hits the quit key at any prompt.
// It is a clean exit, not a failure.
var ErrQuit = errors.New("quit")

type key int

const (
	keyNone key = iota
	keyUp
	keyDown
	keyEnter
	keyQuit
)

type Menu struct {
	tty   *os.File
	rd    *bufio.Reader
	out   io.Writer
	raw   bool
	clear bool
}

// New returns a selector bound to the process terminal. Raw arrow-key input
// is used if stdin is a terminal, the numbered fallback otherwise.
func New() *Menu {
	tty := os.Stdin
	return &Menu{
		tty:   tty,
		rd:    bufio.NewReader(tty),
		out:   os.Stderr,
		raw:   term.IsTerminal(int(tty.Fd())),
		clear: true,
	}
}

// NewWithIO returns a line-input selector reading from r and writing to w,
// for environments without a controlling terminal.
func NewWithIO(r io.Reader, w io.Writer) *Menu {
	return &Menu{rd: bufio.NewReader(r), out: w}
}

// Select shows the options and blocks until one is chosen.
func (m *Menu) Select(title string, options []string) (int, error) {
	return m.SelectWithHeader(nil, title, options)
}

// SelectWithHeader is Select with a caller-supplied panel rendered above the
// option list. In raw mode the panel is redrawn on every navigation tick so
// it stays visible while the user moves the selection.
func (m *Menu) SelectWithHeader(header func(io.Writer), title string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, errors.Errorf("nothing to select from")
	}
	if m.raw {
		return m.selectRaw(header, title, options)
	}
	return m.selectLine(header, title, options)
}

func (m *Menu) selectRaw(header func(io.Writer), title string, options []string) (int, error) {
	cur := 0
	for {
		m.redraw(header, title, options, cur)
		k, err := m.readKey()
		if err != nil {
			// Terminal went away mid-session, degrade to line input.
			glog.Infof("raw terminal read failed: %v", err)
			m.raw = false
			return m.selectLine(header, title, options)
		}
		switch k {
		case keyUp:
			cur = wrap(cur-1, len(options))
		case keyDown:
			cur = wrap(cur+1, len(options))
		case keyEnter:
			return cur, nil
		case keyQuit:
			fmt.Fprintf(m.out, "\nExiting...\n")
			return -1, ErrQuit
		}
	}
}

// wrap keeps an index inside [0, n), wrapping around both ends.
func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func (m *Menu) redraw(header func(io.Writer), title string, options []string, cur int) {
	if m.clear {
		fmt.Fprint(m.out, "\x1b[2J\x1b[H")
	}
	if header != nil {
		header(m.out)
	}
	bar := strings.Repeat("=", 60)
	fmt.Fprintf(m.out, "\n%s\n  %s\n%s\n", bar, title, bar)
	for i, opt := range options {
		if i == cur {
			color.New(color.FgCyan, color.Bold).Fprintf(m.out, "  > %s\n", opt)
		} else {
			fmt.Fprintf(m.out, "    %s\n", opt)
		}
	}
	fmt.Fprintf(m.out, "\n%s\n  Use up/down arrows to navigate, Enter to select, 'q' to quit\n%s\n", bar, bar)
}

// readKey reads a single keystroke in raw mode. Unrecognized keys map to
// keyNone and are ignored by the caller.
func (m *Menu) readKey() (key, error) {
	fd := int(m.tty.Fd())
	st, err := term.MakeRaw(fd)
	if err != nil {
		return keyNone, errors.Trace(err)
	}
	defer term.Restore(fd, st)

	// Arrow keys arrive as one 3-byte burst in raw mode, so a single read
	// gets the whole sequence. A lone ESC yields a 1-byte read and is
	// ignored instead of waiting for bytes that will never come.
	var buf [3]byte
	n, err := m.tty.Read(buf[:])
	if err != nil {
		return keyNone, errors.Trace(err)
	}
	return decodeKey(buf[:n]), nil
}

func decodeKey(b []byte) key {
	if len(b) == 0 {
		return keyNone
	}
	switch b[0] {
	case 0x1b: // ESC sequence
		if len(b) == 3 && b[1] == '[' {
			switch b[2] {
			case 'A':
				return keyUp
			case 'B':
				return keyDown
			}
		}
		return keyNone
	case '\r', '\n':
		return keyEnter
	case 'q', 0x03: // 'q' or Ctrl+C
		return keyQuit
	}
	return keyNone
}

func (m *Menu) selectLine(header func(io.Writer), title string, options []string) (int, error) {
	if header != nil {
		header(m.out)
	}
	fmt.Fprintf(m.out, "\n%s\n", title)
	for i, opt := range options {
		fmt.Fprintf(m.out, "  %d. %s\n", i+1, opt)
	}
	for {
		fmt.Fprintf(m.out, "\nSelect option (1-%d, 'q' to quit): ", len(options))
		line, err := m.rd.ReadString('\n')
		if err != nil && line == "" {
			return -1, errors.Trace(err)
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "q") {
			fmt.Fprintf(m.out, "Exiting...\n")
			return -1, ErrQuit
		}
		n, cerr := strconv.Atoi(line)
		if cerr != nil {
			fmt.Fprintf(m.out, "Please enter a valid number\n")
		} else if n < 1 || n > len(options) {
			fmt.Fprintf(m.out, "Please enter a number between 1 and %d\n", len(options))
		} else {
			return n - 1, nil
		}
		if err != nil {
			// Input was exhausted on an invalid trailing line.
			return -1, errors.Trace(err)
		}
	}
}
