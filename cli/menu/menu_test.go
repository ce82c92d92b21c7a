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
package menu

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/juju/errors"
)

func TestWrap(t *testing.T) {
	for i, c := range []struct {
		idx, n, res int
	}{
		{0, 1, 0},
		{1, 1, 0},
		{-1, 1, 0},
		{-1, 5, 4},
		{5, 5, 0},
		{3, 5, 3},
		{-3, 5, 2},
	} {
		if res := wrap(c.idx, c.n); res != c.res {
			t.Errorf("%d: wrap(%d, %d) = %d, want %d", i, c.idx, c.n, res, c.res)
		}
	}
}

func TestWrapInvariant(t *testing.T) {
	// Moving down N times from any start position returns to the start,
	// including the trivial single-option list.
	for n := 1; n <= 6; n++ {
		for start := 0; start < n; start++ {
			cur := start
			for i := 0; i < n; i++ {
				cur = wrap(cur+1, n)
			}
			if cur != start {
				t.Errorf("n=%d start=%d: ended at %d", n, start, cur)
			}
		}
	}
}

func TestDecodeKey(t *testing.T) {
	for i, c := range []struct {
		in  []byte
		res key
	}{
		{[]byte{0x1b, '[', 'A'}, keyUp},
		{[]byte{0x1b, '[', 'B'}, keyDown},
		{[]byte{'\r'}, keyEnter},
		{[]byte{'\n'}, keyEnter},
		{[]byte{'q'}, keyQuit},
		{[]byte{0x03}, keyQuit},
		// A bare ESC is a complete read, not the start of a sequence to
		// wait for.
		{[]byte{0x1b}, keyNone},
		{[]byte{0x1b, '['}, keyNone},
		{[]byte{0x1b, '[', 'C'}, keyNone},
		{[]byte{'x'}, keyNone},
		{nil, keyNone},
	} {
		if res := decodeKey(c.in); res != c.res {
			t.Errorf("%d: decodeKey(%q) = %v, want %v", i, c.in, res, c.res)
		}
	}
}

func TestSelectLine(t *testing.T) {
	opts := []string{"one", "two", "three"}
	for i, c := range []struct {
		in   string
		res  int
		quit bool
	}{
		{"2\n", 1, false},
		{" 1 \n", 0, false},
		{"x\n99\n0\n3\n", 2, false}, // invalid input re-prompts
		{"q\n", -1, true},
		{"x\nQ\n", -1, true},
	} {
		m := NewWithIO(strings.NewReader(c.in), &bytes.Buffer{})
		res, err := m.Select("pick", opts)
		if c.quit {
			if errors.Cause(err) != ErrQuit {
				t.Errorf("%d: got %v, want ErrQuit", i, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%d: %v", i, err)
		} else if res != c.res {
			t.Errorf("%d: got %d, want %d", i, res, c.res)
		}
	}
}

func TestSelectLineSingleOption(t *testing.T) {
	m := NewWithIO(strings.NewReader("1\n"), &bytes.Buffer{})
	res, err := m.Select("pick", []string{"only"})
	if err != nil || res != 0 {
		t.Fatalf("got %d, %v", res, err)
	}
}

func TestSelectWithHeader(t *testing.T) {
	var out bytes.Buffer
	m := NewWithIO(strings.NewReader("1\n"), &out)
	header := func(w io.Writer) {
		fmt.Fprintf(w, "PANEL CONTENT\n")
	}
	if _, err := m.SelectWithHeader(header, "pick", []string{"go"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "PANEL CONTENT") {
		t.Errorf("header panel not rendered: %q", out.String())
	}
}

func TestSelectNoOptions(t *testing.T) {
	m := NewWithIO(strings.NewReader(""), &bytes.Buffer{})
	if _, err := m.Select("pick", nil); err == nil {
		t.Error("expected an error for an empty options list")
	}
}
