// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buffer

import (
	"errors"
	"io"
	"testing"

	"gate.computer/rvjit/internal/pan"
)

func TestStatic(t *testing.T) {
	backing := make([]byte, 12)
	s := NewStatic(backing[:0:8])

	s.PutUint32(0x04030201)
	if n, err := s.Write([]byte{5, 6, 7}); n != 3 || err != nil {
		t.Fatal(n, err)
	}
	if s.Len() != 7 || s.Cap() != 8 {
		t.Fatal(s.Len(), s.Cap())
	}
	if n, err := s.Write([]byte{8, 9}); n != 1 || err != io.EOF {
		t.Fatal(n, err)
	}

	func() {
		defer func() {
			err := pan.Error(recover())
			if !errors.Is(err, ErrStaticSize) {
				t.Errorf("recovered %v", err)
			}
		}()
		s.Extend(1)
	}()

	for i, b := range backing[:8] {
		if b != byte(i+1) {
			t.Errorf("byte %d: %d", i, b)
		}
	}
	for _, b := range backing[8:] {
		if b != 0 {
			t.Error("write past capacity")
		}
	}
}
