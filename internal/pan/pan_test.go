// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pan

import (
	"errors"
	"io"
	"testing"
)

var errTest = errors.New("test")

func catch(f func()) (err error) {
	defer func() {
		err = Error(recover())
	}()

	f()
	return
}

func TestError(t *testing.T) {
	if err := catch(func() {}); err != nil {
		t.Error(err)
	}

	if err := catch(func() { Panic(errTest) }); err != errTest {
		t.Error(err)
	}

	if err := catch(func() { Check(errTest) }); err != errTest {
		t.Error(err)
	}

	if err := catch(func() { Check(nil) }); err != nil {
		t.Error(err)
	}
}

func TestErrorTruncated(t *testing.T) {
	err := catch(func() { Panic(io.EOF) })
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error: %v", err)
	}
	if err.Error() != "unexpected end of text" {
		t.Errorf("message: %q", err.Error())
	}
}

func TestMust(t *testing.T) {
	if x := Must(7, nil); x != 7 {
		t.Error(x)
	}

	if err := catch(func() { Must(0, errTest) }); err != errTest {
		t.Error(err)
	}
}

func TestRepanic(t *testing.T) {
	for _, f := range []func(){
		func() { panic("string") },
		func() { panic(errTest) },
		func() {
			var a []int
			_ = a[len(a)]
		},
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Error("not repanicked")
				}
			}()
			catch(f)
		}()
	}
}
