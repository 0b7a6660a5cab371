// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pan carries compilation errors through panics within the module.
package pan

import (
	"io"

	"import.name/pan"
)

type truncatedText struct{}

func (truncatedText) Error() string       { return "unexpected end of text" }
func (truncatedText) PublicError() string { return "unexpected end of text" }
func (truncatedText) ProgramError() bool  { return true }
func (truncatedText) Unwrap() error       { return io.ErrUnexpectedEOF }

var z = new(pan.Zone)

var (
	Check = z.Check
	Panic = z.Panic
	Wrap  = z.Wrap
)

// Error returns the error carried by a value recovered from Panic or Check.
// Nil is passed through; other values are panicked again.
func Error(x any) error {
	err := z.Error(x)
	if err == nil {
		return nil
	}

	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return truncatedText{}
	}

	return err
}

// Must returns x or panics with err.
func Must[T any](x T, err error) T {
	Check(err)
	return x
}
