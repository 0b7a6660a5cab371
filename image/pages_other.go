// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package image

import (
	"errors"
)

var errNoPages = errors.New("executable memory allocation is not supported on this platform")

type noPages struct{}

// DefaultPages fails on this platform.
var DefaultPages Pages = noPages{}

func (noPages) PageSize() int              { return 4096 }
func (noPages) Map(int) ([]byte, error)    { return nil, errNoPages }
func (noPages) Unmap([]byte) error         { return errNoPages }
func (noPages) Protect([]byte, Prot) error { return errNoPages }
