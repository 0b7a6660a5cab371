// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

// HeapPages allocates ordinary garbage-collected memory.  Protection is not
// enforced, so the code can only be executed by an emulator.
var HeapPages Pages = goPages{}

type goPages struct{}

func (goPages) PageSize() int                { return 4096 }
func (goPages) Map(size int) ([]byte, error) { return make([]byte, size), nil }
func (goPages) Unmap([]byte) error           { return nil }
func (goPages) Protect([]byte, Prot) error   { return nil }
