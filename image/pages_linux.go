// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package image

import (
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

type mmapPages struct{}

// DefaultPages maps anonymous private memory.
var DefaultPages Pages = mmapPages{}

func (mmapPages) PageSize() int {
	return unix.Getpagesize()
}

func (mmapPages) Map(size int) (b []byte, err error) {
	p, err := unix.MmapPtr(-1, 0, nil, uintptr(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		err = xerrors.Errorf("mmap %d bytes: %w", size, err)
		return
	}
	b = unsafe.Slice((*byte)(p), size)
	return
}

func (mmapPages) Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.MunmapPtr(unsafe.Pointer(&b[0]), uintptr(len(b))); err != nil {
		return xerrors.Errorf("munmap: %w", err)
	}
	return nil
}

func (mmapPages) Protect(b []byte, prot Prot) error {
	if len(b) == 0 {
		return nil
	}
	var flags int
	if prot&ProtRead != 0 {
		flags |= unix.PROT_READ
	}
	if prot&ProtWrite != 0 {
		flags |= unix.PROT_WRITE
	}
	if prot&ProtExec != 0 {
		flags |= unix.PROT_EXEC
	}
	if err := unix.Mprotect(b, flags); err != nil {
		return xerrors.Errorf("mprotect %s: %w", prot, err)
	}
	return nil
}
