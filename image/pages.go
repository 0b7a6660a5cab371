// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

// Prot is a set of memory access permissions.
type Prot int

const (
	ProtRead Prot = 1 << iota
	ProtWrite
	ProtExec
)

func (p Prot) String() string {
	s := []byte("---")
	if p&ProtRead != 0 {
		s[0] = 'r'
	}
	if p&ProtWrite != 0 {
		s[1] = 'w'
	}
	if p&ProtExec != 0 {
		s[2] = 'x'
	}
	return string(s)
}

// Pages allocates page-granular memory.  Slices passed to Unmap and Protect
// are page-aligned subslices of mapped memory.
type Pages interface {
	PageSize() int
	Map(size int) ([]byte, error) // Readable and writable.
	Unmap(b []byte) error
	Protect(b []byte, prot Prot) error
}

func roundUp(n, pageSize int) int {
	return (n + pageSize - 1) &^ (pageSize - 1)
}
