// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"encoding/binary"
	"unsafe"
)

// Memory translates virtual addresses of bytecode memory accesses.
type Memory interface {
	Load(vmaddr uint64, size int) (value uint64, ok bool)
	Store(vmaddr uint64, size int, value uint64) (ok bool)
}

// Region of virtual memory backed by a byte slice.
type Region struct {
	VMAddr   uint64
	Data     []byte
	Writable bool

	// FrameSize enables stack frame gaps: every frame is followed by an
	// inaccessible gap of the same size in virtual address space.
	FrameSize uint64
}

// VMSize is the extent of the region in virtual address space.
func (r *Region) VMSize() uint64 {
	if r.FrameSize != 0 {
		return uint64(len(r.Data)) * 2
	}
	return uint64(len(r.Data))
}

// translate to a slice of Data.  Accesses must not straddle a gap.
func (r *Region) translate(vmaddr uint64, size int) []byte {
	if vmaddr < r.VMAddr {
		return nil
	}
	offset := vmaddr - r.VMAddr
	if offset >= r.VMSize() || r.VMSize()-offset < uint64(size) {
		return nil
	}

	if r.FrameSize != 0 {
		frame := offset / (r.FrameSize * 2)
		within := offset % (r.FrameSize * 2)
		if within+uint64(size) > r.FrameSize {
			return nil
		}
		offset = frame*r.FrameSize + within
	}

	return r.Data[offset : offset+uint64(size)]
}

// Regions is a Memory made of non-overlapping regions.
type Regions []Region

func (rs Regions) find(vmaddr uint64, size int, write bool) []byte {
	for i := range rs {
		if b := rs[i].translate(vmaddr, size); b != nil {
			if write && !rs[i].Writable {
				return nil
			}
			return b
		}
	}
	return nil
}

func (rs Regions) Load(vmaddr uint64, size int) (value uint64, ok bool) {
	b := rs.find(vmaddr, size, false)
	if b == nil {
		return
	}

	switch size {
	case 1:
		value = uint64(b[0])
	case 2:
		value = uint64(binary.LittleEndian.Uint16(b))
	case 4:
		value = uint64(binary.LittleEndian.Uint32(b))
	case 8:
		value = binary.LittleEndian.Uint64(b)
	}
	ok = true
	return
}

func (rs Regions) Store(vmaddr uint64, size int, value uint64) (ok bool) {
	b := rs.find(vmaddr, size, true)
	if b == nil {
		return
	}

	switch size {
	case 1:
		b[0] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(value))
	case 8:
		binary.LittleEndian.PutUint64(b, value)
	}
	ok = true
	return
}

func hostAddr(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&b[0])))
}
