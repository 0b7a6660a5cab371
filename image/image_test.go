// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
)

const testPageSize = 4096

type heapPages struct{}

func (heapPages) PageSize() int                     { return testPageSize }
func (heapPages) Map(size int) ([]byte, error)      { return make([]byte, size), nil }
func (heapPages) Unmap(b []byte) error              { return nil }
func (heapPages) Protect(b []byte, prot Prot) error { return nil }

type event struct {
	Op   string
	Page int // Index relative to the first mapped page.
	N    int // Number of pages.
	Prot Prot
}

// recorder tracks permissions of every page and fails on W+X or double unmap.
type recorder struct {
	t      *testing.T
	inner  Pages
	base   uintptr
	prot   map[int]Prot
	events []event
}

func newRecorder(t *testing.T, inner Pages) *recorder {
	return &recorder{t: t, inner: inner, prot: make(map[int]Prot)}
}

func (r *recorder) PageSize() int { return r.inner.PageSize() }

func (r *recorder) pages(b []byte) (first, n int) {
	addr := uintptr(unsafe.Pointer(&b[0]))
	first = int(addr-r.base) / r.PageSize()
	n = (len(b) + r.PageSize() - 1) / r.PageSize()
	return
}

func (r *recorder) Map(size int) (b []byte, err error) {
	b, err = r.inner.Map(size)
	if err != nil {
		return
	}
	r.base = uintptr(unsafe.Pointer(&b[0]))
	n := size / r.PageSize()
	for i := 0; i < n; i++ {
		r.prot[i] = ProtRead | ProtWrite
	}
	r.events = append(r.events, event{"map", 0, n, ProtRead | ProtWrite})
	return
}

func (r *recorder) Unmap(b []byte) error {
	first, n := r.pages(b)
	for i := first; i < first+n; i++ {
		if _, found := r.prot[i]; !found {
			r.t.Errorf("page %d unmapped twice", i)
		}
		delete(r.prot, i)
	}
	r.events = append(r.events, event{"unmap", first, n, 0})
	return r.inner.Unmap(b)
}

func (r *recorder) Protect(b []byte, prot Prot) error {
	if prot&ProtWrite != 0 && prot&ProtExec != 0 {
		r.t.Errorf("writable and executable: %s", prot)
	}
	first, n := r.pages(b)
	for i := first; i < first+n; i++ {
		if _, found := r.prot[i]; !found {
			r.t.Errorf("page %d protected after unmap", i)
		}
		r.prot[i] = prot
	}
	r.events = append(r.events, event{"protect", first, n, prot})
	return r.inner.Protect(b, prot)
}

func (r *recorder) checkWX() {
	for i, prot := range r.prot {
		if prot&ProtWrite != 0 && prot&ProtExec != 0 {
			r.t.Errorf("page %d: %s", i, prot)
		}
	}
}

func emit(w *Writable, numInsns, words int) []byte {
	text := w.Text()
	for pc := 0; pc < numInsns; pc++ {
		w.SetTextAddr(pc, uint32(pc*4))
	}
	for i := 0; i < words; i++ {
		text = binary.LittleEndian.AppendUint32(text, 0x00000013)
	}
	return text
}

func TestWriteXorExecute(t *testing.T) {
	rec := newRecorder(t, heapPages{})

	w, err := New(rec, 10, 3*testPageSize-100)
	if err != nil {
		t.Fatal(err)
	}
	rec.checkWX()

	text := emit(w, 10, 10)
	rec.checkWX()

	p, err := w.Seal(len(text))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	rec.checkWX()

	expect := []event{
		{"map", 0, 4, ProtRead | ProtWrite},
		{"unmap", 2, 2, 0},
		{"protect", 0, 1, ProtRead},
		{"protect", 1, 1, ProtRead | ProtExec},
	}
	if diff := cmp.Diff(expect, rec.events); diff != "" {
		t.Error(diff)
	}

	if len(p.Text()) != 40 || len(p.TextPages()) != testPageSize {
		t.Errorf("text sizes: %d %d", len(p.Text()), len(p.TextPages()))
	}
	for i := 40; i < testPageSize; i += 4 {
		if word := binary.LittleEndian.Uint32(p.TextPages()[i:]); word != TrapWord {
			t.Fatalf("tail word at 0x%x: 0x%08x", i, word)
		}
	}
	if p.NumInsns() != 10 || p.TextEntry(9) != 36 {
		t.Errorf("table: %d %d", p.NumInsns(), p.TextEntry(9))
	}
}

func TestCloseOnce(t *testing.T) {
	rec := newRecorder(t, heapPages{})

	w, err := New(rec, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	p, err := w.Seal(len(emit(w, 1, 1)))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := p.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if !p.Closed() || len(rec.prot) != 0 {
		t.Errorf("pages left: %v", rec.prot)
	}

	var unmaps int
	for _, e := range rec.events {
		if e.Op == "unmap" {
			unmaps++
		}
	}
	if unmaps != 1 {
		t.Errorf("%d unmaps", unmaps)
	}
}

func TestSetTextAddrTwice(t *testing.T) {
	w, err := New(heapPages{}, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.SetTextAddr(1, 8)

	defer func() {
		if recover() == nil {
			t.Error("no panic")
		}
	}()
	w.SetTextAddr(1, 8)
}

func TestTextAddr(t *testing.T) {
	w, err := New(heapPages{}, 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.SetTextAddr(0, 16)
	w.SetTextAddr(1, UnsupportedBit|32)

	for pc, expect := range []struct {
		addr int32
		ok   bool
	}{
		{16, true},
		{32, true},
		{0, false},
	} {
		addr, ok := w.TextAddr(pc)
		if addr != expect.addr || ok != expect.ok {
			t.Errorf("pc %d: %d %v", pc, addr, ok)
		}
	}
	if _, ok := w.TextAddr(3); ok {
		t.Error("out of range")
	}
}

func TestSealIncomplete(t *testing.T) {
	rec := newRecorder(t, heapPages{})

	w, err := New(rec, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	w.SetTextAddr(0, 0)

	if _, err := w.Seal(4); err == nil {
		t.Fatal("sealed with unset entry")
	}
	if len(rec.prot) != 0 {
		t.Error("memory not released")
	}
	w.Close()
}

func TestDefaultPages(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip(runtime.GOOS)
	}

	w, err := New(DefaultPages, 100, 1)
	if err != nil {
		t.Fatal(err)
	}
	text := emit(w, 100, 1000)

	p, err := w.Seal(len(text))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if got := fmt.Sprintf("%x", p.Text()[:4]); got != "13000000" {
		t.Error(got)
	}
	if p.TextBase()%uintptr(DefaultPages.PageSize()) != 0 {
		t.Errorf("text base 0x%x", p.TextBase())
	}
}
