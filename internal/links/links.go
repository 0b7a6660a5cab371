// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package links

// L is a text address which is defined once.
type L struct {
	Address int32
	defined bool
}

func (l *L) SetAddress(addr int32) {
	if l.defined {
		panic("link address defined twice")
	}
	l.Address = addr
	l.defined = true
}

func (l *L) Defined() bool {
	return l.defined
}

func (l *L) FinalAddress() int32 {
	if !l.defined {
		panic("link address is undefined")
	}
	return l.Address
}
