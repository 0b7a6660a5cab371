// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"sync"
	"sync/atomic"
)

// Executions in progress are found by native callbacks via an integer
// handle stored in the environment.
var (
	handles    sync.Map // uint64 -> *execution
	lastHandle atomic.Uint64
)

func registerExecution(x *execution) uint64 {
	h := lastHandle.Add(1)
	handles.Store(h, x)
	return h
}

func unregisterExecution(h uint64) {
	handles.Delete(h)
}

func lookupExecution(h uint64) *execution {
	x, found := handles.Load(h)
	if !found {
		panic("runner: callback with unknown execution handle")
	}
	return x.(*execution)
}
