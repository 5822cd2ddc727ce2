// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store holds the modernc.org/kv key encoding and ordering
// used by the on-disk task queue: tasks sort by priority, then by
// enqueue sequence, so a worker's SeekFirst always finds the oldest
// highest-priority task.
package store

import (
	"bytes"
	"encoding/binary"
)

var order = binary.BigEndian

// TaskKey identifies one queued task's position: lower Priority values
// run first, and Seq breaks ties in enqueue order.
type TaskKey struct {
	Priority int32
	Seq      uint64
}

// MarshalTaskKey encodes k so that modernc.org/kv's default byte-order
// comparison already sorts by (Priority, Seq); ByPriority is provided
// as an explicit kv.Options.Compare anyway, both for clarity at the
// call site and because Priority is stored as a signed int mapped into
// an unsigned range it must decode back out of.
func MarshalTaskKey(k TaskKey) []byte {
	var buf [12]byte
	order.PutUint32(buf[:4], uint32(k.Priority)^0x80000000)
	order.PutUint64(buf[4:], k.Seq)
	return buf[:]
}

// UnmarshalTaskKey reverses MarshalTaskKey.
func UnmarshalTaskKey(data []byte) TaskKey {
	p := int32(order.Uint32(data[:4]) ^ 0x80000000)
	return TaskKey{Priority: p, Seq: order.Uint64(data[4:])}
}

// ByPriority is a kv compare function ordering by (Priority, Seq).
func ByPriority(x, y []byte) int {
	if bytes.Equal(x, y) {
		return 0
	}
	kx, ky := UnmarshalTaskKey(x), UnmarshalTaskKey(y)
	switch {
	case kx.Priority < ky.Priority:
		return -1
	case kx.Priority > ky.Priority:
		return 1
	case kx.Seq < ky.Seq:
		return -1
	case kx.Seq > ky.Seq:
		return 1
	default:
		return 0
	}
}
