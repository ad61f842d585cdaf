// Package bufpool provides reusable copy buffers for streaming file
// contents in and out of shard archives.
//
// Every worker copies one file at a time, so a single buffer size class
// is enough; sync.Pool handles cleanup when workers go idle.
package bufpool

import "sync"

// BufferSize matches the shard write buffer so a whole buffer flushes
// in one write.
const BufferSize = 128 << 10

var pool = sync.Pool{
	New: func() any {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// Get returns a buffer of BufferSize bytes. The pointer indirection
// avoids an allocation on Put.
func Get() *[]byte {
	return pool.Get().(*[]byte)
}

// Put returns a buffer obtained from Get to the pool.
func Put(buf *[]byte) {
	pool.Put(buf)
}
