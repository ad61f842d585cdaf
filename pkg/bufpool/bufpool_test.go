package bufpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsFullSizeBuffer(t *testing.T) {
	buf := Get()
	defer Put(buf)

	assert.Len(t, *buf, BufferSize)
}

func TestBuffersAreReusable(t *testing.T) {
	buf := Get()
	(*buf)[0] = 0xFF
	Put(buf)

	// A recycled buffer keeps its full capacity regardless of content.
	again := Get()
	defer Put(again)
	assert.Len(t, *again, BufferSize)
}
