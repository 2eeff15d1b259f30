package libcsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineBufferGrow(t *testing.T) {
	t.Parallel()

	var b lineBuffer

	// Capacity is added in repeated fixed-size increments.
	assert.Equal(t, 12, b.grow(10, 4))
	assert.Equal(t, 12, cap(b.data))
	assert.Empty(t, b.data)

	// A request that already fits leaves capacity alone.
	assert.Equal(t, 12, b.grow(5, 4))

	b.data = append(b.data, "abcdef"...)
	assert.Equal(t, 16, b.grow(7, 4))
	assert.Equal(t, "abcdef", string(b.data))
}

func TestLineBufferGrowMinimumStep(t *testing.T) {
	t.Parallel()

	var b lineBuffer
	assert.Equal(t, 3, b.grow(3, 0))
}

func TestLineBufferCompact(t *testing.T) {
	t.Parallel()

	b := lineBuffer{data: []byte("abcdef"), pos: 4}
	before := cap(b.data)

	b.compact()
	assert.Equal(t, "ef", string(b.data))
	assert.Zero(t, b.pos)
	assert.Equal(t, before, cap(b.data), "compaction reuses the buffer")

	// Compacting at offset 0 is a no-op.
	b.compact()
	assert.Equal(t, "ef", string(b.data))
}

func TestLineBufferAttachAndExhausted(t *testing.T) {
	t.Parallel()

	var b lineBuffer
	b.attach([]byte("xy"))
	require.False(t, b.exhausted())

	b.pos = 2
	assert.True(t, b.exhausted())

	b.reset()
	assert.True(t, b.exhausted())
	assert.Nil(t, b.data)
}
