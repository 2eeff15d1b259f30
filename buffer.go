package libcsv

// lineBuffer owns the bytes the tokenizer scans. The logical length is
// len(data); pos marks how far the current line has been consumed. Scanning
// is bounded by the slice length, there is no terminator sentinel.
type lineBuffer struct {
	data []byte
	pos  int
}

// grow extends the buffer's capacity in repeated increments of step until n
// more bytes fit. Capacity never shrinks. It returns the resulting capacity.
func (b *lineBuffer) grow(n, step int) int {
	if step < 1 {
		step = 1
	}
	need := len(b.data) + n
	if need <= cap(b.data) {
		return cap(b.data)
	}

	capacity := cap(b.data)
	for capacity < need {
		capacity += step
	}

	grown := make([]byte, len(b.data), capacity)
	copy(grown, b.data)
	b.data = grown
	return capacity
}

// compact discards the consumed prefix, shifting the remainder to offset 0.
// This is what keeps streaming memory bounded by line length rather than
// document length.
func (b *lineBuffer) compact() {
	if b.pos == 0 {
		return
	}
	n := copy(b.data, b.data[b.pos:])
	b.data = b.data[:n]
	b.pos = 0
}

// attach points the buffer at an already materialized document. The cursor
// rewinds to the start.
func (b *lineBuffer) attach(data []byte) {
	b.data = data
	b.pos = 0
}

// exhausted reports whether the cursor has consumed the whole buffer.
func (b *lineBuffer) exhausted() bool {
	return b.pos >= len(b.data)
}

// reset drops the buffer contents and cursor.
func (b *lineBuffer) reset() {
	b.data = nil
	b.pos = 0
}
