package libcsv

import "unsafe"

// fieldSlot is one reusable field buffer. Its capacity only ever grows while
// the reader is open, so after a few lines most stores are plain copies into
// existing storage.
type fieldSlot struct {
	buf []byte
}

// store materializes a raw span into the slot. Spans carrying doubled-quote
// escapes are copied a byte at a time so each pair collapses to a single
// quote; clean spans are bulk copied. A zero-length span clears the logical
// length but keeps the capacity.
func (s *fieldSlot) store(span []byte, escaped bool) {
	if cap(s.buf) < len(span) {
		s.buf = make([]byte, 0, len(span))
	}
	s.buf = s.buf[:0]

	if !escaped {
		s.buf = append(s.buf, span...)
		return
	}

	for i := 0; i < len(span); i++ {
		c := span[i]
		if c == '"' && i+1 < len(span) && span[i+1] == '"' {
			i++
		}
		s.buf = append(s.buf, c)
	}
}

// value returns a zero-copy view of the stored bytes. The string aliases the
// slot's storage and is only valid until the slot is stored into again.
func (s *fieldSlot) value() string {
	if len(s.buf) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(s.buf), len(s.buf))
}

// trimSpan strips leading and/or trailing ASCII spaces from a span without
// copying. Only unquoted fields are ever trimmed.
func trimSpan(span []byte, left, right bool) []byte {
	if left {
		for len(span) > 0 && span[0] == ' ' {
			span = span[1:]
		}
	}
	if right {
		for len(span) > 0 && span[len(span)-1] == ' ' {
			span = span[:len(span)-1]
		}
	}
	return span
}
