package libcsv

import (
	"fmt"

	"go.uber.org/zap"
)

// readLine tokenizes one full line starting at the buffer cursor, leaving the
// cursor past the line's terminator run. The first line processed after
// opening only establishes the record arity; its field count is taken as-is
// and never re-validated.
func (r *Reader) readLine(first bool) error {
	r.line++
	r.log.Debug("reading line", zap.Int("line", r.line))

	index := 0
	for {
		if !first && index == len(r.fields) {
			return r.fail(&ParseError{
				Line: r.line,
				Err:  fmt.Errorf("%w: found more than %d fields", ErrFieldCount, len(r.fields)),
			})
		}

		eol := r.readField(index, first)
		index++
		if eol {
			break
		}
	}

	if first {
		r.fields = make([]fieldSlot, index)
		if !r.header {
			// No header: the first line is data. Rewind so the next read
			// tokenizes the same bytes again, this time storing them.
			r.buf.pos = 0
			r.line--
		}
		return nil
	}

	if index != len(r.fields) {
		return r.fail(&ParseError{
			Line: r.line,
			Err:  fmt.Errorf("%w: expected %d fields, found %d", ErrFieldCount, len(r.fields), index),
		})
	}
	return nil
}

// readField tokenizes one field at the cursor and stores it at index (unless
// this is the arity-establishing pass). It reports whether the field ended
// its line, consuming the field's trailing delimiter or the line's whole
// CR/LF run. Parsing is permissive: a quote inside an unquoted field flips
// the field to quoted mode, and bytes between a closing quote and the next
// delimiter are discarded.
func (r *Reader) readField(index int, first bool) bool {
	data := r.buf.data
	quoted := false
	escaped := false

	if r.buf.pos < len(data) && data[r.buf.pos] == '"' {
		quoted = true
		r.buf.pos++
	}

	start := r.buf.pos
	end := r.buf.pos

scan:
	for {
		if quoted {
			if end >= len(data) {
				// Unclosed quote at end of input; take what we have.
				r.storeField(index, data[start:end], escaped, quoted, first)
				break scan
			}
			if data[end] == '"' {
				if end+1 < len(data) && data[end+1] == '"' {
					escaped = true
					end += 2
					continue
				}

				r.storeField(index, data[start:end], escaped, quoted, first)
				end++
				// Discard anything between the closing quote and the next
				// delimiter or terminator.
				for end < len(data) {
					if c := data[end]; c == ',' || c == '\r' || c == '\n' {
						break
					}
					end++
				}
				break scan
			}
			end++
			continue
		}

		if end >= len(data) {
			r.storeField(index, data[start:end], escaped, quoted, first)
			break scan
		}
		switch data[end] {
		case ',', '\r', '\n':
			r.storeField(index, data[start:end], escaped, quoted, first)
			break scan
		case '"':
			// A stray quote flips the field to quoted mode; whatever came
			// before it is dropped.
			quoted = true
			end++
			start = end
		default:
			end++
		}
	}

	if end < len(data) && data[end] == ',' {
		end++
	}
	r.buf.pos = end

	if r.buf.pos >= len(data) || data[r.buf.pos] == '\r' || data[r.buf.pos] == '\n' {
		// Consume the whole terminator run, so blank lines between records
		// disappear.
		for r.buf.pos < len(data) && (data[r.buf.pos] == '\r' || data[r.buf.pos] == '\n') {
			r.buf.pos++
		}
		return true
	}
	return false
}

// storeField applies the trim policy and materializes a span into its slot.
// The arity-establishing pass only counts fields, it never stores them.
func (r *Reader) storeField(index int, span []byte, escaped, quoted, first bool) {
	if first {
		return
	}

	if !quoted && len(span) > 0 {
		span = trimSpan(span, r.leftTrim, r.rightTrim)
	}
	r.fields[index].store(span, escaped)

	if ce := r.log.Check(zap.DebugLevel, "stored field"); ce != nil {
		ce.Write(zap.Int("index", index), zap.Int("length", len(r.fields[index].buf)))
	}
}
