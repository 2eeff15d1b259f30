package libcsv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unsafe"

	"go.uber.org/zap"
)

const defaultReadSize = 1 << 10 // 1024 bytes

var (
	// ErrFieldCount is returned when a line contains more or fewer fields
	// than the arity fixed by the first line.
	ErrFieldCount = errors.New("libcsv: wrong number of fields")
	// ErrNotOpen is returned when Read is called on a handle that has no
	// source bound.
	ErrNotOpen = errors.New("libcsv: reader is not open")
	// ErrInvalidMode is returned when the handle's source binding is
	// corrupted. Seeing it indicates a defect in this package.
	ErrInvalidMode = errors.New("libcsv: invalid source mode")
)

// ParseError carries the line number a read failed on.
type ParseError struct {
	Line int
	Err  error
}

// Error formats the parse error message with the stored line and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("libcsv: parse error on line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Is.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// sourceMode identifies which kind of source a Reader is bound to. Exactly
// one applies between open and close.
type sourceMode int

const (
	modeNone           sourceMode = iota
	modeStreamFile                // live descriptor, chunked reads
	modeWholeFile                 // file fully materialized at open
	modeCopiedString              // owned copy of the caller's string
	modeBorrowedString            // alias of the caller's string bytes
)

// Reader is a handle-based CSV parser. Create one with New, configure it,
// open a source, then call Read and Get line by line. A Reader is not safe
// for concurrent use.
//
// Configuration must not change between open and close; doing so is
// undefined.
type Reader struct {
	f      *os.File
	buf    lineBuffer
	fields []fieldSlot
	line   int

	mode     sourceMode
	srcEOF   bool
	eolSplit bool

	header    bool
	leftTrim  bool
	rightTrim bool
	readSize  int

	lastErr string
	log     *zap.Logger
}

// New returns an unopened Reader expecting a header line, with trimming off
// and a 1024-byte streaming read size.
func New() *Reader {
	return &Reader{
		header:   true,
		readSize: defaultReadSize,
		log:      zap.NewNop(),
	}
}

// SetReadSize sets how many bytes are pulled from the file per read in
// streaming mode. Depending on line lengths, different values offer
// different performance; correctness never depends on it. Values below 1 are
// ignored. Must be called before opening.
func (r *Reader) SetReadSize(n int) {
	if n < 1 {
		return
	}
	r.readSize = n
}

// SetHeader tells the reader whether the document's first line is a header.
// When true (the default) the first line only fixes the record arity and its
// values are never retrievable. Must be called before opening.
func (r *Reader) SetHeader(on bool) {
	r.header = on
}

// SetLeftTrim enables stripping leading ASCII spaces from unquoted fields.
// Off by default. Must be called before opening.
func (r *Reader) SetLeftTrim(on bool) {
	r.leftTrim = on
}

// SetRightTrim enables stripping trailing ASCII spaces from unquoted fields.
// Off by default. Must be called before opening.
func (r *Reader) SetRightTrim(on bool) {
	r.rightTrim = on
}

// SetTrim sets both the left and right trim flags at once.
func (r *Reader) SetTrim(on bool) {
	r.leftTrim = on
	r.rightTrim = on
}

// SetLogger installs a logger for debug-level parse tracing. Nil restores
// the no-op logger.
func (r *Reader) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	r.log = l
}

// OpenFile binds the reader to the CSV file at path and reads the first line
// to establish the record arity (consuming the header when one is expected).
//
// With materialize true the whole file is loaded into memory and the
// descriptor is closed before OpenFile returns. With materialize false the
// descriptor stays open until Close and the file is read a chunk at a time;
// memory use is then bounded by the longest line, not the document size.
//
// The handle must be closed (or never opened). An empty file fails with
// io.EOF.
func (r *Reader) OpenFile(path string, materialize bool) error {
	if materialize {
		data, err := os.ReadFile(path)
		if err != nil {
			return r.fail(err)
		}
		r.buf.attach(data)
		r.mode = modeWholeFile
	} else {
		f, err := os.Open(path)
		if err != nil {
			return r.fail(err)
		}
		r.f = f
		r.mode = modeStreamFile
	}

	return r.openRead()
}

// OpenString binds the reader to an in-memory CSV document and reads the
// first line to establish the record arity (consuming the header when one is
// expected).
//
// With copy true the reader takes its own copy of data. With copy false the
// reader aliases the string's bytes without copying; the caller must keep
// data alive and unchanged for as long as the reader is open. The reader
// never writes through the alias.
//
// The handle must be closed (or never opened). An empty string fails with
// io.EOF.
func (r *Reader) OpenString(data string, copy bool) error {
	if copy {
		r.buf.attach([]byte(data))
		r.mode = modeCopiedString
	} else {
		r.buf.attach(unsafe.Slice(unsafe.StringData(data), len(data)))
		r.mode = modeBorrowedString
	}

	return r.openRead()
}

// openRead performs the arity-establishing first read, unwinding the source
// binding on failure so the handle is left closed. The failure message stays
// readable through LastError.
func (r *Reader) openRead() error {
	if err := r.Read(); err != nil {
		lastErr := r.lastErr
		r.Close()
		r.lastErr = lastErr
		return err
	}
	return nil
}

// Close releases the source binding: the descriptor in streaming mode, the
// document buffer, and the field slots. Configuration survives and the
// handle may be reopened. Safe to call on a closed or never-opened handle.
func (r *Reader) Close() {
	if r.f != nil {
		r.f.Close()
		r.f = nil
	}
	r.buf.reset()
	r.fields = nil
	r.line = 0
	r.mode = modeNone
	r.srcEOF = false
	r.eolSplit = false
	r.lastErr = ""
}

// Read advances to the next line of the document, tokenizing its fields for
// retrieval via Get. It returns nil on success and io.EOF once the document
// is exhausted; exhaustion is terminal, so every further call returns io.EOF
// without touching the handle. Any other error leaves the field values
// unspecified but the handle safe to Close.
func (r *Reader) Read() error {
	switch r.mode {
	case modeStreamFile:
		return r.readStream()
	case modeWholeFile, modeCopiedString, modeBorrowedString:
		if r.buf.exhausted() {
			return io.EOF
		}
		return r.readLine(r.fields == nil)
	case modeNone:
		return r.fail(ErrNotOpen)
	default:
		return r.fail(fmt.Errorf("%w: %d", ErrInvalidMode, r.mode))
	}
}

// readStream makes sure at least one complete line is resident, tokenizes
// it, then compacts the consumed prefix out of the buffer.
func (r *Reader) readStream() error {
	if r.f == nil {
		return r.fail(ErrNotOpen)
	}
	if len(r.buf.data) == 0 && r.srcEOF {
		return io.EOF
	}

	// A CR/LF run split across a chunk boundary belongs to the previous
	// line. Swallow its continuation first, so every read size yields the
	// same records as a whole-document parse.
	for r.eolSplit {
		if len(r.buf.data) == 0 {
			if r.srcEOF {
				return io.EOF
			}
			if err := r.fillChunk(); err != nil {
				return err
			}
			continue
		}
		if c := r.buf.data[0]; c == '\r' || c == '\n' {
			r.buf.pos = 1
			r.buf.compact()
			continue
		}
		r.eolSplit = false
	}

	scanned := 0
	for {
		unscanned := r.buf.data[scanned:]
		term := bytes.IndexByte(unscanned, '\n')
		if cr := bytes.IndexByte(unscanned, '\r'); cr >= 0 && (term < 0 || cr < term) {
			term = cr
		}
		if term >= 0 {
			scanned += term
			break
		}
		scanned = len(r.buf.data)

		if r.srcEOF {
			if len(r.buf.data) == 0 {
				return io.EOF
			}
			// Residual bytes without a terminator are the final line.
			break
		}
		if err := r.fillChunk(); err != nil {
			return err
		}
	}

	r.buf.pos = 0
	if err := r.readLine(r.fields == nil); err != nil {
		return err
	}

	// If the terminator run stopped exactly at the buffer end, it may
	// continue in the next chunk.
	r.eolSplit = r.buf.pos == len(r.buf.data) && r.buf.pos > scanned && !r.srcEOF
	r.buf.compact()
	return nil
}

// fillChunk appends up to one read-size chunk from the file to the buffer,
// growing it in read-size increments when the chunk would not fit.
func (r *Reader) fillChunk() error {
	oldCap := cap(r.buf.data)
	if newCap := r.buf.grow(r.readSize, r.readSize); newCap != oldCap {
		r.log.Debug("growing buffer", zap.Int("from", oldCap), zap.Int("to", newCap))
	}

	start := len(r.buf.data)
	r.buf.data = r.buf.data[:start+r.readSize]
	n, err := r.f.Read(r.buf.data[start : start+r.readSize])
	r.buf.data = r.buf.data[:start+n]

	if err != nil && !errors.Is(err, io.EOF) {
		return r.fail(err)
	}
	if n == 0 || errors.Is(err, io.EOF) {
		r.srcEOF = true
	}
	return nil
}

// Get returns the value of the index'th field of the current line. The
// boolean is false when the index is out of range, when no line has been
// read, or when the stored field is empty: a field that is present but empty
// and a field that is absent are deliberately indistinguishable here.
//
// The returned string aliases the reader's field storage and is only valid
// until the next Read or Close; copy it to retain it.
func (r *Reader) Get(index int) (string, bool) {
	if index < 0 || index >= len(r.fields) {
		return "", false
	}
	v := r.fields[index].value()
	if v == "" {
		return "", false
	}
	return v, true
}

// Fields returns the number of fields per record, as fixed by the first line
// processed after opening. Zero before a successful open.
func (r *Reader) Fields() int {
	return len(r.fields)
}

// Line returns the 1-based document line number of the most recently read
// line. After opening with a header it sits at 1 (the header line); without
// a header it sits at 0 until the first Read.
func (r *Reader) Line() int {
	return r.line
}

// LastError returns the message of the most recent failure. It is
// overwritten by the next failure, never cleared on success, so check return
// values rather than this to detect success. Close resets it.
func (r *Reader) LastError() string {
	return r.lastErr
}

// fail records err for LastError and returns it.
func (r *Reader) fail(err error) error {
	r.lastErr = err.Error()
	return err
}
