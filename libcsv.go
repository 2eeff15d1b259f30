// # libcsv: A Simple and Quick Streaming CSV Parser for Go
//
// libcsv parses CSV documents from files or in-memory strings, honoring RFC 4180 quoting and escaping while staying permissive about the malformed CSV found in the wild. It keeps allocations low by reusing one buffer per field across reads and can stream files of any size with memory bounded by the longest line.
//
// # Features
//
// - Four source modes: streaming file, fully materialized file, copied string, and borrowed (zero-copy) string.
// - Handle-based API: configure once, open, read line by line, look fields up by index.
// - Fixed record arity established by the first line, enforced on every later line.
// - Optional header consumption and optional left/right trimming of unquoted fields; quoted whitespace is always preserved.
// - Structured errors via `ParseError`, `ErrFieldCount`, `ErrNotOpen`, and `ErrInvalidMode`, plus a last-error accessor.
// - Optional debug tracing through an injectable zap logger.
//
// # Getting Started
//
// Create a handle with `New`, apply configuration, then call `OpenFile` or `OpenString`. `Read` advances one line at a time and returns `io.EOF` when the document is exhausted; `Get` returns the current line's fields. Call `Close` when done; the handle can then be reopened.
package libcsv
