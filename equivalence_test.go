package libcsv

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// renderField writes a field the way a conforming producer would: quoted
// with doubled quotes when it contains a quote or delimiter, verbatim
// otherwise. Empty fields are quoted too, since a bare delimiter before the
// line terminator would not be counted as a field.
func renderField(s string) string {
	if s == "" || strings.ContainsAny(s, `",`) {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// readTable drains the reader, snapshotting every line's fields. Values are
// cloned because Get returns views into storage the next Read overwrites.
func readTable(tb require.TestingT, r *Reader, cols int) [][]string {
	var out [][]string
	for {
		err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(tb, err)

		row := make([]string, cols)
		for j := 0; j < cols; j++ {
			v, _ := r.Get(j)
			row[j] = strings.Clone(v)
		}
		out = append(out, row)
	}
	return out
}

// Reading the same document through every source binding, at any streaming
// read size, must yield identical field values.
func TestStreamingEquivalenceProperty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.csv")
	cell := rapid.StringMatching(`[ -~]{0,10}`) // printable ASCII, no line breaks

	rapid.Check(t, func(rt *rapid.T) {
		rows := rapid.IntRange(1, 6).Draw(rt, "rows")
		cols := rapid.IntRange(2, 5).Draw(rt, "cols")
		readSize := rapid.IntRange(1, 9).Draw(rt, "readSize")
		trailingNewline := rapid.Bool().Draw(rt, "trailingNewline")

		table := make([][]string, rows)
		lines := make([]string, rows)
		for i := range table {
			fields := make([]string, cols)
			rendered := make([]string, cols)
			for j := range fields {
				fields[j] = cell.Draw(rt, "cell")
				rendered[j] = renderField(fields[j])
			}
			table[i] = fields
			lines[i] = strings.Join(rendered, ",")
		}
		doc := strings.Join(lines, "\n")
		if trailingNewline {
			doc += "\n"
		}
		require.NoError(rt, os.WriteFile(path, []byte(doc), 0o644))

		parse := func(open func(r *Reader) error) [][]string {
			r := New()
			r.SetHeader(false)
			r.SetReadSize(readSize)
			require.NoError(rt, open(r))
			defer r.Close()
			return readTable(rt, r, cols)
		}

		copied := parse(func(r *Reader) error { return r.OpenString(doc, true) })
		borrowed := parse(func(r *Reader) error { return r.OpenString(doc, false) })
		wholeFile := parse(func(r *Reader) error { return r.OpenFile(path, true) })
		streamed := parse(func(r *Reader) error { return r.OpenFile(path, false) })

		require.Equal(rt, table, copied)
		require.Equal(rt, copied, borrowed)
		require.Equal(rt, copied, wholeFile)
		require.Equal(rt, copied, streamed)
	})
}

// Trimming is idempotent: parsing an already-trimmed value changes nothing.
func TestTrimIdempotenceProperty(t *testing.T) {
	t.Parallel()

	raw := rapid.StringMatching(`[ a-z]{0,12}`)

	rapid.Check(t, func(rt *rapid.T) {
		field := raw.Draw(rt, "field")

		r := New()
		r.SetHeader(false)
		r.SetTrim(true)
		require.NoError(rt, r.OpenString(field+"\n", true))
		defer r.Close()

		require.NoError(rt, r.Read())
		got, _ := r.Get(0)

		require.Equal(rt, strings.Trim(field, " "), got)
		require.Equal(rt, got, strings.Trim(got, " "))
	})
}
