// Package rowreader walks delimiter-separated text one line at a time.
//
// Each line is cut at its first comment byte, split on the delimiter into a
// Row (empty fields kept, no quoting or escaping) and handed to a callback
// together with its 1-based line number. Rows with fewer fields than the
// configured minimum are skipped silently.
//
//	rr := rowreader.NewSemicolon(3)
//	n, err := rr.EachRowFile("tranches.csv", func(row rowreader.Row, line int) {
//		fmt.Printf("line#%d: %s\n", line, strings.Join(row, ";"))
//	})
//
// A Reader is not safe for concurrent use; use one Reader per stream.
package rowreader

import (
	"io"
	"os"

	"github.com/r9s-ai/open-line-parsers/pkg/lineio"
	"github.com/r9s-ai/open-line-parsers/pkg/strutil"
)

// DefaultMaxLineBytes bounds a line when Options.MaxLineBytes is zero.
const DefaultMaxLineBytes = 3 * 1024

// Row is the ordered list of fields of one line.
type Row []string

// Len returns the number of fields.
func (r Row) Len() int { return len(r) }

// Empty reports whether the row has no fields.
func (r Row) Empty() bool { return len(r) == 0 }

// Field returns field i, or "" when i is out of range.
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Clone returns a copy of the row that outlives the callback.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// RowFunc receives every delivered row with its 1-based line number.
type RowFunc func(row Row, line int)

// Options configures a Reader. Values are used as given.
type Options struct {
	Delimiter byte
	Comment   byte
	// MinColumns drops rows with fewer fields. Zero keeps every row.
	MinColumns int
	// MaxLineBytes truncates longer lines. Zero means DefaultMaxLineBytes,
	// a negative value disables the bound.
	MaxLineBytes int
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Reader splits lines into rows according to its Options.
type Reader struct {
	noCopy noCopy

	opts      Options
	line      int
	truncated int
}

// New returns a Reader for opts.
func New(opts Options) *Reader {
	if opts.MaxLineBytes == 0 {
		opts.MaxLineBytes = DefaultMaxLineBytes
	}
	return &Reader{opts: opts}
}

// NewSemicolon returns a Reader for ';'-separated fields with '#' comments.
func NewSemicolon(minColumns int) *Reader {
	return New(Options{Delimiter: ';', Comment: '#', MinColumns: minColumns})
}

// Options returns the reader configuration.
func (r *Reader) Options() Options { return r.opts }

// Line returns the number of the last line read.
func (r *Reader) Line() int { return r.line }

// Truncated returns how many lines of the last pass exceeded MaxLineBytes.
func (r *Reader) Truncated() int { return r.truncated }

// Split turns one line into a row. A line that holds only a comment yields an
// empty row; an empty line yields a single empty field.
func (r *Reader) Split(line string) Row {
	text, commented := strutil.CutComment(line, r.opts.Comment)
	if commented && text == "" {
		return Row{}
	}
	return Row(strutil.Split(text, r.opts.Delimiter))
}

// EachRow reads src to its end, calling fn for every row that meets the
// column threshold. It returns how many rows were delivered and the first
// read error other than io.EOF.
func (r *Reader) EachRow(src io.Reader, fn RowFunc) (int, error) {
	r.line = 0
	r.truncated = 0

	delivered := 0
	s := lineio.NewScanner(src, r.opts.MaxLineBytes)
	for s.Scan() {
		r.line = s.Line()
		if s.Truncated() {
			r.truncated++
		}
		row := r.Split(s.Text())
		if row.Len() < r.opts.MinColumns {
			continue
		}
		if fn != nil {
			fn(row, r.line)
		}
		delivered++
	}
	return delivered, s.Err()
}

// EachRowFile is EachRow over the file at path. The file is closed before
// returning; a file that cannot be opened yields 0 and the open error.
func (r *Reader) EachRowFile(path string, fn RowFunc) (int, error) {
	r.line = 0
	r.truncated = 0
	// #nosec G304 -- path is chosen by the caller.
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = f.Close()
	}()
	return r.EachRow(f, fn)
}
