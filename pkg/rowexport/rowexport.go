// Package rowexport turns delimited rows into an Arrow table and writes it
// out as Parquet, CSV or JSON.
package rowexport

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/r9s-ai/open-line-parsers/pkg/rowreader"
	"github.com/r9s-ai/open-line-parsers/pkg/strutil"
)

// LineColumn is the name of the column holding source line numbers.
const LineColumn = "line"

// Record is one delivered row together with its source line.
type Record struct {
	Line   int      `json:"line" yaml:"line"`
	Fields []string `json:"fields" yaml:"fields"`
}

// Collect reads every row rr delivers from src.
func Collect(rr *rowreader.Reader, src io.Reader) ([]Record, error) {
	var recs []Record
	_, err := rr.EachRow(src, func(row rowreader.Row, line int) {
		recs = append(recs, Record{Line: line, Fields: row.Clone()})
	})
	return recs, err
}

// CollectFile is Collect over the file at path.
func CollectFile(rr *rowreader.Reader, path string) ([]Record, error) {
	var recs []Record
	_, err := rr.EachRowFile(path, func(row rowreader.Row, line int) {
		recs = append(recs, Record{Line: line, Fields: row.Clone()})
	})
	return recs, err
}

// Width returns the number of fields of the widest record.
func Width(recs []Record) int {
	n := 0
	for _, r := range recs {
		if len(r.Fields) > n {
			n = len(r.Fields)
		}
	}
	return n
}

// ColumnName returns the name of the i-th (0-based) field column.
func ColumnName(i int) string {
	return "col_" + strconv.Itoa(i+1)
}

// Schema returns the table schema for rows of the given width.
func Schema(width int) *arrow.Schema {
	fields := make([]arrow.Field, 0, width+1)
	fields = append(fields, arrow.Field{Name: LineColumn, Type: arrow.PrimitiveTypes.Int64})
	for i := 0; i < width; i++ {
		fields = append(fields, arrow.Field{Name: ColumnName(i), Type: arrow.BinaryTypes.String, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

// BuildTable converts recs into a table with one int64 line column followed by
// one utf8 column per field. Rows shorter than the widest one are padded with
// nulls. The caller releases the table.
func BuildTable(mem memory.Allocator, recs []Record) arrow.Table {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	width := Width(recs)
	schema := Schema(width)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Reserve(len(recs))

	lines := b.Field(0).(*array.Int64Builder)
	for _, r := range recs {
		lines.Append(int64(r.Line))
		for i := 0; i < width; i++ {
			col := b.Field(i + 1).(*array.StringBuilder)
			if i < len(r.Fields) {
				col.Append(r.Fields[i])
			} else {
				col.AppendNull()
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrow.Record{rec})
}

// WriteParquet writes recs as a snappy-compressed Parquet file carrying the
// Arrow schema.
func WriteParquet(w io.Writer, recs []Record) error {
	table := BuildTable(memory.NewGoAllocator(), recs)
	defer table.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(table.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	if err := writer.WriteTable(table, max(table.NumRows(), 1)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write parquet table: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteCSV writes a header row followed by one row per record. Missing fields
// are written as empty cells.
func WriteCSV(w io.Writer, recs []Record) error {
	table := BuildTable(memory.NewGoAllocator(), recs)
	defer table.Release()

	cw := csv.NewWriter(w)
	schema := table.Schema()
	headers := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		headers[i] = f.Name
	}
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	err := eachRow(table, func(rec arrow.Record, row int) error {
		out := make([]string, rec.NumCols())
		for i, col := range rec.Columns() {
			out[i] = formatValue(col, row)
		}
		return cw.Write(out)
	})
	if err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes an indented array of objects keyed by column name. Missing
// fields are omitted from their object.
func WriteJSON(w io.Writer, recs []Record) error {
	table := BuildTable(memory.NewGoAllocator(), recs)
	defer table.Release()

	schema := table.Schema()
	objects := make([]map[string]any, 0, len(recs))
	err := eachRow(table, func(rec arrow.Record, row int) error {
		obj := make(map[string]any, rec.NumCols())
		for i, col := range rec.Columns() {
			if col.IsNull(row) {
				continue
			}
			obj[schema.Field(i).Name] = typedValue(col, row)
		}
		objects = append(objects, obj)
		return nil
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(objects); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func eachRow(table arrow.Table, fn func(rec arrow.Record, row int) error) error {
	tr := array.NewTableReader(table, max(table.NumRows(), 1))
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		for i := 0; i < int(rec.NumRows()); i++ {
			if err := fn(rec, i); err != nil {
				return err
			}
		}
	}
	if err := tr.Err(); err != nil {
		return fmt.Errorf("read table: %w", err)
	}
	return nil
}

func formatValue(col arrow.Array, pos int) string {
	if col.IsNull(pos) {
		return ""
	}
	switch c := col.(type) {
	case *array.String:
		return c.Value(pos)
	case *array.Int64:
		return strconv.FormatInt(c.Value(pos), 10)
	default:
		return col.ValueStr(pos)
	}
}

func typedValue(col arrow.Array, pos int) any {
	switch c := col.(type) {
	case *array.String:
		return c.Value(pos)
	case *array.Int64:
		return c.Value(pos)
	default:
		return col.ValueStr(pos)
	}
}

// Format is an export file format.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
)

// ErrUnknownFormat is returned for format names that are not supported.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatParquet, FormatCSV, FormatJSON:
		return f, nil
	case "pq":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath infers the format from the file extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := strutil.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// DefaultPath names the export of src in format f: the file name stem made
// safe with strutil.SafeName, next to src.
//
//	DefaultPath("data/my rows.csv", FormatParquet) == "data/my_rows.parquet"
func DefaultPath(src string, f Format) string {
	dir := strutil.Dir(src)
	prefix := ""
	if n := len(dir); n < len(src) && (src[n] == '/' || src[n] == '\\') {
		prefix = src[:n+1]
	} else if n == len(src) {
		prefix = src
	}
	base := src[len(prefix):]
	stem := base
	if ext := strutil.Ext(base); ext != "" {
		stem = base[:len(base)-len(ext)-1]
	}
	if stem == "" {
		stem = "rows"
	}
	return prefix + strutil.SafeName(stem) + "." + string(f)
}

// Write writes recs to w in format f.
func Write(w io.Writer, f Format, recs []Record) error {
	switch f {
	case FormatParquet:
		return WriteParquet(w, recs)
	case FormatCSV:
		return WriteCSV(w, recs)
	case FormatJSON:
		return WriteJSON(w, recs)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// ExportFile writes recs to a new file at path. An empty format is inferred
// from the extension.
func ExportFile(path string, f Format, recs []Record) error {
	if f == "" {
		var err error
		if f, err = FormatFromPath(path); err != nil {
			return err
		}
	}
	// #nosec G304 -- path is chosen by the caller.
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	werr := Write(out, f, recs)
	// the parquet writer may already have closed the file.
	cerr := out.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil && !errors.Is(cerr, os.ErrClosed) {
		return cerr
	}
	return nil
}
