// Package frame is a small column-oriented table of string cells, read from and
// written to CSV. Numeric views are parsed on demand.
package frame

import (
	"compress/bzip2"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrNoColumn is returned when a named column does not exist.
var ErrNoColumn = errors.New("no such column")

// Frame is a table with named columns. Every row has exactly len(Columns()) cells.
type Frame struct {
	cols  []string
	index map[string]int
	rows  [][]string
}

// New creates an empty frame with the given columns.
func New(cols []string) *Frame {
	f := &Frame{cols: append([]string(nil), cols...)}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.cols))
	for i, c := range f.cols {
		f.index[c] = i
	}
}

// Read parses a CSV stream whose first record is the header.
func Read(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read header: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	f := New(header)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(f.rows)+1, err)
		}
		f.rows = append(f.rows, rec)
	}
	return f, nil
}

// ReadFile reads a CSV file from disk. Files ending in .gz, .bz2 or .zst are
// decompressed on the fly.
func ReadFile(path string) (*Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var src io.Reader = fh
	switch {
	case strings.HasSuffix(path, ".bz2"):
		src = bzip2.NewReader(fh)
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(fh)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		src = dec
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(fh)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	f, err := Read(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Write encodes the frame as CSV with a header row.
func (f *Frame) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.cols); err != nil {
		return err
	}
	if err := cw.WriteAll(f.rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile writes the frame to path, replacing any existing file.
func (f *Frame) WriteFile(path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Write(fh); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}

// Columns returns a copy of the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// Has reports whether the column exists.
func (f *Frame) Has(col string) bool {
	_, ok := f.index[col]
	return ok
}

// Index returns the position of col, or -1.
func (f *Frame) Index(col string) int {
	if i, ok := f.index[col]; ok {
		return i
	}
	return -1
}

// Missing returns the subset of cols that are not in the frame, in the given order.
func (f *Frame) Missing(cols ...string) []string {
	var out []string
	for _, c := range cols {
		if !f.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Row returns row i. The slice aliases the frame's storage.
func (f *Frame) Row(i int) []string { return f.rows[i] }

// Value returns the cell at row i in col, or "" when the column is absent.
func (f *Frame) Value(i int, col string) string {
	j, ok := f.index[col]
	if !ok {
		return ""
	}
	return f.rows[i][j]
}

// Column returns a copy of one column's cells.
func (f *Frame) Column(col string) ([]string, error) {
	j, ok := f.index[col]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, col)
	}
	out := make([]string, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Floats parses one column as float64. Blank and "nan" cells become NaN.
func (f *Frame) Floats(col string) ([]float64, error) {
	j, ok := f.index[col]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, col)
	}
	out := make([]float64, len(f.rows))
	for i, r := range f.rows {
		v, err := ParseFloat(r[j])
		if err != nil {
			return nil, fmt.Errorf("column %s row %d: %w", col, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// SetFloats overwrites an existing column with formatted values.
func (f *Frame) SetFloats(col string, vals []float64) error {
	j, ok := f.index[col]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoColumn, col)
	}
	if len(vals) != len(f.rows) {
		return fmt.Errorf("set %s: %d values for %d rows", col, len(vals), len(f.rows))
	}
	for i, v := range vals {
		f.rows[i][j] = FormatFloat(v)
	}
	return nil
}

// AddColumn appends a column, or replaces its cells when it already exists.
func (f *Frame) AddColumn(col string, vals []string) error {
	if len(vals) != len(f.rows) {
		return fmt.Errorf("add %s: %d values for %d rows", col, len(vals), len(f.rows))
	}
	if j, ok := f.index[col]; ok {
		for i, v := range vals {
			f.rows[i][j] = v
		}
		return nil
	}
	f.cols = append(f.cols, col)
	f.index[col] = len(f.cols) - 1
	for i, v := range vals {
		f.rows[i] = append(f.rows[i], v)
	}
	return nil
}

// AppendRow adds a row. The cell count must match the column count.
func (f *Frame) AppendRow(cells []string) error {
	if len(cells) != len(f.cols) {
		return fmt.Errorf("append row: %d cells for %d columns", len(cells), len(f.cols))
	}
	f.rows = append(f.rows, append([]string(nil), cells...))
	return nil
}

// ReplaceValues rewrites exact cell matches in one column.
func (f *Frame) ReplaceValues(col string, repl map[string]string) error {
	j, ok := f.index[col]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoColumn, col)
	}
	for _, r := range f.rows {
		if v, ok := repl[r[j]]; ok {
			r[j] = v
		}
	}
	return nil
}

// SortBy stably sorts rows by the given columns, ascending. Cells that parse as
// numbers compare numerically; blanks sort last.
func (f *Frame) SortBy(cols ...string) error {
	idx := make([]int, len(cols))
	for k, c := range cols {
		j, ok := f.index[c]
		if !ok {
			return fmt.Errorf("sort: %w: %s", ErrNoColumn, c)
		}
		idx[k] = j
	}
	sort.SliceStable(f.rows, func(a, b int) bool {
		for _, j := range idx {
			if c := compareCells(f.rows[a][j], f.rows[b][j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return nil
}

// EncodeCategories replaces each column's values with integer category codes:
// distinct non-blank values are ordered and numbered from 0, blanks become -1.
func (f *Frame) EncodeCategories(cols ...string) error {
	for _, c := range cols {
		j, ok := f.index[c]
		if !ok {
			return fmt.Errorf("encode: %w: %s", ErrNoColumn, c)
		}
		seen := make(map[string]struct{})
		for _, r := range f.rows {
			if !isBlank(r[j]) {
				seen[r[j]] = struct{}{}
			}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Slice(cats, func(a, b int) bool { return compareCells(cats[a], cats[b]) < 0 })
		codes := make(map[string]string, len(cats))
		for i, v := range cats {
			codes[v] = strconv.Itoa(i)
		}
		for _, r := range f.rows {
			if code, ok := codes[r[j]]; ok {
				r[j] = code
			} else {
				r[j] = "-1"
			}
		}
	}
	return nil
}

// DropUnnamed removes pandas index columns ("Unnamed: 0" and friends).
func (f *Frame) DropUnnamed() {
	keep := make([]int, 0, len(f.cols))
	for i, c := range f.cols {
		if !strings.HasPrefix(c, "Unnamed") {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(f.cols) {
		return
	}
	cols := make([]string, len(keep))
	for k, i := range keep {
		cols[k] = f.cols[i]
	}
	for ri, r := range f.rows {
		nr := make([]string, len(keep))
		for k, i := range keep {
			nr[k] = r[i]
		}
		f.rows[ri] = nr
	}
	f.cols = cols
	f.reindex()
}

// Filter returns a new frame holding copies of the rows for which keep is true.
func (f *Frame) Filter(keep func(i int) bool) *Frame {
	out := New(f.cols)
	for i, r := range f.rows {
		if keep(i) {
			out.rows = append(out.rows, append([]string(nil), r...))
		}
	}
	return out
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	return f.Filter(func(int) bool { return true })
}

// ParseFloat parses a cell. Blank, "nan" and "null" become NaN; "inf" variants
// become infinities; "True"/"False" become 1/0.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "<na>":
		return math.NaN(), nil
	case "inf", "+inf", "infinity", "+infinity":
		return math.Inf(1), nil
	case "-inf", "-infinity":
		return math.Inf(-1), nil
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// FormatFloat renders a value the way pandas writes it: integers without a
// fractional part, NaN as a blank cell.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func isBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "null", "none", "<na>":
		return true
	}
	return false
}

func compareCells(a, b string) int {
	ab, bb := isBlank(a), isBlank(b)
	switch {
	case ab && bb:
		return 0
	case ab:
		return 1
	case bb:
		return -1
	}
	af, aerr := strconv.ParseFloat(strings.TrimSpace(a), 64)
	bf, berr := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
