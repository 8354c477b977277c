package core

// decode.go turns an uploaded file into a header list and raw rows.
//
// Delimited text is read as UTF-8, UTF-16 or Windows-1252 (see decodeText).
// Spreadsheets (.xlsx, .xls) are read from their first sheet.
//
// Both paths produce the same shape: trimmed, unique headers from the first
// row, and one RawRow per non-empty data row.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyFile         = errors.New("file has no data rows")
	ErrUnparseable       = errors.New("unparseable file")
)

// FileFormat identifies how a file was decoded.
type FileFormat string

const (
	FormatCSV  FileFormat = "csv"
	FormatXLSX FileFormat = "xlsx"
	FormatXLS  FileFormat = "xls"
)

// delimiterCandidates are counted on the first line; ties go to the earlier
// candidate.
var delimiterCandidates = []rune{',', ';', '\t'}

// DecodedFile is the decoder's output.
type DecodedFile struct {
	Format    FileFormat `json:"format"`
	Encoding  string     `json:"encoding,omitempty"`
	Delimiter string     `json:"delimiter,omitempty"`
	Headers   []string   `json:"headers"`
	Rows      []RawRow   `json:"-"`
}

// DetectFormat maps a file name to a supported format by extension.
func DetectFormat(fileName string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %q (accepted: .csv, .xlsx, .xls)", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

// Decode parses file contents according to the file name's extension.
// Unsupported extensions are rejected before any parsing.
func Decode(data []byte, fileName string) (*DecodedFile, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	var records [][]string
	var lines []int
	out := &DecodedFile{Format: format}

	switch format {
	case FormatCSV:
		records, lines, err = decodeDelimited(data, out)
	case FormatXLSX:
		records, err = readXLSX(data)
	case FormatXLS:
		records, err = readXLS(data)
	}
	if err != nil {
		return nil, err
	}

	return buildRows(out, records, lines)
}

// decodeDelimited reads delimited text, filling in encoding and delimiter.
func decodeDelimited(data []byte, out *DecodedFile) ([][]string, []int, error) {
	text, encoding := decodeText(data)
	out.Encoding = encoding

	delim := detectDelimiter(text)
	out.Delimiter = string(delim)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	var lines []int
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
		line, _ := r.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return records, lines, nil
}

// detectDelimiter picks the most frequent candidate on the first non-blank
// line.
func detectDelimiter(text string) rune {
	first := ""
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			first = line
			break
		}
	}

	best, bestCount := delimiterCandidates[0], 0
	for _, c := range delimiterCandidates {
		if n := strings.Count(first, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnparseable, sheets[0], err)
	}
	return rows, nil
}

func readXLS(data []byte) (records [][]string, err error) {
	// The legacy BIFF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("%w: %v", ErrUnparseable, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptyFile
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyFile
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		records = append(records, cells)
	}
	return records, nil
}

// sheetRow returns nil for a row index the sheet holds no record for.
// WorkSheet.Row dereferences the missing row instead.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// buildRows turns the header record and data records into RawRows. lines
// holds source line numbers for delimited text; spreadsheets use row
// positions.
func buildRows(out *DecodedFile, records [][]string, lines []int) (*DecodedFile, error) {
	start := -1
	for i, rec := range records {
		if !isEmptyRow(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrEmptyFile
	}

	out.Headers = uniqueHeaders(records[start])

	for i := start + 1; i < len(records); i++ {
		rec := records[i]
		if isEmptyRow(rec) {
			continue
		}

		line := i + 1
		if lines != nil {
			line = lines[i]
		}

		values := make(map[string]string, len(out.Headers))
		for j, h := range out.Headers {
			if j < len(rec) {
				values[h] = strings.TrimSpace(rec[j])
			} else {
				values[h] = ""
			}
		}
		out.Rows = append(out.Rows, RawRow{Line: line, Values: values})
	}

	if len(out.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return out, nil
}

// uniqueHeaders cleans header cells, names blank ones by position and
// suffixes repeats so every header is a distinct key. A suffix never reuses
// a name already taken, whether by an earlier literal header or by an
// earlier suffix.
func uniqueHeaders(rec []string) []string {
	headers := make([]string, len(rec))
	taken := make(map[string]bool, len(rec))
	for i, h := range rec {
		h = CleanCell(h)
		if h == "" {
			h = "Coluna " + strconv.Itoa(i+1)
		}
		name := h
		for n := 2; taken[name]; n++ {
			name = h + " (" + strconv.Itoa(n) + ")"
		}
		taken[name] = true
		headers[i] = name
	}
	return headers
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
