package core

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encodings reported for delimited text.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16       = "utf-16"
	EncodingWindows1252 = "windows-1252"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// decodeText returns raw as a string along with the encoding it was read in.
//
// A byte order mark decides the encoding when present: Excel writes a UTF-8
// BOM for "CSV UTF-8" and UTF-16LE for "Unicode Text". Without one, valid
// UTF-8 is taken as is and anything else is read as Windows-1252, the
// encoding of legacy Excel CSV exports on Brazilian machines.
func decodeText(raw []byte) (string, string) {
	switch {
	case bytes.HasPrefix(raw, utf8BOM):
		raw = raw[len(utf8BOM):]
	case bytes.HasPrefix(raw, utf16LEBOM), bytes.HasPrefix(raw, utf16BEBOM):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		if text, err := dec.Bytes(raw); err == nil {
			return string(text), EncodingUTF16
		}
	}

	if utf8.Valid(raw) {
		return string(raw), EncodingUTF8
	}
	text, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD"), EncodingUTF8
	}
	return string(text), EncodingWindows1252
}
