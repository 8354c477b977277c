package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// mojibakeReplacer repairs UTF-8 text that was decoded as Windows-1252 once
// ("SÃ£o" for "São"). Keys are the mis-decoded sequences, case-sensitive:
// lowercasing first would merge "ÃŠ" (Ê) with "Ãš" (Ú).
var mojibakeReplacer = strings.NewReplacer(
	// lowercase sources
	"Ã¡", "a", "Ã\u00a0", "a", "Ã¢", "a", "Ã£", "a", "Ã¤", "a",
	"Ã§", "c",
	"Ã©", "e", "Ã¨", "e", "Ãª", "e", "Ã«", "e",
	"Ã\u00ad", "i", "Ã¬", "i", "Ã®", "i", "Ã¯", "i",
	"Ã³", "o", "Ã²", "o", "Ã´", "o", "Ãµ", "o", "Ã¶", "o",
	"Ãº", "u", "Ã¹", "u", "Ã»", "u", "Ã¼", "u",
	"Ã±", "n",
	// uppercase sources
	"Ã\u0081", "A", "Ã€", "A", "Ã‚", "A", "Ãƒ", "A", "Ã„", "A",
	"Ã‡", "C",
	"Ã‰", "E", "Ãˆ", "E", "ÃŠ", "E", "Ã‹", "E",
	"Ã\u008d", "I", "ÃŒ", "I", "ÃŽ", "I", "Ã\u008f", "I",
	"Ã“", "O", "Ã’", "O", "Ã”", "O", "Ã•", "O", "Ã–", "O",
	"Ãš", "U", "Ã™", "U", "Ã›", "U", "Ãœ", "U",
	"Ã‘", "N",
	// ordinal indicators and non-breaking space
	"Âº", "o", "Âª", "a", "Â°", "o", "Â\u00a0", " ",
)

// stripMarks removes combining marks after canonical decomposition.
// Transformers carry state, so each call builds its own chain.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Normalize reduces text to a comparison token made only of [a-z0-9_].
//
// Mis-decoded accent sequences are repaired, the text is lowercased and
// trimmed, diacritics are stripped and every remaining character outside
// the token alphabet is dropped. Normalize never fails and is idempotent,
// which lets headers and enumeration values be compared regardless of
// case, accents or encoding damage:
//
//	Normalize("Nome Completo") == "nomecompleto"
//	Normalize("SÃ£o Paulo")    == "saopaulo"
func Normalize(s string) string {
	s = mojibakeReplacer.Replace(strings.TrimSpace(s))
	s = strings.ToLower(s)

	if stripped, _, err := transform.String(stripMarks(), s); err == nil {
		s = stripped
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DigitsOnly strips every non-digit character.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
