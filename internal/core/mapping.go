package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// minContainmentLen is the shortest token or header considered for
// containment matching.
const minContainmentLen = 3

var (
	ErrUnknownHeader = errors.New("unknown source column")
	ErrUnknownField  = errors.New("unknown destination field")
)

// FieldMapping maps a source header to a canonical field key.
// FieldIgnored (or a missing entry) means the column is not imported.
type FieldMapping map[string]FieldKey

// Clone returns an independent copy of the mapping.
func (m FieldMapping) Clone() FieldMapping {
	out := make(FieldMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Has reports whether any header is mapped to the field.
func (m FieldMapping) Has(key FieldKey) bool {
	for _, v := range m {
		if v == key {
			return true
		}
	}
	return false
}

// MatchKind says which rule resolved a header.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchContains  MatchKind = "contains"
	MatchContained MatchKind = "contained"
	MatchNone      MatchKind = "none"
)

// Suggestion is the auto-mapping outcome for one header.
type Suggestion struct {
	Header     string    `json:"header"`
	Normalized string    `json:"normalized"`
	Field      FieldKey  `json:"field"`
	Match      MatchKind `json:"match"`
	Token      string    `json:"token,omitempty"`
}

// mappingRule resolves a normalized header, returning the matched synonym
// token. Rules are evaluated in order and the first hit wins.
type mappingRule struct {
	kind  MatchKind
	match func(normalized string) (token string, ok bool)
}

var mappingRules = []mappingRule{
	{kind: MatchExact, match: matchExact},
	{kind: MatchContains, match: matchContains},
	{kind: MatchContained, match: matchContained},
}

func matchExact(h string) (string, bool) {
	_, ok := synonyms[h]
	return h, ok
}

// matchContains finds synonym tokens inside the header. The earliest
// occurrence wins, then the longer token.
func matchContains(h string) (string, bool) {
	if len(h) < minContainmentLen {
		return "", false
	}
	best, bestPos := "", -1
	for _, tok := range synonymTokens {
		if len(tok) < minContainmentLen {
			continue
		}
		pos := strings.Index(h, tok)
		if pos < 0 {
			continue
		}
		// synonymTokens is length-descending, so only a strictly earlier
		// position can displace the current best.
		if bestPos < 0 || pos < bestPos {
			best, bestPos = tok, pos
		}
	}
	return best, bestPos >= 0
}

// matchContained finds synonym tokens that contain the whole header,
// preferring the shortest one.
func matchContained(h string) (string, bool) {
	if len(h) < minContainmentLen {
		return "", false
	}
	for i := len(synonymTokens) - 1; i >= 0; i-- {
		tok := synonymTokens[i]
		if len(tok) >= minContainmentLen && strings.Contains(tok, h) {
			return tok, true
		}
	}
	return "", false
}

// Suggest resolves a single header against the synonym table.
func Suggest(header string) Suggestion {
	n := Normalize(header)
	s := Suggestion{Header: header, Normalized: n, Match: MatchNone}
	if n == "" {
		return s
	}
	for _, rule := range mappingRules {
		if tok, ok := rule.match(n); ok {
			s.Field = synonyms[tok]
			s.Match = rule.kind
			s.Token = tok
			return s
		}
	}
	return s
}

// Suggestions resolves every header, in header order.
func Suggestions(headers []string) []Suggestion {
	out := make([]Suggestion, len(headers))
	for i, h := range headers {
		out[i] = Suggest(h)
	}
	return out
}

// AutoMap proposes a mapping for the given headers. Each header is resolved
// on its own, so the result does not depend on column order.
func AutoMap(headers []string) FieldMapping {
	m := make(FieldMapping, len(headers))
	for _, h := range headers {
		m[h] = Suggest(h).Field
	}
	return m
}

// ApplyOverrides returns a copy of mapping with the user's explicit choices
// applied. An empty field key ignores the header.
func ApplyOverrides(mapping FieldMapping, overrides map[string]FieldKey) (FieldMapping, error) {
	out := mapping.Clone()
	for header, key := range overrides {
		if _, ok := mapping[header]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownHeader, header)
		}
		if key != FieldIgnored {
			if _, ok := LookupField(key); !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
			}
		}
		out[header] = key
	}
	return out, nil
}

// MappingError reports the coverage requirements a mapping fails.
type MappingError struct {
	Missing []string
}

func (e *MappingError) Error() string {
	return "mapping incomplete: " + strings.Join(e.Missing, "; ")
}

// ValidateCoverage checks that a mapping can produce valid records: a full
// name (or first and last name) and a phone must be mapped.
func ValidateCoverage(mapping FieldMapping) error {
	var missing []string

	hasName := mapping.Has(FieldNomeCompleto) ||
		(mapping.Has(FieldPrimeiroNome) && mapping.Has(FieldSobrenome))
	if !hasName {
		missing = append(missing, "map a column to Nome completo, or to both Primeiro nome and Sobrenome")
	}
	if !mapping.Has(FieldTelefone) {
		missing = append(missing, "map a column to Telefone")
	}

	if len(missing) > 0 {
		return &MappingError{Missing: missing}
	}
	return nil
}

// MappedHeaders returns the headers mapped to a field, sorted by their
// position in headers.
func MappedHeaders(mapping FieldMapping, headers []string, key FieldKey) []string {
	var out []string
	for _, h := range headers {
		if mapping[h] == key {
			out = append(out, h)
		}
	}
	return out
}

// mappedFields returns the distinct fields a mapping targets, sorted.
func mappedFields(mapping FieldMapping) []FieldKey {
	seen := make(map[FieldKey]bool)
	for _, v := range mapping {
		if v != FieldIgnored {
			seen[v] = true
		}
	}
	out := make([]FieldKey, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
