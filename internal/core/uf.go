package core

import "strings"

// DefaultUF is stored when a row carries no state.
const DefaultUF = "SP"

// ufByName maps normalized Brazilian state names to their 2-letter codes.
var ufByName = map[string]string{
	"acre":             "AC",
	"alagoas":          "AL",
	"amapa":            "AP",
	"amazonas":         "AM",
	"bahia":            "BA",
	"ceara":            "CE",
	"distritofederal":  "DF",
	"espiritosanto":    "ES",
	"goias":            "GO",
	"maranhao":         "MA",
	"matogrosso":       "MT",
	"matogrossodosul":  "MS",
	"minasgerais":      "MG",
	"para":             "PA",
	"paraiba":          "PB",
	"parana":           "PR",
	"pernambuco":       "PE",
	"piaui":            "PI",
	"riodejaneiro":     "RJ",
	"riograndedonorte": "RN",
	"riograndedosul":   "RS",
	"rondonia":         "RO",
	"roraima":          "RR",
	"santacatarina":    "SC",
	"saopaulo":         "SP",
	"sergipe":          "SE",
	"tocantins":        "TO",
}

// NormalizeUF converts a state name or code to its 2-letter code.
// Empty input yields DefaultUF; unrecognized text is upper-cased and
// truncated to two characters.
func NormalizeUF(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultUF
	}

	if code, ok := ufByName[Normalize(s)]; ok {
		return code
	}

	upper := []rune(strings.ToUpper(s))
	if len(upper) > 2 {
		upper = upper[:2]
	}
	return string(upper)
}
