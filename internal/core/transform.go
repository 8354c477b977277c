package core

import (
	"strings"

	"github.com/google/uuid"
)

// NotInformed is stored for free-text location fields left blank.
const NotInformed = "Não informado"

// Transform projects a raw row onto the canonical catalog, coerces each
// value and validates the result. It never fails: problems are recorded on
// the returned record, which is valid exactly when it has no errors.
//
// When several headers map to the same field, the first non-empty value in
// header order wins.
func Transform(row RawRow, headers []string, mapping FieldMapping) CandidateRecord {
	values := make(map[FieldKey]string, len(mapping))
	for _, h := range headers {
		key := mapping[h]
		if key == FieldIgnored {
			continue
		}
		v := strings.TrimSpace(row.Get(h))
		if v == "" || values[key] != "" {
			continue
		}
		values[key] = v
	}

	rec := CandidateRecord{
		ID:   uuid.NewString(),
		Line: row.Line,
		Raw:  row,
	}

	var errs []ValidationError
	f := &rec.Fields

	f.NomeCompleto = values[FieldNomeCompleto]
	if f.NomeCompleto == "" && values[FieldPrimeiroNome] != "" {
		f.NomeCompleto = strings.TrimSpace(values[FieldPrimeiroNome] + " " + values[FieldSobrenome])
	}

	f.CPF = DigitsOnly(values[FieldCPF])
	if err := validateCPF(f.CPF); err != nil {
		errs = append(errs, *err)
	}

	f.Telefone = DigitsOnly(values[FieldTelefone])
	if err := validatePhone(f.Telefone); err != nil {
		errs = append(errs, *err)
	}

	birth, _ := ParseBirthDate(values[FieldDataNascimento])
	f.DataNascimento = NewDate(birth)
	f.Genero = ParseGender(values[FieldGenero])
	f.Escolaridade = ParseEducation(values[FieldEscolaridade])
	f.UF = NormalizeUF(values[FieldUF])

	f.Cidade = orDefault(values[FieldCidade], NotInformed)
	f.Bairro = orDefault(values[FieldBairro], NotInformed)

	f.Email = values[FieldEmail]
	f.Endereco = values[FieldEndereco]
	f.Numero = values[FieldNumero]
	f.Complemento = values[FieldComplemento]
	f.CEP = DigitsOnly(values[FieldCEP])
	f.TituloEleitor = DigitsOnly(values[FieldTituloEleitor])
	f.ZonaEleitoral = values[FieldZonaEleitoral]
	f.SecaoEleitoral = values[FieldSecaoEleitoral]
	f.Observacoes = values[FieldObservacoes]

	errs = append(errs, validateRequired(*f)...)

	for _, e := range errs {
		rec.Errors = append(rec.Errors, e.Error())
	}
	rec.IsValid = len(rec.Errors) == 0
	return rec
}

// TransformAll transforms every row in order.
func TransformAll(rows []RawRow, headers []string, mapping FieldMapping) []CandidateRecord {
	out := make([]CandidateRecord, len(rows))
	for i, row := range rows {
		out[i] = Transform(row, headers, mapping)
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
