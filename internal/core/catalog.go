package core

import "sort"

// FieldKey identifies a canonical destination field.
type FieldKey string

// Canonical field keys. The empty key marks an ignored source column.
const (
	FieldIgnored        FieldKey = ""
	FieldNomeCompleto   FieldKey = "nomeCompleto"
	FieldPrimeiroNome   FieldKey = "primeiroNome"
	FieldSobrenome      FieldKey = "sobrenome"
	FieldTelefone       FieldKey = "telefone"
	FieldCPF            FieldKey = "cpf"
	FieldEmail          FieldKey = "email"
	FieldDataNascimento FieldKey = "dataNascimento"
	FieldGenero         FieldKey = "genero"
	FieldEscolaridade   FieldKey = "escolaridade"
	FieldEndereco       FieldKey = "endereco"
	FieldNumero         FieldKey = "numero"
	FieldComplemento    FieldKey = "complemento"
	FieldBairro         FieldKey = "bairro"
	FieldCidade         FieldKey = "cidade"
	FieldUF             FieldKey = "uf"
	FieldCEP            FieldKey = "cep"
	FieldTituloEleitor  FieldKey = "tituloEleitor"
	FieldZonaEleitoral  FieldKey = "zonaEleitoral"
	FieldSecaoEleitoral FieldKey = "secaoEleitoral"
	FieldObservacoes    FieldKey = "observacoes"
)

// CanonicalField describes one destination field of the catalog.
type CanonicalField struct {
	Key      FieldKey `json:"key"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
}

// catalog is the fixed destination schema, in display order.
var catalog = []CanonicalField{
	{Key: FieldNomeCompleto, Label: "Nome completo", Required: true},
	{Key: FieldPrimeiroNome, Label: "Primeiro nome"},
	{Key: FieldSobrenome, Label: "Sobrenome"},
	{Key: FieldTelefone, Label: "Telefone", Required: true},
	{Key: FieldCPF, Label: "CPF"},
	{Key: FieldEmail, Label: "E-mail"},
	{Key: FieldDataNascimento, Label: "Data de nascimento"},
	{Key: FieldGenero, Label: "Gênero"},
	{Key: FieldEscolaridade, Label: "Escolaridade"},
	{Key: FieldEndereco, Label: "Endereço"},
	{Key: FieldNumero, Label: "Número"},
	{Key: FieldComplemento, Label: "Complemento"},
	{Key: FieldBairro, Label: "Bairro"},
	{Key: FieldCidade, Label: "Cidade"},
	{Key: FieldUF, Label: "UF"},
	{Key: FieldCEP, Label: "CEP"},
	{Key: FieldTituloEleitor, Label: "Título de eleitor"},
	{Key: FieldZonaEleitoral, Label: "Zona eleitoral"},
	{Key: FieldSecaoEleitoral, Label: "Seção eleitoral"},
	{Key: FieldObservacoes, Label: "Observações"},
}

var catalogIndex = func() map[FieldKey]CanonicalField {
	idx := make(map[FieldKey]CanonicalField, len(catalog))
	for _, f := range catalog {
		idx[f.Key] = f
	}
	return idx
}()

// Catalog returns the canonical fields in display order.
func Catalog() []CanonicalField {
	out := make([]CanonicalField, len(catalog))
	copy(out, catalog)
	return out
}

// LookupField returns a canonical field by key.
// Returns false if the key is not part of the catalog.
func LookupField(key FieldKey) (CanonicalField, bool) {
	f, ok := catalogIndex[key]
	return f, ok
}

// synonyms maps normalized header tokens to canonical fields.
// Tokens must already be in Normalize form.
var synonyms = map[string]FieldKey{
	// full name
	"nomecompleto":  FieldNomeCompleto,
	"nome_completo": FieldNomeCompleto,
	"nome":          FieldNomeCompleto,
	"nomeeleitor":   FieldNomeCompleto,
	"eleitor":       FieldNomeCompleto,
	"fullname":      FieldNomeCompleto,
	"full_name":     FieldNomeCompleto,
	"name":          FieldNomeCompleto,

	// name parts
	"primeironome":  FieldPrimeiroNome,
	"primeiro_nome": FieldPrimeiroNome,
	"prenome":       FieldPrimeiroNome,
	"firstname":     FieldPrimeiroNome,
	"first_name":    FieldPrimeiroNome,
	"sobrenome":     FieldSobrenome,
	"ultimonome":    FieldSobrenome,
	"ultimo_nome":   FieldSobrenome,
	"lastname":      FieldSobrenome,
	"last_name":     FieldSobrenome,
	"surname":       FieldSobrenome,

	// phone
	"telefone":  FieldTelefone,
	"fone":      FieldTelefone,
	"tel":       FieldTelefone,
	"celular":   FieldTelefone,
	"whatsapp":  FieldTelefone,
	"whats":     FieldTelefone,
	"zap":       FieldTelefone,
	"contato":   FieldTelefone,
	"phone":     FieldTelefone,
	"mobile":    FieldTelefone,
	"telefone1": FieldTelefone,

	// tax id
	"cpf":       FieldCPF,
	"documento": FieldCPF,
	"doc":       FieldCPF,
	"taxid":     FieldCPF,
	"tax_id":    FieldCPF,

	// email
	"email":   FieldEmail,
	"e_mail":  FieldEmail,
	"mail":    FieldEmail,
	"correio": FieldEmail,

	// birth date
	"datanascimento":   FieldDataNascimento,
	"data_nascimento":  FieldDataNascimento,
	"datadenascimento": FieldDataNascimento,
	"nascimento":       FieldDataNascimento,
	"dtnasc":           FieldDataNascimento,
	"dt_nasc":          FieldDataNascimento,
	"aniversario":      FieldDataNascimento,
	"birthdate":        FieldDataNascimento,
	"birthday":         FieldDataNascimento,

	// gender
	"genero": FieldGenero,
	"sexo":   FieldGenero,
	"gender": FieldGenero,

	// schooling
	"escolaridade":    FieldEscolaridade,
	"instrucao":       FieldEscolaridade,
	"grauinstrucao":   FieldEscolaridade,
	"grau_instrucao":  FieldEscolaridade,
	"graudeinstrucao": FieldEscolaridade,
	"education":       FieldEscolaridade,

	// address
	"endereco":     FieldEndereco,
	"logradouro":   FieldEndereco,
	"rua":          FieldEndereco,
	"address":      FieldEndereco,
	"numero":       FieldNumero,
	"num":          FieldNumero,
	"nro":          FieldNumero,
	"complemento":  FieldComplemento,
	"compl":        FieldComplemento,
	"bairro":       FieldBairro,
	"distrito":     FieldBairro,
	"cidade":       FieldCidade,
	"municipio":    FieldCidade,
	"city":         FieldCidade,
	"uf":           FieldUF,
	"estado":       FieldUF,
	"state":        FieldUF,
	"cep":          FieldCEP,
	"codigopostal": FieldCEP,
	"zipcode":      FieldCEP,
	"zip":          FieldCEP,

	// electoral
	"tituloeleitor":   FieldTituloEleitor,
	"titulo_eleitor":  FieldTituloEleitor,
	"titulodeeleitor": FieldTituloEleitor,
	"titulo":          FieldTituloEleitor,
	"zona":            FieldZonaEleitoral,
	"zonaeleitoral":   FieldZonaEleitoral,
	"zona_eleitoral":  FieldZonaEleitoral,
	"secao":           FieldSecaoEleitoral,
	"secaoeleitoral":  FieldSecaoEleitoral,
	"secao_eleitoral": FieldSecaoEleitoral,

	// notes
	"observacoes": FieldObservacoes,
	"observacao":  FieldObservacoes,
	"obs":         FieldObservacoes,
	"notas":       FieldObservacoes,
	"notes":       FieldObservacoes,
}

// synonymTokens lists the synonym tokens ordered for containment matching:
// longer tokens first, ties alphabetical.
var synonymTokens = func() []string {
	tokens := make([]string, 0, len(synonyms))
	for tok := range synonyms {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
	return tokens
}()
