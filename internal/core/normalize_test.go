package core

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Telefone", "telefone"},
		{"spaces removed", "Nome Completo", "nomecompleto"},
		{"accents stripped", "Data de Nascimento", "datadenascimento"},
		{"cedilla and tilde", "Endereço São João", "enderecosaojoao"},
		{"mojibake repaired", "SÃ£o Paulo", "saopaulo"},
		{"mojibake cedilla", "EndereÃ§o", "endereco"},
		{"uppercase mojibake", "SEÃ‡ÃƒO", "secao"},
		{"underscore kept", "nome_completo", "nome_completo"},
		{"punctuation dropped", "E-mail:", "email"},
		{"digits kept", "Telefone 2", "telefone2"},
		{"ordinal indicator", "NÂº", "no"},
		{"trimmed", "  CPF  ", "cpf"},
		{"empty", "", ""},
		{"only symbols", "---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Nome Completo", "SÃ£o Paulo", "Endereço", "E-mail", "Título de Eleitor",
		"ZONA_ELEITORAL", "  Ãš  ", "Â", "ç", "nº 12",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"(11) 99999-0000", "11999990000"},
		{"123.456.789-01", "12345678901"},
		{"+55 11 98888 7777", "5511988887777"},
		{"abc", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DigitsOnly(tt.input); got != tt.want {
			t.Errorf("DigitsOnly(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
