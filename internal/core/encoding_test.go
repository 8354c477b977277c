package core

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestDecodeText(t *testing.T) {
	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("Nome\tCidade\nJoão\tSão Paulo\n")
	if err != nil {
		t.Fatal(err)
	}
	utf16be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String("Nome\n")
	if err != nil {
		t.Fatal(err)
	}
	cp1252, err := charmap.Windows1252.NewEncoder().String("Município;Conceição")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		input    []byte
		want     string
		encoding string
	}{
		{"plain utf-8", []byte("Nome;Telefone"), "Nome;Telefone", EncodingUTF8},
		{"utf-8 BOM stripped", append([]byte{0xEF, 0xBB, 0xBF}, "Nome;Telefone"...), "Nome;Telefone", EncodingUTF8},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, "", EncodingUTF8},
		{"empty", []byte{}, "", EncodingUTF8},
		{"utf-16le with BOM", []byte(utf16le), "Nome\tCidade\nJoão\tSão Paulo\n", EncodingUTF16},
		{"utf-16be with BOM", []byte(utf16be), "Nome\n", EncodingUTF16},
		{"windows-1252", []byte(cp1252), "Município;Conceição", EncodingWindows1252},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enc := decodeText(tt.input)
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if enc != tt.encoding {
				t.Errorf("encoding = %q, want %q", enc, tt.encoding)
			}
		})
	}
}

func TestDecode_UTF16TabSeparated(t *testing.T) {
	data, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("Nome completo\tTelefone\r\nJoão Souza\t11988887777\r\n")
	if err != nil {
		t.Fatal(err)
	}

	file, err := Decode([]byte(data), "contatos.txt")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if file.Encoding != EncodingUTF16 || file.Delimiter != "\t" {
		t.Errorf("encoding = %q, delimiter = %q", file.Encoding, file.Delimiter)
	}
	if len(file.Rows) != 1 || file.Rows[0].Values["Nome completo"] != "João Souza" {
		t.Errorf("rows = %+v", file.Rows)
	}
}
