package core

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    FileFormat
		wantErr bool
	}{
		{"contatos.csv", FormatCSV, false},
		{"CONTATOS.CSV", FormatCSV, false},
		{"export.txt", FormatCSV, false},
		{"planilha.xlsx", FormatXLSX, false},
		{"antiga.XLS", FormatXLS, false},
		{"relatorio.pdf", "", true},
		{"semextensao", "", true},
		{"planilha.ods", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("error %v is not ErrUnsupportedFormat", err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestDecode_CSV(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		delimiter string
		encoding  string
		headers   []string
		rows      int
		firstName string
	}{
		{
			name:      "semicolon",
			data:      []byte("Nome completo;Telefone;CPF\nMaria Silva;11999990000;12345678901\n"),
			delimiter: ";",
			encoding:  EncodingUTF8,
			headers:   []string{"Nome completo", "Telefone", "CPF"},
			rows:      1,
			firstName: "Maria Silva",
		},
		{
			name:      "comma with quoted field",
			data:      []byte("Nome,Telefone\n\"Silva, Maria\",11999990000\n"),
			delimiter: ",",
			encoding:  EncodingUTF8,
			headers:   []string{"Nome", "Telefone"},
			rows:      1,
			firstName: "Silva, Maria",
		},
		{
			name:      "tab",
			data:      []byte("Nome\tTelefone\nMaria\t11999990000\r\nJoão\t11988887777\r\n"),
			delimiter: "\t",
			encoding:  EncodingUTF8,
			headers:   []string{"Nome", "Telefone"},
			rows:      2,
			firstName: "Maria",
		},
		{
			name:      "utf-8 BOM stripped from first header",
			data:      append([]byte{0xEF, 0xBB, 0xBF}, "Nome;Telefone\nMaria;11999990000\n"...),
			delimiter: ";",
			encoding:  EncodingUTF8,
			headers:   []string{"Nome", "Telefone"},
			rows:      1,
			firstName: "Maria",
		},
		{
			name:      "blank lines skipped",
			data:      []byte("\n\nNome;Telefone\n\nMaria;11999990000\n;\n"),
			delimiter: ";",
			encoding:  EncodingUTF8,
			headers:   []string{"Nome", "Telefone"},
			rows:      1,
			firstName: "Maria",
		},
		{
			name:      "short rows padded",
			data:      []byte("Nome;Telefone;CPF\nMaria\n"),
			delimiter: ";",
			encoding:  EncodingUTF8,
			headers:   []string{"Nome", "Telefone", "CPF"},
			rows:      1,
			firstName: "Maria",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode(tt.data, "contatos.csv")
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if f.Format != FormatCSV {
				t.Errorf("Format = %q, want csv", f.Format)
			}
			if f.Delimiter != tt.delimiter {
				t.Errorf("Delimiter = %q, want %q", f.Delimiter, tt.delimiter)
			}
			if f.Encoding != tt.encoding {
				t.Errorf("Encoding = %q, want %q", f.Encoding, tt.encoding)
			}
			if !equalStrings(f.Headers, tt.headers) {
				t.Errorf("Headers = %q, want %q", f.Headers, tt.headers)
			}
			if len(f.Rows) != tt.rows {
				t.Fatalf("got %d rows, want %d", len(f.Rows), tt.rows)
			}
			if got := f.Rows[0].Get(tt.headers[0]); got != tt.firstName {
				t.Errorf("first cell = %q, want %q", got, tt.firstName)
			}
			for _, h := range tt.headers {
				if _, ok := f.Rows[0].Values[h]; !ok {
					t.Errorf("row missing key %q", h)
				}
			}
		})
	}
}

func TestDecode_Windows1252(t *testing.T) {
	text := "Nome;Cidade;Telefone\nJoão Conceição;São Paulo;11999990000\n"
	legacy, err := charmap.Windows1252.NewEncoder().String(text)
	if err != nil {
		t.Fatal(err)
	}

	f, err := Decode([]byte(legacy), "legado.csv")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if f.Encoding != EncodingWindows1252 {
		t.Errorf("Encoding = %q, want windows-1252", f.Encoding)
	}
	if got := f.Rows[0].Get("Nome"); got != "João Conceição" {
		t.Errorf("Nome = %q, want %q", got, "João Conceição")
	}
	if got := f.Rows[0].Get("Cidade"); got != "São Paulo" {
		t.Errorf("Cidade = %q, want %q", got, "São Paulo")
	}
}

func TestDecode_LineNumbers(t *testing.T) {
	f, err := Decode([]byte("Nome;Telefone\nMaria;1\n\nJoão;2\n"), "contatos.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(f.Rows))
	}
	if f.Rows[0].Line != 2 || f.Rows[1].Line != 4 {
		t.Errorf("lines = %d, %d; want 2, 4", f.Rows[0].Line, f.Rows[1].Line)
	}
}

func TestDecode_HeaderCleanup(t *testing.T) {
	f, err := Decode([]byte("Telefone;;Telefone;=\"CPF\"\n11999990000;x;11988887777;123\n"), "contatos.csv")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Telefone", "Coluna 2", "Telefone (2)", "CPF"}
	if !equalStrings(f.Headers, want) {
		t.Errorf("Headers = %q, want %q", f.Headers, want)
	}
	if got := f.Rows[0].Get("Telefone (2)"); got != "11988887777" {
		t.Errorf("second Telefone = %q", got)
	}
}

func TestDecode_HeaderSuffixAvoidsLiteralHeaders(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{"suffix already used by a literal header", "Nome;Nome (2);Nome;Telefone\nA;B;C;11999990000\n", []string{"Nome", "Nome (2)", "Nome (3)", "Telefone"}},
		{"literal header matching an earlier suffix", "Nome;Nome;Nome (2);Telefone\nA;B;C;11999990000\n", []string{"Nome", "Nome (2)", "Nome (2) (2)", "Telefone"}},
		{"literal header matching a positional name", ";Coluna 1;Telefone\nA;B;11999990000\n", []string{"Coluna 1", "Coluna 1 (2)", "Telefone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode([]byte(tt.csv), "contatos.csv")
			if err != nil {
				t.Fatal(err)
			}
			if !equalStrings(f.Headers, tt.want) {
				t.Errorf("Headers = %q, want %q", f.Headers, tt.want)
			}
			if len(f.Rows[0].Values) != len(f.Headers) {
				t.Errorf("row has %d values for %d headers: %v", len(f.Rows[0].Values), len(f.Headers), f.Rows[0].Values)
			}
		})
	}
}

func TestDecode_XLSX(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	rows := [][]any{
		{"Nome completo", "Celular", "Data de nascimento"},
		{"Maria Silva", "11999990000", "15/03/1985"},
		{"", "", ""},
		{"João Souza", "11988887777", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatal(err)
	}

	f, err := Decode(buf.Bytes(), "planilha.xlsx")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if f.Format != FormatXLSX {
		t.Errorf("Format = %q, want xlsx", f.Format)
	}
	if !equalStrings(f.Headers, []string{"Nome completo", "Celular", "Data de nascimento"}) {
		t.Errorf("Headers = %q", f.Headers)
	}
	if len(f.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(f.Rows))
	}
	if got := f.Rows[1].Get("Nome completo"); got != "João Souza" {
		t.Errorf("second row name = %q", got)
	}
	if f.Rows[1].Line != 4 {
		t.Errorf("second row line = %d, want 4", f.Rows[1].Line)
	}
}

func TestDecode_XLS(t *testing.T) {
	data, err := os.ReadFile("testdata/contatos.xls")
	if err != nil {
		t.Fatal(err)
	}

	f, err := Decode(data, "contatos.xls")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if f.Format != FormatXLS {
		t.Errorf("Format = %q, want xls", f.Format)
	}
	if !equalStrings(f.Headers, []string{"Nome", "Celular", "Cidade"}) {
		t.Errorf("Headers = %q", f.Headers)
	}
	if len(f.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(f.Rows))
	}

	tests := []struct {
		row    int
		line   int
		nome   string
		phone  string
		cidade string
	}{
		{0, 2, "Maria da Conceição", "11 99999-0000", "São Paulo"},
		{1, 4, "João Souza", "21988880000", "Niterói"},
	}
	for _, tt := range tests {
		r := f.Rows[tt.row]
		if r.Line != tt.line {
			t.Errorf("row %d line = %d, want %d", tt.row, r.Line, tt.line)
		}
		if got := r.Get("Nome"); got != tt.nome {
			t.Errorf("row %d Nome = %q, want %q", tt.row, got, tt.nome)
		}
		if got := r.Get("Celular"); got != tt.phone {
			t.Errorf("row %d Celular = %q, want %q", tt.row, got, tt.phone)
		}
		if got := r.Get("Cidade"); got != tt.cidade {
			t.Errorf("row %d Cidade = %q, want %q", tt.row, got, tt.cidade)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		fileName string
		want     error
	}{
		{"unsupported extension", []byte("Nome;Telefone\nMaria;1\n"), "contatos.pdf", ErrUnsupportedFormat},
		{"empty csv", []byte(""), "contatos.csv", ErrEmptyFile},
		{"header only", []byte("Nome;Telefone\n"), "contatos.csv", ErrEmptyFile},
		{"only blank rows", []byte("\n;;\n\n"), "contatos.csv", ErrEmptyFile},
		{"broken xlsx", []byte("definitely not a zip"), "planilha.xlsx", ErrUnparseable},
		{"broken xls", []byte("definitely not BIFF"), "planilha.xls", ErrUnparseable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, tt.fileName)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
