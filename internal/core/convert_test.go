package core

import (
	"encoding/json"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseBirthDate Tests
// ----------------------------------------------------------------------------

func TestParseBirthDate(t *testing.T) {
	want := time.Date(1985, time.March, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		// Accepted layouts
		{name: "day/month/year", input: "15/03/1985", want: want, wantOK: true},
		{name: "day-month-year", input: "15-03-1985", want: want, wantOK: true},
		{name: "iso", input: "1985-03-15", want: want, wantOK: true},
		{name: "surrounding whitespace", input: "  15/03/1985 ", want: want, wantOK: true},
		{name: "spreadsheet time suffix", input: "15/03/1985 00:00:00", want: want, wantOK: true},
		{name: "iso timestamp", input: "1985-03-15T10:30:00Z", want: want, wantOK: true},

		// Fallback to the default date
		{name: "empty", input: "", want: DefaultBirthDate},
		{name: "garbage", input: "ontem", want: DefaultBirthDate},
		{name: "impossible day", input: "31/02/1985", want: DefaultBirthDate},
		{name: "month/day/year is not accepted", input: "03/15/1985", want: DefaultBirthDate},
		{name: "two digit year", input: "15/03/85", want: DefaultBirthDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseBirthDate(tt.input)
			if ok != tt.wantOK {
				t.Errorf("ParseBirthDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseBirthDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Date JSON Tests
// ----------------------------------------------------------------------------

func TestDate_JSON(t *testing.T) {
	t.Run("marshal", func(t *testing.T) {
		b, err := json.Marshal(NewDate(time.Date(1985, time.March, 15, 0, 0, 0, 0, time.UTC)))
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != `"1985-03-15"` {
			t.Errorf("got %s, want \"1985-03-15\"", b)
		}
	})

	t.Run("zero marshals to null", func(t *testing.T) {
		b, err := json.Marshal(Date{})
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != "null" {
			t.Errorf("got %s, want null", b)
		}
	})

	tests := []struct {
		name     string
		input    string
		want     time.Time
		wantZero bool
		wantErr  bool
	}{
		{name: "iso", input: `"1985-03-15"`, want: time.Date(1985, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "brazilian", input: `"15/03/1985"`, want: time.Date(1985, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "null", input: `null`, wantZero: true},
		{name: "empty", input: `""`, wantZero: true},
		{name: "invalid", input: `"ontem"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run("unmarshal "+tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantZero {
				if !d.IsZero() {
					t.Errorf("Unmarshal(%s) = %v, want zero", tt.input, d)
				}
				return
			}
			if !d.Equal(tt.want) {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, d.Time, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// pgtype Conversion Tests
// ----------------------------------------------------------------------------

func TestToPgText(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantValid  bool
		wantString string
	}{
		{name: "simple string", input: "Centro", wantValid: true, wantString: "Centro"},
		{name: "trimmed", input: "  Vila Mariana ", wantValid: true, wantString: "Vila Mariana"},
		{name: "accents preserved", input: "São Paulo", wantValid: true, wantString: "São Paulo"},
		{name: "empty", input: "", wantValid: false},
		{name: "only whitespace", input: " \t\n", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToPgText(tt.input)
			if result.Valid != tt.wantValid {
				t.Fatalf("ToPgText(%q).Valid = %v, want %v", tt.input, result.Valid, tt.wantValid)
			}
			if tt.wantValid && result.String != tt.wantString {
				t.Errorf("ToPgText(%q).String = %q, want %q", tt.input, result.String, tt.wantString)
			}
		})
	}
}

func TestToPgDate(t *testing.T) {
	if ToPgDate(Date{}).Valid {
		t.Error("zero date should be invalid")
	}

	d := ToPgDate(NewDate(DefaultBirthDate))
	if !d.Valid || !d.Time.Equal(DefaultBirthDate) {
		t.Errorf("ToPgDate(default) = %+v", d)
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "unchanged", input: "Telefone", want: "Telefone"},
		{name: "whitespace", input: "  Telefone  ", want: "Telefone"},
		{name: "excel text formula", input: `="11999990000"`, want: "11999990000"},
		{name: "bare formula prefix", input: "=CPF", want: "CPF"},
		{name: "double quotes", input: `"Nome"`, want: "Nome"},
		{name: "single quotes", input: "'Nome'", want: "Nome"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Enumeration Tests
// ----------------------------------------------------------------------------

func TestParseGender(t *testing.T) {
	tests := []struct {
		input string
		want  Gender
	}{
		{"M", GenderMale},
		{"Masculino", GenderMale},
		{"feminino", GenderFemale},
		{"F", GenderFemale},
		{"Não binário", GenderOther},
		{"outro", GenderOther},
		{"", GenderNotInformed},
		{"prefiro não dizer", GenderNotInformed},
	}

	for _, tt := range tests {
		if got := ParseGender(tt.input); got != tt.want {
			t.Errorf("ParseGender(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseEducation(t *testing.T) {
	tests := []struct {
		input string
		want  Education
	}{
		{"Ensino Médio Completo", EducationHighSchool},
		{"médio incompleto", EducationHighSchoolIncomplete},
		{"SUPERIOR_COMPLETO", EducationCollege},
		{"Pós-graduação", EducationPostgraduate},
		{"Fundamental", EducationElementary},
		{"", EducationNotInformed},
		{"analfabeto", EducationNotInformed},
	}

	for _, tt := range tests {
		if got := ParseEducation(tt.input); got != tt.want {
			t.Errorf("ParseEducation(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeUF(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "SP"},
		{"rj", "RJ"},
		{"Minas Gerais", "MG"},
		{"São Paulo", "SP"},
		{"SÃ£o Paulo", "SP"},
		{"Rio Grande do Sul", "RS"},
		{"xyz", "XY"},
	}

	for _, tt := range tests {
		if got := NormalizeUF(tt.input); got != tt.want {
			t.Errorf("NormalizeUF(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
