package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

// Gender is the stored gender enumeration.
type Gender string

const (
	GenderMale        Gender = "MASCULINO"
	GenderFemale      Gender = "FEMININO"
	GenderOther       Gender = "OUTRO"
	GenderNotInformed Gender = "NAO_INFORMADO"
)

// Education is the stored schooling-level enumeration.
type Education string

const (
	EducationElementaryIncomplete Education = "FUNDAMENTAL_INCOMPLETO"
	EducationElementary           Education = "FUNDAMENTAL_COMPLETO"
	EducationHighSchoolIncomplete Education = "MEDIO_INCOMPLETO"
	EducationHighSchool           Education = "MEDIO_COMPLETO"
	EducationCollegeIncomplete    Education = "SUPERIOR_INCOMPLETO"
	EducationCollege              Education = "SUPERIOR_COMPLETO"
	EducationPostgraduate         Education = "POS_GRADUACAO"
	EducationNotInformed          Education = "NAO_INFORMADO"
)

// RawRow is one decoded data row keyed by source header.
type RawRow struct {
	Line   int               `json:"line"`
	Values map[string]string `json:"values"`
}

// Get returns the raw value for a header, or "" when the row has no such cell.
func (r RawRow) Get(header string) string {
	return r.Values[header]
}

// CandidateFields is the typed, normalized projection of a row onto the
// canonical catalog. JSON names match the eleitores wire format.
type CandidateFields struct {
	NomeCompleto   string    `json:"nomeCompleto"`
	Telefone       string    `json:"telefone"`
	CPF            string    `json:"cpf,omitempty"`
	Email          string    `json:"email,omitempty"`
	DataNascimento Date      `json:"dataNascimento"`
	Genero         Gender    `json:"genero"`
	Escolaridade   Education `json:"escolaridade"`
	Endereco       string    `json:"endereco,omitempty"`
	Numero         string    `json:"numero,omitempty"`
	Complemento    string    `json:"complemento,omitempty"`
	Bairro         string    `json:"bairro"`
	Cidade         string    `json:"cidade"`
	UF             string    `json:"uf"`
	CEP            string    `json:"cep,omitempty"`
	TituloEleitor  string    `json:"tituloEleitor,omitempty"`
	ZonaEleitoral  string    `json:"zonaEleitoral,omitempty"`
	SecaoEleitoral string    `json:"secaoEleitoral,omitempty"`
	Observacoes    string    `json:"observacoes,omitempty"`
}

// DuplicateRef is the projection of an existing record that a candidate
// collided with.
type DuplicateRef struct {
	ID           string `json:"id"`
	NomeCompleto string `json:"nomeCompleto"`
	CPF          string `json:"cpf,omitempty"`
	Telefone     string `json:"telefone,omitempty"`
	Email        string `json:"email,omitempty"`
	Cidade       string `json:"cidade,omitempty"`
	UF           string `json:"uf,omitempty"`
}

// CandidateRecord is a transformed row awaiting review.
type CandidateRecord struct {
	ID          string          `json:"id"`
	Line        int             `json:"line"`
	Raw         RawRow          `json:"raw"`
	Fields      CandidateFields `json:"fields"`
	IsValid     bool            `json:"isValid"`
	Errors      []string        `json:"errors,omitempty"`
	IsDuplicate bool            `json:"isDuplicate"`
	DuplicateOf *DuplicateRef   `json:"duplicateOf,omitempty"`
}

// Eligible reports whether the record would be sent on commit.
func (c CandidateRecord) Eligible() bool {
	return c.IsValid && !c.IsDuplicate
}

// CommitRecord is a candidate's fields plus the provenance stamped at commit.
type CommitRecord struct {
	CandidateFields
	CriadoPorID string `json:"criadoPorId"`
	Origem      string `json:"origem"`
}

// SessionPhase indicates the stage an import session has reached.
type SessionPhase string

const (
	PhaseMapping SessionPhase = "mapping"
	PhasePreview SessionPhase = "preview"
)

// SessionCounts are the derived review counters of a session.
type SessionCounts struct {
	Total      int `json:"total"`
	Ready      int `json:"ready"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
}

// CommitResult is the outcome of committing a session.
type CommitResult struct {
	SessionID string        `json:"sessionId"`
	Sent      int           `json:"sent"`
	Inserted  int           `json:"count"`
	Batches   int           `json:"batches"`
	Duration  time.Duration `json:"duration"`
}
