package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MaxCommitBatch is the largest number of records a single commit call
// accepts.
const MaxCommitBatch = 500

// DefaultOrigin marks records created by bulk import.
const DefaultOrigin = "importacao"

var ErrBatchTooLarge = fmt.Errorf("batch exceeds maximum of %d records", MaxCommitBatch)

// RecordInserter persists records, silently skipping any that violate a
// uniqueness constraint, and returns how many were actually written.
type RecordInserter interface {
	InsertMany(ctx context.Context, records []CommitRecord) (int, error)
}

// CommitValidationError lists records rejected at the persistence boundary.
type CommitValidationError struct {
	Problems []string
}

func (e *CommitValidationError) Error() string {
	return fmt.Sprintf("%d invalid record(s): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Gateway is the persistence boundary for committed records.
type Gateway struct {
	inserter RecordInserter
	metrics  *Metrics
}

// NewGateway creates a commit gateway. metrics may be nil.
func NewGateway(inserter RecordInserter, metrics *Metrics) *Gateway {
	return &Gateway{inserter: inserter, metrics: metrics}
}

// Commit persists up to MaxCommitBatch records in one call and returns the
// number inserted, which is lower than len(records) when some collided with
// existing records. Oversized batches and batches with records missing a
// name or phone are rejected before anything is written.
func (g *Gateway) Commit(ctx context.Context, records []CommitRecord) (int, error) {
	if len(records) > MaxCommitBatch {
		return 0, ErrBatchTooLarge
	}
	if len(records) == 0 {
		return 0, nil
	}

	var problems []string
	for i := range records {
		records[i].fillDefaults()
		for _, e := range validateRequired(records[i].CandidateFields) {
			problems = append(problems, fmt.Sprintf("record %d: %s", i+1, e.Message))
		}
	}
	if len(problems) > 0 {
		return 0, &CommitValidationError{Problems: problems}
	}

	n, err := g.inserter.InsertMany(ctx, records)
	g.metrics.ObserveCommit(len(records), n, err)
	if err != nil {
		return 0, fmt.Errorf("insert records: %w", err)
	}
	return n, nil
}

// fillDefaults applies the same fallbacks as Transform to records that did
// not come through it.
func (r *CommitRecord) fillDefaults() {
	r.Telefone = DigitsOnly(r.Telefone)
	r.CPF = DigitsOnly(r.CPF)
	if r.DataNascimento.IsZero() {
		r.DataNascimento = NewDate(DefaultBirthDate)
	}
	if r.Genero == "" {
		r.Genero = GenderNotInformed
	}
	if r.Escolaridade == "" {
		r.Escolaridade = EducationNotInformed
	}
	// Edited rows and API payloads skip Transform; the column holds two
	// characters and one oversized value would fail its whole batch.
	r.UF = NormalizeUF(r.UF)
	r.Cidade = orDefault(r.Cidade, NotInformed)
	r.Bairro = orDefault(r.Bairro, NotInformed)
	if r.Origem == "" {
		r.Origem = DefaultOrigin
	}
}

// ToCommitRecords stamps candidate fields with provenance.
func ToCommitRecords(records []CandidateRecord, operator, origin string) []CommitRecord {
	out := make([]CommitRecord, len(records))
	for i, r := range records {
		out[i] = CommitRecord{
			CandidateFields: r.Fields,
			CriadoPorID:     operator,
			Origem:          origin,
		}
	}
	return out
}

// IsCommitValidation reports whether err is a commit validation failure.
func IsCommitValidation(err error) bool {
	var ve *CommitValidationError
	return errors.As(err, &ve)
}
