// Package store persists voter records in PostgreSQL.
//
// It implements the two persistence ports of the import service:
// core.DuplicateFinder for the batched pre-commit lookup and
// core.RecordInserter for the conflict-skipping insert.
package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/eleitores/internal/core"
)

//go:embed schema.sql
var Schema string

const findDuplicatesSQL = `
SELECT id::text, nome_completo, COALESCE(cpf, ''), telefone,
       COALESCE(email, ''), cidade, uf
FROM eleitores
WHERE cpf = ANY($1) OR telefone = ANY($2)
ORDER BY id`

const insertEleitorSQL = `
INSERT INTO eleitores (
    nome_completo, telefone, cpf, email, data_nascimento, genero, escolaridade,
    endereco, numero, complemento, bairro, cidade, uf, cep,
    titulo_eleitor, zona_eleitoral, secao_eleitoral, observacoes,
    origem, criado_por_id
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
    $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
)
ON CONFLICT DO NOTHING`

// Store is the pgx-backed voter repository.
type Store struct {
	db core.DBTX
}

// New creates a Store over a pool or transaction.
func New(db core.DBTX) *Store {
	return &Store{db: db}
}

// Migrate creates the eleitores table and its indexes when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// FindDuplicates returns every stored record whose tax id or phone is in the
// given sets, ordered by id. It issues exactly one query.
func (s *Store) FindDuplicates(ctx context.Context, cpfs, telefones []string) ([]core.DuplicateRef, error) {
	if cpfs == nil {
		cpfs = []string{}
	}
	if telefones == nil {
		telefones = []string{}
	}

	rows, err := s.db.Query(ctx, findDuplicatesSQL, cpfs, telefones)
	if err != nil {
		return nil, fmt.Errorf("query duplicates: %w", err)
	}
	defer rows.Close()

	var refs []core.DuplicateRef
	for rows.Next() {
		var r core.DuplicateRef
		if err := rows.Scan(&r.ID, &r.NomeCompleto, &r.CPF, &r.Telefone, &r.Email, &r.Cidade, &r.UF); err != nil {
			return nil, fmt.Errorf("scan duplicate: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read duplicates: %w", err)
	}
	return refs, nil
}

// InsertMany queues one conflict-skipping insert per record in a single
// batch round trip and returns the number of rows written.
func (s *Store) InsertMany(ctx context.Context, records []core.CommitRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(insertEleitorSQL, insertArgs(r)...)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for i := range records {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert record %d: %w", i+1, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func insertArgs(r core.CommitRecord) []any {
	return []any{
		r.NomeCompleto,
		r.Telefone,
		core.ToPgText(r.CPF),
		core.ToPgText(r.Email),
		core.ToPgDate(r.DataNascimento),
		string(r.Genero),
		string(r.Escolaridade),
		core.ToPgText(r.Endereco),
		core.ToPgText(r.Numero),
		core.ToPgText(r.Complemento),
		r.Bairro,
		r.Cidade,
		r.UF,
		core.ToPgText(r.CEP),
		core.ToPgText(r.TituloEleitor),
		core.ToPgText(r.ZonaEleitoral),
		core.ToPgText(r.SecaoEleitoral),
		core.ToPgText(r.Observacoes),
		r.Origem,
		core.ToPgText(r.CriadoPorID),
	}
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM eleitores").Scan(&n); err != nil {
		return 0, fmt.Errorf("count eleitores: %w", err)
	}
	return n, nil
}

// Reset deletes every stored record.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "TRUNCATE eleitores"); err != nil {
		return fmt.Errorf("reset eleitores: %w", err)
	}
	return nil
}
