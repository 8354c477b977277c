package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("import session not found")
	ErrRecordNotFound  = errors.New("record not found")
	ErrWrongPhase      = errors.New("import session is not in the required phase")
	ErrNotDuplicate    = errors.New("record is not flagged as duplicate")
)

// ImportSession is the working state of one import, from upload to commit.
// It is a plain value: the service loads it from a session store, applies
// one command and saves it back.
type ImportSession struct {
	ID       string       `json:"id"`
	FileName string       `json:"fileName"`
	Operator string       `json:"operator,omitempty"`
	Phase    SessionPhase `json:"phase"`

	File    DecodedFile  `json:"file"`
	Rows    []RawRow     `json:"rows"`
	Mapping FieldMapping `json:"mapping"`

	Records             []CandidateRecord `json:"records,omitempty"`
	DuplicateCheckError string            `json:"duplicateCheckError,omitempty"`

	// Committed counts records persisted by earlier, partially failed
	// commits of this session.
	Committed int `json:"committed"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewImportSession creates a session in the mapping phase with the
// auto-detected mapping applied.
func NewImportSession(fileName, operator string, file *DecodedFile) *ImportSession {
	now := time.Now().UTC()
	header := *file
	header.Rows = nil
	return &ImportSession{
		ID:        uuid.NewString(),
		FileName:  fileName,
		Operator:  operator,
		Phase:     PhaseMapping,
		File:      header,
		Rows:      file.Rows,
		Mapping:   AutoMap(file.Headers),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Headers returns the source headers in file order.
func (s *ImportSession) Headers() []string {
	return s.File.Headers
}

func (s *ImportSession) touch() {
	s.UpdatedAt = time.Now().UTC()
}

func (s *ImportSession) requirePhase(p SessionPhase) error {
	if s.Phase != p {
		return fmt.Errorf("%w: %s (current: %s)", ErrWrongPhase, p, s.Phase)
	}
	return nil
}

// SetMapping applies user overrides to the current mapping. Changing the
// mapping discards any previous preview.
func (s *ImportSession) SetMapping(overrides map[string]FieldKey) error {
	m, err := ApplyOverrides(s.Mapping, overrides)
	if err != nil {
		return err
	}
	s.Mapping = m
	s.Phase = PhaseMapping
	s.Records = nil
	s.DuplicateCheckError = ""
	s.touch()
	return nil
}

// BuildRecords validates the mapping and transforms every row, moving the
// session to the preview phase. Duplicate flags are left to the caller.
func (s *ImportSession) BuildRecords() error {
	if err := ValidateCoverage(s.Mapping); err != nil {
		return err
	}
	s.Records = TransformAll(s.Rows, s.Headers(), s.Mapping)
	s.Phase = PhasePreview
	s.DuplicateCheckError = ""
	s.touch()
	return nil
}

func (s *ImportSession) indexOf(id string) int {
	for i := range s.Records {
		if s.Records[i].ID == id {
			return i
		}
	}
	return -1
}

// Record returns a copy of the record with the given id.
func (s *ImportSession) Record(id string) (CandidateRecord, error) {
	i := s.indexOf(id)
	if i < 0 {
		return CandidateRecord{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return s.Records[i], nil
}

// EditRecord replaces a record's fields with user-edited values. Edits are
// authoritative: errors are cleared and the record becomes valid without
// re-running coercion. The duplicate flag is kept until the next recheck.
func (s *ImportSession) EditRecord(id string, fields CandidateFields) error {
	if err := s.requirePhase(PhasePreview); err != nil {
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	s.Records[i].Fields = fields
	s.Records[i].Errors = nil
	s.Records[i].IsValid = true
	s.touch()
	return nil
}

// RemoveRecord drops a record from the session. It cannot be undone.
func (s *ImportSession) RemoveRecord(id string) error {
	if err := s.requirePhase(PhasePreview); err != nil {
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	s.Records = append(s.Records[:i], s.Records[i+1:]...)
	s.touch()
	return nil
}

// AcceptDuplicate clears a record's duplicate flag so it is committed
// anyway. The store's conflict handling still applies.
func (s *ImportSession) AcceptDuplicate(id string) error {
	if err := s.requirePhase(PhasePreview); err != nil {
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if !s.Records[i].IsDuplicate {
		return fmt.Errorf("%w: %s", ErrNotDuplicate, id)
	}
	s.Records[i].IsDuplicate = false
	s.Records[i].DuplicateOf = nil
	s.touch()
	return nil
}

// Ready returns valid records with no duplicate conflict.
func (s *ImportSession) Ready() []CandidateRecord {
	return s.filter(func(r CandidateRecord) bool { return r.IsValid && !r.IsDuplicate })
}

// Duplicates returns valid records that collide with existing ones.
func (s *ImportSession) Duplicates() []CandidateRecord {
	return s.filter(func(r CandidateRecord) bool { return r.IsValid && r.IsDuplicate })
}

// Invalid returns records with validation errors.
func (s *ImportSession) Invalid() []CandidateRecord {
	return s.filter(func(r CandidateRecord) bool { return !r.IsValid })
}

// Counts returns the review counters.
func (s *ImportSession) Counts() SessionCounts {
	c := SessionCounts{Total: len(s.Records)}
	for _, r := range s.Records {
		switch {
		case !r.IsValid:
			c.Invalid++
		case r.IsDuplicate:
			c.Duplicates++
		default:
			c.Ready++
		}
	}
	return c
}

func (s *ImportSession) filter(keep func(CandidateRecord) bool) []CandidateRecord {
	var out []CandidateRecord
	for _, r := range s.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// dropRecords removes the records with the given ids.
func (s *ImportSession) dropRecords(ids map[string]bool) {
	kept := s.Records[:0]
	for _, r := range s.Records {
		if !ids[r.ID] {
			kept = append(kept, r)
		}
	}
	s.Records = kept
	s.touch()
}
