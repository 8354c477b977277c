package core

// validation.go holds the hard checks applied to transformed records.
//
// Validation happens at two points:
//  1. Transform: tax id and phone shape, then the required-field gate
//  2. Commit: the persistence boundary re-checks the required fields of
//     every record it receives
//
// Errors carry the field, the offending value and a human-readable message.
// Rows keep their errors as display strings so a session can be serialized.

import (
	"fmt"
	"strings"
)

const (
	cpfLength      = 11
	minPhoneDigits = 8
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Canonical field key
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// validateCPF checks a digits-only tax id. Empty is allowed.
func validateCPF(digits string) *ValidationError {
	if digits == "" || len(digits) == cpfLength {
		return nil
	}
	return &ValidationError{
		Field:   string(FieldCPF),
		Value:   digits,
		Message: fmt.Sprintf("CPF must have %d digits (got %d)", cpfLength, len(digits)),
	}
}

// validatePhone checks a digits-only phone. Empty is left to the
// required-field gate.
func validatePhone(digits string) *ValidationError {
	if digits == "" || len(digits) >= minPhoneDigits {
		return nil
	}
	return &ValidationError{
		Field:   string(FieldTelefone),
		Value:   digits,
		Message: fmt.Sprintf("telefone must have at least %d digits (got %d)", minPhoneDigits, len(digits)),
	}
}

// validateRequired is the gate every record must pass: a full name and a
// phone.
func validateRequired(f CandidateFields) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(f.NomeCompleto) == "" {
		errs = append(errs, ValidationError{Field: string(FieldNomeCompleto), Message: "nome completo is required"})
	}
	if strings.TrimSpace(f.Telefone) == "" {
		errs = append(errs, ValidationError{Field: string(FieldTelefone), Message: "telefone is required"})
	}
	return errs
}
