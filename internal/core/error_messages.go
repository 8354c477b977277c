package core

// Operator-facing error messages.
//
// Every error that reaches the UI or the CLI is reduced to a UserMessage
// carrying a short code the operator can quote to support:
//
//	FILE0xx  upload and decoding        MAP0xx  column mapping
//	VAL0xx   record validation          IMP0xx  import workflow
//	DUP001   duplicate lookup failed    DB0xx   database
//	RATE001  rate limited               ERR000  anything else
//
// Classification runs in two passes. Errors produced by this package are
// matched by identity (errors.Is / errors.As) and Postgres errors by
// SQLSTATE, so wrapping never changes the code. Text from drivers and
// other packages is then matched case-insensitively against patterns, in
// rule order.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorRule maps one class of error to its message. match is tried in the
// first pass, patterns in the second.
type errorRule struct {
	msg      UserMessage
	match    func(error) bool
	patterns []string
}

func errIs(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

func errAs[T error]() func(error) bool {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

func sqlState(codes ...string) func(error) bool {
	return func(err error) bool {
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) {
			return false
		}
		for _, c := range codes {
			if pgErr.Code == c {
				return true
			}
		}
		return false
	}
}

// ErrDuplicateCheck wraps failures of the lookup against existing voters.
// It outranks whatever transport error it carries.
var ErrDuplicateCheck = errors.New("duplicate check")

var errorRules = []errorRule{
	{
		msg:      UserMessage{"Could not check for existing voters", "Rows were not compared with existing records. Run the check again before committing", "DUP001"},
		match:    errIs(ErrDuplicateCheck),
		patterns: []string{"duplicate check"},
	},
	{
		msg:      UserMessage{fmt.Sprintf("Too many records in one request (maximum %d)", MaxCommitBatch), "Send the records in smaller batches", "IMP001"},
		match:    errIs(ErrBatchTooLarge),
		patterns: []string{"batch exceeds maximum"},
	},
	{
		msg:      UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "IMP002"},
		match:    errIs(ErrTooManyImports),
		patterns: []string{"too many concurrent imports"},
	},
	{
		msg:      UserMessage{"Import session not found", "The session may have expired. Please upload the file again", "IMP003"},
		match:    errIs(ErrSessionNotFound),
		patterns: []string{"import session not found"},
	},
	{
		msg:      UserMessage{"This step is not available yet", "Confirm the column mapping and generate the preview first", "IMP004"},
		match:    errIs(ErrWrongPhase),
		patterns: []string{"not in the required phase"},
	},
	{
		msg:      UserMessage{"Row not found in this import", "Refresh the preview", "IMP005"},
		match:    errIs(ErrRecordNotFound),
		patterns: []string{"record not found"},
	},
	{
		msg:      UserMessage{"This row is not a duplicate", "Only rows flagged as duplicates can be accepted", "IMP006"},
		match:    errIs(ErrNotDuplicate),
		patterns: []string{"not flagged as duplicate"},
	},
	{
		msg:      UserMessage{"File exceeds the maximum upload size", "Split the file into smaller files", "FILE001"},
		patterns: []string{"file too large", "request body too large"},
	},
	{
		msg:      UserMessage{"File format not supported", "Upload a .csv, .xlsx or .xls file", "FILE002"},
		match:    errIs(ErrUnsupportedFormat),
		patterns: []string{"unsupported format"},
	},
	{
		msg:      UserMessage{"The file could not be read", "Open it in a spreadsheet program and save it again as .xlsx or .csv", "FILE003"},
		match:    errIs(ErrUnparseable),
		patterns: []string{"unparseable file"},
	},
	{
		msg:      UserMessage{"No file was selected", "Please select a file to upload", "FILE004"},
		patterns: []string{"no file provided"},
	},
	{
		msg:      UserMessage{"The uploaded file is empty", "Please upload a file with a header row and data rows", "FILE005"},
		match:    errIs(ErrEmptyFile),
		patterns: []string{"file has no data rows"},
	},
	{
		msg:      UserMessage{"Required columns are not mapped", "Map a column to Nome completo (or Primeiro nome and Sobrenome) and one to Telefone", "MAP001"},
		match:    errAs[*MappingError](),
		patterns: []string{"mapping incomplete"},
	},
	{
		msg:      UserMessage{"Column not found in the file", "Choose one of the columns listed for this file", "MAP002"},
		match:    errIs(ErrUnknownHeader),
		patterns: []string{"unknown source column"},
	},
	{
		msg:      UserMessage{"Unknown destination field", "Choose a field from the list", "MAP003"},
		match:    errIs(ErrUnknownField),
		patterns: []string{"unknown destination field"},
	},
	{
		msg:      UserMessage{"Some records are missing required fields", "Every record needs a full name and a phone", "VAL003"},
		match:    errAs[*CommitValidationError](),
		patterns: []string{"invalid record(s)"},
	},
	{
		msg:      UserMessage{"Invalid CPF", "CPF must have 11 digits", "VAL001"},
		patterns: []string{"cpf must have"},
	},
	{
		msg:      UserMessage{"Invalid phone number", "Phone numbers need at least 8 digits", "VAL002"},
		patterns: []string{"telefone must have"},
	},
	{
		msg:      UserMessage{"Required field is empty", "Fill in the name and phone of every row", "VAL004"},
		patterns: []string{"is required"},
	},
	{
		msg:      UserMessage{"Request was cancelled", "Please try again", "IMP007"},
		match:    errIs(context.Canceled),
		patterns: []string{"context canceled"},
	},
	{
		msg:      UserMessage{"Request timed out", "Try a smaller file or check your connection", "IMP008"},
		match:    errIs(context.DeadlineExceeded),
		patterns: []string{"context deadline exceeded"},
	},
	{
		msg:      UserMessage{"A record with this CPF already exists", "Review the duplicates tab", "DB001"},
		match:    sqlState("23505"),
		patterns: []string{"duplicate key", "violates unique", "unique constraint"},
	},
	{
		msg:      UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"},
		match:    sqlState("40P01", "40001"),
		patterns: []string{"deadlock"},
	},
	{
		msg:      UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"},
		patterns: []string{"connection refused", "failed to connect"},
	},
	{
		msg:      UserMessage{"Database connection was interrupted", "Please try again", "DB005"},
		patterns: []string{"connection reset", "broken pipe", "unexpected eof"},
	},
	{
		msg:      UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"},
		match:    sqlState("57014"),
		patterns: []string{"timeout"},
	},
	{
		msg:      UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"},
		patterns: []string{"rate limit"},
	},
}

// defaultMessage is returned when no rule matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. A nil
// error yields the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, r := range errorRules {
		if r.match != nil && r.match(err) {
			return r.msg
		}
	}

	text := strings.ToLower(err.Error())
	for _, r := range errorRules {
		for _, p := range r.patterns {
			if strings.Contains(text, p) {
				return r.msg
			}
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than
// ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logs, with the message shown
// to the operator.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
