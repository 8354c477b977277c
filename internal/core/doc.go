// Package core provides the business logic for voter bulk imports.
//
// This package is the heart of the importer, containing all domain logic
// independent of any transport. It is used by the web handlers and the
// eleitorctl CLI without modification.
//
// # Pipeline
//
// An import moves through a fixed sequence of stages:
//
//  1. [Decode] turns .csv, .xlsx or .xls bytes into headers and [RawRow]s
//  2. [AutoMap] proposes a [FieldMapping] from the synonym table, the user
//     adjusts it with [ApplyOverrides], and [ValidateCoverage] gates it
//  3. [Transform] coerces and validates each row into a [CandidateRecord]
//  4. [Reconciler.Reconcile] flags rows that collide with persisted records
//     using a single batched lookup
//  5. The [ImportSession] holds the staged review: edits, removals and
//     accepted duplicates
//  6. [Gateway.Commit] persists at most [MaxCommitBatch] records per call,
//     skipping conflicts, and returns the number inserted
//
// [Service] wires the stages to a [SessionStore], a [DuplicateFinder] and a
// [RecordInserter].
//
// # Text Normalization
//
// Headers and enumeration values are compared through [Normalize], which
// repairs common mis-decoded accents, strips diacritics and keeps only
// [a-z0-9_]. Free-text fields such as city and neighborhood are stored as
// typed.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE005: File errors (size, format, parsing)
//   - MAP001-MAP003: Column mapping errors
//   - VAL001-VAL004: Row and commit validation errors
//   - IMP001-IMP008: Import workflow errors (batch size, sessions, busy)
//   - DUP001: Duplicate lookup failures
//   - DB001-DB007: Database errors
package core
