package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/eleitores/internal/logging"
)

// SessionStore keeps import sessions between requests. Load returns
// ErrSessionNotFound for unknown or expired ids.
type SessionStore interface {
	Save(ctx context.Context, s *ImportSession) error
	Load(ctx context.Context, id string) (*ImportSession, error)
	Delete(ctx context.Context, id string) error
}

// ServiceConfig holds the tunables of the import service.
type ServiceConfig struct {
	Origin          string        // origem stamped on committed records
	CommitBatchSize int           // records per gateway call, at most MaxCommitBatch
	MaxConcurrent   int           // parallel decode/transform slots
	MaxWaitTime     time.Duration // wait for a slot before ErrTooManyImports
}

// Service orchestrates import sessions: decode, map, preview, review and
// commit. It holds no session state itself.
type Service struct {
	sessions   SessionStore
	finder     DuplicateFinder
	reconciler *Reconciler
	gateway    *Gateway
	limiter    *ImportLimiter
	metrics    *Metrics
	cfg        ServiceConfig
}

// NewService creates a Service. metrics may be nil.
func NewService(sessions SessionStore, finder DuplicateFinder, inserter RecordInserter, cfg ServiceConfig, metrics *Metrics) *Service {
	if cfg.Origin == "" {
		cfg.Origin = DefaultOrigin
	}
	if cfg.CommitBatchSize <= 0 || cfg.CommitBatchSize > MaxCommitBatch {
		cfg.CommitBatchSize = MaxCommitBatch
	}
	return &Service{
		sessions:   sessions,
		finder:     finder,
		reconciler: NewReconciler(finder, metrics),
		gateway:    NewGateway(inserter, metrics),
		limiter:    NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		metrics:    metrics,
		cfg:        cfg,
	}
}

// StartSession decodes an uploaded file and creates a session with the
// auto-detected mapping. Format errors create no session.
func (s *Service) StartSession(ctx context.Context, fileName string, data []byte) (*ImportSession, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	file, err := Decode(data, fileName)
	if err != nil {
		return nil, err
	}

	sess := NewImportSession(fileName, OperatorFromContext(ctx), file)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.metrics.IncSessionStarted()

	logging.WithFields(ctx, "session_id", sess.ID, "file", fileName).Info("import session started",
		"format", file.Format,
		"encoding", file.Encoding,
		"headers", len(file.Headers),
		"rows", len(sess.Rows),
		"mapped_fields", len(mappedFields(sess.Mapping)),
	)
	return sess, nil
}

// Session returns a stored session.
func (s *Service) Session(ctx context.Context, id string) (*ImportSession, error) {
	return s.sessions.Load(ctx, id)
}

// UpdateMapping applies user overrides and saves the session. The returned
// error is a *MappingError when the saved mapping still lacks coverage.
func (s *Service) UpdateMapping(ctx context.Context, id string, overrides map[string]FieldKey) (*ImportSession, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetMapping(overrides); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, ValidateCoverage(sess.Mapping)
}

// Preview transforms every row with the current mapping and reconciles the
// result against persisted records. A failed duplicate lookup does not fail
// the preview; it is reported on the session instead.
func (s *Service) Preview(ctx context.Context, id string) (*Preview, error) {
	start := time.Now()

	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	err = sess.BuildRecords()
	s.limiter.Release()
	if err != nil {
		return nil, err
	}

	s.reconcile(ctx, sess)

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	counts := sess.Counts()
	s.metrics.ObserveRows(counts)
	logging.WithFields(ctx, "session_id", sess.ID).Info("import preview built",
		"total", counts.Total,
		"ready", counts.Ready,
		"duplicates", counts.Duplicates,
		"invalid", counts.Invalid,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return BuildPreview(sess, time.Since(start)), nil
}

// RecheckDuplicates re-runs reconciliation, e.g. after edits changed tax
// ids or phones, or after a failed lookup.
func (s *Service) RecheckDuplicates(ctx context.Context, id string) (*Preview, error) {
	start := time.Now()

	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.requirePhase(PhasePreview); err != nil {
		return nil, err
	}

	s.reconcile(ctx, sess)
	sess.touch()

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return BuildPreview(sess, time.Since(start)), nil
}

func (s *Service) reconcile(ctx context.Context, sess *ImportSession) {
	sess.DuplicateCheckError = ""
	if err := s.reconciler.Reconcile(ctx, sess.Records); err != nil {
		logging.WithFields(ctx, "session_id", sess.ID).Warn("duplicate check failed, continuing without duplicate flags",
			"error", err,
		)
		sess.DuplicateCheckError = FormatUserError(err)
	}
}

// EditRecord replaces the fields of one record.
func (s *Service) EditRecord(ctx context.Context, id, recordID string, fields CandidateFields) (*ImportSession, error) {
	return s.mutate(ctx, id, func(sess *ImportSession) error {
		return sess.EditRecord(recordID, fields)
	})
}

// RemoveRecord drops one record from the session.
func (s *Service) RemoveRecord(ctx context.Context, id, recordID string) (*ImportSession, error) {
	return s.mutate(ctx, id, func(sess *ImportSession) error {
		return sess.RemoveRecord(recordID)
	})
}

// AcceptDuplicate overrides the duplicate flag of one record.
func (s *Service) AcceptDuplicate(ctx context.Context, id, recordID string) (*ImportSession, error) {
	return s.mutate(ctx, id, func(sess *ImportSession) error {
		return sess.AcceptDuplicate(recordID)
	})
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*ImportSession) error) (*ImportSession, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Commit sends every eligible record through the gateway in batches of at
// most CommitBatchSize and destroys the session once all batches succeed.
//
// When a batch fails, records from the batches already sent leave the
// session, the session is kept, and the partial result is returned with the
// error so the operator can retry the rest.
func (s *Service) Commit(ctx context.Context, id string) (*CommitResult, error) {
	start := time.Now()

	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.requirePhase(PhasePreview); err != nil {
		return nil, err
	}

	logger := logging.WithFields(ctx, "session_id", sess.ID)
	operator := sess.Operator
	if op := OperatorFromContext(ctx); op != "" {
		operator = op
	}

	eligible := sess.Ready()
	result := &CommitResult{SessionID: sess.ID, Inserted: sess.Committed}

	for begin := 0; begin < len(eligible); begin += s.cfg.CommitBatchSize {
		end := min(begin+s.cfg.CommitBatchSize, len(eligible))
		chunk := eligible[begin:end]

		n, err := s.gateway.Commit(ctx, ToCommitRecords(chunk, operator, s.cfg.Origin))
		if err != nil {
			sent := make(map[string]bool, begin)
			for _, r := range eligible[:begin] {
				sent[r.ID] = true
			}
			sess.dropRecords(sent)
			sess.Committed = result.Inserted
			if saveErr := s.sessions.Save(ctx, sess); saveErr != nil {
				logger.Error("failed to save session after partial commit", "error", saveErr)
			}
			result.Duration = time.Since(start)
			logger.Error("commit batch failed",
				"batch", result.Batches+1,
				"sent", result.Sent,
				"inserted", result.Inserted,
				"error", err,
			)
			return result, err
		}

		result.Batches++
		result.Sent += len(chunk)
		result.Inserted += n
	}

	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		logger.Warn("failed to delete committed session", "error", err)
	}
	s.metrics.IncSessionFinished("committed")

	result.Duration = time.Since(start)
	logger.Info("import committed",
		"batches", result.Batches,
		"sent", result.Sent,
		"inserted", result.Inserted,
		"skipped", result.Sent-(result.Inserted-sess.Committed),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// Cancel discards a session.
func (s *Service) Cancel(ctx context.Context, id string) error {
	if _, err := s.sessions.Load(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.metrics.IncSessionFinished("cancelled")
	logging.WithFields(ctx, "session_id", id).Info("import session cancelled")
	return nil
}

// CheckDuplicates looks up existing records by tax id and phone. Inputs are
// reduced to digits and deduplicated; with nothing to look up no query is
// issued.
func (s *Service) CheckDuplicates(ctx context.Context, cpfs, telefones []string) ([]DuplicateRef, error) {
	cpfs = distinctDigits(cpfs)
	telefones = distinctDigits(telefones)
	if len(cpfs) == 0 && len(telefones) == 0 {
		return []DuplicateRef{}, nil
	}

	start := time.Now()
	refs, err := s.finder.FindDuplicates(ctx, cpfs, telefones)
	s.metrics.ObserveDuplicateCheck(start, err)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if refs == nil {
		refs = []DuplicateRef{}
	}
	return refs, nil
}

// CommitRecords passes externally assembled records straight to the
// gateway. Missing provenance is filled from ctx and the service config.
func (s *Service) CommitRecords(ctx context.Context, records []CommitRecord) (int, error) {
	operator := OperatorFromContext(ctx)
	for i := range records {
		if records[i].CriadoPorID == "" {
			records[i].CriadoPorID = operator
		}
		if records[i].Origem == "" {
			records[i].Origem = s.cfg.Origin
		}
	}
	return s.gateway.Commit(ctx, records)
}

// LimiterStatus returns the current import limiter state.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight decode/transform work completes.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// IsNotFound reports whether err means the session or record is gone.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrRecordNotFound)
}

func distinctDigits(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		d := DigitsOnly(v)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
