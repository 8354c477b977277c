package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/eleitores/internal/core"
	"github.com/JonMunkholm/eleitores/internal/logging"
	"github.com/JonMunkholm/eleitores/internal/web/views"
)

// maxJSONBody bounds JSON request bodies outside the file upload.
const maxJSONBody = 10 << 20

// SessionSnapshot is the client view of a session before preview.
type SessionSnapshot struct {
	ID          string             `json:"id"`
	FileName    string             `json:"fileName"`
	Phase       core.SessionPhase  `json:"phase"`
	Format      core.FileFormat    `json:"format"`
	Encoding    string             `json:"encoding,omitempty"`
	Delimiter   string             `json:"delimiter,omitempty"`
	Headers     []string           `json:"headers"`
	Mapping     core.FieldMapping  `json:"mapping"`
	Suggestions []core.Suggestion  `json:"suggestions"`
	RowCount    int                `json:"rowCount"`
	Missing     []string           `json:"missing,omitempty"`
	Counts      core.SessionCounts `json:"counts"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func newSessionSnapshot(sess *core.ImportSession) SessionSnapshot {
	snap := SessionSnapshot{
		ID:          sess.ID,
		FileName:    sess.FileName,
		Phase:       sess.Phase,
		Format:      sess.File.Format,
		Encoding:    sess.File.Encoding,
		Delimiter:   sess.File.Delimiter,
		Headers:     sess.Headers(),
		Mapping:     sess.Mapping,
		Suggestions: core.Suggestions(sess.Headers()),
		RowCount:    len(sess.Rows),
		Counts:      sess.Counts(),
		CreatedAt:   sess.CreatedAt,
		UpdatedAt:   sess.UpdatedAt,
	}
	var me *core.MappingError
	if errors.As(core.ValidateCoverage(sess.Mapping), &me) {
		snap.Missing = me.Missing
	}
	return snap
}

// recordResponse is returned by per-record review actions.
type recordResponse struct {
	Record *core.CandidateRecord `json:"record,omitempty"`
	Counts core.SessionCounts    `json:"counts"`
}

// commitResponse is the wire shape of a successful commit.
type commitResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Sent    int  `json:"sent,omitempty"`
	Batches int  `json:"batches,omitempty"`
}

// handleListFields returns the canonical field catalog.
func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Catalog())
}

// handleCreateSession decodes an uploaded spreadsheet and opens a session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, errFileTooLarge)
			return
		}
		s.respondError(w, r, errNoFile)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		s.respondError(w, r, errFileTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sess, err := s.service.StartSession(r.Context(), header.Filename, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newSessionSnapshot(sess))
}

// handleGetSession returns a session snapshot.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionSnapshot(sess))
}

// handleUpdateMapping applies column overrides. The mapping is saved even
// when it still lacks coverage; the response is then 422.
func (s *Server) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Overrides map[string]core.FieldKey `json:"overrides"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	sess, err := s.service.UpdateMapping(r.Context(), chi.URLParam(r, "sessionID"), body.Overrides)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionSnapshot(sess))
}

// handlePreview transforms and reconciles the session.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	preview, err := s.service.Preview(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writePreview(w, r, preview)
}

// handleRecheck re-runs the duplicate lookup.
func (s *Server) handleRecheck(w http.ResponseWriter, r *http.Request) {
	preview, err := s.service.RecheckDuplicates(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writePreview(w, r, preview)
}

func (s *Server) writePreview(w http.ResponseWriter, r *http.Request, p *core.Preview) {
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := views.PreviewSummary(p).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render preview", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleEditRecord replaces the fields of one record.
func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Fields core.CandidateFields `json:"fields"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	recordID := chi.URLParam(r, "recordID")
	sess, err := s.service.EditRecord(r.Context(), chi.URLParam(r, "sessionID"), recordID, body.Fields)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeRecord(w, sess, recordID)
}

// handleRemoveRecord drops one record.
func (s *Server) handleRemoveRecord(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.RemoveRecord(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "recordID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{Counts: sess.Counts()})
}

// handleAcceptDuplicate commits a flagged duplicate anyway.
func (s *Server) handleAcceptDuplicate(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	sess, err := s.service.AcceptDuplicate(r.Context(), chi.URLParam(r, "sessionID"), recordID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeRecord(w, sess, recordID)
}

func (s *Server) writeRecord(w http.ResponseWriter, sess *core.ImportSession, recordID string) {
	resp := recordResponse{Counts: sess.Counts()}
	if rec, err := sess.Record(recordID); err == nil {
		resp.Record = &rec
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCommit sends every eligible record to the store.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Commit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		if result != nil {
			err = &partialCommitError{err: err, result: result}
		}
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := views.CommitResult(result).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render commit result", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, commitResponse{
		Success: true,
		Count:   result.Inserted,
		Sent:    result.Sent,
		Batches: result.Batches,
	})
}

// handleCancelSession discards a session.
func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Cancel(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadJSON, err)
	}
	return nil
}
