package web

import (
	"net/http"

	"github.com/JonMunkholm/eleitores/internal/core"
)

type checkDuplicatesRequest struct {
	CPFs      []string `json:"cpfs"`
	Telefones []string `json:"telefones"`
}

type checkDuplicatesResponse struct {
	Duplicados []core.DuplicateRef `json:"duplicados"`
}

type importRequest struct {
	Eleitores []core.CommitRecord `json:"eleitores"`
}

// handleCheckDuplicates looks up existing voters by tax id and phone in a
// single query. A failed lookup is a gateway error: the caller keeps its
// state and may retry.
func (s *Server) handleCheckDuplicates(w http.ResponseWriter, r *http.Request) {
	var req checkDuplicatesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	refs, err := s.service.CheckDuplicates(r.Context(), req.CPFs, req.Telefones)
	if err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, checkDuplicatesResponse{Duplicados: refs})
}

// handleImportEleitores persists up to 500 externally assembled records.
func (s *Server) handleImportEleitores(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	n, err := s.service.CommitRecords(r.Context(), req.Eleitores)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commitResponse{Success: true, Count: n})
}
