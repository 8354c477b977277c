package core

import "time"

// PreviewSummary contains the counters shown above the review tabs.
type PreviewSummary struct {
	SessionCounts
	InFileDuplicates int `json:"inFileDuplicates"`
	Committed        int `json:"committed"`
}

// MappingPreview describes how one source column is used.
type MappingPreview struct {
	Header string   `json:"header"`
	Field  FieldKey `json:"field"`
	Label  string   `json:"label,omitempty"`
}

// Preview is the staged review of a session: every record partitioned into
// ready, duplicate and invalid, plus file-level findings.
type Preview struct {
	SessionID           string            `json:"sessionId"`
	FileName            string            `json:"fileName"`
	Summary             PreviewSummary    `json:"summary"`
	Mapping             []MappingPreview  `json:"mapping"`
	Ready               []CandidateRecord `json:"ready"`
	Duplicates          []CandidateRecord `json:"duplicates"`
	Invalid             []CandidateRecord `json:"invalid"`
	InFileDuplicates    []InFileDuplicate `json:"inFileDuplicates"`
	DuplicateCheckError string            `json:"duplicateCheckError,omitempty"`
	ProcessingTimeMs    int64             `json:"processingTimeMs"`
}

// maxInFileDuplicateSamples caps the in-file duplicate groups listed.
const maxInFileDuplicateSamples = 50

// BuildPreview assembles the review view of a session.
func BuildPreview(sess *ImportSession, elapsed time.Duration) *Preview {
	inFile := FindInFileDuplicates(sess.Records)

	p := &Preview{
		SessionID: sess.ID,
		FileName:  sess.FileName,
		Summary: PreviewSummary{
			SessionCounts:    sess.Counts(),
			InFileDuplicates: len(inFile),
			Committed:        sess.Committed,
		},
		Ready:               nonNil(sess.Ready()),
		Duplicates:          nonNil(sess.Duplicates()),
		Invalid:             nonNil(sess.Invalid()),
		DuplicateCheckError: sess.DuplicateCheckError,
		ProcessingTimeMs:    elapsed.Milliseconds(),
	}

	if len(inFile) > maxInFileDuplicateSamples {
		inFile = inFile[:maxInFileDuplicateSamples]
	}
	p.InFileDuplicates = inFile
	if p.InFileDuplicates == nil {
		p.InFileDuplicates = []InFileDuplicate{}
	}

	for _, h := range sess.Headers() {
		mp := MappingPreview{Header: h, Field: sess.Mapping[h]}
		if f, ok := LookupField(mp.Field); ok {
			mp.Label = f.Label
		}
		p.Mapping = append(p.Mapping, mp)
	}
	return p
}

func nonNil(r []CandidateRecord) []CandidateRecord {
	if r == nil {
		return []CandidateRecord{}
	}
	return r
}
