package core

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// DuplicateFinder looks up existing records sharing a tax id or a phone.
// Implementations must answer both sets in a single query and return
// matches in a stable order.
type DuplicateFinder interface {
	FindDuplicates(ctx context.Context, cpfs, telefones []string) ([]DuplicateRef, error)
}

// Reconciler flags candidates that collide with persisted records.
type Reconciler struct {
	finder  DuplicateFinder
	metrics *Metrics
}

// NewReconciler creates a reconciler backed by finder. metrics may be nil.
func NewReconciler(finder DuplicateFinder, metrics *Metrics) *Reconciler {
	return &Reconciler{finder: finder, metrics: metrics}
}

// DuplicateKeys collects the distinct non-empty tax ids and phones of the
// records, sorted.
func DuplicateKeys(records []CandidateRecord) (cpfs, telefones []string) {
	seenCPF := make(map[string]bool)
	seenTel := make(map[string]bool)
	for _, r := range records {
		if c := r.Fields.CPF; c != "" && !seenCPF[c] {
			seenCPF[c] = true
			cpfs = append(cpfs, c)
		}
		if t := r.Fields.Telefone; t != "" && !seenTel[t] {
			seenTel[t] = true
			telefones = append(telefones, t)
		}
	}
	sort.Strings(cpfs)
	sort.Strings(telefones)
	return cpfs, telefones
}

// Reconcile clears and recomputes the duplicate flags of records in place
// with one batched lookup. A record is a duplicate when its tax id or phone
// equals that of an existing record; DuplicateOf points at the first such
// record in the finder's order.
//
// The lookup fails open: on error every record stays unflagged and the
// error is returned for the caller to surface as a warning.
func (r *Reconciler) Reconcile(ctx context.Context, records []CandidateRecord) error {
	for i := range records {
		records[i].IsDuplicate = false
		records[i].DuplicateOf = nil
	}

	cpfs, telefones := DuplicateKeys(records)
	if len(cpfs) == 0 && len(telefones) == 0 {
		return nil
	}

	start := time.Now()
	matches, err := r.finder.FindDuplicates(ctx, cpfs, telefones)
	r.metrics.ObserveDuplicateCheck(start, err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDuplicateCheck, err)
	}

	byCPF := make(map[string]*DuplicateRef)
	byTel := make(map[string]*DuplicateRef)
	for i := range matches {
		m := &matches[i]
		if m.CPF != "" {
			if _, ok := byCPF[m.CPF]; !ok {
				byCPF[m.CPF] = m
			}
		}
		if m.Telefone != "" {
			if _, ok := byTel[m.Telefone]; !ok {
				byTel[m.Telefone] = m
			}
		}
	}

	// rank preserves the finder's order when a record matches two existing
	// records, one by tax id and one by phone.
	rank := make(map[*DuplicateRef]int, len(matches))
	for i := range matches {
		rank[&matches[i]] = i
	}

	for i := range records {
		rec := &records[i]
		var hit *DuplicateRef
		if rec.Fields.CPF != "" {
			hit = byCPF[rec.Fields.CPF]
		}
		if rec.Fields.Telefone != "" {
			if t := byTel[rec.Fields.Telefone]; t != nil && (hit == nil || rank[t] < rank[hit]) {
				hit = t
			}
		}
		if hit != nil {
			ref := *hit
			rec.IsDuplicate = true
			rec.DuplicateOf = &ref
		}
	}
	return nil
}

// InFileDuplicate groups lines of the same file that share a key.
type InFileDuplicate struct {
	Field FieldKey `json:"field"`
	Value string   `json:"value"`
	Lines []int    `json:"lines"`
}

// FindInFileDuplicates reports tax ids and phones repeated inside the
// records themselves. Informational only: the store's conflict handling
// decides what is persisted.
func FindInFileDuplicates(records []CandidateRecord) []InFileDuplicate {
	type key struct {
		field FieldKey
		value string
	}
	lines := make(map[key][]int)
	var order []key

	add := func(k key, line int) {
		if _, ok := lines[k]; !ok {
			order = append(order, k)
		}
		lines[k] = append(lines[k], line)
	}

	for _, r := range records {
		if r.Fields.CPF != "" {
			add(key{FieldCPF, r.Fields.CPF}, r.Line)
		}
		if r.Fields.Telefone != "" {
			add(key{FieldTelefone, r.Fields.Telefone}, r.Line)
		}
	}

	var out []InFileDuplicate
	for _, k := range order {
		if l := lines[k]; len(l) > 1 {
			out = append(out, InFileDuplicate{Field: k.field, Value: k.value, Lines: l})
		}
	}
	return out
}
