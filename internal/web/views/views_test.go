package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/eleitores/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestErrorAlert_Escapes(t *testing.T) {
	out := render(t, ErrorAlert(`<script>alert(1)</script>`, "Try again", "ERR000"))

	if strings.Contains(out, "<script>") {
		t.Errorf("message not escaped: %s", out)
	}
	if !strings.Contains(out, "Try again") || !strings.Contains(out, "ERR000") {
		t.Errorf("missing action or code: %s", out)
	}
}

func TestErrorAlert_NoAction(t *testing.T) {
	out := render(t, ErrorAlert("Import session expired", "", "IMP003"))
	if strings.Contains(out, "alert-action") {
		t.Errorf("unexpected action paragraph: %s", out)
	}
}

func TestPreviewSummary(t *testing.T) {
	p := &core.Preview{
		SessionID: "s-1",
		FileName:  "contatos.csv",
		Summary: core.PreviewSummary{
			SessionCounts:    core.SessionCounts{Total: 5, Ready: 3, Duplicates: 1, Invalid: 1},
			InFileDuplicates: 2,
		},
		DuplicateCheckError: "Could not check for duplicates",
	}

	out := render(t, PreviewSummary(p))

	for _, want := range []string{"Prontos: 3", "Duplicados: 1", "Inválidos: 1", "Total: 5", "2 valores repetidos", "DUP001"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestCommitResult(t *testing.T) {
	out := render(t, CommitResult(&core.CommitResult{Sent: 3, Inserted: 2}))
	if !strings.Contains(out, "2 registros importados (3 enviados)") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestPreviewSummary_OmitsEmptySections(t *testing.T) {
	p := &core.Preview{
		SessionID: `s-1"><b>`,
		FileName:  "contatos.xlsx",
		Summary:   core.PreviewSummary{SessionCounts: core.SessionCounts{Total: 1, Ready: 1}},
	}

	out := render(t, PreviewSummary(p))

	if strings.Contains(out, "in-file-duplicates") || strings.Contains(out, "alert-error") {
		t.Errorf("unexpected optional section: %s", out)
	}
	if strings.Contains(out, `"><b>`) {
		t.Errorf("session attribute not escaped: %s", out)
	}
}
