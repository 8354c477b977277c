package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/eleitores/internal/core"
	"github.com/JonMunkholm/eleitores/internal/session"
)

// maxListed caps the invalid and duplicate rows printed in text mode.
const maxListed = 20

var errOffline = errors.New("no database configured")

// offlineStore stands in for the database when previewing without
// --check-duplicates: nothing is a duplicate and nothing can be committed.
type offlineStore struct{}

func (offlineStore) FindDuplicates(context.Context, []string, []string) ([]core.DuplicateRef, error) {
	return nil, nil
}

func (offlineStore) InsertMany(context.Context, []core.CommitRecord) (int, error) {
	return 0, errOffline
}

type pipelineOptions struct {
	mappings []string
	jsonOut  bool
	operator string
}

func (o *pipelineOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.mappings, "map", nil, `Override a column mapping as "Header=field" (empty field ignores the column); repeatable`)
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "Print the preview as JSON")
	cmd.Flags().StringVar(&o.operator, "operator", "", "Operator id stamped on imported records")
}

func newPreviewCmd() *cobra.Command {
	var (
		opts      pipelineOptions
		checkDups bool
	)

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Decode, map and validate a spreadsheet without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseOverrides(opts.mappings)
			if err != nil {
				return err
			}

			ctx := core.ContextWithOperator(cmd.Context(), opts.operator)

			var backend interface {
				core.DuplicateFinder
				core.RecordInserter
			} = offlineStore{}
			if checkDups {
				_, pool, st, err := openStore(ctx)
				if err != nil {
					return err
				}
				defer pool.Close()
				backend = st
			}

			svc := core.NewService(session.NewMemoryStore(time.Hour), backend, backend, core.ServiceConfig{MaxConcurrent: 1}, nil)
			preview, err := runPipeline(ctx, svc, args[0], overrides)
			if err != nil {
				return err
			}
			return writePreview(cmd.OutOrStdout(), preview, opts.jsonOut)
		},
	}

	opts.bind(cmd)
	cmd.Flags().BoolVar(&checkDups, "check-duplicates", false, "Compare against stored voters (needs DATABASE_URL)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		opts             pipelineOptions
		acceptDuplicates bool
		dryRun           bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a spreadsheet into the eleitores table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseOverrides(opts.mappings)
			if err != nil {
				return err
			}

			ctx := core.ContextWithOperator(cmd.Context(), opts.operator)
			cfg, pool, st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := core.NewService(session.NewMemoryStore(time.Hour), st, st, core.ServiceConfig{
				Origin:          cfg.Import.Origin,
				CommitBatchSize: cfg.Import.CommitBatchSize,
				MaxConcurrent:   1,
			}, nil)

			preview, err := runPipeline(ctx, svc, args[0], overrides)
			if err != nil {
				return err
			}
			if err := writePreview(cmd.OutOrStdout(), preview, opts.jsonOut); err != nil {
				return err
			}
			if preview.DuplicateCheckError != "" {
				return errors.New(preview.DuplicateCheckError)
			}
			if dryRun {
				return nil
			}

			if acceptDuplicates {
				for _, r := range preview.Duplicates {
					if _, err := svc.AcceptDuplicate(ctx, preview.SessionID, r.ID); err != nil {
						return err
					}
				}
			}

			result, err := svc.Commit(ctx, preview.SessionID)
			if result != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%d records imported (%d sent, %d skipped, %d batches)\n",
					result.Inserted, result.Sent, result.Sent-result.Inserted, result.Batches)
			}
			return err
		},
	}

	opts.bind(cmd)
	cmd.Flags().BoolVar(&acceptDuplicates, "accept-duplicates", false, "Send rows matching stored voters too (the store still skips conflicting tax ids)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Stop after the preview")
	return cmd
}

// parseOverrides turns "Header=field" pairs into mapping overrides. The last
// '=' separates the field, so headers may contain '='.
func parseOverrides(pairs []string) (map[string]core.FieldKey, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]core.FieldKey, len(pairs))
	for _, p := range pairs {
		i := strings.LastIndex(p, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid --map %q: want Header=field", p)
		}
		out[strings.TrimSpace(p[:i])] = core.FieldKey(strings.TrimSpace(p[i+1:]))
	}
	return out, nil
}

// runPipeline opens a session for the file, applies overrides and builds
// the preview.
func runPipeline(ctx context.Context, svc *core.Service, path string, overrides map[string]core.FieldKey) (*core.Preview, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sess, err := svc.StartSession(ctx, filepath.Base(path), data)
	if err != nil {
		return nil, err
	}

	if len(overrides) > 0 {
		if _, err := svc.UpdateMapping(ctx, sess.ID, overrides); err != nil {
			return nil, err
		}
	}
	return svc.Preview(ctx, sess.ID)
}

func writePreview(w io.Writer, p *core.Preview, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file\t%s\n", p.FileName)
	for _, m := range p.Mapping {
		target := "(ignored)"
		if m.Field != core.FieldIgnored {
			target = string(m.Field)
		}
		fmt.Fprintf(tw, "  %s\t-> %s\n", m.Header, target)
	}
	s := p.Summary
	fmt.Fprintf(tw, "total\t%d\n", s.Total)
	fmt.Fprintf(tw, "ready\t%d\n", s.Ready)
	fmt.Fprintf(tw, "duplicates\t%d\n", s.Duplicates)
	fmt.Fprintf(tw, "invalid\t%d\n", s.Invalid)
	if s.InFileDuplicates > 0 {
		fmt.Fprintf(tw, "repeated in file\t%d\n", s.InFileDuplicates)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if p.DuplicateCheckError != "" {
		fmt.Fprintf(w, "warning: %s\n", p.DuplicateCheckError)
	}
	for i, r := range p.Invalid {
		if i == maxListed {
			fmt.Fprintf(w, "  ... %d more invalid rows\n", len(p.Invalid)-maxListed)
			break
		}
		fmt.Fprintf(w, "  line %d: %s\n", r.Line, strings.Join(r.Errors, "; "))
	}
	for i, r := range p.Duplicates {
		if i == maxListed {
			fmt.Fprintf(w, "  ... %d more duplicates\n", len(p.Duplicates)-maxListed)
			break
		}
		fmt.Fprintf(w, "  line %d: matches %s (%s)\n", r.Line, r.DuplicateOf.NomeCompleto, r.DuplicateOf.ID)
	}
	return nil
}
