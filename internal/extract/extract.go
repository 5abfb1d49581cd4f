package extract

import (
	"context"
	"errors"
	"fmt"
	"os"

	"i18n-extractor/internal/catalog"
	"i18n-extractor/internal/filewalker"
	"i18n-extractor/internal/imports"
	"i18n-extractor/internal/keygen"
	"i18n-extractor/internal/parser"
	"i18n-extractor/internal/planner"
	"i18n-extractor/internal/rewrite"
	"i18n-extractor/internal/safeio"
	"i18n-extractor/internal/translation"
	"i18n-extractor/internal/worker"

	"github.com/rs/zerolog/log"
)

// ErrWriteFailure: a rewritten file could not be written back.
var ErrWriteFailure = errors.New("write failure")

// Options configures one extraction run.
type Options struct {
	// Root is the directory key suggestions are computed against.
	Root string
	// Prefix is an explicit namespace for new keys ("I18N." is stripped).
	Prefix string
	// Identifier is the object keys are referenced through.
	Identifier string
	// CatalogPath is where the catalog is persisted after the run.
	CatalogPath string
	// Workers bounds parallel scanning.
	Workers int
	// OnFile, when set, is called after each file is handled, successful or not.
	OnFile func(file string)
}

// FileError records why a file was skipped.
type FileError struct {
	File string
	Err  error
}

// Summary describes a finished run.
type Summary struct {
	Files        int
	Scanned      int
	Changed      int
	Failed       int
	Occurrences  int
	NewKeys      int
	ReusedKeys   int
	ImportsAdded int
	Failures     []FileError
}

// Extractor drives scan → seed → plan → rewrite → import → write for a set of files and
// persists the catalog once at the end.
type Extractor struct {
	catalog *catalog.Catalog
	planner *planner.Planner
	seeder  translation.Seeder
	imports *imports.Ensurer
	opts    Options
}

func New(c *catalog.Catalog, seeder translation.Seeder, ensurer *imports.Ensurer, opts Options) *Extractor {
	if opts.Identifier == "" {
		opts.Identifier = rewrite.DefaultIdentifier
	}
	if ensurer == nil {
		ensurer = imports.NewEnsurer(nil, "", opts.Identifier)
	}
	opts.Prefix = keygen.TrimReference(opts.Prefix, opts.Identifier)
	return &Extractor{
		catalog: c,
		planner: planner.New(c),
		seeder:  seeder,
		imports: ensurer,
		opts:    opts,
	}
}

type scanned struct {
	src   string
	texts parser.FileTexts
}

func (x *Extractor) scan(ctx context.Context, entries []filewalker.FileEntry) ([]scanned, []FileError) {
	pool := worker.NewPool[filewalker.FileEntry, scanned](x.opts.Workers,
		func(ctx context.Context, entry filewalker.FileEntry) (scanned, error) {
			data, err := os.ReadFile(entry.Path)
			if err != nil {
				return scanned{}, fmt.Errorf("read %s: %w", entry.Path, err)
			}
			texts, err := entry.Parser.Parse(ctx, entry.Path, data)
			if err != nil {
				return scanned{}, err
			}
			return scanned{src: string(data), texts: parser.FileTexts{File: entry.Path, Texts: texts}}, nil
		},
	)

	var (
		out      []scanned
		failures []FileError
	)
	for _, task := range pool.Execute(ctx, entries) {
		if task.Err != nil {
			log.Error().Err(task.Err).Str("file", task.Input.Path).Msg("Scan failed")
			failures = append(failures, FileError{File: task.Input.Path, Err: task.Err})
			continue
		}
		if len(task.Result.texts.Texts) == 0 {
			continue
		}
		log.Info().Str("file", task.Input.Path).Int("texts", len(task.Result.texts.Texts)).Msg("Found text")
		out = append(out, task.Result)
	}
	return out, failures
}

// Run processes entries one file at a time. A failing file is logged and skipped; the
// catalog is persisted even when some files failed. Cancellation stops between files.
func (x *Extractor) Run(ctx context.Context, entries []filewalker.FileEntry) (*Summary, error) {
	summary := &Summary{Files: len(entries)}

	files, failures := x.scan(ctx, entries)
	summary.Scanned = len(files)
	for _, f := range failures {
		x.fail(summary, f.File, f.Err)
	}

	for _, f := range files {
		if ctx.Err() != nil {
			log.Warn().Msg("Extraction cancelled, skipping remaining files")
			break
		}

		if err := x.processFile(ctx, f, summary); err != nil {
			x.fail(summary, f.texts.File, err)
		}
		if x.opts.OnFile != nil {
			x.opts.OnFile(f.texts.File)
		}
	}

	if x.opts.CatalogPath != "" {
		if err := x.catalog.Persist(x.opts.CatalogPath); err != nil {
			return summary, fmt.Errorf("persist catalog: %w", err)
		}
	}

	log.Info().
		Int("files", summary.Changed).
		Int("failed", summary.Failed).
		Int("occurrences", summary.Occurrences).
		Int("new_keys", summary.NewKeys).
		Msg("Extraction complete")

	return summary, ctx.Err()
}

func (x *Extractor) fail(summary *Summary, file string, err error) {
	log.Error().Err(err).Str("file", file).Msg("File skipped")
	summary.Failed++
	summary.Failures = append(summary.Failures, FileError{File: file, Err: err})
}

// processFile rewrites one file. New keys are staged in a scratch catalog and merged into
// the shared one once the rewrite succeeded; a later write failure does not roll them back.
func (x *Extractor) processFile(ctx context.Context, f scanned, summary *Summary) error {
	file := f.texts.File
	texts := f.texts.Texts

	raw := make([]string, len(texts))
	for i, occ := range texts {
		raw[i] = occ.Text
	}
	seeds, err := x.seeder.Seeds(ctx, keygen.Mnemonics(raw))
	if err != nil {
		return fmt.Errorf("seed %s: %w", file, err)
	}

	namespace := keygen.Namespace(x.opts.Prefix, keygen.Suggest(file, x.opts.Root))
	rs, err := x.planner.Plan(planner.Input{
		File:        file,
		Namespace:   namespace,
		Occurrences: texts,
		Seeds:       seeds,
	})
	if err != nil {
		return err
	}

	// ApplyAll validates every range before touching anything, so the staged keys are
	// either all committed or none are.
	staging := catalog.New()
	out, err := rewrite.NewEngine(staging, x.opts.Identifier).ApplyAll(file, f.src, rs)
	if err != nil {
		return err
	}

	// Committed keys stay in the catalog even if the file cannot be written below.
	for key, text := range staging.Flatten() {
		x.catalog.Set(key, text)
	}
	summary.NewKeys += staging.Len()

	out, added, err := x.imports.Ensure(ctx, file, out)
	if err != nil {
		return fmt.Errorf("ensure import in %s: %w", file, err)
	}

	if err := safeio.WriteFileAtomic(file, []byte(out), safeio.PermOf(file, 0o644)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailure, file, err)
	}

	reused := 0
	for _, r := range rs {
		if !r.NeedWrite {
			reused++
		}
	}
	summary.Changed++
	summary.Occurrences += len(rs)
	summary.ReusedKeys += reused
	if added {
		summary.ImportsAdded++
	}

	log.Info().
		Str("file", file).
		Int("replaced", len(rs)).
		Int("new_keys", staging.Len()).
		Bool("import_added", added).
		Msg("File rewritten")
	return nil
}
