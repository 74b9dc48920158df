package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/matnoble/mdeditor"
	"github.com/matnoble/mdeditor/internal/export"
	"github.com/matnoble/mdeditor/internal/pdf"
	"github.com/matnoble/mdeditor/internal/render"
)

// markdownPattern matches markdown files below a directory.
const markdownPattern = "**/*.{md,markdown}"

// ExportResult holds the outcome of a single export.
type ExportResult struct {
	InputPath  string
	OutputPath string
	PDFPath    string
	Err        error
	Duration   time.Duration
}

// sourceFile is one discovered input. Rel is its path below the discovery
// root and decides where the output lands under the output directory.
type sourceFile struct {
	Path string
	Rel  string
}

// printer converts an HTML document to PDF.
type printer interface {
	Convert(ctx context.Context, doc []byte) ([]byte, error)
}

// exportParams groups what every worker shares.
type exportParams struct {
	deliverer export.FileDeliverer
	printer   printer // nil skips PDF
	newEditor func() (*mdeditor.Editor, error)
}

// runExport exports every input to a standalone HTML document.
func runExport(ctx context.Context, args []string, env *Environment) error {
	f, inputs, err := parseExportFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	cfg, err := loadConfig(f.common.config, envCfg)
	if err != nil {
		return err
	}
	if err := mergeEditorFlags(f.editor, cfg); err != nil {
		return err
	}
	mergePageFlags(f.page, cfg)
	if f.output != "" {
		cfg.Export.OutputDir = f.output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	files, err := discoverFiles(inputs)
	if err != nil {
		return err
	}
	if err := checkCollisions(files); err != nil {
		return err
	}
	workers, err := resolveWorkers(f.workers, envCfg)
	if err != nil {
		return err
	}
	customCSS, err := cfg.LoadCustomCSS()
	if err != nil {
		return err
	}

	outDir := cfg.Export.OutputDir
	if outDir != "" {
		if err := os.MkdirAll(outDir, dirPermissions); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrWriteOutput, outDir, err)
		}
	}

	logger := newLogger(env.Stderr, f.common)
	renderer := render.New()
	params := &exportParams{
		deliverer: export.FileDeliverer{Dir: outDir, Overwrite: !f.noClobber},
		newEditor: func() (*mdeditor.Editor, error) {
			opts := append(editorOptions(cfg, env, logger, renderer), mdeditor.WithCustomCSS(customCSS))
			return mdeditor.New(opts...)
		},
	}

	if f.pdf {
		pool, err := pdf.NewPool(workers, cfg.PDFSettings())
		if err != nil {
			return err
		}
		defer func() {
			if err := pool.Close(); err != nil {
				logger.Warn("closing PDF browsers", "error", err)
			}
		}()
		params.printer = pool
	}

	rep := newReporter(env.Stderr, f.common)
	rep.Start(len(files))
	results := exportBatch(ctx, files, workers, params, rep)
	rep.Finish()

	if failed := printResults(results, f.common.quiet, f.common.verbose, env); failed > 0 {
		return fmt.Errorf("%d of %d exports failed: %w", failed, len(results), firstError(results))
	}
	return nil
}

// discoverFiles expands each input: directories yield their markdown files
// recursively, glob patterns are matched with doublestar, plain paths are
// taken as given. Files found below a directory or a glob's fixed prefix keep
// their relative path so the output tree mirrors the input tree. The result
// is sorted by path and free of duplicates.
func discoverFiles(inputs []string) ([]sourceFile, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}

	var files []sourceFile
	for _, in := range inputs {
		info, statErr := os.Stat(in)
		switch {
		case statErr == nil && info.IsDir():
			matches, err := doublestar.Glob(os.DirFS(in), markdownPattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrUsage, in, err)
			}
			for _, m := range matches {
				rel := filepath.FromSlash(m)
				files = append(files, sourceFile{Path: filepath.Join(in, rel), Rel: rel})
			}
		case statErr == nil:
			files = append(files, sourceFile{Path: in, Rel: filepath.Base(in)})
		case isGlob(in):
			matches, err := doublestar.FilepathGlob(in, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrUsage, in, err)
			}
			root, _ := doublestar.SplitPattern(filepath.ToSlash(in))
			for _, m := range matches {
				files = append(files, sourceFile{Path: m, Rel: relativeTo(filepath.FromSlash(root), m)})
			}
		default:
			return nil, fmt.Errorf("%w: %s: %w", ErrReadMarkdown, in, statErr)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no markdown files matched %s", ErrNoInput, strings.Join(inputs, ", "))
	}
	slices.SortFunc(files, func(a, b sourceFile) int { return strings.Compare(a.Path, b.Path) })
	return slices.CompactFunc(files, func(a, b sourceFile) bool { return a.Path == b.Path }), nil
}

// relativeTo returns path below root, or its base name when it is not below.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return rel
}

// checkCollisions rejects batches where two inputs would write the same
// output file.
func checkCollisions(files []sourceFile) error {
	seen := make(map[string]string, len(files))
	for _, f := range files {
		out := outputName(f.Rel)
		if prev, ok := seen[out]; ok {
			return fmt.Errorf("%w: %s and %s both export to %s; export them in separate runs or pass their parent directory", ErrUsage, prev, f.Path, out)
		}
		seen[out] = f.Path
	}
	return nil
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// exportBatch runs the exports on a fixed set of workers. Each worker owns
// one Editor so documents never share state.
func exportBatch(ctx context.Context, files []sourceFile, workers int, params *exportParams, rep reporter) []ExportResult {
	results := make([]ExportResult, len(files))
	jobs := make(chan int)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	workers = min(workers, len(files))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ed, err := params.newEditor()
			for i := range jobs {
				if err != nil {
					results[i] = ExportResult{InputPath: files[i].Path, Err: err}
				} else {
					results[i] = exportFile(ctx, ed, files[i], params)
				}
				mu.Lock()
				done++
				rep.Update(done, filepath.Base(files[i].Path))
				mu.Unlock()
			}
		}()
	}

	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(files); j++ {
				results[j] = ExportResult{InputPath: files[j].Path, Err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// exportFile renders one file with ed and delivers the document at its
// mirrored place under the output directory.
func exportFile(ctx context.Context, ed *mdeditor.Editor, src sourceFile, params *exportParams) ExportResult {
	start := time.Now()
	result := ExportResult{InputPath: src.Path}

	data, err := os.ReadFile(src.Path) // #nosec G304 -- path is user-provided
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrReadMarkdown, err)
		return result
	}

	ed.SetText(string(data))
	doc, err := ed.ExportCurrent(ctx)
	if err != nil {
		result.Err = err
		return result
	}
	out := outputName(src.Rel)
	doc.Filename = filepath.Base(out)
	deliverer := params.deliverer
	if sub := filepath.Dir(out); sub != "." {
		deliverer.Dir = filepath.Join(deliverer.Dir, sub)
		if err := os.MkdirAll(deliverer.Dir, dirPermissions); err != nil {
			result.Err = fmt.Errorf("%w: %w", ErrWriteOutput, err)
			return result
		}
	}

	result.OutputPath, err = deliverer.Deliver(ctx, doc)
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrWriteOutput, err)
		return result
	}

	if params.printer != nil {
		out, err := params.printer.Convert(ctx, doc.HTML)
		if err != nil {
			result.Err = err
			return result
		}
		result.PDFPath = pdf.Filename(result.OutputPath)
		if err := os.WriteFile(result.PDFPath, out, filePermissions); err != nil { // #nosec G306 -- exported documents are meant to be shared
			result.Err = fmt.Errorf("%w: %w", ErrWriteOutput, err)
			return result
		}
	}

	result.Duration = time.Since(start)
	return result
}

// outputName swaps the markdown extension of rel for .html, keeping its
// directories.
func outputName(rel string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + export.Extension
}

// printResults outputs export results and returns the failure count.
func printResults(results []ExportResult, quiet, verbose bool, env *Environment) int {
	var succeeded, failed int

	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}
		succeeded++

		if quiet {
			continue
		}
		outputs := r.OutputPath
		if r.PDFPath != "" {
			outputs += ", " + r.PDFPath
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, outputs, elapsed(r.Duration))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", outputs)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", succeeded, failed)
	}
	return failed
}

func firstError(results []ExportResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
