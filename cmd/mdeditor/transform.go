package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/matnoble/mdeditor"
	"github.com/matnoble/mdeditor/internal/transform"
)

// runTransform applies op to a file or stdin.
func runTransform(ctx context.Context, op mdeditor.Operation, args []string, env *Environment) error {
	f, inputs, err := parseTransformFlags(string(op), args, env.Stderr)
	if err != nil {
		return err
	}
	if len(inputs) > 1 {
		return fmt.Errorf("%w: %s takes one file, got %d", ErrUsage, op, len(inputs))
	}
	input := "-"
	if len(inputs) == 1 {
		input = inputs[0]
	}
	if f.write && input == "-" {
		return fmt.Errorf("%w: --write needs a file argument", ErrUsage)
	}

	envCfg := loadEnvConfig()
	cfg, err := loadConfig(f.common.config, envCfg)
	if err != nil {
		return err
	}
	mergeAIFlags(f.ai, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	before, err := readInput(input, env.Stdin)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.common)
	opts := append(editorOptions(cfg, env, logger, nil), mdeditor.WithText(before))
	if op != mdeditor.OpFormat {
		provider, err := resolveProvider(ctx, env, cfg, logger)
		if err != nil {
			return err
		}
		opts = append(opts, mdeditor.WithProvider(provider))
	}
	ed, err := mdeditor.New(opts...)
	if err != nil {
		return err
	}

	if err := ed.Run(ctx, op); err != nil {
		return err
	}
	after := ed.State().Text

	target := f.output
	if f.write {
		target = input
	}
	if err := writeOutput(target, after, env.Stdout); err != nil {
		return err
	}

	if !f.common.quiet {
		fmt.Fprintf(env.Stderr, "%s: %s\n", op, transform.Summarize(before, after))
	}
	return nil
}

// readInput reads path, or r when path is "-".
func readInput(path string, r io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(path) // #nosec G304 -- path is user-provided
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadMarkdown, err)
	}
	return string(data), nil
}

// writeOutput writes text to path, or to w when path is empty.
func writeOutput(path, text string, w io.Writer) error {
	if path == "" {
		_, err := io.WriteString(w, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), filePermissions); err != nil { // #nosec G306 -- markdown sources are not secret
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}
