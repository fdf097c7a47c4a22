package generator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chriserin/retrygen/internal/codedom"
	"github.com/chriserin/retrygen/internal/config"
	"github.com/chriserin/retrygen/internal/parser"
)

// Input is one parsed feature file.
type Input struct {
	Path string
	Doc  *parser.Document
}

// Result is the generated class for one Input.
type Result struct {
	Path    string
	Type    *codedom.Type
	Records []Record
}

// ReadInput reads and parses a feature file. Parse errors are joined into
// the returned error.
func ReadInput(path string) (Input, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, parseErrors := parser.Parse(path, content)
	if len(parseErrors) > 0 {
		errs := make([]error, len(parseErrors))
		for i, pe := range parseErrors {
			errs[i] = fmt.Errorf("%s:%d: %s", path, pe.Line, pe.Message)
		}
		return Input{}, errors.Join(errs...)
	}
	return Input{Path: path, Doc: doc}, nil
}

// GenerateAll generates every input on at most workers goroutines, one
// Generator per feature. Results are in input order. The first failure
// cancels the remaining work.
func GenerateAll(ctx context.Context, cfg *config.Config, log *zap.Logger, inputs []Input, workers int) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	results := make([]Result, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gen := New(cfg, log)
			typ, err := gen.GenerateFeature(in.Doc, in.Path)
			if err != nil {
				return err
			}
			results[i] = Result{Path: in.Path, Type: typ, Records: gen.Records()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info("generated features", zap.Int("count", len(results)), zap.Int("workers", workers))
	return results, nil
}
