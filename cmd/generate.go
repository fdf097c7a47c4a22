package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chriserin/retrygen/internal/codedom"
	"github.com/chriserin/retrygen/internal/config"
	"github.com/chriserin/retrygen/internal/db"
	"github.com/chriserin/retrygen/internal/generator"
	"github.com/chriserin/retrygen/internal/ui"
)

var generateCmd = &cobra.Command{
	Use:   "generate [files...]",
	Short: "Generate test classes for feature files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunGenerate(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func RunGenerate(ctx context.Context, w io.Writer, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	paths, err := discover(cfg, files)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(w, "no feature files found")
		return nil
	}

	inputs, err := readInputs(paths)
	if err != nil {
		return err
	}

	results, err := generator.GenerateAll(ctx, cfg, logger, inputs, cfg.Workers)
	if err != nil {
		return err
	}

	outputs, err := outputPaths(cfg, results)
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(cfg.Manifest)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	scenarios, retrying := 0, 0
	for i, r := range results {
		out := outputs[i]
		data, err := codedom.Marshal(r.Type)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}

		entry := db.Feature{Path: r.Path, Class: r.Type.Name, Output: out}
		for _, rec := range r.Records {
			entry.Scenarios = append(entry.Scenarios, db.Scenario{
				Name:       rec.Scenario,
				Method:     rec.Method,
				Attempts:   rec.Policy.Attempts,
				ExemptType: rec.Policy.ExemptType,
			})
			if rec.Policy.Enabled() {
				retrying++
			}
		}
		scenarios += len(r.Records)
		if err := db.RecordFeature(ctx, sqlDB, entry); err != nil {
			return err
		}

		logger.Debug("wrote class", zap.String("path", r.Path), zap.String("output", out))
		ui.GenLine(w, r.Path, out)
	}

	if err := db.RecordGeneration(ctx, sqlDB, len(results), scenarios, retrying); err != nil {
		return err
	}
	ui.SummaryLine(w, len(results), scenarios, retrying)
	return nil
}

// outputPaths returns the class file for each result. Two features that
// generate the same class would share a file, so that is an error.
func outputPaths(cfg *config.Config, results []generator.Result) ([]string, error) {
	outputs := make([]string, len(results))
	owner := make(map[string]string, len(results))
	var errs []error
	for i, r := range results {
		out := filepath.Join(cfg.OutputDir, r.Type.Name+".yaml")
		if prev, ok := owner[out]; ok {
			errs = append(errs, fmt.Errorf("%s and %s both generate class %s (%s)", prev, r.Path, r.Type.Name, out))
			continue
		}
		owner[out] = r.Path
		outputs[i] = out
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return outputs, nil
}

// discover returns files when given, otherwise every match of the
// configured features pattern. Paths are sorted.
func discover(cfg *config.Config, files []string) ([]string, error) {
	if len(files) > 0 {
		paths := append([]string(nil), files...)
		sort.Strings(paths)
		return paths, nil
	}
	matches, err := doublestar.FilepathGlob(cfg.Features)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", cfg.Features, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func readInputs(paths []string) ([]generator.Input, error) {
	var inputs []generator.Input
	var errs []error
	for _, path := range paths {
		in, err := generator.ReadInput(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		inputs = append(inputs, in)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return inputs, nil
}
