package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chriserin/retrygen/internal/parser"
	"github.com/chriserin/retrygen/internal/tags"
	"github.com/chriserin/retrygen/internal/ui"
)

var retryingFlag bool

var listCmd = &cobra.Command{
	Use:   "list [files...]",
	Short: "List scenarios with their resolved retry policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunList(cmd.OutOrStdout(), args, retryingFlag)
	},
}

func init() {
	listCmd.Flags().BoolVar(&retryingFlag, "retrying", false, "Show only scenarios that retry")
	rootCmd.AddCommand(listCmd)
}

type listRow struct {
	fileName string
	name     string
	attempts int
	exempt   string
}

func RunList(w io.Writer, files []string, retryingOnly bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	paths, err := discover(cfg, files)
	if err != nil {
		return err
	}

	resolver := cfg.Resolver()
	var results []listRow
	var errs []error
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", path, err))
			continue
		}
		doc, parseErrors := parser.Parse(path, content)
		pf := parser.Transform(doc, path, content, parseErrors)
		for _, pe := range pf.Errors {
			errs = append(errs, fmt.Errorf("%s:%d: %s", path, pe.Line, pe.Message))
		}

		featureTags := tags.ParseAll(pf.FeatureTags)
		for _, s := range pf.Scenarios {
			p := resolver.Resolve(tags.ParseAll(s.Tags), featureTags)
			if retryingOnly && !p.Enabled() {
				continue
			}
			results = append(results, listRow{
				fileName: filepath.Base(path),
				name:     s.Name,
				attempts: p.Attempts,
				exempt:   p.ExemptType,
			})
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	fileWidth, nameWidth := 0, 0
	for _, r := range results {
		fileWidth = max(fileWidth, len(r.fileName))
		nameWidth = max(nameWidth, len(r.name))
	}
	for _, r := range results {
		ui.PolicyRow(w, r.fileName, r.name, r.attempts, r.exempt, fileWidth, nameWidth)
	}
	return nil
}
