package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriserin/retrygen/internal/codedom"
	"github.com/chriserin/retrygen/internal/generator"
	"github.com/chriserin/retrygen/internal/parser"
	"github.com/chriserin/retrygen/internal/tags"
	"github.com/chriserin/retrygen/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <file> <scenario>",
	Short: "Show a scenario, its retry policy and the generated methods",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunShow(cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func RunShow(w io.Writer, file, scenario string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in, err := generator.ReadInput(file)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	pf := parser.Transform(in.Doc, file, content, nil)

	matched := pf.Find(scenario)
	if matched == nil {
		return fmt.Errorf("scenario %q not found in %s", scenario, file)
	}
	p := cfg.Resolver().Resolve(tags.ParseAll(matched.Tags), tags.ParseAll(pf.FeatureTags))

	gen := generator.New(cfg, logger)
	class, err := gen.GenerateFeature(in.Doc, file)
	if err != nil {
		return err
	}
	methods := scenarioMethods(class, gen.Records(), matched)

	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
	}

	ui.ShowHeader(w, file, matched.Line)
	ui.ShowPolicy(w, p.Attempts, p.ExemptType, names)

	if background := extractBackground(string(content)); background != "" {
		fmt.Fprintln(w)
		ui.ShowGherkin(w, background)
	}

	fmt.Fprintln(w)
	ui.ShowGherkin(w, matched.Content)

	if len(methods) > 0 {
		data, err := codedom.MarshalMethods(methods...)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, string(data))
	}
	return nil
}

// scenarioMethods collects the generated methods belonging to one scenario
// in class order: its test methods, their retry inner methods and, for
// outlines, the shared body method.
func scenarioMethods(class *codedom.Type, records []generator.Record, s *parser.ParsedScenario) []*codedom.Method {
	want := map[string]bool{}
	for _, rec := range records {
		if rec.Scenario != s.Name && !strings.HasPrefix(rec.Scenario, s.Name+": ") {
			continue
		}
		want[rec.Method] = true
		if rec.Inner != "" {
			want[rec.Inner] = true
		}
	}
	if s.Outline {
		want[generator.ToIdentifier(s.Name)] = true
	}

	var methods []*codedom.Method
	for _, m := range class.Methods {
		if want[m.Name] {
			methods = append(methods, m)
		}
	}
	return methods
}

// extractBackground returns the Background section of a feature file,
// collecting lines until the next scenario, tag or rule.
func extractBackground(content string) string {
	var bgLines []string
	inBackground := false
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Background:") {
			inBackground = true
			bgLines = append(bgLines, line)
			continue
		}
		if !inBackground {
			continue
		}
		if strings.HasPrefix(trimmed, "Scenario") ||
			strings.HasPrefix(trimmed, "Example:") ||
			strings.HasPrefix(trimmed, "@") ||
			strings.HasPrefix(trimmed, "Rule:") {
			break
		}
		bgLines = append(bgLines, line)
	}

	for len(bgLines) > 0 && strings.TrimSpace(bgLines[len(bgLines)-1]) == "" {
		bgLines = bgLines[:len(bgLines)-1]
	}
	return strings.Join(bgLines, "\n")
}
