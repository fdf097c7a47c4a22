// Package generator builds the codedom model of a test class from a parsed
// feature file, wrapping retry-tagged scenarios in an attempt loop.
package generator

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/chriserin/retrygen/internal/codedom"
	"github.com/chriserin/retrygen/internal/config"
	"github.com/chriserin/retrygen/internal/parser"
	"github.com/chriserin/retrygen/internal/policy"
	"github.com/chriserin/retrygen/internal/retry"
	"github.com/chriserin/retrygen/internal/tags"
	"github.com/chriserin/retrygen/internal/template"
)

const (
	runtimeNamespace = "TechTalk.SpecFlow"

	featureSetupName    = "FeatureSetup"
	featureTearDownName = "FeatureTearDown"
	testInitializeName  = "TestInitialize"
	testCleanupName     = "ScenarioTearDown"
	scenarioSetupName   = "ScenarioSetup"
	scenarioCleanupName = "ScenarioCleanup"
	backgroundName      = "FeatureBackground"

	exampleTagsParam = "exampleTags"
	mergedTagsVar    = "__tags"
	scenarioInfoVar  = "scenarioInfo"
	featureInfoVar   = "featureInfo"
)

var (
	ErrUntitledScenario     = errors.New("the scenario must have a title specified")
	ErrInconsistentExamples = errors.New("examples tables have different headers")
	ErrDuplicateMethod      = errors.New("method name is generated more than once")
)

// Record describes one generated test method and the retry policy it got.
type Record struct {
	Scenario string
	Method   string
	Inner    string // retry inner method, empty when the policy is disabled
	Policy   policy.RetryPolicy
}

// Generator builds test classes. It keeps per-feature state such as the
// table counter, so each goroutine needs its own Generator.
type Generator struct {
	cfg      *config.Config
	resolver policy.Resolver
	retry    *retry.Synthesizer
	runner   codedom.Expr
	log      *zap.Logger

	tableCounter int
	records      []Record
}

// New returns a Generator for cfg. A nil logger discards output.
func New(cfg *config.Config, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		cfg:      cfg,
		resolver: cfg.Resolver(),
		retry:    retry.New(cfg.TestRunnerField),
		runner:   codedom.Var(cfg.TestRunnerField),
		log:      log.Named("generator"),
	}
}

// Records returns a record per test method generated so far.
func (g *Generator) Records() []Record {
	return g.records
}

type featureContext struct {
	typ         *codedom.Type
	feature     *parser.Feature
	featureTags tags.Set
}

// GenerateFeature builds the test class for doc. sourcePath is only used
// for error messages and the class's source reference.
func (g *Generator) GenerateFeature(doc *parser.Document, sourcePath string) (*codedom.Type, error) {
	if doc == nil || doc.Feature == nil {
		return nil, fmt.Errorf("%s: document has no feature", sourcePath)
	}
	f := doc.Feature
	fc := &featureContext{
		typ:         codedom.NewType(ToIdentifier(f.Header.Name) + "Feature"),
		feature:     f,
		featureTags: tags.ParseAll(parser.TagNames(f.Header.Tags)),
	}

	typ := fc.typ
	typ.Namespace = g.cfg.Namespace
	typ.Imports = []string{runtimeNamespace}
	typ.Description = f.Header.Description
	typ.Source = sourcePath
	typ.Categories = g.categories(fc.featureTags)
	typ.AddField(g.cfg.TestRunnerField, "ITestRunner")

	g.classInitialize(fc)
	g.classCleanup(fc)
	g.testInitialize(fc)
	g.testCleanup(fc)
	g.scenarioInitialize(fc)
	g.background(fc)
	g.scenarioCleanup(fc)

	for i := range f.Scenarios {
		sd := &f.Scenarios[i]
		if strings.TrimSpace(sd.Scenario.Name) == "" {
			return nil, fmt.Errorf("%s:%d: %w", sourcePath, sd.Line, ErrUntitledScenario)
		}

		var err error
		if sd.Outline {
			err = g.outline(fc, sd)
		} else {
			err = g.scenario(fc, sd)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: scenario %q: %w", sourcePath, sd.Scenario.Name, err)
		}
	}

	if err := checkMethodNames(typ); err != nil {
		return nil, fmt.Errorf("%s: %w", sourcePath, err)
	}

	g.log.Debug("generated feature",
		zap.String("path", sourcePath),
		zap.String("class", typ.Name),
		zap.Int("methods", len(typ.Methods)))
	return typ, nil
}

// checkMethodNames fails when two scenarios, or a scenario and a generated
// helper, end up with the same method name.
func checkMethodNames(typ *codedom.Type) error {
	seen := make(map[string]bool, len(typ.Methods))
	for _, m := range typ.Methods {
		if seen[m.Name] {
			return fmt.Errorf("%q: %w", m.Name, ErrDuplicateMethod)
		}
		seen[m.Name] = true
	}
	return nil
}

func (g *Generator) classInitialize(fc *featureContext) {
	m := fc.typ.AddMethod(featureSetupName)
	m.Role = codedom.RoleClassInitialize

	var runnerArgs []codedom.Expr
	if !g.cfg.ParallelExecution {
		runnerArgs = []codedom.Expr{&codedom.Null{}, codedom.Int(0)}
	}

	h := fc.feature.Header
	m.Append(
		&codedom.Assign{
			Target: g.runner,
			Value: &codedom.Call{
				Target: &codedom.TypeRef{Name: "TestRunnerManager"},
				Method: "GetTestRunner",
				Args:   runnerArgs,
			},
		},
		&codedom.VarDecl{
			Name: featureInfoVar,
			Type: "FeatureInfo",
			Init: &codedom.New{Type: "FeatureInfo", Args: []codedom.Expr{
				&codedom.New{Type: "CultureInfo", Args: []codedom.Expr{codedom.Str(h.Language)}},
				codedom.Str(h.Name),
				codedom.Str(h.Description),
				tagArray(fc.featureTags),
			}},
		},
		codedom.Invoke(g.runner, "OnFeatureStart", codedom.Var(featureInfoVar)),
	)
}

func (g *Generator) classCleanup(fc *featureContext) {
	m := fc.typ.AddMethod(featureTearDownName)
	m.Role = codedom.RoleClassCleanup
	m.Append(
		codedom.Invoke(g.runner, "OnFeatureEnd"),
		&codedom.Assign{Target: g.runner, Value: &codedom.Null{}},
	)
}

func (g *Generator) testInitialize(fc *featureContext) {
	m := fc.typ.AddMethod(testInitializeName)
	m.Role = codedom.RoleTestInitialize
}

func (g *Generator) testCleanup(fc *featureContext) {
	m := fc.typ.AddMethod(testCleanupName)
	m.Role = codedom.RoleTestCleanup
	m.Append(codedom.Invoke(g.runner, "OnScenarioEnd"))
}

func (g *Generator) scenarioInitialize(fc *featureContext) {
	m := fc.typ.AddMethod(scenarioSetupName)
	m.AddParam(scenarioInfoVar, "ScenarioInfo")
	m.Append(codedom.Invoke(g.runner, "OnScenarioStart", codedom.Var(scenarioInfoVar)))
}

func (g *Generator) background(fc *featureContext) {
	bg := fc.feature.Background
	if bg == nil {
		return
	}
	m := fc.typ.AddMethod(backgroundName)
	g.steps(m, bg.Steps, nil)
}

func (g *Generator) scenarioCleanup(fc *featureContext) {
	m := fc.typ.AddMethod(scenarioCleanupName)
	m.Append(codedom.Invoke(g.runner, "CollectScenarioErrors"))
}

func (g *Generator) scenario(fc *featureContext, sd *parser.ScenarioDefinition) error {
	scenarioTags := tags.ParseAll(parser.TagNames(sd.Tags))

	m := fc.typ.AddMethod(ToIdentifier(sd.Scenario.Name))
	g.setupTestMethod(m, sd.Scenario.Name, scenarioTags)

	body, err := g.wrap(fc, m, sd.Scenario.Name, scenarioTags)
	if err != nil {
		return err
	}
	g.testBody(fc, body, sd, nil, nil)
	return nil
}

// outline generates the parameterised outline method and, unless row tests
// are allowed, one test method per example row that calls it.
func (g *Generator) outline(fc *featureContext, sd *parser.ScenarioDefinition) error {
	header, err := examplesHeader(sd.Examples)
	if err != nil {
		return err
	}
	mapping := template.NewMapping(header, ToCamelCase)
	columns := columnIndexes(header, mapping.Names())
	scenarioTags := tags.ParseAll(parser.TagNames(sd.Tags))
	name := sd.Scenario.Name

	outline := fc.typ.AddMethod(ToIdentifier(name))
	for _, id := range mapping.Identifiers() {
		outline.AddParam(id, "string")
	}
	outline.AddParam(exampleTagsParam, "string[]")

	if g.cfg.AllowRowTests {
		g.setupTestMethod(outline, name, scenarioTags)
		outline.Role = codedom.RoleRowTest
		for _, ex := range sd.Examples {
			if ex.Table == nil {
				continue
			}
			exTags := tags.ParseAll(parser.TagNames(ex.Tags))
			for _, row := range ex.Table.Rows {
				outline.Rows = append(outline.Rows, codedom.Row{
					Values:  pick(row, columns),
					Tags:    exTags.Strings(),
					Ignored: exTags.Has(g.cfg.Tags.Ignore),
				})
			}
		}
		body, err := g.wrap(fc, outline, name, scenarioTags)
		if err != nil {
			return err
		}
		g.testBody(fc, body, sd, codedom.Var(exampleTagsParam), mapping)
		return nil
	}

	g.testBody(fc, outline, sd, codedom.Var(exampleTagsParam), mapping)

	unnamed := 0
	for _, ex := range sd.Examples {
		if ex.Name == "" {
			unnamed++
		}
	}

	for i, ex := range sd.Examples {
		if ex.Table == nil {
			continue
		}
		setID := ""
		switch {
		case ex.Name != "":
			setID = ToIdentifier(ex.Name)
		case unnamed > 1:
			setID = ToIdentifier(fmt.Sprintf("ExampleSet %d", i))
		}
		firstColumn := canUseFirstColumnAsName(ex.Table.Rows)
		exTags := tags.ParseAll(parser.TagNames(ex.Tags))

		for r, row := range ex.Table.Rows {
			variant := fmt.Sprintf("Variant %d", r)
			if firstColumn {
				variant = row[0]
			}
			title := fmt.Sprintf("%s: %s", name, variant)

			m := fc.typ.AddMethod(variantMethodName(outline.Name, setID, variant))
			g.setupTestMethod(m, title, concat(scenarioTags, exTags))

			body, err := g.wrap(fc, m, title, scenarioTags)
			if err != nil {
				return err
			}
			var args []codedom.Expr
			for _, v := range pick(row, columns) {
				args = append(args, codedom.Str(v))
			}
			args = append(args, tagArray(exTags))
			body.Append(codedom.Invoke(&codedom.This{}, outline.Name, args...))
		}
	}
	return nil
}

func (g *Generator) setupTestMethod(m *codedom.Method, title string, tagSet tags.Set) {
	m.Role = codedom.RoleTest
	m.Description = title
	m.Categories = g.categories(tagSet)
	m.Ignored = tagSet.Has(g.cfg.Tags.Ignore)
}

// wrap resolves the retry policy for a test method. When retry applies it
// returns the inner method that should receive the body, otherwise m.
func (g *Generator) wrap(fc *featureContext, m *codedom.Method, title string, scenarioTags tags.Set) (*codedom.Method, error) {
	p := g.resolver.Resolve(scenarioTags, fc.featureTags)
	rec := Record{Scenario: title, Method: m.Name, Policy: p}
	if !p.Enabled() {
		g.records = append(g.records, rec)
		return m, nil
	}

	inner, err := g.retry.Wrap(fc.typ, m, p)
	if err != nil {
		return nil, err
	}
	rec.Inner = inner.Name
	g.records = append(g.records, rec)
	g.log.Debug("wrapped scenario",
		zap.String("method", m.Name),
		zap.Int("attempts", p.Attempts),
		zap.String("exempt", p.ExemptType))
	return inner, nil
}

func (g *Generator) testBody(fc *featureContext, m *codedom.Method, sd *parser.ScenarioDefinition, exampleTags codedom.Expr, mapping *template.Mapping) {
	scenarioTags := tags.ParseAll(parser.TagNames(sd.Tags))

	var tagsExpr codedom.Expr
	switch {
	case exampleTags == nil:
		tagsExpr = tagArray(scenarioTags)
	case len(scenarioTags) == 0:
		tagsExpr = exampleTags
	default:
		merged := codedom.Var(mergedTagsVar)
		enumerable := &codedom.TypeRef{Name: "Enumerable"}
		m.Append(
			&codedom.VarDecl{Name: mergedTagsVar, Type: "string[]", Init: tagArray(scenarioTags)},
			&codedom.If{
				Cond: &codedom.Binary{Left: exampleTags, Op: codedom.OpNotEqual, Right: &codedom.Null{}},
				Then: []codedom.Stmt{&codedom.Assign{
					Target: merged,
					Value: &codedom.Call{Target: enumerable, Method: "ToArray", Args: []codedom.Expr{
						&codedom.Call{Target: enumerable, Method: "Concat", Args: []codedom.Expr{merged, exampleTags}},
					}},
				}},
			},
		)
		tagsExpr = merged
	}

	m.Append(
		&codedom.VarDecl{
			Name: scenarioInfoVar,
			Type: "ScenarioInfo",
			Init: &codedom.New{Type: "ScenarioInfo", Args: []codedom.Expr{codedom.Str(sd.Scenario.Name), tagsExpr}},
		},
		codedom.Invoke(&codedom.This{}, scenarioSetupName, codedom.Var(scenarioInfoVar)),
	)
	if fc.feature.Background != nil {
		m.Append(codedom.Invoke(&codedom.This{}, backgroundName))
	}
	g.steps(m, sd.Scenario.Steps, mapping)
	m.Append(codedom.Invoke(&codedom.This{}, scenarioCleanupName))
}

func (g *Generator) steps(m *codedom.Method, steps []parser.Step, mapping *template.Mapping) {
	keyword := "Given"
	for _, st := range steps {
		keyword = stepKeyword(st.Keyword, keyword)

		var docString *string
		var table *parser.DataTable
		if st.Argument != nil {
			if st.Argument.DocString != nil {
				docString = &st.Argument.DocString.Content
			}
			table = st.Argument.DataTable
		}

		text := templateExpr(template.CompileString(st.Text, mapping), "string")
		doc := templateExpr(template.Compile(docString, mapping), "string")
		tableArg := g.table(m, table, mapping)

		m.Append(codedom.Invoke(g.runner, keyword, text, doc, tableArg, codedom.Str(st.Keyword)))
	}
}

// table declares tableN and fills it, returning a reference to it.
func (g *Generator) table(m *codedom.Method, dt *parser.DataTable, mapping *template.Mapping) codedom.Expr {
	if dt == nil {
		return &codedom.Null{Type: "Table"}
	}
	g.tableCounter++
	name := fmt.Sprintf("table%d", g.tableCounter)
	ref := codedom.Var(name)

	m.Append(&codedom.VarDecl{
		Name: name,
		Type: "Table",
		Init: &codedom.New{Type: "Table", Args: []codedom.Expr{cellArray(dt.HeaderRow, mapping)}},
	})
	for _, row := range dt.Rows {
		m.Append(codedom.Invoke(ref, "AddRow", cellArray(row, mapping)))
	}
	return ref
}

func (g *Generator) categories(tagSet tags.Set) []string {
	t := g.cfg.Tags
	return tagSet.Without(t.Ignore, t.Retry, t.RetryExcept).Strings()
}

// stepKeyword maps And, But and * onto the previous step's keyword.
func stepKeyword(keyword, previous string) string {
	switch keyword {
	case "Given", "When", "Then":
		return keyword
	}
	return previous
}

func templateExpr(t template.Template, typ string) codedom.Expr {
	switch {
	case t.Absent:
		return &codedom.Null{Type: typ}
	case t.IsLiteral():
		return codedom.Str(t.Text())
	}
	args := make([]codedom.Expr, len(t.Args))
	for i, a := range t.Args {
		args[i] = codedom.Var(a)
	}
	return &codedom.Format{Format: t.Format, Args: args}
}

func cellArray(cells []string, mapping *template.Mapping) codedom.Expr {
	elems := make([]codedom.Expr, len(cells))
	for i, c := range cells {
		elems[i] = templateExpr(template.CompileString(c, mapping), "string")
	}
	return &codedom.Array{Type: "string[]", Elems: elems}
}

func tagArray(s tags.Set) codedom.Expr {
	if len(s) == 0 {
		return &codedom.Null{Type: "string[]"}
	}
	elems := make([]codedom.Expr, len(s))
	for i, t := range s {
		elems[i] = codedom.Str(t.String())
	}
	return &codedom.Array{Type: "string[]", Elems: elems}
}

func concat(sets ...tags.Set) tags.Set {
	var out tags.Set
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

// examplesHeader returns the shared header of every Examples table.
func examplesHeader(examples []parser.Examples) ([]string, error) {
	var header []string
	found := false
	for _, ex := range examples {
		if ex.Table == nil {
			continue
		}
		if !found {
			header, found = ex.Table.HeaderRow, true
			continue
		}
		if !slices.Equal(trimAll(header), trimAll(ex.Table.HeaderRow)) {
			return nil, fmt.Errorf("%w: Examples at line %d", ErrInconsistentExamples, ex.Line)
		}
	}
	return header, nil
}

// columnIndexes returns, for each name, the first header column holding it.
func columnIndexes(header, names []string) []int {
	idx := make([]int, len(names))
	for i, n := range names {
		idx[i] = slices.IndexFunc(header, func(h string) bool { return strings.TrimSpace(h) == n })
	}
	return idx
}

func pick(row []string, columns []int) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		if c >= 0 && c < len(row) {
			out[i] = row[c]
		}
	}
	return out
}

// canUseFirstColumnAsName reports whether the first column identifies
// every row uniquely.
func canUseFirstColumnAsName(rows [][]string) bool {
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			return false
		}
		id := ToIdentifier(row[0])
		if id == "" || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

func variantMethodName(base, setID, variant string) string {
	v := strings.TrimLeft(ToIdentifier(variant), "_")
	if setID == "" {
		return base + "_" + v
	}
	return base + "_" + setID + "_" + v
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
