package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	tagPattern      = regexp.MustCompile(`@[^@\s]+`)
	languagePattern = regexp.MustCompile(`^#\s*language\s*:\s*(\S+)`)
)

var stepKeywords = []string{"Given", "When", "Then", "And", "But", "*"}

type block int

const (
	blockNone block = iota
	blockBackground
	blockScenario
	blockExamples
)

type parser struct {
	lines  []string
	i      int
	errors []ParseError

	feature     *Feature
	current     *ScenarioDefinition
	block       block
	pendingTags []Tag
}

// Parse parses a .feature file and returns a Document AST and any parse errors.
func Parse(filename string, content []byte) (*Document, []ParseError) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	p := &parser{lines: strings.Split(text, "\n")}
	return p.parse(filename), p.errors
}

func (p *parser) parse(filename string) *Document {
	doc := &Document{Feature: &Feature{}}
	p.feature = doc.Feature
	p.feature.Header.Language = "en"

	// Skip leading blanks and comments, honouring a language header
	for p.i < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.i])
		if m := languagePattern.FindStringSubmatch(trimmed); m != nil {
			p.feature.Header.Language = m[1]
			p.i++
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			p.i++
			continue
		}
		break
	}

	// Collect feature-level tags
	var featureTags []Tag
	for p.i < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.i])
		if isTagLine(trimmed) {
			featureTags = append(featureTags, parseTags(trimmed)...)
			p.i++
			continue
		}
		break
	}
	p.feature.Header.Tags = featureTags

	if p.i < len(p.lines) && strings.HasPrefix(strings.TrimSpace(p.lines[p.i]), "Feature:") {
		p.feature.Header.Name = keywordName(strings.TrimSpace(p.lines[p.i]), "Feature")
		p.i++
		p.feature.Header.Description = p.description()
	} else {
		// No Feature: line, use filename without extension
		p.feature.Header.Name = filenameWithoutExt(filename)
	}

	p.body()
	return doc
}

func (p *parser) body() {
	for p.i < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.i])
		lineNo := p.i + 1

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			p.i++

		case isTagLine(trimmed):
			p.pendingTags = append(p.pendingTags, parseTags(trimmed)...)
			p.i++

		case isDocStringDelimiter(trimmed):
			p.docString()

		case strings.HasPrefix(trimmed, "|"):
			p.tableRow(trimmed, lineNo)
			p.i++

		case strings.HasPrefix(trimmed, "Background:"):
			p.flush()
			p.pendingTags = nil // Background doesn't get tags
			p.feature.Background = &Background{Name: keywordName(trimmed, "Background"), Line: lineNo}
			p.block = blockBackground
			p.i++
			p.feature.Background.Description = p.description()

		case isScenarioKeyword(trimmed):
			p.flush()
			kw, outline := scenarioKeyword(trimmed)
			p.current = &ScenarioDefinition{
				Tags:     p.pendingTags,
				Scenario: Scenario{Name: keywordName(trimmed, kw)},
				Outline:  outline,
				Line:     lineNo,
			}
			p.pendingTags = nil
			p.block = blockScenario
			p.i++
			p.current.Scenario.Description = p.description()

		case strings.HasPrefix(trimmed, "Examples:") || strings.HasPrefix(trimmed, "Scenarios:"):
			kw := "Examples"
			if strings.HasPrefix(trimmed, "Scenarios:") {
				kw = "Scenarios"
			}
			if p.current == nil || !p.current.Outline {
				p.errorf(lineNo, "Examples is not supported outside a Scenario Outline")
				p.pendingTags = nil
				p.block = blockNone
				p.i++
				p.description()
				continue
			}
			p.current.Examples = append(p.current.Examples, Examples{
				Tags: p.pendingTags,
				Name: keywordName(trimmed, kw),
				Line: lineNo,
			})
			p.pendingTags = nil
			p.block = blockExamples
			p.i++
			p.description()

		case strings.HasPrefix(trimmed, "Rule:"):
			p.flush()
			p.errorf(lineNo, "Rule is not supported")
			p.pendingTags = nil
			p.block = blockNone
			p.i++
			p.description()

		case isStep(trimmed):
			p.step(trimmed, lineNo)
			p.i++

		default:
			// Free text between steps carries no meaning
			p.i++
		}
	}
	p.flush()
}

// flush appends the scenario being built to the feature.
func (p *parser) flush() {
	if p.current == nil {
		return
	}
	if p.current.Outline && len(p.current.Examples) == 0 {
		p.errorf(p.current.Line, "Scenario Outline %q has no Examples", p.current.Scenario.Name)
	}
	p.feature.Scenarios = append(p.feature.Scenarios, *p.current)
	p.current = nil
}

func (p *parser) errorf(line int, format string, args ...any) {
	p.errors = append(p.errors, ParseError{Line: line, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) steps() *[]Step {
	switch p.block {
	case blockBackground:
		return &p.feature.Background.Steps
	case blockScenario:
		return &p.current.Scenario.Steps
	}
	return nil
}

func (p *parser) lastStep() *Step {
	steps := p.steps()
	if steps == nil || len(*steps) == 0 {
		return nil
	}
	return &(*steps)[len(*steps)-1]
}

func (p *parser) step(trimmed string, lineNo int) {
	steps := p.steps()
	if steps == nil {
		if p.block == blockExamples {
			p.errorf(lineNo, "step after Examples")
		} else {
			p.errorf(lineNo, "step outside of a scenario")
		}
		return
	}
	kw, text := splitStep(trimmed)
	*steps = append(*steps, Step{Keyword: kw, Text: text, Line: lineNo})
}

func (p *parser) tableRow(trimmed string, lineNo int) {
	cells := parseRow(trimmed)

	var table **DataTable
	if p.block == blockExamples {
		table = &p.current.Examples[len(p.current.Examples)-1].Table
	} else {
		st := p.lastStep()
		if st == nil {
			p.errorf(lineNo, "table row without a step")
			return
		}
		if st.Argument == nil {
			st.Argument = &StepArgument{}
		}
		table = &st.Argument.DataTable
	}

	if *table == nil {
		*table = &DataTable{HeaderRow: cells}
		return
	}
	if len(cells) != len((*table).HeaderRow) {
		p.errorf(lineNo, "inconsistent cell count within the table")
		return
	}
	(*table).Rows = append((*table).Rows, cells)
}

// docString reads a doc string block. p.i points at the opening delimiter.
func (p *parser) docString() {
	opener := p.lines[p.i]
	trimmed := strings.TrimSpace(opener)
	indent := len(opener) - len(strings.TrimLeft(opener, " \t"))
	delimiter := trimmed[:3]
	lineNo := p.i + 1

	start := p.i + 1
	p.i = skipDocString(p.lines, p.i)
	end := p.i - 1
	if end < start || strings.TrimSpace(p.lines[end]) != delimiter {
		p.errorf(lineNo, "unterminated doc string")
		end = len(p.lines)
	}

	var content []string
	for _, l := range p.lines[start:end] {
		content = append(content, unindent(l, indent))
	}

	st := p.lastStep()
	if st == nil {
		p.errorf(lineNo, "doc string without a step")
		return
	}
	if st.Argument == nil {
		st.Argument = &StepArgument{}
	}
	st.Argument.DocString = &DocString{
		MediaType: strings.TrimSpace(trimmed[3:]),
		Content:   strings.Join(content, "\n"),
	}
}

// description collects free text after a keyword line until the next
// keyword, tag, step, table or doc string.
func (p *parser) description() string {
	var desc []string
	for p.i < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.i])
		if isKeyword(trimmed) || isTagLine(trimmed) || isStep(trimmed) ||
			strings.HasPrefix(trimmed, "|") || isDocStringDelimiter(trimmed) {
			break
		}
		if !strings.HasPrefix(trimmed, "#") {
			desc = append(desc, trimmed)
		}
		p.i++
	}
	return strings.TrimSpace(strings.Join(desc, "\n"))
}

func parseTags(line string) []Tag {
	matches := tagPattern.FindAllString(line, -1)
	var tags []Tag
	for _, m := range matches {
		tags = append(tags, Tag{Name: m})
	}
	return tags
}

// parseRow splits a table row into trimmed cells, honouring \|, \\ and \n.
func parseRow(trimmed string) []string {
	s := strings.TrimPrefix(trimmed, "|")
	var cells []string
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case '|', '\\':
				b.WriteByte(s[i])
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i])
			}
		case c == '|':
			cells = append(cells, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return cells
}

func splitStep(trimmed string) (keyword, text string) {
	for _, kw := range stepKeywords {
		if rest, ok := strings.CutPrefix(trimmed, kw+" "); ok {
			return kw, strings.TrimSpace(rest)
		}
	}
	return "", trimmed
}

func isStep(trimmed string) bool {
	kw, _ := splitStep(trimmed)
	return kw != ""
}

func isTagLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "@")
}

func isScenarioKeyword(trimmed string) bool {
	_, outline := scenarioKeyword(trimmed)
	return outline || strings.HasPrefix(trimmed, "Scenario:") || strings.HasPrefix(trimmed, "Example:")
}

func scenarioKeyword(trimmed string) (keyword string, outline bool) {
	switch {
	case strings.HasPrefix(trimmed, "Scenario Outline:"):
		return "Scenario Outline", true
	case strings.HasPrefix(trimmed, "Scenario Template:"):
		return "Scenario Template", true
	case strings.HasPrefix(trimmed, "Example:"):
		return "Example", false
	}
	return "Scenario", false
}

func isKeyword(trimmed string) bool {
	return strings.HasPrefix(trimmed, "Feature:") ||
		strings.HasPrefix(trimmed, "Background:") ||
		isScenarioKeyword(trimmed) ||
		strings.HasPrefix(trimmed, "Rule:") ||
		strings.HasPrefix(trimmed, "Examples:") ||
		strings.HasPrefix(trimmed, "Scenarios:")
}

func keywordName(trimmed, keyword string) string {
	return strings.TrimSpace(strings.TrimPrefix(trimmed, keyword+":"))
}

func isDocStringDelimiter(trimmed string) bool {
	return strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "```")
}

// skipDocString advances past a doc string block. i points at the opening delimiter.
// Returns the index of the line after the closing delimiter.
func skipDocString(lines []string, i int) int {
	opener := strings.TrimSpace(lines[i])
	delimiter := `"""`
	if strings.HasPrefix(opener, "```") {
		delimiter = "```"
	}
	i++ // move past opening delimiter
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == delimiter {
			return i + 1 // past the closing delimiter
		}
		i++
	}
	return i // EOF without closing delimiter
}

// unindent removes up to n leading whitespace characters.
func unindent(line string, n int) string {
	i := 0
	for i < n && i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[i:]
}
