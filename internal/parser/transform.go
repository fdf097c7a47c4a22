package parser

import (
	"strings"
)

// ParsedFile is the Layer 2 summary extracted from the AST.
type ParsedFile struct {
	Name        string
	FeatureTags []string
	Scenarios   []ParsedScenario
	Errors      []ParseError
}

// ParsedScenario represents a single scenario extracted from a .feature file.
type ParsedScenario struct {
	Name     string   // from Scenario: line
	Tags     []string // raw tags, e.g. "@retry:2"
	Outline  bool
	Examples int    // number of example rows for outlines
	Content  string // raw text from Scenario: line to end of scenario
	Line     int    // 1-based line number of Scenario: line
}

// Transform converts a Layer 1 Document into a Layer 2 ParsedFile.
func Transform(doc *Document, filename string, content []byte, errors []ParseError) *ParsedFile {
	pf := &ParsedFile{
		Errors: errors,
	}

	if doc.Feature != nil {
		pf.Name = doc.Feature.Header.Name
	} else {
		pf.Name = filenameWithoutExt(filename)
	}

	if doc.Feature == nil {
		return pf
	}
	pf.FeatureTags = TagNames(doc.Feature.Header.Tags)

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")

	for _, sd := range doc.Feature.Scenarios {
		ps := ParsedScenario{
			Name:    sd.Scenario.Name,
			Tags:    TagNames(sd.Tags),
			Outline: sd.Outline,
			Line:    sd.Line,
		}
		for _, ex := range sd.Examples {
			if ex.Table != nil {
				ps.Examples += len(ex.Table.Rows)
			}
		}

		// Extract content: from Scenario: line to end of scenario
		startLine := sd.Line - 1 // 0-based
		endLine := len(lines)

		// Find the next block's start line or use end of file
		boundaries := []int{}
		for _, other := range doc.Feature.Scenarios {
			boundaries = append(boundaries, other.Line)
		}
		if doc.Feature.Background != nil {
			boundaries = append(boundaries, doc.Feature.Background.Line)
		}
		for _, next := range boundaries {
			if next > sd.Line && next-1 < endLine {
				// The content ends before the next block's tags or keyword line
				candidateEnd := next - 1 // 0-based index of next keyword line
				// Walk back to exclude tag lines and blank lines before the next block
				for candidateEnd > startLine {
					t := strings.TrimSpace(lines[candidateEnd-1])
					if t == "" || strings.HasPrefix(t, "@") || strings.HasPrefix(t, "#") {
						candidateEnd--
					} else {
						break
					}
				}
				if candidateEnd < endLine {
					endLine = candidateEnd
				}
			}
		}

		// Trim trailing blank lines
		for endLine > startLine && strings.TrimSpace(lines[endLine-1]) == "" {
			endLine--
		}

		if startLine < len(lines) {
			contentLines := lines[startLine:endLine]
			ps.Content = strings.Join(contentLines, "\n")
		}

		pf.Scenarios = append(pf.Scenarios, ps)
	}

	return pf
}

// Find returns the scenario with the given name, or nil.
func (pf *ParsedFile) Find(name string) *ParsedScenario {
	for i := range pf.Scenarios {
		if pf.Scenarios[i].Name == name {
			return &pf.Scenarios[i]
		}
	}
	return nil
}

func filenameWithoutExt(filename string) string {
	name := filename
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return name
}
