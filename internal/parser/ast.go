package parser

// Layer 1: Gherkin AST types

type Document struct {
	Feature *Feature
}

type Feature struct {
	Header     FeatureHeader
	Background *Background
	Scenarios  []ScenarioDefinition
}

type FeatureHeader struct {
	Tags        []Tag
	Name        string
	Description string
	Language    string // from a "# language:" header, "en" by default
}

type Background struct {
	Name        string
	Description string
	Steps       []Step
	Line        int
}

type ScenarioDefinition struct {
	Tags     []Tag
	Scenario Scenario
	Outline  bool       // Scenario Outline / Scenario Template
	Examples []Examples // only for outlines
	Line     int        // 1-based line number of Scenario: line
}

type Scenario struct {
	Name        string
	Description string
	Steps       []Step
}

type Examples struct {
	Tags  []Tag
	Name  string
	Table *DataTable
	Line  int
}

type Tag struct {
	Name string // e.g. "@smoke", "@retry:3"
}

type Step struct {
	Keyword  string // Given, When, Then, And, But, *
	Text     string
	Argument *StepArgument
	Line     int
}

type StepArgument struct {
	DocString *DocString
	DataTable *DataTable
}

type DocString struct {
	MediaType string
	Content   string
}

type DataTable struct {
	HeaderRow []string
	Rows      [][]string
}

type ParseError struct {
	Line    int
	Message string
}

// TagNames returns the raw names of tags, e.g. ["@smoke", "@retry:3"].
func TagNames(tags []Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Name
	}
	return out
}
