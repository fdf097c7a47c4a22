package template

import (
	"regexp"
	"strconv"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`<([^>]+)>`)

var (
	escaper   = strings.NewReplacer("{", "{{", "}", "}}")
	unescaper = strings.NewReplacer("{{", "{", "}}", "}")
)

// Mapping binds outline placeholder names to identifiers, in header order.
type Mapping struct {
	pairs []pair
}

type pair struct {
	name  string
	ident string
}

// NewMapping builds a mapping from an Examples header, deriving each
// identifier with ident. Duplicate names keep their first binding.
func NewMapping(header []string, ident func(string) string) *Mapping {
	m := &Mapping{}
	for _, h := range header {
		m.Add(h, ident(h))
	}
	return m
}

// Add binds name to ident unless name is already bound.
func (m *Mapping) Add(name, ident string) {
	name = strings.TrimSpace(name)
	if _, ok := m.Lookup(name); ok {
		return
	}
	m.pairs = append(m.pairs, pair{name: name, ident: ident})
}

// Lookup returns the identifier bound to name.
func (m *Mapping) Lookup(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, p := range m.pairs {
		if p.name == name {
			return p.ident, true
		}
	}
	return "", false
}

// Names returns the placeholder names in binding order.
func (m *Mapping) Names() []string {
	out := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		out[i] = p.name
	}
	return out
}

// Identifiers returns the bound identifiers in binding order.
func (m *Mapping) Identifiers() []string {
	out := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		out[i] = p.ident
	}
	return out
}

// Len returns the number of bindings.
func (m *Mapping) Len() int {
	return len(m.pairs)
}

// Template is compiled scenario text. Format uses positional markers {0},
// {1}, ... into Args; literal braces are doubled.
type Template struct {
	Format string
	Args   []string
	Absent bool
}

// IsLiteral reports whether the template needs no formatting call.
func (t Template) IsLiteral() bool {
	return len(t.Args) == 0
}

// Text returns the literal text of a template with no arguments.
func (t Template) Text() string {
	return unescaper.Replace(t.Format)
}

// Compile turns text into a format template, substituting every <name>
// placeholder bound in m. A nil text yields an absent template; a nil
// mapping yields a literal.
func Compile(text *string, m *Mapping) Template {
	if text == nil {
		return Template{Absent: true}
	}

	format := escaper.Replace(*text)
	if m == nil {
		return Template{Format: format}
	}

	var args []string
	format = placeholderPattern.ReplaceAllStringFunc(format, func(match string) string {
		ident, ok := m.Lookup(match[1 : len(match)-1])
		if !ok {
			return match
		}
		idx := indexOf(args, ident)
		if idx < 0 {
			idx = len(args)
			args = append(args, ident)
		}
		return "{" + strconv.Itoa(idx) + "}"
	})

	if len(args) == 0 {
		return Template{Format: escaper.Replace(*text)}
	}
	return Template{Format: format, Args: args}
}

// CompileString is Compile for text that is always present.
func CompileString(text string, m *Mapping) Template {
	return Compile(&text, m)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
