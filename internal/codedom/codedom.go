// Package codedom is a language-neutral model of a generated test class:
// types, methods, statements and expressions. A code-emission layer turns it
// into source text; this repository only builds and inspects it.
package codedom

// Role tells the emission layer which test-framework hook a method implements.
type Role string

const (
	RoleHelper          Role = "helper"
	RoleTest            Role = "test"
	RoleRowTest         Role = "row-test"
	RoleClassInitialize Role = "class-initialize"
	RoleClassCleanup    Role = "class-cleanup"
	RoleTestInitialize  Role = "test-initialize"
	RoleTestCleanup     Role = "test-cleanup"
)

// Type is the enclosing test class.
type Type struct {
	Name        string    `yaml:"name"`
	Namespace   string    `yaml:"namespace,omitempty"`
	Imports     []string  `yaml:"imports,omitempty"`
	Description string    `yaml:"description,omitempty"`
	Source      string    `yaml:"source,omitempty"`
	Categories  []string  `yaml:"categories,omitempty"`
	Fields      []Field   `yaml:"fields,omitempty"`
	Methods     []*Method `yaml:"methods"`
}

// Field is a member variable of a Type.
type Field struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// NewType returns an empty type.
func NewType(name string) *Type {
	return &Type{Name: name}
}

// AddField declares a field and returns a reference to it.
func (t *Type) AddField(name, typ string) Expr {
	t.Fields = append(t.Fields, Field{Name: name, Type: typ})
	return &Ident{Name: name}
}

// AddMethod creates a method inside t.
func (t *Type) AddMethod(name string) *Method {
	m := &Method{Name: name, Role: RoleHelper}
	t.Methods = append(t.Methods, m)
	return m
}

// Method returns the method with the given name, or nil.
func (t *Type) Method(name string) *Method {
	for _, m := range t.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Param is a method parameter.
type Param struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Row is one data row of a row test.
type Row struct {
	Values  []string `yaml:"values"`
	Tags    []string `yaml:"tags,omitempty"`
	Ignored bool     `yaml:"ignored,omitempty"`
}

// Method is a TestMethodNode: a name, ordered parameters and an ordered body.
type Method struct {
	Name        string   `yaml:"name"`
	Role        Role     `yaml:"role"`
	Description string   `yaml:"description,omitempty"`
	Categories  []string `yaml:"categories,omitempty"`
	Ignored     bool     `yaml:"ignored,omitempty"`
	Params      []Param  `yaml:"params,omitempty"`
	Rows        []Row    `yaml:"rows,omitempty"`
	Body        []Stmt   `yaml:"body,omitempty"`
}

// AddParam appends a parameter.
func (m *Method) AddParam(name, typ string) {
	m.Params = append(m.Params, Param{Name: name, Type: typ})
}

// Append adds statements to the end of the body.
func (m *Method) Append(stmts ...Stmt) {
	m.Body = append(m.Body, stmts...)
}

// ParamRefs returns a reference to every parameter, in order.
func (m *Method) ParamRefs() []Expr {
	refs := make([]Expr, len(m.Params))
	for i, p := range m.Params {
		refs[i] = &Ident{Name: p.Name}
	}
	return refs
}
