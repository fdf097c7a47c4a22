package codedom

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Every node marshals as a single-key map naming its kind, e.g.
//
//	- expr: {x: {call: {target: {ident: testRunner}, method: OnScenarioEnd}}}

func kind(name string, v any) (any, error) {
	return map[string]any{name: v}, nil
}

func (s *ExprStmt) MarshalYAML() (any, error) {
	type plain ExprStmt
	return kind("expr", (*plain)(s))
}

func (s *VarDecl) MarshalYAML() (any, error) {
	type plain VarDecl
	return kind("var", (*plain)(s))
}

func (s *Assign) MarshalYAML() (any, error) {
	type plain Assign
	return kind("assign", (*plain)(s))
}

func (s *For) MarshalYAML() (any, error) {
	type plain For
	return kind("for", (*plain)(s))
}

func (s *If) MarshalYAML() (any, error) {
	type plain If
	return kind("if", (*plain)(s))
}

func (s *Try) MarshalYAML() (any, error) {
	type plain Try
	return kind("try", (*plain)(s))
}

func (s *Throw) MarshalYAML() (any, error) {
	type plain Throw
	return kind("throw", (*plain)(s))
}

func (*Return) MarshalYAML() (any, error) {
	return "return", nil
}

func (e *Ident) MarshalYAML() (any, error) {
	return kind("ident", e.Name)
}

func (*This) MarshalYAML() (any, error) {
	return "this", nil
}

func (e *Literal) MarshalYAML() (any, error) {
	return kind("literal", e.Value)
}

func (e *Null) MarshalYAML() (any, error) {
	type plain Null
	return kind("null", (*plain)(e))
}

func (e *Call) MarshalYAML() (any, error) {
	type plain Call
	return kind("call", (*plain)(e))
}

func (e *New) MarshalYAML() (any, error) {
	type plain New
	return kind("new", (*plain)(e))
}

func (e *Array) MarshalYAML() (any, error) {
	type plain Array
	return kind("array", (*plain)(e))
}

func (e *Binary) MarshalYAML() (any, error) {
	type plain Binary
	return kind("binary", (*plain)(e))
}

func (e *Format) MarshalYAML() (any, error) {
	type plain Format
	return kind("format", (*plain)(e))
}

func (e *TypeRef) MarshalYAML() (any, error) {
	return kind("type", e.Name)
}

// Marshal renders a type as YAML.
func Marshal(t *Type) ([]byte, error) {
	data, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", t.Name, err)
	}
	return data, nil
}

// MarshalMethods renders a subset of methods as a YAML sequence.
func MarshalMethods(methods ...*Method) ([]byte, error) {
	data, err := yaml.Marshal(methods)
	if err != nil {
		return nil, fmt.Errorf("marshaling methods: %w", err)
	}
	return data, nil
}
